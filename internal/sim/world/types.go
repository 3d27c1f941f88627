// Package world holds the authoritative simulation state: the terrain,
// item, and occupancy grids, per-agent bookkeeping, and the turn-processing
// protocol that applies agent decisions to that state.
package world

import (
	"encoding/json"
	"fmt"

	"agentgrid.ai/internal/sim/grid"
)

// Position identifies a grid cell.
type Position = grid.Position

// EntityID uniquely identifies a registered agent. IDs are assigned
// monotonically and never reused while the agent is registered. 0 is
// reserved: it means "no agent" in the occupancy grid.
type EntityID uint64

// NoEntity is the empty occupancy value.
const NoEntity EntityID = 0

// KeyColor is the color tag shared by locked doors and the keys that open
// them. KeyNone is the zero value and marks the absence of a lock.
type KeyColor uint8

const (
	KeyNone KeyColor = iota
	KeyRed
	KeyGreen
	KeyBlue
	KeyYellow
)

// KeyColors lists the real colors in their canonical order.
var KeyColors = [4]KeyColor{KeyRed, KeyGreen, KeyBlue, KeyYellow}

func (c KeyColor) String() string {
	switch c {
	case KeyRed:
		return "red"
	case KeyGreen:
		return "green"
	case KeyBlue:
		return "blue"
	case KeyYellow:
		return "yellow"
	default:
		return "none"
	}
}

// ParseKeyColor maps a color name to its KeyColor.
func ParseKeyColor(s string) (KeyColor, error) {
	switch s {
	case "red":
		return KeyRed, nil
	case "green":
		return KeyGreen, nil
	case "blue":
		return KeyBlue, nil
	case "yellow":
		return KeyYellow, nil
	default:
		return KeyNone, fmt.Errorf("unknown key color %q", s)
	}
}

// ItemKind enumerates the collectible item variants.
type ItemKind uint8

const (
	ItemNone ItemKind = iota
	ItemKey
	ItemChip
	ItemGoal
)

func (k ItemKind) String() string {
	switch k {
	case ItemKey:
		return "key"
	case ItemChip:
		return "chip"
	case ItemGoal:
		return "goal"
	default:
		return "none"
	}
}

// Item is a collectible occupying at most one grid cell. The zero value
// means "no item here". Key is set only for ItemKey.
type Item struct {
	Kind ItemKind `json:"kind"`
	Key  KeyColor `json:"key,omitempty"`
}

func KeyItem(c KeyColor) Item { return Item{Kind: ItemKey, Key: c} }
func ChipItem() Item          { return Item{Kind: ItemChip} }
func GoalItem() Item          { return Item{Kind: ItemGoal} }

// CellKind enumerates the terrain variants.
type CellKind uint8

const (
	Floor CellKind = iota
	Wall
	Door
)

// Cell is one grid position's terrain classification. For doors, Open
// toggles at most once, from false to true; Lock never changes after
// creation. A door with Lock == KeyNone needs no key but still starts
// closed.
type Cell struct {
	Kind CellKind
	Open bool
	Lock KeyColor
}

func DoorCell(lock KeyColor) Cell { return Cell{Kind: Door, Lock: lock} }

// ActionKind enumerates what a behavior may decide to do in one turn.
type ActionKind uint8

const (
	ActWait ActionKind = iota
	ActMove
)

// Action is a single decision returned by a behavior. Moves are one step:
// DX and DY are each in {-1, 0, 1}.
type Action struct {
	Kind ActionKind `json:"kind"`
	DX   int        `json:"dx,omitempty"`
	DY   int        `json:"dy,omitempty"`
}

func Wait() Action           { return Action{Kind: ActWait} }
func Move(dx, dy int) Action { return Action{Kind: ActMove, DX: dx, DY: dy} }

func (k ActionKind) String() string {
	if k == ActMove {
		return "move"
	}
	return "wait"
}

func (k ActionKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

func (k *ActionKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "wait":
		*k = ActWait
	case "move":
		*k = ActMove
	default:
		return fmt.Errorf("unknown action kind %q", s)
	}
	return nil
}

func (a Action) String() string {
	if a.Kind == ActWait {
		return "wait"
	}
	return fmt.Sprintf("move(%d, %d)", a.DX, a.DY)
}

// Outcome classifies the result of applying one action (or one whole turn).
type Outcome uint8

const (
	Success Outcome = iota
	Failed
	Won
)

func (o Outcome) String() string {
	switch o {
	case Failed:
		return "failure"
	case Won:
		return "win"
	default:
		return "success"
	}
}

func (o Outcome) MarshalJSON() ([]byte, error) { return json.Marshal(o.String()) }

func (o *Outcome) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "success":
		*o = Success
	case "failure":
		*o = Failed
	case "win":
		*o = Won
	default:
		return fmt.Errorf("unknown outcome %q", s)
	}
	return nil
}

// In-play failure codes. Failures are non-fatal: the offending agent simply
// keeps its prior state for the turn.
const (
	CodeNoAgent     = "E_NO_AGENT"
	CodeOutOfBounds = "E_OUT_OF_BOUNDS"
	CodeBlocked     = "E_BLOCKED"
	CodeOccupied    = "E_OCCUPIED"
	CodeMissingKey  = "E_MISSING_KEY"
)

// ActionResult is the outcome of ProcessAction. Code and Message are set
// only on failure.
type ActionResult struct {
	Outcome Outcome `json:"outcome"`
	Code    string  `json:"code,omitempty"`
	Message string  `json:"message,omitempty"`
}

func success() ActionResult { return ActionResult{Outcome: Success} }

func failure(code, format string, args ...any) ActionResult {
	return ActionResult{Outcome: Failed, Code: code, Message: fmt.Sprintf(format, args...)}
}

// AgentState is the environment's bookkeeping for one agent. Inventory is
// ordered by pickup; items are appended and removed, never reordered.
type AgentState struct {
	ID        EntityID `json:"id"`
	Position  Position `json:"position"`
	Inventory []Item   `json:"inventory"`
}

// HasKey reports whether the inventory holds a key of the given color.
func (s AgentState) HasKey(c KeyColor) bool {
	for _, it := range s.Inventory {
		if it.Kind == ItemKey && it.Key == c {
			return true
		}
	}
	return false
}

// Chips counts collected chips.
func (s AgentState) Chips() int {
	n := 0
	for _, it := range s.Inventory {
		if it.Kind == ItemChip {
			n++
		}
	}
	return n
}

// Keys returns the set of key colors currently held.
func (s AgentState) Keys() map[KeyColor]bool {
	held := make(map[KeyColor]bool, 4)
	for _, it := range s.Inventory {
		if it.Kind == ItemKey {
			held[it.Key] = true
		}
	}
	return held
}

// removeKey removes one key of the given color, preserving the order of the
// remaining items. Reports whether a key was removed.
func (s *AgentState) removeKey(c KeyColor) bool {
	for i, it := range s.Inventory {
		if it.Kind == ItemKey && it.Key == c {
			s.Inventory = append(s.Inventory[:i], s.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy (the inventory slice is not shared).
func (s *AgentState) Clone() AgentState {
	out := *s
	out.Inventory = append([]Item(nil), s.Inventory...)
	return out
}

// View is the read-only snapshot a behavior receives for one decision.
// Agent is a copy of the deciding agent's own state; the grids are shared
// references into the live environment, consistent for the duration of the
// decision because turns are resolved strictly sequentially. Behaviors must
// not retain the grids past the call that produced the view.
type View struct {
	Agent    AgentState
	Location Position
	Terrain  *grid.Grid[Cell]
	Items    *grid.Grid[Item]
	Agents   *grid.Grid[EntityID]
}

// Behavior is a per-agent decision maker. Decide is called once per agent
// per turn and returns exactly one action.
type Behavior interface {
	ID() EntityID
	Decide(v *View) Action
}
