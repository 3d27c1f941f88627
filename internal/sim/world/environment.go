package world

import (
	"fmt"
	"log"
	"os"
	"sort"

	"agentgrid.ai/internal/sim/grid"
)

// Environment owns the three co-indexed grids plus per-agent bookkeeping.
// All mutation goes through AddItem/AddAgent at construction time and
// ProcessAction during play; everything else is read-only.
type Environment struct {
	terrain   *grid.Grid[Cell]
	items     *grid.Grid[Item]
	occupancy *grid.Grid[EntityID]

	agents    map[EntityID]*AgentState
	behaviors map[EntityID]Behavior

	nextEntityID EntityID
	turn         uint64

	logger *log.Logger
}

// NewEnvironment creates an empty environment of the given size. All cells
// start as Floor with no items and no agents.
func NewEnvironment(width, height int) *Environment {
	return &Environment{
		terrain:      grid.New[Cell](width, height),
		items:        grid.New[Item](width, height),
		occupancy:    grid.New[EntityID](width, height),
		agents:       map[EntityID]*AgentState{},
		behaviors:    map[EntityID]Behavior{},
		nextEntityID: 1, // 0 is the NoEntity sentinel
		logger:       log.New(os.Stderr, "[world] ", log.LstdFlags),
	}
}

// SetLogger replaces the logger used for non-fatal warnings and swallowed
// in-play failures.
func (e *Environment) SetLogger(l *log.Logger) {
	if l != nil {
		e.logger = l
	}
}

func (e *Environment) Width() int  { return e.terrain.Width() }
func (e *Environment) Height() int { return e.terrain.Height() }

// CurrentTurn returns the number of completed turns.
func (e *Environment) CurrentTurn() uint64 { return e.turn }

// ReserveEntityID hands out the next unused agent id.
func (e *Environment) ReserveEntityID() EntityID {
	id := e.nextEntityID
	e.nextEntityID++
	return id
}

// SetCell writes terrain during world construction. Terrain never changes
// during play except doors opening via ProcessAction.
func (e *Environment) SetCell(p Position, c Cell) error {
	return e.terrain.Set(p.X, p.Y, c)
}

// AddItem places an item during world construction. It fails when the
// position is out of bounds, already holds an item, is occupied by an
// agent, or is a wall.
func (e *Environment) AddItem(p Position, it Item) error {
	if !e.terrain.IsValid(p.X, p.Y) {
		return fmt.Errorf("position %v is out of bounds", p)
	}
	if e.items.At(p).Kind != ItemNone {
		return fmt.Errorf("position %v already contains an item", p)
	}
	if e.occupancy.At(p) != NoEntity {
		return fmt.Errorf("position %v is occupied by an agent", p)
	}
	if e.terrain.At(p).Kind == Wall {
		return fmt.Errorf("cannot place item inside a wall at %v", p)
	}
	e.items.SetAt(p, it)
	return nil
}

// AddAgent registers an agent at the given position. Placement on an item
// is allowed but logged as a warning; placement on a wall, a closed door,
// another agent, out of bounds, or with an id already in use fails.
// On success the id is recorded in the occupancy grid and the id counter is
// advanced past it.
func (e *Environment) AddAgent(p Position, b Behavior, inventory []Item) (EntityID, error) {
	id := b.ID()

	if !e.terrain.IsValid(p.X, p.Y) {
		return NoEntity, fmt.Errorf("position %v is out of bounds", p)
	}
	if e.occupancy.At(p) != NoEntity {
		return NoEntity, fmt.Errorf("position %v is already occupied by an agent", p)
	}
	if e.items.At(p).Kind != ItemNone {
		e.logger.Printf("warning: placing agent %d on top of item at %v", id, p)
	}
	switch c := e.terrain.At(p); {
	case c.Kind == Wall:
		return NoEntity, fmt.Errorf("cannot place agent inside a wall at %v", p)
	case c.Kind == Door && !c.Open:
		return NoEntity, fmt.Errorf("cannot place agent inside a closed door at %v", p)
	}
	if id == NoEntity {
		return NoEntity, fmt.Errorf("agent id 0 is reserved")
	}
	if _, ok := e.agents[id]; ok {
		return NoEntity, fmt.Errorf("agent id %d is already in use", id)
	}

	st := &AgentState{
		ID:        id,
		Position:  p,
		Inventory: append([]Item(nil), inventory...),
	}
	e.occupancy.SetAt(p, id)
	e.agents[id] = st
	e.behaviors[id] = b

	if id >= e.nextEntityID {
		e.nextEntityID = id + 1
	}
	return id, nil
}

// Terrain exposes the terrain grid for read-only use (renderers, planners).
func (e *Environment) Terrain() *grid.Grid[Cell] { return e.terrain }

// Items exposes the item grid for read-only use.
func (e *Environment) Items() *grid.Grid[Item] { return e.items }

// AgentLocations exposes the occupancy grid for read-only use.
func (e *Environment) AgentLocations() *grid.Grid[EntityID] { return e.occupancy }

// Agent returns a copy of the state for the given id.
func (e *Environment) Agent(id EntityID) (AgentState, bool) {
	st, ok := e.agents[id]
	if !ok {
		return AgentState{}, false
	}
	return st.Clone(), true
}

// AgentIDs returns all registered ids in ascending order. This is the turn
// order: it must be fixed and reproducible because tie-break determinism
// depends on it.
func (e *Environment) AgentIDs() []EntityID {
	ids := make([]EntityID, 0, len(e.agents))
	for id := range e.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DoorLocations returns the positions of all closed doors whose lock
// matches the filter, in row-major order. A filter of KeyNone finds closed
// doors that require no key.
func (e *Environment) DoorLocations(lock KeyColor) []Position {
	var out []Position
	e.terrain.Each(func(p Position, c Cell) {
		if c.Kind == Door && !c.Open && c.Lock == lock {
			out = append(out, p)
		}
	})
	return out
}

// KeyLocation returns the first on-ground key of the given color in
// row-major order.
func (e *Environment) KeyLocation(c KeyColor) (Position, bool) {
	var found Position
	ok := false
	e.items.Each(func(p Position, it Item) {
		if !ok && it.Kind == ItemKey && it.Key == c {
			found, ok = p, true
		}
	})
	return found, ok
}

// CorrespondingKeyLocation looks up the door at doorPos and, when it is
// locked, returns the location of a matching on-ground key.
func (e *Environment) CorrespondingKeyLocation(doorPos Position) (Position, bool) {
	c, ok := e.terrain.Get(doorPos.X, doorPos.Y)
	if !ok || c.Kind != Door || c.Lock == KeyNone {
		return Position{}, false
	}
	return e.KeyLocation(c.Lock)
}

// viewFor builds the snapshot handed to one agent's decision function.
func (e *Environment) viewFor(st *AgentState) *View {
	return &View{
		Agent:    st.Clone(),
		Location: st.Position,
		Terrain:  e.terrain,
		Items:    e.items,
		Agents:   e.occupancy,
	}
}
