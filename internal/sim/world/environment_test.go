package world

import (
	"io"
	"log"
	"testing"
)

// scripted is a test behavior that replays a fixed action sequence, then
// waits forever.
type scripted struct {
	id      EntityID
	actions []Action
	next    int
}

func (s *scripted) ID() EntityID { return s.id }

func (s *scripted) Decide(_ *View) Action {
	if s.next >= len(s.actions) {
		return Wait()
	}
	a := s.actions[s.next]
	s.next++
	return a
}

func quietEnv(w, h int) *Environment {
	e := NewEnvironment(w, h)
	e.SetLogger(log.New(io.Discard, "", 0))
	return e
}

func TestAddItemValidation(t *testing.T) {
	e := quietEnv(3, 3)
	if err := e.SetCell(Position{X: 1, Y: 1}, Cell{Kind: Wall}); err != nil {
		t.Fatalf("SetCell: %v", err)
	}

	if err := e.AddItem(Position{X: 3, Y: 0}, ChipItem()); err == nil {
		t.Fatalf("expected error for out-of-bounds item")
	}
	if err := e.AddItem(Position{X: 1, Y: 1}, ChipItem()); err == nil {
		t.Fatalf("expected error for item on wall")
	}
	if err := e.AddItem(Position{X: 0, Y: 0}, ChipItem()); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := e.AddItem(Position{X: 0, Y: 0}, GoalItem()); err == nil {
		t.Fatalf("expected error for item on item")
	}
}

func TestAddAgentValidation(t *testing.T) {
	e := quietEnv(3, 3)
	if err := e.SetCell(Position{X: 1, Y: 0}, Cell{Kind: Wall}); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	if err := e.SetCell(Position{X: 2, Y: 0}, DoorCell(KeyNone)); err != nil {
		t.Fatalf("SetCell: %v", err)
	}

	if _, err := e.AddAgent(Position{X: 1, Y: 0}, &scripted{id: e.ReserveEntityID()}, nil); err == nil {
		t.Fatalf("expected error for agent on wall")
	}
	if _, err := e.AddAgent(Position{X: 2, Y: 0}, &scripted{id: e.ReserveEntityID()}, nil); err == nil {
		t.Fatalf("expected error for agent on closed door")
	}

	first := e.ReserveEntityID()
	if _, err := e.AddAgent(Position{X: 0, Y: 0}, &scripted{id: first}, nil); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	if _, err := e.AddAgent(Position{X: 0, Y: 0}, &scripted{id: e.ReserveEntityID()}, nil); err == nil {
		t.Fatalf("expected error for occupied position")
	}
	if _, err := e.AddAgent(Position{X: 0, Y: 1}, &scripted{id: first}, nil); err == nil {
		t.Fatalf("expected error for duplicate agent id")
	}

	// Agents may stand on items; this is a warning, not an error.
	if err := e.AddItem(Position{X: 0, Y: 2}, ChipItem()); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := e.AddAgent(Position{X: 0, Y: 2}, &scripted{id: e.ReserveEntityID()}, nil); err != nil {
		t.Fatalf("AddAgent on item: %v", err)
	}
}

func TestExplicitIDAdvancesCounter(t *testing.T) {
	e := quietEnv(3, 3)
	if _, err := e.AddAgent(Position{X: 0, Y: 0}, &scripted{id: 7}, nil); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	if next := e.ReserveEntityID(); next != 8 {
		t.Fatalf("ReserveEntityID after explicit id 7 = %d, want 8", next)
	}
}

func TestDoorAndKeyQueries(t *testing.T) {
	e := quietEnv(4, 4)
	doorPos := Position{X: 2, Y: 1}
	if err := e.SetCell(doorPos, DoorCell(KeyGreen)); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	if err := e.SetCell(Position{X: 3, Y: 3}, DoorCell(KeyRed)); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	keyPos := Position{X: 0, Y: 2}
	if err := e.AddItem(keyPos, KeyItem(KeyGreen)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	green := e.DoorLocations(KeyGreen)
	if len(green) != 1 || green[0] != doorPos {
		t.Fatalf("DoorLocations(green) = %v, want [%v]", green, doorPos)
	}
	if locs := e.DoorLocations(KeyYellow); len(locs) != 0 {
		t.Fatalf("DoorLocations(yellow) = %v, want empty", locs)
	}

	got, ok := e.CorrespondingKeyLocation(doorPos)
	if !ok || got != keyPos {
		t.Fatalf("CorrespondingKeyLocation = %v, %v, want %v, true", got, ok, keyPos)
	}
	if _, ok := e.CorrespondingKeyLocation(Position{X: 0, Y: 0}); ok {
		t.Fatalf("CorrespondingKeyLocation on floor should report false")
	}
}

// Inventory accessors must work on the copies Agent returns, including
// when chained directly on the call without binding a variable.
func TestAgentAccessorsOnReturnedCopy(t *testing.T) {
	e := quietEnv(3, 3)
	id := e.ReserveEntityID()
	inv := []Item{KeyItem(KeyRed), ChipItem(), ChipItem()}
	if _, err := e.AddAgent(Position{X: 0, Y: 0}, &scripted{id: id}, inv); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}

	mustAgent := func(id EntityID) AgentState {
		st, ok := e.Agent(id)
		if !ok {
			t.Fatalf("unknown agent %d", id)
		}
		return st
	}

	if got := mustAgent(id).Chips(); got != 2 {
		t.Fatalf("Chips() = %d, want 2", got)
	}
	if !mustAgent(id).HasKey(KeyRed) {
		t.Fatalf("HasKey(red) = false, want true")
	}
	if held := mustAgent(id).Keys(); !held[KeyRed] || len(held) != 1 {
		t.Fatalf("Keys() = %v, want {red}", held)
	}
}

func TestStateDigestChangesWithState(t *testing.T) {
	build := func() *Environment {
		e := quietEnv(3, 3)
		if _, err := e.AddAgent(Position{X: 0, Y: 0}, &scripted{id: e.ReserveEntityID(), actions: []Action{Move(1, 0)}}, nil); err != nil {
			t.Fatalf("AddAgent: %v", err)
		}
		return e
	}
	a, b := build(), build()
	if a.StateDigest() != b.StateDigest() {
		t.Fatalf("identical environments produced different digests")
	}
	before := a.StateDigest()
	a.ProcessTurn()
	if a.StateDigest() == before {
		t.Fatalf("digest did not change after a move")
	}
}
