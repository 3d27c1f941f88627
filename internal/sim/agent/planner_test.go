package agent

import (
	"io"
	"log"
	"testing"

	"agentgrid.ai/internal/sim/world"
)

func quietPlanner(id world.EntityID) *Planner {
	p := NewPlanner(id)
	p.SetLogger(log.New(io.Discard, "", 0))
	return p
}

func viewAt(v *world.View, pos world.Position) *world.View {
	v.Agent = world.AgentState{ID: 1, Position: pos}
	v.Location = pos
	return v
}

func TestPlannerHeadsForGoal(t *testing.T) {
	v := openView(3, 3)
	v.Items.SetAt(world.Position{X: 2, Y: 2}, world.GoalItem())
	p := quietPlanner(1)

	act := p.Decide(viewAt(v, world.Position{X: 0, Y: 0}))
	if act.Kind != world.ActMove {
		t.Fatalf("first decision = %v, want a move", act)
	}
	if act.DX+act.DY != 1 || (act.DX != 0 && act.DY != 0) {
		t.Fatalf("move %v is not a single cardinal step toward the goal", act)
	}
}

func TestPlannerPrefersChipOverGoal(t *testing.T) {
	v := openView(5, 1)
	// Goal right next door, chip further away: chips win while any remain.
	v.Items.SetAt(world.Position{X: 1, Y: 0}, world.GoalItem())
	v.Items.SetAt(world.Position{X: 4, Y: 0}, world.ChipItem())
	p := quietPlanner(1)

	act := p.Decide(viewAt(v, world.Position{X: 0, Y: 0}))
	if act.Kind != world.ActMove || act.DX != 1 {
		t.Fatalf("decision = %v, want move toward the chip at x=4", act)
	}
	// Waypoints after the first step: (2,0), (3,0), (4,0).
	if len(p.plan) != 3 {
		t.Fatalf("queued plan has %d waypoints, want 3", len(p.plan))
	}
}

func TestPlannerFallsBackToKeyWhenGoalLocked(t *testing.T) {
	v := openView(5, 1)
	v.Terrain.SetAt(world.Position{X: 3, Y: 0}, world.DoorCell(world.KeyRed))
	v.Items.SetAt(world.Position{X: 4, Y: 0}, world.GoalItem())
	v.Items.SetAt(world.Position{X: 1, Y: 0}, world.KeyItem(world.KeyRed))
	p := quietPlanner(1)

	act := p.Decide(viewAt(v, world.Position{X: 0, Y: 0}))
	if act.Kind != world.ActMove || act.DX != 1 {
		t.Fatalf("decision = %v, want move toward the red key", act)
	}
}

func TestPlannerWaitsWhenNothingReachable(t *testing.T) {
	v := openView(3, 1)
	v.Terrain.SetAt(world.Position{X: 1, Y: 0}, world.Cell{Kind: world.Wall})
	v.Items.SetAt(world.Position{X: 2, Y: 0}, world.GoalItem())
	p := quietPlanner(1)

	for i := 0; i < 3; i++ {
		if act := p.Decide(viewAt(v, world.Position{X: 0, Y: 0})); act.Kind != world.ActWait {
			t.Fatalf("decision %d = %v, want wait", i, act)
		}
	}
}

func TestPlannerFollowsQueuedPlanBeforeReplanning(t *testing.T) {
	v := openView(4, 1)
	v.Items.SetAt(world.Position{X: 3, Y: 0}, world.GoalItem())
	p := quietPlanner(1)

	if act := p.Decide(viewAt(v, world.Position{X: 0, Y: 0})); act != world.Move(1, 0) {
		t.Fatalf("step 1 = %v, want move(1, 0)", act)
	}
	// Two waypoints remain queued; successive decisions pop them in order.
	if act := p.Decide(viewAt(v, world.Position{X: 1, Y: 0})); act != world.Move(1, 0) {
		t.Fatalf("step 2 = %v, want move(1, 0)", act)
	}
	if act := p.Decide(viewAt(v, world.Position{X: 2, Y: 0})); act != world.Move(1, 0) {
		t.Fatalf("step 3 = %v, want move(1, 0)", act)
	}
}

func TestPlannerDropsStalePlan(t *testing.T) {
	v := openView(4, 1)
	v.Items.SetAt(world.Position{X: 3, Y: 0}, world.GoalItem())
	p := quietPlanner(1)

	if act := p.Decide(viewAt(v, world.Position{X: 0, Y: 0})); act != world.Move(1, 0) {
		t.Fatalf("initial decision = %v, want move(1, 0)", act)
	}
	// Another agent steps onto the next queued waypoint.
	v.Agents.SetAt(world.Position{X: 2, Y: 0}, 9)
	if act := p.Decide(viewAt(v, world.Position{X: 1, Y: 0})); act.Kind != world.ActWait {
		t.Fatalf("decision on blocked waypoint = %v, want wait", act)
	}
	if len(p.plan) != 0 {
		t.Fatalf("stale plan not dropped: %v", p.plan)
	}
}

func TestPlannerRejectsNonAdjacentWaypoint(t *testing.T) {
	v := openView(5, 5)
	p := quietPlanner(1)
	p.plan = []world.Position{{X: 4, Y: 4}} // corrupted: not adjacent to (0,0)

	if act := p.Decide(viewAt(v, world.Position{X: 0, Y: 0})); act.Kind != world.ActWait {
		t.Fatalf("decision = %v, want wait on contract violation", act)
	}
	if len(p.plan) != 0 {
		t.Fatalf("corrupted plan not dropped")
	}
}

func TestPlannerSkipsHeldKeyColors(t *testing.T) {
	v := openView(5, 1)
	// Goal is walled off entirely; the only items are keys.
	v.Terrain.SetAt(world.Position{X: 3, Y: 0}, world.Cell{Kind: world.Wall})
	v.Items.SetAt(world.Position{X: 4, Y: 0}, world.GoalItem())
	v.Items.SetAt(world.Position{X: 1, Y: 0}, world.KeyItem(world.KeyBlue))
	p := quietPlanner(1)

	// Already holding blue: the blue key on the ground is not a target, so
	// with nothing else reachable the planner waits.
	view := viewAt(v, world.Position{X: 0, Y: 0})
	view.Agent.Inventory = []world.Item{world.KeyItem(world.KeyBlue)}
	if act := p.Decide(view); act.Kind != world.ActWait {
		t.Fatalf("decision = %v, want wait (blue key already held)", act)
	}
}
