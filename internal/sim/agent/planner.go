package agent

import (
	"log"
	"os"

	"agentgrid.ai/internal/sim/grid"
	"agentgrid.ai/internal/sim/world"
)

// Planner follows a queued multi-step plan, replanning whenever the queue
// empties. Goal selection runs in fixed priority order: remaining chips,
// then the goal, then the nearest key of a color not yet held, then wait.
type Planner struct {
	id   world.EntityID
	plan []world.Position // pending waypoints, front first

	logger *log.Logger
}

func NewPlanner(id world.EntityID) *Planner {
	return &Planner{id: id, logger: log.New(os.Stderr, "[planner] ", log.LstdFlags)}
}

// SetLogger replaces the diagnostics logger.
func (p *Planner) SetLogger(l *log.Logger) {
	if l != nil {
		p.logger = l
	}
}

func (p *Planner) ID() world.EntityID { return p.id }

func (p *Planner) Decide(v *world.View) world.Action {
	cur := v.Location

	// Follow the existing plan first. Each popped waypoint is re-validated
	// against the current view: the world may have changed since the plan
	// was computed, and a stale step must drop the plan rather than walk
	// into a now-blocked cell. Replanning happens next turn.
	if len(p.plan) > 0 {
		next := p.plan[0]
		p.plan = p.plan[1:]

		if next == cur {
			return world.Wait()
		}
		if grid.Manhattan(cur, next) != 1 {
			// Queued waypoints are always adjacent single steps; anything
			// else is a corrupted plan.
			p.logger.Printf("agent %d: non-adjacent waypoint %v from %v, dropping plan", p.id, next, cur)
			p.plan = nil
			return world.Wait()
		}
		if !passable(next, v, v.Agent.Keys()) {
			p.plan = nil
			return world.Wait()
		}
		return world.Move(next.X-cur.X, next.Y-cur.Y)
	}

	keysHeld := v.Agent.Keys()

	// Chips take priority while any remain; only then the goal. If neither
	// is reachable, go fetch a key of a color we do not hold yet.
	var path []world.Position
	if chips := itemLocations(v, world.ItemChip, world.KeyNone); len(chips) > 0 {
		path = shortestPathTo(cur, chips, v, keysHeld)
	} else {
		path = shortestPathTo(cur, itemLocations(v, world.ItemGoal, world.KeyNone), v, keysHeld)
	}
	if len(path) < 2 {
		path = p.pathToNearestUntakenKey(cur, v, keysHeld)
	}
	if len(path) < 2 {
		return world.Wait()
	}

	// Queue everything after the start, then emit the first step.
	p.plan = append(p.plan, path[2:]...)
	next := path[1]
	return world.Move(next.X-cur.X, next.Y-cur.Y)
}

// itemLocations collects positions of matching items in row-major order.
// For ItemKey, color narrows the match.
func itemLocations(v *world.View, kind world.ItemKind, color world.KeyColor) []world.Position {
	var out []world.Position
	v.Items.Each(func(p world.Position, it world.Item) {
		if it.Kind != kind {
			return
		}
		if kind == world.ItemKey && it.Key != color {
			return
		}
		out = append(out, p)
	})
	return out
}

// shortestPathTo runs A* against every target and keeps the strictly
// shortest path. Ties go to the earlier target, i.e. grid enumeration
// order.
func shortestPathTo(start world.Position, targets []world.Position, v *world.View, keysHeld map[world.KeyColor]bool) []world.Position {
	var best []world.Position
	for _, t := range targets {
		path := findPath(start, t, v, keysHeld)
		if path == nil {
			continue
		}
		if best == nil || len(path) < len(best) {
			best = path
		}
	}
	return best
}

// pathToNearestUntakenKey searches every key color not currently held and
// keeps the globally shortest path, colors visited in canonical order.
func (p *Planner) pathToNearestUntakenKey(start world.Position, v *world.View, keysHeld map[world.KeyColor]bool) []world.Position {
	var best []world.Position
	for _, color := range world.KeyColors {
		if keysHeld[color] {
			continue
		}
		path := shortestPathTo(start, itemLocations(v, world.ItemKey, color), v, keysHeld)
		if path == nil {
			continue
		}
		if best == nil || len(path) < len(best) {
			best = path
		}
	}
	return best
}
