package agent

import (
	"container/heap"

	"agentgrid.ai/internal/sim/grid"
	"agentgrid.ai/internal/sim/world"
)

// neighborOffsets is the fixed 4-connected expansion order. Keeping it
// fixed (and breaking priority ties by insertion order below) makes the
// search fully deterministic.
var neighborOffsets = [4][2]int{
	{0, 1},  // down
	{0, -1}, // up
	{1, 0},  // right
	{-1, 0}, // left
}

type frontierItem struct {
	pos      world.Position
	priority int
	seq      int
}

// frontier is a min-heap keyed by priority, with insertion sequence as the
// tie-break.
type frontier []frontierItem

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].priority != f[j].priority {
		return f[i].priority < f[j].priority
	}
	return f[i].seq < f[j].seq
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(frontierItem)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	it := old[n-1]
	*f = old[:n-1]
	return it
}

// findPath runs A* from start to goal over the view's grids: uniform step
// cost 1, manhattan-distance heuristic, early exit when the goal is popped.
// The returned path includes start as its first element; nil means no path.
//
// Passability uses the given held-key set, not global door state, so a plan
// may legitimately route through doors the agent can only unlock after
// picking up a key later in the same plan's replanning cycle.
func findPath(start, goal world.Position, v *world.View, keysHeld map[world.KeyColor]bool) []world.Position {
	front := &frontier{}
	heap.Init(front)
	seq := 0
	push := func(p world.Position, priority int) {
		heap.Push(front, frontierItem{pos: p, priority: priority, seq: seq})
		seq++
	}

	cameFrom := map[world.Position]world.Position{}
	costSoFar := map[world.Position]int{start: 0}
	push(start, 0)

	reached := false
	for front.Len() > 0 {
		cur := heap.Pop(front).(frontierItem).pos
		if cur == goal {
			reached = true
			break
		}
		for _, off := range neighborOffsets {
			next := world.Position{X: cur.X + off[0], Y: cur.Y + off[1]}
			if !passable(next, v, keysHeld) {
				continue
			}
			newCost := costSoFar[cur] + 1
			if prev, ok := costSoFar[next]; ok && newCost >= prev {
				continue
			}
			costSoFar[next] = newCost
			cameFrom[next] = cur
			push(next, newCost+grid.Manhattan(next, goal))
		}
	}
	if !reached {
		return nil
	}

	path := []world.Position{goal}
	for cur := goal; cur != start; {
		prev, ok := cameFrom[cur]
		if !ok {
			return nil
		}
		path = append(path, prev)
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// passable reports whether a cell can appear on a planned path: in bounds,
// not a wall, not occupied by another agent, and any closed locked door
// matched by a held key.
func passable(p world.Position, v *world.View, keysHeld map[world.KeyColor]bool) bool {
	c, ok := v.Terrain.Get(p.X, p.Y)
	if !ok {
		return false
	}
	if occ, _ := v.Agents.Get(p.X, p.Y); occ != world.NoEntity {
		return false
	}
	switch {
	case c.Kind == world.Wall:
		return false
	case c.Kind == world.Door && !c.Open && c.Lock != world.KeyNone:
		return keysHeld[c.Lock]
	default:
		return true
	}
}
