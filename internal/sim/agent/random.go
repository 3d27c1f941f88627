// Package agent provides the decision-makers that drive agents: a seeded
// random walker and a planning agent built on A* pathfinding. Both receive
// read-only views and keep all state local; nothing here touches the
// environment directly.
package agent

import (
	"math/rand"

	"agentgrid.ai/internal/sim/world"
)

// RandomWalker picks a random one-step move (or wait) every turn. The rng
// is explicitly seeded so runs are reproducible.
type RandomWalker struct {
	id  world.EntityID
	rng *rand.Rand
}

func NewRandomWalker(id world.EntityID, seed int64) *RandomWalker {
	return &RandomWalker{id: id, rng: rand.New(rand.NewSource(seed))}
}

func (w *RandomWalker) ID() world.EntityID { return w.id }

func (w *RandomWalker) Decide(_ *world.View) world.Action {
	dx := w.rng.Intn(3) - 1
	dy := w.rng.Intn(3) - 1
	if dx == 0 && dy == 0 {
		return world.Wait()
	}
	return world.Move(dx, dy)
}
