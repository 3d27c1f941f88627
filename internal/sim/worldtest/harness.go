// Package worldtest drives full scenarios through exported APIs only: a
// map is parsed, agents are registered, and turns run until a win or a
// turn budget is exhausted. Tests here exercise the same path cmd/sim
// takes, minus the transports.
package worldtest

import (
	"io"
	"log"
	"testing"

	"agentgrid.ai/internal/sim/agent"
	"agentgrid.ai/internal/sim/mapload"
	"agentgrid.ai/internal/sim/world"
)

type Harness struct {
	T     *testing.T
	Env   *world.Environment
	Start world.Position

	// Per-turn state digests, appended as turns run.
	Digests []string
}

// NewHarness parses the map text and registers a single planner at the
// start cell.
func NewHarness(t *testing.T, mapText string) *Harness {
	t.Helper()
	h := NewHarnessBare(t, mapText)
	h.AddPlanner(nil)
	return h
}

// NewHarnessBare parses the map text without registering any agents.
func NewHarnessBare(t *testing.T, mapText string) *Harness {
	t.Helper()

	env, start, err := mapload.Parse(mapText)
	if err != nil {
		t.Fatalf("parse map: %v", err)
	}
	env.SetLogger(log.New(io.Discard, "", 0))
	return &Harness{T: t, Env: env, Start: start}
}

// AddPlanner registers a planner agent at the map's start cell.
func (h *Harness) AddPlanner(inventory []world.Item) world.EntityID {
	return h.AddPlannerAt(h.Start, inventory)
}

func (h *Harness) AddPlannerAt(p world.Position, inventory []world.Item) world.EntityID {
	h.T.Helper()

	pl := agent.NewPlanner(h.Env.ReserveEntityID())
	pl.SetLogger(log.New(io.Discard, "", 0))
	id, err := h.Env.AddAgent(p, pl, inventory)
	if err != nil {
		h.T.Fatalf("add planner: %v", err)
	}
	return id
}

// RunUntilWin processes turns until one ends in a win, failing the test
// if maxTurns pass without one. It returns the number of turns processed,
// including the winning turn.
func (h *Harness) RunUntilWin(maxTurns int) int {
	h.T.Helper()

	for i := 1; i <= maxTurns; i++ {
		rec := h.step()
		if rec.Outcome == world.Won {
			return i
		}
	}
	h.T.Fatalf("no win within %d turns", maxTurns)
	return 0
}

// RunTurns processes exactly n turns and returns the last record.
func (h *Harness) RunTurns(n int) world.TurnRecord {
	h.T.Helper()

	var rec world.TurnRecord
	for i := 0; i < n; i++ {
		rec = h.step()
	}
	return rec
}

func (h *Harness) step() world.TurnRecord {
	rec := h.Env.ProcessTurn()
	h.Digests = append(h.Digests, h.Env.StateDigest())
	return rec
}

// Agent returns the state for id, failing the test if it is unknown.
func (h *Harness) Agent(id world.EntityID) world.AgentState {
	h.T.Helper()

	st, ok := h.Env.Agent(id)
	if !ok {
		h.T.Fatalf("unknown agent %d", id)
	}
	return st
}
