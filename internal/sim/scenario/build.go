package scenario

import (
	"fmt"

	"agentgrid.ai/internal/sim/agent"
	"agentgrid.ai/internal/sim/mapload"
	"agentgrid.ai/internal/sim/world"
)

// Build loads the scenario's map and registers its agent roster. The
// first agent without an explicit position takes the map's start cell;
// every other agent needs one.
func Build(cfg Config) (*world.Environment, error) {
	env, start, err := mapload.Load(cfg.Map)
	if err != nil {
		return nil, err
	}

	usedStart := false
	for i, spec := range cfg.Agents {
		pos := start
		if spec.Position != nil {
			pos = world.Position{X: spec.Position.X, Y: spec.Position.Y}
		} else if usedStart {
			return nil, fmt.Errorf("agent %d: only one agent may spawn at the start cell; set position", i)
		} else {
			usedStart = true
		}

		inv, err := spec.StartingKeys()
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}

		var b world.Behavior
		eid := env.ReserveEntityID()
		switch spec.Kind {
		case "planner":
			b = agent.NewPlanner(eid)
		case "random":
			b = agent.NewRandomWalker(eid, spec.Seed)
		default:
			return nil, fmt.Errorf("agent %d: unknown kind %q", i, spec.Kind)
		}
		if _, err := env.AddAgent(pos, b, inv); err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
	}
	return env, nil
}
