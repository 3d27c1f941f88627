package observerproto

import (
	"agentgrid.ai/internal/sim/world"
)

// BuildBootstrap renders the full static map plus current item placement.
func BuildBootstrap(env *world.Environment, scenario string, params WorldParams) BootstrapResponse {
	resp := BootstrapResponse{
		ProtocolVersion: Version,
		Scenario:        scenario,
		Turn:            env.CurrentTurn(),
		WorldParams:     params,
		Terrain:         make([][]string, env.Height()),
	}
	for y := 0; y < env.Height(); y++ {
		row := make([]string, env.Width())
		for x := 0; x < env.Width(); x++ {
			row[x] = cellToken(env.Terrain().At(world.Position{X: x, Y: y}))
		}
		resp.Terrain[y] = row
	}
	env.Items().Each(func(p world.Position, it world.Item) {
		if it.Kind == world.ItemNone {
			return
		}
		entry := ItemAt{Pos: [2]int{p.X, p.Y}, Kind: it.Kind.String()}
		if it.Kind == world.ItemKey {
			entry.Key = it.Key.String()
		}
		resp.Items = append(resp.Items, entry)
	})
	return resp
}

// BuildTurnMsg renders the per-turn delta frame from a completed turn.
func BuildTurnMsg(env *world.Environment, rec world.TurnRecord, digest string, includeActions bool) TurnMsg {
	msg := TurnMsg{
		Type:            "TURN",
		ProtocolVersion: Version,
		Turn:            rec.Turn,
		Outcome:         rec.Outcome.String(),
		Digest:          digest,
	}
	for _, id := range env.AgentIDs() {
		st, ok := env.Agent(id)
		if !ok {
			continue
		}
		agent := AgentState{
			ID:    uint64(id),
			Pos:   [2]int{st.Position.X, st.Position.Y},
			Chips: st.Chips(),
		}
		for _, c := range world.KeyColors {
			if st.HasKey(c) {
				agent.Keys = append(agent.Keys, c.String())
			}
		}
		msg.Agents = append(msg.Agents, agent)
	}
	if includeActions {
		msg.Actions = rec.Actions
	}
	return msg
}

func cellToken(c world.Cell) string {
	switch {
	case c.Kind == world.Wall:
		return "wall"
	case c.Kind == world.Door && c.Open:
		return "door:open"
	case c.Kind == world.Door:
		return "door:" + c.Lock.String()
	default:
		return "floor"
	}
}
