// Package observerproto defines the read-only observer wire protocol:
// a one-shot HTTP bootstrap with the static map, then one TURN frame per
// turn over the websocket.
package observerproto

import "agentgrid.ai/internal/sim/world"

// Version is the observer protocol version.
const Version = "0.1"

// Client -> Server. First message on the observer WS connection, and can
// be re-sent to toggle per-action detail.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Optional: include per-agent action records in every TURN frame.
	IncludeActions bool `json:"include_actions,omitempty"`
}

// HTTP response for GET /observer/v1/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	Scenario        string      `json:"scenario"`
	Turn            uint64      `json:"turn"`
	WorldParams     WorldParams `json:"world_params"`

	// Terrain rows, top to bottom, one token per cell: "floor", "wall",
	// "door:open", or a closed door as "door:<color>" ("door:none" when
	// keyless).
	Terrain [][]string `json:"terrain"`
	Items   []ItemAt   `json:"items"`
}

type WorldParams struct {
	TurnRateHz float64 `json:"turn_rate_hz"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	MaxTurns   uint64  `json:"max_turns"`
}

type ItemAt struct {
	Pos  [2]int `json:"pos"`
	Kind string `json:"kind"`
	Key  string `json:"key,omitempty"`
}

// Server -> Client. Sent every turn.
type TurnMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Turn            uint64 `json:"turn"`

	Outcome string `json:"outcome"`
	Digest  string `json:"digest"`

	Agents  []AgentState           `json:"agents"`
	Actions []world.RecordedAction `json:"actions,omitempty"`
}

type AgentState struct {
	ID    uint64   `json:"id"`
	Pos   [2]int   `json:"pos"`
	Chips int      `json:"chips"`
	Keys  []string `json:"keys,omitempty"`
}
