package observerproto_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"agentgrid.ai/internal/observerproto"
	"agentgrid.ai/internal/sim/world"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func validate(t *testing.T, s *jsonschema.Schema, v any) {
	t.Helper()
	if err := s.Validate(v); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSchemas_ValidateSamples(t *testing.T) {
	subscribeSchema := compile(t, "subscribe.schema.json")
	bootstrapSchema := compile(t, "bootstrap.schema.json")
	turnSchema := compile(t, "turn.schema.json")

	var sub any
	_ = json.Unmarshal([]byte(`{
	  "type":"SUBSCRIBE",
	  "protocol_version":"0.1",
	  "include_actions":true
	}`), &sub)
	validate(t, subscribeSchema, sub)

	var bootstrap any
	_ = json.Unmarshal([]byte(`{
	  "protocol_version":"0.1",
	  "scenario":"demo",
	  "turn":0,
	  "world_params":{"turn_rate_hz":10,"width":3,"height":2,"max_turns":100},
	  "terrain":[["floor","wall","door:red"],["floor","door:open","floor"]],
	  "items":[{"pos":[0,1],"kind":"key","key":"red"},{"pos":[2,1],"kind":"goal"}]
	}`), &bootstrap)
	validate(t, bootstrapSchema, bootstrap)

	var turn any
	_ = json.Unmarshal([]byte(`{
	  "type":"TURN",
	  "protocol_version":"0.1",
	  "turn":4,
	  "outcome":"win",
	  "digest":"`+sampleDigest+`",
	  "agents":[{"id":1,"pos":[2,1],"chips":1,"keys":["red"]}],
	  "actions":[{"agent_id":1,"action":{"kind":"move","dx":1},"outcome":"win"}]
	}`), &turn)
	validate(t, turnSchema, turn)
}

const sampleDigest = "49bcf2947b0d7d7caa0e6be3a6b175fa4206e994ad0adbd8cd6bcbdfa6971b49"

// Frames produced by the snapshot builders must themselves validate.
func TestSchemas_ValidateBuiltFrames(t *testing.T) {
	env := world.NewEnvironment(3, 2)
	if err := env.SetCell(world.Position{X: 1, Y: 0}, world.Cell{Kind: world.Wall}); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := env.SetCell(world.Position{X: 2, Y: 0}, world.DoorCell(world.KeyRed)); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := env.AddItem(world.Position{X: 2, Y: 1}, world.GoalItem()); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := env.AddAgent(world.Position{X: 0, Y: 0}, waiter{}, nil); err != nil {
		t.Fatalf("add agent: %v", err)
	}

	params := observerproto.WorldParams{TurnRateHz: 10, Width: 3, Height: 2, MaxTurns: 100}

	var bootstrap any
	b, err := json.Marshal(observerproto.BuildBootstrap(env, "demo", params))
	if err != nil {
		t.Fatalf("marshal bootstrap: %v", err)
	}
	_ = json.Unmarshal(b, &bootstrap)
	validate(t, compile(t, "bootstrap.schema.json"), bootstrap)

	rec := env.ProcessTurn()
	msg := observerproto.BuildTurnMsg(env, rec, env.StateDigest(), true)

	var turn any
	b, err = json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal turn: %v", err)
	}
	_ = json.Unmarshal(b, &turn)
	validate(t, compile(t, "turn.schema.json"), turn)
}

type waiter struct{}

func (waiter) ID() world.EntityID              { return 1 }
func (waiter) Decide(*world.View) world.Action { return world.Wait() }
