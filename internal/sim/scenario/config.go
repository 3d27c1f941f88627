// Package scenario loads the YAML run configuration: which map to play,
// how many turns to run, the agent roster, and the optional journal,
// index, and observer outputs.
package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"agentgrid.ai/internal/sim/world"
)

type Config struct {
	Name       string  `yaml:"name"`
	Map        string  `yaml:"map"`
	MaxTurns   uint64  `yaml:"max_turns"`
	TurnRateHz float64 `yaml:"turn_rate_hz"`

	Agents []AgentSpec `yaml:"agents"`

	Journal  JournalSpec  `yaml:"journal"`
	Index    IndexSpec    `yaml:"index"`
	Observer ObserverSpec `yaml:"observer"`
}

// AgentSpec describes one agent in the roster. The first agent without an
// explicit position spawns at the map's start cell.
type AgentSpec struct {
	Kind     string        `yaml:"kind"` // "planner" or "random"
	Seed     int64         `yaml:"seed,omitempty"`
	Keys     []string      `yaml:"keys,omitempty"`
	Position *PositionSpec `yaml:"position,omitempty"`
}

type PositionSpec struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type JournalSpec struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type IndexSpec struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ObserverSpec struct {
	Listen string `yaml:"listen,omitempty"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("scenario: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("scenario: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Name:       "run",
		MaxTurns:   1000,
		TurnRateHz: 10,
		Agents:     []AgentSpec{{Kind: "planner"}},
		Journal:    JournalSpec{Enabled: false, Dir: "journal"},
		Index:      IndexSpec{Enabled: false, Path: "index.db"},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		c.Name = "run"
	}
	if c.MaxTurns == 0 {
		c.MaxTurns = 1000
	}
	if c.TurnRateHz <= 0 {
		c.TurnRateHz = 10
	}
	if len(c.Agents) == 0 {
		c.Agents = []AgentSpec{{Kind: "planner"}}
	}
	for i := range c.Agents {
		kind := strings.ToLower(strings.TrimSpace(c.Agents[i].Kind))
		if kind == "" {
			kind = "planner"
		}
		c.Agents[i].Kind = kind
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Dir) == "" {
		c.Journal.Dir = "journal"
	}
	if c.Index.Enabled && strings.TrimSpace(c.Index.Path) == "" {
		c.Index.Path = "index.db"
	}
}

func (c Config) Validate() error {
	c.Normalize()
	if strings.TrimSpace(c.Map) == "" {
		return fmt.Errorf("map must not be empty")
	}
	for i, a := range c.Agents {
		switch a.Kind {
		case "planner", "random":
		default:
			return fmt.Errorf("agent %d: unknown kind %q", i, a.Kind)
		}
		for _, k := range a.Keys {
			if _, err := world.ParseKeyColor(k); err != nil {
				return fmt.Errorf("agent %d: %w", i, err)
			}
		}
		if a.Position != nil && (a.Position.X < 0 || a.Position.Y < 0) {
			return fmt.Errorf("agent %d: position must be non-negative", i)
		}
	}
	return nil
}

// StartingKeys converts an agent's configured key colors to inventory items.
func (a AgentSpec) StartingKeys() ([]world.Item, error) {
	var items []world.Item
	for _, k := range a.Keys {
		c, err := world.ParseKeyColor(k)
		if err != nil {
			return nil, err
		}
		items = append(items, world.KeyItem(c))
	}
	return items, nil
}
