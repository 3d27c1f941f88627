// Package mapload parses the whitespace-delimited token map format into an
// initial environment. Load failures are descriptive and abort world setup;
// they are never coerced into a partial world.
package mapload

import (
	"fmt"
	"os"
	"strings"

	"agentgrid.ai/internal/sim/world"
)

// Recognized tokens:
//
//	ST          start position (required, exactly one); floor
//	BL, DP      plain floor
//	WL, WA      wall
//	PL          floor holding the goal
//	CH          floor holding a chip
//	DG DY DB DR closed door locked to green/yellow/blue/red
//	KG KY KB KR floor holding a key of that color
var tokenColors = map[byte]world.KeyColor{
	'G': world.KeyGreen,
	'Y': world.KeyYellow,
	'B': world.KeyBlue,
	'R': world.KeyRed,
}

// Load reads and parses a map file.
func Load(path string) (*world.Environment, world.Position, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, world.Position{}, fmt.Errorf("read map: %w", err)
	}
	env, start, err := Parse(string(data))
	if err != nil {
		return nil, world.Position{}, fmt.Errorf("parse map %s: %w", path, err)
	}
	return env, start, nil
}

// Parse builds an environment from the map text and returns it together
// with the start position.
func Parse(s string) (*world.Environment, world.Position, error) {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 1 && strings.TrimSpace(lines[0]) == "" {
		return nil, world.Position{}, fmt.Errorf("map is empty")
	}

	height := len(lines)
	var rows [][]string
	width := 0
	for y, line := range lines {
		tokens := strings.Fields(line)
		if y == 0 {
			width = len(tokens)
			if width == 0 {
				return nil, world.Position{}, fmt.Errorf("map has zero width")
			}
		} else if len(tokens) != width {
			return nil, world.Position{}, fmt.Errorf("inconsistent width at row %d: expected %d tokens, found %d", y, width, len(tokens))
		}
		rows = append(rows, tokens)
	}

	env := world.NewEnvironment(width, height)
	var start *world.Position

	for y, row := range rows {
		for x, token := range row {
			pos := world.Position{X: x, Y: y}
			cell := world.Cell{Kind: world.Floor}
			var item world.Item

			switch token {
			case "ST":
				if start != nil {
					return nil, world.Position{}, fmt.Errorf("multiple start positions ('ST') found")
				}
				p := pos
				start = &p
			case "BL", "DP":
				// plain floor
			case "WL", "WA":
				cell = world.Cell{Kind: world.Wall}
			case "PL":
				item = world.GoalItem()
			case "CH":
				item = world.ChipItem()
			case "DG", "DY", "DB", "DR":
				cell = world.DoorCell(tokenColors[token[1]])
			case "KG", "KY", "KB", "KR":
				item = world.KeyItem(tokenColors[token[1]])
			default:
				return nil, world.Position{}, fmt.Errorf("unknown map token %q at position (%d, %d)", token, x, y)
			}

			if err := env.SetCell(pos, cell); err != nil {
				return nil, world.Position{}, err
			}
			if item.Kind != world.ItemNone {
				if err := env.AddItem(pos, item); err != nil {
					return nil, world.Position{}, err
				}
			}
		}
	}

	if start == nil {
		return nil, world.Position{}, fmt.Errorf("no start position ('ST') found in map")
	}
	return env, *start, nil
}
