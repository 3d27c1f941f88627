// Package grid provides a generic fixed-size 2D container with row-major
// storage. A grid is sized once at construction and never resized.
package grid

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned by checked mutators for invalid coordinates.
var ErrOutOfBounds = errors.New("grid: coordinates out of bounds")

// Position identifies one grid cell by its (x, y) coordinates.
type Position struct {
	X int
	Y int
}

func (p Position) String() string { return fmt.Sprintf("(%d, %d)", p.X, p.Y) }

// Manhattan returns the L1 distance between two positions.
func Manhattan(a, b Position) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Grid stores width*height cells of type T in a flat slice, row-major.
type Grid[T any] struct {
	width  int
	height int
	cells  []T
}

// New creates a grid filled with the zero value of T.
func New[T any](width, height int) *Grid[T] {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("grid: negative dimensions %dx%d", width, height))
	}
	return &Grid[T]{
		width:  width,
		height: height,
		cells:  make([]T, width*height),
	}
}

// FromGenerator creates a grid whose cell (x, y) is filled with f(x, y).
func FromGenerator[T any](width, height int, f func(x, y int) T) *Grid[T] {
	g := New[T](width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.cells[y*width+x] = f(x, y)
		}
	}
	return g
}

func (g *Grid[T]) Width() int  { return g.width }
func (g *Grid[T]) Height() int { return g.height }

// IsValid is the single source of truth for bounds checks. Every other
// accessor defers to it.
func (g *Grid[T]) IsValid(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Get returns the cell at (x, y), or ok=false when out of bounds.
func (g *Grid[T]) Get(x, y int) (T, bool) {
	if !g.IsValid(x, y) {
		var zero T
		return zero, false
	}
	return g.cells[y*g.width+x], true
}

// Set writes the cell at (x, y), or reports ErrOutOfBounds.
func (g *Grid[T]) Set(x, y int, v T) error {
	if !g.IsValid(x, y) {
		return fmt.Errorf("%w: (%d, %d) for grid size %dx%d", ErrOutOfBounds, x, y, g.width, g.height)
	}
	g.cells[y*g.width+x] = v
	return nil
}

// At returns the cell at p. It panics when p is out of bounds: callers must
// have validated p already, so an invalid index is a programming error, not
// a recoverable condition.
func (g *Grid[T]) At(p Position) T {
	if !g.IsValid(p.X, p.Y) {
		panic(fmt.Sprintf("grid: index %v out of bounds for grid size %dx%d", p, g.width, g.height))
	}
	return g.cells[p.Y*g.width+p.X]
}

// SetAt writes the cell at p, panicking when p is out of bounds. Same
// contract as At.
func (g *Grid[T]) SetAt(p Position, v T) {
	if !g.IsValid(p.X, p.Y) {
		panic(fmt.Sprintf("grid: index %v out of bounds for grid size %dx%d", p, g.width, g.height))
	}
	g.cells[p.Y*g.width+p.X] = v
}

// Each visits every cell in row-major order (y outer, x inner). This
// ordering is relied on wherever "first" or "nearest" ties are broken by
// enumeration order.
func (g *Grid[T]) Each(fn func(p Position, v T)) {
	for i, v := range g.cells {
		fn(Position{X: i % g.width, Y: i / g.width}, v)
	}
}
