// Package board implements the Go board: stone placement, liberties,
// capture, the suicide prohibition and the simple ko rule.
package board

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// directions lists orthogonal offsets in the order right, left, down, up.
var directions = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Board is an N×N grid of intersections. It is not safe for concurrent use;
// callers serialise access.
type Board struct {
	size  int
	cells []Color // row-major, index y*size+x

	// previous is the grid as it was before the last accepted move, used for ko.
	previous []Color
}

// New creates an empty board of size×size intersections.
func New(size int) (*Board, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	return &Board{
		size:  size,
		cells: make([]Color, size*size),
	}, nil
}

// Size returns the board's edge length.
func (b *Board) Size() int {
	return b.size
}

// Inside reports whether (x, y) lies on the board.
func (b *Board) Inside(x, y int) bool {
	return x >= 0 && x < b.size && y >= 0 && y < b.size
}

// At returns the color at (x, y), or Empty when the point is off the board.
func (b *Board) At(x, y int) Color {
	if !b.Inside(x, y) {
		return Empty
	}
	return b.cells[b.index(x, y)]
}

func (b *Board) index(x, y int) int {
	return y*b.size + x
}

// Neighbors returns the in-bounds orthogonal neighbours of (x, y).
func (b *Board) Neighbors(x, y int) []Point {
	n := make([]Point, 0, 4)
	for _, d := range directions {
		nx, ny := x+d[0], y+d[1]
		if b.Inside(nx, ny) {
			n = append(n, Point{X: nx, Y: ny})
		}
	}
	return n
}

// Group returns the chain of stones connected to (x, y). The point must be
// occupied; an empty point yields a group of Empty cells.
func (b *Board) Group(x, y int) Group {
	color := b.At(x, y)
	g := Group{Color: color}
	if !b.Inside(x, y) {
		return g
	}

	visited := make([]bool, len(b.cells))
	stack := []Point{{X: x, Y: y}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i := b.index(p.X, p.Y)
		if visited[i] {
			continue
		}
		visited[i] = true
		g.Stones = append(g.Stones, Stone{Point: p, Color: color})

		for _, nb := range b.Neighbors(p.X, p.Y) {
			if b.cells[b.index(nb.X, nb.Y)] == color && !visited[b.index(nb.X, nb.Y)] {
				stack = append(stack, nb)
			}
		}
	}
	return g
}

// CountLiberties returns the number of distinct empty points adjacent to the group.
func (b *Board) CountLiberties(g Group) int {
	seen := make(map[int]struct{})
	for _, s := range g.Stones {
		for _, nb := range b.Neighbors(s.X, s.Y) {
			i := b.index(nb.X, nb.Y)
			if b.cells[i] == Empty {
				seen[i] = struct{}{}
			}
		}
	}
	return len(seen)
}

// PlayMove places a stone and reports whether the move was legal.
// A rejected move leaves the board unchanged.
func (b *Board) PlayMove(color Color, x, y int) bool {
	return b.Play(color, x, y) == nil
}

// Play places a stone of color at (x, y), removes captured opposing groups and
// enforces the suicide and ko rules. The returned error wraps ErrIllegalMove.
func (b *Board) Play(color Color, x, y int) error {
	if !color.IsStone() {
		return fmt.Errorf("%w: got %v", ErrInvalidColor, color)
	}
	if !b.Inside(x, y) {
		return fmt.Errorf("%w: (%d,%d) on %dx%d board", ErrOutOfBounds, x, y, b.size, b.size)
	}
	if b.cells[b.index(x, y)] != Empty {
		return fmt.Errorf("%w: (%d,%d)", ErrOccupied, x, y)
	}

	before := b.snapshot()
	b.cells[b.index(x, y)] = color

	// Every neighbouring opposing group is resolved before the suicide check,
	// since captures give the new stone its liberties.
	opp := color.Opponent()
	captured := 0
	for _, nb := range b.Neighbors(x, y) {
		if b.cells[b.index(nb.X, nb.Y)] != opp {
			continue
		}
		g := b.Group(nb.X, nb.Y)
		if b.CountLiberties(g) == 0 {
			captured += g.Size()
			b.remove(g)
		}
	}

	if captured == 0 && b.CountLiberties(b.Group(x, y)) == 0 {
		b.cells = before
		return fmt.Errorf("%w: (%d,%d)", ErrSuicide, x, y)
	}

	// Simple ko: a single-stone capture may not recreate the position that
	// existed before the previous move. Longer cycles are not detected.
	if captured == 1 && b.previous != nil && equalCells(b.cells, b.previous) {
		b.cells = before
		return fmt.Errorf("%w: (%d,%d)", ErrKo, x, y)
	}

	b.previous = before
	return nil
}

func (b *Board) remove(g Group) {
	for _, s := range g.Stones {
		b.cells[b.index(s.X, s.Y)] = Empty
	}
}

func (b *Board) snapshot() []Color {
	c := make([]Color, len(b.cells))
	copy(c, b.cells)
	return c
}

func equalCells(a, c []Color) bool {
	if len(a) != len(c) {
		return false
	}
	for i := range a {
		if a[i] != c[i] {
			return false
		}
	}
	return true
}

// State returns a copy of the current grid. Mutating it does not affect the board.
func (b *Board) State() Grid {
	grid := make(Grid, b.size)
	for y := 0; y < b.size; y++ {
		row := make([]Color, b.size)
		copy(row, b.cells[y*b.size:(y+1)*b.size])
		grid[y] = row
	}
	return grid
}

// Key returns a stable digest of the stone layout, suitable as a cache key.
func (b *Board) Key() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:", b.size)
	buf := make([]byte, len(b.cells))
	for i, c := range b.cells {
		buf[i] = c.Symbol()
	}
	h.Write(buf)
	return hex.EncodeToString(h.Sum(nil))
}

func (b *Board) String() string {
	return b.State().String()
}
