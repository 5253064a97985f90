// Package analysis evaluates a board position: dead group detection with a
// two-eye heuristic, territory classification including seki, and scoring.
//
// The heuristics are deliberately simple. Life is decided by counting
// enclosed empty regions, not by tactical reading, so a group with a single
// large eye is reported dead and a group living by seki is not recognised as
// alive. Every function here is pure: it reads the position and never
// modifies it.
package analysis

import "github.com/dmmcquay/goban/internal/board"

// Position is the read-only view of a board that analysis needs.
// *board.Board satisfies it.
type Position interface {
	Size() int
	At(x, y int) board.Color
	Neighbors(x, y int) []board.Point
	Group(x, y int) board.Group
	CountLiberties(g board.Group) int
}

// groups partitions every stone on the board into its group, visiting each
// stone once, in row-major order of the group's first stone.
func groups(p Position) []board.Group {
	size := p.Size()
	visited := make([]bool, size*size)
	var out []board.Group
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if visited[y*size+x] || !p.At(x, y).IsStone() {
				continue
			}
			g := p.Group(x, y)
			for _, s := range g.Stones {
				visited[s.Y*size+s.X] = true
			}
			out = append(out, g)
		}
	}
	return out
}
