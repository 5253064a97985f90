package board

import "strings"

// Point is a zero-based intersection coordinate: X is the column, Y the row.
type Point struct {
	X, Y int
}

// Stone is a single placed stone.
type Stone struct {
	Point
	Color Color
}

// Group is a maximal set of orthogonally connected stones of one color.
// Groups are computed on demand and must not be kept across moves.
type Group struct {
	Color  Color
	Stones []Stone
}

// Size returns the number of stones in the group.
func (g Group) Size() int {
	return len(g.Stones)
}

// Points returns the coordinates of the group's stones.
func (g Group) Points() []Point {
	points := make([]Point, len(g.Stones))
	for i, s := range g.Stones {
		points[i] = s.Point
	}
	return points
}

// Contains reports whether the group has a stone at (x, y).
func (g Group) Contains(x, y int) bool {
	for _, s := range g.Stones {
		if s.X == x && s.Y == y {
			return true
		}
	}
	return false
}

// Grid is a read-only snapshot of a board, indexed as grid[y][x].
type Grid [][]Color

// Size returns the grid's edge length.
func (g Grid) Size() int {
	return len(g)
}

// At returns the color at (x, y), or Empty when the point is off the grid.
func (g Grid) At(x, y int) Color {
	if y < 0 || y >= len(g) || x < 0 || x >= len(g[y]) {
		return Empty
	}
	return g[y][x]
}

// Equal reports whether both grids hold the same stones.
func (g Grid) Equal(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for y := range g {
		if len(g[y]) != len(other[y]) {
			return false
		}
		for x := range g[y] {
			if g[y][x] != other[y][x] {
				return false
			}
		}
	}
	return true
}

// Rows renders the grid one string per row using X, O and '.'.
func (g Grid) Rows() []string {
	rows := make([]string, len(g))
	for y, row := range g {
		var sb strings.Builder
		sb.Grow(len(row))
		for _, c := range row {
			sb.WriteByte(c.Symbol())
		}
		rows[y] = sb.String()
	}
	return rows
}

func (g Grid) String() string {
	return strings.Join(g.Rows(), "\n")
}
