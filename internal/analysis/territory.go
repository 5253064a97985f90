package analysis

import (
	"strings"

	"github.com/dmmcquay/goban/internal/board"
)

// Territory classifies a single point for scoring.
type Territory int8

const (
	// Neutral points score for nobody.
	Neutral Territory = iota
	// BlackTerritory is an empty point bordered only by black stones.
	BlackTerritory
	// WhiteTerritory is an empty point bordered only by white stones.
	WhiteTerritory
	// Seki marks stones of a contested group that neither side can capture.
	Seki
)

func (t Territory) String() string {
	switch t {
	case BlackTerritory:
		return "BLACK"
	case WhiteTerritory:
		return "WHITE"
	case Seki:
		return "SEKI"
	default:
		return "NEUTRAL"
	}
}

// Symbol returns the overlay character for t on an empty point.
func (t Territory) Symbol() byte {
	switch t {
	case BlackTerritory:
		return 'b'
	case WhiteTerritory:
		return 'w'
	case Seki:
		return 's'
	default:
		return '.'
	}
}

// owner maps a territory class to the color it scores for.
func (t Territory) owner() board.Color {
	switch t {
	case BlackTerritory:
		return board.Black
	case WhiteTerritory:
		return board.White
	default:
		return board.Empty
	}
}

// TerritoryMap holds one classification per point, indexed as m[y][x].
type TerritoryMap [][]Territory

// At returns the classification at (x, y).
func (m TerritoryMap) At(x, y int) Territory {
	return m[y][x]
}

// Count returns how many points carry class t.
func (m TerritoryMap) Count(t Territory) int {
	n := 0
	for _, row := range m {
		for _, c := range row {
			if c == t {
				n++
			}
		}
	}
	return n
}

// Overlay renders the map over the stones of grid: X and O for stones, the
// territory symbol for empty points.
func (m TerritoryMap) Overlay(grid board.Grid) []string {
	rows := make([]string, len(m))
	for y, row := range m {
		var sb strings.Builder
		sb.Grow(len(row))
		for x, t := range row {
			if c := grid.At(x, y); c.IsStone() {
				sb.WriteByte(c.Symbol())
			} else {
				sb.WriteByte(t.Symbol())
			}
		}
		rows[y] = sb.String()
	}
	return rows
}

func newTerritoryMap(size int) TerritoryMap {
	m := make(TerritoryMap, size)
	for y := range m {
		m[y] = make([]Territory, size)
	}
	return m
}

// ComputeTerritory classifies every point. Empty points belong to the color
// that exclusively borders them. Stones are Seki when their group has at least
// two liberties and touches an empty point that borders both colors or
// neither; otherwise they are Neutral.
func ComputeTerritory(p Position) TerritoryMap {
	size := p.Size()
	raw := rawTerritory(p)

	final := newTerritoryMap(size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if p.At(x, y) == board.Empty {
				final[y][x] = raw[y][x]
				continue
			}
			g := p.Group(x, y)
			if p.CountLiberties(g) >= 2 && touchesNeutral(p, g, raw) {
				final[y][x] = Seki
			} else {
				final[y][x] = Neutral
			}
		}
	}
	return final
}

// rawTerritory classifies empty points by their bordering stones. Occupied
// points stay Neutral.
func rawTerritory(p Position) TerritoryMap {
	size := p.Size()
	raw := newTerritoryMap(size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if p.At(x, y) != board.Empty {
				continue
			}
			var black, white bool
			for _, nb := range p.Neighbors(x, y) {
				switch p.At(nb.X, nb.Y) {
				case board.Black:
					black = true
				case board.White:
					white = true
				}
			}
			switch {
			case black && !white:
				raw[y][x] = BlackTerritory
			case white && !black:
				raw[y][x] = WhiteTerritory
			}
		}
	}
	return raw
}

func touchesNeutral(p Position, g board.Group, raw TerritoryMap) bool {
	for _, s := range g.Stones {
		for _, nb := range p.Neighbors(s.X, s.Y) {
			if p.At(nb.X, nb.Y) == board.Empty && raw[nb.Y][nb.X] == Neutral {
				return true
			}
		}
	}
	return false
}
