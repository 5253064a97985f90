package analysis

import (
	"fmt"

	"github.com/dmmcquay/goban/internal/board"
)

// Score is the point total for each color.
type Score struct {
	Black int `json:"black"`
	White int `json:"white"`
}

// Winner returns the color with more points, or Empty on a tie.
func (s Score) Winner() board.Color {
	switch {
	case s.Black > s.White:
		return board.Black
	case s.White > s.Black:
		return board.White
	default:
		return board.Empty
	}
}

// For returns the points of color c.
func (s Score) For(c board.Color) int {
	switch c {
	case board.Black:
		return s.Black
	case board.White:
		return s.White
	default:
		return 0
	}
}

func (s Score) String() string {
	return fmt.Sprintf("%d %d", s.Black, s.White)
}

// ComputeScore adds each color's territory to the stones of the opponent's
// dead groups. Neutral and Seki points score nothing.
func ComputeScore(p Position) Score {
	return scoreFrom(ComputeTerritory(p), DeadGroups(p))
}

func scoreFrom(territory TerritoryMap, dead []board.Group) Score {
	var s Score
	for _, row := range territory {
		for _, t := range row {
			s.add(t.owner(), 1)
		}
	}
	for _, g := range dead {
		s.add(g.Color.Opponent(), g.Size())
	}
	return s
}

func (s *Score) add(c board.Color, n int) {
	switch c {
	case board.Black:
		s.Black += n
	case board.White:
		s.White += n
	}
}

// Report bundles every analysis result for one position.
type Report struct {
	Score      Score
	Territory  TerritoryMap
	DeadGroups []board.Group
	DeadMask   [][]bool
}

// Analyze computes score, territory and dead stones for one position,
// running each analysis once.
func Analyze(p Position) Report {
	territory := ComputeTerritory(p)
	dead := DeadGroups(p)

	return Report{
		Score:      scoreFrom(territory, dead),
		Territory:  territory,
		DeadGroups: dead,
		DeadMask:   maskFrom(p.Size(), dead),
	}
}

// MaskRows renders a dead-stone mask as rows of '1' (dead) and '0'.
func MaskRows(mask [][]bool) []string {
	rows := make([]string, len(mask))
	for y, row := range mask {
		b := make([]byte, len(row))
		for x, dead := range row {
			if dead {
				b[x] = '1'
			} else {
				b[x] = '0'
			}
		}
		rows[y] = string(b)
	}
	return rows
}
