package board

import (
	"fmt"
	"strings"
)

// Color is the content of a single intersection. Black and White are the two
// stone colors; Empty marks an unoccupied point.
type Color int8

const (
	// Empty marks an unoccupied intersection.
	Empty Color = iota
	// Black stone, moves first.
	Black
	// White stone.
	White
)

// IsStone reports whether c is Black or White.
func (c Color) IsStone() bool {
	return c == Black || c == White
}

// Opponent returns the other stone color. Empty has no opponent.
func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (c Color) String() string {
	switch c {
	case Black:
		return "BLACK"
	case White:
		return "WHITE"
	case Empty:
		return "EMPTY"
	default:
		return fmt.Sprintf("Color(%d)", int8(c))
	}
}

// Symbol returns the single character used for c in text renderings.
func (c Color) Symbol() byte {
	switch c {
	case Black:
		return 'X'
	case White:
		return 'O'
	default:
		return '.'
	}
}

// ParseColor converts a player name ("black", "B", "white", "W") to a stone color.
func ParseColor(s string) (Color, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BLACK", "B":
		return Black, nil
	case "WHITE", "W":
		return White, nil
	default:
		return Empty, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
}
