package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmmcquay/goban/internal/board"
)

// ErrBadCoordinate is returned by ParseCoord for input that is not a letter
// followed by a row number.
var ErrBadCoordinate = fmt.Errorf("%w: expected a column letter and a row number, e.g. B2", ErrMalformedCommand)

// ParseCoord converts human notation to a board point. The column is a
// letter starting at A and the row is counted from 1, so "B2" is (1, 1).
// Whitespace between the letter and the number is allowed.
func ParseCoord(s string) (board.Point, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 || s[0] < 'A' || s[0] > 'Z' {
		return board.Point{}, ErrBadCoordinate
	}
	digits := strings.TrimSpace(s[1:])
	if digits == "" || strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return board.Point{}, ErrBadCoordinate
	}
	row, err := strconv.Atoi(digits)
	if err != nil {
		return board.Point{}, ErrBadCoordinate
	}
	if row < 1 {
		return board.Point{}, fmt.Errorf("%w: row must be at least 1", ErrMalformedCommand)
	}
	return board.Point{X: int(s[0] - 'A'), Y: row - 1}, nil
}

// FormatCoord is the inverse of ParseCoord.
func FormatCoord(x, y int) string {
	return string(rune('A'+x)) + strconv.Itoa(y+1)
}
