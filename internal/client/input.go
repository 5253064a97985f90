package client

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dmmcquay/goban/internal/protocol"
)

// Translate turns what the user typed into a protocol line. A bare
// coordinate ("B2") or "MOVE B2" / "MOVE B 2" becomes "MOVE 1 1"; numeric
// moves and the other verbs pass through upper-cased for the server to
// judge. Blank input yields "".
func Translate(input string) (string, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return "", nil
	}

	verb := strings.ToUpper(fields[0])
	switch {
	case len(fields) == 1 && looksLikeCoord(verb):
		return moveLine(verb)
	case verb == protocol.VerbMove.String() && len(fields) > 1 && startsWithLetter(fields[1]):
		return moveLine(strings.Join(fields[1:], ""))
	}

	fields[0] = verb
	return strings.Join(fields, " "), nil
}

func moveLine(coord string) (string, error) {
	p, err := protocol.ParseCoord(coord)
	if err != nil {
		return "", fmt.Errorf("%q: %w", coord, err)
	}
	return protocol.Move(p.X, p.Y).String(), nil
}

func startsWithLetter(s string) bool {
	return s != "" && unicode.IsLetter(rune(s[0]))
}

// looksLikeCoord matches a single letter followed only by digits, so verbs
// such as PASS are left alone.
func looksLikeCoord(s string) bool {
	if len(s) < 2 || !startsWithLetter(s) {
		return false
	}
	for _, r := range s[1:] {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
