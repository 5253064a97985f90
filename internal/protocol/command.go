// Package protocol implements the line-oriented text protocol spoken between
// players and the server. Clients send one command per line; the server
// answers with keyword-prefixed lines, some of which open multi-line blocks
// (BOARD, TERRITORY, DEADSTONES).
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmmcquay/goban/internal/board"
	"github.com/dmmcquay/goban/internal/game"
)

// ErrMalformedCommand is returned for input that is not a valid command.
var ErrMalformedCommand = errors.New("malformed command")

// ErrEmptyCommand is returned for blank input. Transports ignore it.
var ErrEmptyCommand = fmt.Errorf("%w: empty command", ErrMalformedCommand)

// Verb identifies a client command.
type Verb int

const (
	VerbMove Verb = iota + 1
	VerbPass
	VerbResign
	VerbAgree
	VerbResume
)

var verbNames = map[Verb]string{
	VerbMove:   "MOVE",
	VerbPass:   "PASS",
	VerbResign: "RESIGN",
	VerbAgree:  "AGREE",
	VerbResume: "RESUME",
}

func (v Verb) String() string {
	if s, ok := verbNames[v]; ok {
		return s
	}
	return fmt.Sprintf("Verb(%d)", int(v))
}

// Command is a parsed client command. X and Y are only meaningful for VerbMove.
type Command struct {
	Verb Verb
	X, Y int
}

// Move returns the command placing a stone at (x, y).
func Move(x, y int) Command {
	return Command{Verb: VerbMove, X: x, Y: y}
}

// Simple returns a command without arguments.
func Simple(v Verb) Command {
	return Command{Verb: v}
}

// String encodes the command as a protocol line, without the newline.
func (c Command) String() string {
	if c.Verb == VerbMove {
		return fmt.Sprintf("MOVE %d %d", c.X, c.Y)
	}
	return c.Verb.String()
}

// Parse reads one command line. The verb is case-insensitive and fields are
// separated by any run of whitespace.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmptyCommand
	}

	keyword := strings.ToUpper(fields[0])
	switch keyword {
	case "MOVE":
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("%w: MOVE format: MOVE x y", ErrMalformedCommand)
		}
		x, errX := strconv.Atoi(fields[1])
		y, errY := strconv.Atoi(fields[2])
		if errX != nil || errY != nil {
			return Command{}, fmt.Errorf("%w: MOVE coordinates must be integers: MOVE x y", ErrMalformedCommand)
		}
		return Move(x, y), nil
	}

	for v, name := range verbNames {
		if v == VerbMove || name != keyword {
			continue
		}
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("%w: %s takes no arguments", ErrMalformedCommand, name)
		}
		return Simple(v), nil
	}
	return Command{}, fmt.Errorf("%w: Unknown command: %s", ErrMalformedCommand, keyword)
}

// Apply runs the command against g on behalf of player.
func (c Command) Apply(g *game.Game, player board.Color) error {
	switch c.Verb {
	case VerbMove:
		return g.PlayMove(player, c.X, c.Y)
	case VerbPass:
		return g.Pass(player)
	case VerbResign:
		return g.Resign(player)
	case VerbAgree:
		return g.Agree(player)
	case VerbResume:
		return g.Resume(player)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedCommand, c.Verb)
	}
}
