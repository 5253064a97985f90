package game

import (
	"errors"
	"fmt"

	"github.com/dmmcquay/goban/internal/board"
)

var (
	// ErrIllegalState is the root of every rejected transition: acting out of
	// turn, in the wrong phase or after the game finished. It is distinct from
	// ErrIllegalMove.
	ErrIllegalState = errors.New("illegal state")

	ErrGameFinished = fmt.Errorf("%w: game already finished", ErrIllegalState)
	ErrNotYourTurn  = fmt.Errorf("%w: not your turn", ErrIllegalState)
	ErrNotPlaying   = fmt.Errorf("%w: not in PLAYING phase", ErrIllegalState)
	ErrNotInReview  = fmt.Errorf("%w: not in SCORING_REVIEW phase", ErrIllegalState)

	// ErrIllegalMove is returned, wrapped with the specific rule, when the
	// board rejects a move.
	ErrIllegalMove = board.ErrIllegalMove

	// ErrInvalidPlayer occurs when a command names neither black nor white.
	ErrInvalidPlayer = errors.New("invalid player")
)

// MoveError is a move the board refused. It unwraps to the board's rule
// error, so errors.Is matches ErrIllegalMove and the specific rule.
type MoveError struct {
	Player board.Color
	X, Y   int
	Err    error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("%v move %d %d rejected: %v", e.Player, e.X, e.Y, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}
