package board

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalMove is the root of every rule violation. Use errors.Is to
	// distinguish rule violations from other failures.
	ErrIllegalMove = errors.New("illegal move")

	// ErrOutOfBounds occurs when a move targets a point outside the board.
	ErrOutOfBounds = fmt.Errorf("%w: position is out of range", ErrIllegalMove)
	// ErrOccupied occurs when a move targets an occupied point.
	ErrOccupied = fmt.Errorf("%w: the position is occupied", ErrIllegalMove)
	// ErrSuicide occurs when a move leaves its own group without liberties and captures nothing.
	ErrSuicide = fmt.Errorf("%w: suicide is not allowed", ErrIllegalMove)
	// ErrKo occurs when a single-stone recapture restores the previous position.
	ErrKo = fmt.Errorf("%w: ko, position repeats", ErrIllegalMove)
	// ErrInvalidColor occurs when a move is made with a non-stone color.
	ErrInvalidColor = fmt.Errorf("%w: only black and white stones allowed", ErrIllegalMove)

	// ErrInvalidSize occurs when a board is created with a size below 1.
	ErrInvalidSize = errors.New("board size must be at least 1")
)
