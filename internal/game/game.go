// Package game is the turn and phase state machine for a single Go game.
//
// A game starts in Playing with black to move. Two consecutive passes enter
// ScoringReview, where both players must agree to finish by territory or
// either player may resume play. Resigning ends the game from any phase
// except Finished.
//
// Game is not safe for concurrent use. Callers must hand it one command at a
// time; observers run on the caller's goroutine.
package game

import (
	"fmt"

	"github.com/dmmcquay/goban/internal/analysis"
	"github.com/dmmcquay/goban/internal/board"
)

// Game owns the board, the player to move and the phase.
type Game struct {
	board   *board.Board
	current board.Color
	phase   Phase
	passes  int
	moves   int

	agreedBlack bool
	agreedWhite bool

	result *Result

	observers      []registration
	nextObserverID uint64
}

// New starts a game on an empty size×size board.
func New(size int) (*Game, error) {
	b, err := board.New(size)
	if err != nil {
		return nil, err
	}
	return NewWithBoard(b), nil
}

// NewWithBoard starts a game on an existing board. The game takes ownership
// of b; callers must not mutate it afterwards.
func NewWithBoard(b *board.Board) *Game {
	return &Game{
		board:   b,
		current: board.Black,
		phase:   Playing,
	}
}

// Size returns the board size.
func (g *Game) Size() int { return g.board.Size() }

// Current returns the player to move.
func (g *Game) Current() board.Color { return g.current }

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.phase }

// Finished reports whether the game has ended.
func (g *Game) Finished() bool { return g.phase == Finished }

// Passes returns the number of consecutive passes.
func (g *Game) Passes() int { return g.passes }

// MoveCount returns the number of stones played, passes excluded.
func (g *Game) MoveCount() int { return g.moves }

// Agreed reports whether player has agreed to the current scoring review.
func (g *Game) Agreed(player board.Color) bool {
	switch player {
	case board.Black:
		return g.agreedBlack
	case board.White:
		return g.agreedWhite
	default:
		return false
	}
}

// Result returns the outcome once the game is finished.
func (g *Game) Result() (Result, bool) {
	if g.result == nil {
		return Result{}, false
	}
	return *g.result, true
}

// State returns a copy of the board grid.
func (g *Game) State() board.Grid { return g.board.State() }

// Key returns the board's position key.
func (g *Game) Key() string { return g.board.Key() }

// Position returns a read-only view of the board for analysis.
func (g *Game) Position() analysis.Position { return g.board }

// Score computes the current score. It is available in every phase.
func (g *Game) Score() analysis.Score { return analysis.ComputeScore(g.board) }

// Territory computes the current territory map.
func (g *Game) Territory() analysis.TerritoryMap { return analysis.ComputeTerritory(g.board) }

// DeadMask computes the current dead-stone mask.
func (g *Game) DeadMask() [][]bool { return analysis.DeadMask(g.board) }

// Analyze computes score, territory and dead stones together.
func (g *Game) Analyze() analysis.Report { return analysis.Analyze(g.board) }

func (g *Game) checkTurn(player board.Color) error {
	if !player.IsStone() {
		return fmt.Errorf("%w: %v", ErrInvalidPlayer, player)
	}
	if g.phase == Finished {
		return ErrGameFinished
	}
	if g.phase != Playing {
		return ErrNotPlaying
	}
	if player != g.current {
		return fmt.Errorf("%w: %v", ErrNotYourTurn, player)
	}
	return nil
}

func (g *Game) checkReview(player board.Color) error {
	if !player.IsStone() {
		return fmt.Errorf("%w: %v", ErrInvalidPlayer, player)
	}
	if g.phase == Finished {
		return ErrGameFinished
	}
	if g.phase != ScoringReview {
		return ErrNotInReview
	}
	return nil
}

// PlayMove places a stone for player at (x, y). Errors wrap ErrIllegalState
// when the game does not accept a move from player, or ErrIllegalMove when
// the board rejects it.
func (g *Game) PlayMove(player board.Color, x, y int) error {
	if err := g.checkTurn(player); err != nil {
		return err
	}
	if err := g.board.Play(player, x, y); err != nil {
		return &MoveError{Player: player, X: x, Y: y, Err: err}
	}

	g.passes = 0
	g.moves++
	g.current = g.current.Opponent()
	g.notifyBoardChanged()
	g.notifyTurnChanged()
	return nil
}

// Pass gives up player's turn. The second consecutive pass enters
// ScoringReview; the turn does not change on that pass.
func (g *Game) Pass(player board.Color) error {
	if err := g.checkTurn(player); err != nil {
		return err
	}

	g.passes++
	if g.passes >= 2 {
		g.phase = ScoringReview
		g.agreedBlack, g.agreedWhite = false, false
		g.notifyPhaseChanged()
		return nil
	}

	g.current = g.current.Opponent()
	g.notifyTurnChanged()
	return nil
}

// Agree records player's acceptance of the scoring review. Once both players
// have agreed the game finishes by territory. Agreeing twice is a no-op.
func (g *Game) Agree(player board.Color) error {
	if err := g.checkReview(player); err != nil {
		return err
	}

	if player == board.Black {
		g.agreedBlack = true
	} else {
		g.agreedWhite = true
	}
	if !g.agreedBlack || !g.agreedWhite {
		return nil
	}

	score := g.Score()
	g.finish(Result{Winner: score.Winner(), Reason: ReasonTerritory, Score: score})
	return nil
}

// Resume returns from ScoringReview to Playing. The resuming player's
// opponent moves next.
func (g *Game) Resume(player board.Color) error {
	if err := g.checkReview(player); err != nil {
		return err
	}

	g.phase = Playing
	g.passes = 0
	g.agreedBlack, g.agreedWhite = false, false
	g.current = player.Opponent()
	g.notifyPhaseChanged()
	g.notifyTurnChanged()
	return nil
}

// Resign ends the game in the opponent's favour, from any phase.
func (g *Game) Resign(player board.Color) error {
	if !player.IsStone() {
		return fmt.Errorf("%w: %v", ErrInvalidPlayer, player)
	}
	if g.phase == Finished {
		return ErrGameFinished
	}

	g.finish(Result{Winner: player.Opponent(), Reason: ReasonResign})
	return nil
}

func (g *Game) finish(r Result) {
	g.phase = Finished
	g.result = &r
	g.notifyPhaseChanged()
	g.notifyGameEnded()
}
