package game

import (
	"github.com/dmmcquay/goban/internal/analysis"
	"github.com/dmmcquay/goban/internal/board"
)

// Phase is the stage a game is in.
type Phase int

const (
	// Playing accepts moves and passes.
	Playing Phase = iota
	// ScoringReview follows two consecutive passes; players agree or resume.
	ScoringReview
	// Finished is terminal.
	Finished
)

func (p Phase) String() string {
	switch p {
	case Playing:
		return "PLAYING"
	case ScoringReview:
		return "SCORING_REVIEW"
	case Finished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// Reason explains how a game ended.
type Reason string

const (
	ReasonResign    Reason = "resign"
	ReasonTerritory Reason = "territory"
)

// Result is produced once, when the game finishes. Winner is board.Empty for
// a draw. Score is only set for games ended by territory.
type Result struct {
	Winner board.Color
	Reason Reason
	Score  analysis.Score
}

// Draw reports whether neither player won.
func (r Result) Draw() bool {
	return r.Winner == board.Empty
}

// WinnerName returns the winning color's name, or "NONE" for a draw.
func (r Result) WinnerName() string {
	if r.Draw() {
		return "NONE"
	}
	return r.Winner.String()
}
