package session

import (
	"github.com/dmmcquay/goban/internal/board"
	"github.com/dmmcquay/goban/internal/game"
	"github.com/dmmcquay/goban/internal/protocol"
)

// broadcaster turns game events into protocol lines for both players. The
// game notifies it from inside Match.run, so m.mu is already held.
type broadcaster struct {
	m *Match
}

func (b *broadcaster) OnBoardChanged(grid board.Grid) {
	b.m.broadcast(protocol.Board(grid)...)
}

func (b *broadcaster) OnTurnChanged(player board.Color) {
	b.m.broadcast(protocol.Turn(player))
}

func (b *broadcaster) OnPhaseChanged(phase game.Phase) {
	m := b.m
	m.deps.Recorder.RecordPhaseChange(phase.String())
	m.broadcast(protocol.PhaseLine(phase))

	switch phase {
	case game.ScoringReview:
		m.broadcast(protocol.Review(m.report(), m.game.State())...)
	case game.Playing:
		m.broadcast(protocol.Resumed(m.game.Current()))
	}
}

func (b *broadcaster) OnGameEnded(result game.Result) {
	m := b.m
	m.deps.Recorder.RecordGameFinished(string(result.Reason), result.WinnerName())
	m.broadcast(protocol.End(result))
	m.logger.Info("Match finished",
		"winner", result.WinnerName(),
		"reason", string(result.Reason),
		"moves", m.game.MoveCount(),
	)
}
