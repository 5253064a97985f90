package protocol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmmcquay/goban/internal/analysis"
	"github.com/dmmcquay/goban/internal/board"
	"github.com/dmmcquay/goban/internal/game"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantMsg string
	}{
		{line: "MOVE 3 4", want: Move(3, 4)},
		{line: "  move\t0   8 ", want: Move(0, 8)},
		{line: "pass", want: Simple(VerbPass)},
		{line: "Resign", want: Simple(VerbResign)},
		{line: "AGREE", want: Simple(VerbAgree)},
		{line: "resume", want: Simple(VerbResume)},
		{line: "MOVE 3", wantMsg: "MOVE format: MOVE x y"},
		{line: "MOVE 1 2 3", wantMsg: "MOVE format: MOVE x y"},
		{line: "MOVE a b", wantMsg: "MOVE coordinates must be integers: MOVE x y"},
		{line: "PASS now", wantMsg: "PASS takes no arguments"},
		{line: "agree 1", wantMsg: "AGREE takes no arguments"},
		{line: "jump 1 1", wantMsg: "Unknown command: JUMP"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantMsg != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedCommand)
				assert.Contains(t, err.Error(), tt.wantMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	for _, line := range []string{"", "   ", "\t"} {
		_, err := Parse(line)
		assert.ErrorIs(t, err, ErrEmptyCommand)
	}
}

func TestCommandStringRoundTrip(t *testing.T) {
	for _, c := range []Command{Move(2, 7), Simple(VerbPass), Simple(VerbResign), Simple(VerbAgree), Simple(VerbResume)} {
		parsed, err := Parse(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestApply(t *testing.T) {
	g, err := game.New(5)
	require.NoError(t, err)

	require.NoError(t, Move(2, 2).Apply(g, board.Black))
	assert.Equal(t, board.Black, g.State().At(2, 2))

	err = Move(2, 2).Apply(g, board.White)
	assert.ErrorIs(t, err, game.ErrIllegalMove)

	require.NoError(t, Simple(VerbPass).Apply(g, board.White))
	require.NoError(t, Simple(VerbPass).Apply(g, board.Black))
	assert.Equal(t, game.ScoringReview, g.Phase())

	require.NoError(t, Simple(VerbResume).Apply(g, board.Black))
	assert.Equal(t, board.White, g.Current())

	assert.ErrorIs(t, Simple(VerbAgree).Apply(g, board.Black), game.ErrIllegalState)
	require.NoError(t, Simple(VerbResign).Apply(g, board.Black))
	assert.True(t, g.Finished())

	assert.ErrorIs(t, Command{}.Apply(g, board.Black), ErrMalformedCommand)
}

func TestCoordinates(t *testing.T) {
	tests := []struct {
		in   string
		want board.Point
	}{
		{"A1", board.Point{X: 0, Y: 0}},
		{"B2", board.Point{X: 1, Y: 1}},
		{"b 2", board.Point{X: 1, Y: 1}},
		{" j10 ", board.Point{X: 9, Y: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCoord(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "B", "22", "B-1", "B0", "BB2", "B2x"} {
		_, err := ParseCoord(bad)
		assert.ErrorIs(t, err, ErrMalformedCommand, "input %q", bad)
	}

	assert.Equal(t, "B2", FormatCoord(1, 1))
	assert.Equal(t, "A19", FormatCoord(0, 18))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "INFO Connected as WHITE", Connected(board.White))
	assert.Equal(t, "WELCOME BLACK", Welcome(board.Black))
	assert.Equal(t, "PHASE SCORING_REVIEW", PhaseLine(game.ScoringReview))
	assert.Equal(t, "TURN WHITE", Turn(board.White))
	assert.Equal(t, "SCORE 4 1", Score(analysis.Score{Black: 4, White: 1}))
	assert.Equal(t, "INFO Resumed. Next move: BLACK", Resumed(board.Black))
	assert.Equal(t, "END WHITE resign", End(game.Result{Winner: board.White, Reason: game.ReasonResign}))
	assert.Equal(t, "END NONE territory", End(game.Result{Reason: game.ReasonTerritory}))
	assert.Equal(t, "ERROR Boom", Error(errors.New("boom")))
}

func TestErrorReasons(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not your turn", fmt.Errorf("%w: %v", game.ErrNotYourTurn, board.Black), "ERROR Not your turn: BLACK"},
		{"finished", game.ErrGameFinished, "ERROR Game already finished"},
		{"wrong phase", game.ErrNotPlaying, "ERROR Not in PLAYING phase"},
		{"move arity", mustParseErr(t, "MOVE 1"), "ERROR MOVE format: MOVE x y"},
		{"move integers", mustParseErr(t, "MOVE a b"), "ERROR MOVE coordinates must be integers: MOVE x y"},
		{"unknown", mustParseErr(t, "jump"), "ERROR Unknown command: JUMP"},
		{"extra args", mustParseErr(t, "PASS now"), "ERROR PASS takes no arguments"},
		{"occupied", &game.MoveError{Player: board.White, X: 1, Y: 1, Err: board.ErrOccupied}, "ERROR Illegal move: the position is occupied"},
		{"ko", &game.MoveError{Player: board.White, X: 1, Y: 1, Err: board.ErrKo}, "ERROR Illegal move: ko, position repeats"},
		{"empty", errors.New(""), "ERROR "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Error(tt.err))
		})
	}
}

func mustParseErr(t *testing.T, line string) error {
	t.Helper()
	_, err := Parse(line)
	require.Error(t, err)
	return err
}

func TestReviewBlocks(t *testing.T) {
	b, err := board.New(3)
	require.NoError(t, err)
	require.NoError(t, b.Play(board.Black, 1, 1))

	lines := Review(analysis.Analyze(b), b.State())
	assert.Equal(t, []string{
		"INFO " + ReviewText,
		"SCORE 4 1",
		"TERRITORY 3",
		"TROW .b.",
		"TROW bXb",
		"TROW .b.",
		"END_TERRITORY",
		"DEADSTONES 3",
		"DROW 000",
		"DROW 010",
		"DROW 000",
		"END_DEADSTONES",
	}, lines)
}

func TestDecoder(t *testing.T) {
	b, err := board.New(3)
	require.NoError(t, err)
	require.NoError(t, b.Play(board.Black, 0, 0))

	var lines []string
	lines = append(lines, Welcome(board.Black), PhaseLine(game.Playing))
	lines = append(lines, Board(b.State())...)
	lines = append(lines, Turn(board.White), Score(analysis.Score{Black: 2, White: 5}))
	lines = append(lines, DeadStones(analysis.DeadMask(b))...)
	lines = append(lines, End(game.Result{Winner: board.White, Reason: game.ReasonResign}), "ERROR nope")

	var d Decoder
	var got []Message
	for _, l := range lines {
		msg, ok, err := d.Decode(l)
		require.NoError(t, err, "line %q", l)
		if ok {
			got = append(got, msg)
		}
	}

	require.Len(t, got, 8)
	assert.Equal(t, Message{Kind: KindWelcome, Color: board.Black}, got[0])
	assert.Equal(t, Message{Kind: KindPhase, Text: "PLAYING"}, got[1])
	assert.Equal(t, Message{Kind: KindBoard, Rows: []string{"X..", "...", "..."}}, got[2])
	assert.Equal(t, Message{Kind: KindTurn, Color: board.White}, got[3])
	assert.Equal(t, Message{Kind: KindScore, Black: 2, White: 5}, got[4])
	assert.Equal(t, KindDeadStones, got[5].Kind)
	assert.Equal(t, Message{Kind: KindEnd, Winner: "WHITE", Reason: "resign"}, got[6])
	assert.Equal(t, Message{Kind: KindError, Text: "nope"}, got[7])
}

func TestDecoderErrors(t *testing.T) {
	var d Decoder
	_, _, err := d.Decode("HELLO there")
	assert.Error(t, err)

	_, _, err = d.Decode("BOARD x")
	assert.Error(t, err)

	_, ok, err := d.Decode("BOARD 2")
	require.NoError(t, err)
	assert.False(t, ok)
	_, _, err = d.Decode("ROW ..")
	require.NoError(t, err)
	_, _, err = d.Decode("END_BOARD")
	assert.Error(t, err, "one row short")

	msg, ok, err := d.Decode("INFO recovered")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "recovered", msg.Text)
}
