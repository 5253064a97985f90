package session

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmmcquay/goban/internal/board"
	"github.com/dmmcquay/goban/internal/config"
	"github.com/dmmcquay/goban/internal/game"
	"github.com/dmmcquay/goban/internal/logging"
	"github.com/dmmcquay/goban/internal/protocol"
	"github.com/dmmcquay/goban/internal/ratelimit"
)

type event struct {
	name   string
	labels []string
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []event
}

func (f *fakeRecorder) add(name string, labels ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event{name, labels})
}

func (f *fakeRecorder) RecordCommand(verb, status string, _ float64) { f.add("command", verb, status) }
func (f *fakeRecorder) RecordCommandError(verb, t string)             { f.add("command_error", verb, t) }
func (f *fakeRecorder) RecordGameStarted(size string)                 { f.add("started", size) }
func (f *fakeRecorder) RecordGameFinished(reason, winner string)      { f.add("finished", reason, winner) }
func (f *fakeRecorder) RecordGameAbandoned()                          { f.add("abandoned") }
func (f *fakeRecorder) RecordPhaseChange(phase string)                { f.add("phase", phase) }
func (f *fakeRecorder) RecordMove(color string)                       { f.add("move", color) }
func (f *fakeRecorder) RecordPass(color string)                       { f.add("pass", color) }

func (f *fakeRecorder) named(name string) []event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []event
	for _, e := range f.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

type brokenPlayer struct{}

func (brokenPlayer) Send(...string) error { return errors.New("broken pipe") }

// startedMatch returns a 3x3 match with both players seated and started, and
// the transcripts already drained.
func startedMatch(t *testing.T, deps Deps) (*Match, *Transcript, *Transcript) {
	t.Helper()
	m, err := NewMatch(3, deps)
	require.NoError(t, err)

	black, white := &Transcript{}, &Transcript{}
	c, err := m.Join("conn-b", black)
	require.NoError(t, err)
	require.Equal(t, board.Black, c)
	c, err = m.Join("conn-w", white)
	require.NoError(t, err)
	require.Equal(t, board.White, c)
	require.NoError(t, m.Start())

	black.Drain()
	white.Drain()
	return m, black, white
}

func TestStartSequence(t *testing.T) {
	rec := &fakeRecorder{}
	m, err := NewMatch(3, Deps{Recorder: rec})
	require.NoError(t, err)

	black, white := &Transcript{}, &Transcript{}
	_, err = m.Join("b", black)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Start(), ErrMatchNotOpen)
	_, err = m.Join("w", white)
	require.NoError(t, err)
	assert.True(t, m.Full())

	_, err = m.Join("third", &Transcript{})
	assert.ErrorIs(t, err, ErrMatchFull)

	require.NoError(t, m.Start())
	require.NoError(t, m.Start(), "second start is a no-op")

	common := []string{
		"INFO Game started. BLACK moves first.",
		"PHASE PLAYING",
		"BOARD 3",
		"ROW ...",
		"ROW ...",
		"ROW ...",
		"END_BOARD",
		"TURN BLACK",
	}
	assert.Equal(t, append([]string{"INFO Connected as BLACK", "WELCOME BLACK"}, common...), black.Lines())
	assert.Equal(t, append([]string{"INFO Connected as WHITE", "WELCOME WHITE"}, common...), white.Lines())
	assert.Equal(t, []event{{"started", []string{"3"}}}, rec.named("started"))
}

func TestMoveBroadcast(t *testing.T) {
	rec := &fakeRecorder{}
	m, black, white := startedMatch(t, Deps{Recorder: rec})

	require.NoError(t, m.Handle(board.Black, "MOVE 1 1"))
	want := []string{"BOARD 3", "ROW ...", "ROW .X.", "ROW ...", "END_BOARD", "TURN WHITE"}
	assert.Equal(t, want, black.Drain())
	assert.Equal(t, want, white.Drain())

	assert.Equal(t, []event{{"move", []string{"BLACK"}}}, rec.named("move"))
	assert.Equal(t, []event{{"command", []string{"MOVE", "success"}}}, rec.named("command"))
}

func TestRejectionsGoOnlyToSender(t *testing.T) {
	tests := []struct {
		name     string
		player   board.Color
		line     string
		wantErr  error
		wantLine string
		wantType string
	}{
		{"out of turn", board.White, "PASS", game.ErrNotYourTurn, "ERROR Not your turn: WHITE", "illegal_state"},
		{"malformed", board.Black, "MOVE 1", protocol.ErrMalformedCommand, "ERROR MOVE format: MOVE x y", "malformed"},
		{"unknown", board.Black, "JUMP", protocol.ErrMalformedCommand, "ERROR Unknown command: JUMP", "malformed"},
		{"wrong phase", board.Black, "AGREE", game.ErrNotInReview, "ERROR Not in SCORING_REVIEW phase", "illegal_state"},
		{"off board", board.Black, "MOVE 5 5", game.ErrIllegalMove, "ERROR Illegal move: position is out of range: (5,5) on 3x3 board", "illegal_move"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{}
			m, black, white := startedMatch(t, Deps{Recorder: rec})
			sender, other := black, white
			if tt.player == board.White {
				sender, other = white, black
			}

			err := m.Handle(tt.player, tt.line)
			require.ErrorIs(t, err, tt.wantErr)

			lines := sender.Drain()
			require.Len(t, lines, 1)
			assert.Equal(t, protocol.Error(err), lines[0])
			if tt.wantLine != "" {
				assert.Equal(t, tt.wantLine, lines[0])
			}
			assert.Empty(t, other.Drain())
			assert.Equal(t, tt.wantType, rec.named("command_error")[0].labels[1])
		})
	}
}

func TestBlankLineIgnored(t *testing.T) {
	m, black, _ := startedMatch(t, Deps{})
	assert.NoError(t, m.Handle(board.Black, "   "))
	assert.Empty(t, black.Lines())
}

func TestCommandBeforeStart(t *testing.T) {
	m, err := NewMatch(3, Deps{})
	require.NoError(t, err)
	black := &Transcript{}
	_, err = m.Join("b", black)
	require.NoError(t, err)
	black.Drain()

	err = m.Handle(board.Black, "MOVE 0 0")
	assert.ErrorIs(t, err, ErrMatchNotOpen)
	assert.Equal(t, []string{"ERROR Match has not started"}, black.Drain())
	assert.ErrorIs(t, m.Handle(board.White, "PASS"), ErrNotSeated)
}

func TestReviewResumeAndAgree(t *testing.T) {
	rec := &fakeRecorder{}
	m, black, white := startedMatch(t, Deps{Recorder: rec})

	require.NoError(t, m.Handle(board.Black, "MOVE 1 1"))
	require.NoError(t, m.Handle(board.White, "PASS"))
	require.NoError(t, m.Handle(board.Black, "pass"))
	black.Drain()
	white.Drain()

	// Re-enter review to check the exact block, via resume and two more passes.
	require.NoError(t, m.Handle(board.White, "RESUME"))
	assert.Equal(t, []string{"PHASE PLAYING", "INFO Resumed. Next move: BLACK", "TURN BLACK"}, black.Drain())
	white.Drain()

	require.NoError(t, m.Handle(board.Black, "PASS"))
	require.NoError(t, m.Handle(board.White, "PASS"))
	review := []string{
		"TURN WHITE",
		"PHASE SCORING_REVIEW",
		"INFO Scoring review: AGREE to accept or RESUME to continue.",
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
	}
	assert.Equal(t, review, black.Drain())
	assert.Equal(t, review, white.Drain())

	require.NoError(t, m.Handle(board.Black, "AGREE"))
	assert.Empty(t, black.Drain())
	require.NoError(t, m.Handle(board.White, "AGREE"))
	end := []string{"PHASE FINISHED", "END BLACK territory"}
	assert.Equal(t, end, black.Drain())
	assert.Equal(t, end, white.Drain())

	err := m.Handle(board.White, "MOVE 0 0")
	assert.ErrorIs(t, err, game.ErrGameFinished)
	assert.Equal(t, []string{"INFO Game already finished. Please close client."}, white.Drain())
	assert.Empty(t, black.Drain())

	summary := m.Summary()
	assert.Equal(t, "FINISHED", summary.Phase)
	assert.Equal(t, "BLACK", summary.Winner)
	assert.Equal(t, "territory", summary.Reason)
	require.NotNil(t, summary.Score)
	assert.Equal(t, 4, summary.Score.Black)

	assert.Equal(t, []event{{"finished", []string{"territory", "BLACK"}}}, rec.named("finished"))
	phases := rec.named("phase")
	require.Len(t, phases, 4)
	assert.Equal(t, "FINISHED", phases[3].labels[0])
}

func TestResignMidReview(t *testing.T) {
	m, black, white := startedMatch(t, Deps{})
	require.NoError(t, m.Handle(board.Black, "PASS"))
	require.NoError(t, m.Handle(board.White, "PASS"))
	black.Drain()
	white.Drain()

	require.NoError(t, m.Handle(board.Black, "RESIGN"))
	assert.Equal(t, []string{"PHASE FINISHED", "END WHITE resign"}, white.Drain())

	summary := m.Summary()
	assert.Equal(t, "WHITE", summary.Winner)
	assert.Nil(t, summary.Score)
}

func TestExec(t *testing.T) {
	m, black, _ := startedMatch(t, Deps{})
	require.NoError(t, m.Exec(board.Black, protocol.Move(2, 0)))
	assert.Contains(t, black.Drain(), "ROW ..X")
	assert.ErrorIs(t, m.Exec(board.Black, protocol.Move(0, 0)), game.ErrNotYourTurn)
}

func TestDisconnect(t *testing.T) {
	rec := &fakeRecorder{}
	m, black, white := startedMatch(t, Deps{Recorder: rec})

	m.Disconnect(board.White)
	assert.Equal(t, []string{"INFO Opponent disconnected."}, black.Drain())
	assert.False(t, m.Closed())
	m.Disconnect(board.White)
	assert.Empty(t, black.Drain(), "second disconnect is a no-op")

	// The game is not resolved; BLACK can still play into the void.
	require.NoError(t, m.Handle(board.Black, "MOVE 0 0"))
	assert.Empty(t, white.Lines())

	m.Disconnect(board.Black)
	assert.True(t, m.Closed())
	select {
	case <-m.Done():
	default:
		t.Fatal("done should be closed")
	}
	assert.Len(t, rec.named("abandoned"), 1)

	_, err := m.Join("late", &Transcript{})
	assert.ErrorIs(t, err, ErrMatchClosed)
}

func TestDisconnectAfterFinishIsQuiet(t *testing.T) {
	rec := &fakeRecorder{}
	m, black, _ := startedMatch(t, Deps{Recorder: rec})
	require.NoError(t, m.Handle(board.White, "RESIGN"))
	black.Drain()

	m.Disconnect(board.White)
	assert.Empty(t, black.Drain())
	m.Disconnect(board.Black)
	assert.Empty(t, rec.named("abandoned"))
}

func TestSendFailuresAreSwallowed(t *testing.T) {
	m, err := NewMatch(3, Deps{})
	require.NoError(t, err)
	white := &Transcript{}
	_, err = m.Join("b", brokenPlayer{})
	require.NoError(t, err)
	_, err = m.Join("w", white)
	require.NoError(t, err)
	require.NoError(t, m.Start())

	require.NoError(t, m.Handle(board.Black, "MOVE 0 0"))
	assert.Contains(t, white.Lines(), "TURN WHITE")
}

func TestRateLimitedCommands(t *testing.T) {
	limiter := ratelimit.NewLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstSize: 2}, logging.NewNop())
	defer limiter.Close()
	rec := &fakeRecorder{}
	m, black, _ := startedMatch(t, Deps{Recorder: rec, Limiter: limiter})

	require.NoError(t, m.Handle(board.Black, "PASS"))
	require.NoError(t, m.Handle(board.White, "PASS"))
	require.NoError(t, m.Handle(board.White, "RESUME"))
	black.Drain()

	require.NoError(t, m.Handle(board.Black, "MOVE 0 0"))
	err := m.Handle(board.Black, "AGREE")
	require.ErrorIs(t, err, ratelimit.ErrRateLimited)
	assert.True(t, strings.HasPrefix(black.Drain()[6], "ERROR Rate limit exceeded for client, retry in "))

	statuses := rec.named("command")
	assert.Equal(t, []string{"AGREE", "rate_limited"}, statuses[len(statuses)-1].labels)
}

func TestReportUsesCache(t *testing.T) {
	m, _, _ := startedMatch(t, Deps{})
	require.NoError(t, m.Handle(board.Black, "MOVE 1 1"))
	assert.Equal(t, m.Report(), m.Report())
	assert.Equal(t, 4, m.Report().Score.Black)
}

func TestReviewLines(t *testing.T) {
	m, _, _ := startedMatch(t, Deps{})
	require.NoError(t, m.Handle(board.Black, "MOVE 1 1"))
	assert.Equal(t, []string{
		"INFO Scoring review: AGREE to accept or RESUME to continue.",
		"SCORE 4 1",
		"TERRITORY 3", "TROW .b.", "TROW bXb", "TROW .b.", "END_TERRITORY",
		"DEADSTONES 3", "DROW 000", "DROW 010", "DROW 000", "END_DEADSTONES",
	}, m.Review())
}
