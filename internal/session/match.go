package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmmcquay/goban/internal/analysis"
	"github.com/dmmcquay/goban/internal/board"
	"github.com/dmmcquay/goban/internal/game"
	"github.com/dmmcquay/goban/internal/logging"
	"github.com/dmmcquay/goban/internal/protocol"
	"github.com/dmmcquay/goban/internal/ratelimit"
)

type seat struct {
	connID    string
	player    Player
	connected bool
}

// Match is one game between two connected players. All methods are safe for
// concurrent use; commands are applied one at a time.
type Match struct {
	id      string
	deps    Deps
	logger  logging.ContextLogger
	created time.Time

	mu      sync.Mutex
	game    *game.Game
	seats   [2]*seat
	started bool
	closed  bool
	done    chan struct{}
}

// NewMatch creates a match on an empty board of the given size.
func NewMatch(size int, deps Deps) (*Match, error) {
	g, err := game.New(size)
	if err != nil {
		return nil, err
	}

	deps = deps.withDefaults()
	id := uuid.NewString()
	m := &Match{
		id:      id,
		deps:    deps,
		logger:  deps.Logger.WithContext(logging.ContextWithMatchID(context.Background(), id)),
		created: time.Now(),
		game:    g,
		done:    make(chan struct{}),
	}
	g.AddObserver(&broadcaster{m: m})
	return m, nil
}

// ID returns the match identifier.
func (m *Match) ID() string { return m.id }

// Done is closed once both players have left.
func (m *Match) Done() <-chan struct{} { return m.done }

func seatIndex(c board.Color) int {
	if c == board.White {
		return 1
	}
	return 0
}

func (m *Match) seat(c board.Color) *seat {
	if !c.IsStone() {
		return nil
	}
	return m.seats[seatIndex(c)]
}

// Join seats p in the first free color, BLACK before WHITE, and tells the
// player which color it got.
func (m *Match) Join(connID string, p Player) (board.Color, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return board.Empty, ErrMatchClosed
	}
	for _, c := range []board.Color{board.Black, board.White} {
		if m.seats[seatIndex(c)] != nil {
			continue
		}
		m.seats[seatIndex(c)] = &seat{connID: connID, player: p, connected: true}
		m.logger.Info("Player joined", "conn_id", connID, "color", c.String())
		m.sendTo(c, protocol.Connected(c))
		return c, nil
	}
	return board.Empty, ErrMatchFull
}

// Full reports whether both seats are taken.
func (m *Match) Full() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seats[0] != nil && m.seats[1] != nil
}

// Start welcomes both players and sends the opening position. Starting a
// started match does nothing.
func (m *Match) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}
	if m.closed {
		return ErrMatchClosed
	}
	if m.seats[0] == nil || m.seats[1] == nil {
		return ErrMatchNotOpen
	}
	m.started = true

	m.sendTo(board.Black, protocol.Welcome(board.Black))
	m.sendTo(board.White, protocol.Welcome(board.White))
	m.broadcast(protocol.Info(protocol.GameStartedText), protocol.PhaseLine(m.game.Phase()))
	m.broadcast(protocol.Board(m.game.State())...)
	m.broadcast(protocol.Turn(m.game.Current()))

	m.deps.Recorder.RecordGameStarted(strconv.Itoa(m.game.Size()))
	m.logger.Info("Match started", "size", m.game.Size())
	return nil
}

// Handle runs one protocol line from player. Rejections are reported to the
// player as ERROR lines and also returned; blank lines are ignored.
func (m *Match) Handle(player board.Color, line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	cmd, err := protocol.Parse(trimmed)
	return m.run(player, cmd, err)
}

// Exec runs an already parsed command from player.
func (m *Match) Exec(player board.Color, cmd protocol.Command) error {
	return m.run(player, cmd, nil)
}

func (m *Match) run(player board.Color, cmd protocol.Command, parseErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.seat(player)
	if s == nil {
		return ErrNotSeated
	}
	if m.game.Finished() {
		m.sendTo(player, protocol.Info(protocol.AlreadyFinishedText))
		return game.ErrGameFinished
	}

	verb := "INVALID"
	if parseErr == nil {
		verb = cmd.Verb.String()
	}
	logger := m.logger.WithFields(map[string]interface{}{"color": player.String(), "verb": verb})

	start := time.Now()
	err := m.deps.Limiter.Allow(s.connID, verb)
	if err != nil {
		if wait := m.deps.Limiter.Delay(s.connID).Round(100 * time.Millisecond); wait > 0 {
			err = fmt.Errorf("%w, retry in %s", err, wait)
		}
	}
	switch {
	case err != nil:
	case parseErr != nil:
		err = parseErr
	case !m.started:
		err = ErrMatchNotOpen
	default:
		err = cmd.Apply(m.game, player)
	}
	elapsed := time.Since(start).Seconds()

	if err != nil {
		status := "error"
		if errors.Is(err, ratelimit.ErrRateLimited) {
			status = "rate_limited"
		}
		m.deps.Recorder.RecordCommand(verb, status, elapsed)
		m.deps.Recorder.RecordCommandError(verb, errorType(err))
		logger.Debug("Command rejected", "error", err.Error())
		m.sendTo(player, protocol.Error(err))
		return err
	}

	m.deps.Recorder.RecordCommand(verb, "success", elapsed)
	fields := []interface{}{"command", cmd.String()}
	switch cmd.Verb {
	case protocol.VerbMove:
		m.deps.Recorder.RecordMove(player.String())
		fields = append(fields, "coord", protocol.FormatCoord(cmd.X, cmd.Y))
	case protocol.VerbPass:
		m.deps.Recorder.RecordPass(player.String())
	}
	logger.Debug("Command applied", fields...)
	return nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ratelimit.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, protocol.ErrMalformedCommand):
		return "malformed"
	case errors.Is(err, game.ErrIllegalMove):
		return "illegal_move"
	case errors.Is(err, game.ErrIllegalState), errors.Is(err, ErrMatchNotOpen):
		return "illegal_state"
	default:
		return "other"
	}
}

// Disconnect marks player as gone. The opponent is told while the game is
// still undecided; the game itself is left as is. Once both players are gone
// the match closes.
func (m *Match) Disconnect(player board.Color) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.seat(player)
	if s == nil || !s.connected {
		return
	}
	s.connected = false
	m.deps.Limiter.Forget(s.connID)
	m.logger.Info("Player disconnected", "color", player.String())

	if m.started && !m.game.Finished() {
		m.sendTo(player.Opponent(), protocol.Info(protocol.OpponentLeftText))
	}

	for _, other := range m.seats {
		if other != nil && other.connected {
			return
		}
	}
	m.closed = true
	if m.started && !m.game.Finished() {
		m.deps.Recorder.RecordGameAbandoned()
	}
	close(m.done)
	m.logger.Info("Match closed", "moves", m.game.MoveCount())
}

// Closed reports whether both players have left.
func (m *Match) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Report returns the analysis of the current position.
func (m *Match) Report() analysis.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.report()
}

// Review returns the scoring review lines for the current position, the same
// block players receive when both have passed.
func (m *Match) Review() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return protocol.Review(m.report(), m.game.State())
}

// Must be called with m.mu held.
func (m *Match) report() analysis.Report {
	return m.deps.Cache.Analyze(m.game.Key(), m.game.Position())
}

// Summary describes a match for status endpoints.
type Summary struct {
	ID             string          `json:"id"`
	Size           int             `json:"size"`
	Started        bool            `json:"started"`
	Phase          string          `json:"phase"`
	Current        string          `json:"current"`
	Moves          int             `json:"moves"`
	Passes         int             `json:"passes"`
	BlackConnected bool            `json:"blackConnected"`
	WhiteConnected bool            `json:"whiteConnected"`
	Winner         string          `json:"winner,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Score          *analysis.Score `json:"score,omitempty"`
	Board          []string        `json:"board"`
	Created        time.Time       `json:"created"`
}

// Summary returns a snapshot of the match.
func (m *Match) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{
		ID:      m.id,
		Size:    m.game.Size(),
		Started: m.started,
		Phase:   m.game.Phase().String(),
		Current: m.game.Current().String(),
		Moves:   m.game.MoveCount(),
		Passes:  m.game.Passes(),
		Board:   m.game.State().Rows(),
		Created: m.created,
	}
	if b := m.seats[0]; b != nil {
		s.BlackConnected = b.connected
	}
	if w := m.seats[1]; w != nil {
		s.WhiteConnected = w.connected
	}
	if r, ok := m.game.Result(); ok {
		s.Winner = r.WinnerName()
		s.Reason = string(r.Reason)
		if r.Reason == game.ReasonTerritory {
			score := r.Score
			s.Score = &score
		}
	}
	return s
}

// Must be called with m.mu held.
func (m *Match) sendTo(c board.Color, lines ...string) {
	s := m.seat(c)
	if s == nil || !s.connected {
		return
	}
	if err := s.player.Send(lines...); err != nil {
		m.logger.Warn("Failed to send to player", "color", c.String(), "error", err.Error())
	}
}

// Must be called with m.mu held.
func (m *Match) broadcast(lines ...string) {
	m.sendTo(board.Black, lines...)
	m.sendTo(board.White, lines...)
}
