// Package session binds player connections to games. A Match owns one game,
// serialises every inbound command behind its lock and broadcasts the
// resulting game events to both players as protocol lines. A Lobby pairs
// arriving connections into matches.
package session

import (
	"errors"
	"sync"

	"github.com/dmmcquay/goban/internal/cache"
	"github.com/dmmcquay/goban/internal/logging"
	"github.com/dmmcquay/goban/internal/ratelimit"
)

var (
	ErrMatchFull    = errors.New("match already has two players")
	ErrNotSeated    = errors.New("player is not seated in this match")
	ErrLobbyClosed  = errors.New("lobby is closed")
	ErrMatchNotOpen = errors.New("match has not started")
	ErrMatchClosed  = errors.New("match is closed")
)

// Player is the outbound side of a player connection. Send must be safe for
// concurrent use.
type Player interface {
	Send(lines ...string) error
}

// Recorder receives match events. *metrics.PrometheusCollector satisfies it.
type Recorder interface {
	RecordCommand(verb, status string, durationSecs float64)
	RecordCommandError(verb, errorType string)
	RecordGameStarted(boardSize string)
	RecordGameFinished(reason, winner string)
	RecordGameAbandoned()
	RecordPhaseChange(phase string)
	RecordMove(color string)
	RecordPass(color string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCommand(string, string, float64) {}
func (nopRecorder) RecordCommandError(string, string)     {}
func (nopRecorder) RecordGameStarted(string)              {}
func (nopRecorder) RecordGameFinished(string, string)     {}
func (nopRecorder) RecordGameAbandoned()                  {}
func (nopRecorder) RecordPhaseChange(string)              {}
func (nopRecorder) RecordMove(string)                     {}
func (nopRecorder) RecordPass(string)                     {}

// Deps are the collaborators shared by every match. Zero fields get no-op
// defaults.
type Deps struct {
	Logger   logging.ContextLogger
	Recorder Recorder
	Limiter  *ratelimit.Limiter
	Cache    *cache.Manager
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Cache == nil {
		d.Cache = cache.NewManager(nil, d.Logger)
	}
	return d
}

// Transcript is a Player that keeps every line it is sent.
type Transcript struct {
	mu    sync.Mutex
	lines []string
}

// Send appends lines.
func (t *Transcript) Send(lines ...string) error {
	t.mu.Lock()
	t.lines = append(t.lines, lines...)
	t.mu.Unlock()
	return nil
}

// Lines returns a copy of everything sent so far.
func (t *Transcript) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

// Drain returns everything sent since the last Drain.
func (t *Transcript) Drain() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := t.lines
	t.lines = nil
	return lines
}
