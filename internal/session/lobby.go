package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dmmcquay/goban/internal/board"
	"github.com/dmmcquay/goban/internal/logging"
	"github.com/dmmcquay/goban/internal/protocol"
)

// Lobby pairs consecutive connections into matches: the first player of a
// pair gets BLACK and waits, the second gets WHITE and the game starts.
type Lobby struct {
	size   int
	deps   Deps
	logger logging.ContextLogger

	mu      sync.Mutex
	waiting *Match
	matches map[string]*Match
	closed  bool
}

// NewLobby creates a lobby whose matches use boards of the given size.
func NewLobby(size int, deps Deps) *Lobby {
	deps = deps.withDefaults()
	return &Lobby{
		size:    size,
		deps:    deps,
		logger:  deps.Logger,
		matches: make(map[string]*Match),
	}
}

// Join seats p in the waiting match, or opens a new one.
func (l *Lobby) Join(connID string, p Player) (*Match, board.Color, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, board.Empty, ErrLobbyClosed
	}
	if m := l.waiting; m != nil {
		l.waiting = nil
		color, err := m.Join(connID, p)
		switch {
		case errors.Is(err, ErrMatchClosed):
			// The waiting player left; open a fresh match instead.
		case err != nil:
			return nil, board.Empty, err
		default:
			if err := m.Start(); err != nil {
				return nil, board.Empty, err
			}
			return m, color, nil
		}
	}

	m, err := NewMatch(l.size, l.deps)
	if err != nil {
		return nil, board.Empty, err
	}
	color, err := m.Join(connID, p)
	if err != nil {
		return nil, board.Empty, err
	}
	l.waiting = m
	l.matches[m.ID()] = m
	go l.reap(m)

	if err := p.Send(protocol.Info(protocol.WaitingText)); err != nil {
		l.logger.Warn("Failed to send to player", "conn_id", connID, "error", err.Error())
	}
	l.logger.Info("Match opened", "match_id", m.ID(), "conn_id", connID)
	return m, color, nil
}

func (l *Lobby) reap(m *Match) {
	<-m.Done()
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.matches, m.ID())
	if l.waiting == m {
		l.waiting = nil
	}
}

// Match looks up a live match by ID.
func (l *Lobby) Match(id string) (*Match, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.matches[id]
	return m, ok
}

// Matches summarises every live match, oldest first.
func (l *Lobby) Matches() []Summary {
	l.mu.Lock()
	matches := make([]*Match, 0, len(l.matches))
	for _, m := range l.matches {
		matches = append(matches, m)
	}
	l.mu.Unlock()

	summaries := make([]Summary, 0, len(matches))
	for _, m := range matches {
		summaries = append(summaries, m.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Created.Before(summaries[j].Created)
	})
	return summaries
}

// Stats reports lobby occupancy.
type Stats struct {
	Matches int  `json:"matches"`
	Waiting bool `json:"waiting"`
	Closed  bool `json:"closed"`
}

// Stats returns current lobby occupancy.
func (l *Lobby) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{Matches: len(l.matches), Waiting: l.waiting != nil, Closed: l.closed}
}

// HealthCheck fails once the lobby stops accepting players.
func (l *Lobby) HealthCheck(context.Context) (map[string]interface{}, error) {
	s := l.Stats()
	metadata := map[string]interface{}{"matches": s.Matches, "waiting": s.Waiting}
	if s.Closed {
		return metadata, ErrLobbyClosed
	}
	return metadata, nil
}

// Close stops accepting players. Live matches continue until their
// connections end.
func (l *Lobby) Close(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
