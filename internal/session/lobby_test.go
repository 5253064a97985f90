package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmmcquay/goban/internal/board"
)

func TestLobbyPairsPlayers(t *testing.T) {
	lobby := NewLobby(5, Deps{})

	p1 := &Transcript{}
	m1, c1, err := lobby.Join("c1", p1)
	require.NoError(t, err)
	assert.Equal(t, board.Black, c1)
	assert.Equal(t, []string{"INFO Connected as BLACK", "INFO Waiting for opponent..."}, p1.Drain())
	assert.True(t, lobby.Stats().Waiting)

	p2 := &Transcript{}
	m2, c2, err := lobby.Join("c2", p2)
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.Equal(t, board.White, c2)
	assert.Contains(t, p1.Lines(), "WELCOME BLACK")
	assert.Contains(t, p2.Lines(), "WELCOME WHITE")
	assert.Contains(t, p2.Lines(), "BOARD 5")
	assert.False(t, lobby.Stats().Waiting)

	p3 := &Transcript{}
	m3, c3, err := lobby.Join("c3", p3)
	require.NoError(t, err)
	assert.NotEqual(t, m1.ID(), m3.ID())
	assert.Equal(t, board.Black, c3)
	assert.Equal(t, 2, lobby.Stats().Matches)

	found, ok := lobby.Match(m1.ID())
	require.True(t, ok)
	assert.Same(t, m1, found)
}

func TestLobbySkipsAbandonedWaitingMatch(t *testing.T) {
	lobby := NewLobby(5, Deps{})

	first, _, err := lobby.Join("c1", &Transcript{})
	require.NoError(t, err)
	first.Disconnect(board.Black)

	second, color, err := lobby.Join("c2", &Transcript{})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, board.Black, color)

	require.Eventually(t, func() bool {
		_, ok := lobby.Match(first.ID())
		return !ok
	}, time.Second, 5*time.Millisecond, "closed match is reaped")
}

func TestLobbyReplacesWaitingMatchClosedDuringJoin(t *testing.T) {
	lobby := NewLobby(5, Deps{})

	first, _, err := lobby.Join("c1", &Transcript{})
	require.NoError(t, err)
	first.Disconnect(board.Black)
	require.Eventually(t, func() bool {
		_, ok := lobby.Match(first.ID())
		return !ok
	}, time.Second, 5*time.Millisecond)

	// The waiting match closed after the lobby last looked at it.
	lobby.mu.Lock()
	lobby.waiting = first
	lobby.mu.Unlock()

	p := &Transcript{}
	second, color, err := lobby.Join("c2", p)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, board.Black, color)
	assert.Equal(t, []string{"INFO Connected as BLACK", "INFO Waiting for opponent..."}, p.Drain())
	assert.True(t, lobby.Stats().Waiting)

	_, ok := lobby.Match(second.ID())
	assert.True(t, ok)
}

func TestLobbyMatchesAndReap(t *testing.T) {
	lobby := NewLobby(3, Deps{})
	m, _, err := lobby.Join("c1", &Transcript{})
	require.NoError(t, err)
	_, _, err = lobby.Join("c2", &Transcript{})
	require.NoError(t, err)
	require.NoError(t, m.Handle(board.Black, "MOVE 0 0"))

	summaries := lobby.Matches()
	require.Len(t, summaries, 1)
	assert.Equal(t, m.ID(), summaries[0].ID)
	assert.True(t, summaries[0].Started)
	assert.Equal(t, "WHITE", summaries[0].Current)
	assert.Equal(t, []string{"X..", "...", "..."}, summaries[0].Board)

	m.Disconnect(board.Black)
	m.Disconnect(board.White)
	require.Eventually(t, func() bool { return lobby.Stats().Matches == 0 }, time.Second, 5*time.Millisecond)
}

func TestLobbyClose(t *testing.T) {
	lobby := NewLobby(3, Deps{})
	meta, err := lobby.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, meta["matches"])

	require.NoError(t, lobby.Close(context.Background()))
	_, _, err = lobby.Join("c1", &Transcript{})
	assert.ErrorIs(t, err, ErrLobbyClosed)

	_, err = lobby.HealthCheck(context.Background())
	assert.ErrorIs(t, err, ErrLobbyClosed)
}

func TestLobbyInvalidSize(t *testing.T) {
	lobby := NewLobby(0, Deps{})
	_, _, err := lobby.Join("c1", &Transcript{})
	assert.Error(t, err)
}
