package spectator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Fsmount/wamble/internal/board"
	"github.com/Fsmount/wamble/internal/chess"
	"github.com/Fsmount/wamble/internal/config"
)

func testConfig() config.Profile {
	cfg := config.Defaults()
	cfg.SpectatorVisibility = 1
	cfg.MaxSpectators = 1
	cfg.SpectatorMaxFocusPerSession = 1
	return cfg
}

func TestSpectateGameVisibilityRejected(t *testing.T) {
	m := NewManager(testConfig())
	err := m.SpectateGame(Key{Addr: "a"}, 0, 1, false, func(uint64) bool { return true }, time.Now())
	require.ErrorIs(t, err, ErrVisibility)
}

func TestSpectateGameSummaryAdmitted(t *testing.T) {
	m := NewManager(testConfig())
	err := m.SpectateGame(Key{Addr: "a"}, 5, 0, false, nil, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
}

func TestSpectateGameFocusFullRejected(t *testing.T) {
	m := NewManager(testConfig())
	now := time.Now()
	require.NoError(t, m.SpectateGame(Key{Addr: "a"}, 5, 1, false, func(uint64) bool { return true }, now))
	err := m.SpectateGame(Key{Addr: "b"}, 5, 2, false, func(uint64) bool { return true }, now)
	require.ErrorIs(t, err, ErrFull)
}

func TestSpectateGameFocusDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.SpectatorMaxFocusPerSession = 0
	m := NewManager(cfg)
	err := m.SpectateGame(Key{Addr: "a"}, 5, 1, false, func(uint64) bool { return true }, time.Now())
	require.ErrorIs(t, err, ErrFocusDisabled)
}

func TestSpectateGameNotAvailable(t *testing.T) {
	m := NewManager(testConfig())
	err := m.SpectateGame(Key{Addr: "a"}, 5, 1, false, func(uint64) bool { return false }, time.Now())
	require.ErrorIs(t, err, ErrNotAvailable)
}

func TestSpectateStopFreesSlot(t *testing.T) {
	m := NewManager(testConfig())
	now := time.Now()
	k := Key{Addr: "a"}
	require.NoError(t, m.SpectateGame(k, 5, 1, false, func(uint64) bool { return true }, now))
	m.SpectateStop(k)
	require.Equal(t, 0, m.Len())
	require.NoError(t, m.SpectateGame(Key{Addr: "b"}, 5, 1, false, func(uint64) bool { return true }, now))
}

func TestEvictExpired(t *testing.T) {
	m := NewManager(testConfig())
	now := time.Now()
	require.NoError(t, m.SpectateGame(Key{Addr: "a"}, 5, 0, false, nil, now))
	evicted := m.EvictExpired(now.Add(time.Hour), time.Minute)
	require.Equal(t, 1, evicted)
	require.Equal(t, 0, m.Len())
}

func TestCollectFocusDowngradesOnBoardGone(t *testing.T) {
	m := NewManager(testConfig())
	now := time.Now()
	k := Key{Addr: "a"}
	require.NoError(t, m.SpectateGame(k, 5, 7, false, func(uint64) bool { return true }, now))

	updates, notices := m.CollectFocus(func(uint64) (*board.Board, bool) { return nil, false }, now.Add(time.Second))
	require.Empty(t, updates)
	require.Len(t, notices, 1)
	require.Equal(t, k, notices[0].Key)

	require.NoError(t, m.SpectateGame(Key{Addr: "c"}, 5, 9, false, func(uint64) bool { return true }, now))
}

func TestCollectFocusSendsUpdateWhenEligible(t *testing.T) {
	m := NewManager(testConfig())
	now := time.Now()
	k := Key{Addr: "a"}
	require.NoError(t, m.SpectateGame(k, 5, 7, false, func(uint64) bool { return true }, now))

	b := &board.Board{ID: 7, State: board.Active, Pos: chess.NewStartingBoard()}
	updates, notices := m.CollectFocus(func(id uint64) (*board.Board, bool) {
		if id == 7 {
			return b, true
		}
		return nil, false
	}, now.Add(time.Second))
	require.Empty(t, notices)
	require.Len(t, updates, 1)
	require.Equal(t, uint64(7), updates[0].BoardID)
}

func TestCollectSummaryOrdersByRecency(t *testing.T) {
	m := NewManager(testConfig())
	now := time.Now()
	require.NoError(t, m.SpectateGame(Key{Addr: "a"}, 5, 0, false, nil, now))

	older := &board.Board{ID: 1, State: board.Active, Pos: chess.NewStartingBoard(), LastMoveTime: now.Add(-time.Minute)}
	newer := &board.Board{ID: 2, State: board.Active, Pos: chess.NewStartingBoard(), LastMoveTime: now}

	updates := m.CollectSummary([]*board.Board{older, newer}, now)
	require.Len(t, updates, 2)
	require.Equal(t, uint64(2), updates[0].BoardID)
	require.Equal(t, uint64(1), updates[1].BoardID)
}
