package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Fsmount/wamble/internal/board"
	"github.com/Fsmount/wamble/internal/chess"
	"github.com/Fsmount/wamble/internal/config"
)

func TestPreflightRejectsPortCollision(t *testing.T) {
	a := config.Defaults()
	a.Name, a.Port, a.Advertise = "a", 9000, true
	b := config.Defaults()
	b.Name, b.Port, b.Advertise = "b", 9000, true

	err := Preflight([]config.Profile{a, b})
	require.Error(t, err)
}

func TestPreflightRejectsDBIsolationCollision(t *testing.T) {
	a := config.Defaults()
	a.Name, a.Port, a.Advertise, a.DBIsolated = "a", 9001, true, true
	a.DBHost, a.DBUser, a.DBName = "h", "u", "n"
	b := config.Defaults()
	b.Name, b.Port, b.Advertise, b.DBIsolated = "b", 9002, true, true
	b.DBHost, b.DBUser, b.DBName = "h", "u", "n"

	err := Preflight([]config.Profile{a, b})
	require.Error(t, err)
}

func TestPreflightAllowsDistinctProfiles(t *testing.T) {
	a := config.Defaults()
	a.Name, a.Port, a.Advertise = "a", 9003, true
	b := config.Defaults()
	b.Name, b.Port, b.Advertise = "b", 9004, true

	require.NoError(t, Preflight([]config.Profile{a, b}))
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg := config.Defaults()
	rt := New(cfg, nil, nil)
	now := time.Now()

	b1 := board.NewBoard(1, now)
	b1.State = board.Active
	b1.Pos, _ = chess.ParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	rt.Pool.Restore([]*board.Board{b1}, 2)

	path := filepath.Join(t.TempDir(), "snap.bin")
	require.NoError(t, rt.WriteSnapshot(path))

	boards, nextID, err := ReadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, uint64(2), nextID)
	require.Len(t, boards, 1)
	require.Equal(t, board.Active, boards[0].State)
	require.Equal(t, b1.Pos.FEN(), boards[0].Pos.FEN())
}

func TestReadSnapshotRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot file at all"), 0o600))
	_, _, err := ReadSnapshot(path)
	require.ErrorIs(t, err, ErrBadMagic)
}
