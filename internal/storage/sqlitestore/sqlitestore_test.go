package sqlitestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Fsmount/wamble/internal/storage"
)

func newMemDriver(t *testing.T) *Driver {
	t.Helper()
	d, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestMigrationsApplied(t *testing.T) {
	d := newMemDriver(t)
	var count int
	require.NoError(t, d.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	require.Equal(t, len(migrations), count)
}

func TestCreateAndGetBoard(t *testing.T) {
	d := newMemDriver(t)
	ctx := context.Background()
	require.Equal(t, storage.OK, d.CreateBoard(ctx, 1, "startpos", "dormant"))

	row, status := d.GetBoard(ctx, 1)
	require.Equal(t, storage.OK, status)
	require.Equal(t, "startpos", row.FEN)
	require.Equal(t, "dormant", row.Status)

	require.Equal(t, storage.OK, d.UpdateBoard(ctx, 1, "moved", "active"))
	row, status = d.GetBoard(ctx, 1)
	require.Equal(t, storage.OK, status)
	require.Equal(t, "moved", row.FEN)
}

func TestGetBoardNotFound(t *testing.T) {
	d := newMemDriver(t)
	_, status := d.GetBoard(context.Background(), 999)
	require.Equal(t, storage.NotFound, status)
}

func TestSessionLifecycle(t *testing.T) {
	d := newMemDriver(t)
	ctx := context.Background()
	var tok [16]byte
	tok[0] = 7

	require.Equal(t, storage.OK, d.CreateSession(ctx, tok, 42))
	require.Equal(t, storage.OK, d.LinkSessionToPubkey(ctx, tok, []byte("pubkey")))

	s, status := d.GetPersistentSessionByToken(ctx, tok)
	require.Equal(t, storage.OK, status)
	require.True(t, s.Persistent)
	require.Equal(t, []byte("pubkey"), s.PublicKey)
}

func TestRecordMoveAndQuery(t *testing.T) {
	d := newMemDriver(t)
	ctx := context.Background()
	var tok [16]byte
	tok[0] = 1
	require.Equal(t, storage.OK, d.CreateBoard(ctx, 1, "startpos", "active"))
	require.Equal(t, storage.OK, d.RecordMove(ctx, 1, tok, "e2e4", 1))
	require.Equal(t, storage.OK, d.RecordMove(ctx, 1, tok, "e7e5", 2))

	moves, status := d.GetMovesForBoard(ctx, 1)
	require.Equal(t, storage.OK, status)
	require.Len(t, moves, 2)
	require.Equal(t, "e2e4", moves[0].UCI)
}

func TestRecordPayout(t *testing.T) {
	d := newMemDriver(t)
	ctx := context.Background()
	var tok [16]byte
	tok[0] = 3
	require.Equal(t, storage.OK, d.RecordPayout(ctx, 1, tok, 12.5))
}
