package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Fsmount/wamble/internal/storage"
)

type fakeDriver struct {
	storage.Driver
	failBoards map[uint64]bool
	sessions   map[[16]byte]bool
	applied    []Intent
}

func (f *fakeDriver) GetSessionByToken(ctx context.Context, token [16]byte) (storage.Session, storage.Status) {
	if f.sessions[token] {
		return storage.Session{Token: token}, storage.OK
	}
	return storage.Session{}, storage.NotFound
}

func (f *fakeDriver) UpdateBoard(ctx context.Context, boardID uint64, fen, status string) storage.Status {
	f.applied = append(f.applied, UpdateBoard{BoardID: boardID, FEN: fen, Status: status})
	if f.failBoards[boardID] {
		return storage.Error
	}
	return storage.OK
}

func (f *fakeDriver) RecordMove(ctx context.Context, boardID uint64, token [16]byte, uci string, moveNumber int) storage.Status {
	f.applied = append(f.applied, RecordMove{BoardID: boardID, Token: token, UCI: uci, MoveNumber: moveNumber})
	return storage.OK
}

func TestApplyIntentsDropsSucceeded(t *testing.T) {
	buf := NewBuffer()
	buf.Emit(UpdateBoard{BoardID: 1, FEN: "fen1", Status: "active"})
	buf.Emit(UpdateBoard{BoardID: 2, FEN: "fen2", Status: "active"})

	driver := &fakeDriver{failBoards: map[uint64]bool{}}
	applied, status := buf.ApplyIntents(context.Background(), driver, 10)
	require.Equal(t, 2, applied)
	require.Equal(t, OK, status)
	require.Equal(t, 0, buf.Len())
}

func TestApplyIntentsRetainsFailures(t *testing.T) {
	buf := NewBuffer()
	buf.Emit(UpdateBoard{BoardID: 1, FEN: "fen1", Status: "active"})
	buf.Emit(UpdateBoard{BoardID: 2, FEN: "fen2", Status: "active"})

	driver := &fakeDriver{failBoards: map[uint64]bool{2: true}}
	applied, status := buf.ApplyIntents(context.Background(), driver, 10)
	require.Equal(t, 1, applied)
	require.Equal(t, ApplyFail, status)
	require.Equal(t, 1, buf.Len())
}

func TestApplyIntentsRespectsMaxBatch(t *testing.T) {
	buf := NewBuffer()
	for i := uint64(0); i < 5; i++ {
		buf.Emit(UpdateBoard{BoardID: i, FEN: "fen", Status: "active"})
	}
	driver := &fakeDriver{failBoards: map[uint64]bool{}}
	applied, _ := buf.ApplyIntents(context.Background(), driver, 2)
	require.Equal(t, 2, applied)
	require.Equal(t, 3, buf.Len())
}

func TestApplyIntentsSessionNotFoundIsSatisfied(t *testing.T) {
	buf := NewBuffer()
	buf.Emit(RecordMove{BoardID: 1, Token: [16]byte{9}, UCI: "e2e4", MoveNumber: 1})
	driver := &fakeDriver{sessions: map[[16]byte]bool{}}
	applied, status := buf.ApplyIntents(context.Background(), driver, 10)
	require.Equal(t, 1, applied)
	require.Equal(t, OK, status)
	require.Empty(t, driver.applied) // dropped before reaching RecordMove
}

func TestApplyIntentsEmptyBuffer(t *testing.T) {
	buf := NewBuffer()
	_, status := buf.ApplyIntents(context.Background(), &fakeDriver{}, 10)
	require.Equal(t, Empty, status)
}

func TestApplyIntentsNoBuffer(t *testing.T) {
	buf := NewBuffer()
	buf.Emit(UpdateBoard{BoardID: 1})
	_, status := buf.ApplyIntents(context.Background(), nil, 10)
	require.Equal(t, NoBuffer, status)
}
