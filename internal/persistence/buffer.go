package persistence

import (
	"context"
	"sync"

	"github.com/Fsmount/wamble/internal/storage"
)

// Status mirrors spec §4.4's buffer status enumeration. ALLOC_FAIL
// exists for interface parity with the original's fixed-capacity
// buffer; a Go slice never fails to grow, so this implementation never
// produces it, but the sticky-status field and NO_BUFFER/EMPTY/APPLY_FAIL
// behave exactly as specified.
type Status int

const (
	OK Status = iota
	Empty
	NoBuffer
	AllocFail
	ApplyFail
)

// Buffer is the per-profile append-only intent log. Buffer growth is
// handled by Go's slice append (doubling amortized capacity the same
// way the original's realloc-on-full strategy did); there is no
// separate allocation-failure path to model.
type Buffer struct {
	mu     sync.Mutex
	items  []Intent
	sticky Status
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Emit appends intent to the buffer. Never fails in this
// implementation (see Status doc above).
func (b *Buffer) Emit(i Intent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, i)
}

// Len reports the number of intents currently buffered.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Sticky returns the last sticky failure status, persisting until
// cleared by a successful ApplyIntents pass that empties the buffer.
func (b *Buffer) Sticky() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sticky
}

// ApplyIntents iterates up to maxBatch items from the head of the
// buffer, applies each through driver, and partitions results:
// successful items are dropped, failed items are compacted to the head
// for a later retry, and tail items beyond maxBatch are preserved
// untouched (spec §4.4). Returns the number successfully applied and
// the resulting status.
func (b *Buffer) ApplyIntents(ctx context.Context, driver storage.Driver, maxBatch int) (int, Status) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if driver == nil {
		return 0, NoBuffer
	}
	if len(b.items) == 0 {
		return 0, Empty
	}

	n := maxBatch
	if n > len(b.items) {
		n = len(b.items)
	}
	head := b.items[:n]
	tail := b.items[n:]

	var retry []Intent
	applied := 0
	anyFailed := false
	for _, intent := range head {
		if ok := applyOne(ctx, driver, intent); ok {
			applied++
			continue
		}
		retry = append(retry, intent)
		anyFailed = true
	}

	b.items = append(retry, tail...)
	if anyFailed {
		b.sticky = ApplyFail
		return applied, ApplyFail
	}
	if len(b.items) == 0 {
		b.sticky = OK
	}
	return applied, OK
}

// applyOne dispatches a single intent to its driver method, resolving
// the not-found-is-satisfied rule for intents that need a session id
// (spec §4.4 penultimate paragraph): if the token lookup comes back
// NOT_FOUND, the intent is dropped as satisfied rather than retried.
func applyOne(ctx context.Context, driver storage.Driver, intent Intent) bool {
	if token, needs := needsSessionLookup(intent); needs {
		if _, status := driver.GetSessionByToken(ctx, token); status == storage.NotFound {
			return true
		}
	}

	var status storage.Status
	switch v := intent.(type) {
	case UpdateBoard:
		status = driver.UpdateBoard(ctx, v.BoardID, v.FEN, v.Status)
	case CreateBoard:
		status = driver.CreateBoard(ctx, v.BoardID, v.FEN, v.Status)
	case UpdateBoardAssignmentTime:
		status = driver.UpdateBoardAssignmentTime(ctx, v.BoardID)
	case CreateReservation:
		status = driver.CreateReservation(ctx, v.BoardID, v.Token, v.TimeoutSeconds)
	case RemoveReservation:
		status = driver.RemoveReservation(ctx, v.BoardID)
	case RecordGameResult:
		status = driver.RecordGameResult(ctx, v.BoardID, v.WinningSide)
	case UpdateSessionLastSeen:
		status = driver.UpdateSessionLastSeen(ctx, v.Token)
	case CreateSession:
		status = driver.CreateSession(ctx, v.Token, v.PlayerID)
	case LinkSessionToPubkey:
		status = driver.LinkSessionToPubkey(ctx, v.Token, v.PublicKey)
	case RecordPayout:
		status = driver.RecordPayout(ctx, v.BoardID, v.Token, v.Points)
	case RecordMove:
		status = driver.RecordMove(ctx, v.BoardID, v.Token, v.UCI, v.MoveNumber)
	default:
		return true
	}
	return status == storage.OK
}
