package board

import (
	"time"

	"github.com/Fsmount/wamble/internal/chess"
	"github.com/Fsmount/wamble/internal/player"
)

// ApplyMove is the board-layer half of spec §4.3's validate_and_apply:
// it enforces reservation ownership and turn ownership (NOT_RESERVED,
// NOT_TURN), then defers to chess.ValidateAndApply for UCI parsing and
// legality (BAD_UCI, ILLEGAL). On success the board transitions
// RESERVED -> ACTIVE (ReleaseAfterMove), records the contribution for
// payout, and updates Result.
func (b *Board) ApplyMove(tok player.Token, uci string, now time.Time) (chess.Move, error) {
	if b.State != Reserved || b.Reservation == nil || b.Reservation.Token != tok {
		return chess.Move{}, ErrNotReserved
	}
	if b.Reservation.Side != b.Pos.Turn {
		return chess.Move{}, ErrNotTurn
	}

	mover := b.Reservation.Side
	move, result, err := chess.ValidateAndApply(b.Pos, uci)
	if err != nil {
		return chess.Move{}, err
	}

	b.recordContribution(tok, mover)
	b.MoveCount++
	b.Result = result
	b.ReleaseAfterMove(now)

	if result != chess.InProgress {
		b.archive()
	}
	return move, nil
}
