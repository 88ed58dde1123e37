// Package board implements the board lifecycle state machine
// (DORMANT -> RESERVED -> ACTIVE -> ARCHIVED), per-side reservation,
// auto-scaling board pool, and fair player-to-side assignment
// (spec §4.2), plus the scoring/payout split at archival (spec §8's
// scoring scenario).
package board

import (
	"time"

	"github.com/Fsmount/wamble/internal/chess"
	"github.com/Fsmount/wamble/internal/player"
)

// State is one of the four lifecycle states from spec §3.
type State uint8

const (
	Dormant State = iota
	Reserved
	Active
	Archived
)

func (s State) String() string {
	switch s {
	case Dormant:
		return "dormant"
	case Reserved:
		return "reserved"
	case Active:
		return "active"
	case Archived:
		return "archived"
	default:
		return "unknown"
	}
}

// Reservation is the exclusive, time-limited claim on one side of one
// board, valid only while the owning Board is in state Reserved.
type Reservation struct {
	Token       player.Token
	Side        chess.Color
	ReservedAt  time.Time
}

// Contribution tracks one player's move count on one side, used to
// compute the proportional payout at archival (spec §8 scoring
// scenario).
type Contribution struct {
	Token     player.Token
	Side      chess.Color
	MoveCount int
}

// Board is one chess game in the shared pool. Invariants (spec §3):
// State == Reserved <=> Reservation != nil && Result == InProgress;
// State == Archived => Result != InProgress; Active/Dormant => no
// reservation.
type Board struct {
	ID                 uint64
	Pos                *chess.Board
	State              State
	Reservation        *Reservation
	Result             chess.Result
	LastMoveTime       time.Time
	LastAssignmentTime time.Time
	Contributions       []Contribution
	MoveCount          int
}

// NewBoard creates a fresh DORMANT board at the starting position.
func NewBoard(id uint64, now time.Time) *Board {
	return &Board{
		ID:                 id,
		Pos:                chess.NewStartingBoard(),
		State:              Dormant,
		Result:             chess.InProgress,
		LastMoveTime:       now,
		LastAssignmentTime: now,
	}
}

// reserve transitions b into Reserved for tok on side, from Dormant or
// Active, stamping the reservation time (the "find_for_player matches
// side" transition in spec §4.2's table).
func (b *Board) reserve(tok player.Token, side chess.Color, now time.Time) {
	b.State = Reserved
	b.Reservation = &Reservation{Token: tok, Side: side, ReservedAt: now}
	b.LastAssignmentTime = now
}

// ReleaseAfterMove transitions RESERVED -> ACTIVE, clearing the
// reservation and stamping last_move_time. This is the "release after
// move" semantic named in spec §9's open question, used once a move
// has actually been applied.
func (b *Board) ReleaseAfterMove(now time.Time) {
	b.State = Active
	b.Reservation = nil
	b.LastMoveTime = now
}

// CancelReservation transitions RESERVED -> DORMANT without a move
// having been applied: the "cancel reservation" semantic from spec
// §9's open question, used by the reservation-timeout tick transition
// and by Pool.CancelReservation.
func (b *Board) CancelReservation() {
	b.State = Dormant
	b.Reservation = nil
}

// recordContribution tracks a move by tok on side for payout
// computation at archival.
func (b *Board) recordContribution(tok player.Token, side chess.Color) {
	for i := range b.Contributions {
		if b.Contributions[i].Token == tok && b.Contributions[i].Side == side {
			b.Contributions[i].MoveCount++
			return
		}
	}
	b.Contributions = append(b.Contributions, Contribution{Token: tok, Side: side, MoveCount: 1})
}

// archive transitions any non-archived board whose result has become
// terminal into ARCHIVED (spec §4.2's "game ended" transition), the
// trigger point for payout distribution.
func (b *Board) archive() {
	b.State = Archived
}
