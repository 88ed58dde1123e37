package chess

// DetectResult recomputes the game result after a move has been
// applied to b, per spec §4.3's termination detection: checkmate if
// the side to move has no legal moves and is in check, stalemate (draw)
// if it has none and isn't, draw by the 50-move rule if the halfmove
// clock has reached 100. Threefold repetition and insufficient material
// are explicitly not required (spec §4.3, Non-goals).
func DetectResult(b *Board) Result {
	if len(GenerateLegalMoves(b)) > 0 {
		if b.Halfmove >= 100 {
			return Draw
		}
		return InProgress
	}
	if InCheck(b, b.Turn) {
		if b.Turn == White {
			return BlackWins
		}
		return WhiteWins
	}
	return Draw
}

// Outcome errors mirroring spec §4.3's named failure cases. Handlers
// translate these into errcode.Code values for ERROR frames.
// ValidateAndApply returns ErrBadMove (and ErrBadUCI for malformed
// input); it does not return ErrNotTurn.
type OutcomeError string

func (e OutcomeError) Error() string { return string(e) }

const (
	ErrNotTurn OutcomeError = "not this side's turn"
	ErrBadMove OutcomeError = "illegal move"
)

// ValidateAndApply checks that uci names a pseudo-legal-turn, FEN-legal
// move for b.Turn and, if so, applies it, updating result. Reservation
// and token ownership (NOT_RESERVED) are the board package's concern,
// not this package's — this function only knows about position legality
// and whose turn it is, matching the layering the spec's §4.3 and §4.2
// draw between the move engine and the lifecycle engine.
func ValidateAndApply(b *Board, uci string) (Move, Result, error) {
	m, err := ParseUCI(uci)
	if err != nil {
		return Move{}, InProgress, ErrBadUCI
	}
	legal := GenerateLegalMoves(b)
	var matched *Move
	for i := range legal {
		if legal[i].Equal(m) {
			matched = &legal[i]
			break
		}
	}
	if matched == nil {
		return Move{}, InProgress, ErrBadMove
	}
	MakeMove(b, *matched)
	result := DetectResult(b)
	return *matched, result, nil
}
