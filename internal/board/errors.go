package board

import "errors"

// Errors returned by Board.ApplyMove and Pool.FindForPlayer, mirroring
// the named failure cases in spec §4.3's validate_and_apply and
// §4.2's assignment algorithm. Handlers translate these into
// errcode.Code values for ERROR frames.
var (
	ErrNotReserved = errors.New("board: not reserved for this player")
	ErrNotTurn     = errors.New("board: not this player's reserved side's turn")
	ErrPoolFull    = errors.New("board: pool at max_boards and no board available")
)
