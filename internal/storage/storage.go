// Package storage defines the interface the core consumes for durable
// state, per spec §6: the SQL schema and database driver are external
// collaborators out of scope for this repository's specification, so
// the core depends only on these two interfaces. internal/storage/sqlitestore
// supplies one concrete implementation so the binary can run standalone.
package storage

import "context"

// Status is the three-way result every query returns, mirroring the
// original's {status, data} query contract instead of Go's usual
// (value, error) pair, because NOT_FOUND is a normal, expected outcome
// many callers branch on explicitly (spec §4.4's "satisfied rather than
// failed" rule depends on distinguishing NOT_FOUND from ERROR).
type Status int

const (
	OK Status = iota
	NotFound
	Error
)

// Session is the durable row backing a client session / player link.
type Session struct {
	Token       [16]byte
	PlayerID    int64
	PublicKey   []byte
	Persistent  bool
	GamesPlayed int
	TrustTier   int
}

// BoardRow is the durable board representation queried by id or status.
type BoardRow struct {
	BoardID uint64
	FEN     string
	Status  string
}

// MoveRow is one durable move record.
type MoveRow struct {
	BoardID   uint64
	Token     [16]byte
	UCI       string
	MoveNum   int
}

// Queries is the read side of the storage driver contract (spec §6).
type Queries interface {
	GetSessionByToken(ctx context.Context, token [16]byte) (Session, Status)
	GetPersistentSessionByToken(ctx context.Context, token [16]byte) (Session, Status)
	GetBoard(ctx context.Context, boardID uint64) (BoardRow, Status)
	ListBoardsByStatus(ctx context.Context, status string) ([]BoardRow, Status)
	GetMaxBoardID(ctx context.Context) (uint64, Status)
	GetMovesForBoard(ctx context.Context, boardID uint64) ([]MoveRow, Status)
	GetLongestGameMoves(ctx context.Context) (int, Status)
	GetActiveSessionCount(ctx context.Context) (int, Status)
	GetPlayerTotalScore(ctx context.Context, token [16]byte) (float64, Status)
	GetPlayerRating(ctx context.Context, token [16]byte) (float64, Status)
	GetSessionGamesPlayed(ctx context.Context, token [16]byte) (int, Status)
	GetTrustTierByToken(ctx context.Context, token [16]byte) (int, Status)
	GetLeaderboard(ctx context.Context, byRating bool, limit int) ([]LeaderboardRow, Status)
}

// LeaderboardRow is one ranked entry for GET_LEADERBOARD/LEADERBOARD_DATA.
type LeaderboardRow struct {
	Rank        uint32
	Token       [16]byte
	Score       float64
	Rating      float64
	GamesPlayed uint32
}

// Commands is the write side of the storage driver contract: one
// method per persistence intent variant in spec §4.4.
type Commands interface {
	UpdateBoard(ctx context.Context, boardID uint64, fen, status string) Status
	CreateBoard(ctx context.Context, boardID uint64, fen, status string) Status
	UpdateBoardAssignmentTime(ctx context.Context, boardID uint64) Status
	CreateReservation(ctx context.Context, boardID uint64, token [16]byte, timeoutSeconds int) Status
	RemoveReservation(ctx context.Context, boardID uint64) Status
	RecordGameResult(ctx context.Context, boardID uint64, winningSide string) Status
	UpdateSessionLastSeen(ctx context.Context, token [16]byte) Status
	CreateSession(ctx context.Context, token [16]byte, playerID int64) Status
	LinkSessionToPubkey(ctx context.Context, token [16]byte, publicKey []byte) Status
	RecordPayout(ctx context.Context, boardID uint64, token [16]byte, points float64) Status
	RecordMove(ctx context.Context, boardID uint64, token [16]byte, uci string, moveNumber int) Status
}

// Driver composes the full contract a profile's configured backend
// must satisfy.
type Driver interface {
	Queries
	Commands
	Close() error
}
