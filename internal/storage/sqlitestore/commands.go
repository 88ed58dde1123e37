package sqlitestore

import (
	"context"

	"github.com/Fsmount/wamble/internal/storage"
)

func (d *Driver) exec(ctx context.Context, query string, args ...interface{}) storage.Status {
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return storage.Error
	}
	return storage.OK
}

func (d *Driver) UpdateBoard(ctx context.Context, boardID uint64, fen, status string) storage.Status {
	return d.exec(ctx, `UPDATE boards SET fen = ?, status = ? WHERE board_id = ?`, fen, status, boardID)
}

func (d *Driver) CreateBoard(ctx context.Context, boardID uint64, fen, status string) storage.Status {
	return d.exec(ctx,
		`INSERT INTO boards(board_id, fen, status) VALUES(?, ?, ?)
		 ON CONFLICT(board_id) DO UPDATE SET fen = excluded.fen, status = excluded.status`,
		boardID, fen, status)
}

func (d *Driver) UpdateBoardAssignmentTime(ctx context.Context, boardID uint64) storage.Status {
	return d.exec(ctx, `UPDATE boards SET last_assignment_time = unixepoch() WHERE board_id = ?`, boardID)
}

func (d *Driver) CreateReservation(ctx context.Context, boardID uint64, token [16]byte, timeoutSeconds int) storage.Status {
	return d.exec(ctx,
		`INSERT INTO reservations(board_id, token, timeout_seconds) VALUES(?, ?, ?)
		 ON CONFLICT(board_id) DO UPDATE SET token = excluded.token, timeout_seconds = excluded.timeout_seconds, created_at = unixepoch()`,
		boardID, token[:], timeoutSeconds)
}

func (d *Driver) RemoveReservation(ctx context.Context, boardID uint64) storage.Status {
	return d.exec(ctx, `DELETE FROM reservations WHERE board_id = ?`, boardID)
}

func (d *Driver) RecordGameResult(ctx context.Context, boardID uint64, winningSide string) storage.Status {
	return d.exec(ctx,
		`INSERT INTO game_results(board_id, winning_side) VALUES(?, ?)
		 ON CONFLICT(board_id) DO UPDATE SET winning_side = excluded.winning_side`,
		boardID, winningSide)
}

func (d *Driver) UpdateSessionLastSeen(ctx context.Context, token [16]byte) storage.Status {
	return d.exec(ctx, `UPDATE sessions SET last_seen = unixepoch() WHERE token = ?`, token[:])
}

func (d *Driver) CreateSession(ctx context.Context, token [16]byte, playerID int64) storage.Status {
	return d.exec(ctx,
		`INSERT INTO sessions(token, player_id) VALUES(?, ?) ON CONFLICT(token) DO NOTHING`,
		token[:], playerID)
}

func (d *Driver) LinkSessionToPubkey(ctx context.Context, token [16]byte, publicKey []byte) storage.Status {
	return d.exec(ctx,
		`UPDATE sessions SET public_key = ?, persistent = 1 WHERE token = ?`,
		publicKey, token[:])
}

func (d *Driver) RecordPayout(ctx context.Context, boardID uint64, token [16]byte, points float64) storage.Status {
	return d.exec(ctx,
		`INSERT INTO payouts(board_id, token, points) VALUES(?, ?, ?)`,
		boardID, token[:], points)
}

func (d *Driver) RecordMove(ctx context.Context, boardID uint64, token [16]byte, uci string, moveNumber int) storage.Status {
	return d.exec(ctx,
		`INSERT INTO moves(board_id, token, uci, move_number) VALUES(?, ?, ?, ?)`,
		boardID, token[:], uci, moveNumber)
}
