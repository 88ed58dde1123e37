package sqlitestore

import (
	"context"
	"database/sql"

	"github.com/Fsmount/wamble/internal/storage"
)

func statusFor(err error) storage.Status {
	switch {
	case err == nil:
		return storage.OK
	case err == sql.ErrNoRows:
		return storage.NotFound
	default:
		return storage.Error
	}
}

func (d *Driver) sessionByQuery(ctx context.Context, query string, token [16]byte) (storage.Session, storage.Status) {
	var s storage.Session
	var persistent int
	err := d.db.QueryRowContext(ctx, query, token[:]).Scan(
		&s.PlayerID, &s.PublicKey, &persistent, &s.GamesPlayed, &s.TrustTier,
	)
	if err != nil {
		return storage.Session{}, statusFor(err)
	}
	s.Token = token
	s.Persistent = persistent != 0
	return s, storage.OK
}

func (d *Driver) GetSessionByToken(ctx context.Context, token [16]byte) (storage.Session, storage.Status) {
	return d.sessionByQuery(ctx,
		`SELECT player_id, public_key, persistent, games_played, trust_tier FROM sessions WHERE token = ?`,
		token)
}

func (d *Driver) GetPersistentSessionByToken(ctx context.Context, token [16]byte) (storage.Session, storage.Status) {
	return d.sessionByQuery(ctx,
		`SELECT player_id, public_key, persistent, games_played, trust_tier FROM sessions WHERE token = ? AND persistent = 1`,
		token)
}

func (d *Driver) GetBoard(ctx context.Context, boardID uint64) (storage.BoardRow, storage.Status) {
	var row storage.BoardRow
	row.BoardID = boardID
	err := d.db.QueryRowContext(ctx, `SELECT fen, status FROM boards WHERE board_id = ?`, boardID).
		Scan(&row.FEN, &row.Status)
	if err != nil {
		return storage.BoardRow{}, statusFor(err)
	}
	return row, storage.OK
}

func (d *Driver) ListBoardsByStatus(ctx context.Context, status string) ([]storage.BoardRow, storage.Status) {
	rows, err := d.db.QueryContext(ctx, `SELECT board_id, fen, status FROM boards WHERE status = ?`, status)
	if err != nil {
		return nil, storage.Error
	}
	defer rows.Close()
	var out []storage.BoardRow
	for rows.Next() {
		var r storage.BoardRow
		if err := rows.Scan(&r.BoardID, &r.FEN, &r.Status); err != nil {
			return nil, storage.Error
		}
		out = append(out, r)
	}
	return out, storage.OK
}

func (d *Driver) GetMaxBoardID(ctx context.Context) (uint64, storage.Status) {
	var id sql.NullInt64
	err := d.db.QueryRowContext(ctx, `SELECT MAX(board_id) FROM boards`).Scan(&id)
	if err != nil {
		return 0, storage.Error
	}
	if !id.Valid {
		return 0, storage.NotFound
	}
	return uint64(id.Int64), storage.OK
}

func (d *Driver) GetMovesForBoard(ctx context.Context, boardID uint64) ([]storage.MoveRow, storage.Status) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT board_id, token, uci, move_number FROM moves WHERE board_id = ? ORDER BY move_number`, boardID)
	if err != nil {
		return nil, storage.Error
	}
	defer rows.Close()
	var out []storage.MoveRow
	for rows.Next() {
		var r storage.MoveRow
		var tok []byte
		if err := rows.Scan(&r.BoardID, &tok, &r.UCI, &r.MoveNum); err != nil {
			return nil, storage.Error
		}
		copy(r.Token[:], tok)
		out = append(out, r)
	}
	return out, storage.OK
}

func (d *Driver) GetLongestGameMoves(ctx context.Context) (int, storage.Status) {
	var n sql.NullInt64
	err := d.db.QueryRowContext(ctx, `SELECT MAX(move_number) FROM moves`).Scan(&n)
	if err != nil {
		return 0, storage.Error
	}
	if !n.Valid {
		return 0, storage.NotFound
	}
	return int(n.Int64), storage.OK
}

func (d *Driver) GetActiveSessionCount(ctx context.Context) (int, storage.Status) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE last_seen > unixepoch() - 3600`).Scan(&n)
	if err != nil {
		return 0, storage.Error
	}
	return n, storage.OK
}

func (d *Driver) GetPlayerTotalScore(ctx context.Context, token [16]byte) (float64, storage.Status) {
	var score float64
	err := d.db.QueryRowContext(ctx, `SELECT score FROM sessions WHERE token = ?`, token[:]).Scan(&score)
	if err != nil {
		return 0, statusFor(err)
	}
	return score, storage.OK
}

func (d *Driver) GetPlayerRating(ctx context.Context, token [16]byte) (float64, storage.Status) {
	var rating float64
	err := d.db.QueryRowContext(ctx, `SELECT rating FROM sessions WHERE token = ?`, token[:]).Scan(&rating)
	if err != nil {
		return 0, statusFor(err)
	}
	return rating, storage.OK
}

func (d *Driver) GetSessionGamesPlayed(ctx context.Context, token [16]byte) (int, storage.Status) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT games_played FROM sessions WHERE token = ?`, token[:]).Scan(&n)
	if err != nil {
		return 0, statusFor(err)
	}
	return n, storage.OK
}

func (d *Driver) GetTrustTierByToken(ctx context.Context, token [16]byte) (int, storage.Status) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT trust_tier FROM sessions WHERE token = ?`, token[:]).Scan(&n)
	if err != nil {
		return 0, statusFor(err)
	}
	return n, storage.OK
}

func (d *Driver) GetLeaderboard(ctx context.Context, byRating bool, limit int) ([]storage.LeaderboardRow, storage.Status) {
	column := "score"
	if byRating {
		column = "rating"
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT token, score, rating, games_played,
		        RANK() OVER (ORDER BY `+column+` DESC) AS rnk
		 FROM sessions ORDER BY `+column+` DESC LIMIT ?`, limit)
	if err != nil {
		return nil, storage.Error
	}
	defer rows.Close()
	var out []storage.LeaderboardRow
	for rows.Next() {
		var r storage.LeaderboardRow
		var tok []byte
		if err := rows.Scan(&tok, &r.Score, &r.Rating, &r.GamesPlayed, &r.Rank); err != nil {
			return nil, storage.Error
		}
		copy(r.Token[:], tok)
		out = append(out, r)
	}
	return out, storage.OK
}
