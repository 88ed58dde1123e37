// Package handler implements the control-code dispatch table (spec
// §4.5's handler inventory): one function per Ctrl, wired to the
// board pool, player registry, spectator manager, and persistence
// buffer. Payload encoding follows the teacher's bytes.Buffer +
// encoding/binary convention from networking/shared/messages.go,
// generalized to this protocol's fixed field layouts.
package handler

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/Fsmount/wamble/internal/storage"
)

var errShortPayload = errors.New("handler: payload shorter than expected")

// encodePlayerStats builds a PLAYER_STATS_DATA payload.
func encodePlayerStats(score float64, gamesPlayed uint32, rating float64) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, score)
	binary.Write(&buf, binary.BigEndian, gamesPlayed)
	binary.Write(&buf, binary.BigEndian, rating)
	return buf.Bytes()
}

const maxLeaderboardEntries = 32

// encodeLeaderboard builds a LEADERBOARD_DATA payload, capping rows at
// maxLeaderboardEntries per spec's original_source-derived bound.
func encodeLeaderboard(byRating bool, selfRank int32, rows []storage.LeaderboardRow) []byte {
	if len(rows) > maxLeaderboardEntries {
		rows = rows[:maxLeaderboardEntries]
	}
	var buf bytes.Buffer
	lbType := uint8(0)
	if byRating {
		lbType = 1
	}
	buf.WriteByte(lbType)
	binary.Write(&buf, binary.BigEndian, selfRank)
	buf.WriteByte(uint8(len(rows)))
	for _, r := range rows {
		binary.Write(&buf, binary.BigEndian, r.Rank)
		binary.Write(&buf, binary.BigEndian, tokenToSessionID(r.Token))
		binary.Write(&buf, binary.BigEndian, r.Score)
		binary.Write(&buf, binary.BigEndian, r.Rating)
		binary.Write(&buf, binary.BigEndian, r.GamesPlayed)
	}
	return buf.Bytes()
}

// tokenToSessionID derives the wire session_id from a 16-byte token's
// leading 8 bytes; the durable session identity is the token itself,
// this is only the compact numeric form the LEADERBOARD_DATA row uses.
func tokenToSessionID(tok [16]byte) uint64 {
	return binary.BigEndian.Uint64(tok[:8])
}

// legalMoveEntry is one {from, to, promotion} row in a LEGAL_MOVES payload.
type legalMoveEntry struct {
	From, To  uint8
	Promotion int8
}

const maxLegalMoveEntries = 64

func encodeLegalMoves(square uint8, entries []legalMoveEntry) []byte {
	if len(entries) > maxLegalMoveEntries {
		entries = entries[:maxLegalMoveEntries]
	}
	var buf bytes.Buffer
	buf.WriteByte(square)
	buf.WriteByte(uint8(len(entries)))
	for _, e := range entries {
		buf.WriteByte(e.From)
		buf.WriteByte(e.To)
		buf.WriteByte(byte(e.Promotion))
	}
	return buf.Bytes()
}

// decodeGetLegalMoves reads the requested square from a
// GET_LEGAL_MOVES payload.
func decodeGetLegalMoves(payload []byte) (uint8, error) {
	if len(payload) < 1 {
		return 0, errShortPayload
	}
	return payload[0], nil
}

// decodeGetLeaderboard reads (byRating, limit) from a GET_LEADERBOARD payload.
func decodeGetLeaderboard(payload []byte) (bool, int, error) {
	if len(payload) < 2 {
		return false, 0, errShortPayload
	}
	return payload[0] != 0, int(payload[1]), nil
}
