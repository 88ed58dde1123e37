package profile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"time"

	"github.com/Fsmount/wamble/internal/board"
	"github.com/Fsmount/wamble/internal/chess"
)

// snapshotMagic and snapshotVersion identify the state-snapshot file
// format used across a hot reload (spec §6).
var snapshotMagic = [8]byte{'W', 'M', 'B', 'L', 'S', 'T', '0', '1'}

const snapshotVersion = 1

var (
	ErrBadMagic   = errors.New("profile: snapshot has wrong magic")
	ErrBadVersion = errors.New("profile: unsupported snapshot version")
)

// boardRecordSize is sizeof(Board) on the wire: id(8) + state(1) +
// turn(1) + castling(1) + en_passant(1) + halfmove(4) + fullmove(4) +
// pieces (2 colors x 7 bitboards x 8 bytes).
const boardRecordSize = 8 + 1 + 1 + 1 + 1 + 4 + 4 + 2*7*8

// WriteSnapshot serializes every live board in the pool to path in the
// WMBLST01 layout: magic, version, count, next_id, then count fixed
// records.
func (r *Runtime) WriteSnapshot(path string) error {
	boards := r.Pool.Snapshot()
	var buf bytes.Buffer
	buf.Write(snapshotMagic[:])
	binary.Write(&buf, binary.BigEndian, uint32(snapshotVersion))
	binary.Write(&buf, binary.BigEndian, uint32(len(boards)))
	binary.Write(&buf, binary.BigEndian, r.Pool.NextIDHint())
	for _, b := range boards {
		writeBoardRecord(&buf, b)
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func writeBoardRecord(buf *bytes.Buffer, b *board.Board) {
	binary.Write(buf, binary.BigEndian, b.ID)
	buf.WriteByte(byte(b.State))
	buf.WriteByte(byte(b.Pos.Turn))
	buf.WriteByte(byte(b.Pos.Castling))
	buf.WriteByte(byte(b.Pos.EnPassant))
	binary.Write(buf, binary.BigEndian, uint32(b.Pos.Halfmove))
	binary.Write(buf, binary.BigEndian, uint32(b.Pos.Fullmove))
	for c := 0; c < 2; c++ {
		for pt := 0; pt < 7; pt++ {
			binary.Write(buf, binary.BigEndian, b.Pos.Pieces[c][pt])
		}
	}
}

// ReadSnapshot decodes a file written by WriteSnapshot and returns its
// boards and next_id for the caller to restore into a pool, the
// hot-reload resume path from spec §4.5.
func ReadSnapshot(path string) ([]*board.Board, uint64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	if len(raw) < 24 {
		return nil, 0, ErrBadMagic
	}
	if !bytes.Equal(raw[0:8], snapshotMagic[:]) {
		return nil, 0, ErrBadMagic
	}
	version := binary.BigEndian.Uint32(raw[8:12])
	if version != snapshotVersion {
		return nil, 0, ErrBadVersion
	}
	count := binary.BigEndian.Uint32(raw[12:16])
	nextID := binary.BigEndian.Uint64(raw[16:24])

	boards := make([]*board.Board, 0, count)
	off := 24
	for i := uint32(0); i < count; i++ {
		if off+boardRecordSize > len(raw) {
			return nil, 0, errors.New("profile: truncated snapshot")
		}
		b := readBoardRecord(raw[off : off+boardRecordSize])
		boards = append(boards, b)
		off += boardRecordSize
	}
	return boards, nextID, nil
}

func readBoardRecord(rec []byte) *board.Board {
	now := time.Now()
	b := board.NewBoard(binary.BigEndian.Uint64(rec[0:8]), now)
	b.State = board.State(rec[8])
	b.Pos.Turn = chess.Color(rec[9])
	b.Pos.Castling = chess.CastleRights(rec[10])
	b.Pos.EnPassant = chess.Square(rec[11])
	b.Pos.Halfmove = int(binary.BigEndian.Uint32(rec[12:16]))
	b.Pos.Fullmove = int(binary.BigEndian.Uint32(rec[16:20]))
	off := 20
	for c := 0; c < 2; c++ {
		for pt := 0; pt < 7; pt++ {
			b.Pos.Pieces[c][pt] = binary.BigEndian.Uint64(rec[off : off+8])
			off += 8
		}
	}
	b.Pos.RecomputeOcc()
	return b
}
