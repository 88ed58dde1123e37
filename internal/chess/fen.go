package chess

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadFEN = errors.New("chess: malformed fen")

var pieceLetters = map[byte]PieceType{
	'p': Pawn, 'n': Knight, 'b': Bishop, 'r': Rook, 'q': Queen, 'k': King,
}

// ParseFEN parses a Forsyth-Edwards position string into a Board.
func ParseFEN(fen string) (*Board, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, ErrBadFEN
	}
	b := &Board{EnPassant: NoSquare}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, ErrBadFEN
	}
	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for _, ch := range []byte(rankStr) {
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pt, ok := pieceLetters[lower(ch)]
			if !ok || file > 7 {
				return nil, ErrBadFEN
			}
			color := White
			if ch >= 'a' && ch <= 'z' {
				color = Black
			}
			b.Pieces[color][pt] |= sqBit(SquareOf(file, rank))
			file++
		}
		if file != 8 {
			return nil, ErrBadFEN
		}
	}
	b.recomputeOcc()

	switch fields[1] {
	case "w":
		b.Turn = White
	case "b":
		b.Turn = Black
	default:
		return nil, ErrBadFEN
	}

	for _, ch := range fields[2] {
		switch ch {
		case 'K':
			b.Castling |= WhiteKingside
		case 'Q':
			b.Castling |= WhiteQueenside
		case 'k':
			b.Castling |= BlackKingside
		case 'q':
			b.Castling |= BlackQueenside
		case '-':
		default:
			return nil, ErrBadFEN
		}
	}

	if fields[3] == "-" {
		b.EnPassant = NoSquare
	} else {
		sq, ok := ParseSquare(fields[3])
		if !ok {
			return nil, ErrBadFEN
		}
		b.EnPassant = sq
	}

	b.Halfmove = 0
	b.Fullmove = 1
	if len(fields) >= 5 {
		n, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, ErrBadFEN
		}
		b.Halfmove = n
	}
	if len(fields) >= 6 {
		n, err := strconv.Atoi(fields[5])
		if err != nil {
			return nil, ErrBadFEN
		}
		b.Fullmove = n
	}
	return b, nil
}

func lower(ch byte) byte {
	if ch >= 'A' && ch <= 'Z' {
		return ch + ('a' - 'A')
	}
	return ch
}

var pieceSymbol = map[PieceType]byte{
	Pawn: 'p', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q', King: 'k',
}

// FEN renders b back to Forsyth-Edwards notation.
func (b *Board) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			sq := SquareOf(file, rank)
			pt, color, ok := b.PieceAt(sq)
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			ch := pieceSymbol[pt]
			if color == White {
				ch -= 'a' - 'A'
			}
			sb.WriteByte(ch)
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	turn := "w"
	if b.Turn == Black {
		turn = "b"
	}

	ep := "-"
	if b.EnPassant != NoSquare {
		ep = b.EnPassant.String()
	}

	return fmt.Sprintf("%s %s %s %s %d %d", sb.String(), turn, b.Castling.String(), ep, b.Halfmove, b.Fullmove)
}
