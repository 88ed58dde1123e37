package chess

// MoveInfo captures everything MakeMove mutates so UnmakeMove can
// restore the board to a bit-identical prior state. Saved by value
// before MakeMove runs (spec §4.3: "Rollback restores all mutated
// fields from a saved MoveInfo").
type MoveInfo struct {
	Move            Move
	Mover           PieceType
	MoverColor      Color
	Captured        PieceType
	CapturedSquare  Square // differs from Move.To for en-passant
	PrevCastling    CastleRights
	PrevEnPassant   Square
	PrevHalfmove    int
	PrevFullmove    int
	PrevTurn        Color
}

// MakeMove applies m to b in place and returns the info needed to
// unmake it. Caller must ensure m is at least pseudo-legal (from
// generation); MakeMove does not itself validate legality.
func MakeMove(b *Board, m Move) MoveInfo {
	mover, moverColor, _ := b.PieceAt(m.From)
	info := MoveInfo{
		Move:           m,
		Mover:          mover,
		MoverColor:     moverColor,
		Captured:       NoPiece,
		CapturedSquare: m.To,
		PrevCastling:   b.Castling,
		PrevEnPassant:  b.EnPassant,
		PrevHalfmove:   b.Halfmove,
		PrevFullmove:   b.Fullmove,
		PrevTurn:       b.Turn,
	}

	capSq := m.To
	if m.Flag == FlagEnPassant {
		dir := -8
		if moverColor == White {
			dir = 8
		}
		capSq = Square(int8(m.To) - int8(dir))
	}
	if capPT, capColor, ok := b.PieceAt(capSq); ok && capSq != m.From {
		info.Captured = capPT
		info.CapturedSquare = capSq
		b.Pieces[capColor][capPT] &^= sqBit(capSq)
	}

	b.Pieces[moverColor][mover] &^= sqBit(m.From)
	placed := mover
	if m.Promotion != NoPiece {
		placed = m.Promotion
	}
	b.Pieces[moverColor][placed] |= sqBit(m.To)

	if m.Flag == FlagCastleKingside || m.Flag == FlagCastleQueenside {
		rank := 0
		if moverColor == Black {
			rank = 7
		}
		var rookFrom, rookTo Square
		if m.Flag == FlagCastleKingside {
			rookFrom = SquareOf(7, rank)
			rookTo = SquareOf(5, rank)
		} else {
			rookFrom = SquareOf(0, rank)
			rookTo = SquareOf(3, rank)
		}
		b.Pieces[moverColor][Rook] &^= sqBit(rookFrom)
		b.Pieces[moverColor][Rook] |= sqBit(rookTo)
	}

	b.EnPassant = NoSquare
	if m.Flag == FlagDoublePush {
		dir := 8
		if moverColor == Black {
			dir = -8
		}
		b.EnPassant = Square(int8(m.From) + int8(dir))
	}

	b.Castling = updateCastlingRights(b.Castling, m.From, m.To, mover, info.Captured, info.CapturedSquare)

	if mover == Pawn || info.Captured != NoPiece {
		b.Halfmove = 0
	} else {
		b.Halfmove++
	}
	if moverColor == Black {
		b.Fullmove++
	}
	b.Turn = moverColor.Other()

	b.recomputeOcc()
	return info
}

// updateCastlingRights clears rights when a king or rook moves, or when
// a rook is captured on its home square, per spec §4.3.
func updateCastlingRights(rights CastleRights, from, to Square, mover, captured PieceType, capturedSq Square) CastleRights {
	if mover == King {
		if from == SquareOf(4, 0) {
			rights &^= WhiteKingside | WhiteQueenside
		} else if from == SquareOf(4, 7) {
			rights &^= BlackKingside | BlackQueenside
		}
	}
	clearForRookSquare := func(sq Square) {
		switch sq {
		case SquareOf(0, 0):
			rights &^= WhiteQueenside
		case SquareOf(7, 0):
			rights &^= WhiteKingside
		case SquareOf(0, 7):
			rights &^= BlackQueenside
		case SquareOf(7, 7):
			rights &^= BlackKingside
		}
	}
	if mover == Rook {
		clearForRookSquare(from)
	}
	if captured == Rook {
		clearForRookSquare(capturedSq)
	}
	_ = to
	return rights
}

// UnmakeMove restores b to the state it had before MakeMove produced
// info, bit-identically (spec §8 round-trip law).
func UnmakeMove(b *Board, info MoveInfo) {
	m := info.Move
	placed := info.Mover
	if m.Promotion != NoPiece {
		placed = m.Promotion
	}
	b.Pieces[info.MoverColor][placed] &^= sqBit(m.To)
	b.Pieces[info.MoverColor][info.Mover] |= sqBit(m.From)

	if info.Captured != NoPiece {
		capColor := info.MoverColor.Other()
		b.Pieces[capColor][info.Captured] |= sqBit(info.CapturedSquare)
	}

	if m.Flag == FlagCastleKingside || m.Flag == FlagCastleQueenside {
		rank := 0
		if info.MoverColor == Black {
			rank = 7
		}
		var rookFrom, rookTo Square
		if m.Flag == FlagCastleKingside {
			rookFrom = SquareOf(7, rank)
			rookTo = SquareOf(5, rank)
		} else {
			rookFrom = SquareOf(0, rank)
			rookTo = SquareOf(3, rank)
		}
		b.Pieces[info.MoverColor][Rook] &^= sqBit(rookTo)
		b.Pieces[info.MoverColor][Rook] |= sqBit(rookFrom)
	}

	b.Castling = info.PrevCastling
	b.EnPassant = info.PrevEnPassant
	b.Halfmove = info.PrevHalfmove
	b.Fullmove = info.PrevFullmove
	b.Turn = info.PrevTurn
	b.recomputeOcc()
}
