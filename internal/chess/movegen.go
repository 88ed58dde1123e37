package chess

// IsSquareAttacked reports whether sq is attacked by any piece of
// color by (spec §4.3: "union of enemy pawn, knight, bishop/queen
// (diagonal), rook/queen (orthogonal), and king attacks against the
// square").
func IsSquareAttacked(b *Board, sq Square, by Color) bool {
	if pawnAttacks(sq, by.Other())&b.Pieces[by][Pawn] != 0 {
		return true
	}
	if knightAttacks[sq]&b.Pieces[by][Knight] != 0 {
		return true
	}
	diag := b.Pieces[by][Bishop] | b.Pieces[by][Queen]
	if bishopAttacks(sq, b.All)&diag != 0 {
		return true
	}
	ortho := b.Pieces[by][Rook] | b.Pieces[by][Queen]
	if rookAttacks(sq, b.All)&ortho != 0 {
		return true
	}
	if kingAttacks[sq]&b.Pieces[by][King] != 0 {
		return true
	}
	return false
}

// InCheck reports whether c's king is currently attacked.
func InCheck(b *Board, c Color) bool {
	king := b.KingSquare(c)
	if king == NoSquare {
		return false
	}
	return IsSquareAttacked(b, king, c.Other())
}

var promoPieces = [4]PieceType{Queen, Rook, Bishop, Knight}

// generatePseudoLegalMoves enumerates all moves for b.Turn without
// checking whether the mover's own king ends in check.
func generatePseudoLegalMoves(b *Board) []Move {
	var moves []Move
	c := b.Turn
	own := b.Occ[c]
	enemy := b.Occ[c.Other()]

	// Pawns.
	pawns := b.Pieces[c][Pawn]
	for pawns != 0 {
		idx, rest := popLSB(pawns)
		pawns = rest
		sq := Square(idx)
		moves = append(moves, generatePawnMoves(b, sq, c, own, enemy)...)
	}

	// Knights.
	knights := b.Pieces[c][Knight]
	for knights != 0 {
		idx, rest := popLSB(knights)
		knights = rest
		sq := Square(idx)
		targets := knightAttacks[sq] &^ own
		moves = append(moves, expandTargets(sq, targets)...)
	}

	// Bishops, rooks, queens.
	sliders := [3]struct {
		pt PieceType
		fn func(Square, uint64) uint64
	}{
		{Bishop, bishopAttacks},
		{Rook, rookAttacks},
		{Queen, queenAttacks},
	}
	for _, s := range sliders {
		bb := b.Pieces[c][s.pt]
		for bb != 0 {
			idx, rest := popLSB(bb)
			bb = rest
			sq := Square(idx)
			targets := s.fn(sq, b.All) &^ own
			moves = append(moves, expandTargets(sq, targets)...)
		}
	}

	// King (non-castling).
	if b.Pieces[c][King] != 0 {
		kingSq := Square(trailingZeros(b.Pieces[c][King]))
		targets := kingAttacks[kingSq] &^ own
		moves = append(moves, expandTargets(kingSq, targets)...)
		moves = append(moves, generateCastling(b, c)...)
	}

	return moves
}

func expandTargets(from Square, targets uint64) []Move {
	var moves []Move
	for targets != 0 {
		idx, rest := popLSB(targets)
		targets = rest
		moves = append(moves, Move{From: from, To: Square(idx)})
	}
	return moves
}

func generatePawnMoves(b *Board, sq Square, c Color, own, enemy uint64) []Move {
	var moves []Move
	f, r := sq.File(), sq.Rank()
	dir, startRank, promoRank := 1, 1, 7
	if c == Black {
		dir, startRank, promoRank = -1, 6, 0
	}

	emit := func(to Square, flag MoveFlag) {
		if to.Rank() == promoRank {
			for _, pt := range promoPieces {
				moves = append(moves, Move{From: sq, To: to, Promotion: pt, Flag: flag})
			}
			return
		}
		moves = append(moves, Move{From: sq, To: to, Flag: flag})
	}

	oneRank := r + dir
	if oneRank >= 0 && oneRank < 8 {
		oneSq := SquareOf(f, oneRank)
		if b.All&sqBit(oneSq) == 0 {
			emit(oneSq, FlagNone)
			if r == startRank {
				twoSq := SquareOf(f, r+2*dir)
				if b.All&sqBit(twoSq) == 0 {
					emit(twoSq, FlagDoublePush)
				}
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		nf := f + df
		if nf < 0 || nf > 7 || oneRank < 0 || oneRank > 7 {
			continue
		}
		to := SquareOf(nf, oneRank)
		if enemy&sqBit(to) != 0 {
			emit(to, FlagNone)
		} else if b.EnPassant == to {
			emit(to, FlagEnPassant)
		}
	}
	_ = own
	return moves
}

// generateCastling emits short/long castling moves for c's king from
// its starting square, iff the right is present, the squares between
// king and rook are empty, and none of {king, transit, destination}
// square is attacked (spec §4.3).
func generateCastling(b *Board, c Color) []Move {
	var moves []Move
	rank := 0
	kingStart := SquareOf(4, 0)
	if c == Black {
		rank = 7
		kingStart = SquareOf(4, 7)
	}
	if b.KingSquare(c) != kingStart {
		return nil
	}
	enemy := c.Other()

	kingsideRight, queensideRight := WhiteKingside, WhiteQueenside
	if c == Black {
		kingsideRight, queensideRight = BlackKingside, BlackQueenside
	}

	if b.Castling.Has(kingsideRight) {
		f1, g1 := SquareOf(5, rank), SquareOf(6, rank)
		if b.All&(sqBit(f1)|sqBit(g1)) == 0 &&
			!IsSquareAttacked(b, kingStart, enemy) &&
			!IsSquareAttacked(b, f1, enemy) &&
			!IsSquareAttacked(b, g1, enemy) {
			moves = append(moves, Move{From: kingStart, To: g1, Flag: FlagCastleKingside})
		}
	}
	if b.Castling.Has(queensideRight) {
		d1, c1, b1 := SquareOf(3, rank), SquareOf(2, rank), SquareOf(1, rank)
		if b.All&(sqBit(d1)|sqBit(c1)|sqBit(b1)) == 0 &&
			!IsSquareAttacked(b, kingStart, enemy) &&
			!IsSquareAttacked(b, d1, enemy) &&
			!IsSquareAttacked(b, c1, enemy) {
			moves = append(moves, Move{From: kingStart, To: c1, Flag: FlagCastleQueenside})
		}
	}
	return moves
}

// GenerateLegalMoves returns every move available to b.Turn that does
// not leave that side's own king in check. Each pseudo-legal move is
// trial-applied via MakeMove/UnmakeMove (spec §4.3).
func GenerateLegalMoves(b *Board) []Move {
	pseudo := generatePseudoLegalMoves(b)
	legal := make([]Move, 0, len(pseudo))
	mover := b.Turn
	for _, m := range pseudo {
		info := MakeMove(b, m)
		if !InCheck(b, mover) {
			legal = append(legal, m)
		}
		UnmakeMove(b, info)
	}
	return legal
}

// LegalMovesFrom returns the subset of GenerateLegalMoves(b) whose From
// square is sq, for the GET_LEGAL_MOVES/LEGAL_MOVES wire query.
func LegalMovesFrom(b *Board, sq Square) []Move {
	all := GenerateLegalMoves(b)
	out := make([]Move, 0, len(all))
	for _, m := range all {
		if m.From == sq {
			out = append(out, m)
		}
	}
	return out
}
