package chess

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFENRoundTrip(t *testing.T) {
	b := NewStartingBoard()
	require.Equal(t, StartingFEN, b.FEN())
}

func TestLegalPawnPush(t *testing.T) {
	b := NewStartingBoard()
	_, result, err := ValidateAndApply(b, "e2e4")
	require.NoError(t, err)
	require.Equal(t, InProgress, result)
	require.Contains(t, b.FEN(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3")
}

func TestFoolsMate(t *testing.T) {
	b, err := ParseFEN("rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 1")
	require.NoError(t, err)
	_, result, err := ValidateAndApply(b, "d8h4")
	require.NoError(t, err)
	require.Equal(t, BlackWins, result)
}

func TestStalemateByQueen(t *testing.T) {
	b, err := ParseFEN("k7/8/8/8/8/8/1Q6/K7 w - - 0 1")
	require.NoError(t, err)
	_, result, err := ValidateAndApply(b, "b2b6")
	require.NoError(t, err)
	require.Equal(t, Draw, result)
}

func TestCheckmateTakesPriorityOverFiftyMoveRule(t *testing.T) {
	b, err := ParseFEN("rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 99 1")
	require.NoError(t, err)
	_, result, err := ValidateAndApply(b, "d8h4")
	require.NoError(t, err)
	require.Equal(t, BlackWins, result)
}

func TestFiftyMoveRule(t *testing.T) {
	b, err := ParseFEN("k7/8/8/8/8/8/8/K7 w - - 99 50")
	require.NoError(t, err)
	_, result, err := ValidateAndApply(b, "a1b1")
	require.NoError(t, err)
	require.Equal(t, Draw, result)
}

func TestEnPassantCapture(t *testing.T) {
	b, err := ParseFEN("rnbqkbnr/pppppppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 3")
	require.NoError(t, err)
	_, _, err = ValidateAndApply(b, "d4e3")
	require.NoError(t, err)

	pt, color, ok := b.PieceAt(SquareOf(4, 2)) // e3
	require.True(t, ok)
	require.Equal(t, Pawn, pt)
	require.Equal(t, Black, color)

	_, _, ok = b.PieceAt(SquareOf(4, 3)) // e4, the captured white pawn
	require.False(t, ok)
}

func TestCastlingRightRevokedOnRookCapture(t *testing.T) {
	b, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	require.NoError(t, err)
	_, _, err = ValidateAndApply(b, "a1a8")
	require.NoError(t, err)
	require.Equal(t, "Kk", b.Castling.String())
}

func TestMakeUnmakeRoundTrip(t *testing.T) {
	b := NewStartingBoard()
	before := *b
	legal := GenerateLegalMoves(b)
	require.NotEmpty(t, legal)
	for _, m := range legal {
		info := MakeMove(b, m)
		UnmakeMove(b, info)
		require.Equal(t, before, *b)
	}
}

func TestValidateAndApplyRejectsIllegalMove(t *testing.T) {
	b := NewStartingBoard()
	_, _, err := ValidateAndApply(b, "e2e5")
	require.ErrorIs(t, err, ErrBadMove)
}

func TestValidateAndApplyRejectsMalformedUCI(t *testing.T) {
	b := NewStartingBoard()
	_, _, err := ValidateAndApply(b, "zz99")
	require.ErrorIs(t, err, ErrBadUCI)
}

func TestGenerateLegalMovesStartingPositionCount(t *testing.T) {
	b := NewStartingBoard()
	require.Len(t, GenerateLegalMoves(b), 20)
}
