package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Fsmount/wamble/internal/chess"
	"github.com/Fsmount/wamble/internal/config"
	"github.com/Fsmount/wamble/internal/player"
)

func testConfig() config.Profile {
	cfg := config.Defaults()
	cfg.NewPlayerMult = config.PhaseMultipliers{Early: 2.0, Mid: 1.0, End: 0.5}
	cfg.ExperiencedPlayerMult = config.PhaseMultipliers{Early: 0.5, Mid: 1.0, End: 2.0}
	return cfg
}

func TestAssignmentPrefersHigherMultiplier(t *testing.T) {
	pool := NewPool(testConfig(), nil)
	now := time.Now()

	early, err := chess.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 2")
	require.NoError(t, err)
	late, err := chess.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 80")
	require.NoError(t, err)

	pool.boards[1] = &Board{ID: 1, Pos: early, State: Dormant, LastAssignmentTime: now}
	pool.boards[2] = &Board{ID: 2, Pos: late, State: Dormant, LastAssignmentTime: now}
	pool.nextID = 3

	tok, _ := player.NewToken()
	chosen, err := pool.FindForPlayer(tok, 5, 2, now)
	require.NoError(t, err)
	require.Equal(t, uint64(1), chosen.ID)
}

func TestReservationTimeoutReverts(t *testing.T) {
	pool := NewPool(testConfig(), nil)
	pool.cfg.ReservationTimeout = 2
	now := time.Now()
	tok, _ := player.NewToken()
	b, err := pool.FindForPlayer(tok, 0, 1, now)
	require.NoError(t, err)
	require.Equal(t, Reserved, b.State)

	pool.Tick(now.Add(3 * time.Second))
	got, _ := pool.Get(b.ID)
	require.Equal(t, Dormant, got.State)
	require.Nil(t, got.Reservation)
}

func TestApplyMoveNotReserved(t *testing.T) {
	pool := NewPool(testConfig(), nil)
	now := time.Now()
	other, _ := player.NewToken()
	b := NewBoard(1, now)
	pool.boards[1] = b
	pool.nextID = 2

	_, err := pool.ApplyMove(1, other, "e2e4", now)
	require.ErrorIs(t, err, ErrNotReserved)
}

func TestApplyMoveReleasesToActive(t *testing.T) {
	pool := NewPool(testConfig(), nil)
	now := time.Now()
	tok, _ := player.NewToken()
	b, err := pool.FindForPlayer(tok, 0, 1, now)
	require.NoError(t, err)

	_, err = pool.ApplyMove(b.ID, tok, "e2e4", now)
	require.NoError(t, err)
	require.Equal(t, Active, b.State)
	require.Nil(t, b.Reservation)
}

func TestComputePayoutsDecisive(t *testing.T) {
	a, _ := player.NewToken()
	bTok, _ := player.NewToken()
	c, _ := player.NewToken()
	b := &Board{
		Result: chess.WhiteWins,
		Contributions: []Contribution{
			{Token: a, Side: chess.White, MoveCount: 18},
			{Token: bTok, Side: chess.White, MoveCount: 2},
			{Token: c, Side: chess.Black, MoveCount: 20},
		},
	}
	payouts := ComputePayouts(b, 20)
	byToken := map[player.Token]float64{}
	for _, p := range payouts {
		byToken[p.Token] = p.Points
	}
	require.InDelta(t, 18.0, byToken[a], 0.001)
	require.InDelta(t, 2.0, byToken[bTok], 0.001)
	require.Zero(t, byToken[c])
}

func TestComputePayoutsDraw(t *testing.T) {
	a, _ := player.NewToken()
	bTok, _ := player.NewToken()
	b := &Board{
		Result: chess.Draw,
		Contributions: []Contribution{
			{Token: a, Side: chess.White, MoveCount: 10},
			{Token: bTok, Side: chess.Black, MoveCount: 10},
		},
	}
	payouts := ComputePayouts(b, 20)
	byToken := map[player.Token]float64{}
	for _, p := range payouts {
		byToken[p.Token] = p.Points
	}
	require.InDelta(t, 10.0, byToken[a], 0.001)
	require.InDelta(t, 10.0, byToken[bTok], 0.001)
}

func TestComputePayoutsDualSideHalvedOnDecisiveResult(t *testing.T) {
	a, _ := player.NewToken()
	other, _ := player.NewToken()
	b := &Board{
		Result: chess.WhiteWins,
		Contributions: []Contribution{
			{Token: a, Side: chess.White, MoveCount: 5},
			{Token: other, Side: chess.White, MoveCount: 5},
			{Token: a, Side: chess.Black, MoveCount: 5},
			{Token: other, Side: chess.Black, MoveCount: 5},
		},
	}
	payouts := ComputePayouts(b, 20)
	byToken := map[player.Token]float64{}
	for _, p := range payouts {
		byToken[p.Token] = p.Points
	}
	require.InDelta(t, 5.0, byToken[a], 0.001)
}

func TestComputePayoutsDualSideHalved(t *testing.T) {
	a, _ := player.NewToken()
	b := &Board{
		Result: chess.Draw,
		Contributions: []Contribution{
			{Token: a, Side: chess.White, MoveCount: 10},
			{Token: a, Side: chess.Black, MoveCount: 10},
		},
	}
	payouts := ComputePayouts(b, 20)
	require.Len(t, payouts, 1)
	require.InDelta(t, 10.0, payouts[0].Points, 0.001) // (10+10)/2
}
