package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Fsmount/wamble/internal/board"
	"github.com/Fsmount/wamble/internal/config"
	"github.com/Fsmount/wamble/internal/errcode"
	"github.com/Fsmount/wamble/internal/persistence"
	"github.com/Fsmount/wamble/internal/player"
	"github.com/Fsmount/wamble/internal/protocol"
	"github.com/Fsmount/wamble/internal/spectator"
	"github.com/Fsmount/wamble/internal/storage"
)

type fakeQueries struct {
	score   float64
	found   bool
	rows    []storage.LeaderboardRow
}

func (f *fakeQueries) GetSessionByToken(ctx context.Context, token [16]byte) (storage.Session, storage.Status) {
	return storage.Session{}, storage.NotFound
}
func (f *fakeQueries) GetPersistentSessionByToken(ctx context.Context, token [16]byte) (storage.Session, storage.Status) {
	return storage.Session{}, storage.NotFound
}
func (f *fakeQueries) GetBoard(ctx context.Context, boardID uint64) (storage.BoardRow, storage.Status) {
	return storage.BoardRow{}, storage.NotFound
}
func (f *fakeQueries) ListBoardsByStatus(ctx context.Context, status string) ([]storage.BoardRow, storage.Status) {
	return nil, storage.OK
}
func (f *fakeQueries) GetMaxBoardID(ctx context.Context) (uint64, storage.Status) { return 0, storage.OK }
func (f *fakeQueries) GetMovesForBoard(ctx context.Context, boardID uint64) ([]storage.MoveRow, storage.Status) {
	return nil, storage.OK
}
func (f *fakeQueries) GetLongestGameMoves(ctx context.Context) (int, storage.Status) { return 40, storage.OK }
func (f *fakeQueries) GetActiveSessionCount(ctx context.Context) (int, storage.Status) { return 0, storage.OK }
func (f *fakeQueries) GetPlayerTotalScore(ctx context.Context, token [16]byte) (float64, storage.Status) {
	if !f.found {
		return 0, storage.NotFound
	}
	return f.score, storage.OK
}
func (f *fakeQueries) GetPlayerRating(ctx context.Context, token [16]byte) (float64, storage.Status) {
	return 1200, storage.OK
}
func (f *fakeQueries) GetSessionGamesPlayed(ctx context.Context, token [16]byte) (int, storage.Status) {
	return 3, storage.OK
}
func (f *fakeQueries) GetTrustTierByToken(ctx context.Context, token [16]byte) (int, storage.Status) {
	return 0, storage.OK
}
func (f *fakeQueries) GetLeaderboard(ctx context.Context, byRating bool, limit int) ([]storage.LeaderboardRow, storage.Status) {
	return f.rows, storage.OK
}

func newDispatcher() *Dispatcher {
	cfg := config.Defaults()
	cfg.SpectatorVisibility = 0
	return &Dispatcher{
		Pool:       board.NewPool(cfg, nil),
		Players:    player.NewRegistry(100),
		Spectators: spectator.NewManager(cfg),
		Intents:    persistence.NewBuffer(),
		Cfg:        cfg,
	}
}

func TestDispatchAckIsNoOp(t *testing.T) {
	d := newDispatcher()
	tok, _ := player.NewToken()
	resp := d.Dispatch(context.Background(), "a", &protocol.Frame{Ctrl: protocol.CtrlAck, Token: tok}, time.Now())
	require.Nil(t, resp)
}

func TestDispatchClientHelloAssignsToken(t *testing.T) {
	d := newDispatcher()
	resp := d.Dispatch(context.Background(), "a", &protocol.Frame{Ctrl: protocol.CtrlClientHello}, time.Now())
	require.NotNil(t, resp)
	require.Equal(t, protocol.CtrlServerHello, resp.Ctrl)
	require.False(t, resp.ZeroToken())
}

func TestCtrlUnknownRejectedByDecoder(t *testing.T) {
	require.False(t, protocol.Ctrl(200).Valid())
}

func TestDispatchClientHelloRejectsClientChosenToken(t *testing.T) {
	d := newDispatcher()
	chosen := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	resp := d.Dispatch(context.Background(), "a", &protocol.Frame{Ctrl: protocol.CtrlClientHello, Token: chosen}, time.Now())
	require.NotNil(t, resp)
	require.Equal(t, protocol.CtrlServerHello, resp.Ctrl)
	require.NotEqual(t, chosen, resp.Token)
}

func TestDispatchClientHelloPreservesKnownToken(t *testing.T) {
	d := newDispatcher()
	now := time.Now()
	tok, _ := player.NewToken()
	d.Players.GetOrCreate(tok, now)

	resp := d.Dispatch(context.Background(), "a", &protocol.Frame{Ctrl: protocol.CtrlClientHello, Token: tok}, now)
	require.NotNil(t, resp)
	require.Equal(t, [16]byte(tok), resp.Token)
}

func TestDispatchClientHelloNegotiatesVersionAndCaps(t *testing.T) {
	d := newDispatcher()
	resp := d.Dispatch(context.Background(), "a", &protocol.Frame{
		Ctrl:   protocol.CtrlClientHello,
		SeqNum: 1,
		Flags:  protocol.CapHotReload,
	}, time.Now())
	require.NotNil(t, resp)
	require.Equal(t, protocol.CtrlServerHello, resp.Ctrl)
	require.Equal(t, uint8(1), resp.HeaderVersion)
	require.Equal(t, protocol.CapHotReload, resp.Flags)
}

func TestDispatchClientHelloRejectsUnsupportedVersion(t *testing.T) {
	d := newDispatcher()
	resp := d.Dispatch(context.Background(), "a", &protocol.Frame{
		Ctrl:   protocol.CtrlClientHello,
		SeqNum: uint32(protocol.ProtoVersion) + 1,
	}, time.Now())
	require.NotNil(t, resp)
	require.Equal(t, protocol.CtrlError, resp.Ctrl)
	require.Equal(t, errcode.UnsupportedVersion, errcode.Code(uint16(resp.Payload[0])<<8|uint16(resp.Payload[1])))
}

func TestDispatchPlayerMoveNotReserved(t *testing.T) {
	d := newDispatcher()
	now := time.Now()
	tok, _ := player.NewToken()
	resp := d.Dispatch(context.Background(), "a", &protocol.Frame{Ctrl: protocol.CtrlPlayerMove, Token: tok, BoardID: 999, UCI: "e2e4"}, now)
	require.Equal(t, protocol.CtrlError, resp.Ctrl)
	require.Equal(t, errcode.NotReserved, errcode.Code(uint16(resp.Payload[0])<<8|uint16(resp.Payload[1])))
}

func TestDispatchPlayerMoveSucceeds(t *testing.T) {
	d := newDispatcher()
	now := time.Now()
	tok, _ := player.NewToken()
	b, err := d.Pool.FindForPlayer(tok, 0, 1, now)
	require.NoError(t, err)

	resp := d.Dispatch(context.Background(), "a", &protocol.Frame{Ctrl: protocol.CtrlPlayerMove, Token: tok, BoardID: b.ID, UCI: "e2e4"}, now)
	require.Equal(t, protocol.CtrlBoardUpdate, resp.Ctrl)
	require.NotEmpty(t, resp.Payload)
}

func TestDispatchSpectateGameVisibilityRejected(t *testing.T) {
	d := newDispatcher()
	d.Cfg.SpectatorVisibility = 5
	d.Spectators = spectator.NewManager(d.Cfg)
	tok, _ := player.NewToken()
	resp := d.Dispatch(context.Background(), "a", &protocol.Frame{Ctrl: protocol.CtrlSpectateGame, Token: tok}, time.Now())
	require.Equal(t, protocol.CtrlError, resp.Ctrl)
}

func TestDispatchGetPlayerStatsNotFound(t *testing.T) {
	d := newDispatcher()
	d.Store = &fakeQueries{found: false}
	tok, _ := player.NewToken()
	resp := d.Dispatch(context.Background(), "a", &protocol.Frame{Ctrl: protocol.CtrlGetPlayerStats, Token: tok}, time.Now())
	require.Equal(t, protocol.CtrlError, resp.Ctrl)
}

func TestDispatchGetPlayerStatsFound(t *testing.T) {
	d := newDispatcher()
	d.Store = &fakeQueries{found: true, score: 42}
	tok, _ := player.NewToken()
	resp := d.Dispatch(context.Background(), "a", &protocol.Frame{Ctrl: protocol.CtrlGetPlayerStats, Token: tok}, time.Now())
	require.Equal(t, protocol.CtrlPlayerStatsData, resp.Ctrl)
	require.Len(t, resp.Payload, 8+4+8)
}

func TestDispatchGetLegalMovesFromStart(t *testing.T) {
	d := newDispatcher()
	now := time.Now()
	tok, _ := player.NewToken()
	b, err := d.Pool.FindForPlayer(tok, 0, 1, now)
	require.NoError(t, err)

	resp := d.Dispatch(context.Background(), "a", &protocol.Frame{
		Ctrl: protocol.CtrlGetLegalMoves, Token: tok, BoardID: b.ID, Payload: []byte{12}, // e2 square index
	}, now)
	require.Equal(t, protocol.CtrlLegalMoves, resp.Ctrl)
	require.Equal(t, uint8(2), resp.Payload[1]) // e2 has 2 legal pushes at start
}
