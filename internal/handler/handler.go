package handler

import (
	"context"
	"time"

	"github.com/Fsmount/wamble/internal/board"
	"github.com/Fsmount/wamble/internal/chess"
	"github.com/Fsmount/wamble/internal/errcode"
	"github.com/Fsmount/wamble/internal/persistence"
	"github.com/Fsmount/wamble/internal/player"
	"github.com/Fsmount/wamble/internal/protocol"
	"github.com/Fsmount/wamble/internal/spectator"
	"github.com/Fsmount/wamble/internal/storage"
)

// handleClientHello negotiates protocol version and capabilities, then
// resolves the caller's player row (spec §4.1's negotiation rule and
// §4.5's CLIENT_HELLO flow). A token Decode has already guaranteed is
// non-zero but unrecognized by this profile gets a fresh server-minted
// token in response, discarding whatever the client presented: the
// token is the sole authentication credential, so a client must never
// be able to pick its own (original_source/src/server_protocol.c's
// handle_client_hello, via create_new_player()).
func (d *Dispatcher) handleClientHello(in *protocol.Frame, now time.Time) *protocol.Frame {
	clientVersion := in.SeqNum
	if clientVersion < protocol.MinClientVersion {
		clientVersion = protocol.MinClientVersion
	}
	if clientVersion > uint32(protocol.ProtoVersion) {
		return errorFrame(in, errcode.UnsupportedVersion)
	}

	negotiatedCaps := protocol.SupportedCaps
	if requested := in.Capabilities(); requested != 0 {
		negotiatedCaps = requested & protocol.SupportedCaps
	}

	tok := player.Token(in.Token)
	if _, ok := d.Players.Get(tok); !ok {
		fresh, err := player.NewToken()
		if err != nil {
			return errorFrame(in, errcode.Internal)
		}
		tok = fresh
		d.Players.GetOrCreate(tok, now)
		if d.Intents != nil {
			d.Intents.Emit(persistence.CreateSession{Token: [16]byte(tok)})
		}
	} else {
		d.Players.Touch(tok, now)
	}

	return &protocol.Frame{
		Ctrl:          protocol.CtrlServerHello,
		HeaderVersion: uint8(clientVersion),
		Flags:         negotiatedCaps,
		Token:         [16]byte(tok),
	}
}

// handlePlayerMove applies uci to BoardID on the caller's behalf and
// reports the new position, or the specific failure reason (spec
// §4.3's validate_and_apply, wired through the pool so NOT_RESERVED
// and NOT_TURN are distinguished before position legality is checked).
func (d *Dispatcher) handlePlayerMove(in *protocol.Frame, now time.Time) *protocol.Frame {
	tok := player.Token(in.Token)
	_, err := d.Pool.ApplyMove(in.BoardID, tok, in.UCI, now)
	if err != nil {
		return errorFrame(in, mapBoardErr(err))
	}
	b, _ := d.Pool.Get(in.BoardID)
	d.Players.Touch(tok, now)
	return &protocol.Frame{
		Ctrl:          protocol.CtrlBoardUpdate,
		HeaderVersion: in.HeaderVersion,
		Token:         in.Token,
		BoardID:       in.BoardID,
		Payload:       []byte(b.Pos.FEN()),
	}
}

func (d *Dispatcher) handleListProfiles(in *protocol.Frame) *protocol.Frame {
	var summaries []ProfileSummary
	if d.Profiles != nil {
		summaries = d.Profiles()
	}
	var payload []byte
	payload = append(payload, uint8(len(summaries)))
	for _, s := range summaries {
		payload = append(payload, []byte(s.Name+"\x00")...)
	}
	return &protocol.Frame{
		Ctrl:          protocol.CtrlProfilesList,
		HeaderVersion: in.HeaderVersion,
		Token:         in.Token,
		Payload:       payload,
	}
}

func (d *Dispatcher) handleGetProfileInfo(in *protocol.Frame) *protocol.Frame {
	name := string(in.Payload)
	if d.Profiles == nil {
		return errorFrame(in, errcode.NotFound)
	}
	for _, s := range d.Profiles() {
		if s.Name == name {
			var payload []byte
			payload = append(payload, []byte(s.Name+"\x00")...)
			return &protocol.Frame{
				Ctrl:          protocol.CtrlProfileInfo,
				HeaderVersion: in.HeaderVersion,
				Token:         in.Token,
				Payload:       payload,
			}
		}
	}
	return errorFrame(in, errcode.NotFound)
}

// handleLoginRequest promotes the caller's token to a persistent
// identity linked to the public key carried in the payload (spec
// §4.5's LOGIN_REQUEST flow).
func (d *Dispatcher) handleLoginRequest(ctx context.Context, in *protocol.Frame, now time.Time) *protocol.Frame {
	if len(in.Payload) == 0 {
		return errorFrame(in, errcode.BadToken)
	}
	tok := player.Token(in.Token)
	d.Players.Promote(tok, in.Payload)
	if d.Intents != nil {
		d.Intents.Emit(persistence.LinkSessionToPubkey{Token: [16]byte(tok), PublicKey: append([]byte(nil), in.Payload...)})
	}
	return &protocol.Frame{
		Ctrl:          protocol.CtrlLoginSuccess,
		HeaderVersion: in.HeaderVersion,
		Token:         in.Token,
	}
}

// handleSpectateGame admits the caller to SUMMARY mode (BoardID==0) or
// FOCUS mode on a specific board, per spec §4.6's admission rules.
func (d *Dispatcher) handleSpectateGame(addr string, in *protocol.Frame, now time.Time) *protocol.Frame {
	tok := player.Token(in.Token)
	p, ok := d.Players.Get(tok)
	trust := 0
	if ok {
		trust = p.TrustTier
	}
	isAdmin := trust >= d.Cfg.AdminTrustLevel
	key := spectator.Key{Addr: addr, Token: in.Token}
	err := d.Spectators.SpectateGame(key, trust, in.BoardID, isAdmin, func(id uint64) bool {
		b, ok := d.Pool.Get(id)
		if !ok {
			return false
		}
		return b.State == board.Active || b.State == board.Reserved
	}, now)
	if err != nil {
		return errorFrame(in, mapSpectatorErr(err))
	}
	return &protocol.Frame{
		Ctrl:          protocol.CtrlAck,
		HeaderVersion: in.HeaderVersion,
		Token:         in.Token,
		BoardID:       in.BoardID,
	}
}

func (d *Dispatcher) handleSpectateStop(addr string, in *protocol.Frame) *protocol.Frame {
	d.Spectators.SpectateStop(spectator.Key{Addr: addr, Token: in.Token})
	return &protocol.Frame{
		Ctrl:          protocol.CtrlAck,
		HeaderVersion: in.HeaderVersion,
		Token:         in.Token,
	}
}

func mapSpectatorErr(err error) errcode.Code {
	switch err {
	case spectator.ErrVisibility:
		return errcode.Visibility
	case spectator.ErrFull:
		return errcode.Full
	case spectator.ErrFocusDisabled:
		return errcode.FocusDisabled
	case spectator.ErrNotAvailable:
		return errcode.NotAvailable
	default:
		return errcode.Internal
	}
}

// handleGetPlayerStats answers PLAYER_STATS_DATA from durable storage
// (spec's [EXPANSION] payload shape in SPEC_FULL.md §4.1).
func (d *Dispatcher) handleGetPlayerStats(ctx context.Context, in *protocol.Frame) *protocol.Frame {
	if d.Store == nil {
		return errorFrame(in, errcode.Internal)
	}
	tok := [16]byte(in.Token)
	score, st := d.Store.GetPlayerTotalScore(ctx, tok)
	if st == storage.NotFound {
		return errorFrame(in, errcode.NotFound)
	}
	games, _ := d.Store.GetSessionGamesPlayed(ctx, tok)
	rating, _ := d.Store.GetPlayerRating(ctx, tok)
	return &protocol.Frame{
		Ctrl:          protocol.CtrlPlayerStatsData,
		HeaderVersion: in.HeaderVersion,
		Token:         in.Token,
		Payload:       encodePlayerStats(score, uint32(games), rating),
	}
}

// handleGetLeaderboard answers LEADERBOARD_DATA, capped at
// maxLeaderboardEntries (spec's [EXPANSION] payload shape).
func (d *Dispatcher) handleGetLeaderboard(ctx context.Context, in *protocol.Frame) *protocol.Frame {
	if d.Store == nil {
		return errorFrame(in, errcode.Internal)
	}
	byRating, limit, err := decodeGetLeaderboard(in.Payload)
	if err != nil {
		return errorFrame(in, errcode.BadToken)
	}
	if limit <= 0 || limit > maxLeaderboardEntries {
		limit = maxLeaderboardEntries
	}
	rows, _ := d.Store.GetLeaderboard(ctx, byRating, limit)
	selfRank := int32(-1)
	tok := [16]byte(in.Token)
	for _, r := range rows {
		if r.Token == tok {
			selfRank = int32(r.Rank)
			break
		}
	}
	return &protocol.Frame{
		Ctrl:          protocol.CtrlLeaderboardData,
		HeaderVersion: in.HeaderVersion,
		Token:         in.Token,
		Payload:       encodeLeaderboard(byRating, selfRank, rows),
	}
}

// handleGetLegalMoves answers LEGAL_MOVES for the requested square on
// the caller's current board, per spec's [EXPANSION] payload shape.
func (d *Dispatcher) handleGetLegalMoves(in *protocol.Frame) *protocol.Frame {
	sq, err := decodeGetLegalMoves(in.Payload)
	if err != nil {
		return errorFrame(in, errcode.BadUCI)
	}
	b, ok := d.Pool.Get(in.BoardID)
	if !ok {
		return errorFrame(in, errcode.NotFound)
	}
	moves := chess.LegalMovesFrom(b.Pos, chess.Square(sq))
	entries := make([]legalMoveEntry, 0, len(moves))
	for _, m := range moves {
		promo := int8(-1)
		if m.Promotion != chess.NoPiece {
			promo = int8(m.Promotion)
		}
		entries = append(entries, legalMoveEntry{From: uint8(m.From), To: uint8(m.To), Promotion: promo})
	}
	return &protocol.Frame{
		Ctrl:          protocol.CtrlLegalMoves,
		HeaderVersion: in.HeaderVersion,
		Token:         in.Token,
		BoardID:       in.BoardID,
		Payload:       encodeLegalMoves(sq, entries),
	}
}
