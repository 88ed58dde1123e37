package handler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Fsmount/wamble/internal/board"
	"github.com/Fsmount/wamble/internal/chess"
	"github.com/Fsmount/wamble/internal/config"
	"github.com/Fsmount/wamble/internal/errcode"
	"github.com/Fsmount/wamble/internal/persistence"
	"github.com/Fsmount/wamble/internal/player"
	"github.com/Fsmount/wamble/internal/protocol"
	"github.com/Fsmount/wamble/internal/spectator"
	"github.com/Fsmount/wamble/internal/storage"
)

// ProfileSummary is the advertised-profile row LIST_PROFILES/GET_PROFILE_INFO
// answer from, supplied by the profile runtime that owns the full
// profile set (a single Dispatcher only owns its own profile's state).
type ProfileSummary struct {
	Name       string
	Port       int
	Advertise  bool
	NumBoards  int
	NumPlayers int
}

// Dispatcher wires one profile's subsystems to the control-code
// dispatch table (spec §4.5's handler inventory), mirroring the
// teacher's *Server receiver threaded through every handleX method in
// networking/server/server.go.
type Dispatcher struct {
	Pool       *board.Pool
	Players    *player.Registry
	Spectators *spectator.Manager
	Intents    *persistence.Buffer
	Store      storage.Queries
	Cfg        config.Profile
	Log        *zap.Logger
	Profiles   func() []ProfileSummary
	NumActive  func() int
}

// Dispatch routes one decoded inbound frame to its handler and returns
// the response frame to send back to addr, or nil for operations with
// no direct response (ACK, and unreliable fire-and-forget control
// codes with nothing to say back).
func (d *Dispatcher) Dispatch(ctx context.Context, addr string, in *protocol.Frame, now time.Time) *protocol.Frame {
	switch in.Ctrl {
	case protocol.CtrlAck:
		return nil
	case protocol.CtrlClientHello:
		return d.handleClientHello(in, now)
	case protocol.CtrlPlayerMove:
		return d.handlePlayerMove(in, now)
	case protocol.CtrlListProfiles:
		return d.handleListProfiles(in)
	case protocol.CtrlGetProfileInfo:
		return d.handleGetProfileInfo(in)
	case protocol.CtrlLoginRequest:
		return d.handleLoginRequest(ctx, in, now)
	case protocol.CtrlSpectateGame:
		return d.handleSpectateGame(addr, in, now)
	case protocol.CtrlSpectateStop:
		return d.handleSpectateStop(addr, in)
	case protocol.CtrlGetPlayerStats:
		return d.handleGetPlayerStats(ctx, in)
	case protocol.CtrlGetLeaderboard:
		return d.handleGetLeaderboard(ctx, in)
	case protocol.CtrlGetLegalMoves:
		return d.handleGetLegalMoves(in)
	default:
		if in.Unreliable() {
			return nil
		}
		return errorFrame(in, errcode.UnknownCtrl)
	}
}

func errorFrame(in *protocol.Frame, code errcode.Code) *protocol.Frame {
	return &protocol.Frame{
		Ctrl:          protocol.CtrlError,
		HeaderVersion: in.HeaderVersion,
		Token:         in.Token,
		BoardID:       in.BoardID,
		Payload:       append([]byte{byte(code >> 8), byte(code)}, errcode.Reason(code)...),
	}
}

// mapBoardErr translates a board/chess-layer error into the wire code
// the ERROR frame carries, per spec §7's error-handling design.
func mapBoardErr(err error) errcode.Code {
	switch {
	case err == board.ErrNotReserved:
		return errcode.NotReserved
	case err == board.ErrPoolFull:
		return errcode.Full
	case err == board.ErrNotTurn:
		return errcode.NotTurn
	case err == chess.ErrNotTurn:
		return errcode.NotTurn
	case err == chess.ErrBadUCI:
		return errcode.BadUCI
	case err == chess.ErrBadMove:
		return errcode.Illegal
	default:
		return errcode.Illegal
	}
}
