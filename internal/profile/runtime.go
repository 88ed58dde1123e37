// Package profile implements the per-profile listener loop and the
// multi-profile supervisor (spec §4.5): preflight validation, one UDP
// socket and one owning goroutine per profile, periodic ticking, and
// hot-reload via inherited socket file descriptors. Generalizes the
// teacher's Start/networkLoop/maintenanceLoop split in
// networking/server/server.go into one folded per-profile loop, the
// structure spec §5 explicitly allows.
package profile

import (
	"context"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Fsmount/wamble/internal/board"
	"github.com/Fsmount/wamble/internal/config"
	"github.com/Fsmount/wamble/internal/handler"
	"github.com/Fsmount/wamble/internal/logging"
	"github.com/Fsmount/wamble/internal/persistence"
	"github.com/Fsmount/wamble/internal/player"
	"github.com/Fsmount/wamble/internal/protocol"
	"github.com/Fsmount/wamble/internal/reliability"
	"github.com/Fsmount/wamble/internal/spectator"
	"github.com/Fsmount/wamble/internal/storage"
)

const maxDatagramSize = 65536

// Runtime is one running profile instance: its own socket, board pool,
// player registry, spectator table, and configuration snapshot, per
// spec §4.5's "they share no runtime state" rule.
type Runtime struct {
	Cfg config.Profile
	Log *zap.Logger

	Pool       *board.Pool
	Players    *player.Registry
	Spectators *spectator.Manager
	Sessions   *reliability.Table
	Acks       *reliability.AckWaiter
	Intents    *persistence.Buffer
	Driver     storage.Driver
	Dispatch   *handler.Dispatcher

	conn     *net.UDPConn
	stopCh   chan struct{}
	stopped  chan struct{}
}

// New builds a Runtime wired from cfg and driver, ready to Bind and Run.
func New(cfg config.Profile, driver storage.Driver, log *zap.Logger) *Runtime {
	if log == nil {
		log = logging.Nop()
	}
	intents := persistence.NewBuffer()
	pool := board.NewPool(cfg, intents)
	players := player.NewRegistry(cfg.MaxPlayers)
	spectators := spectator.NewManager(cfg)
	sessions := reliability.NewTable()

	r := &Runtime{
		Cfg:        cfg,
		Log:        log,
		Pool:       pool,
		Players:    players,
		Spectators: spectators,
		Sessions:   sessions,
		Acks:       reliability.NewAckWaiter(),
		Intents:    intents,
		Driver:     driver,
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	r.Dispatch = &handler.Dispatcher{
		Pool:       pool,
		Players:    players,
		Spectators: spectators,
		Intents:    intents,
		Store:      driver,
		Cfg:        cfg,
		Log:        log,
	}
	return r
}

// Bind opens this profile's UDP socket, per spec §4.5's
// bind-all-sockets-first-or-abort startup rule (the supervisor calls
// Bind on every profile before starting any loop).
func (r *Runtime) Bind() error {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort("", strconv.Itoa(r.Cfg.Port)))
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	r.conn = conn
	return nil
}

// AdoptConn installs an already-open connection, used by hot reload to
// hand this Runtime a socket inherited from the replaced process
// instead of calling Bind.
func (r *Runtime) AdoptConn(conn *net.UDPConn) { r.conn = conn }

// Stop signals the listener loop to exit and waits for it to do so.
func (r *Runtime) Stop() {
	close(r.stopCh)
	<-r.stopped
	if r.conn != nil {
		r.conn.Close()
	}
}

// Run is the listener loop: read-deadline polling, decode, dispatch,
// inbound ACKs and outbound sequence numbers, and the folded
// board/spectator tick. Each response is sent once; the loop does not
// wait for its ACK or retransmit it. See
// spec §4.5's listener-loop paragraph and §5's "tick may be folded
// into the listener" allowance.
func (r *Runtime) Run(ctx context.Context) {
	defer close(r.stopped)
	buf := make([]byte, maxDatagramSize)
	deadline := time.Duration(r.Cfg.SelectTimeoutUsec) * time.Microsecond
	if deadline <= 0 {
		deadline = 100 * time.Millisecond
	}
	lastTick := time.Now()
	lastCleanup := time.Now()
	cleanupInterval := time.Duration(r.Cfg.CleanupIntervalSec) * time.Second
	sessionTimeout := time.Duration(r.Cfg.SessionTimeout) * time.Second

	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		r.conn.SetReadDeadline(time.Now().Add(deadline))
		n, addr, err := r.conn.ReadFromUDP(buf)
		now := time.Now()

		if err == nil {
			r.handleDatagram(ctx, addr, buf[:n], now)
		} else if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
			r.Log.Warn("read error", zap.Error(err))
		}

		if now.Sub(lastTick) >= time.Second {
			r.Pool.Tick(now)
			r.Spectators.EvictExpired(now, sessionTimeout)
			r.drainSpectatorOutput(now)
			lastTick = now
		}
		if now.Sub(lastCleanup) >= cleanupInterval {
			r.Sessions.EvictExpired(now, sessionTimeout)
			r.Players.ExpireIdle(now, time.Duration(r.Cfg.TokenExpiration)*time.Second)
			lastCleanup = now
		}
		if r.Intents != nil && r.Driver != nil {
			r.Intents.ApplyIntents(ctx, r.Driver, 64)
		}
	}
}

func (r *Runtime) handleDatagram(ctx context.Context, addr *net.UDPAddr, raw []byte, now time.Time) {
	frame, err := protocol.Decode(raw)
	if err != nil {
		r.Log.Debug("decode rejected frame", zap.Error(err))
		return
	}

	key := reliability.PeerKey{Addr: addr.String(), Token: frame.Token}
	if frame.Ctrl == protocol.CtrlAck {
		r.Acks.Deliver(key, frame.SeqNum)
		r.Sessions.Touch(key, now)
		return
	}
	if !frame.Unreliable() {
		if !r.Sessions.AcceptInbound(key, frame.SeqNum, now) {
			return
		}
		r.send(addr, &protocol.Frame{Ctrl: protocol.CtrlAck, Token: frame.Token, SeqNum: frame.SeqNum})
	}

	resp := r.Dispatch.Dispatch(ctx, addr.String(), frame, now)
	if resp == nil {
		return
	}
	resp.SeqNum = r.Sessions.NextOutboundSeq(key, now)
	r.send(addr, resp)
}

func (r *Runtime) send(addr *net.UDPAddr, f *protocol.Frame) {
	if _, err := r.conn.WriteToUDP(protocol.Encode(f), addr); err != nil {
		r.Log.Debug("send failed", zap.Error(err))
	}
}

// drainSpectatorOutput collects due SUMMARY/FOCUS updates and one-shot
// notices and fans them out as UNRELIABLE frames, per spec §4.6's
// output contract.
func (r *Runtime) drainSpectatorOutput(now time.Time) {
	boards := r.Pool.Snapshot()
	for _, u := range r.Spectators.CollectSummary(boards, now) {
		r.sendSpectateUpdate(u, now)
	}
	updates, notices := r.Spectators.CollectFocus(func(id uint64) (*board.Board, bool) { return r.Pool.Get(id) }, now)
	for _, u := range updates {
		r.sendSpectateUpdate(u, now)
	}
	for _, n := range notices {
		addr, err := net.ResolveUDPAddr("udp", n.Key.Addr)
		if err != nil {
			continue
		}
		r.send(addr, &protocol.Frame{
			Ctrl:    protocol.CtrlServerNotification,
			Token:   n.Key.Token,
			Flags:   protocol.FlagUnreliable,
			Payload: []byte(n.Text),
		})
	}
}

func (r *Runtime) sendSpectateUpdate(u spectator.Update, now time.Time) {
	addr, err := net.ResolveUDPAddr("udp", u.Key.Addr)
	if err != nil {
		return
	}
	r.send(addr, &protocol.Frame{
		Ctrl:    protocol.CtrlSpectateUpdate,
		Token:   u.Key.Token,
		BoardID: u.BoardID,
		Flags:   protocol.FlagUnreliable,
		Payload: []byte(u.FEN),
	})
}
