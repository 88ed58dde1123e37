package board

import (
	"sync"
	"time"

	"github.com/Fsmount/wamble/internal/chess"
	"github.com/Fsmount/wamble/internal/config"
	"github.com/Fsmount/wamble/internal/persistence"
	"github.com/Fsmount/wamble/internal/player"
)

// Pool is the per-profile board registry: state machine, auto-scaling,
// and assignment, serialized behind a single mutex per spec §5 (one
// mutex per subsystem, bounded critical sections).
type Pool struct {
	mu     sync.Mutex
	cfg    config.Profile
	boards map[uint64]*Board
	nextID uint64
	intents *persistence.Buffer

	// LongestGameMoves feeds the pool-scaling target; refreshed
	// periodically from storage.Queries.GetLongestGameMoves by the
	// profile runtime, not looked up synchronously on every request.
	LongestGameMoves int
}

func NewPool(cfg config.Profile, intents *persistence.Buffer) *Pool {
	return &Pool{
		cfg:              cfg,
		boards:           make(map[uint64]*Board),
		nextID:           1,
		intents:          intents,
		LongestGameMoves: 40,
	}
}

// Get returns the board with id, if live.
func (p *Pool) Get(id uint64) (*Board, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.boards[id]
	return b, ok
}

// Len reports the number of live (non-evicted) boards.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.boards)
}

// Snapshot returns every live board, for callers (the spectator
// collector, state-snapshot writer) that need to scan the whole pool
// rather than look up one id at a time.
func (p *Pool) Snapshot() []*Board {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Board, 0, len(p.boards))
	for _, b := range p.boards {
		out = append(out, b)
	}
	return out
}

// NextIDHint returns the next board id the pool would allocate, for
// the state-snapshot writer's next_id field.
func (p *Pool) NextIDHint() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextID
}

// Restore seeds the pool with boards and nextID loaded from a state
// snapshot, the hot-reload resume path from spec §4.5. Must be called
// before the pool serves any request.
func (p *Pool) Restore(boards []*Board, nextID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range boards {
		p.boards[b.ID] = b
	}
	if nextID > p.nextID {
		p.nextID = nextID
	}
}

// TargetSize computes max(min_boards, longest_game_moves *
// num_active_players) clamped to max_boards, per spec §4.2's pool
// scaling rule.
func (p *Pool) TargetSize(numActivePlayers int) int {
	target := p.cfg.MinBoards
	computed := p.LongestGameMoves * numActivePlayers
	if computed > target {
		target = computed
	}
	if target > p.cfg.MaxBoards {
		target = p.cfg.MaxBoards
	}
	return target
}

// createLocked allocates a fresh board at the starting position,
// immediately reserved for tok/side, and emits its CreateBoard +
// CreateReservation intents. Caller must hold p.mu.
func (p *Pool) createLocked(tok player.Token, side chess.Color, now time.Time) *Board {
	id := p.nextID
	p.nextID++
	b := NewBoard(id, now)
	b.reserve(tok, side, now)
	p.boards[id] = b

	if p.intents != nil {
		p.intents.Emit(persistence.CreateBoard{BoardID: id, FEN: b.Pos.FEN(), Status: b.State.String()})
		p.intents.Emit(persistence.CreateReservation{BoardID: id, Token: [16]byte(tok), TimeoutSeconds: p.cfg.ReservationTimeout})
	}
	return b
}

// FindForPlayer implements spec §4.2's find_board_for_player: among
// DORMANT/ACTIVE boards (the only states with no existing reservation),
// choose the one whose side-to-move has the highest phase multiplier
// for this player's class, tie-broken by oldest last_assignment_time.
// If no board qualifies and the pool is below its scaled target, a
// fresh board is created in RESERVED state and returned instead.
func (p *Pool) FindForPlayer(tok player.Token, gamesPlayed int, numActivePlayers int, now time.Time) (*Board, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var cands []candidate
	for _, b := range p.boards {
		if b.State != Dormant && b.State != Active {
			continue
		}
		phase := PhaseOf(b.Pos.Fullmove)
		mult := Multiplier(p.cfg, gamesPlayed, phase)
		cands = append(cands, candidate{board: b, mult: mult})
	}

	chosen := selectBoard(cands)
	if chosen == nil {
		if len(p.boards) >= p.TargetSize(numActivePlayers) {
			return nil, ErrPoolFull
		}
		return p.createLocked(tok, chess.White, now), nil
	}

	side := chosen.Pos.Turn
	chosen.reserve(tok, side, now)
	if p.intents != nil {
		p.intents.Emit(persistence.CreateReservation{BoardID: chosen.ID, Token: [16]byte(tok), TimeoutSeconds: p.cfg.ReservationTimeout})
		p.intents.Emit(persistence.UpdateBoardAssignmentTime{BoardID: chosen.ID})
	}
	return chosen, nil
}

// ReleaseAfterMove and CancelReservation delegate to the Board methods
// under the pool mutex, emitting the matching intents.
func (p *Pool) ReleaseAfterMove(id uint64, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.boards[id]
	if !ok {
		return
	}
	b.ReleaseAfterMove(now)
	if p.intents != nil {
		p.intents.Emit(persistence.UpdateBoard{BoardID: id, FEN: b.Pos.FEN(), Status: b.State.String()})
	}
}

func (p *Pool) CancelReservation(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.boards[id]
	if !ok {
		return
	}
	b.CancelReservation()
	if p.intents != nil {
		p.intents.Emit(persistence.RemoveReservation{BoardID: id})
	}
}

// ApplyMove looks up board id and applies uci on tok's behalf, per
// spec §4.3's validate_and_apply, emitting RecordMove and (on
// archival) RecordGameResult intents.
func (p *Pool) ApplyMove(id uint64, tok player.Token, uci string, now time.Time) (chess.Move, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.boards[id]
	if !ok {
		return chess.Move{}, ErrNotReserved
	}
	move, err := b.ApplyMove(tok, uci, now)
	if err != nil {
		return chess.Move{}, err
	}
	if p.intents != nil {
		p.intents.Emit(persistence.RecordMove{BoardID: id, Token: [16]byte(tok), UCI: move.UCI(), MoveNumber: b.MoveCount})
		p.intents.Emit(persistence.UpdateBoard{BoardID: id, FEN: b.Pos.FEN(), Status: b.State.String()})
		if b.State == Archived {
			p.intents.Emit(persistence.RecordGameResult{BoardID: id, WinningSide: resultSideString(b.Result)})
			for _, payout := range ComputePayouts(b, p.cfg.MaxPot) {
				p.intents.Emit(persistence.RecordPayout{BoardID: id, Token: [16]byte(payout.Token), Points: payout.Points})
			}
		}
	}
	return move, nil
}

func resultSideString(r chess.Result) string {
	switch r {
	case chess.WhiteWins:
		return "white"
	case chess.BlackWins:
		return "black"
	case chess.Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Tick applies the time-based transitions from spec §4.2's table:
// RESERVED boards whose reservation has timed out revert to DORMANT;
// ACTIVE boards idle beyond inactivity_timeout revert to DORMANT.
// Concurrency: ticks and requests are serialized through the same
// mutex as every other pool mutation (spec §4.2/§5).
func (p *Pool) Tick(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	resTimeout := time.Duration(p.cfg.ReservationTimeout) * time.Second
	inactTimeout := time.Duration(p.cfg.InactivityTimeout) * time.Second

	for _, b := range p.boards {
		switch b.State {
		case Reserved:
			if b.Reservation != nil && now.Sub(b.Reservation.ReservedAt) > resTimeout {
				b.CancelReservation()
				if p.intents != nil {
					p.intents.Emit(persistence.RemoveReservation{BoardID: b.ID})
				}
			}
		case Active:
			if now.Sub(b.LastMoveTime) > inactTimeout {
				b.State = Dormant
				if p.intents != nil {
					p.intents.Emit(persistence.UpdateBoard{BoardID: b.ID, FEN: b.Pos.FEN(), Status: Dormant.String()})
				}
			}
		}
	}
}
