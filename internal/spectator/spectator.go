// Package spectator implements the rate-limited summary/focus fan-out
// to passive observers (spec §4.6): capacity-bounded admission,
// visibility gating by trust tier, and the two output modes.
package spectator

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Fsmount/wamble/internal/board"
	"github.com/Fsmount/wamble/internal/config"
)

// Mode is a spectator's current fan-out mode.
type Mode uint8

const (
	Idle Mode = iota
	Summary
	Focus
)

var (
	ErrVisibility    = errors.New("spectator: trust tier below spectator_visibility")
	ErrFull          = errors.New("spectator: focused-spectator capacity reached")
	ErrFocusDisabled = errors.New("spectator: focus mode disabled")
	ErrNotAvailable  = errors.New("spectator: board not eligible to spectate")
)

// Key identifies one spectator by (address, token), same keying as the
// network session table.
type Key struct {
	Addr  string
	Token [16]byte
}

// Entry is one spectator's fan-out state (spec §3's Spectator entry).
type Entry struct {
	Key             Key
	TrustTier       int
	State           Mode
	FocusBoard      uint64
	LastSummarySent time.Time
	LastFocusSent   time.Time
	LastSummaryWall time.Time
	LastSeen        time.Time
	PendingNotice   string // not set by this package; CollectFocus returns notices directly
}

// Update is one outbound SPECTATE_UPDATE tuple for the listener to
// frame and send unreliably.
type Update struct {
	Key     Key
	BoardID uint64
	FEN     string
}

// Notice is one outbound one-shot SERVER_NOTIFICATION.
type Notice struct {
	Key  Key
	Text string
}

// Manager is the per-profile spectator table, guarded by one mutex
// (spec §5's one-mutex-per-subsystem rule).
type Manager struct {
	mu      sync.Mutex
	cfg     config.Profile
	entries map[Key]*Entry
	focused int
}

func NewManager(cfg config.Profile) *Manager {
	return &Manager{cfg: cfg, entries: make(map[Key]*Entry)}
}

// SpectateGame admits key to SUMMARY or FOCUS mode, enforcing the
// admission rules in spec §4.6: VISIBILITY if trustTier is below
// spectator_visibility, FULL if the focused-spectator count is at
// max_spectators and the requester isn't admin, FOCUS_DISABLED if
// spectator_max_focus_per_session <= 0, NOT_AVAILABLE if boardID (when
// non-zero, requesting FOCUS) isn't eligible per isEligible.
func (m *Manager) SpectateGame(key Key, trustTier int, boardID uint64, isAdmin bool, isEligible func(uint64) bool, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if trustTier < m.cfg.SpectatorVisibility {
		return ErrVisibility
	}

	e, ok := m.entries[key]
	if !ok {
		e = &Entry{Key: key, TrustTier: trustTier}
		m.entries[key] = e
	}
	e.TrustTier = trustTier
	e.LastSeen = now

	if boardID == 0 {
		if e.State == Focus {
			m.focused--
		}
		e.State = Summary
		e.FocusBoard = 0
		return nil
	}

	if m.cfg.SpectatorMaxFocusPerSession <= 0 {
		return ErrFocusDisabled
	}
	if !isAdmin && m.focused >= m.cfg.MaxSpectators && e.State != Focus {
		return ErrFull
	}
	if !isEligible(boardID) {
		return ErrNotAvailable
	}

	if e.State != Focus {
		m.focused++
	}
	e.State = Focus
	e.FocusBoard = boardID
	return nil
}

// SpectateStop removes key's entry, freeing its focus slot if held.
func (m *Manager) SpectateStop(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return
	}
	if e.State == Focus {
		m.focused--
	}
	delete(m.entries, key)
}

// EvictExpired drops spectators inactive beyond timeout (spec §4.6).
func (m *Manager) EvictExpired(now time.Time, timeout time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for k, e := range m.entries {
		if now.Sub(e.LastSeen) > timeout {
			if e.State == Focus {
				m.focused--
			}
			delete(m.entries, k)
			evicted++
		}
	}
	return evicted
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// eligibleBoard reports whether b is in an eligible state for
// spectating (ACTIVE or RESERVED, spec §4.6/GLOSSARY).
func eligibleBoard(b *board.Board) bool {
	return b.State == board.Active || b.State == board.Reserved
}

// attractiveness scores a board for SUMMARY ordering: the
// experienced-player phase multiplier times inverse recency, per
// DESIGN.md's grounding in spectator_manager.c's attractiveness score
// (phase multiplier x 1/(time-since-assignment+1)).
func attractiveness(cfg config.Profile, b *board.Board, now time.Time) float64 {
	phase := board.PhaseOf(b.Pos.Fullmove)
	mult := board.Multiplier(cfg, board.NewPlayerGamesThreshold, phase)
	since := now.Sub(b.LastAssignmentTime).Seconds()
	if since < 0 {
		since = 0
	}
	return mult * (1.0 / (since + 1.0))
}

// CollectSummary returns the batch of SPECTATE_UPDATE tuples due for
// every Summary-mode spectator whose summary_hz interval has elapsed,
// sorted by last_move_time desc, tie-broken by attractiveness. In
// "changes" mode (spec §4.6) only boards whose last_move_time is newer
// than the spectator's last_summary_wall are included.
func (m *Manager) CollectSummary(boards []*board.Board, now time.Time) []Update {
	m.mu.Lock()
	defer m.mu.Unlock()

	eligible := make([]*board.Board, 0, len(boards))
	for _, b := range boards {
		if eligibleBoard(b) {
			eligible = append(eligible, b)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if !eligible[i].LastMoveTime.Equal(eligible[j].LastMoveTime) {
			return eligible[i].LastMoveTime.After(eligible[j].LastMoveTime)
		}
		return attractiveness(m.cfg, eligible[i], now) > attractiveness(m.cfg, eligible[j], now)
	})

	interval := time.Duration(0)
	if m.cfg.SpectatorSummaryHz > 0 {
		interval = time.Duration(float64(time.Second) / m.cfg.SpectatorSummaryHz)
	}

	var updates []Update
	for _, e := range m.entries {
		if e.State != Summary {
			continue
		}
		if now.Sub(e.LastSummarySent) < interval {
			continue
		}
		for _, b := range eligible {
			if m.cfg.SpectatorSummaryChangesOnly && !b.LastMoveTime.After(e.LastSummaryWall) {
				continue
			}
			updates = append(updates, Update{Key: e.Key, BoardID: b.ID, FEN: b.Pos.FEN()})
		}
		e.LastSummarySent = now
		e.LastSummaryWall = now
	}
	return updates
}

// CollectFocus returns SPECTATE_UPDATE tuples for every Focus-mode
// spectator whose focus_hz interval has elapsed. If a focused
// spectator's board has left the eligible set, it is downgraded to
// Summary and a one-shot Notice is returned instead (spec §4.6).
func (m *Manager) CollectFocus(lookup func(uint64) (*board.Board, bool), now time.Time) ([]Update, []Notice) {
	m.mu.Lock()
	defer m.mu.Unlock()

	interval := time.Duration(0)
	if m.cfg.SpectatorFocusHz > 0 {
		interval = time.Duration(float64(time.Second) / m.cfg.SpectatorFocusHz)
	}

	var updates []Update
	var notices []Notice
	for _, e := range m.entries {
		if e.State != Focus {
			continue
		}
		b, ok := lookup(e.FocusBoard)
		if !ok || !eligibleBoard(b) {
			m.focused--
			e.State = Summary
			e.FocusBoard = 0
			notices = append(notices, Notice{Key: e.Key, Text: "spectated board is no longer available"})
			continue
		}
		if now.Sub(e.LastFocusSent) < interval {
			continue
		}
		updates = append(updates, Update{Key: e.Key, BoardID: b.ID, FEN: b.Pos.FEN()})
		e.LastFocusSent = now
	}
	return updates, notices
}
