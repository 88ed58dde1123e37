package player

import (
	"sync"
	"time"
)

// Player is the in-memory row for one token, mirroring spec §3's
// Player entity. PublicKey and Persistent are set by a successful
// LOGIN_REQUEST (spec §4.5's promotion-to-persistent-identity flow).
type Player struct {
	Token       Token
	PublicKey   []byte
	Persistent  bool
	Score       float64
	GamesPlayed int
	TrustTier   int
	LastSeen    time.Time
}

// Experienced classifies a player as new or experienced for the
// assignment engine's phase-multiplier lookup (spec §4.2).
func (p *Player) Experienced(newPlayerThreshold int) bool {
	return p.GamesPlayed >= newPlayerThreshold
}

// Registry is the per-profile token -> Player map, guarded by one
// mutex per spec §5 (one mutex per subsystem).
type Registry struct {
	mu      sync.Mutex
	players map[Token]*Player
	maxSize int
}

func NewRegistry(maxPlayers int) *Registry {
	return &Registry{players: make(map[Token]*Player), maxSize: maxPlayers}
}

// GetOrCreate returns the Player for token, creating a fresh row (with
// LastSeen stamped to now) if none exists. Mirrors CLIENT_HELLO's
// "fresh token assigned if none presented" lifecycle rule, except the
// fresh-token-assignment itself happens at the handler layer (this
// just ensures the row exists once a token is settled on).
func (r *Registry) GetOrCreate(token Token, now time.Time) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[token]
	if !ok {
		p = &Player{Token: token, LastSeen: now}
		r.players[token] = p
	}
	p.LastSeen = now
	return p
}

// Get returns the Player for token without creating one.
func (r *Registry) Get(token Token) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[token]
	return p, ok
}

// Touch stamps LastSeen for an existing player, a no-op if the token
// is unknown.
func (r *Registry) Touch(token Token, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[token]; ok {
		p.LastSeen = now
	}
}

// Promote links token's player row to a public key and flips it to a
// persistent identity, the LOGIN_REQUEST flow from spec §3/§4.5.
func (r *Registry) Promote(token Token, pubKey []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[token]; ok {
		p.PublicKey = append([]byte(nil), pubKey...)
		p.Persistent = true
	}
}

// RecordGameEnd increments games played and adds points to score,
// called once per contributor at board archival (board package's
// payout distribution).
func (r *Registry) RecordGameEnd(token Token, points float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[token]; ok {
		p.Score += points
		p.GamesPlayed++
	}
}

// ExpireIdle removes every player whose LastSeen exceeds
// token_expiration, per spec §3's lifecycle rule. Persistent players
// are never evicted by idle sweep: their identity is meant to survive
// across sessions, and the server only holds their live row while
// convenient (board package's "preserving reservation identity across
// restarts" Non-goal is about the lifecycle state, not this row).
func (r *Registry) ExpireIdle(now time.Time, timeout time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for tok, p := range r.players {
		if p.Persistent {
			continue
		}
		if now.Sub(p.LastSeen) > timeout {
			delete(r.players, tok)
			evicted++
		}
	}
	return evicted
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}
