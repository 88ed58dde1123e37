// Package reliability implements the per-peer session table and the
// reliable-send/ACK/retransmit semantics layered over the raw frame
// codec in internal/protocol, per spec §4.1's reliability design.
package reliability

import (
	"sync"
	"time"
)

// PeerKey identifies one (remote address, token) pair, the unit the
// protocol's per-peer sequencing and duplicate suppression operate on.
type PeerKey struct {
	Addr  string
	Token [16]byte
}

// Peer tracks one session's sequencing state: the last accepted
// inbound seq_num (for dedupe) and the next outbound seq_num to assign,
// plus last-seen for eviction.
type Peer struct {
	NextOutbound  uint32
	LastAccepted  uint32
	LastSeen      time.Time
}

// Table is the per-profile session table keyed by (address, token),
// guarded by a single mutex per spec §5's one-mutex-per-subsystem rule.
type Table struct {
	mu    sync.Mutex
	peers map[PeerKey]*Peer
}

func NewTable() *Table {
	return &Table{peers: make(map[PeerKey]*Peer)}
}

// get returns (creating if absent) the Peer for key, stamping LastSeen.
func (t *Table) get(key PeerKey, now time.Time) *Peer {
	p, ok := t.peers[key]
	if !ok {
		p = &Peer{}
		t.peers[key] = p
	}
	p.LastSeen = now
	return p
}

// AcceptInbound reports whether seq is a fresh (non-duplicate) inbound
// seq_num for key, updating LastAccepted when it is. A duplicate
// (seq <= LastAccepted) must be silently dropped by the caller, not
// redispatched, per spec §4.1.
func (t *Table) AcceptInbound(key PeerKey, seq uint32, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.get(key, now)
	if seq <= p.LastAccepted {
		return false
	}
	p.LastAccepted = seq
	return true
}

// Touch updates LastSeen for key without affecting sequencing, used
// when a peer is observed on an ACK frame.
func (t *Table) Touch(key PeerKey, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.get(key, now)
}

// NextOutboundSeq assigns and returns the next per-peer outbound
// seq_num, strictly monotone increasing per spec §8's invariant.
func (t *Table) NextOutboundSeq(key PeerKey, now time.Time) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.get(key, now)
	p.NextOutbound++
	return p.NextOutbound
}

// EvictExpired removes every peer whose LastSeen is older than
// timeout, per spec §4.1's session_timeout eviction rule.
func (t *Table) EvictExpired(now time.Time, timeout time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	evicted := 0
	for k, p := range t.peers {
		if now.Sub(p.LastSeen) > timeout {
			delete(t.peers, k)
			evicted++
		}
	}
	return evicted
}

// Len reports the current number of tracked peers, for capacity checks
// against max_client_sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.peers)
}
