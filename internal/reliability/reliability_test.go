package reliability

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcceptInboundDedupe(t *testing.T) {
	tbl := NewTable()
	key := PeerKey{Addr: "1.2.3.4:5", Token: [16]byte{1}}
	now := time.Now()
	require.True(t, tbl.AcceptInbound(key, 1, now))
	require.True(t, tbl.AcceptInbound(key, 2, now))
	require.False(t, tbl.AcceptInbound(key, 2, now)) // duplicate
	require.False(t, tbl.AcceptInbound(key, 1, now)) // stale
	require.True(t, tbl.AcceptInbound(key, 3, now))
}

func TestNextOutboundSeqMonotone(t *testing.T) {
	tbl := NewTable()
	key := PeerKey{Addr: "1.2.3.4:5", Token: [16]byte{1}}
	now := time.Now()
	var last uint32
	for i := 0; i < 5; i++ {
		seq := tbl.NextOutboundSeq(key, now)
		require.Greater(t, seq, last)
		last = seq
	}
}

func TestEvictExpired(t *testing.T) {
	tbl := NewTable()
	key := PeerKey{Addr: "1.2.3.4:5", Token: [16]byte{1}}
	old := time.Now().Add(-time.Hour)
	tbl.AcceptInbound(key, 1, old)
	n := tbl.EvictExpired(time.Now(), time.Minute)
	require.Equal(t, 1, n)
	require.Equal(t, 0, tbl.Len())
}

func TestSendReliableAckedFirstTry(t *testing.T) {
	waiter := NewAckWaiter()
	key := PeerKey{Addr: "1.2.3.4:5", Token: [16]byte{1}}
	sends := 0
	send := func(addr *net.UDPAddr, payload []byte) error {
		sends++
		go waiter.Deliver(key, 7)
		return nil
	}
	err := SendReliable(send, waiter, key, 7, &net.UDPAddr{}, []byte("x"), 50*time.Millisecond, 3)
	require.NoError(t, err)
	require.Equal(t, 1, sends)
}

func TestSendReliableExhaustsRetries(t *testing.T) {
	waiter := NewAckWaiter()
	key := PeerKey{Addr: "1.2.3.4:5", Token: [16]byte{2}}
	sends := 0
	send := func(addr *net.UDPAddr, payload []byte) error {
		sends++
		return nil
	}
	err := SendReliable(send, waiter, key, 9, &net.UDPAddr{}, []byte("x"), 5*time.Millisecond, 2)
	require.ErrorIs(t, err, ErrNoAck)
	require.Equal(t, 3, sends) // initial + 2 retries
}
