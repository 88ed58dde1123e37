package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := NewToken()
	require.NoError(t, err)
	s := tok.String()
	require.Len(t, s, 22)
	back, ok := ParseToken(s)
	require.True(t, ok)
	require.Equal(t, tok, back)
}

func TestZeroToken(t *testing.T) {
	var z Token
	require.True(t, z.Zero())
	tok, _ := NewToken()
	require.False(t, tok.Zero())
}

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry(100)
	tok, _ := NewToken()
	now := time.Now()
	p := r.GetOrCreate(tok, now)
	require.Equal(t, tok, p.Token)
	p2 := r.GetOrCreate(tok, now.Add(time.Second))
	require.Same(t, p, p2)
}

func TestRegistryExpireIdle(t *testing.T) {
	r := NewRegistry(100)
	tok, _ := NewToken()
	old := time.Now().Add(-time.Hour)
	r.GetOrCreate(tok, old)
	n := r.ExpireIdle(time.Now(), time.Minute)
	require.Equal(t, 1, n)
	require.Equal(t, 0, r.Len())
}

func TestRegistryPersistentSurvivesExpiry(t *testing.T) {
	r := NewRegistry(100)
	tok, _ := NewToken()
	old := time.Now().Add(-time.Hour)
	r.GetOrCreate(tok, old)
	r.Promote(tok, []byte{1, 2, 3})
	n := r.ExpireIdle(time.Now(), time.Minute)
	require.Equal(t, 0, n)
	require.Equal(t, 1, r.Len())
}
