// Package player implements the player registry: token-identified
// session rows with optional persistent public-key identity, score,
// games played, and idle expiration (spec §3's Player entity, §4.5's
// token lifecycle).
package player

import (
	"crypto/rand"
	"encoding/base64"
)

// TokenSize is the 16-byte opaque credential size (spec §3).
const TokenSize = 16

// Token is the wire/identity credential. Go's crypto/rand is already
// safe for concurrent use without a shared-state RNG handle, so this
// satisfies spec §5's "per-thread RNG, never shared" requirement
// without a manual per-goroutine generator: each call reads fresh OS
// entropy independently, and no generator state is held across calls.
type Token [TokenSize]byte

// NewToken generates a fresh random token.
func NewToken() (Token, error) {
	var t Token
	if _, err := rand.Read(t[:]); err != nil {
		return Token{}, err
	}
	return t, nil
}

// String renders t as the URL-safe, unpadded base64 form spec §3
// requires (22 characters for 16 bytes).
func (t Token) String() string {
	return base64.RawURLEncoding.EncodeToString(t[:])
}

// ParseToken decodes the 22-character URL-safe base64 form back to a
// Token (spec §8's round-trip law).
func ParseToken(s string) (Token, bool) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(b) != TokenSize {
		return Token{}, false
	}
	var t Token
	copy(t[:], b)
	return t, true
}

// Zero reports whether t is the all-zero token (an invalid/absent
// credential per the decoding contract in spec §4.1).
func (t Token) Zero() bool {
	for _, b := range t {
		if b != 0 {
			return false
		}
	}
	return true
}
