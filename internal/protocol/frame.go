// Package protocol implements the length-prefixed UDP wire format: a
// fixed header followed by a variable-length UCI move string and a
// control-specific payload. Fields are big-endian, matching the frame
// table the runtime is built against. This generalizes the teacher's
// bytes.Buffer + encoding/binary framing in
// Ancillary-AGI-foundry/networking/shared/messages.go to the fixed
// offsets this protocol requires instead of that teacher's
// type+length+varint-free blob layout.
package protocol

import (
	"encoding/binary"
	"errors"
)

// Ctrl is the one-byte control code identifying a frame's purpose.
type Ctrl uint8

const (
	CtrlClientHello Ctrl = iota
	CtrlServerHello
	CtrlPlayerMove
	CtrlBoardUpdate
	CtrlAck
	CtrlError
	CtrlListProfiles
	CtrlProfilesList
	CtrlGetProfileInfo
	CtrlProfileInfo
	CtrlLoginRequest
	CtrlLoginSuccess
	CtrlLoginFailed
	CtrlSpectateGame
	CtrlSpectateStop
	CtrlSpectateUpdate
	CtrlServerNotification
	CtrlGetPlayerStats
	CtrlPlayerStatsData
	CtrlGetLeaderboard
	CtrlLeaderboardData
	CtrlGetLegalMoves
	CtrlLegalMoves

	ctrlCount
)

// Valid reports whether c is a known control code.
func (c Ctrl) Valid() bool { return c < ctrlCount }

// unreliableByDefault reports whether c is a control code always sent fire-and-forget.
func (c Ctrl) unreliableByDefault() bool {
	return c == CtrlSpectateUpdate || c == CtrlServerNotification
}

const (
	// FlagUnreliable marks a frame that must not be retransmitted and
	// carries seq_num=0.
	FlagUnreliable uint8 = 1 << 0
	// capability bits occupy the high nibble of flags.
	capabilityMask uint8 = 0xF0
)

const (
	headerSize   = 33 // bytes 0..32 inclusive, before the uci tail
	tokenSize    = 16
	// MaxUCILength bounds uci_len per the frame table (max "e7e8q").
	MaxUCILength = 6
)

const (
	// ProtoVersion is the highest protocol version this server speaks.
	// CLIENT_HELLO negotiation replies with min(client_version,
	// ProtoVersion) in header_version.
	ProtoVersion uint8 = 1
	// MinClientVersion is the floor a CLIENT_HELLO's advertised version
	// is clamped up to before the version check runs.
	MinClientVersion uint32 = 1
)

// Capability bits occupy the high nibble of flags, alongside
// FlagUnreliable's low bit.
const (
	CapHotReload    uint8 = 1 << 4
	CapProfileState uint8 = 1 << 5
	// SupportedCaps is the full set this server can negotiate down to.
	SupportedCaps = CapHotReload | CapProfileState
)

var (
	ErrTooShort     = errors.New("protocol: frame shorter than header")
	ErrUnknownCtrl  = errors.New("protocol: unknown control code")
	ErrBadUCILen    = errors.New("protocol: uci_len exceeds maximum")
	ErrZeroToken    = errors.New("protocol: zero token on non-ack frame")
	ErrTruncatedUCI = errors.New("protocol: declared uci_len exceeds buffer")
)

// Frame is the decoded representation of one datagram.
type Frame struct {
	Ctrl          Ctrl
	Flags         uint8
	HeaderVersion uint8
	Token         [tokenSize]byte
	BoardID       uint64
	SeqNum        uint32
	UCI           string
	Payload       []byte
}

// Unreliable reports whether this frame is marked fire-and-forget.
func (f *Frame) Unreliable() bool { return f.Flags&FlagUnreliable != 0 }

// Capabilities returns the high-nibble capability bits carried in flags.
func (f *Frame) Capabilities() uint8 { return f.Flags & capabilityMask }

// ZeroToken reports whether the frame's token is all-zero.
func (f *Frame) ZeroToken() bool {
	for _, b := range f.Token {
		if b != 0 {
			return false
		}
	}
	return true
}

// Decode parses raw bytes into a Frame. Per the decoding contract, a
// frame shorter than the header, an out-of-range uci_len, an unknown
// control code, or a zero token on a non-ACK frame is rejected: the
// caller must not dispatch a Frame when err != nil.
func Decode(raw []byte) (*Frame, error) {
	if len(raw) < headerSize {
		return nil, ErrTooShort
	}
	f := &Frame{
		Ctrl:          Ctrl(raw[0]),
		Flags:         raw[1],
		HeaderVersion: raw[2],
		// raw[3] is reserved, always zero on the wire, ignored on read.
		SeqNum: binary.BigEndian.Uint32(raw[28:32]),
	}
	if !f.Ctrl.Valid() {
		return nil, ErrUnknownCtrl
	}
	copy(f.Token[:], raw[4:20])
	f.BoardID = binary.BigEndian.Uint64(raw[20:28])

	uciLen := int(raw[32])
	if uciLen > MaxUCILength {
		return nil, ErrBadUCILen
	}
	if len(raw) < headerSize+uciLen {
		return nil, ErrTruncatedUCI
	}
	f.UCI = string(raw[headerSize : headerSize+uciLen])
	f.Payload = append([]byte(nil), raw[headerSize+uciLen:]...)

	if f.Ctrl != CtrlAck && f.ZeroToken() {
		return nil, ErrZeroToken
	}
	return f, nil
}

// Encode serializes f back to wire bytes. Encode(Decode(raw)) == raw
// for every legal frame (§8's round-trip law).
func Encode(f *Frame) []byte {
	uci := f.UCI
	if len(uci) > MaxUCILength {
		uci = uci[:MaxUCILength]
	}
	out := make([]byte, headerSize+len(uci)+len(f.Payload))
	out[0] = byte(f.Ctrl)
	out[1] = f.Flags
	out[2] = f.HeaderVersion
	out[3] = 0
	copy(out[4:20], f.Token[:])
	binary.BigEndian.PutUint64(out[20:28], f.BoardID)
	binary.BigEndian.PutUint32(out[28:32], f.SeqNum)
	out[32] = byte(len(uci))
	copy(out[headerSize:], uci)
	copy(out[headerSize+len(uci):], f.Payload)
	return out
}
