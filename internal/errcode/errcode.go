// Package errcode defines the stable numeric error codes carried in
// ERROR frames, along with the reason strings sent alongside them.
package errcode

// Code is the wire-stable numeric error identifier placed in an ERROR
// frame's payload. Values must never be renumbered once shipped.
type Code uint16

const (
	Unknown Code = iota
	UnsupportedVersion
	NotReserved
	NotTurn
	BadUCI
	Illegal
	NotFound
	Visibility
	Full
	FocusDisabled
	NotAvailable
	UnknownCtrl
	BadToken
	Internal
)

var names = map[Code]string{
	Unknown:            "unknown",
	UnsupportedVersion: "unsupported version",
	NotReserved:        "board not reserved for this player",
	NotTurn:            "not this player's turn",
	BadUCI:             "malformed uci move",
	Illegal:            "illegal move",
	NotFound:           "not found",
	Visibility:         "insufficient trust tier",
	Full:               "capacity reached",
	FocusDisabled:      "focus mode disabled",
	NotAvailable:       "board not available to spectate",
	UnknownCtrl:        "unrecognized control code",
	BadToken:           "invalid token",
	Internal:           "internal error",
}

// maxReasonLen bounds the error_reason string placed on the wire so a
// single handler mistake can't inflate a response frame unboundedly.
const maxReasonLen = 64

// Reason returns the wire reason string for code, truncated to the
// maximum length an ERROR frame's payload reserves for it.
func Reason(code Code) string {
	s, ok := names[code]
	if !ok {
		s = names[Unknown]
	}
	if len(s) > maxReasonLen {
		return s[:maxReasonLen]
	}
	return s
}

// Err is an error carrying a wire Code, returned by handler-level
// operations so the dispatcher can translate it directly into an
// ERROR frame without re-classifying string messages.
type Err struct {
	Code Code
}

func (e *Err) Error() string { return Reason(e.Code) }

// New wraps code as an error.
func New(code Code) error { return &Err{Code: code} }

// CodeOf extracts the wire Code from err, defaulting to Internal for
// errors that did not originate from this package.
func CodeOf(err error) Code {
	if e, ok := err.(*Err); ok {
		return e.Code
	}
	return Internal
}
