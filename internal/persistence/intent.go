// Package persistence implements the write-through intent buffer: a
// per-profile append-only log of state-changing operations applied to
// durable storage out of band, tolerating partial failure (spec §4.4).
// Per spec §9's re-architecture note, the original's union-in-struct
// tagged variants become a proper Go sum type: the Intent interface
// with one concrete type per variant instead of a single struct
// carrying every field for every kind.
package persistence

// Kind identifies which durable side effect an Intent represents.
type Kind uint8

const (
	KindUpdateBoard Kind = iota
	KindCreateBoard
	KindUpdateBoardAssignmentTime
	KindCreateReservation
	KindRemoveReservation
	KindRecordGameResult
	KindUpdateSessionLastSeen
	KindCreateSession
	KindLinkSessionToPubkey
	KindRecordPayout
	KindRecordMove
)

// Intent is one durable side effect awaiting application.
type Intent interface {
	Kind() Kind
}

type UpdateBoard struct {
	BoardID uint64
	FEN     string
	Status  string
}

func (UpdateBoard) Kind() Kind { return KindUpdateBoard }

type CreateBoard struct {
	BoardID uint64
	FEN     string
	Status  string
}

func (CreateBoard) Kind() Kind { return KindCreateBoard }

type UpdateBoardAssignmentTime struct {
	BoardID uint64
}

func (UpdateBoardAssignmentTime) Kind() Kind { return KindUpdateBoardAssignmentTime }

type CreateReservation struct {
	BoardID        uint64
	Token          [16]byte
	TimeoutSeconds int
}

func (CreateReservation) Kind() Kind { return KindCreateReservation }

type RemoveReservation struct {
	BoardID uint64
}

func (RemoveReservation) Kind() Kind { return KindRemoveReservation }

type RecordGameResult struct {
	BoardID     uint64
	WinningSide string
}

func (RecordGameResult) Kind() Kind { return KindRecordGameResult }

type UpdateSessionLastSeen struct {
	Token [16]byte
}

func (UpdateSessionLastSeen) Kind() Kind { return KindUpdateSessionLastSeen }

type CreateSession struct {
	Token    [16]byte
	PlayerID int64
}

func (CreateSession) Kind() Kind { return KindCreateSession }

type LinkSessionToPubkey struct {
	Token     [16]byte
	PublicKey []byte
}

func (LinkSessionToPubkey) Kind() Kind { return KindLinkSessionToPubkey }

type RecordPayout struct {
	BoardID uint64
	Token   [16]byte
	Points  float64
}

func (RecordPayout) Kind() Kind { return KindRecordPayout }

type RecordMove struct {
	BoardID   uint64
	Token     [16]byte
	UCI       string
	MoveNumber int
}

func (RecordMove) Kind() Kind { return KindRecordMove }

// needsSessionLookup reports whether intent i requires resolving a
// token to a session id before it can be applied (spec §4.4:
// reservation/payout/move/session-touch intents).
func needsSessionLookup(i Intent) ([16]byte, bool) {
	switch v := i.(type) {
	case CreateReservation:
		return v.Token, true
	case RecordPayout:
		return v.Token, true
	case RecordMove:
		return v.Token, true
	case UpdateSessionLastSeen:
		return v.Token, true
	}
	return [16]byte{}, false
}
