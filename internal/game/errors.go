package game

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	InvalidCardSpec ErrorKind = iota + 1
	NotYourTurn
	IllegalMove
	AlreadyDrewThisTurn
	InvalidStateForOperation
	DeckExhaustedDraw
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidCardSpec:
		return "invalid card spec"
	case NotYourTurn:
		return "not your turn"
	case IllegalMove:
		return "illegal move"
	case AlreadyDrewThisTurn:
		return "already drew this turn"
	case InvalidStateForOperation:
		return "invalid state for operation"
	case DeckExhaustedDraw:
		return "deck exhausted"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned by every engine operation that rejects a request.
// Compare with errors.Is against the Err* values below.
type Error struct {
	Kind ErrorKind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Msg == "":
		return "game: " + e.Kind.String()
	case e.Msg == "":
		return fmt.Sprintf("game: %s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("game: %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("game: %s: %s: %s", e.Op, e.Kind, e.Msg)
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidCardSpec   = &Error{Kind: InvalidCardSpec}
	ErrNotYourTurn       = &Error{Kind: NotYourTurn}
	ErrIllegalMove       = &Error{Kind: IllegalMove}
	ErrAlreadyDrew       = &Error{Kind: AlreadyDrewThisTurn}
	ErrInvalidState      = &Error{Kind: InvalidStateForOperation}
	ErrDeckExhaustedDraw = &Error{Kind: DeckExhaustedDraw}
)

func newError(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the engine error kind from err, or 0 when err is not an engine error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
