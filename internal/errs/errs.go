// Package errs defines the sequencer's closed error-kind taxonomy.
//
// Every domain failure that crosses a component boundary is wrapped in an
// *Error carrying one of the Kind values below, so the API layer can map it
// to an HTTP status without inspecting error strings.
package errs

import "fmt"

// Kind is a closed taxonomy of sequencer-level error categories.
type Kind string

const (
	MalformedRequest  Kind = "MalformedRequest"
	NotFound          Kind = "NotFound"
	AlreadyExists     Kind = "AlreadyExists"
	Expired           Kind = "Expired"
	BadTimestamp      Kind = "BadTimestamp"
	StaleSequence     Kind = "StaleSequence"
	AmountRegression  Kind = "AmountRegression"
	Insolvent         Kind = "Insolvent"
	BadSignature      Kind = "BadSignature"
	StorageFailure    Kind = "StorageFailure"
	SettlementRevert  Kind = "SettlementReverted"
	Timeout           Kind = "Timeout"
)

// Error wraps an underlying error with a Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf("%s", msg)}
}

// Wrap builds an *Error around an existing cause.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; otherwise it returns StorageFailure as the conservative default
// for unrecognised internal failures.
func KindOf(err error) Kind {
	var e *Error
	if asError(err, &e) {
		return e.Kind
	}
	return StorageFailure
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
