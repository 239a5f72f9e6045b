package appointment

import "errors"

// ErrorKind classifies a booking failure so handlers can pick a status code
// without string matching.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindAuthorization
	KindConflict
	KindNotFound
	KindState
)

// Error is a classified business rule failure.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func validationErr(msg string) error    { return &Error{Kind: KindValidation, Message: msg} }
func authorizationErr(msg string) error { return &Error{Kind: KindAuthorization, Message: msg} }
func conflictErr(msg string) error      { return &Error{Kind: KindConflict, Message: msg} }
func notFoundErr(msg string) error      { return &Error{Kind: KindNotFound, Message: msg} }
func stateErr(msg string) error         { return &Error{Kind: KindState, Message: msg} }

// KindOf extracts the classification of err, or KindValidation false when
// err is not a business error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindValidation, false
}

// ErrSlotTaken is returned when the requested doctor, date and time are
// already held by an active appointment. The repository maps unique index
// violations to it so concurrent bookings fail cleanly.
var ErrSlotTaken = &Error{Kind: KindConflict, Message: "the selected time slot is no longer available"}
