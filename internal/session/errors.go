package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActiveSession is returned when a user has no live session.
	ErrNoActiveSession = errors.New("no active session")
	// ErrStaleInteraction is returned for an answer that does not target the
	// question currently in flight, or that arrives after completion.
	ErrStaleInteraction = errors.New("stale interaction")
	ErrEmptyQuestionSet = errors.New("question set is empty")
	ErrExamRequired     = errors.New("exam mode requires an exam id")
)

// DeliveryError reports that the messaging layer failed after the session
// already moved forward. The cursor and the answer are kept.
type DeliveryError struct {
	Stage string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s: %v", e.Stage, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// PersistenceError reports that an answer append or the result write failed.
// A failed append leaves the question in flight, so the same answer may be
// sent again. A failed finalization happens after the last answer was stored
// and the cursor moved past the end: a resend is stale, and Abandon retries
// the finalization.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsDelivery reports whether err is a DeliveryError.
func IsDelivery(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
