package model

import (
	"errors"
	"fmt"
)

// ErrorKind is the category of a failure.
type ErrorKind string

const (
	KindInsufficientInput   ErrorKind = "insufficient_input"
	KindNoCandidatesFound   ErrorKind = "no_candidates_found"
	KindPersistenceFailure  ErrorKind = "persistence_failure"
	KindPartialBatchFailure ErrorKind = "partial_batch_failure"
	KindInvalidInput        ErrorKind = "invalid_input"
	KindSelectionCapped     ErrorKind = "selection_capped"
)

type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	// ErrInsufficientInput: fewer than two items were available. Not fatal.
	ErrInsufficientInput = &Error{Kind: KindInsufficientInput, Message: "at least two items are required"}
	// ErrNoCandidatesFound: every candidate fell below the thresholds. Not fatal.
	ErrNoCandidatesFound = &Error{Kind: KindNoCandidatesFound, Message: "no candidate cleared the quality floor"}
	// ErrSelectionCapped: candidates were eligible but the group is too small to keep any.
	ErrSelectionCapped = &Error{Kind: KindSelectionCapped, Message: "the group is too small for any relationship to be kept"}
)

// NoticeFor returns the sentinel behind a non-fatal notice kind, or nil.
func NoticeFor(kind ErrorKind) *Error {
	switch kind {
	case KindInsufficientInput:
		return ErrInsufficientInput
	case KindNoCandidatesFound:
		return ErrNoCandidatesFound
	case KindSelectionCapped:
		return ErrSelectionCapped
	}
	return nil
}

func NewPersistenceFailure(op string, err error) *Error {
	return &Error{Kind: KindPersistenceFailure, Op: op, Message: "store rejected the operation", Err: err}
}

func NewInvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NewPartialBatchFailure reports a batch where the store confirmed only some of the
// requested deletions. err is the store's error, if it returned one.
func NewPartialBatchFailure(op string, requested, confirmed int, err error) *Error {
	return &Error{
		Kind:    KindPartialBatchFailure,
		Op:      op,
		Message: fmt.Sprintf("%d of %d deletions confirmed", confirmed, requested),
		Err:     err,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
