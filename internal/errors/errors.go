// Package errors provides error handling for the XVAL cross-validation tool.
//
// The error taxonomy follows the run lifecycle: configuration errors (unknown
// problem, variant or algorithm) fail fast before any computation, while
// numerical and bridge failures are absorbed into non-converged results at
// the boundary and never surface as errors at all.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error by where in the run lifecycle it occurred.
type Kind int

const (
	// KindInternal is the default for errors with no specific classification.
	KindInternal Kind = iota
	// KindUnknownProblem indicates a problem name outside the closed catalogue.
	KindUnknownProblem
	// KindUnknownVariant indicates an unrecognized margin-classifier variant.
	KindUnknownVariant
	// KindUnknownAlgorithm indicates an algorithm token outside the closed set.
	KindUnknownAlgorithm
	// KindBridgeFailure indicates the external candidate process crashed,
	// timed out, or produced unparseable output.
	KindBridgeFailure
	// KindBadDataset indicates a dataset file that could not be read or decoded.
	KindBadDataset
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindUnknownProblem:
		return "unknown_problem"
	case KindUnknownVariant:
		return "unknown_variant"
	case KindUnknownAlgorithm:
		return "unknown_algorithm"
	case KindBridgeFailure:
		return "bridge_failure"
	case KindBadDataset:
		return "bad_dataset"
	default:
		return "internal"
	}
}

// Error is an error with classification and context.
type Error struct {
	// Kind classifies the error.
	Kind Kind
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// New creates a new error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a kind and message.
// If err is nil, Wrap returns nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Wrapf wraps an existing error with a kind and formatted message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, kind Kind, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or KindInternal if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err or any error in its chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsConfiguration reports whether err is a fail-fast configuration error,
// one that indicates a misconfigured run rather than a numerical outcome.
func IsConfiguration(err error) bool {
	switch KindOf(err) {
	case KindUnknownProblem, KindUnknownVariant, KindUnknownAlgorithm, KindBadDataset:
		return true
	}
	return false
}
