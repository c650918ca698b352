// Package apexerr defines the named failure kinds shared by the pattern
// store and the lookup orchestrator. Every error that can cross an
// orchestrator boundary is one of these kinds; nothing else is allowed
// to escape unmapped.
package apexerr

import (
	"errors"
	"fmt"
)

// Kind identifies a failure category for metrics tallying and for
// callers that want to switch on error class without type assertions.
type Kind string

const (
	// KindSchema is a structural validation failure on ingest.
	KindSchema Kind = "SchemaError"

	// KindInvariant is a loaded pattern that contradicts a data-model
	// invariant (e.g. a stored trust_score that does not match the
	// Wilson lower bound derivation).
	KindInvariant Kind = "InvariantViolation"

	// KindBadRequest is a lookup request that violates a request limit.
	KindBadRequest Kind = "BadRequestError"

	// KindNotFound is a pattern id lookup with no matching record.
	KindNotFound Kind = "NotFoundError"

	// KindTimeout is a lookup that exceeded its caller-supplied deadline.
	KindTimeout Kind = "TimeoutError"

	// KindCancelled is a lookup whose cancellation token tripped.
	KindCancelled Kind = "CancelledError"

	// KindStore is a non-recoverable failure from the external store.
	KindStore Kind = "StoreError"

	// KindInvalidResourceType is a typed accessor called on the wrong
	// resource variant.
	KindInvalidResourceType Kind = "InvalidResourceTypeError"
)

// AllKinds lists every taxonomy member in a stable order, used by the
// metrics recorder to seed a zeroed error tally so snapshots always
// report every kind, even ones that have never fired.
func AllKinds() []Kind {
	return []Kind{
		KindSchema,
		KindInvariant,
		KindBadRequest,
		KindNotFound,
		KindTimeout,
		KindCancelled,
		KindStore,
		KindInvalidResourceType,
	}
}

// SchemaError reports a single structural validation failure at a field
// path. Validation collects every SchemaError it finds rather than
// short-circuiting on the first one, so callers can display all
// problems at once.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// SchemaErrors is a non-empty collection of structural validation
// failures returned together from a single validation pass.
type SchemaErrors []*SchemaError

func (e SchemaErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%d schema errors, first: %s", len(e), e[0].Error())
}

// InvariantViolation marks a loaded pattern that contradicts a §3
// invariant. It is fatal for that one pattern (the store excludes it)
// but non-fatal for the store as a whole.
type InvariantViolation struct {
	PatternID string
	Message   string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("pattern %s violates invariant: %s", e.PatternID, e.Message)
}

// BadRequestError is returned when a lookup request exceeds a documented
// limit (k out of range, too many candidate paths, task text too long).
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string { return e.Message }

// NotFoundError is returned for a pattern id with no matching record.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pattern not found: %s", e.ID)
}

// TimeoutError is returned when a lookup's deadline elapsed before the
// ranking pipeline finished.
type TimeoutError struct {
	Elapsed string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("lookup timed out after %s", e.Elapsed)
}

// CancelledError is returned when a lookup's cancellation token tripped.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "lookup cancelled" }

// StoreError wraps a non-recoverable failure surfaced by the external
// pattern store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// InvalidResourceTypeError is returned when a typed accessor is called
// on a Resource of the wrong kind.
type InvalidResourceTypeError struct {
	Want, Got string
}

func (e *InvalidResourceTypeError) Error() string {
	return fmt.Sprintf("invalid resource type: want %s, got %s", e.Want, e.Got)
}

// KindOf maps an error produced anywhere in this module to its taxonomy
// Kind, for metrics tallying. Errors that do not match any known kind
// (which should never happen once every call site maps its errors) are
// reported as KindStore so they are at least visible in the tally.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var schemaErrs SchemaErrors
	var schemaErr *SchemaError
	var invariant *InvariantViolation
	var badRequest *BadRequestError
	var notFound *NotFoundError
	var timeout *TimeoutError
	var cancelled *CancelledError
	var store *StoreError
	var invalidResource *InvalidResourceTypeError

	switch {
	case errors.As(err, &schemaErrs), errors.As(err, &schemaErr):
		return KindSchema
	case errors.As(err, &invariant):
		return KindInvariant
	case errors.As(err, &badRequest):
		return KindBadRequest
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &timeout):
		return KindTimeout
	case errors.As(err, &cancelled):
		return KindCancelled
	case errors.As(err, &invalidResource):
		return KindInvalidResourceType
	case errors.As(err, &store):
		return KindStore
	default:
		return KindStore
	}
}
