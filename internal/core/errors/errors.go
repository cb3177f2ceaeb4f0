// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Source adapter errors.
var (
	// ErrListingFailed indicates a source listing could not be fetched or parsed.
	ErrListingFailed = errors.New("listing failed")

	// ErrSelectorNotFound indicates an expected HTML element was missing from a page.
	ErrSelectorNotFound = errors.New("selector not found")

	// ErrNetwork indicates a transport-level failure talking to an external service.
	ErrNetwork = errors.New("network error")

	// ErrNoContent indicates a fetch succeeded but produced no usable body.
	ErrNoContent = errors.New("no content")

	// ErrAuthFailed indicates a source login did not yield a session.
	ErrAuthFailed = errors.New("authentication failed")
)

// Enrichment errors.
var (
	// ErrEnrichmentFailed indicates the LLM did not produce a schema-valid answer.
	ErrEnrichmentFailed = errors.New("enrichment failed")

	// ErrSchemaMismatch indicates an LLM response did not match the requested schema.
	ErrSchemaMismatch = errors.New("response does not match schema")
)

// Lookup errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrStatusNotFound indicates a workflow status name is not seeded.
	ErrStatusNotFound = errors.New("status not found")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrUnexpectedStatus indicates an HTTP response with a non-success status code.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrUnparseableDate indicates a raw date value could not be parsed.
	ErrUnparseableDate = errors.New("unparseable date")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidID indicates an invalid identifier.
	ErrInvalidID = errors.New("invalid id")
)

// Configuration errors.
var (
	// ErrUnknownSource indicates a configuration entry names a source that is not compiled in.
	ErrUnknownSource = errors.New("unknown source")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
