package models

import (
	"errors"
	"fmt"
	"strings"
)

// TransientSourceError marks a network or rate-limit failure from a price
// source. Callers retry or fall through to the next adapter; it is never
// fatal to a cycle on its own.
type TransientSourceError struct {
	Source string
	Err    error
}

func (e *TransientSourceError) Error() string {
	return fmt.Sprintf("source %s: transient: %v", e.Source, e.Err)
}

func (e *TransientSourceError) Unwrap() error { return e.Err }

// SchemaError marks a source response with an unexpected shape. That source's
// contribution is dropped for the cycle.
type SchemaError struct {
	Source string
	Detail string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s: schema: %s: %v", e.Source, e.Detail, e.Err)
	}
	return fmt.Sprintf("source %s: schema: %s", e.Source, e.Detail)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ColdStartError is fatal: no persisted series exists and the bulk backfill
// failed, so there is nothing to serve.
type ColdStartError struct {
	Err error
}

func (e *ColdStartError) Error() string { return fmt.Sprintf("cold start failed: %v", e.Err) }

func (e *ColdStartError) Unwrap() error { return e.Err }

// SourcesExhaustedError means every spot-quote adapter in the fallback chain
// failed. The cycle fails; the previously cached Update Result stays valid.
type SourcesExhaustedError struct {
	Tried []string
	Last  error
}

func (e *SourcesExhaustedError) Error() string {
	return fmt.Sprintf("all spot sources exhausted (tried %s): %v", strings.Join(e.Tried, ", "), e.Last)
}

func (e *SourcesExhaustedError) Unwrap() error { return e.Last }

// PreconditionError is a programming error: an analytics query was invoked
// before any annotated series exists. Always surfaced, never defaulted.
type PreconditionError struct {
	Op string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: no annotated series computed yet", e.Op)
}

// IsTransient reports whether err is (or wraps) a TransientSourceError.
func IsTransient(err error) bool {
	var t *TransientSourceError
	return errors.As(err, &t)
}

// IsSchema reports whether err is (or wraps) a SchemaError.
func IsSchema(err error) bool {
	var s *SchemaError
	return errors.As(err, &s)
}

// IsPrecondition reports whether err is (or wraps) a PreconditionError.
func IsPrecondition(err error) bool {
	var p *PreconditionError
	return errors.As(err, &p)
}
