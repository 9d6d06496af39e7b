// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package kgerrors defines the closed set of typed error kinds the core
// components can return, per the error model in spec.md §7.
package kgerrors

import "fmt"

// Kind identifies one of the core's recoverable or fatal error categories.
type Kind string

const (
	// InvalidInput marks a precondition violation: an empty path or an empty
	// name argument after normalization. Local to IdGenerator.
	InvalidInput Kind = "InvalidInput"
	// DuplicatePath marks a DocumentRegistry registration for a path already
	// registered to a different document id.
	DuplicatePath Kind = "DuplicatePath"
	// MalformedElement marks a parsed element whose shape the extractor
	// cannot interpret, e.g. a heading with level outside 1-6.
	MalformedElement Kind = "MalformedElement"
	// EmissionFailure marks a value the RdfEmitter could not represent.
	// Fatal to the run.
	EmissionFailure Kind = "EmissionFailure"
	// Cancelled marks an orderly shutdown; not an error per se, but
	// surfaced so callers can distinguish it from normal completion.
	Cancelled Kind = "Cancelled"
)

// Error is the core's structured error type: a Kind plus a message plus an
// optional wrapped cause, so callers can dispatch on Kind with errors.As
// without string matching.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// New creates an Error of the given kind. err may be nil.
func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap enables errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, kgerrors.New(kgerrors.DuplicatePath, "", nil)) or,
// more commonly, check a Kind directly via As.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Recoverable reports whether an error of this kind should be captured in a
// per-run diagnostics channel and allow processing to continue, as opposed
// to halting the run (see spec.md §7's propagation policy).
func (k Kind) Recoverable() bool {
	switch k {
	case InvalidInput, DuplicatePath, MalformedElement:
		return true
	default:
		return false
	}
}
