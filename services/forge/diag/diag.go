// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package diag defines the diagnostic model shared by the validator
// adapter, the fix-rule factory, and the iteration controller.
//
// A Diagnostic describes one validation failure reported by the
// external syntax checker or runtime executor. Each diagnostic is
// attached to exactly one candidate and is immutable once recorded.
package diag

// Category classifies a diagnostic by the kind of failure it
// describes. The category drives both fix-rule selection and the
// controller's retry policy.
type Category string

const (
	// Syntax is a parse-level failure. Always attempted locally first
	// since it blocks everything else.
	Syntax Category = "SYNTAX"

	// TypeMismatch is a value of the wrong type flowing into an
	// operation.
	TypeMismatch Category = "TYPE_MISMATCH"

	// UnhandledFallible is a call that can fail with no error
	// handling (VRL E103).
	UnhandledFallible Category = "UNHANDLED_FALLIBLE_OPERATION"

	// UndefinedReference is an identifier or function the model
	// invented (VRL E110 family).
	UndefinedReference Category = "UNDEFINED_REFERENCE"

	// UnnecessaryErrorHandling is error handling added where none is
	// needed (VRL E651).
	UnnecessaryErrorHandling Category = "UNNECESSARY_ERROR_HANDLING"

	// ArrayBounds is an array access without a length guard.
	ArrayBounds Category = "ARRAY_BOUNDS"

	// Infrastructure is a network or process-level failure in an
	// external collaborator, not a defect in the candidate code.
	Infrastructure Category = "INFRASTRUCTURE"

	// Generation means the model refused or produced unusable output.
	Generation Category = "GENERATION"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// LocallyFixable reports whether a deterministic fix rule may resolve
// diagnostics of this category without another model call.
func (c Category) LocallyFixable() bool {
	switch c {
	case Syntax, TypeMismatch, UnhandledFallible, UndefinedReference,
		UnnecessaryErrorHandling, ArrayBounds:
		return true
	default:
		return false
	}
}

// Retryable reports whether another attempt (local fix or model call)
// can address diagnostics of this category. Generation failures are
// terminal for the session; Infrastructure failures are retried by
// the call-level retry policy before being reported here, so by the
// time one reaches a candidate it is terminal too.
func (c Category) Retryable() bool {
	switch c {
	case Infrastructure, Generation:
		return false
	default:
		return true
	}
}

// RuleClass orders fix rules so an earlier fix cannot be undone by a
// later one: syntax rewrites run first, then semantic/type rewrites,
// then style cleanups.
type RuleClass int

const (
	// ClassSyntax covers parse-level rewrites.
	ClassSyntax RuleClass = iota

	// ClassSemantic covers type and safety rewrites.
	ClassSemantic

	// ClassStyle covers cleanups like removing unnecessary error
	// handling.
	ClassStyle
)

// Class returns the fix ordering class for the category.
func (c Category) Class() RuleClass {
	switch c {
	case Syntax:
		return ClassSyntax
	case UnnecessaryErrorHandling:
		return ClassStyle
	default:
		return ClassSemantic
	}
}

// AllCategories returns every defined category.
func AllCategories() []Category {
	return []Category{
		Syntax,
		TypeMismatch,
		UnhandledFallible,
		UndefinedReference,
		UnnecessaryErrorHandling,
		ArrayBounds,
		Infrastructure,
		Generation,
	}
}

// Location is an optional source position for a diagnostic.
type Location struct {
	// Line is 1-based.
	Line int `json:"line"`

	// Column is 1-based, 0 when unknown.
	Column int `json:"column,omitempty"`
}

// Diagnostic is a structured description of one validation failure.
type Diagnostic struct {
	// Category classifies the failure.
	Category Category `json:"category"`

	// Code is the opaque identifier from the source tool, e.g. the
	// VRL compiler's "E103". May also carry a pattern hint such as
	// "split(" for fallible-call diagnostics.
	Code string `json:"code"`

	// Message is the human-readable failure text.
	Message string `json:"message"`

	// Location is the source position, when the tool reported one.
	Location *Location `json:"location,omitempty"`
}

// Key returns a stable identity used for de-duplicating diagnostics
// aggregated across multiple sample inputs.
func (d Diagnostic) Key() string {
	return string(d.Category) + "|" + d.Code + "|" + d.Message
}

// Dedupe returns the distinct diagnostics in input order.
func Dedupe(diags []Diagnostic) []Diagnostic {
	seen := make(map[string]bool, len(diags))
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		if !seen[d.Key()] {
			seen[d.Key()] = true
			out = append(out, d)
		}
	}
	return out
}

// AnyLocallyFixable reports whether at least one diagnostic belongs
// to a locally fixable category.
func AnyLocallyFixable(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Category.LocallyFixable() {
			return true
		}
	}
	return false
}

// FirstNonRetryable returns the first diagnostic whose category is
// not retryable, or nil if all are retryable.
func FirstNonRetryable(diags []Diagnostic) *Diagnostic {
	for i := range diags {
		if !diags[i].Category.Retryable() {
			return &diags[i]
		}
	}
	return nil
}

// Infra wraps an external failure into a single Infrastructure
// diagnostic so adapters never surface raw errors.
func Infra(code string, err error) Diagnostic {
	msg := "external call failed"
	if err != nil {
		msg = err.Error()
	}
	return Diagnostic{
		Category: Infrastructure,
		Code:     code,
		Message:  msg,
	}
}
