// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package diag

import (
	"errors"
	"testing"
)

func TestCategory_LocallyFixable(t *testing.T) {
	tests := []struct {
		category Category
		want     bool
	}{
		{Syntax, true},
		{TypeMismatch, true},
		{UnhandledFallible, true},
		{UndefinedReference, true},
		{UnnecessaryErrorHandling, true},
		{ArrayBounds, true},
		{Infrastructure, false},
		{Generation, false},
	}

	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			if got := tt.category.LocallyFixable(); got != tt.want {
				t.Errorf("LocallyFixable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategory_Retryable(t *testing.T) {
	for _, c := range AllCategories() {
		wantRetryable := c != Infrastructure && c != Generation
		if got := c.Retryable(); got != wantRetryable {
			t.Errorf("%s Retryable() = %v, want %v", c, got, wantRetryable)
		}
	}
}

func TestCategory_Class(t *testing.T) {
	if Syntax.Class() != ClassSyntax {
		t.Error("SYNTAX should be a syntax-class rule target")
	}
	if UnnecessaryErrorHandling.Class() != ClassStyle {
		t.Error("UNNECESSARY_ERROR_HANDLING should be a style-class rule target")
	}
	for _, c := range []Category{TypeMismatch, UnhandledFallible, UndefinedReference, ArrayBounds} {
		if c.Class() != ClassSemantic {
			t.Errorf("%s should be a semantic-class rule target", c)
		}
	}
}

func TestDedupe(t *testing.T) {
	diags := []Diagnostic{
		{Category: ArrayBounds, Code: "E620", Message: "index out of range"},
		{Category: ArrayBounds, Code: "E620", Message: "index out of range"},
		{Category: Syntax, Code: "E203", Message: "unexpected token"},
		{Category: ArrayBounds, Code: "E620", Message: "different message"},
	}

	out := Dedupe(diags)
	if len(out) != 3 {
		t.Fatalf("Dedupe returned %d diagnostics, want 3", len(out))
	}
	// Input order preserved.
	if out[0].Category != ArrayBounds || out[1].Category != Syntax {
		t.Errorf("Dedupe changed input order: %v", out)
	}
}

func TestFirstNonRetryable(t *testing.T) {
	diags := []Diagnostic{
		{Category: Syntax, Code: "E203"},
		{Category: Generation, Code: "refused"},
	}
	got := FirstNonRetryable(diags)
	if got == nil || got.Category != Generation {
		t.Fatalf("FirstNonRetryable = %v, want GENERATION", got)
	}

	if FirstNonRetryable(diags[:1]) != nil {
		t.Error("expected nil for all-retryable diagnostics")
	}
}

func TestInfra(t *testing.T) {
	d := Infra("timeout", errors.New("dial tcp: i/o timeout"))
	if d.Category != Infrastructure {
		t.Errorf("Category = %s, want INFRASTRUCTURE", d.Category)
	}
	if d.Code != "timeout" || d.Message == "" {
		t.Errorf("unexpected diagnostic: %+v", d)
	}
}
