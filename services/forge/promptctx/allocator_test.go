// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package promptctx

import (
	"context"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		request string
		want    RequestKind
	}{
		{
			name:    "create with vrl target",
			request: "Create a VRL parser for these nginx logs",
			want:    KindCodeCreation,
		},
		{
			name:    "generate with transform target",
			request: "generate a transform for syslog",
			want:    KindCodeCreation,
		},
		{
			name:    "creation verb without target is not creation",
			request: "make it simpler",
			want:    KindGeneral,
		},
		{
			name:    "performance keyword",
			request: "why is this parser so slow",
			want:    KindPerformanceDebug,
		},
		{
			name:    "make it faster is performance not creation",
			request: "make it faster",
			want:    KindPerformanceDebug,
		},
		{
			name:    "validation keyword",
			request: "the script fails with a syntax problem",
			want:    KindValidationDebug,
		},
		{
			name:    "optimization keyword",
			request: "optimize the field extraction",
			want:    KindOptimization,
		},
		{
			name:    "analysis keyword",
			request: "help me understand these sample records",
			want:    KindSampleAnalysis,
		},
		{
			name:    "no keywords",
			request: "hello there",
			want:    KindGeneral,
		},
		{
			name:    "case insensitive",
			request: "WRITE a PARSER",
			want:    KindCodeCreation,
		},
		{
			name:    "empty request",
			request: "",
			want:    KindGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.request); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.request, got, tt.want)
			}
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "short", text: "abc", want: 0},
		{name: "seven chars", text: "abcdefg", want: 2},
		{name: "thirty five chars", text: strings.Repeat("x", 35), want: 10},
		{name: "rounds down", text: strings.Repeat("x", 36), want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokens(tt.text); got != tt.want {
				t.Errorf("EstimateTokens(len %d) = %d, want %d", len(tt.text), got, tt.want)
			}
		})
	}
}

func TestSelect_BudgetNeverExceeded(t *testing.T) {
	a := NewAllocator(Budget{MaxTotalTokens: 100})
	components := []Component{
		{Name: "a", Priority: 1, Tokens: 60, Category: CategoryRules},
		{Name: "b", Priority: 2, Tokens: 60, Category: CategoryRules},
		{Name: "c", Priority: 3, Tokens: 30, Category: CategorySamples},
	}

	sel := a.Select(KindGeneral, components)

	if sel.TotalTokens > 100 {
		t.Fatalf("TotalTokens = %d, exceeds budget 100", sel.TotalTokens)
	}
	// b does not fit after a; c still fits.
	wantNames := []string{"a", "c"}
	if len(sel.Components) != len(wantNames) {
		t.Fatalf("selected %d components, want %d", len(sel.Components), len(wantNames))
	}
	for i, name := range wantNames {
		if sel.Components[i].Name != name {
			t.Errorf("component[%d] = %q, want %q", i, sel.Components[i].Name, name)
		}
	}
}

func TestSelect_GreedyNoBacktracking(t *testing.T) {
	// A large high-priority component is taken even though skipping
	// it would let two smaller components fit.
	a := NewAllocator(Budget{MaxTotalTokens: 100})
	components := []Component{
		{Name: "big", Priority: 1, Tokens: 90},
		{Name: "small1", Priority: 2, Tokens: 40},
		{Name: "small2", Priority: 3, Tokens: 40},
	}

	sel := a.Select(KindGeneral, components)

	if len(sel.Components) != 1 || sel.Components[0].Name != "big" {
		t.Fatalf("selected %v, want only big", names(sel))
	}
	if sel.TotalTokens != 90 {
		t.Errorf("TotalTokens = %d, want 90", sel.TotalTokens)
	}
}

func TestSelect_CategoryCeiling(t *testing.T) {
	a := NewAllocator(Budget{
		MaxTotalTokens: 1000,
		CategoryLimits: map[string]int{CategorySamples: 50},
	})
	components := []Component{
		{Name: "s1", Priority: 1, Tokens: 40, Category: CategorySamples},
		{Name: "s2", Priority: 2, Tokens: 40, Category: CategorySamples},
		{Name: "r1", Priority: 3, Tokens: 40, Category: CategoryRules},
	}

	sel := a.Select(KindGeneral, components)

	got := names(sel)
	if len(got) != 2 || got[0] != "s1" || got[1] != "r1" {
		t.Fatalf("selected %v, want [s1 r1]", got)
	}
}

func TestSelect_PriorityOrderAndStableTies(t *testing.T) {
	a := NewAllocator(Budget{MaxTotalTokens: 1000})
	components := []Component{
		{Name: "late", Priority: 5, Tokens: 10},
		{Name: "tie-first", Priority: 2, Tokens: 10},
		{Name: "tie-second", Priority: 2, Tokens: 10},
		{Name: "first", Priority: 1, Tokens: 10},
	}

	sel := a.Select(KindGeneral, components)

	want := []string{"first", "tie-first", "tie-second", "late"}
	got := names(sel)
	if len(got) != len(want) {
		t.Fatalf("selected %d components, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSelect_KindEligibility(t *testing.T) {
	a := NewAllocator(DefaultBudget())
	components := []Component{
		{Name: "everyone", Priority: 1, Tokens: 10},
		{Name: "perf-only", Priority: 2, Tokens: 10, Kinds: []RequestKind{KindPerformanceDebug}},
		{Name: "creation-only", Priority: 3, Tokens: 10, Kinds: []RequestKind{KindCodeCreation}},
	}

	sel := a.Select(KindPerformanceDebug, components)

	got := names(sel)
	if len(got) != 2 || got[0] != "everyone" || got[1] != "perf-only" {
		t.Fatalf("selected %v, want [everyone perf-only]", got)
	}
}

func TestSelect_Deterministic(t *testing.T) {
	a := NewAllocator(Budget{MaxTotalTokens: 120})
	components := []Component{
		{Name: "a", Priority: 2, Tokens: 50},
		{Name: "b", Priority: 1, Tokens: 50},
		{Name: "c", Priority: 3, Tokens: 50},
	}

	first := a.Select(KindGeneral, components)
	for i := 0; i < 10; i++ {
		again := a.Select(KindGeneral, components)
		if again.TotalTokens != first.TotalTokens || len(again.Components) != len(first.Components) {
			t.Fatalf("run %d differs: %v vs %v", i, names(again), names(first))
		}
	}
}

func TestNewComponent_EstimatesTokens(t *testing.T) {
	c := NewComponent("rules", strings.Repeat("x", 70), 1, CategoryRules)
	if c.Tokens != 20 {
		t.Errorf("Tokens = %d, want 20", c.Tokens)
	}
}

func TestRender(t *testing.T) {
	sel := Selection{Components: []Component{
		{Name: "Parsing Rules", Content: "always use split!"},
		{Name: "Sample Data", Content: "{\"msg\":\"hi\"}"},
	}}

	out := Render(sel)

	if !strings.Contains(out, "=== Parsing Rules ===\nalways use split!") {
		t.Errorf("missing first section:\n%s", out)
	}
	if !strings.Contains(out, "=== Sample Data ===") {
		t.Errorf("missing second section:\n%s", out)
	}
}

func TestAssemble(t *testing.T) {
	a := NewAllocator(DefaultBudget())
	components := []Component{
		NewComponent("Samples", "line one\nline two", 1, CategorySamples),
	}

	prompt, sel := a.Assemble(context.Background(), "the parser fails with an error", components)

	if sel.Kind != KindValidationDebug {
		t.Errorf("Kind = %v, want %v", sel.Kind, KindValidationDebug)
	}
	if !strings.Contains(prompt, "line one") {
		t.Errorf("prompt missing sample content:\n%s", prompt)
	}
}

func TestNewAllocator_ZeroBudgetUsesDefault(t *testing.T) {
	a := NewAllocator(Budget{})
	if a.Budget().MaxTotalTokens != 8000 {
		t.Errorf("MaxTotalTokens = %d, want 8000", a.Budget().MaxTotalTokens)
	}
	if a.Budget().CategoryLimits[CategoryRules] != 3000 {
		t.Errorf("rules ceiling = %d, want 3000", a.Budget().CategoryLimits[CategoryRules])
	}
}

func names(sel Selection) []string {
	out := make([]string, 0, len(sel.Components))
	for _, c := range sel.Components {
		out = append(out, c.Name)
	}
	return out
}
