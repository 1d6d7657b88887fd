// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generate

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/StreamHouseAI/vrlforge/services/forge/diag"
	"github.com/StreamHouseAI/vrlforge/services/llm"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func newTestGenerator(t *testing.T, clients []llm.Client, opts ...Option) *Generator {
	t.Helper()
	g, err := NewGenerator(clients, opts...)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	g.sleep = noSleep
	return g
}

func TestGenerate_StripsVRLFence(t *testing.T) {
	client := llm.NewMockClient("claude-sonnet-4", llm.MockStep{
		Content: "Here is the parser:\n```vrl\n.parsed = true\n```\nDone.",
	})
	g := newTestGenerator(t, []llm.Client{client})

	res, err := g.Generate(context.Background(), Request{Task: "create a VRL parser"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Code != ".parsed = true" {
		t.Errorf("Code = %q", res.Code)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "vrl fence",
			content: "```vrl\n.a = 1\n```",
			want:    ".a = 1",
		},
		{
			name:    "generic fence",
			content: "text\n```\n.a = 1\n```\nmore",
			want:    ".a = 1",
		},
		{
			name:    "generic fence with language tag",
			content: "```ruby\n.a = 1\n```",
			want:    ".a = 1",
		},
		{
			name:    "no fence",
			content: "  .a = 1\n",
			want:    ".a = 1",
		},
		{
			name:    "unterminated vrl fence",
			content: "```vrl\n.a = 1",
			want:    ".a = 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.content); got != tt.want {
				t.Errorf("StripCodeFences = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerate_UsesLowTemperature(t *testing.T) {
	client := llm.NewMockClient("claude-sonnet-4")
	g := newTestGenerator(t, []llm.Client{client})

	if _, err := g.Generate(context.Background(), Request{Task: "create a parser"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	calls := client.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].Params.Temperature == nil || *calls[0].Params.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want 0.1", calls[0].Params.Temperature)
	}
}

func TestGenerate_RetriesInfrastructureFailures(t *testing.T) {
	client := llm.NewMockClient("claude-sonnet-4",
		llm.MockStep{Err: llm.ErrRateLimited},
		llm.MockStep{Err: llm.ErrTimeout},
		llm.MockStep{Content: "```vrl\n.a = 1\n```"},
	)
	g := newTestGenerator(t, []llm.Client{client})

	res, err := g.Generate(context.Background(), Request{Task: "create a parser"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Code != ".a = 1" {
		t.Errorf("Code = %q", res.Code)
	}
	if got := len(client.Calls()); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGenerate_RetryExhaustionFails(t *testing.T) {
	client := llm.NewMockClient("claude-sonnet-4",
		llm.MockStep{Err: llm.ErrRateLimited},
	)
	fallback := llm.NewMockClient("gpt-4o")
	g := newTestGenerator(t, []llm.Client{client, fallback})

	_, err := g.Generate(context.Background(), Request{Task: "create a parser"})
	if err == nil {
		t.Fatal("expected error after retry exhaustion")
	}
	if got := len(client.Calls()); got != 3 {
		t.Errorf("primary calls = %d, want 3", got)
	}
	// Infrastructure exhaustion does not fall back.
	if got := len(fallback.Calls()); got != 0 {
		t.Errorf("fallback calls = %d, want 0", got)
	}
}

func TestGenerate_AuthFailureNotRetried(t *testing.T) {
	client := llm.NewMockClient("claude-sonnet-4",
		llm.MockStep{Err: llm.ErrAuthFailure},
	)
	g := newTestGenerator(t, []llm.Client{client})

	_, err := g.Generate(context.Background(), Request{Task: "create a parser"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := len(client.Calls()); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestGenerate_RefusalFallsBackOnce(t *testing.T) {
	primary := llm.NewMockClient("claude-sonnet-4",
		llm.MockStep{Err: llm.ErrRefused},
	)
	fallback := llm.NewMockClient("gpt-4o",
		llm.MockStep{Content: "```vrl\n.a = 1\n```"},
	)
	g := newTestGenerator(t, []llm.Client{primary, fallback})

	res, err := g.Generate(context.Background(), Request{Task: "create a parser"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Model != "gpt-4o" {
		t.Errorf("Model = %q, want fallback", res.Model)
	}
	if got := len(primary.Calls()); got != 1 {
		t.Errorf("primary calls = %d, want 1", got)
	}
}

func TestGenerate_AllModelsRefusedFails(t *testing.T) {
	primary := llm.NewMockClient("claude-sonnet-4", llm.MockStep{Err: llm.ErrRefused})
	fallback := llm.NewMockClient("gpt-4o", llm.MockStep{Err: llm.ErrRefused})
	g := newTestGenerator(t, []llm.Client{primary, fallback})

	_, err := g.Generate(context.Background(), Request{Task: "create a parser"})
	if err == nil {
		t.Fatal("expected error when every model refuses")
	}
	if ClassifyError(err) != diag.Generation {
		t.Errorf("ClassifyError = %v, want GENERATION", ClassifyError(err))
	}
}

func TestGenerate_FeedbackRenderedIntoPrompt(t *testing.T) {
	client := llm.NewMockClient("claude-sonnet-4")
	g := newTestGenerator(t, []llm.Client{client})

	req := Request{
		Task:         "create a VRL parser",
		PreviousCode: "parts = split(.message)",
		Feedback: []diag.Diagnostic{
			{Category: diag.UnhandledFallible, Code: "E103", Message: "split is fallible"},
		},
	}
	if _, err := g.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	prompt := client.Calls()[0].Messages[0].Content
	if !strings.Contains(prompt, "parts = split(.message)") {
		t.Error("previous code missing from prompt")
	}
	if !strings.Contains(prompt, "E103") || !strings.Contains(prompt, "split is fallible") {
		t.Error("diagnostic feedback missing from prompt")
	}
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := DefaultRetryPolicy()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{3, 2 * time.Second},
		{5, 8 * time.Second},
		{10, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestPriceTable_Cost(t *testing.T) {
	table := DefaultPriceTable()
	tests := []struct {
		name string
		comp llm.Completion
		want float64
	}{
		{
			name: "sonnet per million",
			comp: llm.Completion{Model: "claude-sonnet-4", Usage: llm.Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000}},
			want: 18.00,
		},
		{
			name: "gpt-4o-mini matches before gpt-4o",
			comp: llm.Completion{Model: "gpt-4o-mini", Usage: llm.Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000}},
			want: 0.75,
		},
		{
			name: "provider cost wins",
			comp: llm.Completion{Model: "claude-sonnet-4", CostUSD: 0.42, Usage: llm.Usage{InputTokens: 1_000_000}},
			want: 0.42,
		},
		{
			name: "unknown model is free",
			comp: llm.Completion{Model: "mystery-model", Usage: llm.Usage{InputTokens: 1_000_000}},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Cost(&tt.comp); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cost = %v, want %v", got, tt.want)
			}
		})
	}
}
