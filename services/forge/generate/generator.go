// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package generate produces VRL candidates from a model, with retry,
// model fallback, rate limiting, and cost accounting.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/StreamHouseAI/vrlforge/pkg/logging"
	"github.com/StreamHouseAI/vrlforge/services/forge/diag"
	"github.com/StreamHouseAI/vrlforge/services/llm"
)

// defaultTemperature keeps sampling near-deterministic. Parser code
// wants correctness, not creativity.
const defaultTemperature = 0.1

// RetryPolicy bounds retries of infrastructure failures with capped
// exponential backoff.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries per model.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, 500ms
// doubling up to 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

// Backoff returns the delay before retrying after the given 1-based
// attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Request describes one candidate to produce.
type Request struct {
	// Task is the user's ask, e.g. "create a VRL parser for these
	// SSH logs".
	Task string

	// Context is the assembled prompt material: rules, samples,
	// iteration history.
	Context string

	// PreviousCode is the failing candidate being repaired, empty on
	// the first iteration.
	PreviousCode string

	// Feedback carries the diagnostics from the previous validation,
	// rendered into the prompt so the model can repair them.
	Feedback []diag.Diagnostic
}

// Result is one produced candidate with its cost.
type Result struct {
	// Code is the candidate VRL source with code fences stripped.
	Code string `json:"code"`

	// Model is the model that produced it, which may be a fallback.
	Model string `json:"model"`

	// CostUSD is the priced cost of the call.
	CostUSD float64 `json:"cost_usd"`

	// Usage is the provider-reported token usage.
	Usage llm.Usage `json:"usage"`
}

// Generator turns requests into candidates using a priority-ordered
// list of model clients.
type Generator struct {
	clients     []llm.Client
	prices      PriceTable
	policy      RetryPolicy
	limiter     *rate.Limiter
	temperature float32
	maxTokens   int
	log         *logging.Logger

	// sleep is swapped in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Generator.
type Option func(*Generator)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(g *Generator) { g.policy = p }
}

// WithRateLimit bounds outbound calls per second across all models.
func WithRateLimit(rps float64) Option {
	return func(g *Generator) { g.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithPriceTable overrides the default price table.
func WithPriceTable(t PriceTable) Option {
	return func(g *Generator) { g.prices = t }
}

// WithTemperature overrides the default sampling temperature.
func WithTemperature(t float32) Option {
	return func(g *Generator) { g.temperature = t }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(g *Generator) { g.maxTokens = n }
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(g *Generator) { g.log = log }
}

// NewGenerator builds a generator over a priority-ordered client
// list. The first client is the primary model; the rest are
// fallbacks for generation-class failures.
func NewGenerator(clients []llm.Client, opts ...Option) (*Generator, error) {
	if len(clients) == 0 {
		return nil, errors.New("generate: at least one model client required")
	}
	g := &Generator{
		clients:     clients,
		prices:      DefaultPriceTable(),
		policy:      DefaultRetryPolicy(),
		temperature: defaultTemperature,
		maxTokens:   4096,
		log:         logging.Default(),
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate produces one candidate.
//
// Infrastructure failures (rate limits, timeouts, transport errors)
// are retried on the same model with capped exponential backoff.
// Generation failures (refusals, empty output) move to the next model
// in the priority list; when the list is exhausted the last error is
// returned. Auth failures are never retried.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	messages := g.buildMessages(req)
	params := g.params()

	var lastErr error
	for _, client := range g.clients {
		completion, err := g.completeWithRetry(ctx, client, messages, params)
		if err == nil {
			code := StripCodeFences(completion.Content)
			if strings.TrimSpace(code) == "" {
				lastErr = fmt.Errorf("model %s: %w", client.Model(), llm.ErrEmptyContent)
				g.log.Warn("model returned no usable code, trying fallback", "model", client.Model())
				continue
			}
			return &Result{
				Code:    code,
				Model:   completion.Model,
				CostUSD: g.prices.Cost(completion),
				Usage:   completion.Usage,
			}, nil
		}

		lastErr = err
		if ClassifyError(err) == diag.Generation {
			g.log.Warn("generation failed, trying fallback model",
				"model", client.Model(), "error", err)
			continue
		}
		// Infrastructure errors do not fall back; retries already
		// happened inside completeWithRetry.
		return nil, err
	}
	return nil, fmt.Errorf("all models exhausted: %w", lastErr)
}

// completeWithRetry calls one client, retrying retryable
// infrastructure failures per the policy.
func (g *Generator) completeWithRetry(ctx context.Context, client llm.Client, messages []llm.Message, params llm.GenerationParams) (*llm.Completion, error) {
	var lastErr error
	for attempt := 1; attempt <= g.policy.MaxAttempts; attempt++ {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		completion, err := client.Complete(ctx, messages, params)
		if err == nil {
			return completion, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		if attempt == g.policy.MaxAttempts {
			break
		}

		delay := g.policy.Backoff(attempt)
		g.log.Warn("model call failed, backing off",
			"model", client.Model(), "attempt", attempt, "delay", delay, "error", err)
		if err := g.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("model %s: attempts exhausted: %w", client.Model(), lastErr)
}

func (g *Generator) params() llm.GenerationParams {
	temp := g.temperature
	maxTokens := g.maxTokens
	return llm.GenerationParams{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	}
}

// buildMessages renders the request into a chat exchange. Repair
// requests carry the failing code and a feedback block listing the
// distinct diagnostics from the last validation.
func (g *Generator) buildMessages(req Request) []llm.Message {
	var b strings.Builder
	if req.Context != "" {
		b.WriteString(req.Context)
		b.WriteString("\n\n")
	}
	b.WriteString(req.Task)

	if req.PreviousCode != "" {
		b.WriteString("\n\nThe previous attempt failed validation:\n\n```vrl\n")
		b.WriteString(req.PreviousCode)
		b.WriteString("\n```\n\nDiagnostics to fix:\n")
		for _, d := range req.Feedback {
			if d.Code != "" {
				fmt.Fprintf(&b, "- [%s %s] %s\n", d.Category, d.Code, d.Message)
			} else {
				fmt.Fprintf(&b, "- [%s] %s\n", d.Category, d.Message)
			}
		}
		b.WriteString("\nReturn the corrected VRL program, nothing else.")
	} else {
		b.WriteString("\n\nReturn only the VRL program.")
	}

	return []llm.Message{{Role: "user", Content: b.String()}}
}

// ClassifyError maps a generation error to a diagnostic category.
// Refusals and empty completions are the model's fault; everything
// else is infrastructure.
func ClassifyError(err error) diag.Category {
	switch {
	case errors.Is(err, llm.ErrRefused), errors.Is(err, llm.ErrEmptyContent):
		return diag.Generation
	default:
		return diag.Infrastructure
	}
}

// Retryable reports whether the error is worth retrying on the same
// model. Auth failures and refusals never are.
func retryable(err error) bool {
	switch {
	case errors.Is(err, llm.ErrAuthFailure):
		return false
	case errors.Is(err, llm.ErrRefused), errors.Is(err, llm.ErrEmptyContent):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

// StripCodeFences extracts code from a fenced markdown block. A
// ```vrl fence wins; otherwise the first generic fence is used; bare
// text passes through trimmed.
func StripCodeFences(content string) string {
	if idx := strings.Index(content, "```vrl"); idx >= 0 {
		rest := content[idx+len("```vrl"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if strings.Contains(content, "```") {
		parts := strings.SplitN(content, "```", 3)
		if len(parts) >= 3 {
			body := parts[1]
			// Drop a language tag on the fence line.
			if nl := strings.Index(body, "\n"); nl >= 0 && !strings.ContainsAny(body[:nl], " .=(") {
				body = body[nl+1:]
			}
			return strings.TrimSpace(body)
		}
	}
	return strings.TrimSpace(content)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
