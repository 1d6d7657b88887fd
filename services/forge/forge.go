// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package forge is the public entry point: submit a session config,
// get back the best candidate and the full attempt ledger.
package forge

import (
	"context"
	"fmt"
	"time"

	"github.com/StreamHouseAI/vrlforge/pkg/logging"
	"github.com/StreamHouseAI/vrlforge/services/forge/control"
	"github.com/StreamHouseAI/vrlforge/services/forge/fixer"
	"github.com/StreamHouseAI/vrlforge/services/forge/generate"
	"github.com/StreamHouseAI/vrlforge/services/forge/session"
	"github.com/StreamHouseAI/vrlforge/services/forge/validate"
	"github.com/StreamHouseAI/vrlforge/services/llm"
)

// Status is the terminal outcome of a session.
type Status string

const (
	// StatusSuccess means a candidate passed validation.
	StatusSuccess Status = "SUCCESS"

	// StatusBudgetExhausted means cost or iterations ran out first.
	StatusBudgetExhausted Status = "BUDGET_EXHAUSTED"

	// StatusAborted means a non-retryable failure stopped the run.
	StatusAborted Status = "ABORTED"
)

// SessionResult is everything a caller learns about a finished run.
type SessionResult struct {
	// SessionID identifies the run in logs and traces.
	SessionID string `json:"session_id"`

	// Status is the terminal outcome.
	Status Status `json:"status"`

	// Best is the winning candidate, nil unless Status is SUCCESS.
	Best *session.Candidate `json:"best,omitempty"`

	// Candidates is the complete ledger, passing and failed alike.
	Candidates []session.Candidate `json:"candidates"`

	// CostUSD is total model spend.
	CostUSD float64 `json:"cost_usd"`

	// BillableCalls is how many paid model calls were made.
	BillableCalls int `json:"billable_calls"`

	// Iterations is how many billable iterations ran. Local fixes
	// are counted separately in LocalFixes.
	Iterations int `json:"iterations"`

	// LocalFixes is how many free local rewrites were applied.
	LocalFixes int `json:"local_fixes"`

	// PerformanceIndex is the winner's events/CPU% normalized by the
	// session's benchmark multiplier. Zero when the winner was never
	// measured or no candidate won.
	PerformanceIndex int `json:"performance_index,omitempty"`

	// PerformanceTier is the winner's named performance band, empty
	// when the winner was never measured or no candidate won.
	PerformanceTier string `json:"performance_tier,omitempty"`

	// Duration is wall-clock run time.
	Duration time.Duration `json:"duration"`

	// Error explains an ABORTED status.
	Error string `json:"error,omitempty"`
}

// Engine wires the loop's collaborators once and runs sessions
// against them. Engines are safe for concurrent Submits; each call
// gets its own session state.
type Engine struct {
	checker    validate.SyntaxChecker
	executor   validate.RuntimeExecutor
	fixer      *fixer.Fixer
	log        *logging.Logger
	hooks      []control.Hook
	rateRPS    float64
	newClients func(models []string) ([]llm.Client, error)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log *logging.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// WithHook registers a transition hook applied to every session.
func WithHook(h control.Hook) EngineOption {
	return func(e *Engine) { e.hooks = append(e.hooks, h) }
}

// WithRateLimit bounds model calls per second per session.
func WithRateLimit(rps float64) EngineOption {
	return func(e *Engine) { e.rateRPS = rps }
}

// WithClientFactory overrides how model ids become clients. Tests
// inject mocks here.
func WithClientFactory(f func(models []string) ([]llm.Client, error)) EngineOption {
	return func(e *Engine) { e.newClients = f }
}

// NewEngine builds an engine over a syntax checker and runtime
// executor, typically both a *validate.VectorTool.
func NewEngine(checker validate.SyntaxChecker, executor validate.RuntimeExecutor, opts ...EngineOption) *Engine {
	e := &Engine{
		checker:    checker,
		executor:   executor,
		fixer:      fixer.New(),
		log:        logging.Default(),
		newClients: llm.NewClientsForModels,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit runs one session to completion.
//
// Setup problems (bad config, unknown models) return an error. Run
// outcomes, including aborts, are reported on the result; an ABORTED
// result carries the cause in its Error field.
func (e *Engine) Submit(ctx context.Context, cfg session.Config) (*SessionResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}

	clients, err := e.newClients(cfg.Models)
	if err != nil {
		return nil, fmt.Errorf("model clients: %w", err)
	}

	genOpts := []generate.Option{generate.WithLogger(e.log)}
	if e.rateRPS > 0 {
		genOpts = append(genOpts, generate.WithRateLimit(e.rateRPS))
	}
	gen, err := generate.NewGenerator(clients, genOpts...)
	if err != nil {
		return nil, err
	}

	adapter := validate.NewAdapter(e.checker, e.executor, e.log)
	ctrlOpts := []control.ControllerOption{control.WithLogger(e.log)}
	for _, h := range e.hooks {
		ctrlOpts = append(ctrlOpts, control.WithHook(h))
	}
	controller := control.NewController(gen, adapter, e.fixer, ctrlOpts...)

	sess := session.New(cfg)
	start := time.Now()
	final, runErr := controller.Run(ctx, sess)

	result := &SessionResult{
		SessionID:     sess.ID(),
		Status:        statusOf(final),
		Candidates:    sess.Ledger().All(),
		CostUSD:       sess.CostUSD(),
		BillableCalls: sess.BillableCalls(),
		Iterations:    sess.Iterations(),
		LocalFixes:    sess.LocalFixes(),
		Duration:      time.Since(start),
	}
	if final == control.StateSuccess {
		result.Best = sess.Ledger().Best()
		if result.Best != nil && result.Best.Perf != nil {
			result.PerformanceIndex = result.Best.Perf.PerformanceIndex(cfg.BenchmarkMultiplier)
			result.PerformanceTier = result.Best.Perf.Tier()
		}
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}
	return result, nil
}

func statusOf(final control.State) Status {
	switch final {
	case control.StateSuccess:
		return StatusSuccess
	case control.StateBudgetExhausted:
		return StatusBudgetExhausted
	default:
		return StatusAborted
	}
}
