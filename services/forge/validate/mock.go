// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validate

import (
	"context"
	"sync"

	"github.com/StreamHouseAI/vrlforge/services/forge/diag"
)

// CheckerFunc adapts a function to the SyntaxChecker interface.
type CheckerFunc func(ctx context.Context, code string) ([]diag.Diagnostic, error)

// Check implements SyntaxChecker.
func (f CheckerFunc) Check(ctx context.Context, code string) ([]diag.Diagnostic, error) {
	return f(ctx, code)
}

// ExecutorFunc adapts a function to the RuntimeExecutor interface.
type ExecutorFunc func(ctx context.Context, code, sample string) (*Execution, error)

// Execute implements RuntimeExecutor.
func (f ExecutorFunc) Execute(ctx context.Context, code, sample string) (*Execution, error) {
	return f(ctx, code, sample)
}

// CheckStep is one scripted syntax check outcome.
type CheckStep struct {
	Diags []diag.Diagnostic
	Err   error
}

// MockChecker returns scripted outcomes in order; the last step
// repeats once the script is exhausted. An empty script passes
// everything.
type MockChecker struct {
	mu    sync.Mutex
	steps []CheckStep
	calls int
}

// NewMockChecker builds a scripted syntax checker.
func NewMockChecker(steps ...CheckStep) *MockChecker {
	return &MockChecker{steps: steps}
}

// Check implements SyntaxChecker.
func (m *MockChecker) Check(ctx context.Context, code string) ([]diag.Diagnostic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.steps) == 0 {
		return nil, nil
	}
	step := m.steps[0]
	if len(m.steps) > 1 {
		m.steps = m.steps[1:]
	}
	return step.Diags, step.Err
}

// Calls reports how many checks ran.
func (m *MockChecker) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ExecStep is one scripted runtime execution outcome.
type ExecStep struct {
	Diags   []diag.Diagnostic
	Metrics *PerfMetrics
	Err     error
}

// MockExecutor returns scripted outcomes in order, one per sample
// execution; the last step repeats once the script is exhausted. An
// empty script succeeds with no metrics.
type MockExecutor struct {
	mu    sync.Mutex
	steps []ExecStep
	calls int
}

// NewMockExecutor builds a scripted runtime executor.
func NewMockExecutor(steps ...ExecStep) *MockExecutor {
	return &MockExecutor{steps: steps}
}

// Execute implements RuntimeExecutor.
func (m *MockExecutor) Execute(ctx context.Context, code, sample string) (*Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.steps) == 0 {
		return &Execution{Output: sample}, nil
	}
	step := m.steps[0]
	if len(m.steps) > 1 {
		m.steps = m.steps[1:]
	}
	if step.Err != nil {
		return nil, step.Err
	}
	return &Execution{Diagnostics: step.Diags, Metrics: step.Metrics, Output: sample}, nil
}

// Calls reports how many sample executions ran.
func (m *MockExecutor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
