// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validate checks candidate VRL code against the sample logs
// and turns the results into structured diagnostics.
//
// The adapter never returns an error: collaborator failures and
// panics are folded into a single INFRASTRUCTURE diagnostic so the
// iteration controller only ever deals in Results.
package validate

import (
	"context"
	"fmt"

	"github.com/StreamHouseAI/vrlforge/pkg/logging"
	"github.com/StreamHouseAI/vrlforge/services/forge/diag"
)

// Phase names the stage a validation stopped at.
type Phase string

const (
	// PhaseSyntax means the candidate failed to compile; no sample
	// was executed.
	PhaseSyntax Phase = "syntax"

	// PhaseRuntime means the candidate compiled and ran against the
	// samples.
	PhaseRuntime Phase = "runtime"
)

// SyntaxChecker compiles candidate code without running it.
type SyntaxChecker interface {
	// Check returns the compile diagnostics, empty when the code
	// parses cleanly. A non-nil error is an infrastructure failure,
	// not a defect in the code.
	Check(ctx context.Context, code string) ([]diag.Diagnostic, error)
}

// Execution is the outcome of running a candidate against one sample.
type Execution struct {
	// Diagnostics are the runtime failures for this sample.
	Diagnostics []diag.Diagnostic

	// Output is the transformed event, empty on failure.
	Output string

	// Metrics is the measured cost of the run, nil when the
	// executor does not measure.
	Metrics *PerfMetrics
}

// RuntimeExecutor runs compiled candidate code against one sample.
type RuntimeExecutor interface {
	// Execute runs the code on a single sample line. A non-nil
	// error is an infrastructure failure.
	Execute(ctx context.Context, code string, sample string) (*Execution, error)
}

// Result is the aggregate outcome of validating one candidate.
type Result struct {
	// Valid is true when no diagnostic was produced.
	Valid bool `json:"valid"`

	// Phase is the stage validation stopped at.
	Phase Phase `json:"phase"`

	// Diagnostics are the distinct failures across all samples, in
	// first-seen order.
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`

	// SamplesRun is how many samples were executed.
	SamplesRun int `json:"samples_run"`

	// Perf is the averaged runtime cost, nil when the candidate
	// never reached the runtime phase or nothing was measured.
	Perf *PerfMetrics `json:"perf,omitempty"`
}

// Adapter drives the syntax checker and runtime executor and
// aggregates their findings.
type Adapter struct {
	checker  SyntaxChecker
	executor RuntimeExecutor
	log      *logging.Logger
}

// NewAdapter wires a validation adapter. A nil logger falls back to
// the package default.
func NewAdapter(checker SyntaxChecker, executor RuntimeExecutor, log *logging.Logger) *Adapter {
	if log == nil {
		log = logging.Default()
	}
	return &Adapter{checker: checker, executor: executor, log: log}
}

// Validate checks the candidate against every sample.
//
// The syntax check runs first and short-circuits: code that does not
// compile is never executed. Otherwise every sample is executed, even
// after failures, and the distinct diagnostics are aggregated in
// first-seen order. Validate never returns an error; infrastructure
// failures, including panics in a collaborator, become a single
// INFRASTRUCTURE diagnostic on the result.
func (a *Adapter) Validate(ctx context.Context, code string, samples []string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("validator panic recovered", "panic", r)
			result = Result{
				Phase:       result.Phase,
				Diagnostics: []diag.Diagnostic{diag.Infra("VALIDATOR_PANIC", fmt.Errorf("validator panic: %v", r))},
			}
		}
	}()

	result.Phase = PhaseSyntax
	syntaxDiags, err := a.checker.Check(ctx, code)
	if err != nil {
		a.log.Warn("syntax checker unavailable", "error", err)
		result.Diagnostics = []diag.Diagnostic{diag.Infra("SYNTAX_CHECK_FAILED", err)}
		return result
	}
	if len(syntaxDiags) > 0 {
		result.Diagnostics = diag.Dedupe(syntaxDiags)
		return result
	}

	result.Phase = PhaseRuntime
	var collected []diag.Diagnostic
	var runs []PerfMetrics
	for i, sample := range samples {
		exec, err := a.executor.Execute(ctx, code, sample)
		result.SamplesRun++
		if err != nil {
			a.log.Warn("runtime executor failed", "sample", i, "error", err)
			collected = append(collected, diag.Infra("RUNTIME_EXEC_FAILED", err))
			continue
		}
		collected = append(collected, exec.Diagnostics...)
		if exec.Metrics != nil {
			runs = append(runs, *exec.Metrics)
		}
	}

	result.Diagnostics = diag.Dedupe(collected)
	result.Perf = averagePerf(runs)
	result.Valid = len(result.Diagnostics) == 0
	return result
}
