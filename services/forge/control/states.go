// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package control runs the generate-validate-repair loop as an
// explicit state machine.
package control

// State is one phase of the iteration loop.
type State string

const (
	// StateInit is the starting state before any work happens.
	StateInit State = "INIT"

	// StateGenerate is a model call producing a candidate.
	StateGenerate State = "GENERATE"

	// StateValidate is candidate validation against the samples.
	StateValidate State = "VALIDATE"

	// StateClassify is deciding what to do about a failed
	// validation.
	StateClassify State = "CLASSIFY"

	// StateLocalFix is a deterministic rewrite, no model call.
	StateLocalFix State = "LOCAL_FIX"

	// StateEscalate is handing the failure back to the model.
	StateEscalate State = "ESCALATE"

	// StateSuccess is the terminal state for a passing candidate.
	StateSuccess State = "SUCCESS"

	// StateBudgetExhausted is the terminal state when cost or
	// iteration budget ran out before success.
	StateBudgetExhausted State = "BUDGET_EXHAUSTED"

	// StateAborted is the terminal state for a non-retryable
	// failure.
	StateAborted State = "ABORTED"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal returns true if the state ends the session.
func (s State) IsTerminal() bool {
	switch s {
	case StateSuccess, StateBudgetExhausted, StateAborted:
		return true
	default:
		return false
	}
}

// AllStates returns every defined state.
func AllStates() []State {
	return []State{
		StateInit,
		StateGenerate,
		StateValidate,
		StateClassify,
		StateLocalFix,
		StateEscalate,
		StateSuccess,
		StateBudgetExhausted,
		StateAborted,
	}
}
