// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package control

import (
	"fmt"
	"sync"
)

// StateMachine manages valid state transitions for the iteration
// loop.
//
// The state machine enforces the following transition graph:
//
//	INIT → GENERATE              : Session started, budget available
//	INIT → BUDGET_EXHAUSTED      : No budget before the first call
//	GENERATE → VALIDATE          : Candidate produced
//	VALIDATE → SUCCESS           : No diagnostics
//	VALIDATE → CLASSIFY          : Diagnostics to triage
//	CLASSIFY → LOCAL_FIX         : Fixable locally, under the ceiling
//	CLASSIFY → ESCALATE          : Model repair required
//	LOCAL_FIX → VALIDATE         : Rewrite produced, re-check it
//	LOCAL_FIX → ESCALATE         : No rule fired, model repair
//	ESCALATE → GENERATE          : Budget available for another call
//	ESCALATE → BUDGET_EXHAUSTED  : Budget spent
//	CLASSIFY → BUDGET_EXHAUSTED  : Budget spent before local fix
//	* → ABORTED                  : Non-retryable failure anywhere
//
// Thread Safety:
//
//	StateMachine is safe for concurrent use.
type StateMachine struct {
	mu sync.RWMutex

	// transitions maps (from, to) pairs that are valid.
	transitions map[State]map[State]bool
}

// NewStateMachine creates a new state machine with all valid
// transitions.
func NewStateMachine() *StateMachine {
	sm := &StateMachine{
		transitions: make(map[State]map[State]bool),
	}

	for _, state := range AllStates() {
		sm.transitions[state] = make(map[State]bool)
	}

	sm.addTransition(StateInit, StateGenerate)
	sm.addTransition(StateInit, StateBudgetExhausted)

	sm.addTransition(StateGenerate, StateValidate)

	sm.addTransition(StateValidate, StateSuccess)
	sm.addTransition(StateValidate, StateClassify)

	sm.addTransition(StateClassify, StateLocalFix)
	sm.addTransition(StateClassify, StateEscalate)
	sm.addTransition(StateClassify, StateBudgetExhausted)

	sm.addTransition(StateLocalFix, StateValidate)
	sm.addTransition(StateLocalFix, StateEscalate)

	sm.addTransition(StateEscalate, StateGenerate)
	sm.addTransition(StateEscalate, StateBudgetExhausted)

	// Any non-terminal state can abort.
	for _, state := range AllStates() {
		if !state.IsTerminal() {
			sm.addTransition(state, StateAborted)
		}
	}

	return sm
}

// addTransition registers a valid transition.
func (sm *StateMachine) addTransition(from, to State) {
	sm.transitions[from][to] = true
}

// CanTransition checks if a transition from one state to another is
// valid.
//
// Thread Safety: This method is safe for concurrent use.
func (sm *StateMachine) CanTransition(from, to State) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if toMap, ok := sm.transitions[from]; ok {
		return toMap[to]
	}
	return false
}

// Step validates a transition and returns the new state, or
// ErrInvalidTransition.
func (sm *StateMachine) Step(from, to State) (State, error) {
	if !sm.CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// ValidTransitionsFrom returns all valid transitions from a given
// state.
//
// Thread Safety: This method is safe for concurrent use.
func (sm *StateMachine) ValidTransitionsFrom(from State) []State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var result []State
	if toMap, ok := sm.transitions[from]; ok {
		for state, valid := range toMap {
			if valid {
				result = append(result, state)
			}
		}
	}
	return result
}
