// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the accounting state of one generation-repair run. All
// state is private to the session; concurrent sessions share
// nothing, so one session's spend or iterations can never leak into
// another.
type Session struct {
	id        string
	config    Config
	ledger    *Ledger
	startedAt time.Time

	mu            sync.Mutex
	costUSD       float64
	billableCalls int
	iterations    int
	localFixes    int
}

// New creates a session with a fresh id and an empty ledger,
// snapshotting the config.
func New(cfg Config) *Session {
	return &Session{
		id:        uuid.NewString(),
		config:    cfg,
		ledger:    NewLedger(),
		startedAt: time.Now().UTC(),
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Config returns the snapshotted configuration.
func (s *Session) Config() Config { return s.config }

// Ledger returns the session's candidate ledger.
func (s *Session) Ledger() *Ledger { return s.ledger }

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// RecordCost adds model spend to the session total.
func (s *Session) RecordCost(usd float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costUSD += usd
}

// RecordBillableCall counts one paid model call. Local fixes never
// call this.
func (s *Session) RecordBillableCall() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.billableCalls++
}

// NextIteration advances the billable iteration counter and returns
// the new 1-based iteration number. Only model-call attempts advance
// it; local rewrites are tracked by RecordLocalFix.
func (s *Session) NextIteration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iterations++
	return s.iterations
}

// RecordLocalFix counts one local rewrite. Local fixes are free:
// they never touch the iteration budget or spend.
func (s *Session) RecordLocalFix() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localFixes++
	return s.localFixes
}

// CostUSD returns accumulated model spend.
func (s *Session) CostUSD() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.costUSD
}

// BillableCalls returns how many paid model calls were made.
func (s *Session) BillableCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.billableCalls
}

// Iterations returns how many billable iterations have started.
func (s *Session) Iterations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iterations
}

// LocalFixes returns how many local rewrites were applied.
func (s *Session) LocalFixes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localFixes
}

// WithinBudget reports whether another billable iteration may start:
// spend strictly below the cost ceiling and billable iterations
// strictly below the maximum.
func (s *Session) WithinBudget() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.costUSD < s.config.CostCeilingUSD && s.iterations < s.config.MaxIterations
}
