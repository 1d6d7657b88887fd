// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"sync"

	"github.com/google/uuid"
)

// Ledger is the append-only record of every candidate a session
// produced, passing or not. Sequences are assigned on append and
// never reused within a session; candidate ids are never reused at
// all.
type Ledger struct {
	mu         sync.RWMutex
	candidates []Candidate
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append records a candidate, assigns its id and sequence, and
// returns the stored value.
func (l *Ledger) Append(c Candidate) Candidate {
	l.mu.Lock()
	defer l.mu.Unlock()
	c.ID = uuid.NewString()
	c.Sequence = len(l.candidates) + 1
	l.candidates = append(l.candidates, c)
	return c
}

// Update replaces the candidate with the given sequence, preserving
// the sequence itself. Used to attach validation results after
// append. Unknown sequences are ignored.
func (l *Ledger) Update(c Candidate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := c.Sequence - 1
	if idx < 0 || idx >= len(l.candidates) {
		return
	}
	l.candidates[idx] = c
}

// All returns a copy of the candidates in sequence order.
func (l *Ledger) All() []Candidate {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Candidate, len(l.candidates))
	copy(out, l.candidates)
	return out
}

// Len reports how many candidates were recorded.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.candidates)
}

// Best returns the winning candidate, nil when none passes.
func (l *Ledger) Best() *Candidate {
	return Best(l.All())
}

// Best picks the winner from a candidate set. Only passing
// candidates qualify. Among them, the better performance tier band
// wins; candidates inside the same band tie, and ties resolve to the
// lowest sequence. A passing candidate without measurements ranks
// below every measured one.
func Best(candidates []Candidate) *Candidate {
	var best *Candidate
	bestRank := 0
	for i := range candidates {
		c := &candidates[i]
		if !c.Passing() {
			continue
		}
		rank := unmeasuredRank
		if c.Perf != nil {
			rank = c.Perf.TierRank()
		}
		if best == nil || rank < bestRank {
			best = c
			bestRank = rank
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// unmeasuredRank sorts passing-but-unmeasured candidates after the
// worst tier band.
const unmeasuredRank = 7
