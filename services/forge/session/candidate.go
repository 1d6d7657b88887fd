// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"time"

	"github.com/StreamHouseAI/vrlforge/services/forge/diag"
	"github.com/StreamHouseAI/vrlforge/services/forge/validate"
)

// Source records how a candidate came to exist.
type Source string

const (
	// SourceGenerated means a model produced the candidate.
	SourceGenerated Source = "generated"

	// SourceLocalFix means a deterministic rewrite of an earlier
	// candidate produced it, with no model call.
	SourceLocalFix Source = "local_fix"
)

// Candidate is one attempt at the target transform. Candidates are
// value types; a local fix produces a new candidate rather than
// mutating the failed one.
type Candidate struct {
	// ID is a globally unique identifier, assigned on append. Unlike
	// sequences, ids are never reused across sessions.
	ID string `json:"id"`

	// Sequence is the 1-based position in the ledger, assigned on
	// append.
	Sequence int `json:"sequence"`

	// Code is the candidate VRL source.
	Code string `json:"code"`

	// Model is the model that produced the lineage root.
	Model string `json:"model"`

	// Source records whether a model or a local rewrite produced it.
	Source Source `json:"source"`

	// CostUSD is the model spend attributed to this candidate.
	// Local fixes cost nothing.
	CostUSD float64 `json:"cost_usd"`

	// Diagnostics are the validation findings, empty for a passing
	// candidate.
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`

	// Perf is the measured runtime cost, nil when validation never
	// reached the runtime phase.
	Perf *validate.PerfMetrics `json:"perf,omitempty"`

	// FixHistory names the local rewrites applied along this
	// candidate's lineage.
	FixHistory []string `json:"fix_history,omitempty"`

	// CreatedAt is when the candidate was produced.
	CreatedAt time.Time `json:"created_at"`
}

// Passing reports whether validation produced no diagnostics.
func (c Candidate) Passing() bool {
	return len(c.Diagnostics) == 0
}

// WithLocalFix derives a new candidate from a failed one. The new
// candidate keeps the lineage's model and extends its fix history;
// id, sequence, and validation results are assigned later.
func (c Candidate) WithLocalFix(code string, changes []string) Candidate {
	history := make([]string, 0, len(c.FixHistory)+len(changes))
	history = append(history, c.FixHistory...)
	history = append(history, changes...)
	return Candidate{
		Code:       code,
		Model:      c.Model,
		Source:     SourceLocalFix,
		FixHistory: history,
		CreatedAt:  time.Now().UTC(),
	}
}
