// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"sync"
	"testing"

	"github.com/StreamHouseAI/vrlforge/services/forge/diag"
	"github.com/StreamHouseAI/vrlforge/services/forge/validate"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Task = "create a VRL parser"
	cfg.Samples = []string{"Dec 10 06:55:46 LabSZ sshd[24200]: Invalid user test"}
	return cfg
}

func TestLedger_AppendAssignsSequences(t *testing.T) {
	l := NewLedger()

	first := l.Append(Candidate{Code: ".a = 1"})
	second := l.Append(Candidate{Code: ".b = 2"})

	if first.Sequence != 1 || second.Sequence != 2 {
		t.Errorf("sequences = %d, %d, want 1, 2", first.Sequence, second.Sequence)
	}
	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2", l.Len())
	}
	if first.ID == "" || second.ID == "" {
		t.Error("appended candidates must carry ids")
	}
	if first.ID == second.ID {
		t.Error("candidate ids must be unique")
	}
}

func TestLedger_CandidateIDsUniqueAcrossLedgers(t *testing.T) {
	// Sequences restart per ledger; ids never collide even when
	// sequences do.
	a := NewLedger().Append(Candidate{Code: ".a = 1"})
	b := NewLedger().Append(Candidate{Code: ".a = 1"})

	if a.Sequence != b.Sequence {
		t.Fatalf("sequences = %d, %d, want both 1", a.Sequence, b.Sequence)
	}
	if a.ID == b.ID {
		t.Error("candidates in different ledgers share an id")
	}
}

func TestLedger_KeepsFailedCandidates(t *testing.T) {
	l := NewLedger()
	l.Append(Candidate{
		Code:        "broken",
		Diagnostics: []diag.Diagnostic{{Category: diag.Syntax, Code: "E203"}},
	})
	l.Append(Candidate{Code: ".a = 1"})

	all := l.All()
	if len(all) != 2 {
		t.Fatalf("All = %d entries, want 2", len(all))
	}
	if all[0].Passing() {
		t.Error("failed candidate lost its diagnostics")
	}
}

func TestLedger_Update(t *testing.T) {
	l := NewLedger()
	c := l.Append(Candidate{Code: ".a = 1"})

	c.Diagnostics = []diag.Diagnostic{{Category: diag.ArrayBounds, Code: "E110"}}
	l.Update(c)

	got := l.All()[0]
	if got.Sequence != 1 || len(got.Diagnostics) != 1 {
		t.Errorf("updated candidate = %+v", got)
	}
}

func TestBest_OnlyPassingCandidatesQualify(t *testing.T) {
	candidates := []Candidate{
		{Sequence: 1, Diagnostics: []diag.Diagnostic{{Category: diag.Syntax}}},
		{Sequence: 2, Diagnostics: []diag.Diagnostic{{Category: diag.ArrayBounds}}},
	}
	if got := Best(candidates); got != nil {
		t.Errorf("Best = %+v, want nil", got)
	}
}

func TestBest_RanksByTierBand(t *testing.T) {
	candidates := []Candidate{
		{Sequence: 1, Perf: &validate.PerfMetrics{EventsPerCPUPercent: 100}},  // Tier 3
		{Sequence: 2, Perf: &validate.PerfMetrics{EventsPerCPUPercent: 6000}}, // Tier S
		{Sequence: 3, Perf: &validate.PerfMetrics{EventsPerCPUPercent: 400}},  // Tier 1
	}

	got := Best(candidates)
	if got == nil || got.Sequence != 2 {
		t.Fatalf("Best = %+v, want sequence 2", got)
	}
}

func TestBest_SameBandTieGoesToLowestSequence(t *testing.T) {
	// 400 and 4999 land in the same band; raw numbers do not break
	// the tie, sequence does.
	candidates := []Candidate{
		{Sequence: 1, Perf: &validate.PerfMetrics{EventsPerCPUPercent: 400}},
		{Sequence: 2, Perf: &validate.PerfMetrics{EventsPerCPUPercent: 4999}},
	}

	got := Best(candidates)
	if got == nil || got.Sequence != 1 {
		t.Fatalf("Best = %+v, want sequence 1", got)
	}
}

func TestBest_UnmeasuredRanksBelowMeasured(t *testing.T) {
	candidates := []Candidate{
		{Sequence: 1},
		{Sequence: 2, Perf: &validate.PerfMetrics{EventsPerCPUPercent: 1}}, // Tier 5
	}

	got := Best(candidates)
	if got == nil || got.Sequence != 2 {
		t.Fatalf("Best = %+v, want sequence 2", got)
	}
}

func TestBest_UnmeasuredPassingStillWinsAlone(t *testing.T) {
	candidates := []Candidate{
		{Sequence: 1, Diagnostics: []diag.Diagnostic{{Category: diag.Syntax}}},
		{Sequence: 2},
	}

	got := Best(candidates)
	if got == nil || got.Sequence != 2 {
		t.Fatalf("Best = %+v, want sequence 2", got)
	}
}

func TestCandidate_WithLocalFix(t *testing.T) {
	orig := Candidate{
		Sequence:   1,
		Code:       "parts = split(.message)",
		Model:      "claude-sonnet-4",
		Source:     SourceGenerated,
		CostUSD:    0.12,
		FixHistory: nil,
	}

	fixed := orig.WithLocalFix("parts = split!(.message)", []string{"promote-fallible-call"})

	if fixed.Source != SourceLocalFix {
		t.Errorf("Source = %v, want %v", fixed.Source, SourceLocalFix)
	}
	if fixed.Model != orig.Model {
		t.Errorf("Model = %q, want lineage model", fixed.Model)
	}
	if fixed.CostUSD != 0 {
		t.Errorf("CostUSD = %v, local fixes are free", fixed.CostUSD)
	}
	if len(fixed.FixHistory) != 1 || fixed.FixHistory[0] != "promote-fallible-call" {
		t.Errorf("FixHistory = %v", fixed.FixHistory)
	}
	if fixed.Sequence != 0 {
		t.Errorf("Sequence = %d, must be assigned by the ledger", fixed.Sequence)
	}
	if fixed.ID != "" {
		t.Errorf("ID = %q, must be assigned by the ledger", fixed.ID)
	}
}

func TestSession_Accounting(t *testing.T) {
	s := New(testConfig())

	if s.ID() == "" {
		t.Error("empty session id")
	}
	s.RecordCost(0.25)
	s.RecordCost(0.50)
	s.RecordBillableCall()

	if got := s.CostUSD(); got != 0.75 {
		t.Errorf("CostUSD = %v, want 0.75", got)
	}
	if got := s.BillableCalls(); got != 1 {
		t.Errorf("BillableCalls = %d, want 1", got)
	}
	if got := s.NextIteration(); got != 1 {
		t.Errorf("NextIteration = %d, want 1", got)
	}
}

func TestSession_WithinBudget(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 2
	cfg.CostCeilingUSD = 1.00
	s := New(cfg)

	if !s.WithinBudget() {
		t.Fatal("fresh session should be within budget")
	}

	s.NextIteration()
	s.NextIteration()
	if s.WithinBudget() {
		t.Error("iteration cap reached, should be out of budget")
	}

	s2 := New(cfg)
	s2.RecordCost(1.00)
	if s2.WithinBudget() {
		t.Error("cost ceiling reached, should be out of budget")
	}
}

func TestSession_LocalFixesDoNotSpendIterationBudget(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 2
	s := New(cfg)

	s.NextIteration()
	for i := 0; i < 10; i++ {
		s.RecordLocalFix()
	}

	if got := s.LocalFixes(); got != 10 {
		t.Errorf("LocalFixes = %d, want 10", got)
	}
	if got := s.Iterations(); got != 1 {
		t.Errorf("Iterations = %d, want 1: rewrites must not advance it", got)
	}
	if !s.WithinBudget() {
		t.Error("free rewrites exhausted the iteration budget")
	}
}

func TestSessions_AreIsolated(t *testing.T) {
	cfg := testConfig()
	a := New(cfg)
	b := New(cfg)

	if a.ID() == b.ID() {
		t.Fatal("sessions share an id")
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.RecordCost(0.01)
			a.RecordBillableCall()
			a.Ledger().Append(Candidate{Code: ".a = 1"})
		}()
	}
	wg.Wait()

	if got := a.BillableCalls(); got != 50 {
		t.Errorf("a.BillableCalls = %d, want 50", got)
	}
	if b.BillableCalls() != 0 || b.CostUSD() != 0 || b.Ledger().Len() != 0 {
		t.Errorf("session b contaminated: calls=%d cost=%v ledger=%d",
			b.BillableCalls(), b.CostUSD(), b.Ledger().Len())
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := testConfig()
	bad.Samples = nil
	if err := bad.Validate(); err == nil {
		t.Error("config without samples accepted")
	}

	bad = testConfig()
	bad.CostCeilingUSD = 0
	if err := bad.Validate(); err == nil {
		t.Error("config with zero cost ceiling accepted")
	}
}
