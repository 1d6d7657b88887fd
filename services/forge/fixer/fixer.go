// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fixer

import (
	"sort"

	"github.com/StreamHouseAI/vrlforge/services/forge/diag"
)

// maxConfidence caps the estimate. A local rewrite is never a sure
// thing, even when every diagnostic has a matching rule.
const maxConfidence = 0.9

// Policy decides when a local fix attempt is worth making instead of
// escalating straight back to the model.
type Policy struct {
	// ConfidenceThreshold is the minimum estimated fix confidence.
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`

	// EscalationCeiling is the last iteration on which local fixes
	// are attempted. Past it, every failure escalates to the model.
	EscalationCeiling int `json:"escalation_ceiling" yaml:"escalation_ceiling"`
}

// DefaultPolicy returns the standard local-fix policy.
func DefaultPolicy() Policy {
	return Policy{
		ConfidenceThreshold: 0.3,
		EscalationCeiling:   5,
	}
}

// ShouldAttempt reports whether a local fix should be tried for the
// given diagnostics at the given 1-based iteration. All three
// conditions must hold: confidence above the threshold, iteration at
// or below the ceiling, and at least one locally fixable diagnostic.
// The ceiling is unconditional; high confidence does not override it.
func (p Policy) ShouldAttempt(diags []diag.Diagnostic, iteration int, confidence float64) bool {
	if iteration > p.EscalationCeiling {
		return false
	}
	if confidence <= p.ConfidenceThreshold {
		return false
	}
	return diag.AnyLocallyFixable(diags)
}

// Outcome is the result of one local fix pass.
type Outcome struct {
	// Code is the rewritten candidate source. Equal to the input
	// when Applied is false.
	Code string `json:"code"`

	// Applied reports whether any rule changed the code.
	Applied bool `json:"applied"`

	// Changes names the rules that fired, in application order.
	Changes []string `json:"changes,omitempty"`

	// Confidence is the estimate computed from the input
	// diagnostics, recorded for the iteration ledger.
	Confidence float64 `json:"confidence"`
}

// Fixer routes diagnostics to registered rules.
type Fixer struct {
	byCategory map[diag.Category][]Rule
}

// New returns a Fixer with the standard rule set registered.
func New() *Fixer {
	return NewWithRules(
		emptyReturnRule{},
		literalLadderRule{},
		falliblePromoteRule{},
		boundsGuardRule{},
		stringCoerceRule{},
		undefinedCommentRule{},
		coalesceStripRule{},
	)
}

// NewWithRules returns a Fixer with an explicit rule set. Rules for
// the same category keep their registration order.
func NewWithRules(rules ...Rule) *Fixer {
	f := &Fixer{byCategory: make(map[diag.Category][]Rule)}
	for _, r := range rules {
		f.byCategory[r.Category()] = append(f.byCategory[r.Category()], r)
	}
	return f
}

// Confidence estimates how likely a local pass is to clear the
// diagnostics: the share of them that some registered rule handles,
// capped at maxConfidence. Empty input yields 0.
func (f *Fixer) Confidence(diags []diag.Diagnostic) float64 {
	if len(diags) == 0 {
		return 0
	}
	fixable := 0
	for _, d := range diags {
		if len(f.byCategory[d.Category]) > 0 {
			fixable++
		}
	}
	confidence := float64(fixable) / float64(len(diags))
	if confidence > maxConfidence {
		return maxConfidence
	}
	return confidence
}

// TryFix applies every matching rule to the code.
//
// Diagnostics are processed in rule-class order (syntax, then
// semantic, then style) so that a structural rewrite cannot be undone
// by a later cleanup. Within a class, input order is preserved. Rules
// without a matching diagnostic never run; diagnostics without a
// matching rule are left for escalation.
func (f *Fixer) TryFix(code string, diags []diag.Diagnostic) Outcome {
	out := Outcome{Code: code, Confidence: f.Confidence(diags)}

	ordered := make([]diag.Diagnostic, len(diags))
	copy(ordered, diags)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Category.Class() < ordered[j].Category.Class()
	})

	for _, d := range ordered {
		for _, r := range f.byCategory[d.Category] {
			fixed, applied := r.Apply(out.Code, d)
			if applied {
				out.Code = fixed
				out.Applied = true
				out.Changes = append(out.Changes, r.Name())
			}
		}
	}
	return out
}
