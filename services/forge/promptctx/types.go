// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package promptctx selects a token-bounded subset of prompt material
// for a model request.
//
// Instead of dumping every available document into the prompt, the
// allocator classifies the request, filters the component catalogue
// to what is relevant, and greedily packs components by priority
// until the token budget is spent. Selection is a pure function of
// its inputs.
package promptctx

// RequestKind is the classified intent of a request, used to pick
// which catalogue components are eligible.
type RequestKind string

const (
	// KindCodeCreation is a request to produce a new transform.
	KindCodeCreation RequestKind = "code-creation"

	// KindPerformanceDebug is a request to diagnose slow code.
	KindPerformanceDebug RequestKind = "performance-debug"

	// KindValidationDebug is a request to fix failing code.
	KindValidationDebug RequestKind = "validation-debug"

	// KindOptimization is a request to improve working code.
	KindOptimization RequestKind = "optimization"

	// KindSampleAnalysis is a request to examine sample data.
	KindSampleAnalysis RequestKind = "sample-analysis"

	// KindGeneral is the fallback when no keyword group matches.
	KindGeneral RequestKind = "general"
)

// String returns the string representation of the kind.
func (k RequestKind) String() string {
	return string(k)
}

// charsPerToken is the rough character-to-token ratio for English
// prose and code. Good enough for budgeting; the provider reports
// exact usage after the fact.
const charsPerToken = 3.5

// EstimateTokens estimates the token cost of a text.
func EstimateTokens(text string) int {
	return int(float64(len(text)) / charsPerToken)
}

// Component is a named, priced, prioritized block of prompt material.
type Component struct {
	// Name is the section header used when the component is rendered.
	Name string `json:"name"`

	// Content is the material itself.
	Content string `json:"content"`

	// Priority orders inclusion; 1 is highest.
	Priority int `json:"priority"`

	// Tokens is the estimated token cost of Content.
	Tokens int `json:"tokens"`

	// Category tags the component for per-category sub-ceilings
	// (e.g. "rules", "samples", "history", "system").
	Category string `json:"category"`

	// Kinds restricts eligibility to specific request kinds. Empty
	// means eligible for every kind.
	Kinds []RequestKind `json:"kinds,omitempty"`
}

// NewComponent builds a component, estimating its token cost from the
// content.
func NewComponent(name, content string, priority int, category string, kinds ...RequestKind) Component {
	return Component{
		Name:     name,
		Content:  content,
		Priority: priority,
		Tokens:   EstimateTokens(content),
		Category: category,
		Kinds:    kinds,
	}
}

// eligibleFor reports whether the component may be used for a kind.
func (c Component) eligibleFor(kind RequestKind) bool {
	if len(c.Kinds) == 0 {
		return true
	}
	for _, k := range c.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Budget bounds a selection: a total token ceiling plus optional
// per-category sub-ceilings.
type Budget struct {
	// MaxTotalTokens is the hard limit on selected tokens.
	MaxTotalTokens int `json:"max_total_tokens" yaml:"max_total_tokens"`

	// CategoryLimits caps tokens per component category. Categories
	// absent from the map are bounded only by MaxTotalTokens.
	CategoryLimits map[string]int `json:"category_limits,omitempty" yaml:"category_limits,omitempty"`
}

// DefaultBudget returns the default allocation: 8000 tokens total
// with sub-ceilings for the standard component categories.
func DefaultBudget() Budget {
	return Budget{
		MaxTotalTokens: 8000,
		CategoryLimits: map[string]int{
			CategoryRules:   3000,
			CategorySamples: 1500,
			CategoryHistory: 2000,
			CategorySystem:  500,
			CategoryDialog:  1000,
		},
	}
}

// Standard component categories.
const (
	CategoryRules   = "rules"
	CategorySamples = "samples"
	CategoryHistory = "history"
	CategorySystem  = "system"
	CategoryDialog  = "dialog"
)

// Selection is the ordered result of an allocation.
type Selection struct {
	// Kind is the request kind the selection was built for.
	Kind RequestKind `json:"kind"`

	// Components are the selected components in inclusion order.
	Components []Component `json:"components"`

	// TotalTokens is the cumulative estimated cost of Components.
	TotalTokens int `json:"total_tokens"`
}
