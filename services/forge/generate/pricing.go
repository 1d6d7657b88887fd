// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package generate

import (
	"strings"

	"github.com/StreamHouseAI/vrlforge/services/llm"
)

// ModelPrice is per-million-token pricing for one model family.
type ModelPrice struct {
	// Match is the substring of the model id this entry applies to.
	Match string `json:"match" yaml:"match"`

	// InputPerMTok is USD per million input tokens.
	InputPerMTok float64 `json:"input_per_mtok" yaml:"input_per_mtok"`

	// OutputPerMTok is USD per million output tokens.
	OutputPerMTok float64 `json:"output_per_mtok" yaml:"output_per_mtok"`
}

// PriceTable resolves model ids to pricing by first matching
// substring, so more specific entries must come first.
type PriceTable []ModelPrice

// DefaultPriceTable returns published list pricing for the supported
// model families. gpt-4o-mini precedes gpt-4o because matching is by
// substring.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		{Match: "sonnet", InputPerMTok: 3.00, OutputPerMTok: 15.00},
		{Match: "opus", InputPerMTok: 15.00, OutputPerMTok: 75.00},
		{Match: "haiku", InputPerMTok: 0.25, OutputPerMTok: 1.25},
		{Match: "gpt-4o-mini", InputPerMTok: 0.15, OutputPerMTok: 0.60},
		{Match: "gpt-4o", InputPerMTok: 2.50, OutputPerMTok: 10.00},
	}
}

// Lookup returns the price entry for a model id, false when no entry
// matches.
func (t PriceTable) Lookup(model string) (ModelPrice, bool) {
	lower := strings.ToLower(model)
	for _, p := range t {
		if strings.Contains(lower, p.Match) {
			return p, true
		}
	}
	return ModelPrice{}, false
}

// Cost prices a completion in USD. The provider's own figure wins
// when present; otherwise the table prices the token usage; unknown
// models cost 0.
func (t PriceTable) Cost(c *llm.Completion) float64 {
	if c == nil {
		return 0
	}
	if c.CostUSD > 0 {
		return c.CostUSD
	}
	p, ok := t.Lookup(c.Model)
	if !ok {
		return 0
	}
	in := float64(c.Usage.InputTokens) / 1e6 * p.InputPerMTok
	out := float64(c.Usage.OutputTokens) / 1e6 * p.OutputPerMTok
	return in + out
}
