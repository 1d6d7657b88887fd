// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package promptctx

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Allocator classifies requests and packs prompt components into a
// token budget. The zero value is not usable; construct with
// NewAllocator.
type Allocator struct {
	budget Budget
}

// NewAllocator returns an allocator bound to a budget. A zero
// MaxTotalTokens falls back to the default budget.
func NewAllocator(budget Budget) *Allocator {
	if budget.MaxTotalTokens <= 0 {
		budget = DefaultBudget()
	}
	return &Allocator{budget: budget}
}

// Budget returns the allocator's budget.
func (a *Allocator) Budget() Budget {
	return a.budget
}

// Select packs components into the budget.
//
// Components are filtered to those eligible for the kind, stably
// sorted by ascending priority, then taken greedily: a component
// that would exceed the total ceiling or its category's sub-ceiling
// is skipped, and selection continues with the next one. There is no
// backtracking, so a large high-priority component can crowd out
// smaller lower-priority ones. Ties in priority preserve input order.
//
// Select is a pure function of its inputs.
func (a *Allocator) Select(kind RequestKind, components []Component) Selection {
	eligible := make([]Component, 0, len(components))
	for _, c := range components {
		if c.eligibleFor(kind) {
			eligible = append(eligible, c)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Priority < eligible[j].Priority
	})

	sel := Selection{Kind: kind}
	catUsed := make(map[string]int)
	for _, c := range eligible {
		if sel.TotalTokens+c.Tokens > a.budget.MaxTotalTokens {
			continue
		}
		if limit, ok := a.budget.CategoryLimits[c.Category]; ok {
			if catUsed[c.Category]+c.Tokens > limit {
				continue
			}
		}
		sel.Components = append(sel.Components, c)
		sel.TotalTokens += c.Tokens
		catUsed[c.Category] += c.Tokens
	}
	return sel
}

// Assemble classifies the request, selects components, and renders
// them into a single prompt context block. The span records the kind
// and the token outcome.
func (a *Allocator) Assemble(ctx context.Context, request string, components []Component) (string, Selection) {
	start := time.Now()
	ctx, span := startSelectSpan(ctx, len(request), a.budget.MaxTotalTokens)
	defer span.End()

	kind := Classify(request)
	sel := a.Select(kind, components)

	setSelectSpanResult(span, kind, sel.TotalTokens, len(sel.Components))
	recordSelectMetrics(ctx, time.Since(start), kind, sel.TotalTokens, len(sel.Components))

	return Render(sel), sel
}

// Render flattens a selection into prompt text, one titled section
// per component.
func Render(sel Selection) string {
	var b strings.Builder
	for i, c := range sel.Components {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== %s ===\n%s", c.Name, c.Content)
	}
	return b.String()
}
