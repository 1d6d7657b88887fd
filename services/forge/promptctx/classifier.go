// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package promptctx

import "strings"

// creationVerbs and creationTargets must both match for a request to
// classify as code creation. A bare "make it faster" should land in
// performance debugging, not creation.
var creationVerbs = []string{"create", "generate", "write", "build", "make"}

var creationTargets = []string{"vrl", "parser", "transform"}

var performanceWords = []string{"slow", "performance", "cpu", "speed", "faster"}

var validationWords = []string{"error", "fail", "broke", "invalid", "syntax", "debug"}

var optimizationWords = []string{"optimize", "improve", "efficient"}

var analysisWords = []string{"analyze", "understand", "examine", "sample", "data"}

// Classify maps a free-form request to a RequestKind by keyword
// groups, checked in fixed order with the first match winning.
// Matching is case-insensitive and deterministic.
func Classify(request string) RequestKind {
	lower := strings.ToLower(request)

	if containsAny(lower, creationVerbs) && containsAny(lower, creationTargets) {
		return KindCodeCreation
	}
	if containsAny(lower, performanceWords) {
		return KindPerformanceDebug
	}
	if containsAny(lower, validationWords) {
		return KindValidationDebug
	}
	if containsAny(lower, optimizationWords) {
		return KindOptimization
	}
	if containsAny(lower, analysisWords) {
		return KindSampleAnalysis
	}
	return KindGeneral
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
