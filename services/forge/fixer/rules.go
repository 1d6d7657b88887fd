// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package fixer applies deterministic local rewrites to candidate VRL
// code so that simple compiler diagnostics can be cleared without
// spending a model call.
package fixer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/StreamHouseAI/vrlforge/services/forge/diag"
)

// Rule is one deterministic rewrite. A rule handles exactly one
// diagnostic category; Apply returns the rewritten code and whether
// anything changed.
type Rule interface {
	// Name identifies the rule in change logs.
	Name() string

	// Category is the diagnostic category this rule handles.
	Category() diag.Category

	// Apply rewrites code for one diagnostic of the rule's category.
	Apply(code string, d diag.Diagnostic) (string, bool)
}

// fallibleFunctions are the VRL functions the promote rule knows how
// to make infallible. Anything else is left for the model.
var fallibleFunctions = []string{
	"split",
	"parse_json",
	"parse_regex",
	"parse_timestamp",
	"to_int",
	"to_float",
}

var (
	emptyReturnRe = regexp.MustCompile(`(?m)^(\s*)return\s*$`)

	// array[variable] where the grammar wants an integer literal.
	variableIndexRe = regexp.MustCompile(`(\w+)\[(\w+(?:_index)?)\]`)

	// array[literal] without a surrounding length guard.
	literalIndexRe = regexp.MustCompile(`(\w+)\[(\d+)\]`)

	// infallible_call!(...) ?? default
	coalesceAfterBangRe = regexp.MustCompile(`(\w+!\([^)]*\))\s*\?\?\s*[^,\n;]+`)

	// a field path not already wrapped in a coercion.
	fieldPathRe = regexp.MustCompile(`\.\w+(?:\.\w+)*`)

	backtickFuncRe = regexp.MustCompile("`(\\w+)\\(")
)

// falliblePromoteRule rewrites fn( to fn!( for known fallible
// functions named in the diagnostic.
type falliblePromoteRule struct{}

func (falliblePromoteRule) Name() string            { return "promote-fallible-call" }
func (falliblePromoteRule) Category() diag.Category { return diag.UnhandledFallible }

func (falliblePromoteRule) Apply(code string, d diag.Diagnostic) (string, bool) {
	fn := fallibleFunctionFromDiagnostic(d)
	if fn == "" {
		return code, false
	}

	re := regexp.MustCompile(`\b` + fn + `\(`)

	// With a location, fix only that line first.
	if d.Location != nil {
		lines := strings.Split(code, "\n")
		idx := d.Location.Line - 1
		if idx >= 0 && idx < len(lines) && re.MatchString(lines[idx]) {
			lines[idx] = re.ReplaceAllString(lines[idx], fn+"!(")
			return strings.Join(lines, "\n"), true
		}
	}

	// Otherwise promote every bare call of this function.
	if !re.MatchString(code) {
		return code, false
	}
	return re.ReplaceAllString(code, fn+"!("), true
}

// fallibleFunctionFromDiagnostic extracts the function to promote from
// the diagnostic's code or message. The code field may carry a
// pattern hint like "split(".
func fallibleFunctionFromDiagnostic(d diag.Diagnostic) string {
	haystack := d.Code + " " + d.Message
	for _, fn := range fallibleFunctions {
		if strings.Contains(haystack, fn+"(") {
			return fn
		}
	}
	if m := backtickFuncRe.FindStringSubmatch(d.Message); m != nil {
		return m[1]
	}
	return ""
}

// boundsGuardRule wraps unguarded literal array accesses in a length
// check.
type boundsGuardRule struct{}

func (boundsGuardRule) Name() string            { return "guard-array-access" }
func (boundsGuardRule) Category() diag.Category { return diag.ArrayBounds }

func (boundsGuardRule) Apply(code string, d diag.Diagnostic) (string, bool) {
	lines := strings.Split(code, "\n")
	fixed := false

	for i, line := range lines {
		m := literalIndexRe.FindStringSubmatch(line)
		if m == nil || strings.Contains(line, "if length(") {
			continue
		}
		arrayName := m[1]
		index, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		lines[i] = fmt.Sprintf("%sif length(%s) > %d {\n%s\n%s}", indent, arrayName, index, line, indent)
		fixed = true
	}

	if !fixed {
		return code, false
	}
	return strings.Join(lines, "\n"), true
}

// emptyReturnRule removes bare return statements, which VRL's
// expression grammar rejects.
type emptyReturnRule struct{}

func (emptyReturnRule) Name() string            { return "remove-empty-return" }
func (emptyReturnRule) Category() diag.Category { return diag.Syntax }

func (emptyReturnRule) Apply(code string, d diag.Diagnostic) (string, bool) {
	if !emptyReturnRe.MatchString(code) {
		return code, false
	}
	out := emptyReturnRe.ReplaceAllString(code, "${1}# return removed, VRL is expression-based")
	return out, out != code
}

// literalLadderRule rewrites array[variable] access, which VRL does
// not support, into a length-guarded ladder of literal accesses. Only
// "last element" style index variables are handled; anything else
// needs the model.
type literalLadderRule struct{}

func (literalLadderRule) Name() string            { return "literal-index-ladder" }
func (literalLadderRule) Category() diag.Category { return diag.Syntax }

func (literalLadderRule) Apply(code string, d diag.Diagnostic) (string, bool) {
	if d.Location == nil {
		return code, false
	}
	lines := strings.Split(code, "\n")
	idx := d.Location.Line - 1
	if idx < 0 || idx >= len(lines) {
		return code, false
	}

	m := variableIndexRe.FindStringSubmatch(lines[idx])
	if m == nil {
		return code, false
	}
	arrayName, indexVar := m[1], m[2]
	if !strings.Contains(strings.ToLower(indexVar), "last") {
		return code, false
	}

	indent := lines[idx][:len(lines[idx])-len(strings.TrimLeft(lines[idx], " \t"))]
	ladder := []string{
		indent + "array_len = length(" + arrayName + ")",
		indent + "if array_len == 1 {",
		indent + "    value = " + arrayName + "[0]",
		indent + "} else if array_len == 2 {",
		indent + "    value = " + arrayName + "[1]",
		indent + "} else if array_len >= 3 {",
		indent + "    value = " + arrayName + "[2]",
		indent + "}",
	}
	lines[idx] = strings.Join(ladder, "\n")
	return strings.Join(lines, "\n"), true
}

// coalesceStripRule removes ?? defaults attached to calls that are
// already infallible.
type coalesceStripRule struct{}

func (coalesceStripRule) Name() string            { return "strip-unnecessary-coalesce" }
func (coalesceStripRule) Category() diag.Category { return diag.UnnecessaryErrorHandling }

func (coalesceStripRule) Apply(code string, d diag.Diagnostic) (string, bool) {
	if !coalesceAfterBangRe.MatchString(code) {
		return code, false
	}
	return coalesceAfterBangRe.ReplaceAllString(code, "$1"), true
}

// stringCoerceRule wraps the first field path on the diagnostic line
// in to_string!. Deliberately narrow: without a location there is no
// safe target.
type stringCoerceRule struct{}

func (stringCoerceRule) Name() string            { return "coerce-to-string" }
func (stringCoerceRule) Category() diag.Category { return diag.TypeMismatch }

func (stringCoerceRule) Apply(code string, d diag.Diagnostic) (string, bool) {
	if d.Location == nil {
		return code, false
	}
	lines := strings.Split(code, "\n")
	idx := d.Location.Line - 1
	if idx < 0 || idx >= len(lines) {
		return code, false
	}
	line := lines[idx]
	if strings.Contains(line, "to_string") {
		return code, false
	}

	// Never rewrite the assignment target.
	offset := 0
	if eq := strings.Index(line, "="); eq >= 0 {
		offset = eq + 1
	}
	loc := fieldPathRe.FindStringIndex(line[offset:])
	if loc == nil {
		return code, false
	}
	start, end := offset+loc[0], offset+loc[1]
	lines[idx] = line[:start] + "to_string!(" + line[start:end] + ")" + line[end:]
	return strings.Join(lines, "\n"), true
}

// undefinedCommentRule comments out a line that references an
// undefined identifier. Commenting keeps the intent visible for the
// next model iteration instead of silently dropping logic.
type undefinedCommentRule struct{}

func (undefinedCommentRule) Name() string            { return "comment-undefined-reference" }
func (undefinedCommentRule) Category() diag.Category { return diag.UndefinedReference }

func (undefinedCommentRule) Apply(code string, d diag.Diagnostic) (string, bool) {
	if d.Location == nil {
		return code, false
	}
	lines := strings.Split(code, "\n")
	idx := d.Location.Line - 1
	if idx < 0 || idx >= len(lines) {
		return code, false
	}
	line := lines[idx]
	if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
		return code, false
	}
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	lines[idx] = indent + "# " + strings.TrimLeft(line, " \t")
	return strings.Join(lines, "\n"), true
}
