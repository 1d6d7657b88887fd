// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validate

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/StreamHouseAI/vrlforge/services/forge/diag"
)

// VectorTool runs candidate code through the vector CLI. It
// implements both SyntaxChecker and RuntimeExecutor.
type VectorTool struct {
	// Binary is the vector executable, "vector" by default.
	Binary string

	// Timeout bounds a single invocation.
	Timeout time.Duration
}

// NewVectorTool returns a tool bound to the vector binary on PATH.
func NewVectorTool() *VectorTool {
	return &VectorTool{Binary: "vector", Timeout: 30 * time.Second}
}

// Check implements SyntaxChecker by compiling the program against an
// empty event.
func (v *VectorTool) Check(ctx context.Context, code string) ([]diag.Diagnostic, error) {
	out, err := v.run(ctx, code, "{}")
	if err != nil {
		return nil, err
	}
	return ParseVectorDiagnostics(out), nil
}

// Execute implements RuntimeExecutor by running the program against
// one sample, wrapped as the event's message field.
func (v *VectorTool) Execute(ctx context.Context, code, sample string) (*Execution, error) {
	event := fmt.Sprintf(`{"message": %s}`, strconv.Quote(sample))

	start := time.Now()
	out, err := v.run(ctx, code, event)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	res := &Execution{Diagnostics: ParseVectorDiagnostics(out)}
	if len(res.Diagnostics) == 0 {
		res.Output = strings.TrimSpace(out)
		if secs := elapsed.Seconds(); secs > 0 {
			// One event per invocation; startup dominates, so this
			// is a floor, not a true throughput measurement.
			eps := 1 / secs
			res.Metrics = &PerfMetrics{
				EventsPerSecond:     eps,
				CPUPercent:          100,
				EventsPerCPUPercent: eps / 100,
				P99LatencyMs:        secs * 1000,
			}
		}
	}
	return res, nil
}

// run invokes `vector vrl` with the program and one input event,
// returning combined output. A non-zero exit with diagnostics on
// stderr is not an error; a failure to run the binary is.
func (v *VectorTool) run(ctx context.Context, code, event string) (string, error) {
	binary := v.Binary
	if binary == "" {
		binary = "vector"
	}
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "vrlforge-*")
	if err != nil {
		return "", fmt.Errorf("vector workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	progPath := filepath.Join(dir, "program.vrl")
	if err := os.WriteFile(progPath, []byte(code), 0o600); err != nil {
		return "", fmt.Errorf("write program: %w", err)
	}
	inputPath := filepath.Join(dir, "input.ndjson")
	if err := os.WriteFile(inputPath, []byte(event+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write input: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary, "vrl", "--program", progPath, "--input", inputPath, "--print-object")
	out, runErr := cmd.CombinedOutput()
	if runErr != nil {
		if _, isExit := runErr.(*exec.ExitError); isExit {
			// Compiler and runtime failures exit non-zero with the
			// diagnostics on stderr.
			return string(out), nil
		}
		return "", fmt.Errorf("run %s: %w", binary, runErr)
	}
	return string(out), nil
}

var (
	vectorErrRe = regexp.MustCompile(`error\[(E\d+)\]:?\s*(.*)`)
	vectorLocRe = regexp.MustCompile(`:(\d+):(\d+)`)
)

// ParseVectorDiagnostics extracts structured diagnostics from vector
// CLI output. Lines without an error marker are ignored.
func ParseVectorDiagnostics(output string) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, line := range strings.Split(output, "\n") {
		m := vectorErrRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		code, message := m[1], strings.TrimSpace(m[2])
		d := diag.Diagnostic{
			Category: categorizeVectorCode(code, message),
			Code:     code,
			Message:  message,
		}
		if loc := vectorLocRe.FindStringSubmatch(line); loc != nil {
			lineNum, _ := strconv.Atoi(loc[1])
			colNum, _ := strconv.Atoi(loc[2])
			d.Location = &diag.Location{Line: lineNum, Column: colNum}
		}
		diags = append(diags, d)
	}
	return diag.Dedupe(diags)
}

// categorizeVectorCode maps the compiler's error code, refined by
// message text, onto a diagnostic category.
func categorizeVectorCode(code, message string) diag.Category {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "out of bounds"), strings.Contains(lower, "bounds check"):
		return diag.ArrayBounds
	case code == "E103":
		return diag.UnhandledFallible
	case code == "E651":
		return diag.UnnecessaryErrorHandling
	case code == "E105", code == "E107":
		return diag.UndefinedReference
	case code == "E110", code == "E300":
		return diag.TypeMismatch
	case strings.HasPrefix(code, "E2"):
		return diag.Syntax
	default:
		return diag.Syntax
	}
}
