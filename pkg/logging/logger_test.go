// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("below-threshold entries emitted:\n%s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("threshold entries missing:\n%s", out)
	}
}

func TestLogger_JSONOutputCarriesService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Service: "forgeserver", JSON: true, Output: &buf})

	logger.Info("session started", "session_id", "abc-123")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["service"] != "forgeserver" {
		t.Errorf("service = %v, want forgeserver", entry["service"])
	}
	if entry["session_id"] != "abc-123" {
		t.Errorf("session_id = %v", entry["session_id"])
	}
	if entry["msg"] != "session started" {
		t.Errorf("msg = %v", entry["msg"])
	}
}

func TestLogger_QuietStillExports(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Output: &buf, Exporter: exporter})

	logger.Info("silent but exported")

	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote to output: %q", buf.String())
	}
	entries := exporter.Entries()
	if len(entries) != 1 || entries[0].Message != "silent but exported" {
		t.Fatalf("entries = %+v, want the one message", entries)
	}
}

func TestLogger_WithAttrsReachExporter(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Exporter: exporter})

	logger.With("session_id", "abc-123").Info("candidate generated", "sequence", 2)

	entries := exporter.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Attrs["session_id"] != "abc-123" {
		t.Errorf("With attribute lost: %+v", entries[0].Attrs)
	}
	if entries[0].Attrs["sequence"] != int64(2) {
		t.Errorf("call attribute = %v (%T), want 2", entries[0].Attrs["sequence"], entries[0].Attrs["sequence"])
	}
	if entries[0].Level != LevelInfo {
		t.Errorf("Level = %v, want INFO", entries[0].Level)
	}
}

func TestLogger_ExporterRespectsLevel(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Level: LevelError, Quiet: true, Exporter: exporter})

	logger.Info("dropped")
	logger.Error("kept")

	entries := exporter.Entries()
	if len(entries) != 1 || entries[0].Message != "kept" {
		t.Errorf("entries = %+v, want only the error", entries)
	}
}

// flushRecorder records the Flush/Close ordering for Close tests.
type flushRecorder struct {
	calls []string
	err   error
}

func (f *flushRecorder) Export(ctx context.Context, entry Entry) error { return nil }
func (f *flushRecorder) Flush(ctx context.Context) error {
	f.calls = append(f.calls, "flush")
	return f.err
}
func (f *flushRecorder) Close() error {
	f.calls = append(f.calls, "close")
	return nil
}

func TestLogger_CloseFlushesThenClosesExporter(t *testing.T) {
	rec := &flushRecorder{}
	logger := New(Config{Quiet: true, Exporter: rec})

	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(rec.calls) != 2 || rec.calls[0] != "flush" || rec.calls[1] != "close" {
		t.Errorf("calls = %v, want [flush close]", rec.calls)
	}
}

func TestLogger_CloseReportsFlushError(t *testing.T) {
	rec := &flushRecorder{err: errors.New("broken pipe")}
	logger := New(Config{Quiet: true, Exporter: rec})

	if err := logger.Close(); err == nil {
		t.Error("expected flush error from Close")
	}
}

func TestLogger_CloseWithoutExporter(t *testing.T) {
	logger := New(Config{Quiet: true})
	if err := logger.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestWriterExporter_FormatsOneLine(t *testing.T) {
	var buf bytes.Buffer
	e := NewWriterExporter(&buf)

	err := e.Export(context.Background(), Entry{
		Timestamp: time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		Level:     LevelWarn,
		Message:   "budget spent",
		Attrs:     map[string]any{"session_id": "abc"},
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "WARN: budget spent") || !strings.Contains(got, "session_id:abc") {
		t.Errorf("line = %q", got)
	}
	if strings.Count(got, "\n") != 1 {
		t.Errorf("want exactly one line, got %q", got)
	}
}

func TestBufferedExporter_EntriesReturnsCopy(t *testing.T) {
	e := NewBufferedExporter()
	_ = e.Export(context.Background(), Entry{Message: "one"})

	first := e.Entries()
	first[0].Message = "mutated"

	if e.Entries()[0].Message != "one" {
		t.Error("Entries exposed internal storage")
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("Default returned nil")
	}
	// Usable without configuration.
	logger.Debug("suppressed at default level")
}
