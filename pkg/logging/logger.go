// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for VRLForge components.
//
// The package wraps log/slog: text or JSON output on a single writer
// (stderr by default), plus an optional Exporter that receives every
// entry as a structured value, attributes from With included. The
// exporter sits inside the handler chain, so session-scoped loggers
// export their session_id along with each entry.
//
//	logger := logging.Default()
//	logger.Info("session started", "session_id", sessionID)
//	logger.Error("generation failed", "error", err)
//
// This package does NOT redact sensitive data. Callers must ensure
// API keys and sample payload contents are not logged:
//
//	// BAD: logs the key
//	logger.Info("auth", "api_key", key)
//
//	// GOOD: log metadata only
//	logger.Info("auth", "api_key_present", key != "")
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Level is the minimum severity a logger emits. Levels follow the
// slog convention: Debug < Info < Warn < Error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures a Logger. The zero value logs Info and above to
// stderr as text.
type Config struct {
	// Level is the minimum level emitted.
	Level Level

	// Service is attached to every entry as the "service" attribute.
	Service string

	// JSON switches the output from text to JSON.
	JSON bool

	// Quiet suppresses writer output. Entries still reach the
	// exporter.
	Quiet bool

	// Output receives the formatted log stream. Defaults to stderr.
	Output io.Writer

	// Exporter, when set, receives every emitted entry.
	Exporter Exporter
}

// Exporter receives structured log entries for shipping elsewhere.
// Export runs on the logging goroutine with a short timeout context;
// implementations that talk to the network should buffer and flush in
// batches. Flush is called from Logger.Close before Close.
type Exporter interface {
	Export(ctx context.Context, entry Entry) error
	Flush(ctx context.Context) error
	Close() error
}

// Entry is one exported log record.
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Attrs     map[string]any
}

// Logger is a leveled structured logger. Safe for concurrent use.
type Logger struct {
	slog *slog.Logger
	cfg  Config
}

// New builds a logger from the config.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Quiet {
		out = io.Discard
	}

	opts := &slog.HandlerOptions{Level: cfg.Level.slogLevel()}
	var h slog.Handler
	if cfg.JSON {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	if cfg.Exporter != nil {
		h = &exportHandler{next: h, exporter: cfg.Exporter, min: cfg.Level.slogLevel()}
	}
	if cfg.Service != "" {
		h = h.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})
	}

	return &Logger{slog: slog.New(h), cfg: cfg}
}

// Default returns a stderr text logger at Info level for service
// "vrlforge".
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "vrlforge"})
}

// Debug logs at Debug level.
func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }

// Info logs at Info level.
func (l *Logger) Info(msg string, args ...any) { l.slog.Info(msg, args...) }

// Warn logs at Warn level.
func (l *Logger) Warn(msg string, args ...any) { l.slog.Warn(msg, args...) }

// Error logs at Error level.
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a logger carrying additional attributes. The parent is
// not modified; the attributes flow to the exporter as well as the
// writer.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), cfg: l.cfg}
}

// Close flushes and closes the exporter, if any. Returns the first
// error encountered.
func (l *Logger) Close() error {
	if l.cfg.Exporter == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.cfg.Exporter.Flush(ctx); err != nil {
		return fmt.Errorf("flush exporter: %w", err)
	}
	if err := l.cfg.Exporter.Close(); err != nil {
		return fmt.Errorf("close exporter: %w", err)
	}
	return nil
}

// exportHandler sits in the slog handler chain, converting records to
// entries for the exporter before passing them on. Keeping it in the
// chain means WithAttrs attributes reach the exporter too.
type exportHandler struct {
	next     slog.Handler
	exporter Exporter
	min      slog.Level
	attrs    []slog.Attr
}

func (h *exportHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *exportHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	entry := Entry{
		Timestamp: r.Time,
		Level:     fromSlogLevel(r.Level),
		Message:   r.Message,
		Attrs:     attrs,
	}
	exportCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	// Export failures must not disrupt logging.
	_ = h.exporter.Export(exportCtx, entry)

	return h.next.Handle(ctx, r)
}

func (h *exportHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &exportHandler{
		next:     h.next.WithAttrs(attrs),
		exporter: h.exporter,
		min:      h.min,
		attrs:    merged,
	}
}

func (h *exportHandler) WithGroup(name string) slog.Handler {
	return &exportHandler{
		next:     h.next.WithGroup(name),
		exporter: h.exporter,
		min:      h.min,
		attrs:    h.attrs,
	}
}

func fromSlogLevel(level slog.Level) Level {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarn
	case level >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// BufferedExporter collects entries in memory. Tests use it to assert
// on log output.
type BufferedExporter struct {
	mu      sync.Mutex
	entries []Entry
}

// NewBufferedExporter returns an empty buffer.
func NewBufferedExporter() *BufferedExporter {
	return &BufferedExporter{}
}

// Export appends the entry.
func (e *BufferedExporter) Export(ctx context.Context, entry Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append(e.entries, entry)
	return nil
}

// Flush is a no-op; entries are already in memory.
func (e *BufferedExporter) Flush(ctx context.Context) error { return nil }

// Close is a no-op.
func (e *BufferedExporter) Close() error { return nil }

// Entries returns a copy of the collected entries.
func (e *BufferedExporter) Entries() []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// WriterExporter writes one line per entry to an io.Writer. Used for
// session audit logs.
type WriterExporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterExporter wraps w. The exporter does not own the writer;
// Close does not close it.
func NewWriterExporter(w io.Writer) *WriterExporter {
	return &WriterExporter{w: w}
}

// Export writes the entry as a single line.
func (e *WriterExporter) Export(ctx context.Context, entry Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := fmt.Fprintf(e.w, "[%s] %s: %s %v\n",
		entry.Timestamp.Format(time.RFC3339),
		entry.Level,
		entry.Message,
		entry.Attrs,
	)
	return err
}

// Flush is a no-op; writes are immediate.
func (e *WriterExporter) Flush(ctx context.Context) error { return nil }

// Close is a no-op.
func (e *WriterExporter) Close() error { return nil }
