// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer so the spinner goroutine and the
// test can both touch it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_PlainModePrintsOnce(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "Generating parser", true)
	s.Start()
	s.Start() // second Start is a no-op
	s.Stop()

	got := buf.String()
	if got != "PROGRESS: Generating parser\n" {
		t.Errorf("plain output = %q", got)
	}
}

func TestSpinner_AnimatesAndClears(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "working", false)
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	got := buf.String()
	if !strings.Contains(got, "working") {
		t.Errorf("expected message in output, got %q", got)
	}
	if !strings.Contains(got, "\r\033[K") {
		t.Errorf("expected clear sequence after Stop, got %q", got)
	}
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "idle", false)
	s.Stop() // must not panic or block

	if buf.String() != "" {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestSpinner_StopWithPrintsStatus(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "session", true)
	s.Start()
	s.StopWith("done in %d iterations", 3)

	if !strings.Contains(buf.String(), "done in 3 iterations") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSpinner_UpdateMessage(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "first", false)
	s.Start()
	s.UpdateMessage("second")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "second") {
		t.Errorf("expected updated message, got %q", buf.String())
	}
}
