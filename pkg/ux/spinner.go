// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal progress indicators for long-running
// forge sessions. All output goes to the writer given at
// construction, so tests can capture it and non-TTY pipelines can
// disable it entirely.
package ux

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner is an animated progress indicator for one session.
//
// When plain mode is enabled the spinner prints the message once and
// stays silent, which keeps piped output machine-readable.
type Spinner struct {
	w       io.Writer
	message string
	plain   bool
	stop    chan struct{}
	done    chan struct{}

	mu         sync.Mutex
	running    bool
	frameIndex int
}

// NewSpinner creates a spinner writing to w. Pass plain=true when w
// is not a terminal.
func NewSpinner(w io.Writer, message string, plain bool) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		plain:   plain,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins the animation. Calling Start twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	if s.plain {
		fmt.Fprintf(s.w, "PROGRESS: %s\n", s.message)
		return
	}

	go func() {
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				// Clear the spinner line
				fmt.Fprint(s.w, "\r\033[K")
				close(s.done)
				return
			case <-ticker.C:
				s.mu.Lock()
				frame := spinnerFrames[s.frameIndex]
				msg := s.message
				s.frameIndex = (s.frameIndex + 1) % len(spinnerFrames)
				s.mu.Unlock()
				fmt.Fprintf(s.w, "\r%s %s", frame, msg)
			}
		}
	}()
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	if s.plain {
		return
	}

	close(s.stop)
	<-s.done
}

// UpdateMessage changes the message while the spinner runs.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// StopWith stops the spinner and prints a final status line.
func (s *Spinner) StopWith(format string, args ...any) {
	s.Stop()
	fmt.Fprintf(s.w, format+"\n", args...)
}
