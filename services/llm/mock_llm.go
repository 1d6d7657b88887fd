// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"sync"
)

// MockClient is a scriptable in-memory Client for tests and offline
// runs. Responses are consumed in FIFO order; once the queue is
// drained the mock keeps returning the last scripted step. With no
// scripted steps it returns a small deterministic VRL program.
//
// Thread Safety: MockClient is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	model string
	steps []MockStep
	calls []MockCall
}

// MockStep is one scripted response: either a completion or an error.
type MockStep struct {
	Content string
	Usage   Usage
	Err     error
}

// MockCall records the arguments of one Complete invocation.
type MockCall struct {
	Messages []Message
	Params   GenerationParams
}

// defaultMockVRL mirrors what a model would normally produce for a
// simple syslog-shaped sample.
const defaultMockVRL = `parts = split!(to_string!(.message), " ")
if length(parts) > 3 {
    .hostname = parts[3]
}
.parsed = true
`

// NewMockClient creates a MockClient for the given model id.
func NewMockClient(model string, steps ...MockStep) *MockClient {
	if model == "" {
		model = "mock-model"
	}
	return &MockClient{model: model, steps: steps}
}

// Model implements the Client interface.
func (m *MockClient) Model() string { return m.model }

// Complete implements the Client interface.
func (m *MockClient) Complete(ctx context.Context, messages []Message, params GenerationParams) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{Messages: messages, Params: params})

	if len(m.steps) == 0 {
		return &Completion{
			Content: defaultMockVRL,
			Model:   m.model,
			Usage:   Usage{InputTokens: 500, OutputTokens: 120},
		}, nil
	}

	step := m.steps[0]
	if len(m.steps) > 1 {
		m.steps = m.steps[1:]
	}
	if step.Err != nil {
		return nil, step.Err
	}
	usage := step.Usage
	if usage == (Usage{}) {
		usage = Usage{InputTokens: 500, OutputTokens: 120}
	}
	return &Completion{
		Content: step.Content,
		Model:   m.model,
		Usage:   usage,
	}, nil
}

// Calls returns a copy of all recorded invocations.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Complete invocations so far.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
