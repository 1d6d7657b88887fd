// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"fmt"
	"strings"
)

// NewClientForModel constructs the backend client appropriate for a
// model id. Providers are keyed off the id prefix:
//
//	claude-* -> Anthropic
//	gpt-*    -> OpenAI (also o1-*, o3-*)
//	mock-*   -> MockClient (offline/testing)
func NewClientForModel(model string) (Client, error) {
	switch {
	case strings.HasPrefix(model, "claude-"):
		return NewAnthropicClient(model)
	case strings.HasPrefix(model, "gpt-"),
		strings.HasPrefix(model, "o1-"),
		strings.HasPrefix(model, "o3-"):
		return NewOpenAIClient(model)
	case strings.HasPrefix(model, "mock"):
		return NewMockClient(model), nil
	default:
		return nil, fmt.Errorf("no backend registered for model %q", model)
	}
}

// NewClientsForModels builds a client per model id, preserving order.
// The order is the fallback priority used by the candidate generator.
func NewClientsForModels(models []string) ([]Client, error) {
	clients := make([]Client, 0, len(models))
	for _, model := range models {
		c, err := NewClientForModel(model)
		if err != nil {
			return nil, fmt.Errorf("building client for %s: %w", model, err)
		}
		clients = append(clients, c)
	}
	return clients, nil
}
