// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import "errors"

// Sentinel errors for completion failures. Backends wrap provider
// errors with one of these so callers can classify via errors.Is.
var (
	// ErrRateLimited indicates the provider rejected the call with a
	// rate-limit response (HTTP 429 or equivalent). Retryable.
	ErrRateLimited = errors.New("llm: rate limited")

	// ErrAuthFailure indicates a missing or rejected API key.
	ErrAuthFailure = errors.New("llm: authentication failed")

	// ErrTimeout indicates the call exceeded its deadline. Retryable.
	ErrTimeout = errors.New("llm: request timed out")

	// ErrEmptyContent indicates the provider returned a response with
	// no usable text content. Not retryable on the same model.
	ErrEmptyContent = errors.New("llm: empty content")

	// ErrRefused indicates the model explicitly declined to produce
	// output. Not retryable on the same model.
	ErrRefused = errors.New("llm: model refused request")
)
