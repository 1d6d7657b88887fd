// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package promptctx

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for context selection operations.
var (
	tracer = otel.Tracer("vrlforge.promptctx")
	meter  = otel.Meter("vrlforge.promptctx")
)

// Metrics for context selection operations.
var (
	selectLatency      metric.Float64Histogram
	selectTotal        metric.Int64Counter
	tokensSelected     metric.Int64Histogram
	componentsSelected metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		selectLatency, err = meter.Float64Histogram(
			"promptctx_select_duration_seconds",
			metric.WithDescription("Duration of context selection operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		selectTotal, err = meter.Int64Counter(
			"promptctx_select_total",
			metric.WithDescription("Total number of context selection operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		tokensSelected, err = meter.Int64Histogram(
			"promptctx_tokens_selected",
			metric.WithDescription("Estimated tokens in the selected context"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		componentsSelected, err = meter.Int64Histogram(
			"promptctx_components_selected",
			metric.WithDescription("Number of components in the selected context"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startSelectSpan creates a span for a context selection operation.
func startSelectSpan(ctx context.Context, requestLen, budget int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Allocator.Assemble",
		trace.WithAttributes(
			attribute.Int("promptctx.request_length", requestLen),
			attribute.Int("promptctx.token_budget", budget),
		),
	)
}

// setSelectSpanResult sets the result attributes on a selection span.
func setSelectSpanResult(span trace.Span, kind RequestKind, tokens, components int) {
	span.SetAttributes(
		attribute.String("promptctx.kind", kind.String()),
		attribute.Int("promptctx.tokens_selected", tokens),
		attribute.Int("promptctx.components_selected", components),
	)
}

// recordSelectMetrics records metrics for a context selection operation.
func recordSelectMetrics(ctx context.Context, duration time.Duration, kind RequestKind, tokens, components int) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("kind", kind.String()))

	selectLatency.Record(ctx, duration.Seconds(), attrs)
	selectTotal.Add(ctx, 1, attrs)
	tokensSelected.Record(ctx, int64(tokens), attrs)
	componentsSelected.Record(ctx, int64(components), attrs)
}
