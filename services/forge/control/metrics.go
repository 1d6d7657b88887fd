// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package control

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for the iteration loop.
var (
	tracer = otel.Tracer("vrlforge.control")
	meter  = otel.Meter("vrlforge.control")
)

// Metrics for the iteration loop.
var (
	sessionDuration  metric.Float64Histogram
	sessionsTotal    metric.Int64Counter
	transitionsTotal metric.Int64Counter
	iterationsUsed   metric.Int64Histogram
	costUSDHist      metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		sessionDuration, err = meter.Float64Histogram(
			"forge_session_duration_seconds",
			metric.WithDescription("Duration of one generation-repair session"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		sessionsTotal, err = meter.Int64Counter(
			"forge_sessions_total",
			metric.WithDescription("Total sessions by final state"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		transitionsTotal, err = meter.Int64Counter(
			"forge_transitions_total",
			metric.WithDescription("State machine transitions by from and to state"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		iterationsUsed, err = meter.Int64Histogram(
			"forge_session_iterations",
			metric.WithDescription("Iterations consumed per session"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		costUSDHist, err = meter.Float64Histogram(
			"forge_session_cost_usd",
			metric.WithDescription("Model spend per session in USD"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startSessionSpan creates a span for one session run.
func startSessionSpan(ctx context.Context, sessionID string, samples int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Controller.Run",
		trace.WithAttributes(
			attribute.String("forge.session_id", sessionID),
			attribute.Int("forge.samples", samples),
		),
	)
}

// recordTransitionMetrics counts one state transition.
func recordTransitionMetrics(ctx context.Context, from, to State) {
	if err := initMetrics(); err != nil {
		return
	}
	transitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from.String()),
		attribute.String("to", to.String()),
	))
}

// recordSessionMetrics records the outcome of one session run.
func recordSessionMetrics(ctx context.Context, duration time.Duration, final State, iterations int, costUSD float64) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("final_state", final.String()))
	sessionDuration.Record(ctx, duration.Seconds(), attrs)
	sessionsTotal.Add(ctx, 1, attrs)
	iterationsUsed.Record(ctx, int64(iterations), attrs)
	costUSDHist.Record(ctx, costUSD, attrs)
}
