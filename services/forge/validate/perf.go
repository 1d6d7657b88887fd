// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validate

// PerfMetrics captures the runtime cost of a candidate over the
// sample set.
type PerfMetrics struct {
	// EventsPerSecond is raw throughput.
	EventsPerSecond float64 `json:"events_per_second"`

	// CPUPercent is average CPU usage during the run.
	CPUPercent float64 `json:"cpu_percent"`

	// MemoryMB is average resident memory during the run.
	MemoryMB float64 `json:"memory_mb"`

	// EventsPerCPUPercent is throughput normalized by CPU cost, the
	// number the tier bands and the performance index are built on.
	EventsPerCPUPercent float64 `json:"events_per_cpu_percent"`

	// P99LatencyMs is the estimated 99th percentile per-event
	// latency in milliseconds.
	P99LatencyMs float64 `json:"p99_latency_ms"`
}

// Tier classifies events/CPU% into a named performance band.
func (m PerfMetrics) Tier() string {
	e := m.EventsPerCPUPercent
	switch {
	case e >= 15000:
		return "Tier S+ (Elite)"
	case e >= 5000:
		return "Tier S (Exceptional)"
	case e >= 300:
		return "Tier 1 (Ultra-Fast)"
	case e >= 150:
		return "Tier 2 (Fast)"
	case e >= 50:
		return "Tier 3 (Moderate)"
	case e >= 3:
		return "Tier 4 (Slow)"
	default:
		return "Tier 5 (Critical)"
	}
}

// TierRank returns the band as an ordinal, 0 for the best band. Used
// for ranking candidates without comparing band names.
func (m PerfMetrics) TierRank() int {
	e := m.EventsPerCPUPercent
	switch {
	case e >= 15000:
		return 0
	case e >= 5000:
		return 1
	case e >= 300:
		return 2
	case e >= 150:
		return 3
	case e >= 50:
		return 4
	case e >= 3:
		return 5
	default:
		return 6
	}
}

// PerformanceIndex normalizes events/CPU% across hardware by scaling
// with the host's CPU benchmark multiplier.
func (m PerfMetrics) PerformanceIndex(benchmarkMultiplier float64) int {
	return int(m.EventsPerCPUPercent * benchmarkMultiplier)
}

// averagePerf merges per-sample metrics by arithmetic mean. Nil when
// the input is empty.
func averagePerf(runs []PerfMetrics) *PerfMetrics {
	if len(runs) == 0 {
		return nil
	}
	var sum PerfMetrics
	for _, r := range runs {
		sum.EventsPerSecond += r.EventsPerSecond
		sum.CPUPercent += r.CPUPercent
		sum.MemoryMB += r.MemoryMB
		sum.EventsPerCPUPercent += r.EventsPerCPUPercent
		sum.P99LatencyMs += r.P99LatencyMs
	}
	n := float64(len(runs))
	return &PerfMetrics{
		EventsPerSecond:     sum.EventsPerSecond / n,
		CPUPercent:          sum.CPUPercent / n,
		MemoryMB:            sum.MemoryMB / n,
		EventsPerCPUPercent: sum.EventsPerCPUPercent / n,
		P99LatencyMs:        sum.P99LatencyMs / n,
	}
}
