// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session holds the per-run state of one generation-repair
// session: its config snapshot, cost and iteration accounting, and
// the candidate ledger.
package session

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/StreamHouseAI/vrlforge/services/forge/fixer"
	"github.com/StreamHouseAI/vrlforge/services/forge/promptctx"
)

// Config is the immutable configuration of one session. A session
// snapshots it at creation; later edits to the caller's copy have no
// effect.
type Config struct {
	// Task is what the user asked for.
	Task string `yaml:"task" validate:"required"`

	// Samples are the raw log lines the candidate must parse.
	Samples []string `yaml:"samples" validate:"required,min=1"`

	// Models is the priority-ordered model list. The first entry is
	// the primary; the rest are fallbacks.
	Models []string `yaml:"models" validate:"required,min=1"`

	// MaxIterations bounds the generate-validate loop.
	MaxIterations int `yaml:"max_iterations" validate:"gte=1"`

	// CostCeilingUSD aborts the session once accumulated model spend
	// reaches it.
	CostCeilingUSD float64 `yaml:"cost_ceiling_usd" validate:"gt=0"`

	// ContextBudget bounds prompt assembly.
	ContextBudget promptctx.Budget `yaml:"context_budget"`

	// FixPolicy decides when local fixes are attempted.
	FixPolicy fixer.Policy `yaml:"fix_policy"`

	// BenchmarkMultiplier normalizes performance scores across
	// hardware; 1.0 means no adjustment.
	BenchmarkMultiplier float64 `yaml:"benchmark_multiplier"`
}

// DefaultConfig returns a config with the standard budgets. Task,
// Samples, and Models must still be filled in.
func DefaultConfig() Config {
	return Config{
		Models:              []string{"claude-sonnet-4-5"},
		MaxIterations:       10,
		CostCeilingUSD:      5.00,
		ContextBudget:       promptctx.DefaultBudget(),
		FixPolicy:           fixer.DefaultPolicy(),
		BenchmarkMultiplier: 1.0,
	}
}

// Validate checks the config against its struct tags.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}

// LoadConfig reads a YAML session config, layering the file over the
// defaults and validating the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
