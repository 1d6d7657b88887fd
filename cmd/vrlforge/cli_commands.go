// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/StreamHouseAI/vrlforge/pkg/logging"
	"github.com/StreamHouseAI/vrlforge/pkg/ux"
	"github.com/StreamHouseAI/vrlforge/services/forge"
	"github.com/StreamHouseAI/vrlforge/services/forge/generate"
	"github.com/StreamHouseAI/vrlforge/services/forge/session"
	"github.com/StreamHouseAI/vrlforge/services/forge/validate"
)

var (
	flagConfig      string
	flagModels      []string
	flagMaxIter     int
	flagCostCeiling float64
	flagOutputDir   string
	flagConcurrency int
	flagTask        string
	flagRateLimit   float64
	flagQuiet       bool
)

func init() {
	generateCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "session config file (yaml)")
	generateCmd.Flags().StringSliceVarP(&flagModels, "models", "m", nil, "priority-ordered model list, first is primary")
	generateCmd.Flags().IntVar(&flagMaxIter, "max-iterations", 0, "iteration cap per session")
	generateCmd.Flags().Float64Var(&flagCostCeiling, "cost-ceiling", 0, "per-session spend ceiling in USD")
	generateCmd.Flags().StringVarP(&flagOutputDir, "out", "o", ".", "directory for generated .vrl files")
	generateCmd.Flags().IntVarP(&flagConcurrency, "concurrency", "j", 2, "sessions to run in parallel")
	generateCmd.Flags().StringVarP(&flagTask, "task", "t", "", "override the generation task description")
	generateCmd.Flags().Float64Var(&flagRateLimit, "rate-limit", 0, "model requests per second, 0 disables")
	generateCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress progress logging")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(modelsCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate [sample-file...]",
	Short: "Generate a VRL parser for each sample log file",
	Long: `Runs one forge session per sample file. Each session feeds the
file's log lines to the model, validates the returned VRL against
every line, and applies local fixes before escalating to another
model call. The best passing candidate is written next to the
input as <name>.vrl.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List supported model families and pricing",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%-14s %12s %12s\n", "MODEL", "IN $/MTok", "OUT $/MTok")
		for _, p := range generate.DefaultPriceTable() {
			fmt.Printf("%-14s %12.2f %12.2f\n", p.Match, p.InputPerMTok, p.OutputPerMTok)
		}
	},
}

func runGenerate(cmd *cobra.Command, args []string) error {
	log := newLogger(flagQuiet)
	defer log.Close()

	base, err := baseConfig()
	if err != nil {
		return err
	}

	vector := validate.NewVectorTool()
	opts := []forge.EngineOption{forge.WithLogger(log)}
	if flagRateLimit > 0 {
		opts = append(opts, forge.WithRateLimit(flagRateLimit))
	}
	engine := forge.NewEngine(vector, vector, opts...)

	if err := os.MkdirAll(flagOutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	plain := !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
	var progress io.Writer = os.Stderr
	if flagQuiet {
		progress = io.Discard
	}
	spin := ux.NewSpinner(progress, fmt.Sprintf("Running %d session(s)", len(args)), plain)
	spin.Start()
	var completed atomic.Int64

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(flagConcurrency)
	for _, path := range args {
		path := path
		g.Go(func() error {
			samples, err := readSamples(path)
			if err != nil {
				return err
			}
			cfg := base
			cfg.Samples = samples
			if cfg.Task == "" {
				cfg.Task = fmt.Sprintf("Create a VRL parser for the log format in %s", filepath.Base(path))
			}

			log.Info("Starting session", "file", path, "samples", len(cfg.Samples))
			result, err := engine.Submit(ctx, cfg)
			if err != nil {
				return fmt.Errorf("session for %s: %w", path, err)
			}
			spin.UpdateMessage(fmt.Sprintf("Running %d session(s) [%d done]", len(args), completed.Add(1)))
			return writeResult(log, path, result)
		})
	}
	err = g.Wait()
	if err != nil {
		spin.StopWith("Run failed: %v", err)
		return err
	}
	spin.StopWith("Completed %d session(s)", completed.Load())
	return nil
}

// baseConfig layers CLI flags over the config file (or defaults).
func baseConfig() (session.Config, error) {
	cfg := session.DefaultConfig()
	if flagConfig != "" {
		loaded, err := session.LoadConfig(flagConfig)
		if err != nil {
			return session.Config{}, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if len(flagModels) > 0 {
		cfg.Models = flagModels
	}
	if flagMaxIter > 0 {
		cfg.MaxIterations = flagMaxIter
	}
	if flagCostCeiling > 0 {
		cfg.CostCeilingUSD = flagCostCeiling
	}
	if flagTask != "" {
		cfg.Task = flagTask
	}
	return cfg, nil
}

func readSamples(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}
	var samples []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimRight(line, "\r"); strings.TrimSpace(line) != "" {
			samples = append(samples, line)
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s contains no sample lines", path)
	}
	return samples, nil
}

// writeResult persists the winning candidate and logs the session
// outcome. A session that exhausts its budget without a passing
// candidate is reported but does not fail the whole run.
func writeResult(log *logging.Logger, path string, result *forge.SessionResult) error {
	switch result.Status {
	case forge.StatusSuccess:
		out := filepath.Join(flagOutputDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".vrl")
		if err := os.WriteFile(out, []byte(result.Best.Code+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		log.Info("Session succeeded",
			"file", path,
			"output", out,
			"model", result.Best.Model,
			"source", string(result.Best.Source),
			"iterations", result.Iterations,
			"local_fixes", result.LocalFixes,
			"billable_calls", result.BillableCalls,
			"cost_usd", result.CostUSD,
			"performance_tier", result.PerformanceTier,
			"performance_index", result.PerformanceIndex,
		)
	case forge.StatusBudgetExhausted:
		log.Warn("Session exhausted its budget without a passing candidate",
			"file", path,
			"candidates", len(result.Candidates),
			"cost_usd", result.CostUSD,
		)
	case forge.StatusAborted:
		log.Error("Session aborted",
			"file", path,
			"error", result.Error,
		)
	}
	return nil
}
