// Copyright (C) 2026 StreamHouse AI (engineering@streamhouse.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command vrlforge generates Vector Remap Language parsers from
// sample log files using an LLM-driven generate-validate-repair
// loop.
//
// Usage:
//
//	vrlforge generate samples/ssh.log
//	vrlforge generate --models claude-sonnet-4-5,gpt-4o samples/*.log
//	vrlforge models
package main

import (
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/StreamHouseAI/vrlforge/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "vrlforge",
	Short: "Generate VRL parsers from sample logs",
	Long: `vrlforge turns raw sample log lines into a working VRL transform.
A model drafts the parser, the validator runs it against every sample,
and cheap local fixes repair common compiler complaints before paying
for another model call.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

// newLogger picks human-readable output on a terminal and JSON when
// piped.
func newLogger(quiet bool) *logging.Logger {
	cfg := logging.Config{
		Level:   logging.LevelInfo,
		Service: "vrlforge",
		Quiet:   quiet,
		JSON:    !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}
	return logging.New(cfg)
}
