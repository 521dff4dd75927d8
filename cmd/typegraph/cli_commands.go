// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/typegraph/services/typegraph/config"
	"github.com/AleutianAI/typegraph/services/typegraph/logging"
	"github.com/AleutianAI/typegraph/services/typegraph/telemetry"
)

// =============================================================================
// GLOBAL STATE
// =============================================================================

var (
	configPath    string
	logLevelFlag  string
	cfg           *config.Config
	logger        *logging.Logger
	stopTelemetry func(context.Context) error
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "typegraph",
	Short: "Map type relationships between C++ source files",
	Long: `typegraph reads C++ sources in two passes. The first records which file
defines each type; the second records every relationship from the file
being read to the file defining the related type: inheritance,
composition, aggregation, usage, variables, parameters, return types,
globals.

The resulting graph is stored as a snapshot, reduced to its strongly
connected components and sorted topologically.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.FileName,
		"Configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, error (overrides the config file)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(serveCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevelFlag != "" {
		loaded.LogLevel = logLevelFlag
	}
	logger, err = logging.New(logging.Config{
		Level:   loaded.LogLevel,
		Dir:     loaded.LogDir,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	cfg = loaded
	slog.SetDefault(logger.Logger)

	stopTelemetry, err = telemetry.Init(cmd.Context(), cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	var errs []error
	if stopTelemetry != nil {
		errs = append(errs, stopTelemetry(context.Background()))
	}
	if logger != nil {
		errs = append(errs, logger.Close())
	}
	return errors.Join(errs...)
}

// openApp opens the store for a command. Callers close it.
func openApp() (*app, error) {
	return newApp(cfg, logger.Logger)
}
