// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command typegraph analyses the type relationships between C++ source
// files.
//
// Usage:
//
//	typegraph analyze ./src
//	typegraph show latest
//	typegraph search edge inherits
//	typegraph serve
//
// Configuration is read from typegraph.yaml in the working directory,
// then .env, then TYPEGRAPH_* environment variables.
package main

import (
	"log/slog"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command line and returns the process exit code. Errors
// are logged through the default slog logger, which setup points at the
// configured handlers.
func run(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
