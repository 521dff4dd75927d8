// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "typegraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.Analysis.Extensions, ".cpp")
	assert.Contains(t, cfg.Analysis.Extensions, ".h")
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
log_level: debug
analysis:
  extensions: [".cpp"]
  skip_self_edges: true
  disabled_rules: ["usage"]
output:
  xml: out/graph.xml
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{".cpp"}, cfg.Analysis.Extensions)
	assert.True(t, cfg.Analysis.SkipSelfEdges)
	assert.Equal(t, []string{"usage"}, cfg.Analysis.DisabledRules)
	assert.Equal(t, "out/graph.xml", cfg.Output.XML)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:8089", cfg.API.Address)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TYPEGRAPH_LOG_LEVEL", "WARN")
	t.Setenv("TYPEGRAPH_EXTENSIONS", ".h, .cc")
	t.Setenv("TYPEGRAPH_SKIP_SELF_EDGES", "true")

	cfg, err := Load(writeFile(t, "log_level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []string{".h", ".cc"}, cfg.Analysis.Extensions)
	assert.True(t, cfg.Analysis.SkipSelfEdges)
}

func TestLoad_BadBoolEnv(t *testing.T) {
	t.Setenv("TYPEGRAPH_SKIP_SELF_EDGES", "sometimes")
	_, err := Load(writeFile(t, ""))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"log level", "log_level: loud\n"},
		{"extension without dot", "analysis:\n  extensions: [cpp]\n"},
		{"no extensions", "analysis:\n  extensions: []\n"},
		{"color", "output:\n  color: sometimes\n"},
		{"trace exporter", "telemetry:\n  trace_exporter: zipkin\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	data, err := cfg.Marshal()
	require.NoError(t, err)

	cfg2, err := Load(writeFile(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, cfg.Analysis, cfg2.Analysis)
	assert.Equal(t, cfg.API, cfg2.API)
}

func TestAnalysisConfig_Canonical(t *testing.T) {
	a := DefaultConfig().Analysis
	a.DisabledRules = []string{"Inheritance", "Aggregation"}
	b := DefaultConfig().Analysis
	b.DisabledRules = []string{"Aggregation", "Inheritance"}

	encA, err := a.Canonical()
	require.NoError(t, err)
	encB, err := b.Canonical()
	require.NoError(t, err)
	assert.Equal(t, encA, encB)
	assert.Equal(t, []string{"Inheritance", "Aggregation"}, a.DisabledRules)

	b.SkipSelfEdges = !b.SkipSelfEdges
	encC, err := b.Canonical()
	require.NoError(t, err)
	assert.NotEqual(t, encA, encC)
}
