// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Console: &buf})
	require.NoError(t, err)
	defer l.Close()

	l.Info("hidden")
	l.Warn("shown", slog.String("file", "shape.h"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "file=shape.h")
	assert.Contains(t, out, "service=typegraph")
	assert.Empty(t, l.Path())
}

func TestNew_FileLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	day := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	l, err := New(Config{
		Dir:     dir,
		Service: "serve",
		Console: &buf,
		Now:     func() time.Time { return day },
	})
	require.NoError(t, err)

	l.With(slog.String("run_id", "r1")).Info("analysis complete", slog.Int("files", 2))
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	assert.Equal(t, filepath.Join(dir, "serve_2025-03-04.log"), l.Path())
	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &rec))
	assert.Equal(t, "analysis complete", rec["msg"])
	assert.Equal(t, "serve", rec["service"])
	assert.Equal(t, "r1", rec["run_id"])
	assert.EqualValues(t, 2, rec["files"])
	assert.Contains(t, buf.String(), "analysis complete")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose"})
	assert.Error(t, err)
}
