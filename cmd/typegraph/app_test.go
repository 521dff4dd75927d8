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
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/typegraph/services/typegraph/config"
	"github.com/AleutianAI/typegraph/services/typegraph/graphstore"
	"github.com/AleutianAI/typegraph/services/typegraph/xmlgraph"
)

func testApp(t *testing.T, mutate func(*config.Config)) *app {
	t.Helper()
	c := config.DefaultConfig()
	c.Store.InMemory = true
	c.Output.Color = "never"
	if mutate != nil {
		mutate(&c)
	}
	a, err := newApp(&c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func writeSources(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shape.h"),
		[]byte("class Shape {\npublic:\n    int id;\n};\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "circle.h"),
		[]byte("#include \"shape.h\"\n\nclass Circle : public Shape {\npublic:\n    int radius;\n};\n"), 0o644))
	return dir
}

func TestApp_AnalyzeStoresSnapshot(t *testing.T) {
	dir := writeSources(t)
	out := filepath.Join(t.TempDir(), "graph.xml")
	a := testApp(t, func(c *config.Config) { c.Output.XML = out })
	ctx := context.Background()

	res, snap, err := a.analyze(ctx, []string{dir}, false)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, snap.RunID)
	assert.Equal(t, 2, snap.Files)
	assert.Equal(t, 2, snap.Vertices)
	assert.True(t, snap.Acyclic)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	g, err := xmlgraph.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	id, err := a.resolveRun(ctx, latestRun)
	require.NoError(t, err)
	assert.Equal(t, snap.RunID, id)

	loaded, err := a.result(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, res.Graph.EdgeCount(), loaded.Graph.EdgeCount())
	assert.Equal(t, 2, loaded.Files)
}

func TestApp_AnalyzeReusesUnchangedFileSet(t *testing.T) {
	dir := writeSources(t)
	a := testApp(t, nil)
	ctx := context.Background()

	_, first, err := a.analyze(ctx, []string{dir}, false)
	require.NoError(t, err)
	_, second, err := a.analyze(ctx, []string{dir}, false)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, second.RunID)

	_, forced, err := a.analyze(ctx, []string{dir}, true)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, forced.RunID)

	snaps, err := a.store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestApp_ReusedRunStillWritesXML(t *testing.T) {
	dir := writeSources(t)
	a := testApp(t, nil)
	ctx := context.Background()

	_, first, err := a.analyze(ctx, []string{dir}, false)
	require.NoError(t, err)

	out := t.TempDir()
	a.cfg.Output.XML = filepath.Join(out, "graph.xml")
	a.cfg.Output.CondensedXML = filepath.Join(out, "condensed.xml")
	_, second, err := a.analyze(ctx, []string{dir}, false)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, second.RunID)

	for _, path := range []string{a.cfg.Output.XML, a.cfg.Output.CondensedXML} {
		data, err := os.ReadFile(path)
		require.NoError(t, err, path)
		g, err := xmlgraph.Unmarshal(data)
		require.NoError(t, err)
		assert.Equal(t, 2, g.Len())
	}
}

func TestApp_ChangedSettingsStartNewRun(t *testing.T) {
	dir := writeSources(t)
	a := testApp(t, nil)
	ctx := context.Background()

	res, first, err := a.analyze(ctx, []string{dir}, false)
	require.NoError(t, err)
	assert.Len(t, res.Graph.SearchEdges("inherits"), 1)

	a.cfg.Analysis.DisabledRules = []string{"Inheritance"}
	res, second, err := a.analyze(ctx, []string{dir}, false)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
	assert.Empty(t, res.Graph.SearchEdges("inherits"))

	a.cfg.Analysis.DisabledRules = nil
	_, third, err := a.analyze(ctx, []string{dir}, false)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, third.RunID)
}

func TestApp_ResolveRun(t *testing.T) {
	a := testApp(t, nil)
	ctx := context.Background()

	_, err := a.resolveRun(ctx, latestRun)
	assert.ErrorIs(t, err, graphstore.ErrSnapshotNotFound)

	_, err = a.resolveRun(ctx, "nope")
	assert.Error(t, err)

	id := uuid.New()
	got, err := a.resolveRun(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestApp_LoadGraphFromXML(t *testing.T) {
	dir := writeSources(t)
	out := filepath.Join(t.TempDir(), "graph.xml")
	a := testApp(t, func(c *config.Config) { c.Output.XML = out })
	ctx := context.Background()

	_, _, err := a.analyze(ctx, []string{dir}, false)
	require.NoError(t, err)

	g, err := a.loadGraph(ctx, out, "")
	require.NoError(t, err)
	assert.Len(t, g.SearchEdges("inherits"), 1)

	var buf bytes.Buffer
	p := a.printer(&buf)
	p.EdgeMatches(g, g.SearchEdges("inherits"))
	require.NoError(t, p.Err())
	assert.Contains(t, buf.String(), "shape")
	assert.Contains(t, buf.String(), "circle")
}
