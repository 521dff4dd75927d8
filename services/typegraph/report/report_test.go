// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/typegraph/services/typegraph/analyzer"
	"github.com/AleutianAI/typegraph/services/typegraph/graph"
	"github.com/AleutianAI/typegraph/services/typegraph/graphstore"
	"github.com/AleutianAI/typegraph/services/typegraph/symbols"
)

func cyclicGraph(t *testing.T) *graph.Graph[string] {
	t.Helper()
	g := graph.New[string]()
	shape := g.AddVertex("shape")
	circle := g.AddVertex("circle")
	canvas := g.AddVertex("canvas")
	require.NoError(t, g.AddEdge("inherits", shape, circle))
	require.NoError(t, g.AddEdge("uses", circle, canvas))
	require.NoError(t, g.AddEdge("aggregates", canvas, circle))
	return g
}

func TestArrow(t *testing.T) {
	assert.Equal(t, "V----variable------>", Arrow("variable"))
	assert.Equal(t, "<|----inherits------", Arrow("inherits"))
	assert.Equal(t, "RT/P---param------->", Arrow("param"))
	assert.Equal(t, "relationship", Arrow("relationship"))
}

func TestGraph_PlainLayout(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, ColorNever)
	p.Graph(cyclicGraph(t))
	require.NoError(t, p.Err())

	out := buf.String()
	assert.Contains(t, out, "Relationship graph")
	assert.Contains(t, out, strings.Repeat(" ", 25)+"shape\n")
	assert.Contains(t, out, "          <|----inherits------"+strings.Repeat(" ", 24)+"circle\n")
	assert.NotContains(t, out, "\x1b[")
}

func TestResult_Sections(t *testing.T) {
	res, err := analyzer.New().FromGraph(context.Background(), cyclicGraph(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	p := New(&buf, ColorNever)
	p.Result(res)
	p.Symbols([]symbols.Entry{{Name: "Shape", Placeholder: symbols.Placeholder, File: "shape"}})
	require.NoError(t, p.Err())

	out := buf.String()
	assert.Contains(t, out, "cycles     1")
	assert.Contains(t, out, "(cycle)")
	assert.Contains(t, out, "Topological order")
	assert.Contains(t, out, "  1  shape;")
	assert.Contains(t, out, "Shape")
}

func TestSearchOutput(t *testing.T) {
	g := cyclicGraph(t)
	var buf bytes.Buffer
	p := New(&buf, ColorNever)

	p.VertexMatches(g, g.SearchVertices("circle"))
	p.EdgeMatches(g, g.SearchEdges("uses"))
	p.EdgeMatches(g, g.SearchEdges("param"))

	out := buf.String()
	assert.Contains(t, out, "circle  id=1 (1 edges)")
	assert.Contains(t, out, "U----uses---------->")
	assert.Contains(t, out, "no matching edge")
}

func TestColorAlways(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, ColorAlways).Order(&graph.TopoResult[string]{Acyclic: false})
	assert.Contains(t, buf.String(), "\x1b[")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestPrinter_StopsOnWriteError(t *testing.T) {
	p := New(failingWriter{}, ColorNever)
	p.Graph(cyclicGraph(t))
	assert.EqualError(t, p.Err(), "disk full")
}

func TestSnapshots(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, ColorNever)
	p.Snapshots(nil)
	assert.Contains(t, buf.String(), "no stored runs")

	buf.Reset()
	id := uuid.New()
	p.Snapshots([]graphstore.Snapshot{{
		RunID:     id,
		Root:      "src",
		Files:     2,
		Vertices:  2,
		Edges:     1,
		Acyclic:   true,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}})
	require.NoError(t, p.Err())
	out := buf.String()
	assert.Contains(t, out, "RUN ID")
	assert.Contains(t, out, id.String())
	assert.Contains(t, out, "2025-01-02T03:04:05Z")
	assert.Contains(t, out, "true")
	assert.NotContains(t, out, "\x1b[")
}
