// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/typegraph/services/typegraph/graph"
	"github.com/AleutianAI/typegraph/services/typegraph/lexer"
	"github.com/AleutianAI/typegraph/services/typegraph/relations"
)

const shapeH = `class Shape {
public:
    int id;
};
`

const circleH = `#include "shape.h"

class Circle : public Shape {
public:
    int radius;
};
`

// edgesByLabel returns "from->to" pairs for label.
func edgesByLabel(g *graph.Graph[string], label string) []string {
	var out []string
	for _, m := range g.SearchEdges(label) {
		from, _ := g.Vertex(m.From)
		to, _ := g.Vertex(m.Edge.To)
		out = append(out, from.Payload+"->"+to.Payload)
	}
	sort.Strings(out)
	return out
}

func TestRun_Inheritance(t *testing.T) {
	files := []SourceFile{
		{Path: "src/circle.h", Content: []byte(circleH)},
		{Path: "src/shape.h", Content: []byte(shapeH)},
	}
	res, err := New().Run(context.Background(), files)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, res.RunID)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, []string{"shape->circle"}, edgesByLabel(res.Graph, string(relations.Inherits)))
	assert.Equal(t, 1, res.Counts[relations.Inherits])
	assert.True(t, res.Acyclic())
	assert.True(t, res.Topo.Acyclic)
	assert.Positive(t, res.SemiExpressions[0])
	assert.Equal(t, res.SemiExpressions[0], res.SemiExpressions[1])

	var names []string
	for _, e := range res.Symbols {
		names = append(names, e.Name+"@"+e.File)
	}
	assert.Equal(t, []string{"Circle@circle", "Shape@shape"}, names)

	// shape must come before circle in the condensed order.
	order := make(map[string]int)
	for i, v := range res.Topo.Order {
		order[v.Payload] = i
	}
	assert.Less(t, order["shape;"], order["circle;"])
}

func TestRun_CompositionCycle(t *testing.T) {
	files := []SourceFile{
		{Path: "a.h", Content: []byte("class A {\n    B b;\n};\n")},
		{Path: "b.h", Content: []byte("class B {\n    A a;\n};\n")},
	}
	res, err := New().Run(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, []string{"a->b", "b->a"}, edgesByLabel(res.Graph, string(relations.Composes)))
	require.Len(t, res.Cycles, 1)
	assert.Len(t, res.Cycles[0], 2)
	assert.False(t, res.Acyclic())
	assert.Equal(t, 1, res.Condensed.Len())
	assert.True(t, res.Topo.Acyclic)
}

func TestRun_DisabledRule(t *testing.T) {
	files := []SourceFile{
		{Path: "circle.h", Content: []byte(circleH)},
		{Path: "shape.h", Content: []byte(shapeH)},
	}
	res, err := New(WithDisabledRules("Inheritance")).Run(context.Background(), files)
	require.NoError(t, err)
	assert.Empty(t, edgesByLabel(res.Graph, string(relations.Inherits)))
}

func TestRun_SkipsBadFiles(t *testing.T) {
	files := []SourceFile{
		{Path: "shape.h", Content: []byte(shapeH)},
		{Path: "big.h", Content: []byte(strings.Repeat("int x;\n", 100))},
		{Path: "bad.h", Content: []byte{0xff, 0xfe}},
	}
	a := New(WithLexer(lexer.New(lexer.WithMaxFileSize(len(shapeH)))))
	res, err := a.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, []string{"big.h", "bad.h"}, res.Skipped)

	_, err = a.Run(context.Background(), files[1:])
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Run(ctx, []SourceFile{{Path: "shape.h", Content: []byte(shapeH)}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Empty(t *testing.T) {
	res, err := New().Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Graph.Len())
	assert.Empty(t, res.Topo.Order)
}

func TestFileSet_Collect(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, body string) {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	write("shape.h", shapeH)
	write("geo/circle.h", circleH)
	write("README.md", "# not code")
	write("build/generated.h", "class Gen {};")

	fs := NewFileSet(WithExclude("/build/"))
	files, err := fs.Collect(context.Background(), dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, path.Base(f.Path))
	}
	sort.Strings(names)
	assert.Equal(t, []string{"circle.h", "shape.h"}, names)

	res, err := New().AnalyzeRoots(context.Background(), fs, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"shape->circle"}, edgesByLabel(res.Graph, string(relations.Inherits)))
}

func TestFileSet_SingleFileAndEmpty(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(p, []byte("class X {};"), 0o644))

	files, err := NewFileSet().Collect(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, files, 1)

	_, err = NewFileSet().Collect(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestFileSet_Matches(t *testing.T) {
	fs := NewFileSet(WithExtensions(".cpp"))
	assert.True(t, fs.Matches("a.CPP"))
	assert.False(t, fs.Matches("a.h"))
}
