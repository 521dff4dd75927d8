// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package xmlgraph

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/AleutianAI/typegraph/services/typegraph/graph"
)

func sampleGraph(t *testing.T) *graph.Graph[string] {
	t.Helper()
	g := graph.New[string]()
	shape := g.AddVertex("Shape")
	circle := g.AddVertex("Circle")
	canvas := g.AddVertex("Canvas")
	require.NoError(t, g.AddEdge("inherits", shape, circle))
	require.NoError(t, g.AddEdge("uses", circle, canvas))
	require.NoError(t, g.AddEdge("uses", circle, canvas))
	require.NoError(t, g.AddEdge("aggregates", canvas, circle))
	return g
}

func TestWrite_Format(t *testing.T) {
	data, err := Marshal(sampleGraph(t))
	require.NoError(t, err)
	doc := string(data)

	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Contains(t, doc, `<vertex id="0" value="Shape">`)
	assert.Contains(t, doc, `<edge value="inherits" points="Circle" id="1">`)
	assert.Equal(t, 2, strings.Count(doc, `points="Canvas"`))
}

func TestReadWrite_PreservesStructure(t *testing.T) {
	g := sampleGraph(t)
	data, err := Marshal(g)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, g.Vertices(), back.Vertices())
}

func TestRead_ForwardReference(t *testing.T) {
	doc := `<graph>
  <vertex id="5" value="Derived">
    <edge value="uses" points="Helper" id="9"/>
  </vertex>
  <vertex id="9" value="Helper">
    <edge value="inherits" points="Derived" id="5"/>
  </vertex>
</graph>`
	g, err := Read(strings.NewReader(doc))
	require.NoError(t, err)

	require.Equal(t, 2, g.Len())
	assert.True(t, g.HasEdge(5, 9))
	assert.True(t, g.HasEdge(9, 5))
	v, ok := g.Vertex(9)
	require.True(t, ok)
	assert.Equal(t, "Helper", v.Payload)

	// Fresh identities continue after the largest read one.
	assert.Equal(t, 10, g.AddVertex("New"))
}

func TestRead_VertexRecordFixesPayload(t *testing.T) {
	doc := `<graph>
  <vertex id="0" value="A"><edge value="uses" points="stale" id="1"/></vertex>
  <vertex id="1" value="B"/>
</graph>`
	g, err := Read(strings.NewReader(doc))
	require.NoError(t, err)
	v, _ := g.Vertex(1)
	assert.Equal(t, "B", v.Payload)
	_, ok := g.FindByPayload("stale")
	assert.False(t, ok)
}

func TestRead_Malformed(t *testing.T) {
	_, err := Read(strings.NewReader("<graph><vertex"))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Read(strings.NewReader(`<graph><vertex id="1" value="a"/><vertex id="1" value="b"/></graph>`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSaveLoad_File(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	path := filepath.Join(t.TempDir(), "graph.xml")

	g := sampleGraph(t)
	require.NoError(t, Save(ctx, fs, path, g))

	back, err := Load(ctx, fs, path)
	require.NoError(t, err)
	assert.Equal(t, g.Vertices(), back.Vertices())
}
