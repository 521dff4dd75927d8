// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"fmt"
	"slices"
)

// Edge is a labeled reference from the vertex that stores it to the vertex
// identified by To.
type Edge struct {
	// Label is the relationship attribute, e.g. "inherits".
	Label string

	// To is the identity of the target vertex.
	To int
}

// Vertex is a node of the graph.
type Vertex[V comparable] struct {
	// ID is the vertex identity, unique within its graph.
	ID int

	// Payload is the value carried by the vertex.
	Payload V

	// Edges are the outgoing edges in insertion order.
	Edges []Edge
}

// clone returns a copy whose edge slice is not shared with v.
func (v *Vertex[V]) clone() Vertex[V] {
	return Vertex[V]{ID: v.ID, Payload: v.Payload, Edges: slices.Clone(v.Edges)}
}

// Graph is a directed attributed multigraph.
//
// Description:
//
//	Vertices are kept in insertion order. Two indexes make lookups O(1):
//	identity to position, and payload to identity. The position index is
//	rebuilt when a removal shifts positions.
//
// Thread Safety: NOT safe for concurrent mutation.
type Graph[V comparable] struct {
	vertices  []Vertex[V]
	positions map[int]int
	payloads  map[V]int
	nextID    int
	edgeCount int
}

// Option configures a Graph.
type Option func(*options)

type options struct {
	capacity int
}

// WithCapacity preallocates room for n vertices.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// New creates an empty graph.
func New[V comparable](opts ...Option) *Graph[V] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Graph[V]{
		vertices:  make([]Vertex[V], 0, o.capacity),
		positions: make(map[int]int, o.capacity),
		payloads:  make(map[V]int, o.capacity),
	}
}

// Len returns the number of vertices.
func (g *Graph[V]) Len() int {
	return len(g.vertices)
}

// EdgeCount returns the number of edges across all vertices.
func (g *Graph[V]) EdgeCount() int {
	return g.edgeCount
}

// AddVertex ensures a vertex with the given payload exists and returns its
// identity.
//
// Description:
//
//	If a vertex with an equal payload is already present its identity is
//	returned and the graph is unchanged. Otherwise a fresh identity is
//	assigned. Identities are never reused within a graph.
//
// Outputs:
//
//	int - Identity of the (possibly pre-existing) vertex.
func (g *Graph[V]) AddVertex(payload V) int {
	if id, ok := g.payloads[payload]; ok {
		return id
	}
	id := g.nextID
	g.insert(id, payload)
	return id
}

// AddVertexWithID inserts a vertex with a caller-chosen identity.
//
// Description:
//
//	Used where identities carry meaning, e.g. component indexes in a
//	condensed graph or identities read back from a serialized graph.
//	Payloads are not deduplicated here; the payload index keeps the first
//	identity seen for a payload.
//
// Outputs:
//
//	error - ErrDuplicateVertex if id is already in use.
func (g *Graph[V]) AddVertexWithID(id int, payload V) error {
	if _, ok := g.positions[id]; ok {
		return fmt.Errorf("add vertex %d: %w", id, ErrDuplicateVertex)
	}
	g.insert(id, payload)
	return nil
}

func (g *Graph[V]) insert(id int, payload V) {
	g.positions[id] = len(g.vertices)
	g.vertices = append(g.vertices, Vertex[V]{ID: id, Payload: payload})
	if _, ok := g.payloads[payload]; !ok {
		g.payloads[payload] = id
	}
	if id >= g.nextID {
		g.nextID = id + 1
	}
}

// SetPayload replaces the payload of an existing vertex.
func (g *Graph[V]) SetPayload(id int, payload V) error {
	pos, err := g.Position(id)
	if err != nil {
		return err
	}
	old := g.vertices[pos].Payload
	if owner, ok := g.payloads[old]; ok && owner == id {
		delete(g.payloads, old)
	}
	g.vertices[pos].Payload = payload
	if _, ok := g.payloads[payload]; !ok {
		g.payloads[payload] = id
	}
	return nil
}

// AddEdge appends an edge labeled label from the vertex from to the vertex
// to. Duplicate edges are allowed.
//
// Outputs:
//
//	error - ErrVertexNotFound if either identity is unknown.
func (g *Graph[V]) AddEdge(label string, from, to int) error {
	pos, err := g.Position(from)
	if err != nil {
		return fmt.Errorf("add edge %q source: %w", label, err)
	}
	if _, ok := g.positions[to]; !ok {
		return fmt.Errorf("add edge %q target %d: %w", label, to, ErrVertexNotFound)
	}
	g.vertices[pos].Edges = append(g.vertices[pos].Edges, Edge{Label: label, To: to})
	g.edgeCount++
	return nil
}

// Position returns the insertion-order position of the vertex with the given
// identity.
func (g *Graph[V]) Position(id int) (int, error) {
	pos, ok := g.positions[id]
	if !ok {
		return -1, fmt.Errorf("vertex %d: %w", id, ErrVertexNotFound)
	}
	return pos, nil
}

// Vertex returns a copy of the vertex with the given identity.
func (g *Graph[V]) Vertex(id int) (Vertex[V], bool) {
	pos, ok := g.positions[id]
	if !ok {
		return Vertex[V]{}, false
	}
	return g.vertices[pos].clone(), true
}

// FindByPayload returns the identity of the first vertex carrying payload.
func (g *Graph[V]) FindByPayload(payload V) (int, bool) {
	id, ok := g.payloads[payload]
	return id, ok
}

// Vertices returns copies of all vertices in insertion order. Mutating the
// result does not affect the graph.
func (g *Graph[V]) Vertices() []Vertex[V] {
	out := make([]Vertex[V], len(g.vertices))
	for i := range g.vertices {
		out[i] = g.vertices[i].clone()
	}
	return out
}

// HasEdge reports whether at least one edge runs from from to to.
func (g *Graph[V]) HasEdge(from, to int) bool {
	pos, ok := g.positions[from]
	if !ok {
		return false
	}
	for _, e := range g.vertices[pos].Edges {
		if e.To == to {
			return true
		}
	}
	return false
}

// RemoveVertex deletes a vertex and every edge pointing at it. Positions of
// later vertices shift down by one.
func (g *Graph[V]) RemoveVertex(id int) error {
	pos, err := g.Position(id)
	if err != nil {
		return err
	}
	removed := g.vertices[pos]
	g.edgeCount -= len(removed.Edges)
	g.vertices = slices.Delete(g.vertices, pos, pos+1)

	for i := range g.vertices {
		before := len(g.vertices[i].Edges)
		g.vertices[i].Edges = slices.DeleteFunc(g.vertices[i].Edges, func(e Edge) bool {
			return e.To == id
		})
		g.edgeCount -= before - len(g.vertices[i].Edges)
	}
	g.reindex()
	return nil
}

// reindex rebuilds both indexes from the vertex slice.
func (g *Graph[V]) reindex() {
	clear(g.positions)
	clear(g.payloads)
	for i, v := range g.vertices {
		g.positions[v.ID] = i
		if _, ok := g.payloads[v.Payload]; !ok {
			g.payloads[v.Payload] = v.ID
		}
	}
}

// Validate checks that every edge target resolves to a vertex.
func (g *Graph[V]) Validate() error {
	for _, v := range g.vertices {
		for _, e := range v.Edges {
			if _, ok := g.positions[e.To]; !ok {
				return fmt.Errorf("vertex %d edge %q -> %d: %w", v.ID, e.Label, e.To, ErrDanglingEdge)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the graph.
func (g *Graph[V]) Clone() *Graph[V] {
	c := New[V](WithCapacity(len(g.vertices)))
	for i := range g.vertices {
		c.vertices = append(c.vertices, g.vertices[i].clone())
	}
	c.nextID = g.nextID
	c.edgeCount = g.edgeCount
	c.reindex()
	return c
}

// Merge folds other into g.
//
// Description:
//
//	Vertices are unioned by payload: a vertex of other whose payload already
//	exists in g maps onto that vertex, otherwise it is added with a fresh
//	identity. Edges of other are appended, translated to g's identities.
//	Edge lists are concatenated without deduplication.
//
// Outputs:
//
//	error - ErrDanglingEdge if other contains an edge to an unknown identity.
func (g *Graph[V]) Merge(other *Graph[V]) error {
	if err := other.Validate(); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	mapping := make(map[int]int, len(other.vertices))
	for _, v := range other.vertices {
		mapping[v.ID] = g.AddVertex(v.Payload)
	}
	for _, v := range other.vertices {
		from := mapping[v.ID]
		for _, e := range v.Edges {
			if err := g.AddEdge(e.Label, from, mapping[e.To]); err != nil {
				return fmt.Errorf("merge: %w", err)
			}
		}
	}
	return nil
}

// EdgeMatch is one result of SearchEdges.
type EdgeMatch struct {
	// From is the identity of the vertex storing the edge.
	From int

	// Edge is the matching edge.
	Edge Edge
}

// SearchVertices returns the identities of all vertices whose payload equals
// payload, in insertion order.
func (g *Graph[V]) SearchVertices(payload V) []int {
	var ids []int
	for _, v := range g.vertices {
		if v.Payload == payload {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// SearchEdges returns every edge carrying label, in vertex then edge order.
func (g *Graph[V]) SearchEdges(label string) []EdgeMatch {
	var out []EdgeMatch
	for _, v := range g.vertices {
		for _, e := range v.Edges {
			if e.Label == label {
				out = append(out, EdgeMatch{From: v.ID, Edge: e})
			}
		}
	}
	return out
}

// edgesAt gives algorithms read access without copying.
func (g *Graph[V]) edgesAt(pos int) []Edge {
	return g.vertices[pos].Edges
}
