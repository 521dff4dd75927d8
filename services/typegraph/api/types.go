// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"github.com/AleutianAI/typegraph/services/typegraph/graph"
	"github.com/AleutianAI/typegraph/services/typegraph/graphstore"
)

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "1.0.0"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// SnapshotsResponse is returned by GET /snapshots.
type SnapshotsResponse struct {
	Snapshots []graphstore.Snapshot `json:"snapshots"`
}

// EdgeJSON is one outgoing edge.
type EdgeJSON struct {
	Label  string `json:"label"`
	Arrow  string `json:"arrow"`
	To     int    `json:"to"`
	Target string `json:"target"`
}

// VertexJSON is one vertex with its outgoing edges.
type VertexJSON struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Edges []EdgeJSON `json:"edges"`
}

// GraphResponse is returned by GET /snapshots/:id/graph.
type GraphResponse struct {
	Snapshot graphstore.Snapshot `json:"snapshot"`
	Vertices []VertexJSON        `json:"vertices"`
}

// ComponentJSON is one strongly connected component.
type ComponentJSON struct {
	Index   int      `json:"index"`
	Members []string `json:"members"`
	Cyclic  bool     `json:"cyclic"`
}

// ComponentsResponse is returned by GET /snapshots/:id/components.
type ComponentsResponse struct {
	Components []ComponentJSON `json:"components"`
	Cycles     int             `json:"cycles"`
}

// OrderResponse is returned by GET /snapshots/:id/order.
type OrderResponse struct {
	Order     []string `json:"order"`
	Acyclic   bool     `json:"acyclic"`
	BackEdges int      `json:"back_edges"`
}

// SearchResponse is returned by GET /snapshots/:id/search.
type SearchResponse struct {
	Vertices []VertexJSON `json:"vertices,omitempty"`
	Edges    []EdgeMatch  `json:"edges,omitempty"`
}

// EdgeMatch is one edge found by label.
type EdgeMatch struct {
	From  string `json:"from"`
	Label string `json:"label"`
	To    string `json:"to"`
}

func vertexJSON(g *graph.Graph[string], v graph.Vertex[string], arrow func(string) string) VertexJSON {
	out := VertexJSON{ID: v.ID, Name: v.Payload, Edges: make([]EdgeJSON, 0, len(v.Edges))}
	for _, e := range v.Edges {
		target, _ := g.Vertex(e.To)
		out.Edges = append(out.Edges, EdgeJSON{Label: e.Label, Arrow: arrow(e.Label), To: e.To, Target: target.Payload})
	}
	return out
}
