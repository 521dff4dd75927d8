// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides a directed, attributed multigraph and the
// structural analyses run over it.
//
// Vertices carry an integer identity and a generic payload. Edges are stored
// on their source vertex as (label, target identity) pairs and keep their
// insertion order. Parallel edges are allowed, including parallel edges with
// the same label.
//
// # Analyses
//
//   - StronglyConnected: iterative Tarjan, every vertex in exactly one component
//   - Condense: one vertex per component, inter-component edges deduplicated
//   - TopoSort: depth-first order with non-DAG detection
//
// # Thread Safety
//
// Graph is NOT safe for concurrent mutation. Analyses keep their traversal
// state in call-local maps, so several analyses may read the same graph
// concurrently as long as nobody mutates it.
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrVertexNotFound is returned when an identity does not resolve to a
	// vertex of the graph.
	ErrVertexNotFound = errors.New("vertex not found")

	// ErrDuplicateVertex is returned when adding a vertex with an identity
	// that is already in use.
	ErrDuplicateVertex = errors.New("duplicate vertex identity")

	// ErrDanglingEdge is returned when an edge points at an identity that is
	// not present in the graph.
	ErrDanglingEdge = errors.New("edge target not in graph")

	// ErrComponentMismatch is returned by Condense when the component list
	// does not cover the graph's vertices exactly once.
	ErrComponentMismatch = errors.New("components do not partition the graph")
)
