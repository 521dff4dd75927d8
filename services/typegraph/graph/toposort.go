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

// color is the DFS visitation state of a vertex.
type color uint8

const (
	white color = iota // not yet visited
	gray               // on the current DFS path
	black              // finished
)

// TopoResult is the outcome of TopoSort.
type TopoResult[V comparable] struct {
	// Order lists every vertex so that for each edge u->v, u comes before v
	// when the graph is acyclic.
	Order []Vertex[V]

	// Acyclic is false when a back edge was found. Order is still complete
	// but does not respect the back edges.
	Acyclic bool

	// BackEdges holds the edges that closed a cycle, in discovery order.
	BackEdges []EdgeMatch
}

// DependencyOrder returns the vertices targets-first: for each edge u->v,
// v comes before u. With "depends on" edges this is a build order.
func (r *TopoResult[V]) DependencyOrder() []Vertex[V] {
	out := slices.Clone(r.Order)
	slices.Reverse(out)
	return out
}

// TopoSort orders the graph by depth-first search.
//
// Description:
//
//	Every vertex starts white. Roots are tried in insertion order; a vertex
//	turns gray when entered and black when all its successors are finished,
//	at which point it is appended to the post-order. Reaching a gray vertex
//	means the graph is not a DAG: the edge is recorded, Acyclic is cleared
//	and the search does not descend through it. Order is the reverse of the
//	post-order.
//
//	Iterative; transient colors live in a call-local slice.
//
// Outputs:
//
//	*TopoResult[V] - Order, acyclicity flag and back edges.
//	error - ErrDanglingEdge if an edge target does not resolve.
func TopoSort[V comparable](g *Graph[V]) (*TopoResult[V], error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("topo sort: %w", err)
	}

	n := len(g.vertices)
	colors := make([]color, n)
	postOrder := make([]int, 0, n)
	result := &TopoResult[V]{Acyclic: true}

	type frame struct {
		pos       int
		edgeIndex int
	}

	for root := 0; root < n; root++ {
		if colors[root] != white {
			continue
		}
		colors[root] = gray
		stack := []frame{{pos: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := g.edgesAt(top.pos)

			if top.edgeIndex == len(edges) {
				colors[top.pos] = black
				postOrder = append(postOrder, top.pos)
				stack = stack[:len(stack)-1]
				continue
			}

			e := edges[top.edgeIndex]
			top.edgeIndex++
			target := g.positions[e.To]

			switch colors[target] {
			case white:
				colors[target] = gray
				stack = append(stack, frame{pos: target})
			case gray:
				result.Acyclic = false
				result.BackEdges = append(result.BackEdges, EdgeMatch{From: g.vertices[top.pos].ID, Edge: e})
			}
		}
	}

	result.Order = make([]Vertex[V], 0, n)
	for i := len(postOrder) - 1; i >= 0; i-- {
		result.Order = append(result.Order, g.vertices[postOrder[i]].clone())
	}
	return result, nil
}
