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
	"strings"
)

// CondensedLabel is the label carried by every edge of a condensed graph.
const CondensedLabel = "relationship"

// ComponentSeparator terminates each member name in a component payload.
const ComponentSeparator = ";"

// CollapseComponent joins the member payloads of a component, each followed
// by ComponentSeparator, in component order.
func CollapseComponent[V comparable](component []Vertex[V], name func(V) string) string {
	var b strings.Builder
	for _, v := range component {
		b.WriteString(name(v.Payload))
		b.WriteString(ComponentSeparator)
	}
	return b.String()
}

// Condense builds the component graph of g.
//
// Description:
//
//	Produces one vertex per component with identity equal to the component's
//	index in components and a payload made by CollapseComponent. For every
//	edge u->v of g whose endpoints lie in different components an edge
//	labeled CondensedLabel is added between the two component vertices,
//	at most once per ordered pair. Edges inside a component are dropped,
//	so the result is acyclic when components came from StronglyConnected.
//
// Inputs:
//
//	g - The source graph.
//	components - A partition of g's vertices, normally from StronglyConnected.
//	name - Renders a payload for the component name.
//
// Outputs:
//
//	*Graph[string] - The condensed graph.
//	error - ErrComponentMismatch if components is not a partition of g,
//	        ErrDanglingEdge if g has an unresolved edge.
func Condense[V comparable](g *Graph[V], components [][]Vertex[V], name func(V) string) (*Graph[string], error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("condense: %w", err)
	}

	owner := make(map[int]int, len(g.vertices))
	for ci, component := range components {
		for _, v := range component {
			if _, dup := owner[v.ID]; dup {
				return nil, fmt.Errorf("condense: vertex %d in two components: %w", v.ID, ErrComponentMismatch)
			}
			if _, ok := g.positions[v.ID]; !ok {
				return nil, fmt.Errorf("condense: vertex %d: %w", v.ID, ErrComponentMismatch)
			}
			owner[v.ID] = ci
		}
	}
	if len(owner) != len(g.vertices) {
		return nil, fmt.Errorf("condense: %d of %d vertices covered: %w", len(owner), len(g.vertices), ErrComponentMismatch)
	}

	condensed := New[string](WithCapacity(len(components)))
	for ci, component := range components {
		if err := condensed.AddVertexWithID(ci, CollapseComponent(component, name)); err != nil {
			return nil, fmt.Errorf("condense: %w", err)
		}
	}

	type pair struct{ from, to int }
	seen := make(map[pair]struct{})
	for _, v := range g.vertices {
		from := owner[v.ID]
		for _, e := range v.Edges {
			to := owner[e.To]
			if from == to {
				continue
			}
			p := pair{from, to}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			if err := condensed.AddEdge(CondensedLabel, from, to); err != nil {
				return nil, fmt.Errorf("condense: %w", err)
			}
		}
	}
	return condensed, nil
}
