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

import "fmt"

// StronglyConnected partitions the graph into strongly connected components
// using Tarjan's algorithm.
//
// Description:
//
//	Roots are tried in vertex insertion order and edges in insertion order,
//	so the result is deterministic. Components are emitted in completion
//	order. Singleton components are included, so every vertex appears in
//	exactly one component.
//
//	Time complexity: O(V + E)
//	Space complexity: O(V)
//
//	Uses an explicit call stack instead of recursion so deep graphs cannot
//	exhaust the goroutine stack. Index, lowlink and on-stack state live in
//	call-local slices; the graph itself is never written.
//
// Outputs:
//
//	[][]Vertex[V] - Components, each a list of vertex copies.
//	error - ErrDanglingEdge if an edge target does not resolve.
//
// Thread Safety: Safe for concurrent use on an unmodified graph.
func StronglyConnected[V comparable](g *Graph[V]) ([][]Vertex[V], error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("strongly connected: %w", err)
	}

	n := len(g.vertices)
	const unvisited = -1
	index := make([]int, n)
	lowLink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}
	counter := 0
	sccStack := make([]int, 0, n)
	var components [][]Vertex[V]

	// callFrame is one level of the simulated recursion.
	type callFrame struct {
		pos       int
		edgeIndex int
		phase     int // 0=enter, 1=scan edges, 2=after child, 3=finish
		child     int
	}

	for root := 0; root < n; root++ {
		if index[root] != unvisited {
			continue
		}
		callStack := []callFrame{{pos: root}}

		for len(callStack) > 0 {
			frame := &callStack[len(callStack)-1]

			switch frame.phase {
			case 0:
				index[frame.pos] = counter
				lowLink[frame.pos] = counter
				counter++
				sccStack = append(sccStack, frame.pos)
				onStack[frame.pos] = true
				frame.phase = 1

			case 1:
				edges := g.edgesAt(frame.pos)
				for frame.edgeIndex < len(edges) {
					target := g.positions[edges[frame.edgeIndex].To]
					frame.edgeIndex++

					if index[target] == unvisited {
						frame.phase = 2
						frame.child = target
						callStack = append(callStack, callFrame{pos: target})
						goto continueLoop
					} else if onStack[target] && index[target] < lowLink[frame.pos] {
						lowLink[frame.pos] = index[target]
					}
				}
				frame.phase = 3

			case 2:
				if lowLink[frame.child] < lowLink[frame.pos] {
					lowLink[frame.pos] = lowLink[frame.child]
				}
				frame.phase = 1

			case 3:
				if lowLink[frame.pos] == index[frame.pos] {
					var component []Vertex[V]
					for {
						w := sccStack[len(sccStack)-1]
						sccStack = sccStack[:len(sccStack)-1]
						onStack[w] = false
						component = append(component, g.vertices[w].clone())
						if w == frame.pos {
							break
						}
					}
					components = append(components, component)
				}
				callStack = callStack[:len(callStack)-1]
			}
		continueLoop:
		}
	}
	return components, nil
}

// Cycles returns only the components with more than one vertex, plus
// singleton vertices that carry a self-loop.
func Cycles[V comparable](components [][]Vertex[V]) [][]Vertex[V] {
	var out [][]Vertex[V]
	for _, c := range components {
		if len(c) > 1 {
			out = append(out, c)
			continue
		}
		for _, e := range c[0].Edges {
			if e.To == c[0].ID {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
