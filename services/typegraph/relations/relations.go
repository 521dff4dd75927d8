// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package relations records type relationships into a graph keyed by
// file-name prefix.
//
// A Recorder is created per analysis run and handed to the rule actions
// explicitly. There is no process-wide graph.
package relations

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/AleutianAI/typegraph/services/typegraph/graph"
)

// Kind labels a relationship edge.
type Kind string

const (
	Variable   Kind = "variable"
	ReturnType Kind = "retType"
	Param      Kind = "param"
	GlobalVar  Kind = "globalVar"
	GlobalFun  Kind = "globalFun"
	Inherits   Kind = "inherits"
	Composes   Kind = "composes"
	Uses       Kind = "uses"
	Aggregates Kind = "aggregates"
)

// Kinds lists every relationship kind in a fixed order.
func Kinds() []Kind {
	return []Kind{Variable, ReturnType, Param, GlobalVar, GlobalFun, Inherits, Composes, Uses, Aggregates}
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// FilePrefix reduces a path to its base name without extension, so a
// header and its implementation file share one vertex.
//
// Example:
//
//	FilePrefix("src/shapes/Circle.cpp") == "Circle"
func FilePrefix(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// Recorder writes relationships into a graph.
//
// Thread Safety: NOT safe for concurrent use.
type Recorder struct {
	g             *graph.Graph[string]
	logger        *slog.Logger
	skipSelfEdges bool
	counts        map[Kind]int
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger for relationship trace lines.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithoutSelfEdges drops relationships whose parent and child are the same
// vertex, e.g. Circle.cpp using a type from Circle.h.
func WithoutSelfEdges() Option {
	return func(r *Recorder) { r.skipSelfEdges = true }
}

// NewRecorder creates a recorder writing into g. A nil g starts a new graph.
func NewRecorder(g *graph.Graph[string], opts ...Option) *Recorder {
	if g == nil {
		g = graph.New[string]()
	}
	r := &Recorder{g: g, logger: slog.Default(), counts: make(map[Kind]int)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Graph returns the graph being written.
func (r *Recorder) Graph() *graph.Graph[string] {
	return r.g
}

// AddType ensures a vertex exists for name and returns its identity.
func (r *Recorder) AddType(name string) int {
	return r.g.AddVertex(name)
}

// AddRelationship ensures both vertices and appends an edge parent -> child.
//
// Outputs:
//
//	bool - False when the edge was suppressed as a self edge.
//	error - Non-nil for an unknown kind or a graph consistency failure.
func (r *Recorder) AddRelationship(parent, child string, kind Kind) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("relationship %s -> %s: unknown kind %q", parent, child, kind)
	}
	from := r.g.AddVertex(parent)
	to := r.g.AddVertex(child)
	if r.skipSelfEdges && from == to {
		return false, nil
	}
	if err := r.g.AddEdge(string(kind), from, to); err != nil {
		return false, fmt.Errorf("relationship %s -> %s: %w", parent, child, err)
	}
	r.counts[kind]++
	r.logger.Debug("relationship recorded",
		slog.String("parent", parent),
		slog.String("child", child),
		slog.String("kind", string(kind)))
	return true, nil
}

// Counts returns the number of recorded edges per kind.
func (r *Recorder) Counts() map[Kind]int {
	out := make(map[Kind]int, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}
