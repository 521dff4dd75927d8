// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"errors"
	"log/slog"

	"github.com/AleutianAI/typegraph/services/typegraph/relations"
	"github.com/AleutianAI/typegraph/services/typegraph/scope"
	"github.com/AleutianAI/typegraph/services/typegraph/symbols"
)

// Repository is the state shared by the rules and actions of one run.
type Repository struct {
	// Scopes tracks the scopes open in the current file.
	Scopes *scope.Stack

	// Symbols maps type names to defining files across the whole run.
	Symbols *symbols.Table

	// Recorder writes relationships into the run's graph.
	Recorder *relations.Recorder

	// Logger receives rule trace lines.
	Logger *slog.Logger

	file   string
	prefix string
	lines  func() int
	errs   []error
}

// NewRepository wires a repository. Nil arguments get fresh defaults.
func NewRepository(table *symbols.Table, recorder *relations.Recorder, logger *slog.Logger) *Repository {
	if table == nil {
		table = symbols.NewTable()
	}
	if recorder == nil {
		recorder = relations.NewRecorder(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		Scopes:   scope.NewStack(),
		Symbols:  table,
		Recorder: recorder,
		Logger:   logger,
		lines:    func() int { return 0 },
	}
}

// BeginFile starts a new file: the scope stack is cleared and line numbers
// are read from lines.
func (r *Repository) BeginFile(path string, lines func() int) {
	r.file = path
	r.prefix = relations.FilePrefix(path)
	r.Scopes.Reset()
	if lines != nil {
		r.lines = lines
	}
}

// File returns the path of the file being analyzed.
func (r *Repository) File() string {
	return r.file
}

// FilePrefix returns the vertex name of the file being analyzed.
func (r *Repository) FilePrefix() string {
	return r.prefix
}

// LineCount returns the source line reached so far.
func (r *Repository) LineCount() int {
	return r.lines()
}

// Err returns the relationship failures collected so far, joined.
func (r *Repository) Err() error {
	return errors.Join(r.errs...)
}

// register adds name to the symbol table against the current file and
// ensures the file's vertex.
func (r *Repository) register(name string) bool {
	if name == "" || r.Symbols.Contains(name) {
		return false
	}
	r.Recorder.AddType(r.prefix)
	return r.Symbols.Add(name, symbols.Placeholder, r.prefix)
}

// relate records an edge from the current file to the file defining typeName.
func (r *Repository) relate(typeName string, kind relations.Kind) {
	child := r.Symbols.LookupFile(typeName, symbols.Placeholder)
	r.record(r.prefix, child, kind)
}

func (r *Repository) record(parent, child string, kind relations.Kind) {
	if _, err := r.Recorder.AddRelationship(parent, child, kind); err != nil {
		r.Logger.Error("relationship not recorded",
			slog.String("file", r.file),
			slog.String("error", err.Error()))
		r.errs = append(r.errs, err)
	}
}

// enter replaces the anonymous scope opened for the current "{" with a
// named one.
func (r *Repository) enter(kind scope.Kind, name string) {
	if top, ok := r.Scopes.Peek(); ok && top.Kind == scope.KindUnknown {
		r.Scopes.Pop()
	}
	r.Scopes.Push(scope.Record{Kind: kind, Name: name, Line: r.LineCount()})
}
