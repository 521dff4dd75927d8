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
	"log/slog"

	"github.com/AleutianAI/typegraph/services/typegraph/scope"
	"github.com/AleutianAI/typegraph/services/typegraph/semi"
)

// ScopeOpen matches any semi-expression containing "{".
type ScopeOpen struct{}

func (ScopeOpen) Name() string { return "ScopeOpen" }

func (ScopeOpen) Test(se *semi.SemiExp) bool { return se.Contains("{") }

// ScopeClose matches any semi-expression containing "}".
type ScopeClose struct{}

func (ScopeClose) Name() string { return "ScopeClose" }

func (ScopeClose) Test(se *semi.SemiExp) bool { return se.Contains("}") }

// Preprocessor matches directives.
type Preprocessor struct{}

func (Preprocessor) Name() string { return "Preprocessor" }

func (Preprocessor) Test(se *semi.SemiExp) bool { return se.Contains("#") }

// PushAnonymous opens an unclassified scope at the current line.
func PushAnonymous(repo *Repository) Action {
	return ActionFunc(func(*semi.SemiExp) {
		repo.Scopes.Push(scope.Record{Kind: scope.KindUnknown, Name: scope.Anonymous, Line: repo.LineCount()})
	})
}

// PopScope closes the innermost scope. An unbalanced "}" is ignored.
func PopScope(repo *Repository) Action {
	return ActionFunc(func(*semi.SemiExp) {
		if r, ok := repo.Scopes.Pop(); ok && r.Kind != scope.KindUnknown {
			repo.Logger.Debug("scope closed",
				slog.String("kind", r.Kind.String()),
				slog.String("name", r.Name),
				slog.Int("opened_at", r.Line),
				slog.Int("closed_at", repo.LineCount()))
		}
	})
}

// LogDirective traces a preprocessor line.
func LogDirective(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		repo.Logger.Debug("preprocessor directive",
			slog.String("file", repo.File()),
			slog.String("text", se.String()))
	})
}
