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

// TypeDefinition matches the header of a class, struct, union or enum body:
// the last token is "{" and the keyword introduces the type.
type TypeDefinition struct {
	kind scope.Kind
}

// ClassDefinition matches "class Name ... {".
func ClassDefinition() TypeDefinition { return TypeDefinition{kind: scope.KindClass} }

// StructDefinition matches "struct Name ... {".
func StructDefinition() TypeDefinition { return TypeDefinition{kind: scope.KindStruct} }

// UnionDefinition matches "union Name ... {".
func UnionDefinition() TypeDefinition { return TypeDefinition{kind: scope.KindUnion} }

// EnumDefinition matches "enum Name {", "enum class Name {" and "enum {".
func EnumDefinition() TypeDefinition { return TypeDefinition{kind: scope.KindEnum} }

func (d TypeDefinition) keyword() string { return d.kind.String() }

func (d TypeDefinition) Name() string {
	switch d.kind {
	case scope.KindClass:
		return "ClassDefinition"
	case scope.KindStruct:
		return "StructDefinition"
	case scope.KindUnion:
		return "UnionDefinition"
	default:
		return "EnumDefinition"
	}
}

func (d TypeDefinition) Test(se *semi.SemiExp) bool {
	if se.Last() != "{" || openParen(se) >= 0 {
		return false
	}
	if d.kind != scope.KindEnum && se.Contains("enum") {
		return false
	}
	return typeKeywordIndex(se, d.keyword()) >= 0
}

// TypeName returns the declared name for a matched semi-expression.
func (d TypeDefinition) TypeName(se *semi.SemiExp) string {
	i := typeKeywordIndex(se, d.keyword())
	if i < 0 {
		return noName
	}
	return typeNameAfter(se, i)
}

// DefineType enters the type's scope and registers the type against the
// current file. Anonymous enums register as noName; other anonymous types
// only get the scope.
func DefineType(repo *Repository, d TypeDefinition) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		name := d.TypeName(se)
		repo.enter(d.kind, name)
		if name == noName && d.kind != scope.KindEnum {
			return
		}
		if repo.register(name) {
			repo.Logger.Debug("type defined",
				slog.String("kind", d.kind.String()),
				slog.String("name", name),
				slog.String("file", repo.FilePrefix()))
		}
	})
}

// EnterTypeScope enters the type's scope without registering anything.
func EnterTypeScope(repo *Repository, d TypeDefinition) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		repo.enter(d.kind, d.TypeName(se))
	})
}

// Typedef matches "typedef ... Name ;" aliases of non-standard types.
type Typedef struct{}

func (Typedef) Name() string { return "Typedef" }

func (Typedef) Test(se *semi.SemiExp) bool {
	if !se.Contains("typedef") || se.Contains("enum") {
		return false
	}
	alias, ok := se.At(se.Find(";") - 1)
	if !ok || !isIdentifier(alias) {
		return false
	}
	_, std := standardTypes[alias]
	_, keyword := declarationStopWords[alias]
	return !std && !keyword
}

// RegisterTypedef adds the alias to the symbol table.
func RegisterTypedef(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		alias, ok := se.At(se.Find(";") - 1)
		if ok && repo.register(alias) {
			repo.Logger.Debug("typedef registered",
				slog.String("name", alias),
				slog.String("file", repo.FilePrefix()))
		}
	})
}

// FunctionDefinition matches a function header ending with "{". The token
// before "(" must not be a control-flow keyword.
type FunctionDefinition struct{}

func (FunctionDefinition) Name() string { return "FunctionDefinition" }

func (FunctionDefinition) Test(se *semi.SemiExp) bool {
	return functionNameIndex(se) >= 0
}

// EnterFunction replaces the anonymous scope with a function scope.
func EnterFunction(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		i := functionNameIndex(se)
		if i < 0 {
			return
		}
		repo.enter(scope.KindFunction, se.Tokens[i])
	})
}

// LogFunction traces the function signature.
func LogFunction(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		repo.Logger.Debug("function definition",
			slog.String("file", repo.File()),
			slog.Int("line", se.Line),
			slog.String("signature", prettySignature(se)))
	})
}

// GlobalFunctionDefinition matches a free function definition at file
// scope. It must run after the function scope has been entered, so the
// stack holds exactly that function. main and qualified member definitions
// ("Type :: method") are excluded.
type GlobalFunctionDefinition struct {
	repo *Repository
}

func (GlobalFunctionDefinition) Name() string { return "GlobalFunctionDefinition" }

func (r GlobalFunctionDefinition) Test(se *semi.SemiExp) bool {
	i := functionNameIndex(se)
	if i < 0 || r.repo.Scopes.Size() != 1 {
		return false
	}
	if prev, ok := se.At(i - 1); ok && prev == "::" {
		return false
	}
	top, _ := r.repo.Scopes.Peek()
	return top.Kind == scope.KindFunction && top.Name != "main"
}

// RegisterGlobalFunction adds the function name to the symbol table.
func RegisterGlobalFunction(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		i := functionNameIndex(se)
		if i < 0 {
			return
		}
		if repo.register(se.Tokens[i]) {
			repo.Logger.Debug("global function registered",
				slog.String("name", se.Tokens[i]),
				slog.String("file", repo.FilePrefix()))
		}
	})
}
