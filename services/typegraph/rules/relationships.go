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

	"github.com/AleutianAI/typegraph/services/typegraph/relations"
	"github.com/AleutianAI/typegraph/services/typegraph/scope"
	"github.com/AleutianAI/typegraph/services/typegraph/semi"
)

// VarDeclaration matches "Type name ;" and "Type name = value ;" inside
// any scope, where Type is a known type.
type VarDeclaration struct {
	repo *Repository
}

func (VarDeclaration) Name() string { return "VarDeclaration" }

func (r VarDeclaration) Test(se *semi.SemiExp) bool {
	if se.Contains("//") || se.Contains("{") || se.Len() <= 2 || se.ContainsAny(declarationStopWords) {
		return false
	}
	if r.repo.Scopes.Size() == 0 {
		return false
	}
	if eq := se.Find("="); eq >= 0 && eq <= 1 {
		return false
	}
	return r.repo.Symbols.Contains(se.Tokens[0]) && se.Tokens[1] != "("
}

// RecordVariable records a variable edge to the declared type.
func RecordVariable(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		if typ, ok := se.At(0); ok {
			repo.relate(typ, relations.Variable)
		}
	})
}

// ReturnType matches a function header whose return type is known: "(" at
// index two or later, no ";", and a known type two tokens before "(" (or
// before "::" in a qualified header).
type ReturnType struct {
	repo *Repository
}

func (ReturnType) Name() string { return "ReturnType" }

func (r ReturnType) Test(se *semi.SemiExp) bool {
	if se.Contains(";") {
		return false
	}
	if openParen(se) < 2 {
		return false
	}
	name, ok := returnTypeName(se)
	return ok && r.repo.Symbols.Contains(name)
}

// returnTypeName prefers the token two before "::" for qualified headers
// such as "Shape Canvas :: make ( ) {".
func returnTypeName(se *semi.SemiExp) (string, bool) {
	open := openParen(se)
	if c := se.Find("::"); c > 1 && c < open {
		return se.At(c - 2)
	}
	return se.At(open - 2)
}

// RecordReturnType records a retType edge.
func RecordReturnType(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		name, ok := returnTypeName(se)
		if !ok || !repo.Symbols.Contains(name) {
			return
		}
		repo.Logger.Debug("found return type",
			slog.String("file", repo.File()),
			slog.String("type", name))
		repo.relate(name, relations.ReturnType)
	})
}

// CallingParam matches a function header that mentions a known type after
// "(".
type CallingParam struct {
	repo *Repository
}

func (CallingParam) Name() string { return "CallingParam" }

func (r CallingParam) Test(se *semi.SemiExp) bool {
	return !se.Contains(";") && len(knownAfterParen(r.repo, se)) > 0
}

// knownAfterParen returns the distinct known types after the first "(",
// in order of appearance.
func knownAfterParen(repo *Repository, se *semi.SemiExp) []string {
	open := openParen(se)
	if open < 0 {
		return nil
	}
	var out []string
	seen := map[string]struct{}{}
	for _, tok := range se.Tokens[open+1:] {
		if _, dup := seen[tok]; dup || !repo.Symbols.Contains(tok) {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// RecordParams records one param edge per known parameter type.
func RecordParams(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		for _, name := range knownAfterParen(repo, se) {
			repo.relate(name, relations.Param)
		}
	})
}

// Inheritance matches a class or struct header with a base clause.
type Inheritance struct{}

func (Inheritance) Name() string { return "Inheritance" }

func (Inheritance) Test(se *semi.SemiExp) bool {
	return se.Last() == "{" && se.Contains(":") && (se.Contains("class") || se.Contains("struct"))
}

var baseQualifiers = semi.Set("public", "protected", "private", "virtual")

// baseClasses splits the base clause of "class D : public A , B < T > {"
// into base names, dropping access keywords and template arguments.
func baseClasses(se *semi.SemiExp) []string {
	colon := se.Find(":")
	end := se.Len() - 1
	if colon < 0 || colon >= end {
		return nil
	}
	var bases []string
	current := ""
	depth := 0
	for _, tok := range se.Tokens[colon+1 : end] {
		switch {
		case tok == "<":
			depth++
		case tok == ">":
			if depth > 0 {
				depth--
			}
		case tok == ">>":
			depth = max(depth-2, 0)
		case depth > 0:
		case tok == ",":
			if current != "" {
				bases = append(bases, current)
			}
			current = ""
		case isIdentifier(tok):
			if _, q := baseQualifiers[tok]; !q {
				current = tok
			}
		}
	}
	if current != "" {
		bases = append(bases, current)
	}
	return bases
}

// inheritorName returns the name after the earlier of "class" and "struct".
func inheritorName(se *semi.SemiExp) string {
	pos := se.Find("class")
	if s := se.Find("struct"); s >= 0 && (pos < 0 || s < pos) {
		pos = s
	}
	return typeNameAfter(se, pos)
}

// RecordInheritance records base -> derived inherits edges for known bases.
// It needs an open scope, i.e. the header's own.
func RecordInheritance(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		if repo.Scopes.Size() == 0 {
			return
		}
		derived := inheritorName(se)
		for _, base := range baseClasses(se) {
			if !repo.Symbols.Contains(base) {
				continue
			}
			repo.Logger.Debug("found inheriting type",
				slog.String("derived", derived),
				slog.String("base", base))
			repo.record(repo.Symbols.LookupFile(base, ""), repo.FilePrefix(), relations.Inherits)
		}
	})
}

// GlobalFuncCall matches "name ( ... ) ;" inside a function body where name
// is a known global function.
type GlobalFuncCall struct {
	repo *Repository
}

func (GlobalFuncCall) Name() string { return "GlobalFuncCall" }

func (r GlobalFuncCall) Test(se *semi.SemiExp) bool {
	if !se.Contains(";") {
		return false
	}
	top, ok := r.repo.Scopes.Peek()
	if !ok || top.Kind != scope.KindFunction {
		return false
	}
	name, ok := se.At(se.Find("(") - 1)
	return ok && se.Contains("(") && r.repo.Symbols.Contains(name)
}

// RecordGlobalFuncCall records a globalFun edge.
func RecordGlobalFuncCall(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		open := se.Find("(")
		if name, ok := se.At(open - 1); ok && open > 0 {
			repo.relate(name, relations.GlobalFun)
		}
	})
}

// GlobalVarDeclaration matches a declaration at file scope.
type GlobalVarDeclaration struct {
	repo *Repository
}

func (GlobalVarDeclaration) Name() string { return "GlobalVarDeclaration" }

func (r GlobalVarDeclaration) Test(se *semi.SemiExp) bool {
	return !se.Contains("{") && se.Len() > 2 && !se.ContainsAny(declarationStopWords) && r.repo.Scopes.Size() == 0
}

// RecordGlobalVar records a globalVar edge when the declared type is known.
func RecordGlobalVar(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		typ, _ := se.At(0)
		if !repo.Symbols.Contains(typ) {
			return
		}
		name, ok := se.At(se.Find("=") - 1)
		if !ok {
			name, _ = se.At(se.Find(";") - 1)
		}
		repo.Logger.Debug("found global variable",
			slog.String("type", typ),
			slog.String("name", name))
		repo.relate(typ, relations.GlobalVar)
	})
}

// Composition matches a by-value member declaration directly inside a class
// or struct body.
type Composition struct {
	repo *Repository
}

func (Composition) Name() string { return "Composition" }

func (r Composition) Test(se *semi.SemiExp) bool {
	if se.Len() <= 2 || se.ContainsAny(compositionStopWords) {
		return false
	}
	top, ok := r.repo.Scopes.Peek()
	return ok && (top.Kind == scope.KindClass || top.Kind == scope.KindStruct)
}

// composedType is the token after the last "::", or else the token two
// before the trailing "," or ";".
func composedType(se *semi.SemiExp) string {
	if c := se.FindLast("::"); c >= 0 {
		tok, _ := se.At(c + 1)
		return tok
	}
	if last := se.Last(); last == ";" || last == "," {
		tok, _ := se.At(se.Len() - 3)
		return tok
	}
	return ""
}

// RecordComposition records a composes edge for a known member type.
func RecordComposition(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		top, _ := repo.Scopes.Peek()
		name := composedType(se)
		if name == "" || name == top.Name || !repo.Symbols.Contains(name) {
			return
		}
		repo.relate(name, relations.Composes)
	})
}

// Usage matches a signature taking or returning a pointer or reference
// inside a class or struct.
type Usage struct {
	repo *Repository
}

func (Usage) Name() string { return "Usage" }

func (r Usage) Test(se *semi.SemiExp) bool {
	if _, ok := r.repo.Scopes.Innermost(scope.KindClass, scope.KindStruct); !ok {
		return false
	}
	return len(referencedTypes(se)) > 0
}

// referencedTypes returns the distinct tokens preceding "*" or "&" strictly
// between the first "(" and the last ")", skipping standard types.
func referencedTypes(se *semi.SemiExp) []string {
	open, end := se.Find("("), se.FindLast(")")
	if open < 0 || end <= open {
		return nil
	}
	var out []string
	seen := map[string]struct{}{}
	for i := open + 2; i < end; i++ {
		if tok := se.Tokens[i]; tok != "*" && tok != "&" {
			continue
		}
		prev := se.Tokens[i-1]
		if _, std := standardTypes[prev]; std || !isIdentifier(prev) {
			continue
		}
		if _, dup := seen[prev]; dup {
			continue
		}
		seen[prev] = struct{}{}
		out = append(out, prev)
	}
	return out
}

// RecordUsage records uses edges, skipping the enclosing type itself so
// copy constructors and assignment operators do not count.
func RecordUsage(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		owner, ok := repo.Scopes.Innermost(scope.KindClass, scope.KindStruct)
		if !ok {
			return
		}
		for _, name := range referencedTypes(se) {
			if name == owner.Name || !repo.Symbols.Contains(name) {
				continue
			}
			repo.relate(name, relations.Uses)
		}
	})
}

// Aggregation matches "new Type" inside a class or struct.
type Aggregation struct {
	repo *Repository
}

func (Aggregation) Name() string { return "Aggregation" }

func (r Aggregation) Test(se *semi.SemiExp) bool {
	if !se.Contains("new") {
		return false
	}
	_, ok := r.repo.Scopes.Innermost(scope.KindClass, scope.KindStruct)
	return ok
}

// RecordAggregation records an aggregates edge for each known type created
// with new, other than the enclosing type.
func RecordAggregation(repo *Repository) Action {
	return ActionFunc(func(se *semi.SemiExp) {
		owner, ok := repo.Scopes.Innermost(scope.KindClass, scope.KindStruct)
		if !ok {
			return
		}
		seen := map[string]struct{}{}
		for i, tok := range se.Tokens {
			if tok != "new" {
				continue
			}
			name, ok := se.At(i + 1)
			if !ok || name == owner.Name || !repo.Symbols.Contains(name) {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			repo.Logger.Debug("found aggregated type",
				slog.String("owner", owner.Name),
				slog.String("type", name))
			repo.relate(name, relations.Aggregates)
		}
	})
}
