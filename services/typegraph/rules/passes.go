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

// NewPass1 builds the type discovery rule set.
//
// Description:
//
//	Tracks scopes and registers every named class, struct, union, enum,
//	typedef and free function in repo.Symbols against the current file,
//	ensuring a graph vertex for each defining file.
//
//	Order matters: the anonymous scope pushed for "{" is replaced by the
//	definition rules, and GlobalFunctionDefinition relies on the function
//	scope already being entered.
func NewPass1(repo *Repository) *Engine {
	e := NewEngine()
	e.AddRule(ScopeOpen{}, PushAnonymous(repo))
	e.AddRule(ScopeClose{}, PopScope(repo))
	e.AddRule(Preprocessor{}, LogDirective(repo))
	for _, d := range typeDefinitions() {
		e.AddRule(d, DefineType(repo, d))
	}
	e.AddRule(Typedef{}, RegisterTypedef(repo))
	e.AddRule(FunctionDefinition{}, EnterFunction(repo), LogFunction(repo))
	e.AddRule(GlobalFunctionDefinition{repo: repo}, RegisterGlobalFunction(repo))
	return e
}

// NewPass2 builds the relationship rule set.
//
// Description:
//
//	Tracks scopes the same way as pass 1 without registering anything, and
//	records one edge per discovered relationship from the current file to
//	the file defining the related type. Expects repo.Symbols to hold the
//	result of pass 1 over every file of the run.
func NewPass2(repo *Repository) *Engine {
	e := NewEngine()
	e.AddRule(ScopeOpen{}, PushAnonymous(repo))
	e.AddRule(ScopeClose{}, PopScope(repo))
	e.AddRule(Preprocessor{}, LogDirective(repo))
	for _, d := range typeDefinitions() {
		e.AddRule(d, EnterTypeScope(repo, d))
	}
	e.AddRule(FunctionDefinition{}, EnterFunction(repo))
	e.AddRule(Inheritance{}, RecordInheritance(repo))
	e.AddRule(ReturnType{repo: repo}, RecordReturnType(repo))
	e.AddRule(CallingParam{repo: repo}, RecordParams(repo))
	e.AddRule(VarDeclaration{repo: repo}, RecordVariable(repo))
	e.AddRule(GlobalFuncCall{repo: repo}, RecordGlobalFuncCall(repo))
	e.AddRule(GlobalVarDeclaration{repo: repo}, RecordGlobalVar(repo))
	e.AddRule(Composition{repo: repo}, RecordComposition(repo))
	e.AddRule(Usage{repo: repo}, RecordUsage(repo))
	e.AddRule(Aggregation{repo: repo}, RecordAggregation(repo))
	return e
}

func typeDefinitions() []TypeDefinition {
	return []TypeDefinition{ClassDefinition(), StructDefinition(), UnionDefinition(), EnumDefinition()}
}
