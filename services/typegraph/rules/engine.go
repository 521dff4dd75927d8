// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rules matches structural patterns in semi-expressions and records
// what they reveal.
//
// # Description
//
// An Engine holds an ordered list of rules, each bound to an ordered list of
// actions. Parse tests every rule against a semi-expression in registration
// order and fires the actions of each rule that matches. Actions may change
// the shared Repository (scope stack, symbol table, relationship graph), and
// later rules see those changes within the same Parse call.
//
// Two rule sets are provided. NewPass1 discovers types and registers them in
// the symbol table. NewPass2 uses the populated table to record
// relationships.
//
// # Thread Safety
//
// Not safe for concurrent use. An engine and its repository belong to one
// analysis run.
package rules

import (
	"github.com/AleutianAI/typegraph/services/typegraph/semi"
)

// Rule decides whether a semi-expression exhibits a pattern. Test must not
// mutate se.
type Rule interface {
	Name() string
	Test(se *semi.SemiExp) bool
}

// Action reacts to a matched semi-expression.
type Action interface {
	Apply(se *semi.SemiExp)
}

// ActionFunc adapts a function to Action.
type ActionFunc func(se *semi.SemiExp)

// Apply calls f(se).
func (f ActionFunc) Apply(se *semi.SemiExp) {
	f(se)
}

type binding struct {
	rule    Rule
	actions []Action
}

// Engine evaluates rules in registration order.
type Engine struct {
	bindings []binding
	disabled map[string]struct{}
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{disabled: make(map[string]struct{})}
}

// AddRule appends rule with its actions. Actions fire in the order given.
func (e *Engine) AddRule(rule Rule, actions ...Action) {
	e.bindings = append(e.bindings, binding{rule: rule, actions: actions})
}

// Disable turns off the rules with the given names. Unknown names are
// ignored.
func (e *Engine) Disable(names ...string) {
	for _, n := range names {
		e.disabled[n] = struct{}{}
	}
}

// Rules returns the registered rule names in evaluation order.
func (e *Engine) Rules() []string {
	out := make([]string, 0, len(e.bindings))
	for _, b := range e.bindings {
		out = append(out, b.rule.Name())
	}
	return out
}

// Parse runs every enabled rule against se and returns the names of the
// rules that matched, in order.
func (e *Engine) Parse(se *semi.SemiExp) []string {
	var matched []string
	for _, b := range e.bindings {
		if _, off := e.disabled[b.rule.Name()]; off {
			continue
		}
		if !b.rule.Test(se) {
			continue
		}
		matched = append(matched, b.rule.Name())
		for _, a := range b.actions {
			a.Apply(se)
		}
	}
	return matched
}
