// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scope tracks the lexical scopes open at the current point of a
// source file.
package scope

import (
	"fmt"
	"strings"
)

// Kind classifies a scope.
type Kind int

const (
	// KindUnknown is a brace scope not yet classified, e.g. a block.
	KindUnknown Kind = iota

	// KindFunction is a function or method body.
	KindFunction

	// KindClass is a class body.
	KindClass

	// KindStruct is a struct body.
	KindStruct

	// KindUnion is a union body.
	KindUnion

	// KindEnum is an enum body.
	KindEnum
)

var kindNames = map[Kind]string{
	KindUnknown:  "unknown",
	KindFunction: "function",
	KindClass:    "class",
	KindStruct:   "struct",
	KindUnion:    "union",
	KindEnum:     "enum",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Anonymous is the name given to scopes opened before they are classified.
const Anonymous = "anonymous"

// Record describes one open scope.
type Record struct {
	// Kind is the scope classification.
	Kind Kind

	// Name is the declared name, or Anonymous.
	Name string

	// Line is the source line count when the scope was entered.
	Line int
}

// String renders the record as "(kind, name, line)".
func (r Record) String() string {
	return fmt.Sprintf("(%s, %s, %d)", r.Kind, r.Name, r.Line)
}

// IsType reports whether the record is a class, struct or union body.
func (r Record) IsType() bool {
	return r.Kind == KindClass || r.Kind == KindStruct || r.Kind == KindUnion
}

// Stack is a LIFO of scope records.
//
// Thread Safety: NOT safe for concurrent use. Each analysis of a file owns
// its stack.
type Stack struct {
	records []Record
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push opens a scope.
func (s *Stack) Push(r Record) {
	s.records = append(s.records, r)
}

// Pop closes the innermost scope. On an empty stack it does nothing and
// reports false, so an unbalanced closing brace is harmless.
func (s *Stack) Pop() (Record, bool) {
	if len(s.records) == 0 {
		return Record{}, false
	}
	top := s.records[len(s.records)-1]
	s.records = s.records[:len(s.records)-1]
	return top, true
}

// Peek returns the innermost scope without removing it.
func (s *Stack) Peek() (Record, bool) {
	if len(s.records) == 0 {
		return Record{}, false
	}
	return s.records[len(s.records)-1], true
}

// Size returns the number of open scopes.
func (s *Stack) Size() int {
	return len(s.records)
}

// Records returns a bottom-to-top snapshot.
func (s *Stack) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Innermost returns the closest enclosing record of any of the given kinds.
func (s *Stack) Innermost(kinds ...Kind) (Record, bool) {
	for i := len(s.records) - 1; i >= 0; i-- {
		for _, k := range kinds {
			if s.records[i].Kind == k {
				return s.records[i], true
			}
		}
	}
	return Record{}, false
}

// Reset discards every open scope.
func (s *Stack) Reset() {
	s.records = s.records[:0]
}

// String renders the stack bottom to top.
func (s *Stack) String() string {
	parts := make([]string, len(s.records))
	for i, r := range s.records {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}
