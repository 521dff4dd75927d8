// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package semi defines semi-expressions, the unit the rule engine works on.
//
// A semi-expression is the ordered run of tokens up to and including a
// terminator: ";", "{" or "}". Preprocessor lines and access specifiers
// ("public :") form their own semi-expressions.
package semi

import (
	"slices"
	"strings"
)

// SemiExp is one token sequence handed to the rule engine.
//
// Rules treat a SemiExp as read-only. Remove and TrimFront are the only
// mutating helpers, and callers that mutate should work on a Clone.
type SemiExp struct {
	// Tokens are the lexical units in source order.
	Tokens []string

	// Line is the source line of the first token.
	Line int
}

// New creates a semi-expression from tokens.
func New(line int, tokens ...string) *SemiExp {
	return &SemiExp{Tokens: tokens, Line: line}
}

// Len returns the number of tokens.
func (s *SemiExp) Len() int {
	return len(s.Tokens)
}

// At returns the token at i. Out-of-range positions report false.
func (s *SemiExp) At(i int) (string, bool) {
	if i < 0 || i >= len(s.Tokens) {
		return "", false
	}
	return s.Tokens[i], true
}

// Find returns the index of the first occurrence of tok, or -1.
func (s *SemiExp) Find(tok string) int {
	return slices.Index(s.Tokens, tok)
}

// FindLast returns the index of the last occurrence of tok, or -1.
func (s *SemiExp) FindLast(tok string) int {
	for i := len(s.Tokens) - 1; i >= 0; i-- {
		if s.Tokens[i] == tok {
			return i
		}
	}
	return -1
}

// Contains reports whether tok occurs.
func (s *SemiExp) Contains(tok string) bool {
	return s.Find(tok) >= 0
}

// ContainsAny reports whether any token is in set.
func (s *SemiExp) ContainsAny(set map[string]struct{}) bool {
	for _, t := range s.Tokens {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// Last returns the final token, or "" when empty.
func (s *SemiExp) Last() string {
	if len(s.Tokens) == 0 {
		return ""
	}
	return s.Tokens[len(s.Tokens)-1]
}

// Remove deletes the first occurrence of tok and reports whether it did.
func (s *SemiExp) Remove(tok string) bool {
	i := s.Find(tok)
	if i < 0 {
		return false
	}
	s.Tokens = slices.Delete(s.Tokens, i, i+1)
	return true
}

// TrimFront drops leading newline and empty tokens.
func (s *SemiExp) TrimFront() {
	i := 0
	for i < len(s.Tokens) && strings.TrimSpace(s.Tokens[i]) == "" {
		i++
	}
	s.Tokens = s.Tokens[i:]
}

// Clone returns an independent copy.
func (s *SemiExp) Clone() *SemiExp {
	return &SemiExp{Tokens: slices.Clone(s.Tokens), Line: s.Line}
}

// String joins the tokens with single spaces.
func (s *SemiExp) String() string {
	return strings.Join(s.Tokens, " ")
}

// Set builds a lookup set from tokens.
func Set(tokens ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}
