// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package semi

import (
	"context"
	"io"
)

// Source yields semi-expressions in source order.
type Source interface {
	// Next returns the next semi-expression, or io.EOF when exhausted.
	Next(ctx context.Context) (*SemiExp, error)

	// Lines returns the line count reached so far.
	Lines() int
}

// Token is one lexical unit with its 1-based source line.
type Token struct {
	Text string
	Line int
}

// Tokenizer yields tokens in source order.
type Tokenizer interface {
	// Next returns the next token, or io.EOF when exhausted.
	Next() (Token, error)
}

// SliceSource serves a fixed list of semi-expressions.
type SliceSource struct {
	items []*SemiExp
	pos   int
	lines int
}

// NewSliceSource creates a source over items.
func NewSliceSource(items ...*SemiExp) *SliceSource {
	return &SliceSource{items: items}
}

// Next implements Source.
func (s *SliceSource) Next(ctx context.Context) (*SemiExp, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.items) {
		return nil, io.EOF
	}
	se := s.items[s.pos]
	s.pos++
	if se.Line > s.lines {
		s.lines = se.Line
	}
	return se, nil
}

// Lines implements Source.
func (s *SliceSource) Lines() int {
	return s.lines
}

// SliceTokenizer serves a fixed list of tokens.
type SliceTokenizer struct {
	tokens []Token
	pos    int
}

// NewSliceTokenizer creates a tokenizer over tokens.
func NewSliceTokenizer(tokens []Token) *SliceTokenizer {
	return &SliceTokenizer{tokens: tokens}
}

// Next implements Tokenizer.
func (t *SliceTokenizer) Next() (Token, error) {
	if t.pos >= len(t.tokens) {
		return Token{}, io.EOF
	}
	tok := t.tokens[t.pos]
	t.pos++
	return tok, nil
}
