// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lexer turns C++ source into the token stream consumed by the
// semi-expression assembler.
//
// The tree-sitter C++ grammar does the lexing. Leaves of the syntax tree
// become tokens, with these adjustments:
//   - comments are dropped
//   - literals and preprocessor arguments are kept whole
//   - directive keywords are split, "#include" becomes "#", "include"
//
// Parse errors do not stop tokenizing; tree-sitter recovers and the
// rule engine tolerates malformed input.
package lexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/AleutianAI/typegraph/services/typegraph/semi"
)

// DefaultMaxFileSize bounds the input accepted by Tokenize.
const DefaultMaxFileSize = 10 * 1024 * 1024

var (
	// ErrFileTooLarge is returned when content exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent is returned for content that is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")
)

// atomicNodes are emitted as a single token without visiting children.
var atomicNodes = map[string]struct{}{
	"string_literal":       {},
	"raw_string_literal":   {},
	"char_literal":         {},
	"number_literal":       {},
	"system_lib_string":    {},
	"user_defined_literal": {},
	"preproc_arg":          {},
}

// Lexer tokenizes C++ source.
//
// Thread Safety: Safe for concurrent use. A tree-sitter parser is created
// per call.
type Lexer struct {
	maxFileSize int
	logger      *slog.Logger
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(n int) Option {
	return func(l *Lexer) {
		if n > 0 {
			l.maxFileSize = n
		}
	}
}

// WithLogger sets the logger used for parse warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lexer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Lexer.
func New(opts ...Option) *Lexer {
	l := &Lexer{maxFileSize: DefaultMaxFileSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tokenize returns the tokens of content in source order.
//
// Inputs:
//
//	ctx - Cancels the tree-sitter parse.
//	content - C++ source text.
//
// Outputs:
//
//	[]semi.Token - Tokens with 1-based line numbers.
//	error - ErrFileTooLarge, ErrInvalidContent, or a parse failure.
func (l *Lexer) Tokenize(ctx context.Context, content []byte) ([]semi.Token, error) {
	if len(content) > l.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), l.maxFileSize)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(cpp.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}
	if root.HasError() {
		l.logger.Debug("source contains syntax errors", slog.Int("bytes", len(content)))
	}

	var tokens []semi.Token
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		typ := node.Type()
		if typ == "comment" {
			continue
		}
		line := int(node.StartPoint().Row) + 1

		_, atomic := atomicNodes[typ]
		if atomic || node.ChildCount() == 0 {
			tokens = appendLeaf(tokens, node.Content(content), line)
			continue
		}
		// Push children in reverse so the leftmost is visited first.
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, node.Child(i))
		}
	}
	return tokens, nil
}

// appendLeaf adds one leaf, splitting directive keywords.
func appendLeaf(tokens []semi.Token, text string, line int) []semi.Token {
	text = strings.TrimSpace(text)
	if text == "" {
		return tokens
	}
	if len(text) > 1 && text[0] == '#' {
		tokens = append(tokens, semi.Token{Text: "#", Line: line})
		text = strings.TrimSpace(text[1:])
	}
	return append(tokens, semi.Token{Text: text, Line: line})
}

// Source tokenizes content and returns a semi-expression source over it.
func (l *Lexer) Source(ctx context.Context, content []byte) (semi.Source, error) {
	tokens, err := l.Tokenize(ctx, content)
	if err != nil {
		return nil, err
	}
	return semi.NewAssembler(semi.NewSliceTokenizer(tokens)), nil
}
