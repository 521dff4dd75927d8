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
	"errors"
	"io"
)

var accessSpecifiers = Set("public", "protected", "private")

// Assembler groups a token stream into semi-expressions.
//
// Description:
//
//	A semi-expression ends after "{", "}" or a ";" outside parentheses, so
//	the header of a for loop stays in one piece. A line starting with "#"
//	is a preprocessor directive and ends with its line. "public :" and the
//	other access specifiers stand alone.
//
// Thread Safety: NOT safe for concurrent use.
type Assembler struct {
	tokens  Tokenizer
	pending *Token
	lines   int
}

// NewAssembler creates a Source over tokens.
func NewAssembler(tokens Tokenizer) *Assembler {
	return &Assembler{tokens: tokens}
}

// Lines implements Source.
func (a *Assembler) Lines() int {
	return a.lines
}

func (a *Assembler) read() (Token, error) {
	if a.pending != nil {
		tok := *a.pending
		a.pending = nil
		return tok, nil
	}
	return a.tokens.Next()
}

// Next implements Source.
func (a *Assembler) Next(ctx context.Context) (*SemiExp, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	se := &SemiExp{}
	depth := 0
	directive := false

	for {
		tok, err := a.read()
		if errors.Is(err, io.EOF) {
			if se.Len() > 0 {
				return se, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}

		if directive && tok.Line != se.Line {
			a.pending = &tok
			return se, nil
		}
		if se.Len() == 0 {
			se.Line = tok.Line
			directive = tok.Text == "#"
		}
		if tok.Line > a.lines {
			a.lines = tok.Line
		}
		se.Tokens = append(se.Tokens, tok.Text)
		if directive {
			continue
		}

		switch tok.Text {
		case "(":
			depth++
		case ")":
			if depth > 0 {
				depth--
			}
		case ";":
			if depth == 0 {
				return se, nil
			}
		case "{", "}":
			return se, nil
		case ":":
			if se.Len() == 2 {
				if _, ok := accessSpecifiers[se.Tokens[0]]; ok {
					return se, nil
				}
			}
		}
	}
}
