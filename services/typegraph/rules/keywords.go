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
	"strings"
	"unicode"

	"github.com/AleutianAI/typegraph/services/typegraph/semi"
)

// declarationStopWords disqualify a semi-expression as a plain variable
// declaration.
var declarationStopWords = semi.Set(
	"asm", "auto", "bool", "break", "case", "catch", "char", "class", "const", "const_cast",
	"continue", "default", "delete", "do", "double", "dynamic_cast", "else", "enum", "explicit",
	"export", "extern", "false", "float", "for", "friend", "goto", "if", "inline", "int", "long",
	"mutable", "namespace", "new", "operator", "private", "protected", "public", "register",
	"reinterpret_cast", "return", "short", "signed", "sizeof", "static", "static_cast", "struct",
	"switch", "template", "this", "throw", "true", "try", "typedef", "typeid", "typename", "union",
	"unsigned", "using", "virtual", "void", "volatile", "wchar_t", "while", "}", "{", "#",
)

// controlKeywords precede "(" in statements that are not function headers.
var controlKeywords = semi.Set("for", "while", "switch", "if", "catch")

// attributeSpecifiers take a parenthesized argument that is part of a
// declaration header, not a parameter list.
var attributeSpecifiers = semi.Set("alignas", "__declspec", "__attribute__")

// standardTypes are library and primitive type names never recorded as
// user types.
var standardTypes = semi.Set(
	"ios", "ios_base", "istream", "iostream", "ostream", "streambuf", "ifstream", "fstream",
	"ofstream", "filebuf", "bool", "char", "int", "float", "double", "void", "wchar_t",
	"long", "string", "iterator", "short",
)

// compositionStopWords rule out member declarations that hold a type by
// value: punctuation, operators, declaration keywords and library types.
var compositionStopWords = semi.Set(
	"{", "}", "(", ")", "[", "]", "<<", ">>", "+", "-", "*", "/", "%", "&", "&&", "||",
	"=", "==", "!=", "+=", "-=", "*=", "/=", "++", "--", "->", "!", "?", "#",
	"return", "typedef", "using", "friend", "template", "operator", "new", "delete",
	"class", "struct", "union", "enum", "public", "private", "protected", "static",
	"ios", "ios_base", "istream", "iostream", "ostream", "streambuf", "ifstream", "fstream",
	"ofstream", "filebuf", "bool", "char", "int", "float", "double", "void", "wchar_t",
	"long", "short", "unsigned", "signed", "auto", "size_t", "string", "iterator",
	"vector", "list", "map", "set", "deque", "queue", "stack", "pair", "unique_ptr", "shared_ptr",
)

// isIdentifier reports whether tok can name a type.
func isIdentifier(tok string) bool {
	if tok == "" {
		return false
	}
	for i, r := range tok {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// prettySignature renders a function header without access specifiers, up
// to and including its closing parenthesis. se is not modified.
func prettySignature(se *semi.SemiExp) string {
	c := se.Clone()
	c.Remove("public")
	c.Remove(":")
	c.TrimFront()
	if end := c.Find(")"); end >= 0 {
		c.Tokens = c.Tokens[:end+1]
	}
	return strings.Join(c.Tokens, " ")
}

// skipAttribute returns the index just past the attribute group starting
// at i, or i when no group starts there.
func skipAttribute(se *semi.SemiExp, i int) int {
	if _, ok := attributeSpecifiers[se.Tokens[i]]; !ok {
		return i
	}
	if next, ok := se.At(i + 1); !ok || next != "(" {
		return i
	}
	depth := 0
	for j := i + 1; j < se.Len(); j++ {
		switch se.Tokens[j] {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return se.Len()
}

// openParen returns the index of the first "(" outside attribute groups,
// or -1.
func openParen(se *semi.SemiExp) int {
	for i := 0; i < se.Len(); {
		if j := skipAttribute(se, i); j > i {
			i = j
			continue
		}
		if se.Tokens[i] == "(" {
			return i
		}
		i++
	}
	return -1
}

// functionNameIndex returns the index of the token naming the function in
// a header ending with "{", or -1.
func functionNameIndex(se *semi.SemiExp) int {
	if se.Last() != "{" {
		return -1
	}
	open := openParen(se)
	if open < 1 {
		return -1
	}
	if _, ok := controlKeywords[se.Tokens[open-1]]; ok {
		return -1
	}
	return open - 1
}

// typeKeywordIndex returns the index of the keyword introducing a type body,
// skipping template parameters such as "template < class T >". It returns
// -1 when keyword only occurs in parameter position.
func typeKeywordIndex(se *semi.SemiExp, keyword string) int {
	for i := se.Len() - 1; i >= 0; i-- {
		if se.Tokens[i] != keyword {
			continue
		}
		if prev, ok := se.At(i - 1); ok && (prev == "<" || prev == ",") {
			continue
		}
		return i
	}
	return -1
}

// typeNameAfter returns the identifier following the keyword at i, or
// "noName" for anonymous bodies.
func typeNameAfter(se *semi.SemiExp, i int) string {
	for j := i + 1; j < se.Len(); j++ {
		if k := skipAttribute(se, j); k > j {
			j = k - 1
			continue
		}
		tok := se.Tokens[j]
		switch {
		case tok == "class" || tok == "struct":
			continue
		case isIdentifier(tok):
			return tok
		default:
			return noName
		}
	}
	return noName
}

const noName = "noName"
