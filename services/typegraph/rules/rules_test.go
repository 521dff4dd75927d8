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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/typegraph/services/typegraph/scope"
	"github.com/AleutianAI/typegraph/services/typegraph/symbols"
)

// sourceFile is a file name with its semi-expressions, one per string.
type sourceFile struct {
	path  string
	lines []string
}

var shapesProject = []sourceFile{
	{"geo/Point.h", []string{
		"struct Point {", "int x ;", "}", ";",
	}},
	{"geo/Shape.h", []string{
		"class Shape {", "public :", "virtual void draw ( ) = 0 ;", "}", ";",
	}},
	{"geo/Circle.h", []string{
		`# include "Shape.h"`,
		"class Circle : public Shape {",
		"public :",
		"Point center ;",
		"void attach ( Canvas * c ) ;",
		"Circle ( const Circle & other ) ;",
		"}", ";",
	}},
	{"ui/Canvas.h", []string{
		"class Canvas {",
		"Canvas ( ) {",
		"shapes = new Circle ;",
		"}", "}", ";",
		"Point makePoint ( ) {",
		"return p ;",
		"}",
	}},
	{"main.cpp", []string{
		"Canvas gCanvas ;",
		"int main ( ) {",
		"Point p = makePoint ( ) ;",
		"}",
	}},
}

func runPass(repo *Repository, engine *Engine, files []sourceFile) {
	for _, f := range files {
		line := 0
		repo.BeginFile(f.path, func() int { return line })
		for i, l := range f.lines {
			line = i + 1
			se := tokens(l)
			se.Line = line
			engine.Parse(se)
		}
	}
}

func edgeStrings(repo *Repository) []string {
	g := repo.Recorder.Graph()
	var out []string
	for _, v := range g.Vertices() {
		for _, e := range v.Edges {
			to, _ := g.Vertex(e.To)
			out = append(out, fmt.Sprintf("%s -%s-> %s", v.Payload, e.Label, to.Payload))
		}
	}
	return out
}

func TestPasses_ShapesProject(t *testing.T) {
	repo := NewRepository(nil, nil, nil)
	runPass(repo, NewPass1(repo), shapesProject)

	assert.Equal(t, []symbols.Entry{
		{Name: "Canvas", Placeholder: symbols.Placeholder, File: "Canvas"},
		{Name: "Circle", Placeholder: symbols.Placeholder, File: "Circle"},
		{Name: "Point", Placeholder: symbols.Placeholder, File: "Point"},
		{Name: "Shape", Placeholder: symbols.Placeholder, File: "Shape"},
		{Name: "makePoint", Placeholder: symbols.Placeholder, File: "Canvas"},
	}, repo.Symbols.Entries())
	assert.Equal(t, 4, repo.Recorder.Graph().Len())
	assert.Equal(t, 0, repo.Recorder.Graph().EdgeCount())

	runPass(repo, NewPass2(repo), shapesProject)
	require.NoError(t, repo.Err())

	assert.ElementsMatch(t, []string{
		"Shape -inherits-> Circle",
		"Circle -variable-> Point",
		"Circle -composes-> Point",
		"Circle -uses-> Canvas",
		"Canvas -aggregates-> Circle",
		"Canvas -retType-> Point",
		"main -globalVar-> Canvas",
		"main -variable-> Point",
		"main -globalFun-> Canvas",
	}, edgeStrings(repo))
}

func TestPass1_ScopeTracking(t *testing.T) {
	repo := NewRepository(nil, nil, nil)
	e := NewPass1(repo)
	line := 0
	repo.BeginFile("Widget.h", func() int { return line })

	line = 3
	e.Parse(tokens("class Widget {"))
	top, ok := repo.Scopes.Peek()
	require.True(t, ok)
	assert.Equal(t, scope.Record{Kind: scope.KindClass, Name: "Widget", Line: 3}, top)

	line = 5
	e.Parse(tokens("void draw ( ) {"))
	top, _ = repo.Scopes.Peek()
	assert.Equal(t, scope.Record{Kind: scope.KindFunction, Name: "draw", Line: 5}, top)
	assert.False(t, repo.Symbols.Contains("draw"), "member functions are not global")

	line = 6
	e.Parse(tokens("for ( int i = 0 ; i < n ; ++ i ) {"))
	top, _ = repo.Scopes.Peek()
	assert.Equal(t, scope.KindUnknown, top.Kind)
	assert.Equal(t, 3, repo.Scopes.Size())

	e.Parse(tokens("}"))
	e.Parse(tokens("}"))
	e.Parse(tokens("}"))
	e.Parse(tokens("}"))
	assert.Equal(t, 0, repo.Scopes.Size(), "unbalanced close is ignored")
}

func TestPass1_Definitions(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantType  string
		wantKind  scope.Kind
		wantScope bool
	}{
		{"class", "class Widget {", "Widget", scope.KindClass, true},
		{"derived class", "class Button : public Widget {", "Button", scope.KindClass, true},
		{"template class", "template < class T > class Holder {", "Holder", scope.KindClass, true},
		{"struct", "struct Point {", "Point", scope.KindStruct, true},
		{"union", "union Value {", "Value", scope.KindUnion, true},
		{"enum", "enum Color {", "Color", scope.KindEnum, true},
		{"scoped enum", "enum class Mode : int {", "Mode", scope.KindEnum, true},
		{"anonymous enum", "enum {", "noName", scope.KindEnum, true},
		{"anonymous struct", "struct {", "", scope.KindStruct, true},
		{"aligned struct", "struct alignas ( 16 ) Vec {", "Vec", scope.KindStruct, true},
		{"exported class", "class __declspec ( dllexport ) Panel : public Widget {", "Panel", scope.KindClass, true},
		{"function returning struct pointer", "struct Point * origin ( ) {", "origin", scope.KindFunction, true},
		{"typedef", "typedef Widget * WidgetPtr ;", "WidgetPtr", scope.KindUnknown, false},
		{"typedef of builtin", "typedef unsigned int uint ;", "uint", scope.KindUnknown, false},
		{"std typedef ignored", "typedef std :: string string ;", "", scope.KindUnknown, false},
		{"keyword is not an alias", "typedef ;", "", scope.KindUnknown, false},
		{"typedef of primitive name", "typedef long long ;", "", scope.KindUnknown, false},
		{"free function", "Widget make ( ) {", "make", scope.KindFunction, true},
		{"main is not registered", "int main ( ) {", "", scope.KindFunction, true},
		{"qualified member", "void Widget :: draw ( ) {", "", scope.KindFunction, true},
		{"forward declaration", "class Widget ;", "", scope.KindUnknown, false},
		{"if block", "if ( x ) {", "", scope.KindUnknown, true},
		{"for block", "for ( int i = 0 ; i < n ; ++ i ) {", "", scope.KindUnknown, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := NewRepository(nil, nil, nil)
			repo.BeginFile("src/File.h", nil)
			NewPass1(repo).Parse(tokens(tc.src))

			if tc.wantType != "" {
				assert.Equal(t, "File", repo.Symbols.LookupFile(tc.wantType, "missing"))
				_, ok := repo.Recorder.Graph().FindByPayload("File")
				assert.True(t, ok, "file vertex ensured")
			} else {
				assert.Equal(t, 0, repo.Symbols.Len())
			}
			top, ok := repo.Scopes.Peek()
			assert.Equal(t, tc.wantScope, ok)
			if ok {
				assert.Equal(t, tc.wantKind, top.Kind)
			}
		})
	}
}

// pass2Case runs one semi-expression through pass 2 with known types and
// an optional enclosing scope, returning the recorded edges.
func pass2Case(t *testing.T, known []string, enclosing []scope.Record, src string) []string {
	t.Helper()
	repo := NewRepository(nil, nil, nil)
	for _, k := range known {
		repo.Symbols.Add(k, symbols.Placeholder, k)
	}
	repo.BeginFile("cur/Current.cpp", nil)
	for _, r := range enclosing {
		repo.Scopes.Push(r)
	}
	NewPass2(repo).Parse(tokens(src))
	require.NoError(t, repo.Err())
	return edgeStrings(repo)
}

func TestPass1_AttributedTypeScope(t *testing.T) {
	repo := NewRepository(nil, nil, nil)
	repo.BeginFile("src/Vec.h", nil)
	NewPass1(repo).Parse(tokens("struct alignas ( 16 ) Vec {"))

	require.Equal(t, 1, repo.Scopes.Size())
	top, _ := repo.Scopes.Peek()
	assert.Equal(t, scope.KindStruct, top.Kind)
	assert.Equal(t, "Vec", top.Name)
	assert.False(t, repo.Symbols.Contains("alignas"))
}

func TestPass2_Relationships(t *testing.T) {
	inClass := []scope.Record{{Kind: scope.KindClass, Name: "Current"}}
	inFunc := []scope.Record{{Kind: scope.KindFunction, Name: "run"}}

	tests := []struct {
		name      string
		known     []string
		enclosing []scope.Record
		src       string
		want      []string
	}{
		{"local variable", []string{"Engine"}, inFunc, "Engine e ;",
			[]string{"Current -variable-> Engine"}},
		{"initialized variable", []string{"Engine"}, inFunc, "Engine e = Engine ( ) ;",
			[]string{"Current -variable-> Engine", "Current -globalFun-> Engine"}},
		{"assignment is not a declaration", []string{"Engine"}, inFunc, "Engine = x ;", nil},
		{"constructor call is not a declaration", []string{"Engine"}, inFunc, "Engine ( x , y ) ;",
			[]string{"Current -globalFun-> Engine"}},
		{"return type", []string{"Engine"}, nil, "Engine build ( ) {",
			[]string{"Current -retType-> Engine"}},
		{"qualified return type", []string{"Engine"}, nil, "Engine Car :: build ( ) {",
			[]string{"Current -retType-> Engine"}},
		{"params", []string{"Engine", "Wheel"}, nil, "void fit ( Engine e , Wheel w , Engine f ) {",
			[]string{"Current -param-> Engine", "Current -param-> Wheel"}},
		{"inheritance", []string{"Base"}, nil, "class Current : public Base {",
			[]string{"Base -inherits-> Current"}},
		{"aligned struct header is not a function", []string{"Vec"}, nil, "struct alignas ( 16 ) Vec {", nil},
		{"exported class keeps its base", []string{"Base"}, nil, "class __declspec ( dllexport ) Current : public Base {",
			[]string{"Base -inherits-> Current"}},
		{"multiple and template bases", []string{"A", "B"}, nil, "struct Current : public A , private B < int , A > {",
			[]string{"A -inherits-> Current", "B -inherits-> Current"}},
		{"unknown base", nil, nil, "class Current : public Base {", nil},
		{"global function call", []string{"helper"}, inFunc, "helper ( 1 ) ;",
			[]string{"Current -globalFun-> helper"}},
		{"call outside function", []string{"helper"}, inClass, "helper ( 1 ) ;", nil},
		{"global variable", []string{"Config"}, nil, "Config gConfig = load ;",
			[]string{"Current -globalVar-> Config"}},
		{"global variable of unknown type", nil, nil, "Config gConfig ;", nil},
		{"composition", []string{"Engine"}, inClass, "Engine engine ;",
			[]string{"Current -variable-> Engine", "Current -composes-> Engine"}},
		{"qualified composition", []string{"Engine"}, inClass, "parts :: Engine engine ;",
			[]string{"Current -composes-> Engine"}},
		{"pointer member is not composition", []string{"Engine"}, inClass, "Engine * engine ;",
			[]string{"Current -variable-> Engine"}},
		{"usage", []string{"Engine"}, inClass, "void attach ( Engine * e , const Engine & f ) ;",
			[]string{"Current -uses-> Engine"}},
		{"copy constructor is not usage", []string{"Current"}, inClass, "Current ( const Current & other ) ;", nil},
		{"usage outside class", []string{"Engine"}, nil, "void attach ( Engine * e ) ;", nil},
		{"aggregation", []string{"Engine"}, append(inClass, inFunc...), "engine = new Engine ;",
			[]string{"Current -aggregates-> Engine"}},
		{"aggregation outside class", []string{"Engine"}, inFunc, "engine = new Engine ;", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := pass2Case(t, tc.known, tc.enclosing, tc.src)
			assert.ElementsMatch(t, tc.want, got)
		})
	}
}

func TestRules_OutOfRangeIsNoMatch(t *testing.T) {
	repo := NewRepository(nil, nil, nil)
	repo.Symbols.Add("X", symbols.Placeholder, "X")
	repo.Scopes.Push(scope.Record{Kind: scope.KindFunction, Name: "f"})

	malformed := []string{
		"( ) {",
		"( ;",
		";",
		"typedef ;",
		"= X ;",
		"X ( {",
		"class",
		"new",
		") ( * ;",
		": {",
	}
	p1, p2 := NewPass1(repo), NewPass2(repo)
	for _, src := range malformed {
		assert.NotPanics(t, func() {
			p1.Parse(tokens(src))
			p2.Parse(tokens(src))
		}, src)
	}
}

func TestPrettySignature(t *testing.T) {
	se := tokens("public : void draw ( int x ) const {")
	assert.Equal(t, "void draw ( int x )", prettySignature(se))
	assert.Equal(t, 10, se.Len(), "input is not modified")
}
