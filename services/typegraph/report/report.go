// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders analysis results for a terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/AleutianAI/typegraph/services/typegraph/analyzer"
	"github.com/AleutianAI/typegraph/services/typegraph/graph"
	"github.com/AleutianAI/typegraph/services/typegraph/graphstore"
	"github.com/AleutianAI/typegraph/services/typegraph/relations"
	"github.com/AleutianAI/typegraph/services/typegraph/symbols"
)

// ColorMode selects when output is styled.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

const column = 30

var arrows = map[relations.Kind]string{
	relations.Variable:   "V----variable------>",
	relations.GlobalVar:  "GV---globalVar----->",
	relations.GlobalFun:  "GF---globalFun----->",
	relations.Inherits:   "<|----inherits------",
	relations.ReturnType: "RT/P---retType----->",
	relations.Param:      "RT/P---param------->",
	relations.Composes:   "<*>--composes------>",
	relations.Uses:       "U----uses---------->",
	relations.Aggregates: "<o>--aggregates---->",
}

// Arrow returns the pretty arrow for an edge label. Unknown labels are
// returned unchanged.
func Arrow(label string) string {
	if a, ok := arrows[relations.Kind(label)]; ok {
		return a
	}
	return label
}

var (
	colorTitle  = lipgloss.Color("#2CD7C7")
	colorVertex = lipgloss.Color("#20B9B4")
	colorArrow  = lipgloss.Color("#16858E")
	colorWarn   = lipgloss.Color("#F4D03F")
	colorMuted  = lipgloss.Color("#2C4A54")
)

// Printer writes styled reports to one writer. The first write error
// stops further output and is returned by Err.
type Printer struct {
	w   io.Writer
	err error

	title  lipgloss.Style
	vertex lipgloss.Style
	arrow  lipgloss.Style
	warn   lipgloss.Style
	muted  lipgloss.Style
	cell   lipgloss.Style
}

// New returns a Printer writing to w.
func New(w io.Writer, mode ColorMode) *Printer {
	r := lipgloss.NewRenderer(w)
	if !useColor(w, mode) {
		r.SetColorProfile(termenv.Ascii)
	} else if mode == ColorAlways {
		r.SetColorProfile(termenv.ANSI256)
	}
	return &Printer{
		w:      w,
		title:  r.NewStyle().Bold(true).Foreground(colorTitle),
		vertex: r.NewStyle().Bold(true).Foreground(colorVertex),
		arrow:  r.NewStyle().Foreground(colorArrow),
		warn:   r.NewStyle().Foreground(colorWarn),
		muted:  r.NewStyle().Foreground(colorMuted),
		cell:   r.NewStyle().Padding(0, 1),
	}
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Err returns the first write error.
func (p *Printer) Err() error {
	return p.err
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) heading(text string) {
	p.printf("\n%s\n%s\n", p.title.Render(text), strings.Repeat("_", len(text)))
}

// pad right-aligns s in a column the way the plain text report does.
func pad(s string) string {
	if len(s) >= column {
		return s
	}
	return strings.Repeat(" ", column-len(s)) + s
}

// Graph prints each vertex followed by one line per outgoing edge.
func (p *Printer) Graph(g *graph.Graph[string]) {
	p.heading("Relationship graph")
	for _, v := range g.Vertices() {
		p.printf("%s\n", p.vertex.Render(pad(v.Payload)))
		for _, e := range v.Edges {
			child, ok := g.Vertex(e.To)
			name := child.Payload
			if !ok {
				name = fmt.Sprintf("<missing %d>", e.To)
			}
			p.printf("%s%s%s\n", pad(""), p.arrow.Render(pad(Arrow(e.Label))), pad(name))
		}
	}
}

// Components prints every strongly connected component, flagging cycles.
func (p *Printer) Components(components [][]graph.Vertex[string]) {
	p.heading("Strongly connected components")
	cyclic := make(map[int]bool)
	for _, c := range graph.Cycles(components) {
		cyclic[c[0].ID] = true
	}
	for i, c := range components {
		line := fmt.Sprintf("%3d  %s", i, graph.CollapseComponent(c, identity))
		if len(c) > 0 && cyclic[c[0].ID] {
			p.printf("%s %s\n", line, p.warn.Render("(cycle)"))
			continue
		}
		p.printf("%s\n", line)
	}
}

// Order prints a topological order, most depended-upon first.
func (p *Printer) Order(topo *graph.TopoResult[string]) {
	p.heading("Topological order")
	for i, v := range topo.Order {
		p.printf("%3d  %s\n", i+1, v.Payload)
	}
	if !topo.Acyclic {
		p.printf("%s\n", p.warn.Render(fmt.Sprintf("not a DAG: %d back edge(s), order is partial", len(topo.BackEdges))))
	}
}

// Symbols prints the type table.
func (p *Printer) Symbols(entries []symbols.Entry) {
	p.heading("Types")
	for _, e := range entries {
		p.printf("%s%s\n", pad(e.Name), p.muted.Render(pad(e.File)))
	}
}

// Summary prints counts for a run.
func (p *Printer) Summary(res *analyzer.Result) {
	p.heading("Summary")
	p.printf("run        %s\n", res.RunID)
	p.printf("files      %d", res.Files)
	if len(res.Skipped) > 0 {
		p.printf(" %s", p.warn.Render(fmt.Sprintf("(%d skipped)", len(res.Skipped))))
	}
	p.printf("\n")
	p.printf("types      %d\n", len(res.Symbols))
	p.printf("vertices   %d\n", res.Graph.Len())
	p.printf("edges      %d\n", res.Graph.EdgeCount())
	for _, k := range relations.Kinds() {
		if n := res.Counts[k]; n > 0 {
			p.printf("  %-10s %d\n", k, n)
		}
	}
	if res.Acyclic() {
		p.printf("cycles     0\n")
	} else {
		p.printf("cycles     %s\n", p.warn.Render(fmt.Sprint(len(res.Cycles))))
	}
}

// Result prints every section for a run.
func (p *Printer) Result(res *analyzer.Result) {
	p.Summary(res)
	p.Graph(res.Graph)
	p.Components(res.Components)
	p.Order(res.Topo)
}

// VertexMatches prints the vertices found by a payload search.
func (p *Printer) VertexMatches(g *graph.Graph[string], ids []int) {
	if len(ids) == 0 {
		p.printf("%s\n", p.muted.Render("no matching vertex"))
		return
	}
	for _, id := range ids {
		v, _ := g.Vertex(id)
		p.printf("%s  %s (%d edges)\n", p.vertex.Render(v.Payload), p.muted.Render(fmt.Sprintf("id=%d", id)), len(v.Edges))
	}
}

// EdgeMatches prints the edges found by a label search.
func (p *Printer) EdgeMatches(g *graph.Graph[string], matches []graph.EdgeMatch) {
	if len(matches) == 0 {
		p.printf("%s\n", p.muted.Render("no matching edge"))
		return
	}
	for _, m := range matches {
		from, _ := g.Vertex(m.From)
		to, _ := g.Vertex(m.Edge.To)
		p.printf("%s%s%s\n", pad(from.Payload), p.arrow.Render(pad(Arrow(m.Edge.Label))), pad(to.Payload))
	}
}

func identity(s string) string { return s }

// Snapshots prints stored runs as a table in the order given.
func (p *Printer) Snapshots(snaps []graphstore.Snapshot) {
	if len(snaps) == 0 {
		p.printf("%s\n", p.muted.Render("no stored runs"))
		return
	}
	header := p.title.Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.muted).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return p.cell
		}).
		Headers("RUN ID", "CREATED", "FILES", "VERTICES", "EDGES", "ACYCLIC", "ROOT")
	for _, s := range snaps {
		t.Row(
			s.RunID.String(),
			s.CreatedAt.Format(time.RFC3339),
			strconv.Itoa(s.Files),
			strconv.Itoa(s.Vertices),
			strconv.Itoa(s.Edges),
			strconv.FormatBool(s.Acyclic),
			s.Root,
		)
	}
	p.printf("%s\n", t.String())
}
