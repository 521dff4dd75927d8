// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analyzer runs the complete type relationship analysis.
//
// # Pipeline
//
//	files → lexer → semi-expressions
//	      → pass 1 (type discovery into the symbol table)
//	      → pass 2 (relationships into the graph)
//	      → strongly connected components → condensed graph → topological order
//
// Pass 1 runs over every file before pass 2 starts, so a relationship to a
// type defined in a later file still resolves to the defining file.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/typegraph/services/typegraph/graph"
	"github.com/AleutianAI/typegraph/services/typegraph/lexer"
	"github.com/AleutianAI/typegraph/services/typegraph/relations"
	"github.com/AleutianAI/typegraph/services/typegraph/rules"
	"github.com/AleutianAI/typegraph/services/typegraph/semi"
	"github.com/AleutianAI/typegraph/services/typegraph/symbols"
	"github.com/AleutianAI/typegraph/services/typegraph/telemetry"
)

// Result is the outcome of one analysis run.
type Result struct {
	// RunID identifies the run in logs and the snapshot store.
	RunID uuid.UUID

	// Graph holds one vertex per defining file and one edge per
	// relationship occurrence.
	Graph *graph.Graph[string]

	// Components are the strongly connected components of Graph, in
	// completion order.
	Components [][]graph.Vertex[string]

	// Cycles are the components that contain a cycle.
	Cycles [][]graph.Vertex[string]

	// Condensed has one vertex per component.
	Condensed *graph.Graph[string]

	// Topo is the topological order of Condensed.
	Topo *graph.TopoResult[string]

	// Symbols lists every type registered in pass 1.
	Symbols []symbols.Entry

	// Counts is the number of edges recorded per relationship kind.
	Counts map[relations.Kind]int

	// Files is the number of files analysed.
	Files int

	// Skipped lists files that could not be tokenized.
	Skipped []string

	// SemiExpressions counts semi-expressions seen by pass 1 and pass 2.
	SemiExpressions [2]int
}

// Acyclic reports whether the relationship graph has no cycles.
func (r *Result) Acyclic() bool {
	return len(r.Cycles) == 0
}

// Analyzer runs analyses. One Analyzer may run many analyses; each run
// gets its own symbol table, scope stack and graph.
//
// Thread Safety: Safe for concurrent use.
type Analyzer struct {
	lexer    *lexer.Lexer
	logger   *slog.Logger
	disabled []string
	skipSelf bool
	workers  int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithDisabledRules turns off rules by name in both passes.
func WithDisabledRules(names ...string) Option {
	return func(a *Analyzer) { a.disabled = append(a.disabled, names...) }
}

// WithoutSelfEdges drops relationships from a file to itself.
func WithoutSelfEdges() Option {
	return func(a *Analyzer) { a.skipSelf = true }
}

// WithLexer replaces the default lexer.
func WithLexer(l *lexer.Lexer) Option {
	return func(a *Analyzer) { a.lexer = l }
}

// WithWorkers bounds concurrent tokenization. Values below 1 mean
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	if a.lexer == nil {
		a.lexer = lexer.New(lexer.WithLogger(a.logger))
	}
	if a.workers < 1 {
		a.workers = runtime.GOMAXPROCS(0)
	}
	return a
}

type tokenized struct {
	path   string
	tokens []semi.Token
}

// Run analyses files.
//
// Description:
//
//	Files are tokenized concurrently, then both rule passes run
//	sequentially in file order. Files that fail to tokenize are logged and
//	listed in Result.Skipped; the run continues without them. A cyclic
//	graph is a diagnostic, not an error.
//
// Outputs:
//
//	*Result - The analysis.
//	error - Non-nil on cancellation, when every file was skipped, or when
//	        the graph is internally inconsistent.
func (a *Analyzer) Run(ctx context.Context, files []SourceFile) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.New()}
	ctx, span := tracer.Start(ctx, "Analyzer.Run", trace.WithAttributes(
		attribute.String("run_id", res.RunID.String()),
		attribute.Int("files", len(files)),
	))
	defer span.End()
	logger := telemetry.LoggerWithTrace(ctx, a.logger).With(slog.String("run_id", res.RunID.String()))

	inputs, err := a.tokenizeAll(ctx, files, res, logger)
	if err != nil {
		return nil, telemetry.Fail(span, err)
	}
	if len(inputs) == 0 && len(files) > 0 {
		return nil, telemetry.Fail(span, fmt.Errorf("%w: every file failed to tokenize", ErrNoFiles))
	}
	res.Files = len(inputs)

	recorderOpts := []relations.Option{relations.WithLogger(logger)}
	if a.skipSelf {
		recorderOpts = append(recorderOpts, relations.WithoutSelfEdges())
	}
	recorder := relations.NewRecorder(nil, recorderOpts...)
	repo := rules.NewRepository(symbols.NewTable(), recorder, logger)

	pass1 := rules.NewPass1(repo)
	pass1.Disable(a.disabled...)
	pass2 := rules.NewPass2(repo)
	pass2.Disable(a.disabled...)

	for i, engine := range []*rules.Engine{pass1, pass2} {
		n, err := a.pass(ctx, i+1, engine, repo, inputs)
		if err != nil {
			return nil, telemetry.Fail(span, err)
		}
		res.SemiExpressions[i] = n
	}
	if err := repo.Err(); err != nil {
		logger.Warn("some relationships were not recorded", slog.String("error", err.Error()))
	}

	res.Graph = recorder.Graph()
	res.Symbols = repo.Symbols.Entries()
	res.Counts = recorder.Counts()

	if err := a.structure(ctx, res, logger); err != nil {
		return nil, telemetry.Fail(span, err)
	}

	telemetry.Succeed(span,
		attribute.Int("vertices", res.Graph.Len()),
		attribute.Int("edges", res.Graph.EdgeCount()),
		attribute.Int("cycles", len(res.Cycles)),
	)
	recordRunMetrics(ctx, res, time.Since(start))
	logger.Info("analysis complete",
		slog.Int("files", res.Files),
		slog.Int("types", len(res.Symbols)),
		slog.Int("vertices", res.Graph.Len()),
		slog.Int("edges", res.Graph.EdgeCount()),
		slog.Int("components", len(res.Components)),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}

// AnalyzeRoots collects files with fs and runs the analysis over them.
func (a *Analyzer) AnalyzeRoots(ctx context.Context, fs *FileSet, roots ...string) (*Result, error) {
	files, err := fs.Collect(ctx, roots...)
	if err != nil {
		return nil, err
	}
	return a.Run(ctx, files)
}

// FromGraph derives components, condensation and order for a graph that
// was analysed earlier, such as one loaded from XML or the snapshot store.
// Symbols and counts other than per-label edge totals are not available.
func (a *Analyzer) FromGraph(ctx context.Context, g *graph.Graph[string]) (*Result, error) {
	res := &Result{RunID: uuid.New(), Graph: g, Counts: make(map[relations.Kind]int)}
	for _, v := range g.Vertices() {
		for _, e := range v.Edges {
			res.Counts[relations.Kind(e.Label)]++
		}
	}
	if err := a.structure(ctx, res, a.logger); err != nil {
		return nil, err
	}
	return res, nil
}

func (a *Analyzer) tokenizeAll(ctx context.Context, files []SourceFile, res *Result, logger *slog.Logger) ([]tokenized, error) {
	out := make([]tokenized, len(files))
	failed := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, f := range files {
		g.Go(func() error {
			tokens, err := a.lexer.Tokenize(gctx, f.Content)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed[i] = err
				return nil
			}
			out[i] = tokenized{path: f.Path, tokens: tokens}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := out[:0]
	for i, t := range out {
		if failed[i] != nil {
			logger.Warn("skipping file",
				slog.String("file", files[i].Path),
				slog.String("error", failed[i].Error()))
			res.Skipped = append(res.Skipped, files[i].Path)
			continue
		}
		kept = append(kept, t)
	}
	return kept, nil
}

func (a *Analyzer) pass(ctx context.Context, n int, engine *rules.Engine, repo *rules.Repository, inputs []tokenized) (int, error) {
	ctx, span := tracer.Start(ctx, "Analyzer.pass", trace.WithAttributes(attribute.Int("pass", n)))
	defer span.End()

	count := 0
	for _, in := range inputs {
		src := semi.NewAssembler(semi.NewSliceTokenizer(in.tokens))
		repo.BeginFile(in.path, src.Lines)
		for {
			se, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return count, telemetry.Fail(span, fmt.Errorf("pass %d: %s: %w", n, in.path, err))
			}
			engine.Parse(se)
			count++
		}
		if depth := repo.Scopes.Size(); depth > 0 && n == 1 {
			repo.Logger.Debug("unbalanced scopes at end of file",
				slog.String("file", in.path),
				slog.Int("open", depth))
		}
	}
	span.SetAttributes(attribute.Int("semi_expressions", count))
	return count, nil
}

func (a *Analyzer) structure(ctx context.Context, res *Result, logger *slog.Logger) error {
	_, span := tracer.Start(ctx, "Analyzer.structure")
	defer span.End()

	comps, err := graph.StronglyConnected(res.Graph)
	if err != nil {
		return fmt.Errorf("strongly connected components: %w", err)
	}
	res.Components = comps
	res.Cycles = graph.Cycles(comps)
	for _, c := range res.Cycles {
		logger.Warn("cyclic dependency",
			slog.String("component", graph.CollapseComponent(c, identity)))
	}

	res.Condensed, err = graph.Condense(res.Graph, comps, identity)
	if err != nil {
		return fmt.Errorf("condense: %w", err)
	}
	res.Topo, err = graph.TopoSort(res.Condensed)
	if err != nil {
		return fmt.Errorf("topological sort: %w", err)
	}
	if !res.Topo.Acyclic {
		logger.Warn("condensed graph is not a DAG", slog.Int("back_edges", len(res.Topo.BackEdges)))
	}
	return nil
}

func identity(s string) string { return s }
