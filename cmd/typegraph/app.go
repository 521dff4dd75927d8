// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/viant/afs"

	"github.com/AleutianAI/typegraph/services/typegraph/analyzer"
	"github.com/AleutianAI/typegraph/services/typegraph/config"
	"github.com/AleutianAI/typegraph/services/typegraph/graph"
	"github.com/AleutianAI/typegraph/services/typegraph/graphstore"
	"github.com/AleutianAI/typegraph/services/typegraph/lexer"
	"github.com/AleutianAI/typegraph/services/typegraph/report"
	badgerstore "github.com/AleutianAI/typegraph/services/typegraph/storage/badger"
	"github.com/AleutianAI/typegraph/services/typegraph/xmlgraph"
)

// latestRun selects the newest stored snapshot.
const latestRun = "latest"

// app carries what every command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	fs     afs.Service
	db     *badgerstore.DB
	store  *graphstore.Store
}

// newApp opens the snapshot store named by cfg.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	dbCfg := badgerstore.DefaultConfig(cfg.Store.Path)
	if cfg.Store.InMemory {
		dbCfg = badgerstore.InMemoryConfig()
	}
	dbCfg.Logger = logger.With(slog.String("component", "badger"))
	db, err := badgerstore.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &app{
		cfg:    cfg,
		logger: logger,
		fs:     afs.New(),
		db:     db,
		store:  graphstore.New(db, graphstore.WithLogger(logger)),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func (a *app) analyzer() *analyzer.Analyzer {
	opts := []analyzer.Option{
		analyzer.WithLogger(a.logger),
		analyzer.WithDisabledRules(a.cfg.Analysis.DisabledRules...),
		analyzer.WithLexer(lexer.New(
			lexer.WithMaxFileSize(int(a.cfg.Analysis.MaxFileSize)),
			lexer.WithLogger(a.logger),
		)),
	}
	if a.cfg.Analysis.SkipSelfEdges {
		opts = append(opts, analyzer.WithoutSelfEdges())
	}
	return analyzer.New(opts...)
}

func (a *app) printer(w io.Writer) *report.Printer {
	return report.New(w, report.ColorMode(a.cfg.Output.Color))
}

// analyze collects the files under roots, analyses them and stores the
// result. When force is false and a snapshot of the identical file set and
// analysis settings exists, that snapshot is returned instead of a new run.
// The configured XML outputs are written in both cases.
func (a *app) analyze(ctx context.Context, roots []string, force bool) (*analyzer.Result, graphstore.Snapshot, error) {
	fileSet := analyzer.NewFileSet(
		analyzer.WithExtensions(a.cfg.Analysis.Extensions...),
		analyzer.WithExclude(a.cfg.Analysis.Exclude...),
		analyzer.WithFileSystem(a.fs),
		analyzer.WithFileSetLogger(a.logger),
	)
	files, err := fileSet.Collect(ctx, roots...)
	if err != nil {
		return nil, graphstore.Snapshot{}, err
	}

	sum, err := a.fingerprint(files)
	if err != nil {
		return nil, graphstore.Snapshot{}, err
	}

	res, snap, err := a.reuse(ctx, sum, force)
	if err != nil {
		return nil, graphstore.Snapshot{}, err
	}
	if res == nil {
		res, err = a.analyzer().Run(ctx, files)
		if err != nil {
			return nil, graphstore.Snapshot{}, err
		}
		snap, err = a.store.Save(ctx, graphstore.Snapshot{
			RunID:       res.RunID,
			Root:        strings.Join(roots, ","),
			Fingerprint: sum,
			Files:       res.Files,
			Acyclic:     res.Acyclic(),
		}, res.Graph)
		if err != nil {
			return nil, graphstore.Snapshot{}, err
		}
	} else {
		a.logger.Info("file set unchanged, reusing snapshot",
			slog.String("run_id", snap.RunID.String()),
			slog.Int("files", len(files)))
	}

	if err := a.writeXML(ctx, a.cfg.Output.XML, res.Graph); err != nil {
		return nil, graphstore.Snapshot{}, err
	}
	if err := a.writeXML(ctx, a.cfg.Output.CondensedXML, res.Condensed); err != nil {
		return nil, graphstore.Snapshot{}, err
	}
	return res, snap, nil
}

// fingerprint hashes the collected files together with the analysis
// settings, so changing a rule or filter never reuses an older run.
func (a *app) fingerprint(files []analyzer.SourceFile) (uint64, error) {
	fp := graphstore.NewFingerprinter()
	for _, f := range files {
		if err := fp.Add(f.Path, f.Content); err != nil {
			return 0, err
		}
	}
	settings, err := a.cfg.Analysis.Canonical()
	if err != nil {
		return 0, fmt.Errorf("encode analysis settings: %w", err)
	}
	fp.Settings(settings)
	return fp.Sum()
}

// reuse returns the stored run with fingerprint sum, or a nil result when
// there is none or force is set.
func (a *app) reuse(ctx context.Context, sum uint64, force bool) (*analyzer.Result, graphstore.Snapshot, error) {
	if force {
		return nil, graphstore.Snapshot{}, nil
	}
	prev, err := a.store.ByFingerprint(ctx, sum)
	if errors.Is(err, graphstore.ErrSnapshotNotFound) {
		return nil, graphstore.Snapshot{}, nil
	}
	if err != nil {
		return nil, graphstore.Snapshot{}, err
	}
	res, err := a.result(ctx, prev.RunID)
	if err != nil {
		return nil, graphstore.Snapshot{}, err
	}
	return res, prev, nil
}

func (a *app) writeXML(ctx context.Context, URL string, g *graph.Graph[string]) error {
	if URL == "" {
		return nil
	}
	if err := xmlgraph.Save(ctx, a.fs, URL, g); err != nil {
		return err
	}
	a.logger.Info("graph written", slog.String("url", URL), slog.Int("vertices", g.Len()))
	return nil
}

// resolveRun maps "latest" or a UUID string to a stored run ID.
func (a *app) resolveRun(ctx context.Context, ref string) (uuid.UUID, error) {
	if ref == "" || ref == latestRun {
		snaps, err := a.store.List(ctx)
		if err != nil {
			return uuid.Nil, err
		}
		if len(snaps) == 0 {
			return uuid.Nil, fmt.Errorf("no stored runs: %w", graphstore.ErrSnapshotNotFound)
		}
		return snaps[0].RunID, nil
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid run id %q: %w", ref, err)
	}
	return id, nil
}

// result reloads a stored run and recomputes its structure.
func (a *app) result(ctx context.Context, id uuid.UUID) (*analyzer.Result, error) {
	snap, g, err := a.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := a.analyzer().FromGraph(ctx, g)
	if err != nil {
		return nil, err
	}
	res.RunID = snap.RunID
	res.Files = snap.Files
	return res, nil
}

// loadGraph returns the graph in an XML file when xmlURL is set, and the
// stored run named by ref otherwise.
func (a *app) loadGraph(ctx context.Context, xmlURL, ref string) (*graph.Graph[string], error) {
	if xmlURL != "" {
		return xmlgraph.Load(ctx, a.fs, xmlURL)
	}
	id, err := a.resolveRun(ctx, ref)
	if err != nil {
		return nil, err
	}
	_, g, err := a.store.Load(ctx, id)
	return g, err
}
