// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graphstore persists analysis snapshots in BadgerDB.
//
// # Key Layout
//
//	snapshot/<run-id>/meta        JSON Snapshot
//	snapshot/<run-id>/graph       XML relationship graph
//	fingerprint/<hex>             run id of the newest snapshot for a file set
//	latest/<root>                 run id of the newest snapshot for a root
//
// Graph values use the xmlgraph encoding so a stored graph can be copied
// out of the store and read by anything that reads the XML files.
package graphstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/typegraph/services/typegraph/graph"
	badgerstore "github.com/AleutianAI/typegraph/services/typegraph/storage/badger"
	"github.com/AleutianAI/typegraph/services/typegraph/xmlgraph"
)

// ErrSnapshotNotFound is returned when no snapshot matches a lookup.
var ErrSnapshotNotFound = errors.New("snapshot not found")

const (
	snapshotPrefix    = "snapshot/"
	fingerprintPrefix = "fingerprint/"
	latestPrefix      = "latest/"
)

// Snapshot describes one stored analysis run.
type Snapshot struct {
	RunID       uuid.UUID `json:"run_id"`
	Root        string    `json:"root"`
	Fingerprint uint64    `json:"fingerprint"`
	Files       int       `json:"files"`
	Vertices    int       `json:"vertices"`
	Edges       int       `json:"edges"`
	Acyclic     bool      `json:"acyclic"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store saves and loads snapshots.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db     *badgerstore.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New wraps an open database.
func New(db *badgerstore.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores g under snap.RunID and updates the fingerprint and root
// indexes. Vertices, Edges and a zero CreatedAt are filled in from g and
// the clock.
func (s *Store) Save(ctx context.Context, snap Snapshot, g *graph.Graph[string]) (Snapshot, error) {
	if snap.RunID == uuid.Nil {
		return Snapshot{}, errors.New("snapshot run id is required")
	}
	snap.Vertices = g.Len()
	snap.Edges = g.EdgeCount()
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = s.now().UTC()
	}

	data, err := xmlgraph.Marshal(g)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode graph: %w", err)
	}
	meta, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}

	id := []byte(snap.RunID.String())
	values := map[string][]byte{
		metaKey(snap.RunID):              meta,
		graphKey(snap.RunID):             data,
		fingerprintKey(snap.Fingerprint): id,
	}
	if snap.Root != "" {
		values[latestPrefix+snap.Root] = id
	}
	if err := s.db.PutAll(ctx, values); err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot %s: %w", snap.RunID, err)
	}

	s.logger.Debug("snapshot saved",
		slog.String("run_id", snap.RunID.String()),
		slog.Int("vertices", snap.Vertices),
		slog.Int("edges", snap.Edges),
		slog.Int("bytes", len(data)))
	return snap, nil
}

// Meta returns the metadata of one snapshot.
func (s *Store) Meta(ctx context.Context, runID uuid.UUID) (Snapshot, error) {
	raw, err := s.db.Get(ctx, metaKey(runID))
	if err != nil {
		return Snapshot{}, notFound(runID.String(), err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", runID, err)
	}
	return snap, nil
}

// Load returns the metadata and graph of one snapshot.
func (s *Store) Load(ctx context.Context, runID uuid.UUID) (Snapshot, *graph.Graph[string], error) {
	snap, err := s.Meta(ctx, runID)
	if err != nil {
		return Snapshot{}, nil, err
	}
	raw, err := s.db.Get(ctx, graphKey(runID))
	if err != nil {
		return Snapshot{}, nil, notFound(runID.String(), err)
	}
	g, err := xmlgraph.Unmarshal(raw)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("decode graph %s: %w", runID, err)
	}
	return snap, g, nil
}

// ByFingerprint returns the newest snapshot taken of an identical file set.
func (s *Store) ByFingerprint(ctx context.Context, fingerprint uint64) (Snapshot, error) {
	return s.indexed(ctx, fingerprintKey(fingerprint))
}

// Latest returns the newest snapshot taken of root.
func (s *Store) Latest(ctx context.Context, root string) (Snapshot, error) {
	return s.indexed(ctx, latestPrefix+root)
}

// List returns every snapshot, newest first.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	keys, err := s.db.Keys(ctx, snapshotPrefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var out []Snapshot
	for _, k := range keys {
		if !strings.HasSuffix(k, "/meta") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(strings.TrimPrefix(k, snapshotPrefix), "/meta"))
		if err != nil {
			s.logger.Warn("skipping malformed snapshot key", slog.String("key", k))
			continue
		}
		snap, err := s.Meta(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a snapshot. Index entries that still point at it are
// removed as well.
func (s *Store) Delete(ctx context.Context, runID uuid.UUID) error {
	snap, err := s.Meta(ctx, runID)
	if err != nil {
		return err
	}
	for _, k := range []string{metaKey(runID), graphKey(runID)} {
		if err := s.db.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	indexes := []string{fingerprintKey(snap.Fingerprint)}
	if snap.Root != "" {
		indexes = append(indexes, latestPrefix+snap.Root)
	}
	for _, k := range indexes {
		raw, err := s.db.Get(ctx, k)
		if err != nil || string(raw) != runID.String() {
			continue
		}
		if err := s.db.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}

func (s *Store) indexed(ctx context.Context, key string) (Snapshot, error) {
	raw, err := s.db.Get(ctx, key)
	if err != nil {
		return Snapshot{}, notFound(key, err)
	}
	id, err := uuid.ParseBytes(raw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("index %s: %w", key, err)
	}
	return s.Meta(ctx, id)
}

func metaKey(id uuid.UUID) string  { return snapshotPrefix + id.String() + "/meta" }
func graphKey(id uuid.UUID) string { return snapshotPrefix + id.String() + "/graph" }

func fingerprintKey(fp uint64) string { return fingerprintPrefix + strconv.FormatUint(fp, 16) }

func notFound(what string, err error) error {
	if errors.Is(err, badgerstore.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrSnapshotNotFound)
	}
	return err
}
