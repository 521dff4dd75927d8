// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AleutianAI/typegraph/services/typegraph/analyzer"
	"github.com/AleutianAI/typegraph/services/typegraph/graphstore"
)

// Loaded is a stored snapshot with its derived structure.
type Loaded struct {
	Snapshot graphstore.Snapshot
	Result   *analyzer.Result
}

// SnapshotCache keeps recently served snapshots decoded and analysed.
// Snapshots are immutable once saved, so entries never go stale.
//
// Thread Safety: Safe for concurrent use.
type SnapshotCache struct {
	store    *graphstore.Store
	analyzer *analyzer.Analyzer
	entries  *lru.Cache[uuid.UUID, *Loaded]
}

// NewSnapshotCache returns a cache holding at most size snapshots.
func NewSnapshotCache(store *graphstore.Store, a *analyzer.Analyzer, size int) (*SnapshotCache, error) {
	entries, err := lru.New[uuid.UUID, *Loaded](size)
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache: %w", err)
	}
	return &SnapshotCache{store: store, analyzer: a, entries: entries}, nil
}

// Get returns the snapshot, loading and analysing it on a miss.
func (c *SnapshotCache) Get(ctx context.Context, id uuid.UUID) (*Loaded, error) {
	if l, ok := c.entries.Get(id); ok {
		return l, nil
	}
	snap, g, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := c.analyzer.FromGraph(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("analyse snapshot %s: %w", id, err)
	}
	res.RunID = snap.RunID
	l := &Loaded{Snapshot: snap, Result: res}
	c.entries.Add(id, l)
	return l, nil
}

// Len returns the number of cached snapshots.
func (c *SnapshotCache) Len() int {
	return c.entries.Len()
}
