// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package api serves stored analysis snapshots over HTTP.
//
// # Routes
//
//	GET /v1/typegraph/health
//	GET /v1/typegraph/snapshots
//	GET /v1/typegraph/snapshots/:id
//	GET /v1/typegraph/snapshots/:id/graph        (?format=xml for the XML file)
//	GET /v1/typegraph/snapshots/:id/components
//	GET /v1/typegraph/snapshots/:id/order
//	GET /v1/typegraph/snapshots/:id/search       (?vertex=name or ?edge=label)
//
// :id is a run ID or "latest".
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/typegraph/services/typegraph/graph"
	"github.com/AleutianAI/typegraph/services/typegraph/graphstore"
	"github.com/AleutianAI/typegraph/services/typegraph/report"
	"github.com/AleutianAI/typegraph/services/typegraph/xmlgraph"
)

// Handlers holds the HTTP handlers.
type Handlers struct {
	store  *graphstore.Store
	cache  *SnapshotCache
	logger *slog.Logger
}

// NewHandlers creates handlers over store, serving through cache.
func NewHandlers(store *graphstore.Store, cache *SnapshotCache, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{store: store, cache: cache, logger: logger}
}

// RegisterRoutes mounts the handlers under rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	tg := rg.Group("/typegraph")
	{
		tg.GET("/health", h.HandleHealth)
		tg.GET("/snapshots", h.HandleListSnapshots)
		tg.GET("/snapshots/:id", h.HandleSnapshot)
		tg.GET("/snapshots/:id/graph", h.HandleGraph)
		tg.GET("/snapshots/:id/components", h.HandleComponents)
		tg.GET("/snapshots/:id/order", h.HandleOrder)
		tg.GET("/snapshots/:id/search", h.HandleSearch)
	}
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: ServiceVersion})
}

// HandleListSnapshots lists stored snapshots, newest first.
func (h *Handlers) HandleListSnapshots(c *gin.Context) {
	snaps, err := h.store.List(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	if snaps == nil {
		snaps = []graphstore.Snapshot{}
	}
	c.JSON(http.StatusOK, SnapshotsResponse{Snapshots: snaps})
}

// HandleSnapshot returns one snapshot's metadata.
func (h *Handlers) HandleSnapshot(c *gin.Context) {
	l, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, l.Snapshot)
}

// HandleGraph returns the relationship graph as JSON, or as the XML file
// format with ?format=xml.
func (h *Handlers) HandleGraph(c *gin.Context) {
	l, ok := h.load(c)
	if !ok {
		return
	}
	g := l.Result.Graph

	if c.Query("format") == "xml" {
		data, err := xmlgraph.Marshal(g)
		if err != nil {
			h.internal(c, err)
			return
		}
		c.Data(http.StatusOK, "application/xml; charset=utf-8", data)
		return
	}

	resp := GraphResponse{Snapshot: l.Snapshot, Vertices: make([]VertexJSON, 0, g.Len())}
	for _, v := range g.Vertices() {
		resp.Vertices = append(resp.Vertices, vertexJSON(g, v, report.Arrow))
	}
	c.JSON(http.StatusOK, resp)
}

// HandleComponents returns the strongly connected components.
func (h *Handlers) HandleComponents(c *gin.Context) {
	l, ok := h.load(c)
	if !ok {
		return
	}
	res := l.Result
	cyclic := make(map[int]bool, len(res.Cycles))
	for _, comp := range res.Cycles {
		cyclic[comp[0].ID] = true
	}
	resp := ComponentsResponse{Components: make([]ComponentJSON, 0, len(res.Components)), Cycles: len(res.Cycles)}
	for i, comp := range res.Components {
		cj := ComponentJSON{Index: i, Members: make([]string, 0, len(comp))}
		for _, v := range comp {
			cj.Members = append(cj.Members, v.Payload)
		}
		cj.Cyclic = len(comp) > 0 && cyclic[comp[0].ID]
		resp.Components = append(resp.Components, cj)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleOrder returns the topological order of the condensed graph.
func (h *Handlers) HandleOrder(c *gin.Context) {
	l, ok := h.load(c)
	if !ok {
		return
	}
	topo := l.Result.Topo
	resp := OrderResponse{Order: make([]string, 0, len(topo.Order)), Acyclic: topo.Acyclic, BackEdges: len(topo.BackEdges)}
	for _, v := range topo.Order {
		resp.Order = append(resp.Order, v.Payload)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleSearch finds vertices by name or edges by label.
func (h *Handlers) HandleSearch(c *gin.Context) {
	vertex, edge := c.Query("vertex"), c.Query("edge")
	if (vertex == "") == (edge == "") {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "exactly one of vertex or edge is required",
			Code:  "INVALID_QUERY",
		})
		return
	}
	l, ok := h.load(c)
	if !ok {
		return
	}
	g := l.Result.Graph

	var resp SearchResponse
	if vertex != "" {
		for _, id := range g.SearchVertices(vertex) {
			v, _ := g.Vertex(id)
			resp.Vertices = append(resp.Vertices, vertexJSON(g, v, report.Arrow))
		}
	} else {
		for _, m := range g.SearchEdges(edge) {
			resp.Edges = append(resp.Edges, edgeMatch(g, m))
		}
	}
	c.JSON(http.StatusOK, resp)
}

func edgeMatch(g *graph.Graph[string], m graph.EdgeMatch) EdgeMatch {
	from, _ := g.Vertex(m.From)
	to, _ := g.Vertex(m.Edge.To)
	return EdgeMatch{From: from.Payload, Label: m.Edge.Label, To: to.Payload}
}

// load resolves :id and writes the error response itself on failure.
func (h *Handlers) load(c *gin.Context) (*Loaded, bool) {
	ctx := c.Request.Context()
	raw := c.Param("id")

	var id uuid.UUID
	if raw == "latest" {
		snaps, err := h.store.List(ctx)
		if err != nil {
			h.internal(c, err)
			return nil, false
		}
		if len(snaps) == 0 {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no snapshots stored", Code: "SNAPSHOT_NOT_FOUND"})
			return nil, false
		}
		id = snaps[0].RunID
	} else {
		var err error
		if id, err = uuid.Parse(raw); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid snapshot id", Code: "INVALID_ID"})
			return nil, false
		}
	}

	l, err := h.cache.Get(ctx, id)
	if errors.Is(err, graphstore.ErrSnapshotNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "SNAPSHOT_NOT_FOUND"})
		return nil, false
	}
	if err != nil {
		h.internal(c, err)
		return nil, false
	}
	return l, true
}

func (h *Handlers) internal(c *gin.Context, err error) {
	h.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "INTERNAL"})
}
