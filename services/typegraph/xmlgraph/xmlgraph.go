// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package xmlgraph reads and writes relationship graphs as XML.
//
// # Format
//
//	<graph>
//	  <vertex id="0" value="Shape">
//	    <edge value="inherits" points="Circle" id="1"/>
//	  </vertex>
//	  <vertex id="1" value="Circle"/>
//	</graph>
//
// Each edge carries its label (value), the target payload (points) and the
// target identity (id). Vertices are written in insertion order.
package xmlgraph

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/viant/afs"

	"github.com/AleutianAI/typegraph/services/typegraph/graph"
)

// ErrMalformed is returned for documents that are not graph XML.
var ErrMalformed = errors.New("malformed graph document")

type document struct {
	XMLName  xml.Name `xml:"graph"`
	Vertices []vertex `xml:"vertex"`
}

type vertex struct {
	ID    int    `xml:"id,attr"`
	Value string `xml:"value,attr"`
	Edges []edge `xml:"edge"`
}

type edge struct {
	Label  string `xml:"value,attr"`
	Points string `xml:"points,attr"`
	ID     int    `xml:"id,attr"`
}

// Write encodes g as indented XML.
func Write(w io.Writer, g *graph.Graph[string]) error {
	doc := document{Vertices: make([]vertex, 0, g.Len())}
	for _, v := range g.Vertices() {
		xv := vertex{ID: v.ID, Value: v.Payload}
		for _, e := range v.Edges {
			target, ok := g.Vertex(e.To)
			if !ok {
				return fmt.Errorf("write vertex %d: %w", v.ID, graph.ErrDanglingEdge)
			}
			xv.Edges = append(xv.Edges, edge{Label: e.Label, Points: target.Payload, ID: e.To})
		}
		doc.Vertices = append(doc.Vertices, xv)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("flush graph: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Read decodes a graph.
//
// Description:
//
//	Vertices are created on first reference. An edge naming an identity
//	not yet seen creates that vertex immediately with the edge's points
//	payload; the vertex record, when it arrives, fixes the payload. Vertex
//	identities are preserved.
//
// Outputs:
//
//	*graph.Graph[string] - The decoded graph.
//	error - ErrMalformed for undecodable input or duplicate vertex records.
func Read(r io.Reader) (*graph.Graph[string], error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	g := graph.New[string](graph.WithCapacity(len(doc.Vertices)))
	declared := make(map[int]struct{}, len(doc.Vertices))
	ensure := func(id int, payload string) error {
		if _, err := g.Position(id); err == nil {
			return nil
		}
		return g.AddVertexWithID(id, payload)
	}

	for _, xv := range doc.Vertices {
		if _, dup := declared[xv.ID]; dup {
			return nil, fmt.Errorf("%w: vertex %d declared twice", ErrMalformed, xv.ID)
		}
		declared[xv.ID] = struct{}{}
		if err := ensure(xv.ID, xv.Value); err != nil {
			return nil, err
		}
		if err := g.SetPayload(xv.ID, xv.Value); err != nil {
			return nil, err
		}
		for _, xe := range xv.Edges {
			if err := ensure(xe.ID, xe.Points); err != nil {
				return nil, err
			}
			if err := g.AddEdge(xe.Label, xv.ID, xe.ID); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// Marshal returns the XML encoding of g.
func Marshal(g *graph.Graph[string]) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data produced by Marshal or Write.
func Unmarshal(data []byte) (*graph.Graph[string], error) {
	return Read(bytes.NewReader(data))
}

// Save writes g to a file or object URL (file://, mem://, s3://, gs://...).
func Save(ctx context.Context, fs afs.Service, URL string, g *graph.Graph[string]) error {
	data, err := Marshal(g)
	if err != nil {
		return err
	}
	if err := fs.Upload(ctx, URL, 0o644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload %s: %w", URL, err)
	}
	return nil
}

// Load reads a graph from a file or object URL.
func Load(ctx context.Context, fs afs.Service, URL string) (*graph.Graph[string], error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", URL, err)
	}
	return Unmarshal(data)
}
