// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

// ErrNoFiles is returned when the roots hold no matching source files.
var ErrNoFiles = errors.New("no source files found")

// SourceFile is one input to an analysis run.
type SourceFile struct {
	// Path is the file's URL or path. Its base name decides the vertex.
	Path string

	// Content is the raw source text.
	Content []byte
}

// FileSet selects source files under one or more roots.
//
// Roots may be local paths or any URL afs understands (file://, mem://,
// s3://, gs://). Files are returned sorted by path, so symbol
// registration order is stable between runs.
type FileSet struct {
	fs         afs.Service
	extensions map[string]struct{}
	exclude    []string
	logger     *slog.Logger
}

// FileSetOption configures a FileSet.
type FileSetOption func(*FileSet)

// WithExtensions replaces the accepted file suffixes.
func WithExtensions(exts ...string) FileSetOption {
	return func(f *FileSet) {
		f.extensions = make(map[string]struct{}, len(exts))
		for _, e := range exts {
			f.extensions[strings.ToLower(e)] = struct{}{}
		}
	}
}

// WithExclude skips any file or directory whose URL contains one of the
// given substrings.
func WithExclude(patterns ...string) FileSetOption {
	return func(f *FileSet) { f.exclude = patterns }
}

// WithFileSystem replaces the afs service.
func WithFileSystem(fs afs.Service) FileSetOption {
	return func(f *FileSet) { f.fs = fs }
}

// WithFileSetLogger sets the logger.
func WithFileSetLogger(l *slog.Logger) FileSetOption {
	return func(f *FileSet) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFileSet returns a FileSet accepting C++ headers and sources.
func NewFileSet(opts ...FileSetOption) *FileSet {
	f := &FileSet{fs: afs.New(), logger: slog.Default()}
	WithExtensions(".h", ".hpp", ".hh", ".hxx", ".cpp", ".cc", ".cxx")(f)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Matches reports whether name has an accepted extension.
func (f *FileSet) Matches(name string) bool {
	_, ok := f.extensions[strings.ToLower(path.Ext(name))]
	return ok
}

func (f *FileSet) excluded(URL string) bool {
	for _, p := range f.exclude {
		if p != "" && strings.Contains(URL, p) {
			return true
		}
	}
	return false
}

// Collect reads every matching file under roots. A root naming a single
// file is read regardless of its extension.
func (f *FileSet) Collect(ctx context.Context, roots ...string) ([]SourceFile, error) {
	seen := make(map[string]struct{})
	var urls []string
	for _, root := range roots {
		found, err := f.list(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, u := range found {
			if _, dup := seen[u]; !dup {
				seen[u] = struct{}{}
				urls = append(urls, u)
			}
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoFiles, strings.Join(roots, ", "))
	}
	sort.Strings(urls)

	files := make([]SourceFile, 0, len(urls))
	for _, u := range urls {
		content, err := f.fs.DownloadWithURL(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", u, err)
		}
		files = append(files, SourceFile{Path: u, Content: content})
	}
	f.logger.Debug("source files collected", slog.Int("files", len(files)))
	return files, nil
}

func (f *FileSet) list(ctx context.Context, root string) ([]string, error) {
	obj, err := f.fs.Object(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !obj.IsDir() {
		return []string{obj.URL()}, nil
	}

	var urls []string
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		URL := url.Join(baseURL, path.Join(parent, info.Name()))
		if f.excluded(URL + "/") {
			return false, nil
		}
		if info.IsDir() {
			return true, nil
		}
		if f.Matches(info.Name()) {
			urls = append(urls, URL)
		}
		return true, nil
	}
	if err := f.fs.Walk(ctx, root, visitor); err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return urls, nil
}
