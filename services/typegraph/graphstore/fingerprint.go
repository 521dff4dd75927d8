// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graphstore

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/minio/highwayhash"
)

// hashKey is fixed so fingerprints are stable across runs.
var hashKey = []byte("typegraph-fileset-fingerprint-k1")

// Fingerprinter hashes a set of source files independent of the order in
// which they are added.
//
// Thread Safety: Not safe for concurrent use.
type Fingerprinter struct {
	files    map[string]uint64
	settings []byte
}

// NewFingerprinter returns an empty Fingerprinter.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{files: make(map[string]uint64)}
}

// Add hashes one file. Adding the same path again replaces it.
func (f *Fingerprinter) Add(path string, content []byte) error {
	sum, err := hash64(content)
	if err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	f.files[path] = sum
	return nil
}

// Settings records the options the files are analysed with. Two equal
// file sets analysed with different settings fingerprint differently.
func (f *Fingerprinter) Settings(data []byte) {
	f.settings = append(f.settings[:0], data...)
}

// Len returns the number of files added.
func (f *Fingerprinter) Len() int {
	return len(f.files)
}

// Sum returns the combined fingerprint of every file added so far.
func (f *Fingerprinter) Sum() (uint64, error) {
	paths := make([]string, 0, len(f.files))
	for p := range f.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	for _, p := range paths {
		h.Write([]byte(p))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], f.files[p])
		h.Write(buf[:])
	}
	if len(f.settings) > 0 {
		settings, err := hash64(f.settings)
		if err != nil {
			return 0, err
		}
		h.Write([]byte{0xff})
		binary.LittleEndian.PutUint64(buf[:], settings)
		h.Write(buf[:])
	}
	return h.Sum64(), nil
}

func hash64(data []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	_, err = h.Write(data)
	return h.Sum64(), err
}
