// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package symbols maps discovered type names to the file that defines them.
package symbols

import "sort"

// Placeholder is the type placeholder stored for discovered names and the
// usual fallback for LookupFile.
const Placeholder = "TBD"

// Entry is one symbol table row.
type Entry struct {
	Name        string
	Placeholder string
	File        string
}

// Table is a name-keyed symbol table. The first registration of a name wins;
// later registrations are ignored.
//
// Thread Safety: NOT safe for concurrent use.
type Table struct {
	entries map[string]Entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]Entry)}
}

// Add registers name against file. It reports false and leaves the table
// unchanged when name is already present.
func (t *Table) Add(name, placeholder, file string) bool {
	if _, ok := t.entries[name]; ok {
		return false
	}
	t.entries[name] = Entry{Name: name, Placeholder: placeholder, File: file}
	return true
}

// Contains reports whether name is registered.
func (t *Table) Contains(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// LookupFile returns the file that defines name, or fallback when name is
// unknown.
func (t *Table) LookupFile(name, fallback string) string {
	if e, ok := t.entries[name]; ok {
		return e.File
	}
	return fallback
}

// Len returns the number of registered names.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns all rows sorted by name.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
