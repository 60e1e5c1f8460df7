package model

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDuplicate reports two model leaves with the same key.
	ErrDuplicate = errors.New("duplicate model object detected")
	// ErrNoModels reports a gather that found no geometry.
	ErrNoModels = errors.New("no valid models")
)

// Table is the sorted set of gathered model leaves.
type Table struct {
	entries []*Data
	multi   bool
}

// NewTable sorts entries by key and rejects duplicates. multi records that
// keys carry an asset prefix.
func NewTable(entries []*Data, multi bool) (*Table, error) {
	if len(entries) == 0 {
		return nil, ErrNoModels
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	for i := 1; i < len(entries); i++ {
		if entries[i].Key == entries[i-1].Key {
			return nil, fmt.Errorf("%w: %s (%s, %s)", ErrDuplicate, entries[i].Key, entries[i-1].Source, entries[i].Source)
		}
	}
	return &Table{entries: entries, multi: multi}, nil
}

// Lookup binary searches for key.
func (t *Table) Lookup(key string) (*Data, bool) {
	if t == nil {
		return nil, false
	}
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].Key >= key })
	if i < len(t.entries) && t.entries[i].Key == key {
		return t.entries[i], true
	}
	return nil, false
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns the entries in key order.
func (t *Table) Entries() []*Data {
	if t == nil {
		return nil
	}
	return t.entries
}

// MultiModel reports whether keys carry asset prefixes.
func (t *Table) MultiModel() bool { return t != nil && t.multi }
