package anim

import "sort"

// File is one gathered animation archive.
type File struct {
	Name string
	Root *Node
	// Index is the file's position in the input list. Offsets and models
	// given alongside the inputs are paired by it, so it survives sorting.
	Index int
}

// Files is the table of gathered animation archives.
type Files []File

// HasDuplicates reports whether two entries share a file name.
func (f Files) HasDuplicates() bool {
	seen := make(map[string]struct{}, len(f))
	for _, file := range f {
		if _, ok := seen[file.Name]; ok {
			return true
		}
		seen[file.Name] = struct{}{}
	}
	return false
}

// SortByName orders the table by file name so Lookup can binary search.
func (f Files) SortByName() {
	sort.SliceStable(f, func(i, j int) bool { return f[i].Name < f[j].Name })
}

// Lookup finds a file by name. The table must be sorted by name.
func (f Files) Lookup(name string) (*Node, bool) {
	i := sort.Search(len(f), func(i int) bool { return f[i].Name >= name })
	if i < len(f) && f[i].Name == name {
		return f[i].Root, true
	}
	return nil, false
}
