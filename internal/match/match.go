// Package match pairs animation leaves with model leaves by hierarchy path.
package match

import (
	"github.com/Faultbox/scenejoin/internal/model"
	"github.com/Faultbox/scenejoin/internal/scenepath"
)

// Matcher looks up model leaves by normalized path.
type Matcher struct {
	table *model.Table
}

// New returns a matcher over table. A nil table matches nothing.
func New(table *model.Table) *Matcher {
	return &Matcher{table: table}
}

// Table returns the underlying model table.
func (m *Matcher) Table() *model.Table { return m.table }

// Key builds the lookup key for names. The asset is only used when the
// table was gathered from several model files.
func (m *Matcher) Key(names []string, asset string) string {
	if !m.table.MultiModel() {
		asset = ""
	}
	return scenepath.Key(names, asset)
}

// Find returns the model leaf for the given ancestor names plus leaf name.
func (m *Matcher) Find(names []string, asset string) (*model.Data, bool) {
	if m == nil || len(names) == 0 {
		return nil, false
	}
	return m.table.Lookup(m.Key(names, asset))
}

// FindLeaf resolves path through the binding before looking it up.
func (m *Matcher) FindLeaf(b Binding, path []string) (*model.Data, bool) {
	names, asset := b.Resolve(path)
	return m.Find(names, asset)
}
