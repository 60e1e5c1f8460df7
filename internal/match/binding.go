package match

import (
	"errors"
	"fmt"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/internal/scenepath"
)

var (
	// ErrCardinality reports animation and model lists that cannot be paired.
	ErrCardinality = errors.New("cannot pair animation files with model files")
	// ErrOffsets reports an offset list that does not match the animations.
	ErrOffsets = errors.New("offset count must match animation count")
)

// Binding ties one animation file to the model asset it drives.
type Binding struct {
	File   anim.File
	Offset float64
	// Asset is the fixed asset name for every leaf of the file.
	Asset string
	// PerNamespace derives the asset from each top-level node instead: its
	// namespace when qualified, otherwise its name, which is then dropped
	// from the path.
	PerNamespace bool
}

// Resolve returns the names and asset used to look up path.
func (b Binding) Resolve(path []string) ([]string, string) {
	if !b.PerNamespace || len(path) == 0 {
		return path, b.Asset
	}
	if ns := scenepath.Namespace(path[0]); ns != "" {
		return path, ns
	}
	return path[1:], path[0]
}

// InstanceName is the name of the grouping transform and namespace used
// for this binding's output.
func (b Binding) InstanceName() string {
	if b.Asset != "" {
		return b.Asset
	}
	return scenepath.AssetName(b.File.Name)
}

// Bind pairs animation files with model files:
//   - no models, or one model: every file stands alone;
//   - as many files as models: file i drives model i;
//   - one file, several models: assets come from top-level namespaces.
//
// offsets is empty or holds one offset per file. Offsets and models are
// taken by each file's Index, so a table sorted by name keeps the pairing
// of the input order.
func Bind(files anim.Files, modelPaths []string, offsets []float64) ([]Binding, error) {
	if len(offsets) != 0 && len(offsets) != len(files) {
		return nil, fmt.Errorf("%w: %d offsets, %d animations", ErrOffsets, len(offsets), len(files))
	}
	for _, f := range files {
		if f.Index < 0 || f.Index >= len(files) {
			return nil, fmt.Errorf("%s: input index %d out of range", f.Name, f.Index)
		}
	}
	out := make([]Binding, len(files))
	for i, f := range files {
		out[i] = Binding{File: f}
		if len(offsets) > 0 {
			out[i].Offset = offsets[f.Index]
		}
	}

	switch {
	case len(modelPaths) <= 1:
	case len(files) == len(modelPaths):
		for i, f := range files {
			out[i].Asset = scenepath.AssetName(modelPaths[f.Index])
		}
	case len(files) == 1:
		out[0].PerNamespace = true
	default:
		return nil, fmt.Errorf("%w: %d animations, %d models", ErrCardinality, len(files), len(modelPaths))
	}
	return out, nil
}
