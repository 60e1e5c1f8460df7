package optimize

import (
	"slices"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/internal/geom"
	"github.com/Faultbox/scenejoin/pkg/math"
)

// Compact deduplicates normals into a lexicographically sorted table and
// one table index per input element. It fails on NaN components, which have
// no total order.
func Compact(normals []math.Vec3) ([]math.Vec3, []uint32, bool) {
	table := slices.Clone(normals)
	for _, n := range table {
		if n.X != n.X || n.Y != n.Y || n.Z != n.Z {
			return nil, nil, false
		}
	}
	slices.SortFunc(table, compareVec3)
	table = slices.Compact(table)

	index := make([]uint32, len(normals))
	for i, n := range normals {
		slot, _ := slices.BinarySearchFunc(table, n, compareVec3)
		index[i] = uint32(slot)
	}
	return table, index, true
}

func compareVec3(a, b math.Vec3) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

// IndexNormals replaces dense per-sample normals with a compacted table and
// index per sample. Leaves that are already indexed are left alone.
func IndexNormals(s *anim.Shape) bool {
	if s.Normals == nil || s.Normals.Indexed != nil || len(s.Normals.Dense) == 0 {
		return false
	}
	ix := &anim.IndexedNormals{
		Tables:  make([][]math.Vec3, len(s.Normals.Dense)),
		Indices: make([][]uint32, len(s.Normals.Dense)),
	}
	for i, dense := range s.Normals.Dense {
		table, index, ok := Compact(dense)
		if !ok {
			return false
		}
		ix.Tables[i], ix.Indices[i] = table, index
	}
	s.Normals = &anim.Normals{Indexed: ix}
	return true
}

// PoolNormals shares indexed normal samples through at most maxPools pool
// entries. Sample 0 seeds the pool; each later sample reuses the first entry
// that reproduces it exactly or adds its own entry. The leaf is unchanged
// when the pool would overflow or a sample's size differs from sample 0.
func PoolNormals(s *anim.Shape, maxPools int) bool {
	if s.Normals == nil || s.Normals.Indexed == nil {
		return false
	}
	ix := s.Normals.Indexed
	if ix.FrameSlot != nil || len(ix.Indices) < 2 || maxPools < 1 {
		return false
	}

	size := len(ix.Indices[0])
	tables := [][]math.Vec3{ix.Tables[0]}
	indices := [][]uint32{ix.Indices[0]}
	slots := make([]int, 1, len(ix.Indices))

	for f := 1; f < len(ix.Indices); f++ {
		if len(ix.Indices[f]) != size {
			return false
		}
		slot := -1
		for e := range tables {
			if sameNormals(tables[e], indices[e], ix.Tables[f], ix.Indices[f]) {
				slot = e
				break
			}
		}
		if slot < 0 {
			if len(tables) == maxPools {
				return false
			}
			tables = append(tables, ix.Tables[f])
			indices = append(indices, ix.Indices[f])
			slot = len(tables) - 1
		}
		slots = append(slots, slot)
	}

	s.Normals = &anim.Normals{Indexed: &anim.IndexedNormals{Tables: tables, Indices: indices, FrameSlot: slots}}
	return true
}

// sameNormals reports whether two table/index pairs expand to the same
// normals.
func sameNormals(ta []math.Vec3, ia []uint32, tb []math.Vec3, ib []uint32) bool {
	if len(ia) != len(ib) {
		return false
	}
	for v := range ia {
		if int(ia[v]) >= len(ta) || int(ib[v]) >= len(tb) || ta[ia[v]] != tb[ib[v]] {
			return false
		}
	}
	return true
}

// ElideNormals drops dense authored normals when every sample is flat
// shaded and agrees with the normals computed from its positions.
func ElideNormals(s *anim.Shape, th geom.Thresholds) bool {
	if s.Normals == nil || s.Normals.Indexed != nil || len(s.Normals.Dense) == 0 || len(s.Points) == 0 {
		return false
	}
	for i, n := range s.Normals.Dense {
		if len(n) == 0 {
			continue
		}
		pts := s.Points[min(i, len(s.Points)-1)]
		if !geom.NormalsRedundant(pts, s.Topology, n, s.NormalScope(len(n)), th) {
			return false
		}
	}
	s.Normals = nil
	return true
}
