// Package optimize compacts per-sample data in anim trees. Every level is
// opportunistic: a leaf that fails a level's acceptance test is left exactly
// as it was.
package optimize

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/internal/geom"
	"github.com/Faultbox/scenejoin/internal/match"
)

// MaxLevel is the highest optimization level.
const MaxLevel = 4

// Thresholds holds the tunable acceptance limits.
type Thresholds struct {
	// MaxNormalPools caps the shared normal tables of level 2.
	MaxNormalPools int `yaml:"max_normal_pools" toml:"max_normal_pools"`
	// AgreementFraction is the share of normals level 3 requires to agree.
	AgreementFraction float64 `yaml:"agreement_fraction" toml:"agreement_fraction"`
	// MinNormalDot is the smallest dot product counted as agreement.
	MinNormalDot float32 `yaml:"min_normal_dot" toml:"min_normal_dot"`
	// RigidSampleCount caps the correspondences used by level 4.
	RigidSampleCount int `yaml:"rigid_sample_count" toml:"rigid_sample_count"`
	// RigidEpsilon bounds every squared residual of a rigid fit.
	RigidEpsilon float32 `yaml:"rigid_epsilon" toml:"rigid_epsilon"`
}

// DefaultThresholds returns the standard limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxNormalPools:    10,
		AgreementFraction: 7.0 / 8.0,
		MinNormalDot:      0.8,
		RigidSampleCount:  1000,
		RigidEpsilon:      0.01,
	}
}

// Geom returns the normal redundancy thresholds.
func (t Thresholds) Geom() geom.Thresholds {
	return geom.Thresholds{AgreementFraction: t.AgreementFraction, MinDot: t.MinNormalDot}
}

// Stats counts accepted leaves per level.
type Stats struct {
	Indexed int64
	Pooled  int64
	Elided  int64
	Rigid   int64
}

// Runner applies optimization levels to bound animation files.
type Runner struct {
	Thresholds Thresholds
	Matcher    *match.Matcher
	Logger     *zap.Logger
	// Workers bounds concurrent leaf tasks; 0 means GOMAXPROCS.
	Workers int
}

// Run applies every level up to level. Levels run 4, 3, 1, 2 so that
// rigid extraction and elision see the gathered normals and level 2 sees
// level 1 output. Each level completes for all leaves before the next one
// starts.
func (r *Runner) Run(ctx context.Context, level int, bindings []match.Binding) (Stats, error) {
	var st Stats
	if level <= 0 {
		return st, nil
	}
	if level > MaxLevel {
		return st, fmt.Errorf("optimization level %d out of range [0,%d]", level, MaxLevel)
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	passes := []struct {
		level int
		name  string
		count *int64
		fn    func(match.Binding, anim.Leaf) bool
	}{
		{4, "rigid", &st.Rigid, r.rigid},
		{3, "elide normals", &st.Elided, func(_ match.Binding, l anim.Leaf) bool {
			return ElideNormals(l.Shape, r.Thresholds.Geom())
		}},
		{1, "index normals", &st.Indexed, func(_ match.Binding, l anim.Leaf) bool {
			return IndexNormals(l.Shape)
		}},
		{2, "pool normals", &st.Pooled, func(_ match.Binding, l anim.Leaf) bool {
			return PoolNormals(l.Shape, r.Thresholds.MaxNormalPools)
		}},
	}
	for _, p := range passes {
		if p.level > level {
			continue
		}
		if err := r.forEachLeaf(ctx, bindings, p.fn, p.count); err != nil {
			return st, fmt.Errorf("%s: %w", p.name, err)
		}
		log.Debug("optimization pass done", zap.String("pass", p.name), zap.Int64("accepted", atomic.LoadInt64(p.count)))
	}
	return st, nil
}

// forEachLeaf runs fn once per leaf with bounded parallelism and waits for
// all tasks.
func (r *Runner) forEachLeaf(ctx context.Context, bindings []match.Binding, fn func(match.Binding, anim.Leaf) bool, accepted *int64) error {
	g, gctx := errgroup.WithContext(ctx)
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

spawn:
	for _, b := range bindings {
		for _, leaf := range anim.Leaves(b.File.Root) {
			if gctx.Err() != nil {
				break spawn
			}
			g.Go(func() error {
				if fn(b, leaf) {
					atomic.AddInt64(accepted, 1)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
