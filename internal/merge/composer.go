// Package merge writes joined output archives: the Composer combines
// animation trees with model rest data, and Transfer copies a single
// animation tree.
package merge

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/internal/match"
	"github.com/Faultbox/scenejoin/internal/scenepath"
	"github.com/Faultbox/scenejoin/pkg/archive"
)

// Options are the naming and no-match policies of a merge.
type Options struct {
	// FormNameSpaces qualifies top-level output names with the instance name.
	FormNameSpaces bool
	// GroupByInstance puts each binding under its own instance transform.
	// Several bindings are grouped this way unless FormNameSpaces is set.
	GroupByInstance bool
	// NoReplace keeps the animated first sample of multi-sample leaves.
	NoReplace bool
	// ForceNoMatch writes every leaf from animation data only.
	ForceNoMatch bool
	// PassNoMatch writes unmatched leaves from animation data instead of
	// dropping them.
	PassNoMatch bool
	// ForceJoin attaches rest attributes even when point counts differ.
	ForceJoin bool
	// RestPositions and RestNormals add Pref and Nref.
	RestPositions bool
	RestNormals   bool
	Logger        *zap.Logger
}

// Stats counts leaves by outcome.
type Stats struct {
	Matched   int
	Unmatched int
	Dropped   int
	Skipped   int
}

// Composer merges bound animation files into one output archive. It is
// not safe for concurrent use.
type Composer struct {
	w       *archive.Writer
	matcher *match.Matcher
	opts    Options
	log     *zap.Logger
	stats   Stats
}

// NewComposer returns a composer writing into w.
func NewComposer(w *archive.Writer, m *match.Matcher, opts Options) *Composer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Composer{w: w, matcher: m, opts: opts, log: log}
}

// Stats returns the counts so far.
func (c *Composer) Stats() Stats { return c.stats }

// Compose writes every binding in order. Output children that already
// exist under a parent are reused for descent and never re-created.
func (c *Composer) Compose(bindings []match.Binding) error {
	group := c.opts.GroupByInstance || (len(bindings) > 1 && !c.opts.FormNameSpaces)
	for _, b := range bindings {
		if err := c.binding(b, group); err != nil {
			return fmt.Errorf("%s: %w", b.File.Name, err)
		}
	}
	c.log.Info("merge complete",
		zap.Int("matched", c.stats.Matched),
		zap.Int("unmatched", c.stats.Unmatched),
		zap.Int("dropped", c.stats.Dropped),
		zap.Int("skipped", c.stats.Skipped))
	return nil
}

func (c *Composer) binding(b match.Binding, group bool) error {
	e := &emitter{w: c.w, offset: b.Offset}
	parent := c.w.Root()
	instance := b.InstanceName()

	if group {
		inst, ok := parent.Child(instance)
		if !ok {
			inst = parent.NewChild(instance, archive.SchemaXform)
		}
		parent = inst
	}

	for _, n := range b.File.Root.Children() {
		name := n.Name
		if c.opts.FormNameSpaces && !group {
			name = scenepath.Qualify(instance, n.Name)
		}
		if err := c.node(e, b, parent, n, name, []string{n.Name}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Composer) node(e *emitter, b match.Binding, parent *archive.OObject, n *anim.Node, name string, path []string) error {
	s, isShape := n.Shape()
	if !isShape {
		out, exists := parent.Child(name)
		if !exists {
			out = parent.NewChild(name, archive.SchemaXform)
			if err := e.xform(out, n); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		for _, child := range n.Children() {
			if err := c.node(e, b, out, child, child.Name, append(path[:len(path):len(path)], child.Name)); err != nil {
				return err
			}
		}
		return nil
	}

	if _, exists := parent.Child(name); exists {
		c.stats.Skipped++
		return nil
	}

	d, matched := c.matcher.FindLeaf(b, path)
	plan := shapePlan{restPositions: c.opts.RestPositions, restNormals: c.opts.RestNormals}
	switch {
	case c.opts.ForceNoMatch:
		c.stats.Unmatched++
	case matched:
		c.stats.Matched++
		sameCount := len(s.Points) > 0 && len(s.Points[0]) == len(d.Points)
		if !sameCount && !c.opts.ForceJoin {
			c.log.Warn("point count differs from model, writing animation only",
				zap.Strings("path", path), zap.Int("model", len(d.Points)))
			break
		}
		plan.model = d
		plan.attach = true
		plan.rest = sameCount && !(c.opts.NoReplace && len(s.Points) > 1)
	case c.opts.PassNoMatch:
		c.stats.Unmatched++
	default:
		c.stats.Dropped++
		c.log.Debug("dropping unmatched leaf", zap.Strings("path", path))
		return nil
	}

	if err := e.shape(parent, n, s, plan); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
