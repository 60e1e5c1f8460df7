package merge

import (
	"fmt"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/internal/geom"
	"github.com/Faultbox/scenejoin/internal/match"
	"github.com/Faultbox/scenejoin/pkg/archive"
)

// Transfer copies one animation tree into w node for node. Leaves matched
// in m (which may match nothing) get the model rest points on sample 0.
// Normal samples that th judges redundant are written empty.
func Transfer(w *archive.Writer, root *anim.Node, m *match.Matcher, th geom.Thresholds, offset float64) (Stats, error) {
	t := &transfer{e: &emitter{w: w, offset: offset}, matcher: m, th: th}
	for _, n := range root.Children() {
		if err := t.node(w.Root(), n, []string{n.Name}); err != nil {
			return t.stats, err
		}
	}
	return t.stats, nil
}

type transfer struct {
	e       *emitter
	matcher *match.Matcher
	th      geom.Thresholds
	stats   Stats
}

func (t *transfer) node(parent *archive.OObject, n *anim.Node, path []string) error {
	s, isShape := n.Shape()
	if !isShape {
		out := parent.NewChild(n.Name, archive.SchemaXform)
		if err := t.e.xform(out, n); err != nil {
			return fmt.Errorf("%s: %w", n.Name, err)
		}
		for _, child := range n.Children() {
			if err := t.node(out, child, append(path[:len(path):len(path)], child.Name)); err != nil {
				return err
			}
		}
		return nil
	}

	plan := shapePlan{elide: &t.th}
	if d, ok := t.matcher.Find(path, ""); ok && len(s.Points) > 0 && len(s.Points[0]) == len(d.Points) {
		plan.model = d
		plan.rest = true
		t.stats.Matched++
	} else {
		t.stats.Unmatched++
	}
	if err := t.e.shape(parent, n, s, plan); err != nil {
		return fmt.Errorf("%s: %w", n.Name, err)
	}
	return nil
}
