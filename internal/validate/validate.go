// Package validate checks animation trees against the model table. Both
// levels are advisory: they return messages and leave the decision to abort
// to the caller.
package validate

import (
	"fmt"
	"strings"

	"github.com/Faultbox/scenejoin/internal/anim"
	"github.com/Faultbox/scenejoin/internal/match"
)

// Level1 checks that every animation leaf has a model match with the same
// point count in every sample, and, when the leaf carries normals, the same
// topology.
func Level1(bindings []match.Binding, m *match.Matcher) []string {
	var msgs []string
	for _, b := range bindings {
		for _, leaf := range anim.Leaves(b.File.Root) {
			path := leaf.Path()
			name := b.File.Name + ":" + displayPath(path)
			d, ok := m.FindLeaf(b, path)
			if !ok {
				msgs = append(msgs, fmt.Sprintf("%s: cannot find match", name))
				continue
			}
			if len(leaf.Shape.Points) > 1 {
				for i, pts := range leaf.Shape.Points {
					if len(pts) == len(d.Points) {
						continue
					}
					dir := "too many"
					if len(pts) < len(d.Points) {
						dir = "too few"
					}
					msgs = append(msgs, fmt.Sprintf("%s: sample %d has %s points (%d, model has %d)",
						name, i, dir, len(pts), len(d.Points)))
					break
				}
			}
			if leaf.Shape.Normals != nil && !leaf.Shape.Topology.Equal(d.Topology) {
				msgs = append(msgs, fmt.Sprintf("%s: has normals but topology does not match model", name))
			}
		}
	}
	return msgs
}

// Level2 checks that every model leaf is reachable through the hierarchy of
// at least one animation file.
func Level2(bindings []match.Binding, m *match.Matcher) []string {
	reached := make(map[string]struct{})
	for _, b := range bindings {
		walk(b.File.Root, nil, func(path []string) {
			names, asset := b.Resolve(path)
			if len(names) > 0 {
				reached[m.Key(names, asset)] = struct{}{}
			}
		})
	}

	var msgs []string
	for _, d := range m.Table().Entries() {
		if _, ok := reached[d.Key]; !ok {
			msgs = append(msgs, fmt.Sprintf("%s: not used", d.Key))
		}
	}
	return msgs
}

// walk calls fn with the path of every node below root.
func walk(n *anim.Node, path []string, fn func([]string)) {
	for _, c := range n.Children() {
		p := append(path[:len(path):len(path)], c.Name)
		fn(p)
		walk(c, p, fn)
	}
}

func displayPath(path []string) string {
	return "/" + strings.Join(path, "/")
}
