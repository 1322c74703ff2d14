// Package reconcile diffs successive layout passes of a chart.
//
// A [Generation] is everything one pass wants on screen: a target state and
// paint data per key. [Diff] compares it against the previous generation
// and the rendered surface and partitions every key into enter, update and
// exit changes. Any backend can consume the resulting [Plan]; only the
// paint step is backend specific.
package reconcile

import (
	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/route"
	"github.com/matzehuels/orgchart/pkg/scene"
)

// Target is the desired end state of one element.
type Target struct {
	Key       scene.Key
	Parent    scene.Key
	State     scene.State
	Node      *scene.NodeData
	Connector *scene.ConnectorData
}

// Generation is the output of one layout pass.
type Generation struct {
	targets []Target
	index   map[scene.Key]int
	nodes   map[scene.Key]*orgtree.Node
}

// Build turns a positioned hierarchy into a generation. Connectors are
// routed with [route.Route]; annex geometry is attached to node data.
func Build(h *orgtree.Hierarchy, annex route.AnnexOptions) *Generation {
	g := &Generation{
		index: make(map[scene.Key]int),
		nodes: make(map[scene.Key]*orgtree.Node),
	}
	for _, n := range h.Visible() {
		g.addNode(n, annex)
		if n.Parent != nil {
			g.addConnector(n)
		}
	}
	return g
}

func (g *Generation) nodeKey(n *orgtree.Node) scene.Key {
	if n.IsRoot() {
		return scene.NodeKey(orgtree.Descendant, n.Key)
	}
	return scene.NodeKey(n.Role, n.Key)
}

func (g *Generation) addNode(n *orgtree.Node, annex route.AnnexOptions) {
	data := &scene.NodeData{
		ID:      n.Key,
		Name:    n.Entity.Label(),
		Role:    n.Role,
		Depth:   n.Depth,
		Toggle:  n.ShowToggle(),
		Percent: n.Entity.OwnershipPercent,
	}
	if data.Toggle {
		data.Glyph = n.ToggleGlyph()
	}
	if n.Entity.Annex != nil {
		data.Annex = n.Entity.Annex.Name
		data.ShowAnnex = n.ShowAnnex()
		data.AnnexAt = route.Annex(n.Depth, len(n.Visible), annex)
	}
	t := Target{
		Key:   g.nodeKey(n),
		State: scene.State{Position: n.Position, Opacity: 1},
		Node:  data,
	}
	if n.Parent != nil {
		t.Parent = g.nodeKey(n.Parent)
	}
	g.nodes[t.Key] = n
	g.add(t)
}

func (g *Generation) addConnector(child *orgtree.Node) {
	g.add(Target{
		Key:    scene.ConnectorKey(child.Role, child.Key),
		Parent: g.nodeKey(child.Parent),
		State: scene.State{
			Path:    route.Route(child.Parent.Position, child.Position, child.Role),
			Opacity: 1,
		},
		Connector: &scene.ConnectorData{Role: child.Role, Percent: child.Entity.OwnershipPercent},
	})
}

func (g *Generation) add(t Target) {
	g.index[t.Key] = len(g.targets)
	g.targets = append(g.targets, t)
}

// Targets returns the targets in build order.
func (g *Generation) Targets() []Target {
	if g == nil {
		return nil
	}
	return g.targets
}

// Lookup returns the target for k.
func (g *Generation) Lookup(k scene.Key) (Target, bool) {
	if g == nil {
		return Target{}, false
	}
	i, ok := g.index[k]
	if !ok {
		return Target{}, false
	}
	return g.targets[i], true
}

// Has reports whether k is part of g.
func (g *Generation) Has(k scene.Key) bool {
	_, ok := g.Lookup(k)
	return ok
}

// Position returns the laid out position of a node key.
func (g *Generation) Position(k scene.Key) (geom.Point, bool) {
	t, ok := g.Lookup(k)
	if !ok || k.Kind != scene.KindNode {
		return geom.Point{}, false
	}
	return t.State.Position, true
}

// HierarchyNode returns the hierarchy node behind a node key.
func (g *Generation) HierarchyNode(k scene.Key) (*orgtree.Node, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.nodes[k]
	return n, ok
}

// Keys returns every key in g.
func (g *Generation) Keys() []scene.Key {
	if g == nil {
		return nil
	}
	keys := make([]scene.Key, len(g.targets))
	for i, t := range g.targets {
		keys[i] = t.Key
	}
	return keys
}

// Len returns the number of targets.
func (g *Generation) Len() int {
	if g == nil {
		return 0
	}
	return len(g.targets)
}
