package layout

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/orgtree"
)

const nodeWidth = 80.0

func hierarchy(t *testing.T, root *orgtree.Entity) (*orgtree.Model, *orgtree.Hierarchy) {
	t.Helper()
	m, err := orgtree.NewModel(root)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	return m, m.Hierarchy()
}

// randomTree builds a deterministic pseudo-random tree.
func randomTree(seed int64, maxDepth, maxKids int) *orgtree.Entity {
	r := rand.New(rand.NewSource(seed))
	next := 0
	var grow func(depth int) *orgtree.Entity
	grow = func(depth int) *orgtree.Entity {
		e := &orgtree.Entity{ID: fmt.Sprintf("n%d", next)}
		next++
		if depth < maxDepth {
			for i := r.Intn(maxKids + 1); i > 0; i-- {
				e.Children = append(e.Children, grow(depth+1))
			}
		}
		return e
	}
	return grow(0)
}

func positions(h *orgtree.Hierarchy) map[string]geom.Point {
	out := make(map[string]geom.Point)
	for _, n := range h.Visible() {
		out[n.Role.String()+"/"+n.Key] = n.Position
	}
	return out
}

// extent returns the horizontal box extent of every node in a subtree.
func extent(n *orgtree.Node) geom.Rect {
	r := geom.RectAround(n.Position, nodeWidth, 10)
	n.Walk(func(c *orgtree.Node) {
		r = r.Union(geom.RectAround(c.Position, nodeWidth, 10))
	})
	return r
}

func TestApplyDeterministic(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		tree := randomTree(seed, 4, 4)
		_, h1 := hierarchy(t, tree)
		_, h2 := hierarchy(t, tree)
		Apply(h1.Root, Options{SiblingSpacing: 100, DepthSpacing: 60})
		Apply(h2.Root, Options{SiblingSpacing: 100, DepthSpacing: 60})

		p1, p2 := positions(h1), positions(h2)
		for k, v := range p1 {
			if p2[k] != v {
				t.Fatalf("seed %d: %s at %v then %v", seed, k, v, p2[k])
			}
		}
	}
}

func assertSiblingsClear(t *testing.T, name string, root *orgtree.Node) {
	t.Helper()
	root.Walk(func(p *orgtree.Node) {
		for i := 1; i < len(p.Visible); i++ {
			left, right := extent(p.Visible[i-1]), extent(p.Visible[i])
			if left.OverlapsX(right) {
				t.Fatalf("%s: subtrees %s and %s overlap: %v %v",
					name, p.Visible[i-1].Key, p.Visible[i].Key, left, right)
			}
		}
	})
}

func TestApplySiblingSubtreesDoNotOverlap(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		_, h := hierarchy(t, randomTree(seed, 5, 4))
		Apply(h.Root, Options{SiblingSpacing: 100, DepthSpacing: 60})
		assertSiblingsClear(t, fmt.Sprintf("seed %d", seed), h.Root)
	}
}

func TestApplyLeafNotTuckedUnderWideSubtree(t *testing.T) {
	// A deep wide left subtree next to a leaf: the leaf must clear the
	// whole subtree, not just its depth-1 nodes.
	root := &orgtree.Entity{ID: "r", Children: []*orgtree.Entity{
		{ID: "a", Children: []*orgtree.Entity{
			{ID: "a1"},
			{ID: "a2", Children: []*orgtree.Entity{{ID: "x1"}, {ID: "x2"}, {ID: "x3"}, {ID: "x4"}}},
		}},
		{ID: "b"},
	}}
	_, h := hierarchy(t, root)
	Apply(h.Root, Options{SiblingSpacing: 100, DepthSpacing: 60})
	assertSiblingsClear(t, "wide left subtree", h.Root)

	a, b := h.Root.Visible[0], h.Root.Visible[1]
	if gap := b.Position.X - (extent(a).Right - nodeWidth/2); gap < 100 {
		t.Errorf("leaf b is %v right of the rightmost node of a, want at least 100", gap)
	}
}

func TestApplyParentIsCentroid(t *testing.T) {
	_, h := hierarchy(t, randomTree(7, 4, 5))
	Apply(h.Root, Options{SiblingSpacing: 100, DepthSpacing: 60})

	h.Root.Walk(func(p *orgtree.Node) {
		if len(p.Visible) == 0 {
			return
		}
		var sum float64
		for i, c := range p.Visible {
			sum += c.Position.X
			if i > 0 && c.Position.X-p.Visible[i-1].Position.X < 100-1e-9 {
				t.Errorf("siblings %s,%s closer than spacing", p.Visible[i-1].Key, c.Key)
			}
		}
		if mean := sum / float64(len(p.Visible)); math.Abs(mean-p.Position.X) > 1e-9 {
			t.Errorf("%s at x=%v, children mean %v", p.Key, p.Position.X, mean)
		}
	})
}

func TestApplyDepthMonotonic(t *testing.T) {
	root := randomTree(3, 4, 3)
	root.Parents = []*orgtree.Entity{{ID: "p", Children: []*orgtree.Entity{{ID: "gp1"}, {ID: "gp2"}}}}
	_, h := hierarchy(t, root)
	ApplyHierarchy(h, Options{SiblingSpacing: 100, DepthSpacing: 60})

	for _, n := range h.Visible() {
		if n.Parent == nil {
			continue
		}
		switch n.Role {
		case orgtree.Descendant:
			if n.Position.Y <= n.Parent.Position.Y {
				t.Errorf("descendant %s y=%v not below parent y=%v", n.Key, n.Position.Y, n.Parent.Position.Y)
			}
		case orgtree.Ancestor:
			if n.Position.Y >= n.Parent.Position.Y {
				t.Errorf("ancestor %s y=%v not above parent y=%v", n.Key, n.Position.Y, n.Parent.Position.Y)
			}
		}
	}
}

func TestApplyLeafVersusSubtree(t *testing.T) {
	root := &orgtree.Entity{ID: "r", Children: []*orgtree.Entity{
		{ID: "a", Children: []*orgtree.Entity{{ID: "a1"}, {ID: "a2"}}},
		{ID: "leaf"},
	}}
	_, h := hierarchy(t, root)
	Apply(h.Root, Options{SiblingSpacing: 100, DepthSpacing: 60})

	a, leaf := h.Root.Visible[0], h.Root.Visible[1]
	centroid := (a.Visible[0].Position.X + a.Visible[1].Position.X) / 2
	if d := math.Abs(leaf.Position.X - centroid); d < 100 {
		t.Errorf("leaf and subtree centroid %v apart, want >= 100", d)
	}
	if h.Root.Position != (geom.Point{}) {
		t.Errorf("root at %v, want origin", h.Root.Position)
	}
}

func TestApplyCollapsedTakesOneSlot(t *testing.T) {
	root := &orgtree.Entity{ID: "r", Children: []*orgtree.Entity{
		{ID: "a", Children: []*orgtree.Entity{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}}},
		{ID: "b"},
	}}
	m, _ := hierarchy(t, root)
	_ = m.Collapse(orgtree.Descendant, "a")
	h := m.Hierarchy()
	res := Apply(h.Root, Options{SiblingSpacing: 100, DepthSpacing: 60})

	a, b := h.Root.Visible[0], h.Root.Visible[1]
	if got := b.Position.X - a.Position.X; got != 100 {
		t.Errorf("collapsed a and b %v apart, want 100", got)
	}
	if res.Nodes != 3 || res.MaxDepth != 1 {
		t.Errorf("Result = %+v", res)
	}
}

func TestApplyAncestorMirror(t *testing.T) {
	root := &orgtree.Entity{ID: "focus", Parents: []*orgtree.Entity{
		{ID: "parent", Children: []*orgtree.Entity{{ID: "grandparent"}}},
	}}
	_, h := hierarchy(t, root)
	ApplyHierarchy(h, Options{SiblingSpacing: 100, DepthSpacing: 60})

	if y := h.Find(orgtree.Ancestor, "parent").Position.Y; y != -60 {
		t.Errorf("parent y = %v, want -60", y)
	}
	if y := h.Find(orgtree.Ancestor, "grandparent").Position.Y; y != -120 {
		t.Errorf("grandparent y = %v, want -120", y)
	}
	if h.Ancestors.Position != h.Root.Position {
		t.Errorf("focus positions differ: %v vs %v", h.Ancestors.Position, h.Root.Position)
	}
}
