package reconcile

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/route"
	"github.com/matzehuels/orgchart/pkg/scene"
)

var annexOpts = route.AnnexOptions{SiblingSpacing: 100, DepthSpacing: 80, NodeWidth: 60, NodeHeight: 30}

func pass(m *orgtree.Model) *Generation {
	h := m.Hierarchy()
	layout.ApplyHierarchy(h, layout.Options{SiblingSpacing: 100, DepthSpacing: 80})
	return Build(h, annexOpts)
}

func newModel(t *testing.T, root *orgtree.Entity) *orgtree.Model {
	t.Helper()
	m, err := orgtree.NewModel(root)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func smallTree() *orgtree.Entity {
	return &orgtree.Entity{ID: "root", Children: []*orgtree.Entity{
		{ID: "a", Children: []*orgtree.Entity{{ID: "a1"}, {ID: "a2"}}},
		{ID: "b", Annex: &orgtree.Annex{Name: "Office"}},
	}}
}

func keySet(keys []scene.Key) map[scene.Key]bool {
	out := make(map[scene.Key]bool, len(keys))
	for _, k := range keys {
		out[k] = true
	}
	return out
}

func TestBuildKeys(t *testing.T) {
	g := pass(newModel(t, smallTree()))

	// 5 nodes and 4 connectors.
	if g.Len() != 9 {
		t.Fatalf("Len() = %d, want 9", g.Len())
	}
	c, ok := g.Lookup(scene.ConnectorKey(orgtree.Descendant, "a1"))
	if !ok {
		t.Fatal("missing connector into a1")
	}
	if c.Parent != scene.NodeKey(orgtree.Descendant, "a") {
		t.Errorf("connector parent = %v", c.Parent)
	}
	a1, _ := g.Position(scene.NodeKey(orgtree.Descendant, "a1"))
	if c.State.Path.Target() != a1 {
		t.Errorf("connector ends at %v, node at %v", c.State.Path.Target(), a1)
	}
	b, _ := g.Lookup(scene.NodeKey(orgtree.Descendant, "b"))
	if b.Node.Annex != "Office" || b.Node.ShowAnnex {
		t.Errorf("leaf annex data = %+v", b.Node)
	}
	root, _ := g.Lookup(scene.NodeKey(orgtree.Descendant, "root"))
	if root.Node.Toggle || !root.Parent.IsZero() {
		t.Errorf("root data = %+v parent %v", root.Node, root.Parent)
	}
}

func TestDiffFirstPaintEntersFromOrigin(t *testing.T) {
	g := pass(newModel(t, smallTree()))
	plan := Diff(Input{Next: g})

	if len(plan.Update) != 0 || len(plan.Exit) != 0 {
		t.Fatalf("first paint plan = %d/%d/%d", len(plan.Enter), len(plan.Update), len(plan.Exit))
	}
	if len(plan.Enter) != g.Len() {
		t.Fatalf("enter = %d, want %d", len(plan.Enter), g.Len())
	}
	for _, c := range plan.Enter {
		if c.From.Position != geom.Origin || c.From.Opacity != 0 {
			t.Errorf("%v enters from %+v", c.Key, c.From)
		}
		if c.From.Path != route.Collapsed(geom.Origin) {
			t.Errorf("%v enters with path %v", c.Key, c.From.Path)
		}
		if c.To.Opacity != 1 {
			t.Errorf("%v target opacity %v", c.Key, c.To.Opacity)
		}
	}
}

func TestDiffCollapseAndExpand(t *testing.T) {
	m := newModel(t, smallTree())
	g1 := pass(m)
	Diff(Input{Next: g1})

	_ = m.Collapse(orgtree.Descendant, "a")
	g2 := pass(m)
	plan := Diff(Input{Previous: g1, Next: g2})

	exits := keySet(Keys(plan.Exit))
	for _, id := range []string{"a1", "a2"} {
		if !exits[scene.NodeKey(orgtree.Descendant, id)] || !exits[scene.ConnectorKey(orgtree.Descendant, id)] {
			t.Errorf("%s and its connector should exit, exits = %v", id, Keys(plan.Exit))
		}
	}
	aAfter, _ := g2.Position(scene.NodeKey(orgtree.Descendant, "a"))
	for _, c := range plan.Exit {
		if c.To.Position != aAfter || c.To.Opacity != 0 {
			t.Errorf("%v exits to %+v, want a's new position %v", c.Key, c.To, aAfter)
		}
	}
	if len(plan.Enter) != 0 {
		t.Errorf("collapse should not enter anything, got %v", Keys(plan.Enter))
	}

	_ = m.Expand(orgtree.Descendant, "a")
	g3 := pass(m)
	plan = Diff(Input{Previous: g2, Next: g3})
	for _, c := range plan.Enter {
		if c.From.Position != aAfter {
			t.Errorf("%v enters from %v, want a's previous position %v", c.Key, c.From.Position, aAfter)
		}
	}
	if len(plan.Enter) != 4 {
		t.Errorf("enter = %v", Keys(plan.Enter))
	}

	// Expanding restores the original positions.
	for _, k := range g1.Keys() {
		t1, _ := g1.Lookup(k)
		t3, ok := g3.Lookup(k)
		if !ok || t1.State != t3.State {
			t.Errorf("%v: %+v after round trip, was %+v", k, t3.State, t1.State)
		}
	}
}

func TestDiffThreadsPreviousPositions(t *testing.T) {
	m := newModel(t, smallTree())
	g1 := pass(m)
	Diff(Input{Next: g1})

	_ = m.Collapse(orgtree.Descendant, "a")
	g2 := pass(m)
	Diff(Input{Previous: g1, Next: g2})

	n, _ := g2.HierarchyNode(scene.NodeKey(orgtree.Descendant, "b"))
	was, _ := g1.Position(scene.NodeKey(orgtree.Descendant, "b"))
	if n.Previous != was {
		t.Errorf("b.Previous = %v, want %v", n.Previous, was)
	}
}

type fakeSurface map[scene.Key]*scene.Element

func (f fakeSurface) Lookup(k scene.Key) (*scene.Element, bool) {
	e, ok := f[k]
	return e, ok
}

func (f fakeSurface) Keys() []scene.Key {
	keys := make([]scene.Key, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	scene.SortKeys(keys)
	return keys
}

func TestDiffReentryMidExitIsUpdate(t *testing.T) {
	m := newModel(t, smallTree())
	g1 := pass(m)
	_ = m.Collapse(orgtree.Descendant, "a")
	g2 := pass(m)

	// a1 is still on the surface, half faded, while g2 no longer has it.
	surface := fakeSurface{}
	for _, tg := range g1.Targets() {
		surface[tg.Key] = &scene.Element{Key: tg.Key, Parent: tg.Parent, State: tg.State}
	}
	k := scene.NodeKey(orgtree.Descendant, "a1")
	surface[k].State.Opacity = 0.5

	_ = m.Expand(orgtree.Descendant, "a")
	g3 := pass(m)
	plan := Diff(Input{Previous: g2, Rendered: surface, Next: g3})

	for _, c := range plan.Enter {
		if c.Key == k {
			t.Fatalf("a1 re-entered as a fresh enter")
		}
	}
	var found bool
	for _, c := range plan.Update {
		if c.Key == k {
			found = true
			if c.From.Opacity != 0.5 || c.To.Opacity != 1 {
				t.Errorf("a1 update %v -> %v", c.From.Opacity, c.To.Opacity)
			}
		}
	}
	if !found {
		t.Error("a1 should restart as an update")
	}
}

func TestDiffPartitionCompleteness(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	root := &orgtree.Entity{ID: "r"}
	next := 0
	var grow func(e *orgtree.Entity, depth int)
	grow = func(e *orgtree.Entity, depth int) {
		if depth == 4 {
			return
		}
		for i := r.Intn(4); i > 0; i-- {
			c := &orgtree.Entity{ID: fmt.Sprintf("n%d", next)}
			next++
			e.Children = append(e.Children, c)
			grow(c, depth+1)
		}
	}
	grow(root, 0)
	m := newModel(t, root)

	var ids []string
	var collect func(e *orgtree.Entity)
	collect = func(e *orgtree.Entity) {
		if len(e.Children) > 0 {
			ids = append(ids, e.ID)
		}
		for _, c := range e.Children {
			collect(c)
		}
	}
	collect(root)
	if len(ids) == 0 {
		t.Skip("degenerate random tree")
	}

	prev := pass(m)
	for step := 0; step < 50; step++ {
		switch r.Intn(6) {
		case 0:
			m.CollapseAll()
		case 1:
			m.ExpandAll()
		default:
			_, _ = m.Toggle(orgtree.Descendant, ids[r.Intn(len(ids))])
		}
		cur := pass(m)
		plan := Diff(Input{Previous: prev, Next: cur})

		enter, update, exit := keySet(Keys(plan.Enter)), keySet(Keys(plan.Update)), keySet(Keys(plan.Exit))
		union := keySet(append(prev.Keys(), cur.Keys()...))
		got := len(enter) + len(update) + len(exit)
		if got != len(union) {
			t.Fatalf("step %d: partitions cover %d keys, want %d", step, got, len(union))
		}
		for k := range union {
			if !enter[k] && !update[k] && !exit[k] {
				t.Fatalf("step %d: %v missing from plan", step, k)
			}
		}
		for k := range enter {
			if exit[k] || update[k] {
				t.Fatalf("step %d: %v in two partitions", step, k)
			}
		}
		prev = cur
	}
}
