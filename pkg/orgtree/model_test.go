package orgtree

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/orgchart/pkg/errors"
)

func sampleTree() *Entity {
	return &Entity{
		ID:          "root",
		DisplayName: "Holding",
		Children: []*Entity{
			{ID: "a", DisplayName: "A", Children: []*Entity{
				{ID: "a1", DisplayName: "A1"},
				{ID: "a2", DisplayName: "A2"},
			}},
			{ID: "b", DisplayName: "B"},
		},
	}
}

func keys(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Key
	}
	return out
}

func TestNewModelRejectsBadTrees(t *testing.T) {
	tests := []struct {
		name string
		root *Entity
		code errors.Code
	}{
		{"nil root", nil, errors.ErrCodeInvalidTree},
		{"empty id", &Entity{ID: ""}, errors.ErrCodeInvalidTree},
		{
			name: "duplicate siblings",
			root: &Entity{ID: "r", Children: []*Entity{{ID: "x"}, {ID: "x"}}},
			code: errors.ErrCodeDuplicateKey,
		},
		{
			name: "duplicate across levels",
			root: &Entity{ID: "r", Children: []*Entity{{ID: "x", Children: []*Entity{{ID: "r"}}}}},
			code: errors.ErrCodeDuplicateKey,
		},
		{
			name: "duplicate ancestor",
			root: &Entity{ID: "r", Parents: []*Entity{{ID: "p", Children: []*Entity{{ID: "p"}}}}},
			code: errors.ErrCodeDuplicateKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(tt.root)
			if !errors.Is(err, tt.code) {
				t.Fatalf("NewModel() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestSameIDOnBothSides(t *testing.T) {
	root := &Entity{
		ID:       "r",
		Children: []*Entity{{ID: "x"}},
		Parents:  []*Entity{{ID: "x"}},
	}
	if _, err := NewModel(root); err != nil {
		t.Fatalf("ids are namespaced per side, got %v", err)
	}
}

func TestHierarchyExpanded(t *testing.T) {
	m, err := NewModel(sampleTree())
	if err != nil {
		t.Fatal(err)
	}
	h := m.Hierarchy()

	if got := keys(h.Visible()); !reflect.DeepEqual(got, []string{"root", "a", "a1", "a2", "b"}) {
		t.Errorf("Visible() = %v", got)
	}
	a := h.Root.Visible[0]
	if a.Depth != 1 || a.Parent != h.Root {
		t.Errorf("a depth=%d parent=%v", a.Depth, a.Parent)
	}
	if a.Hidden != nil {
		t.Errorf("expanded node should have nil Hidden, got %v", keys(a.Hidden))
	}
	b := h.Root.Visible[1]
	if b.Hidden != nil || len(b.Visible) != 0 {
		t.Errorf("leaf should have no children views")
	}
	if h.Bidirectional() {
		t.Error("no parents means no ancestor tree")
	}
}

func TestToggleRoundTrip(t *testing.T) {
	m, _ := NewModel(sampleTree())
	before := keys(m.Hierarchy().Root.Visible[0].Visible)

	st, err := m.Toggle(Descendant, "a")
	if err != nil || st != Collapsed {
		t.Fatalf("Toggle() = %v, %v", st, err)
	}
	a := m.Hierarchy().Root.Visible[0]
	if len(a.Visible) != 0 || !reflect.DeepEqual(keys(a.Hidden), before) {
		t.Fatalf("collapsed: visible=%v hidden=%v", keys(a.Visible), keys(a.Hidden))
	}
	if a.ToggleGlyph() != "+" {
		t.Errorf("glyph = %q, want +", a.ToggleGlyph())
	}

	st, _ = m.Toggle(Descendant, "a")
	if st != Expanded {
		t.Fatalf("second Toggle() = %v", st)
	}
	a = m.Hierarchy().Root.Visible[0]
	if !reflect.DeepEqual(keys(a.Visible), before) || a.Hidden != nil {
		t.Errorf("round trip: visible=%v hidden=%v", keys(a.Visible), a.Hidden)
	}
	if a.ToggleGlyph() != "-" {
		t.Errorf("glyph = %q, want -", a.ToggleGlyph())
	}
}

func TestToggleErrors(t *testing.T) {
	m, _ := NewModel(sampleTree())

	if _, err := m.Toggle(Descendant, "b"); !errors.Is(err, errors.ErrCodeNoToggle) {
		t.Errorf("leaf toggle error = %v", err)
	}
	if _, err := m.Toggle(Descendant, "zzz"); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("unknown toggle error = %v", err)
	}
	if _, err := m.Toggle(Ancestor, "a"); !errors.Is(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("wrong side toggle error = %v", err)
	}
}

func TestCollapseRoot(t *testing.T) {
	m, _ := NewModel(sampleTree())
	if _, err := m.Toggle(Descendant, "root"); err != nil {
		t.Fatal(err)
	}
	h := m.Hierarchy()
	if len(h.Root.Visible) != 0 || !reflect.DeepEqual(keys(h.Root.Hidden), []string{"a", "b"}) {
		t.Errorf("root visible=%v hidden=%v", keys(h.Root.Visible), keys(h.Root.Hidden))
	}
	if got := keys(h.Visible()); !reflect.DeepEqual(got, []string{"root"}) {
		t.Errorf("Visible() = %v", got)
	}
	if h.Root.ShowToggle() {
		t.Error("root never shows a toggle")
	}
}

func TestCollapseAllExpandAll(t *testing.T) {
	m, _ := NewModel(sampleTree())
	m.CollapseAll()

	if got := m.Collapsed(Descendant); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Collapsed() = %v, want [a]", got)
	}
	if got := keys(m.Hierarchy().Visible()); !reflect.DeepEqual(got, []string{"root", "a", "b"}) {
		t.Errorf("after CollapseAll Visible() = %v", got)
	}

	m.ExpandAll()
	if got := len(m.Hierarchy().Visible()); got != 5 {
		t.Errorf("after ExpandAll %d visible, want 5", got)
	}
}

func TestHiddenSubtreeKeepsOwnState(t *testing.T) {
	root := &Entity{ID: "r", Children: []*Entity{
		{ID: "a", Children: []*Entity{{ID: "b", Children: []*Entity{{ID: "c"}}}}},
	}}
	m, _ := NewModel(root)
	_ = m.Collapse(Descendant, "b")
	_ = m.Collapse(Descendant, "a")
	_ = m.Expand(Descendant, "a")

	if got := keys(m.Hierarchy().Visible()); !reflect.DeepEqual(got, []string{"r", "a", "b"}) {
		t.Errorf("Visible() = %v, b should stay collapsed", got)
	}
}

func TestAncestorHierarchy(t *testing.T) {
	root := &Entity{
		ID: "focus",
		Parents: []*Entity{
			{ID: "p", OwnershipPercent: "60%", Children: []*Entity{{ID: "gp"}}},
		},
	}
	m, err := NewModel(root)
	if err != nil {
		t.Fatal(err)
	}
	h := m.Hierarchy()
	if !h.Bidirectional() {
		t.Fatal("expected ancestor tree")
	}
	if got := keys(h.Visible()); !reflect.DeepEqual(got, []string{"focus", "p", "gp"}) {
		t.Errorf("Visible() = %v", got)
	}
	gp := h.Find(Ancestor, "gp")
	if gp == nil || gp.Depth != 2 || gp.Role != Ancestor {
		t.Fatalf("Find(gp) = %+v", gp)
	}

	m.CollapseAll()
	if got := keys(m.Hierarchy().Visible()); !reflect.DeepEqual(got, []string{"focus", "p"}) {
		t.Errorf("after CollapseAll Visible() = %v", got)
	}
}

func TestReadEntityAliases(t *testing.T) {
	payload := `{
		"id": "96240625",
		"fullName": "Group Holding",
		"secretary": {"name": "Board Office"},
		"children": [{"id": 42, "name": "Sub", "percent": 51}],
		"parents": [{"id": "p1", "displayName": "Parent", "percent": "100%"}]
	}`
	e, err := ReadEntity(strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	if e.DisplayName != "Group Holding" || e.Annex == nil || e.Annex.Name != "Board Office" {
		t.Errorf("root = %+v", e)
	}
	if c := e.Children[0]; c.ID != "42" || c.DisplayName != "Sub" || c.OwnershipPercent != "51" {
		t.Errorf("child = %+v", c)
	}
	if p := e.Parents[0]; p.OwnershipPercent != "100%" || p.Label() != "Parent" {
		t.Errorf("parent = %+v", p)
	}
	if e.Count() != 2 {
		t.Errorf("Count() = %d, want 2", e.Count())
	}
}

func TestReadEntityInvalid(t *testing.T) {
	_, err := ReadEntity(strings.NewReader(`{"id": [1]}`))
	if !errors.Is(err, errors.ErrCodeInvalidTree) {
		t.Errorf("error = %v, want INVALID_TREE", err)
	}
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{"": Descendant, "child": Descendant, "descendant": Descendant, "parent": Ancestor, "ancestor": Ancestor} {
		got, err := ParseRole(in)
		if err != nil || got != want {
			t.Errorf("ParseRole(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseRole("sideways"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ParseRole(sideways) error = %v", err)
	}
}
