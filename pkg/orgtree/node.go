package orgtree

import (
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/geom"
)

// Role tells which side of the focus a node belongs to.
type Role int

const (
	// Descendant nodes hang below the focus root. The root itself is a
	// descendant node.
	Descendant Role = iota
	// Ancestor nodes form the mirrored chain above the focus root.
	Ancestor
)

func (r Role) String() string {
	switch r {
	case Descendant:
		return "descendant"
	case Ancestor:
		return "ancestor"
	default:
		return "unknown"
	}
}

// ParseRole parses a role name. The empty string means [Descendant].
func ParseRole(s string) (Role, error) {
	switch s {
	case "", "descendant", "child":
		return Descendant, nil
	case "ancestor", "parent":
		return Ancestor, nil
	}
	return Descendant, errors.New(errors.ErrCodeInvalidInput, "unknown role %q", s)
}

// Node wraps one entity for a single layout pass.
type Node struct {
	Entity *Entity
	Key    string
	Role   Role
	Depth  int
	Parent *Node

	// Visible and Hidden are the two views over the entity's children.
	// At most one of them is non-empty; Hidden is nil for leaves and for
	// expanded nodes.
	Visible []*Node
	Hidden  []*Node

	Position geom.Point
	Previous geom.Point
}

// IsRoot reports whether n is the focus root.
func (n *Node) IsRoot() bool { return n.Depth == 0 }

// HasChildren reports whether the entity has any children on n's side,
// visible or not.
func (n *Node) HasChildren() bool {
	return len(n.Visible) > 0 || len(n.Hidden) > 0
}

// State returns the collapse state derived from the two child views.
func (n *Node) State() State {
	if len(n.Hidden) > 0 {
		return Collapsed
	}
	return Expanded
}

// ShowToggle reports whether the expand/collapse control is drawn.
func (n *Node) ShowToggle() bool {
	return n.HasChildren() && !n.IsRoot()
}

// ToggleGlyph is the control's label: "-" to collapse, "+" to expand.
func (n *Node) ToggleGlyph() string {
	if n.State() == Collapsed {
		return "+"
	}
	return "-"
}

// ShowAnnex reports whether the annex box is drawn; it follows the owner's
// expanded children.
func (n *Node) ShowAnnex() bool {
	return n.Entity.Annex != nil && len(n.Visible) > 0
}

// Walk visits n and its visible descendants in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Visible {
		c.Walk(fn)
	}
}

// WalkAll visits n and all descendants, hidden ones included.
func (n *Node) WalkAll(fn func(*Node)) {
	fn(n)
	for _, c := range n.Visible {
		c.WalkAll(fn)
	}
	for _, c := range n.Hidden {
		c.WalkAll(fn)
	}
}

// Hierarchy is the result of one rebuild: the descendant tree rooted at
// the focus and, for bidirectional charts, the ancestor tree sharing it.
type Hierarchy struct {
	Root *Node
	// Ancestors is nil when the focus has no parents. Its root mirrors Root
	// (same entity and key) and is never drawn twice.
	Ancestors *Node
}

// Bidirectional reports whether an ancestor tree is present.
func (h *Hierarchy) Bidirectional() bool { return h.Ancestors != nil }

// Visible returns every visible node: the descendant tree in pre-order,
// followed by the ancestor tree without its shared root.
func (h *Hierarchy) Visible() []*Node {
	var out []*Node
	h.Root.Walk(func(n *Node) { out = append(out, n) })
	if h.Ancestors != nil {
		for _, c := range h.Ancestors.Visible {
			c.Walk(func(n *Node) { out = append(out, n) })
		}
	}
	return out
}

// Find returns the visible node with the given role and key.
func (h *Hierarchy) Find(role Role, key string) *Node {
	for _, n := range h.Visible() {
		if n.Key == key && (n.Role == role || n.IsRoot()) {
			return n
		}
	}
	return nil
}
