package orgtree

import (
	"sort"

	"github.com/matzehuels/orgchart/pkg/errors"
)

// Model is the entity tree plus its per-key collapse state.
type Model struct {
	root      *Entity
	entities  [2]map[string]*Entity
	collapsed [2]map[string]bool
}

// NewModel validates the tree and returns a fully expanded model.
//
// Ids must be non-empty and unique within each side of the focus. A
// duplicate would make two nodes share a reconciliation key, so it is
// rejected instead of rendered.
func NewModel(root *Entity) (*Model, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidTree, "tree has no root")
	}
	m := &Model{root: root}
	for _, role := range []Role{Descendant, Ancestor} {
		m.entities[role] = make(map[string]*Entity)
		m.collapsed[role] = make(map[string]bool)
	}
	if err := m.index(Descendant, root, root.Children); err != nil {
		return nil, err
	}
	if len(root.Parents) > 0 {
		if err := m.index(Ancestor, root, root.Parents); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Model) index(role Role, e *Entity, kids []*Entity) error {
	if e == nil {
		return errors.New(errors.ErrCodeInvalidTree, "nil entity in %s tree", role)
	}
	if err := errors.ValidateEntityID(e.ID); err != nil {
		return err
	}
	if _, dup := m.entities[role][e.ID]; dup {
		return errors.New(errors.ErrCodeDuplicateKey, "duplicate id %q in %s tree", e.ID, role)
	}
	m.entities[role][e.ID] = e
	for _, k := range kids {
		if err := m.index(role, k, childrenOf(k)); err != nil {
			return err
		}
	}
	return nil
}

// childrenOf returns the entities below e on its own side. Ancestors keep
// their further ancestors in Children as well.
func childrenOf(e *Entity) []*Entity {
	if e == nil {
		return nil
	}
	return e.Children
}

// Root returns the focus entity.
func (m *Model) Root() *Entity { return m.root }

// Bidirectional reports whether the focus carries an ancestor chain.
func (m *Model) Bidirectional() bool { return len(m.root.Parents) > 0 }

// Lookup returns the entity with the given id on one side of the focus.
func (m *Model) Lookup(role Role, id string) (*Entity, bool) {
	if role != Descendant && role != Ancestor {
		return nil, false
	}
	e, ok := m.entities[role][id]
	return e, ok
}

// Len returns the number of entities on one side, focus included.
func (m *Model) Len(role Role) int { return len(m.entities[role]) }

// Collapsed returns the sorted ids currently collapsed on one side.
func (m *Model) Collapsed(role Role) []string {
	ids := make([]string, 0, len(m.collapsed[role]))
	for id := range m.collapsed[role] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Hierarchy builds a fresh node tree reflecting the current state.
func (m *Model) Hierarchy() *Hierarchy {
	h := &Hierarchy{Root: m.build(Descendant, m.root, m.root.Children, 0, nil)}
	if m.Bidirectional() {
		h.Ancestors = m.build(Ancestor, m.root, m.root.Parents, 0, nil)
	}
	return h
}

func (m *Model) build(role Role, e *Entity, kids []*Entity, depth int, parent *Node) *Node {
	n := &Node{Entity: e, Key: e.ID, Role: role, Depth: depth, Parent: parent}
	if len(kids) == 0 {
		return n
	}
	nodes := make([]*Node, len(kids))
	for i, k := range kids {
		nodes[i] = m.build(role, k, childrenOf(k), depth+1, n)
	}
	switch m.State(role, e.ID) {
	case Collapsed:
		n.Visible = []*Node{}
		n.Hidden = nodes
	case Expanded:
		n.Visible = nodes
	}
	return n
}
