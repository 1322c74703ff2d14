package orgtree

import "github.com/matzehuels/orgchart/pkg/errors"

// State is a node's expand/collapse state.
type State int

const (
	Expanded State = iota
	Collapsed
)

func (s State) String() string {
	switch s {
	case Expanded:
		return "expanded"
	case Collapsed:
		return "collapsed"
	default:
		return "unknown"
	}
}

// State returns the state of the node with the given id.
func (m *Model) State(role Role, id string) State {
	if m.collapsed[role][id] {
		return Collapsed
	}
	return Expanded
}

// Toggle flips one node and returns its new state. Leaves have no state to
// flip. The root has no control on screen but may still be toggled
// programmatically.
func (m *Model) Toggle(role Role, id string) (State, error) {
	if err := m.checkToggle(role, id); err != nil {
		return Expanded, err
	}
	switch m.State(role, id) {
	case Expanded:
		m.collapsed[role][id] = true
		return Collapsed, nil
	case Collapsed:
		delete(m.collapsed[role], id)
		return Expanded, nil
	}
	return Expanded, errors.New(errors.ErrCodeInternal, "unknown state for %q", id)
}

// Collapse forces one node to Collapsed. Collapsing a collapsed node is a
// no-op.
func (m *Model) Collapse(role Role, id string) error {
	if err := m.checkToggle(role, id); err != nil {
		return err
	}
	m.collapsed[role][id] = true
	return nil
}

// Expand forces one node to Expanded.
func (m *Model) Expand(role Role, id string) error {
	if err := m.checkToggle(role, id); err != nil {
		return err
	}
	delete(m.collapsed[role], id)
	return nil
}

func (m *Model) checkToggle(role Role, id string) error {
	e, ok := m.Lookup(role, id)
	if !ok {
		return errors.New(errors.ErrCodeNodeNotFound, "no %s node %q", role, id)
	}
	kids := childrenOf(e)
	if e == m.root {
		kids = m.root.Children
		if role == Ancestor {
			kids = m.root.Parents
		}
	}
	if len(kids) == 0 {
		return errors.New(errors.ErrCodeNoToggle, "node %q has no children", id)
	}
	return nil
}

// ExpandAll forces every node on both sides to Expanded.
func (m *Model) ExpandAll() {
	for _, role := range []Role{Descendant, Ancestor} {
		m.collapsed[role] = make(map[string]bool)
	}
}

// CollapseAll forces every non-root node with children to Collapsed.
func (m *Model) CollapseAll() {
	for _, role := range []Role{Descendant, Ancestor} {
		for id, e := range m.entities[role] {
			if e != m.root && len(childrenOf(e)) > 0 {
				m.collapsed[role][id] = true
			}
		}
	}
}
