// Package orgtree holds the entity tree model of an organization chart.
//
// An [Entity] tree is the immutable input: companies or departments with an
// optional [Annex] (an assistant attached beside the node), an optional
// ownership percent and ordered children. The focus root of a bidirectional
// chart additionally carries Parents, its ancestor chain.
//
// A [Model] owns the per-key expand/collapse state and rebuilds a fresh
// [Node] hierarchy on every layout pass via [Model.Hierarchy]. Nodes are
// never reused across passes; identity is the entity id.
//
// # Collapse state
//
// Each node with children is either [Expanded] (children in Visible) or
// [Collapsed] (children in Hidden). Hidden is nil when the node has no
// children at all, so a node never shows and hides children at once:
//
//	m, _ := orgtree.NewModel(root)
//	m.Toggle("dept-1")   // expanded -> collapsed
//	m.CollapseAll()      // every non-root node with children
//	m.ExpandAll()
//	h := m.Hierarchy()   // fresh nodes reflecting the state
package orgtree
