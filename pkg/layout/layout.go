package layout

import (
	"math"

	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/orgtree"
)

// Default spacing, in layout units.
const (
	DefaultSiblingSpacing = 200.0
	DefaultDepthSpacing   = 150.0
)

// Options configures a layout pass.
type Options struct {
	SiblingSpacing float64
	DepthSpacing   float64
}

func (o Options) withDefaults() Options {
	if o.SiblingSpacing <= 0 {
		o.SiblingSpacing = DefaultSiblingSpacing
	}
	if o.DepthSpacing <= 0 {
		o.DepthSpacing = DefaultDepthSpacing
	}
	return o
}

// Result summarises a pass.
type Result struct {
	Nodes    int
	MaxDepth int
	// Bounds covers the node centres, not their boxes.
	Bounds geom.Rect
}

// contour holds, per depth below a subtree root, the leftmost and
// rightmost x relative to that root. Index 0 is the root's own level.
type contour struct {
	lo, hi []float64
}

type layouter struct {
	opts Options
	rel  map[*orgtree.Node]float64
}

// Apply positions every visible node under root and returns a summary.
// Nodes are mutated in place; hidden subtrees keep zero positions.
func Apply(root *orgtree.Node, opts Options) Result {
	l := &layouter{opts: opts.withDefaults(), rel: make(map[*orgtree.Node]float64)}
	l.firstWalk(root)

	res := Result{Bounds: geom.Rect{}}
	sign := 1.0
	if root.Role == orgtree.Ancestor {
		sign = -1
	}
	l.secondWalk(root, 0, sign, &res)
	return res
}

// ApplyHierarchy lays out both sides of a hierarchy. The ancestor root is
// the focus itself and ends up on the same position.
func ApplyHierarchy(h *orgtree.Hierarchy, opts Options) Result {
	res := Apply(h.Root, opts)
	if h.Ancestors != nil {
		up := Apply(h.Ancestors, opts)
		res.Nodes += up.Nodes - 1
		res.MaxDepth = max(res.MaxDepth, up.MaxDepth)
		res.Bounds = res.Bounds.Union(up.Bounds)
	}
	return res
}

func (l *layouter) firstWalk(n *orgtree.Node) contour {
	if len(n.Visible) == 0 {
		return contour{lo: []float64{0}, hi: []float64{0}}
	}

	pos := make([]float64, len(n.Visible))
	acc := l.firstWalk(n.Visible[0])
	for i := 1; i < len(n.Visible); i++ {
		c := l.firstWalk(n.Visible[i])
		pos[i] = l.separation(acc, c)
		acc = merge(acc, c, pos[i])
	}

	var mid float64
	for _, p := range pos {
		mid += p
	}
	mid /= float64(len(pos))

	for i, c := range n.Visible {
		l.rel[c] = pos[i] - mid
	}

	out := contour{lo: make([]float64, len(acc.lo)+1), hi: make([]float64, len(acc.hi)+1)}
	for d := range acc.lo {
		out.lo[d+1] = acc.lo[d] - mid
		out.hi[d+1] = acc.hi[d] - mid
	}
	return out
}

// separation returns the offset at which right must sit so that its whole
// extent clears the already placed siblings in acc.
func (l *layouter) separation(acc, right contour) float64 {
	return maxOf(acc.hi) - minOf(right.lo) + l.opts.SiblingSpacing
}

// merge folds right, shifted by off, into acc.
func merge(acc, right contour, off float64) contour {
	n := max(len(acc.lo), len(right.lo))
	out := contour{lo: make([]float64, n), hi: make([]float64, n)}
	for d := 0; d < n; d++ {
		switch {
		case d >= len(acc.lo):
			out.lo[d], out.hi[d] = right.lo[d]+off, right.hi[d]+off
		case d >= len(right.lo):
			out.lo[d], out.hi[d] = acc.lo[d], acc.hi[d]
		default:
			out.lo[d] = math.Min(acc.lo[d], right.lo[d]+off)
			out.hi[d] = math.Max(acc.hi[d], right.hi[d]+off)
		}
	}
	return out
}

func (l *layouter) secondWalk(n *orgtree.Node, x, sign float64, res *Result) {
	n.Position = geom.Point{X: x, Y: sign * float64(n.Depth) * l.opts.DepthSpacing}
	if res.Nodes == 0 {
		res.Bounds = geom.Rect{Left: n.Position.X, Right: n.Position.X, Top: n.Position.Y, Bottom: n.Position.Y}
	} else {
		res.Bounds = res.Bounds.Union(geom.Rect{Left: n.Position.X, Right: n.Position.X, Top: n.Position.Y, Bottom: n.Position.Y})
	}
	res.Nodes++
	res.MaxDepth = max(res.MaxDepth, n.Depth)
	for _, c := range n.Visible {
		l.secondWalk(c, x+l.rel[c], sign, res)
	}
}

func maxOf(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		m = math.Max(m, x)
	}
	return m
}

func minOf(v []float64) float64 {
	m := math.Inf(1)
	for _, x := range v {
		m = math.Min(m, x)
	}
	return m
}
