// Package route computes connector paths between chart nodes.
//
// Every connector is an orthogonal elbow: vertical from the source to the
// vertical midpoint, horizontal to the target's x, vertical into the
// target. The router is pure; a zero-length elbow (source == target) is
// valid and is what entering and exiting connectors collapse to.
package route

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/orgtree"
)

// Path is an elbow connector: source, the two bend points, target.
type Path [4]geom.Point

// Elbow routes from source to target.
func Elbow(source, target geom.Point) Path {
	mid := source.Y + (target.Y-source.Y)/2
	return Path{
		source,
		{X: source.X, Y: mid},
		{X: target.X, Y: mid},
		target,
	}
}

// Route routes the connector between a layout parent and child. Descendant
// connectors run parent to child; ancestor connectors run child to parent,
// so the arrowhead at the end always points at the owned entity.
func Route(parent, child geom.Point, role orgtree.Role) Path {
	if role == orgtree.Ancestor {
		return Elbow(child, parent)
	}
	return Elbow(parent, child)
}

// Collapsed returns the degenerate path sitting entirely on p.
func Collapsed(p geom.Point) Path { return Elbow(p, p) }

// Source returns the first point.
func (p Path) Source() geom.Point { return p[0] }

// Target returns the last point.
func (p Path) Target() geom.Point { return p[3] }

// Mid returns the middle of the horizontal run.
func (p Path) Mid() geom.Point {
	return geom.Point{X: (p[1].X + p[2].X) / 2, Y: p[1].Y}
}

// Lerp interpolates each point of a and b independently.
func Lerp(a, b Path, t float64) Path {
	var out Path
	for i := range out {
		out[i] = geom.Lerp(a[i], b[i], t)
	}
	return out
}

// Translate shifts every point by d.
func (p Path) Translate(d geom.Point) Path {
	for i := range p {
		p[i] = p[i].Add(d)
	}
	return p
}

// D renders the path as SVG path data.
func (p Path) D() string {
	return fmt.Sprintf("M%s,%s L%s,%s %s,%s %s,%s",
		num(p[0].X), num(p[0].Y),
		num(p[1].X), num(p[1].Y),
		num(p[2].X), num(p[2].Y),
		num(p[3].X), num(p[3].Y))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
