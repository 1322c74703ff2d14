package route

import "github.com/matzehuels/orgchart/pkg/geom"

// AnnexOptions carries the spacing and box size the annex offsets derive
// from.
type AnnexOptions struct {
	SiblingSpacing float64
	DepthSpacing   float64
	NodeWidth      float64
	NodeHeight     float64
}

// AnnexGeometry places an annex box and its link relative to the owning
// node's centre.
type AnnexGeometry struct {
	Center geom.Point
	Box    geom.Rect
	Link   Path
}

// Annex computes the annex offsets for a node at depth with the given
// number of visible children.
//
// The box sits half a sibling gap to the right. It drops a quarter of the
// depth gap when the owner fans out to several children (or is the root),
// and half the gap otherwise, so it never sits on top of the fan.
func Annex(depth, visibleChildren int, o AnnexOptions) AnnexGeometry {
	y := o.DepthSpacing / 2
	if depth == 0 || visibleChildren > 1 {
		y = o.DepthSpacing / 4
	}
	c := geom.Point{X: o.SiblingSpacing / 2, Y: y}
	box := geom.RectAround(c, o.NodeWidth, o.NodeHeight)
	return AnnexGeometry{
		Center: c,
		Box:    box,
		Link:   Elbow(geom.Point{X: 0, Y: y}, geom.Point{X: box.Left, Y: y}),
	}
}

// At returns g translated to an owner at p.
func (g AnnexGeometry) At(p geom.Point) AnnexGeometry {
	return AnnexGeometry{
		Center: g.Center.Add(p),
		Box:    geom.RectAround(g.Center.Add(p), g.Box.Width(), g.Box.Height()),
		Link:   g.Link.Translate(p),
	}
}
