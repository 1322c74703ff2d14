// Package geom holds the small amount of plane geometry the chart needs.
package geom

import "math"

// Point is a position in the abstract layout plane. y grows downward.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Origin is the focus root position.
var Origin = Point{}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p minus q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Lerp interpolates between a and b; t=0 yields a, t=1 yields b.
func Lerp(a, b Point, t float64) Point {
	return Point{X: LerpFloat(a.X, b.X, t), Y: LerpFloat(a.Y, b.Y, t)}
}

// LerpFloat interpolates a scalar.
func LerpFloat(a, b, t float64) float64 {
	if t >= 1 {
		return b
	}
	return a + (b-a)*t
}

// Approx reports whether p and q are within eps on both axes.
func Approx(p, q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Rect is an axis-aligned box.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// RectAround returns the box of size w×h centred on c.
func RectAround(c Point, w, h float64) Rect {
	return Rect{Left: c.X - w/2, Top: c.Y - h/2, Right: c.X + w/2, Bottom: c.Y + h/2}
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Union returns the smallest box containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   math.Min(r.Left, o.Left),
		Top:    math.Min(r.Top, o.Top),
		Right:  math.Max(r.Right, o.Right),
		Bottom: math.Max(r.Bottom, o.Bottom),
	}
}

// OverlapsX reports whether the horizontal extents of r and o intersect.
func (r Rect) OverlapsX(o Rect) bool {
	return r.Left < o.Right && o.Left < r.Right
}
