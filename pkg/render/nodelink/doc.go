// Package nodelink exports the visible org chart as a Graphviz diagram.
//
// The interactive chart lays itself out; this package is the static
// alternative for documents and diffs. [ToDOT] writes the currently
// visible hierarchy (collapsed subtrees stay hidden) and [RenderSVG]
// renders DOT in-process:
//
//	dot := nodelink.ToDOT(c.Hierarchy(), nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Ancestors are drawn above the focus with edges pointing at the owned
// entity, matching the chart's arrow direction. Ownership percentages
// become edge labels.
//
// This package uses [github.com/goccy/go-graphviz], a WebAssembly build
// of Graphviz, so no system installation is required.
package nodelink
