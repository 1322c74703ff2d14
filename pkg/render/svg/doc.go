// Package svg paints chart frames as standalone SVG documents.
//
// A [scene.Frame] is a snapshot of the rendered surface at one instant, so
// rendering a sequence of frames taken from [chart.Chart.Animate] yields
// the enter, update and exit animation as individual images.
//
//	svg := svg.RenderSVG(c.Frame(), svg.WithViewer())
//
// Connectors are painted first, nodes on top in surface order. Each node
// group carries its key in data-key so the viewer script (see
// [WithViewer]) can post clicks back to the server.
//
// [RenderJSON] emits the same frame as JSON for custom front ends.
//
// [scene.Frame]: github.com/matzehuels/orgchart/pkg/scene.Frame
// [chart.Chart.Animate]: github.com/matzehuels/orgchart/pkg/chart.Chart.Animate
package svg
