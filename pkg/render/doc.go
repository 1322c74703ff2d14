// Package render groups the output sinks of orgchart.
//
// A chart produces [scene.Frame] snapshots; sinks turn them, or the
// underlying hierarchy, into files:
//
//   - [svg]: the chart look as a standalone SVG, optionally with an
//     embedded pan/zoom viewer, plus a JSON encoding of frames
//   - [nodelink]: a Graphviz DOT export of the visible hierarchy,
//     rendered to SVG in-process
//
// [scene.Frame]: github.com/matzehuels/orgchart/pkg/scene.Frame
// [svg]: github.com/matzehuels/orgchart/pkg/render/svg
// [nodelink]: github.com/matzehuels/orgchart/pkg/render/nodelink
package render
