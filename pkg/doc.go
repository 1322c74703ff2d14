// Package pkg provides the libraries behind orgchart.
//
// # Overview
//
// Orgchart draws an organization as a tree: the focus entity in the
// middle, its subsidiaries below and, when present, its owners mirrored
// above. Nodes fold and unfold, and every change animates from the old
// state to the new one.
//
// # Architecture
//
// Every state change runs the same synchronous pipeline:
//
//	[orgtree]     entity model, expand/collapse state, visible hierarchy
//	    ↓
//	[layout]      tidy-tree coordinates, sibling subtrees kept apart
//	    ↓
//	[route]       elbow connectors and annex links
//	    ↓
//	[reconcile]   enter / update / exit partition by stable key
//	    ↓
//	[transition]  timed interpolation, driven by Tick
//
// [chart] owns these stages and exposes the commands (toggle, click,
// expand all, collapse all). [scene] holds the retained drawing that the
// sinks under [render] turn into SVG, JSON or DOT.
//
// # Infrastructure
//
//   - [pipeline]: options, rendering and scripted animation with caching
//   - [cache]: file, Redis and MongoDB artifact caches
//   - [httputil]: trees fetched from HTTP sources
//   - [session]: per-visitor charts for the HTTP viewer
//   - [server]: chi routes, SSE frame stream and request logging
//   - [watcher]: debounced file change notifications
//   - [observability]: hooks with a Prometheus implementation
//   - [errors]: coded errors and input validation
//   - [buildinfo]: version information
//
// # Quick Start
//
//	tree, _ := pipeline.Load("holding.json", nil)
//	c, _ := pipeline.Draw(tree, pipeline.Options{}, nil)
//	c.Toggle(orgtree.Descendant, "mfg")
//	c.Settle()
//	svgBytes := svg.RenderSVG(c.Frame())
//
// [chart]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/chart
// [scene]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/scene
// [render]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/httputil
// [session]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/session
// [server]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/server
// [watcher]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/watcher
// [observability]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/buildinfo
//
// [orgtree]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/orgtree
// [layout]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/layout
// [route]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/route
// [reconcile]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/reconcile
// [transition]: https://pkg.go.dev/github.com/matzehuels/orgchart/pkg/transition
package pkg
