package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/orgchart/pkg/chart"
	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/render/nodelink"
	"github.com/matzehuels/orgchart/pkg/render/svg"
	"github.com/matzehuels/orgchart/pkg/transition"
)

// Draw mounts a chart for tree and applies the collapse state in opts.
// The returned chart has its transitions settled. clock may be nil.
func Draw(tree *orgtree.Entity, opts Options, clock transition.Clock) (*chart.Chart, error) {
	c, err := mount(tree, opts, clock)
	if err != nil {
		return nil, err
	}
	c.Settle()
	return c, nil
}

// mount is Draw without settling: the first paint is still running.
func mount(tree *orgtree.Entity, opts Options, clock transition.Clock) (*chart.Chart, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	c, err := chart.New(chart.Options{
		Tree:   tree,
		Config: opts.ChartConfig(),
		Clock:  clock,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	if opts.CollapseAll {
		if err := c.CollapseAllNodes(); err != nil {
			return nil, err
		}
	}
	for _, ref := range opts.Collapsed {
		role, id, err := ParseNodeRef(ref)
		if err != nil {
			return nil, err
		}
		if c.Model().State(role, id) == orgtree.Collapsed {
			continue
		}
		if _, err := c.Toggle(role, id); err != nil {
			return nil, fmt.Errorf("collapse %s: %w", ref, err)
		}
	}
	return c, nil
}

// RenderChart paints the current state of c in every requested format.
func RenderChart(ctx context.Context, c *chart.Chart, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatSVG:
			data = svg.RenderSVG(c.Frame(), opts.SVGOptions()...)
		case FormatJSON:
			data, err = svg.RenderJSON(c.Frame())
		case FormatDOT:
			data = []byte(nodelink.ToDOT(c.Hierarchy(), nodelink.Options{Detailed: opts.Detailed}))
		case FormatGraphviz:
			data, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(c.Hierarchy(), nodelink.Options{Detailed: opts.Detailed}))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
