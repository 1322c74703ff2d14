package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/orgchart/pkg/orgtree"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the entity id and annex to node labels.
	Detailed bool
}

// ToDOT converts the visible part of h to Graphviz DOT.
//
// Nodes are keyed by role and id so an entity may appear on both sides of
// the focus. Collapsed nodes are drawn dashed.
func ToDOT(h *orgtree.Hierarchy, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, color=\"#7A9EFF\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#7A9EFF\", arrowsize=0.7, fontsize=11];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range h.Visible() {
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(n), strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, n := range h.Visible() {
		if n.Parent == nil {
			continue
		}
		from, to := nodeID(n.Parent), nodeID(n)
		if n.Role == orgtree.Ancestor {
			from, to = to, from
		}
		if p := n.Entity.OwnershipPercent; p != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", from, to, p)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", from, to)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(n *orgtree.Node) string {
	if n.IsRoot() {
		return n.Key
	}
	return n.Role.String() + "/" + n.Key
}

func fmtLabel(n *orgtree.Node, detailed bool) string {
	label := n.Entity.Label()
	if !detailed {
		return label
	}
	parts := []string{label, "id: " + n.Key}
	if n.Entity.Annex != nil {
		parts = append(parts, "annex: "+n.Entity.Annex.Name)
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n *orgtree.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	switch {
	case n.IsRoot():
		attrs = append(attrs, "fillcolor=\"#7A9EFF\"", "fontcolor=white", "color=\"#5682ec\"")
	case n.State() == orgtree.Collapsed:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized root element with a
// unitless one so the diagram scales with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
