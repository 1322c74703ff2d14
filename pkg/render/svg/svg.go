package svg

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/orgchart/pkg/chart"
	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/scene"
)

const (
	markerDown = "markerOfDown"
	markerUp   = "markerOfUp"
	buttonR    = 8.0
)

// Option configures [RenderSVG].
type Option func(*renderer)

type renderer struct {
	theme      Theme
	nodeWidth  float64
	nodeHeight float64
	viewer     bool
	endpoint   string
	title      string
}

// WithTheme selects the colour theme.
func WithTheme(t Theme) Option { return func(r *renderer) { r.theme = t } }

// WithNodeSize overrides the box size of non-root nodes.
func WithNodeSize(w, h float64) Option {
	return func(r *renderer) { r.nodeWidth, r.nodeHeight = w, h }
}

// WithViewer embeds the pan and zoom script. When endpoint is set, clicks
// on node controls are posted to endpoint + "/toggle" and node clicks to
// endpoint + "/click".
func WithViewer(endpoint string) Option {
	return func(r *renderer) { r.viewer, r.endpoint = true, endpoint }
}

// WithTitle sets the document title.
func WithTitle(s string) Option { return func(r *renderer) { r.title = s } }

func newRenderer(opts ...Option) renderer {
	r := renderer{
		theme:      DefaultTheme,
		nodeWidth:  chart.DefaultNodeWidth,
		nodeHeight: chart.DefaultNodeHeight,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG paints f as an SVG document.
func RenderSVG(f scene.Frame, opts ...Option) []byte {
	r := newRenderer(opts...)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s" width="%s" height="%s" style="user-select: none; cursor: move">`+"\n",
		f.ViewBox, num(f.ViewBox.Width), num(f.ViewBox.Height))
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escapeXML(r.title))
	}
	r.renderDefs(&buf)

	buf.WriteString(`  <g id="all">` + "\n")
	buf.WriteString(`    <g id="linkGroup">` + "\n")
	for _, el := range f.Connectors {
		r.renderConnector(&buf, el)
	}
	buf.WriteString("    </g>\n")
	buf.WriteString(`    <g id="nodeGroup">` + "\n")
	for _, el := range f.Nodes {
		r.renderNode(&buf, el)
	}
	buf.WriteString("    </g>\n")
	buf.WriteString("  </g>\n")

	if r.viewer {
		renderViewer(&buf, r.endpoint)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *renderer) renderDefs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n")
	for _, m := range []struct {
		id   string
		refX int
	}{{markerDown, 55}, {markerUp, -50}} {
		fmt.Fprintf(buf, `    <marker id="%s" markerUnits="userSpaceOnUse" viewBox="0 -5 10 10" refX="%d" refY="0" markerWidth="10" markerHeight="10" orient="90" stroke-width="2">`+
			`<path d="M0,-5L10,0L0,5" fill="%s"/></marker>`+"\n", m.id, m.refX, r.theme.Arrow)
	}
	buf.WriteString("  </defs>\n")
}

func (r *renderer) renderConnector(buf *bytes.Buffer, el scene.Element) {
	marker, class := markerDown, "link-child"
	if el.Key.Role == orgtree.Ancestor {
		marker, class = markerUp, "link-parent"
	}
	p := el.State.Path
	fmt.Fprintf(buf, `      <g class="link" data-key="%s" opacity="%s">`, escapeXML(el.Key.String()), num(el.State.Opacity))
	fmt.Fprintf(buf, `<path class="%s" d="%s" fill="none" stroke="%s" stroke-width="1" marker-end="url(#%s)"/>`,
		class, p.D(), r.theme.Link, marker)
	if el.Connector != nil && el.Connector.Percent != "" {
		mid := p.Mid()
		fmt.Fprintf(buf, `<text class="percent" x="%s" y="%s" dx="4" dy="-4" font-size="12" fill="%s" font-family="%s">%s</text>`,
			num(mid.X), num(mid.Y), r.theme.NodeText, r.theme.FontFamily, escapeXML(el.Connector.Percent))
	}
	buf.WriteString("</g>\n")
}

func (r *renderer) renderNode(buf *bytes.Buffer, el scene.Element) {
	d := el.Node
	if d == nil {
		return
	}
	pos := el.State.Position
	fmt.Fprintf(buf, `      <g class="node" data-key="%s" data-id="%s" data-role="%s" transform="translate(%s,%s)" fill-opacity="%s" stroke-opacity="%s" style="cursor: pointer">`+"\n",
		escapeXML(el.Key.String()), escapeXML(d.ID), d.Role, num(pos.X), num(pos.Y), num(el.State.Opacity), num(el.State.Opacity))

	if d.IsRoot() {
		w := RootWidth(d.Name)
		fmt.Fprintf(buf, `        <rect class="box" x="%s" y="%s" width="%s" height="%s" rx="5" stroke-width="1" stroke="%s" fill="%s"/>`+"\n",
			num(-w/2), num(-rootHeight/2), num(w), num(rootHeight), r.theme.RootStroke, r.theme.RootFill)
		fmt.Fprintf(buf, `        <text class="main-title" x="0" y="5" text-anchor="middle" fill="%s" font-size="16" font-family="%s" font-weight="bold">%s</text>`+"\n",
			r.theme.RootText, r.theme.FontFamily, escapeXML(d.Name))
	} else {
		w, h := r.nodeWidth, r.nodeHeight
		fmt.Fprintf(buf, `        <rect class="box" x="%s" y="%s" width="%s" height="%s" rx="5" stroke-width="1" stroke="%s" fill="%s"/>`+"\n",
			num(-w/2), num(-h/2), num(w), num(h), r.theme.NodeStroke, r.theme.NodeFill)
		fmt.Fprintf(buf, `        <text class="main-title" x="0" y="-14" text-anchor="middle" fill="%s" font-size="14" font-family="%s" font-weight="bold">%s</text>`+"\n",
			r.theme.NodeText, r.theme.FontFamily, escapeXML(Title(d.Name)))
		if sub := Subtitle(d.Name); sub != "" {
			fmt.Fprintf(buf, `        <text class="sub-title" x="0" y="5" text-anchor="middle" fill="%s" font-size="14" font-family="%s" font-weight="bold">%s</text>`+"\n",
				r.theme.NodeText, r.theme.FontFamily, escapeXML(sub))
		}
	}

	if d.Annex != "" {
		r.renderAnnex(buf, d)
	}
	if d.Toggle {
		r.renderButton(buf, d)
	}
	buf.WriteString("      </g>\n")
}

func (r *renderer) renderAnnex(buf *bytes.Buffer, d *scene.NodeData) {
	a := d.AnnexAt
	opacity := 0
	if d.ShowAnnex {
		opacity = 1
	}
	fmt.Fprintf(buf, `        <g class="annex" opacity="%d" style="cursor: auto">`, opacity)
	fmt.Fprintf(buf, `<path class="annex-link" d="%s" fill="none" stroke="%s" stroke-width="1"/>`, a.Link.D(), r.theme.Link)
	fmt.Fprintf(buf, `<rect class="annex-box" x="%s" y="%s" width="%s" height="%s" rx="5" stroke-width="1" stroke="%s" fill="%s"/>`,
		num(a.Box.Left), num(a.Box.Top), num(a.Box.Width()), num(a.Box.Height()), r.theme.NodeStroke, r.theme.NodeFill)
	fmt.Fprintf(buf, `<text class="annex-name" x="%s" y="%s" text-anchor="middle" fill="%s" font-size="14" font-family="%s" font-weight="bold">%s</text>`,
		num(a.Center.X), num(a.Center.Y+5), r.theme.NodeText, r.theme.FontFamily, escapeXML(Title(d.Annex)))
	buf.WriteString("</g>\n")
}

// renderButton draws the +/- control on the edge facing the node's
// children: below for descendants, above for ancestors.
func (r *renderer) renderButton(buf *bytes.Buffer, d *scene.NodeData) {
	edge, cy, ty := r.nodeHeight/2, buttonR, 13.0
	if d.Role == orgtree.Ancestor {
		edge, cy, ty = -edge, -buttonR, -3
	}
	fmt.Fprintf(buf, `        <g class="expandBtn" transform="translate(0,%s)">`, num(edge))
	fmt.Fprintf(buf, `<circle r="%s" cy="%s" fill="%s"/>`, num(buttonR), num(cy), r.theme.Button)
	fmt.Fprintf(buf, `<text text-anchor="middle" y="%s" fill="%s" font-size="16" font-family="%s">%s</text>`,
		num(ty), r.theme.ButtonText, r.theme.FontFamily, d.Glyph)
	buf.WriteString("</g>\n")
}
