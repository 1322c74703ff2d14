package svg

import (
	"encoding/json"

	"github.com/matzehuels/orgchart/pkg/scene"
)

type jsonOutput struct {
	ViewBox       scene.ViewBox   `json:"viewBox"`
	Bidirectional bool            `json:"bidirectional"`
	Connectors    []jsonConnector `json:"connectors"`
	Nodes         []jsonNode      `json:"nodes"`
}

type jsonConnector struct {
	Key     string  `json:"key"`
	Role    string  `json:"role"`
	D       string  `json:"d"`
	Opacity float64 `json:"opacity"`
	Percent string  `json:"percent,omitempty"`
	Exiting bool    `json:"exiting,omitempty"`
}

type jsonNode struct {
	Key     string     `json:"key"`
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Role    string     `json:"role"`
	Depth   int        `json:"depth"`
	X       float64    `json:"x"`
	Y       float64    `json:"y"`
	Opacity float64    `json:"opacity"`
	Toggle  string     `json:"toggle,omitempty"`
	Annex   *jsonAnnex `json:"annex,omitempty"`
	Exiting bool       `json:"exiting,omitempty"`
}

type jsonAnnex struct {
	Name    string  `json:"name"`
	Visible bool    `json:"visible"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Link    string  `json:"link"`
}

// RenderJSON encodes f for custom front ends. Annex coordinates are
// absolute.
func RenderJSON(f scene.Frame) ([]byte, error) {
	out := jsonOutput{
		ViewBox:       f.ViewBox,
		Bidirectional: f.Bidirectional,
		Connectors:    make([]jsonConnector, 0, len(f.Connectors)),
		Nodes:         make([]jsonNode, 0, len(f.Nodes)),
	}
	for _, el := range f.Connectors {
		c := jsonConnector{
			Key:     el.Key.String(),
			Role:    el.Key.Role.String(),
			D:       el.State.Path.D(),
			Opacity: el.State.Opacity,
			Exiting: el.Exiting,
		}
		if el.Connector != nil {
			c.Percent = el.Connector.Percent
		}
		out.Connectors = append(out.Connectors, c)
	}
	for _, el := range f.Nodes {
		if el.Node == nil {
			continue
		}
		d := el.Node
		n := jsonNode{
			Key:     el.Key.String(),
			ID:      d.ID,
			Name:    d.Name,
			Role:    d.Role.String(),
			Depth:   d.Depth,
			X:       el.State.Position.X,
			Y:       el.State.Position.Y,
			Opacity: el.State.Opacity,
			Exiting: el.Exiting,
		}
		if d.Toggle {
			n.Toggle = d.Glyph
		}
		if d.Annex != "" {
			a := d.AnnexAt.At(el.State.Position)
			n.Annex = &jsonAnnex{Name: d.Annex, Visible: d.ShowAnnex, X: a.Center.X, Y: a.Center.Y, Link: a.Link.D()}
		}
		out.Nodes = append(out.Nodes, n)
	}
	return json.MarshalIndent(out, "", "  ")
}
