// Package scene is the rendered surface of a chart: keyed elements with
// their current animatable state, as painted by a sink.
//
// The reconciler diffs against a [Surface], the transition coordinator
// writes interpolated states into it, and sinks read immutable [Frame]
// snapshots of it. Nothing here knows how elements are drawn.
package scene

import (
	"fmt"
	"sort"

	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/route"
)

// Kind separates node and connector keys.
type Kind int

const (
	KindNode Kind = iota
	KindConnector
)

func (k Kind) String() string {
	if k == KindConnector {
		return "link"
	}
	return "node"
}

// Key identifies one element across layout passes. A connector shares the
// ID of the child node it leads into.
type Key struct {
	Kind Kind         `json:"kind"`
	Role orgtree.Role `json:"role"`
	ID   string       `json:"id"`
}

// NodeKey returns the key of a node.
func NodeKey(role orgtree.Role, id string) Key {
	return Key{Kind: KindNode, Role: role, ID: id}
}

// ConnectorKey returns the key of the connector into child.
func ConnectorKey(role orgtree.Role, child string) Key {
	return Key{Kind: KindConnector, Role: role, ID: child}
}

// IsZero reports whether k is the zero key, used for "no parent".
func (k Key) IsZero() bool { return k == Key{} }

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Kind, k.Role, k.ID)
}

// Less orders keys by kind, role, then id.
func (k Key) Less(o Key) bool {
	if k.Kind != o.Kind {
		return k.Kind < o.Kind
	}
	if k.Role != o.Role {
		return k.Role < o.Role
	}
	return k.ID < o.ID
}

// SortKeys sorts keys in place with [Key.Less].
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

// State is the animatable part of an element. Nodes use Position,
// connectors use Path; both use Opacity.
type State struct {
	Position geom.Point `json:"position"`
	Path     route.Path `json:"path"`
	Opacity  float64    `json:"opacity"`
}

// Lerp interpolates every field of a and b.
func Lerp(a, b State, t float64) State {
	return State{
		Position: geom.Lerp(a.Position, b.Position, t),
		Path:     route.Lerp(a.Path, b.Path, t),
		Opacity:  geom.LerpFloat(a.Opacity, b.Opacity, t),
	}
}

// NodeData is what a sink needs to paint a node.
type NodeData struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Role    orgtree.Role `json:"role"`
	Depth   int          `json:"depth"`
	Toggle  bool         `json:"toggle"`
	Glyph   string       `json:"glyph,omitempty"`
	Percent string       `json:"percent,omitempty"`

	Annex     string              `json:"annex,omitempty"`
	ShowAnnex bool                `json:"showAnnex,omitempty"`
	AnnexAt   route.AnnexGeometry `json:"-"`
}

// IsRoot reports whether the node is the focus.
func (d *NodeData) IsRoot() bool { return d.Depth == 0 }

// ConnectorData is what a sink needs to paint a connector.
type ConnectorData struct {
	Role    orgtree.Role `json:"role"`
	Percent string       `json:"percent,omitempty"`
}

// Element is one keyed item on the surface.
type Element struct {
	Key Key `json:"key"`
	// Parent is the node key of the layout parent; zero for the focus.
	Parent    Key            `json:"-"`
	State     State          `json:"state"`
	Node      *NodeData      `json:"node,omitempty"`
	Connector *ConnectorData `json:"connector,omitempty"`
	Exiting   bool           `json:"exiting,omitempty"`

	// Owner is the id of the transition run currently driving the element.
	Owner uint64 `json:"-"`
	seq   uint64
}
