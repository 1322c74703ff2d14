package scene

import "strconv"

// ViewBox is the visible window of the layout plane.
type ViewBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports a degenerate viewport.
func (v ViewBox) Empty() bool { return v.Width <= 0 || v.Height <= 0 }

// String formats v as an SVG viewBox attribute.
func (v ViewBox) String() string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
	return f(v.X) + " " + f(v.Y) + " " + f(v.Width) + " " + f(v.Height)
}

// Frame is an immutable snapshot of a surface.
type Frame struct {
	ViewBox       ViewBox   `json:"viewBox"`
	Bidirectional bool      `json:"bidirectional"`
	Connectors    []Element `json:"connectors"`
	Nodes         []Element `json:"nodes"`
}

// Node returns the node element with the given key.
func (f Frame) Node(k Key) (Element, bool) {
	for _, e := range f.Nodes {
		if e.Key == k {
			return e, true
		}
	}
	return Element{}, false
}

// Keys returns all element keys in the frame.
func (f Frame) Keys() []Key {
	keys := make([]Key, 0, len(f.Nodes)+len(f.Connectors))
	for _, e := range f.Connectors {
		keys = append(keys, e.Key)
	}
	for _, e := range f.Nodes {
		keys = append(keys, e.Key)
	}
	SortKeys(keys)
	return keys
}
