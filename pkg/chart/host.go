package chart

import (
	"time"

	"github.com/matzehuels/orgchart/pkg/orgtree"
)

// Host is the container a chart is mounted in.
type Host interface {
	// Measure returns the container's current size. Zero sizes are legal.
	Measure() (width, height float64)
}

// StaticHost is a host of fixed size, e.g. an output image.
type StaticHost struct {
	Width, Height float64
}

func (h StaticHost) Measure() (float64, float64) { return h.Width, h.Height }

// HostFunc adapts a function to Host.
type HostFunc func() (float64, float64)

func (f HostFunc) Measure() (float64, float64) { return f() }

// Event describes the interaction that triggered a callback.
type Event struct {
	Type   string    `json:"type"`
	Source string    `json:"source,omitempty"`
	Time   time.Time `json:"time"`
}

// ClickFunc receives node clicks. The node carries its depth and entity.
type ClickFunc func(ev Event, node *orgtree.Node)
