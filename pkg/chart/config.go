package chart

import (
	"time"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/transition"
)

// Default sizes, in layout units.
const (
	DefaultNodeWidth      = 170.0
	DefaultNodeHeight     = 70.0
	DefaultViewportWidth  = 1200.0
	DefaultViewportHeight = 800.0
)

// ZoomExtent is the allowed zoom range of interactive viewers.
var ZoomExtent = [2]float64{0.2, 5}

// Config holds the geometry and timing of a chart.
type Config struct {
	SiblingSpacing float64       `json:"siblingSpacing"`
	DepthSpacing   float64       `json:"depthSpacing"`
	ViewportWidth  float64       `json:"viewportWidth"`
	ViewportHeight float64       `json:"viewportHeight"`
	NodeWidth      float64       `json:"nodeWidth"`
	NodeHeight     float64       `json:"nodeHeight"`
	Duration       time.Duration `json:"duration"`
}

// DefaultConfig returns the stock chart geometry.
func DefaultConfig() Config {
	return Config{
		SiblingSpacing: layout.DefaultSiblingSpacing,
		DepthSpacing:   layout.DefaultDepthSpacing,
		ViewportWidth:  DefaultViewportWidth,
		ViewportHeight: DefaultViewportHeight,
		NodeWidth:      DefaultNodeWidth,
		NodeHeight:     DefaultNodeHeight,
		Duration:       transition.DefaultDuration,
	}
}

// Validate rejects negative sizes and durations.
func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"sibling spacing": c.SiblingSpacing,
		"depth spacing":   c.DepthSpacing,
		"viewport width":  c.ViewportWidth,
		"viewport height": c.ViewportHeight,
		"node width":      c.NodeWidth,
		"node height":     c.NodeHeight,
	} {
		if v < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s cannot be negative: %v", name, v)
		}
	}
	if c.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "duration cannot be negative: %v", c.Duration)
	}
	return nil
}

// BoxesOverlap reports whether two adjacent siblings, placed SiblingSpacing
// apart, would draw overlapping boxes. The layout still runs.
func (c Config) BoxesOverlap() bool {
	return c.NodeWidth > c.SiblingSpacing
}

// withDefaults fills zero spacing and node sizes. Zero viewport sizes and a
// zero duration are meaningful and kept.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SiblingSpacing == 0 {
		c.SiblingSpacing = d.SiblingSpacing
	}
	if c.DepthSpacing == 0 {
		c.DepthSpacing = d.DepthSpacing
	}
	if c.NodeWidth == 0 {
		c.NodeWidth = d.NodeWidth
	}
	if c.NodeHeight == 0 {
		c.NodeHeight = d.NodeHeight
	}
	return c
}
