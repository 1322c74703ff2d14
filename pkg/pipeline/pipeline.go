// Package pipeline renders org charts to files with caching.
//
// It is the shared core of the CLI commands and the HTTP viewer:
//
//  1. Load: read an entity tree from JSON
//  2. Draw: mount a [chart.Chart], apply the requested collapse state and
//     settle its transitions
//  3. Render: paint the frame in each requested format
//
// [Runner.Animate] additionally replays a script of actions (toggles,
// expand-all, collapse-all) and renders one SVG per animation frame.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Render(ctx, tree, pipeline.Options{Formats: []string{"svg", "json"}})
//	svg := res.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/chart"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/render/svg"
)

// Defaults shared by the CLI and the HTTP viewer.
const (
	DefaultWidth    = chart.DefaultViewportWidth
	DefaultHeight   = chart.DefaultViewportHeight
	DefaultTheme    = "default"
	DefaultFPS      = 30
	DefaultDuration = 500 * time.Millisecond
	MaxFPS          = 120
)

// Output formats.
const (
	FormatSVG      = "svg"
	FormatJSON     = "json"
	FormatDOT      = "dot"
	FormatGraphviz = "graphviz"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatJSON:     true,
	FormatDOT:      true,
	FormatGraphviz: true,
}

// Options configures one render or animation.
type Options struct {
	// Chart geometry
	SiblingSpacing float64 `json:"sibling_spacing,omitempty"`
	DepthSpacing   float64 `json:"depth_spacing,omitempty"`
	Width          float64 `json:"width,omitempty"`
	Height         float64 `json:"height,omitempty"`

	// Collapse state applied before rendering. Entries are node ids,
	// optionally prefixed with "ancestor:".
	Collapsed   []string `json:"collapsed,omitempty"`
	CollapseAll bool     `json:"collapse_all,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Theme    string   `json:"theme,omitempty"`
	Viewer   bool     `json:"viewer,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Title    string   `json:"title,omitempty"`

	// Animation options
	FPS      int           `json:"fps,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`

	// Runtime options (not serialized)
	Refresh  bool        `json:"-"`
	Endpoint string      `json:"-"`
	Logger   *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a render.
type Result struct {
	// TreeHash is the content hash of the input tree.
	TreeHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit is set when every artifact came from the cache.
	CacheHit bool
}

// Stats contains render statistics.
type Stats struct {
	Entities   int
	Visible    int
	RenderTime time.Duration
}

// ValidateFormats checks every format against [ValidFormats].
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f, ValidFormats); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks options and fills defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	if o.FPS == 0 {
		o.FPS = DefaultFPS
	}
	if o.Duration == 0 {
		o.Duration = DefaultDuration
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if _, ok := svg.Themes[o.Theme]; !ok {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown theme %q", o.Theme)
	}
	if o.FPS < 0 || o.FPS > MaxFPS {
		return errors.New(errors.ErrCodeInvalidConfig, "fps must be between 1 and %d, got %d", MaxFPS, o.FPS)
	}
	if o.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "duration cannot be negative")
	}
	o.validated = true
	return nil
}

// ChartConfig translates the options into chart geometry.
func (o *Options) ChartConfig() chart.Config {
	cfg := chart.DefaultConfig()
	if o.SiblingSpacing > 0 {
		cfg.SiblingSpacing = o.SiblingSpacing
	}
	if o.DepthSpacing > 0 {
		cfg.DepthSpacing = o.DepthSpacing
	}
	cfg.ViewportWidth, cfg.ViewportHeight = o.Width, o.Height
	cfg.Duration = o.Duration
	return cfg
}

// SVGOptions returns the sink options for the svg format.
func (o *Options) SVGOptions() []svg.Option {
	opts := []svg.Option{svg.WithTheme(svg.Themes[o.Theme])}
	if o.Viewer {
		opts = append(opts, svg.WithViewer(o.Endpoint))
	}
	if o.Title != "" {
		opts = append(opts, svg.WithTitle(o.Title))
	}
	return opts
}

// ArtifactKeyOpts returns the cache key options for format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:         format,
		Theme:          o.Theme,
		SiblingSpacing: o.SiblingSpacing,
		DepthSpacing:   o.DepthSpacing,
		Width:          o.Width,
		Height:         o.Height,
		Collapsed:      o.Collapsed,
		CollapseAll:    o.CollapseAll,
		Viewer:         o.Viewer,
		Detailed:       o.Detailed,
	}
}

// AnimationKeyOpts returns the cache key options for an animation.
func (o *Options) AnimationKeyOpts(actions []string) cache.AnimationKeyOpts {
	k := cache.AnimationKeyOpts{
		ArtifactKeyOpts: o.ArtifactKeyOpts(FormatSVG),
		Actions:         actions,
		FPS:             o.FPS,
	}
	k.Format = fmt.Sprintf("%s@%s", FormatSVG, o.Duration)
	return k
}
