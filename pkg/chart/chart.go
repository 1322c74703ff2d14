// Package chart is the controller of an interactive org chart.
//
// A [Chart] owns the entity model, the rendered [scene.Surface] and a
// [transition.Coordinator]. Every state-changing command runs the same
// pipeline synchronously:
//
//	model -> layout -> route -> reconcile -> transition start
//
// and leaves the interpolation to the host, which calls [Chart.Tick] from
// its animation loop (or [Chart.Animate] to let the chart drive a ticker).
//
// A Chart is single-threaded: all commands and ticks must come from one
// goroutine, or be serialised by the caller.
package chart

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/observability"
	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/reconcile"
	"github.com/matzehuels/orgchart/pkg/route"
	"github.com/matzehuels/orgchart/pkg/scene"
	"github.com/matzehuels/orgchart/pkg/transition"
)

// Operation names passed to hooks and logs.
const (
	OpDraw        = "draw"
	OpExpandAll   = "expand-all"
	OpCollapseAll = "collapse-all"
	OpToggle      = "toggle"
)

// Options configures a new chart.
type Options struct {
	Tree *orgtree.Entity
	// Host is measured for the viewport at construction and on every full
	// rebuild. Without a host the configured viewport size is used.
	Host         Host
	HostSelector string
	OnClick      ClickFunc
	Config       Config
	Clock        transition.Clock
	Logger       *log.Logger
	Hooks        observability.ChartHooks
}

// Chart is one mounted org chart.
type Chart struct {
	cfg      Config
	model    *orgtree.Model
	host     Host
	selector string
	onClick  ClickFunc
	logger   *log.Logger
	hooks    observability.ChartHooks
	clock    transition.Clock

	surface *scene.Surface
	coord   *transition.Coordinator
	prev    *reconcile.Generation
	hier    *orgtree.Hierarchy
	viewBox scene.ViewBox

	lastNotice string
}

// New validates the tree, mounts the chart and paints the first
// generation. The first paint animates in from the origin.
func New(opts Options) (*Chart, error) {
	if opts.HostSelector != "" {
		if err := errors.ValidateSelector(opts.HostSelector); err != nil {
			return nil, err
		}
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	model, err := orgtree.NewModel(opts.Tree)
	if err != nil {
		return nil, err
	}

	c := &Chart{
		cfg:      opts.Config.withDefaults(),
		model:    model,
		host:     opts.Host,
		selector: opts.HostSelector,
		onClick:  opts.OnClick,
		logger:   opts.Logger,
		hooks:    opts.Hooks,
		clock:    opts.Clock,
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.cfg.BoxesOverlap() {
		c.logger.Warn("sibling spacing is narrower than a node, adjacent boxes will overlap",
			"siblingSpacing", c.cfg.SiblingSpacing, "nodeWidth", c.cfg.NodeWidth)
	}
	if c.hooks == nil {
		c.hooks = observability.Chart()
	}
	if c.clock == nil {
		c.clock = transition.SystemClock
	}
	if c.onClick == nil {
		c.onClick = c.defaultClick
	}
	c.coord = transition.NewCoordinator(
		transition.WithDuration(c.cfg.Duration),
		transition.WithClock(c.clock),
		transition.WithOnDone(func(r *transition.Run, d time.Duration) {
			c.hooks.OnTransitionComplete(r.Enter+r.Update+r.Exit, d)
		}),
	)

	if err := c.drawChart(OpDraw, nil); err != nil {
		return nil, err
	}
	return c, nil
}

// drawChart disposes the current surface, applies mutate to the model and
// paints a fresh surface.
func (c *Chart) drawChart(op string, mutate func()) error {
	if c.surface != nil {
		c.surface.Dispose()
	}
	c.surface = scene.NewSurface()
	c.coord.Reset()
	c.prev = nil

	if mutate != nil {
		mutate()
	}
	c.measure()
	return c.update(op)
}

func (c *Chart) measure() {
	w, h := c.cfg.ViewportWidth, c.cfg.ViewportHeight
	if c.host != nil {
		w, h = c.host.Measure()
	}
	if w <= 0 || h <= 0 {
		c.logger.Warn("degenerate viewport, nothing will be visible", "selector", c.selector, "width", w, "height", h)
		w, h = max(w, 0), max(h, 0)
	}
	top := -h / 3
	if c.model.Bidirectional() {
		top = -h / 2
	}
	c.viewBox = scene.ViewBox{X: -w / 2, Y: top, Width: w, Height: h}
}

// update runs layout, reconciliation and starts the transition.
func (c *Chart) update(op string) error {
	start := time.Now()
	h := c.model.Hierarchy()
	res := layout.ApplyHierarchy(h, layout.Options{
		SiblingSpacing: c.cfg.SiblingSpacing,
		DepthSpacing:   c.cfg.DepthSpacing,
	})
	c.hooks.OnLayout(op, res.Nodes, time.Since(start))

	next := reconcile.Build(h, c.annexOptions())
	plan := reconcile.Diff(reconcile.Input{Previous: c.prev, Rendered: c.surface, Next: next})
	c.hooks.OnReconcile(op, len(plan.Enter), len(plan.Update), len(plan.Exit))

	if _, err := c.coord.Start(c.surface, plan); err != nil {
		return err
	}
	c.prev, c.hier = next, h
	c.logger.Debug("chart updated", "op", op, "nodes", res.Nodes,
		"enter", len(plan.Enter), "update", len(plan.Update), "exit", len(plan.Exit))
	return nil
}

func (c *Chart) annexOptions() route.AnnexOptions {
	return route.AnnexOptions{
		SiblingSpacing: c.cfg.SiblingSpacing,
		DepthSpacing:   c.cfg.DepthSpacing,
		NodeWidth:      c.cfg.NodeWidth,
		NodeHeight:     c.cfg.NodeHeight,
	}
}

// ExpandAllNodes expands every node and repaints on a fresh surface.
func (c *Chart) ExpandAllNodes() error {
	return c.drawChart(OpExpandAll, c.model.ExpandAll)
}

// CollapseAllNodes collapses every non-root node and repaints on a fresh
// surface.
func (c *Chart) CollapseAllNodes() error {
	return c.drawChart(OpCollapseAll, c.model.CollapseAll)
}

// Toggle flips one node and animates the change from the node's previous
// position.
func (c *Chart) Toggle(role orgtree.Role, id string) (orgtree.State, error) {
	st, err := c.model.Toggle(role, id)
	if err != nil {
		return st, err
	}
	return st, c.update(OpToggle)
}

// PressButton handles a click on a node's expand/collapse control. Unlike
// [Chart.Toggle] it refuses nodes that show no control.
func (c *Chart) PressButton(role orgtree.Role, id string) (orgtree.State, error) {
	n := c.hier.Find(role, id)
	if n == nil {
		return orgtree.Expanded, errors.New(errors.ErrCodeNodeNotFound, "no visible %s node %q", role, id)
	}
	if !n.ShowToggle() {
		return n.State(), errors.New(errors.ErrCodeNoToggle, "node %q has no control", id)
	}
	return c.Toggle(role, id)
}

// Click forwards a node click to the callback.
func (c *Chart) Click(ev Event, role orgtree.Role, id string) error {
	n := c.hier.Find(role, id)
	if n == nil {
		return errors.New(errors.ErrCodeNodeNotFound, "no visible %s node %q", role, id)
	}
	if ev.Type == "" {
		ev.Type = "click"
	}
	if ev.Time.IsZero() {
		ev.Time = c.clock.Now()
	}
	c.onClick(ev, n)
	return nil
}

func (c *Chart) defaultClick(ev Event, n *orgtree.Node) {
	c.lastNotice = n.Entity.Label()
	c.logger.Info(c.lastNotice, "id", n.Key, "depth", n.Depth)
}

// LastNotice returns the display name surfaced by the default click
// callback.
func (c *Chart) LastNotice() string { return c.lastNotice }

// Tick advances running transitions to now and returns how many remain.
func (c *Chart) Tick(now time.Time) int { return c.coord.Tick(now) }

// Idle reports whether no transition is running.
func (c *Chart) Idle() bool { return c.coord.Idle() }

// Settle jumps every running transition to its end.
func (c *Chart) Settle() { c.coord.Settle() }

// Deadline returns when the running transitions end.
func (c *Chart) Deadline() time.Time { return c.coord.Deadline() }

// Animate ticks until all transitions finish, calling onFrame with a
// snapshot after each tick.
func (c *Chart) Animate(ctx context.Context, interval time.Duration, onFrame func(scene.Frame)) error {
	return c.coord.Animate(ctx, interval, func(time.Time) {
		if onFrame != nil {
			onFrame(c.Frame())
		}
	})
}

// Frame snapshots the rendered surface.
func (c *Chart) Frame() scene.Frame {
	f := c.surface.Snapshot(c.viewBox)
	f.Bidirectional = c.model.Bidirectional()
	return f
}

// ViewBox returns the viewport computed at the last full rebuild.
func (c *Chart) ViewBox() scene.ViewBox { return c.viewBox }

// Hierarchy returns the hierarchy of the last layout pass.
func (c *Chart) Hierarchy() *orgtree.Hierarchy { return c.hier }

// Model returns the entity model.
func (c *Chart) Model() *orgtree.Model { return c.model }

// Config returns the effective configuration.
func (c *Chart) Config() Config { return c.cfg }

// Selector returns the host selector the chart was mounted with.
func (c *Chart) Selector() string { return c.selector }
