// Package transition animates reconciliation plans on a scene surface.
//
// A [Coordinator] turns each [reconcile.Plan] into a [Run]: entering
// elements are attached at their start state, and every [Coordinator.Tick]
// interpolates all live runs at the current time. A run reaches its end
// state after the coordinator's duration; only then are its exiting
// elements detached.
//
// Runs never cancel each other. When a newer run touches a key that an
// older run is still animating, the newer run takes the key over from its
// current state and the older run leaves it alone from then on, so a node
// re-expanded mid-exit simply turns around instead of vanishing.
package transition

import (
	"context"
	"time"

	"github.com/matzehuels/orgchart/pkg/reconcile"
	"github.com/matzehuels/orgchart/pkg/scene"
)

// DefaultDuration is the motion duration of nodes and connectors.
const DefaultDuration = 500 * time.Millisecond

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// CubicInOut is a symmetric cubic easing, offered as an alternative.
func CubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	f := 2*t - 2
	return 0.5*f*f*f + 1
}

type track struct {
	key      scene.Key
	from, to scene.State
	exit     bool
}

// Run is one animated plan.
type Run struct {
	ID      uint64
	Start   time.Time
	Enter   int
	Update  int
	Exit    int
	surface *scene.Surface
	tracks  []track
	done    bool
}

// Done reports whether the run reached its end state.
func (r *Run) Done() bool { return r.done }

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDuration sets the motion duration. Zero applies plans instantly.
func WithDuration(d time.Duration) Option {
	return func(c *Coordinator) { c.duration = d }
}

// WithEasing replaces linear interpolation with any monotonic easing.
func WithEasing(e Easing) Option {
	return func(c *Coordinator) { c.easing = e }
}

// WithClock sets the time source.
func WithClock(clk Clock) Option {
	return func(c *Coordinator) { c.clock = clk }
}

// WithOnDone registers a callback invoked once per finished run.
func WithOnDone(fn func(*Run, time.Duration)) Option {
	return func(c *Coordinator) { c.onDone = fn }
}

// Coordinator drives runs. It is not safe for concurrent use.
type Coordinator struct {
	duration time.Duration
	easing   Easing
	clock    Clock
	onDone   func(*Run, time.Duration)
	nextID   uint64
	runs     []*Run
}

// NewCoordinator returns a coordinator with linear easing, the default
// duration and the system clock.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{duration: DefaultDuration, easing: Linear, clock: SystemClock}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Duration returns the motion duration.
func (c *Coordinator) Duration() time.Duration { return c.duration }

// Clock returns the time source.
func (c *Coordinator) Clock() Clock { return c.clock }

// Start claims every key of plan on s and begins a run at the current
// time.
func (c *Coordinator) Start(s *scene.Surface, plan reconcile.Plan) (*Run, error) {
	c.nextID++
	run := &Run{
		ID:      c.nextID,
		Start:   c.clock.Now(),
		Enter:   len(plan.Enter),
		Update:  len(plan.Update),
		Exit:    len(plan.Exit),
		surface: s,
	}

	for _, ch := range plan.Enter {
		if err := s.Attach(element(ch, run.ID)); err != nil {
			return nil, err
		}
		run.tracks = append(run.tracks, track{key: ch.Key, from: ch.From, to: ch.To})
	}
	for _, ch := range plan.Update {
		el, ok := s.Lookup(ch.Key)
		if !ok {
			if err := s.Attach(element(ch, run.ID)); err != nil {
				return nil, err
			}
		} else {
			el.Owner = run.ID
			el.Exiting = false
			el.Parent = ch.Parent
			if ch.Target != nil {
				el.Node, el.Connector = ch.Target.Node, ch.Target.Connector
			}
		}
		run.tracks = append(run.tracks, track{key: ch.Key, from: ch.From, to: ch.To})
	}
	for _, ch := range plan.Exit {
		el, ok := s.Lookup(ch.Key)
		if !ok {
			continue
		}
		el.Owner = run.ID
		el.Exiting = true
		run.tracks = append(run.tracks, track{key: ch.Key, from: ch.From, to: ch.To, exit: true})
	}

	c.runs = append(c.runs, run)
	if c.duration <= 0 {
		c.Tick(run.Start)
	}
	return run, nil
}

func element(ch reconcile.Change, owner uint64) *scene.Element {
	el := &scene.Element{Key: ch.Key, Parent: ch.Parent, State: ch.From, Owner: owner}
	if ch.Target != nil {
		el.Node, el.Connector = ch.Target.Node, ch.Target.Connector
	}
	return el
}

// Tick advances every live run to now and returns how many are still
// running.
func (c *Coordinator) Tick(now time.Time) int {
	var live, finished []*Run
	for _, run := range c.runs {
		if run.surface.Disposed() {
			continue
		}
		c.step(run, now)
		if run.done {
			finished = append(finished, run)
			continue
		}
		live = append(live, run)
	}
	c.runs = live
	if c.onDone != nil {
		for _, run := range finished {
			c.onDone(run, now.Sub(run.Start))
		}
	}
	return len(c.runs)
}

func (c *Coordinator) step(run *Run, now time.Time) {
	progress := 1.0
	if c.duration > 0 {
		progress = float64(now.Sub(run.Start)) / float64(c.duration)
	}
	if progress < 0 {
		progress = 0
	}
	finished := progress >= 1
	eased := 1.0
	if !finished {
		eased = c.easing(progress)
	}

	for _, tr := range run.tracks {
		el, ok := run.surface.Lookup(tr.key)
		if !ok || el.Owner != run.ID {
			continue
		}
		if finished {
			if tr.exit {
				run.surface.Detach(tr.key)
				continue
			}
			el.State = tr.to
			continue
		}
		el.State = scene.Lerp(tr.from, tr.to, eased)
	}
	run.done = finished
}

// Idle reports whether no run is in flight.
func (c *Coordinator) Idle() bool { return len(c.runs) == 0 }

// Active returns the number of runs in flight.
func (c *Coordinator) Active() int { return len(c.runs) }

// Deadline returns when the last live run ends.
func (c *Coordinator) Deadline() time.Time {
	var end time.Time
	for _, run := range c.runs {
		if t := run.Start.Add(c.duration); t.After(end) {
			end = t
		}
	}
	return end
}

// Settle runs every live run to completion at once.
func (c *Coordinator) Settle() {
	if !c.Idle() {
		c.Tick(c.Deadline())
	}
}

// Reset forgets all runs without touching any surface.
func (c *Coordinator) Reset() {
	c.runs = nil
}

// Animate ticks at the given interval until no run is left or ctx ends.
// onFrame is called after every tick with the tick time.
func (c *Coordinator) Animate(ctx context.Context, interval time.Duration, onFrame func(time.Time)) error {
	if interval <= 0 {
		interval = time.Second / 60
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !c.Idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := c.clock.Now()
			c.Tick(now)
			if onFrame != nil {
				onFrame(now)
			}
		}
	}
	return nil
}
