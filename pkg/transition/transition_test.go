package transition

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/matzehuels/orgchart/pkg/layout"
	"github.com/matzehuels/orgchart/pkg/orgtree"
	"github.com/matzehuels/orgchart/pkg/reconcile"
	"github.com/matzehuels/orgchart/pkg/route"
	"github.com/matzehuels/orgchart/pkg/scene"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	model   *orgtree.Model
	surface *scene.Surface
	clock   *ManualClock
	coord   *Coordinator
	prev    *reconcile.Generation
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	m, err := orgtree.NewModel(&orgtree.Entity{ID: "r", Children: []*orgtree.Entity{
		{ID: "a", Children: []*orgtree.Entity{{ID: "a1"}, {ID: "a2"}}},
		{ID: "b"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	clk := NewManualClock(t0)
	return &fixture{
		model:   m,
		surface: scene.NewSurface(),
		clock:   clk,
		coord:   NewCoordinator(append([]Option{WithClock(clk)}, opts...)...),
	}
}

func (f *fixture) update(t *testing.T) *Run {
	t.Helper()
	h := f.model.Hierarchy()
	layout.ApplyHierarchy(h, layout.Options{SiblingSpacing: 100, DepthSpacing: 80})
	next := reconcile.Build(h, route.AnnexOptions{SiblingSpacing: 100, DepthSpacing: 80, NodeWidth: 60, NodeHeight: 30})
	plan := reconcile.Diff(reconcile.Input{Previous: f.prev, Rendered: f.surface, Next: next})
	f.prev = next
	run, err := f.coord.Start(f.surface, plan)
	if err != nil {
		t.Fatal(err)
	}
	return run
}

func (f *fixture) opacity(id string) (float64, bool) {
	el, ok := f.surface.Lookup(scene.NodeKey(orgtree.Descendant, id))
	if !ok {
		return 0, false
	}
	return el.State.Opacity, true
}

func TestEnterFadesInLinearly(t *testing.T) {
	f := newFixture(t)
	f.update(t)

	if op, ok := f.opacity("a1"); !ok || op != 0 {
		t.Fatalf("a1 opacity at start = %v (attached %v)", op, ok)
	}

	f.coord.Tick(f.clock.Advance(DefaultDuration / 2))
	if op, _ := f.opacity("a1"); math.Abs(op-0.5) > 1e-9 {
		t.Errorf("a1 opacity at D/2 = %v, want 0.5", op)
	}
	el, _ := f.surface.Lookup(scene.NodeKey(orgtree.Descendant, "a1"))
	target, _ := f.prev.Position(scene.NodeKey(orgtree.Descendant, "a1"))
	if math.Abs(el.State.Position.X-target.X/2) > 1e-9 {
		t.Errorf("a1 x at D/2 = %v, want %v", el.State.Position.X, target.X/2)
	}

	if left := f.coord.Tick(f.clock.Advance(DefaultDuration / 2)); left != 0 {
		t.Errorf("runs left = %d", left)
	}
	if op, _ := f.opacity("a1"); op != 1 {
		t.Errorf("a1 opacity at D = %v", op)
	}
	if el, _ := f.surface.Lookup(scene.NodeKey(orgtree.Descendant, "a1")); el.State.Position != target {
		t.Errorf("a1 at %v, want %v", el.State.Position, target)
	}
}

func TestExitDetachesOnlyAtDuration(t *testing.T) {
	f := newFixture(t)
	f.update(t)
	f.coord.Settle()

	_ = f.model.Collapse(orgtree.Descendant, "a")
	f.update(t)

	f.coord.Tick(f.clock.Advance(DefaultDuration - time.Millisecond))
	op, ok := f.opacity("a1")
	if !ok {
		t.Fatal("a1 detached before the transition finished")
	}
	if op <= 0 || op >= 0.01 {
		t.Errorf("a1 opacity just before D = %v", op)
	}
	if _, ok := f.surface.Lookup(scene.ConnectorKey(orgtree.Descendant, "a1")); !ok {
		t.Fatal("connector into a1 detached early")
	}

	f.coord.Tick(f.clock.Advance(time.Millisecond))
	if _, ok := f.opacity("a1"); ok {
		t.Error("a1 still attached at D")
	}
	if _, ok := f.surface.Lookup(scene.ConnectorKey(orgtree.Descendant, "a1")); ok {
		t.Error("connector into a1 still attached at D")
	}
	if got := f.surface.Len(); got != 5 {
		t.Errorf("surface has %d elements, want r,a,b plus 2 connectors", got)
	}
}

func TestReexpandMidExitRestarts(t *testing.T) {
	f := newFixture(t)
	f.update(t)
	f.coord.Settle()

	_ = f.model.Collapse(orgtree.Descendant, "a")
	f.update(t)
	f.coord.Tick(f.clock.Advance(DefaultDuration / 2))
	mid, _ := f.opacity("a1")

	_ = f.model.Expand(orgtree.Descendant, "a")
	second := f.update(t)
	if second.Enter != 0 {
		t.Errorf("re-expanding mid-exit entered %d elements, want updates only", second.Enter)
	}
	if f.coord.Active() != 2 {
		t.Fatalf("Active() = %d, want both runs in flight", f.coord.Active())
	}

	// The collapse run finishes here but no longer owns a1.
	f.coord.Tick(f.clock.Advance(DefaultDuration / 2))
	op, ok := f.opacity("a1")
	if !ok {
		t.Fatal("a1 removed by the superseded run")
	}
	if op <= mid {
		t.Errorf("a1 opacity %v should be rising from %v", op, mid)
	}

	f.coord.Tick(f.clock.Advance(DefaultDuration / 2))
	if op, _ := f.opacity("a1"); op != 1 {
		t.Errorf("a1 opacity after restart = %v", op)
	}
	if !f.coord.Idle() {
		t.Error("coordinator should be idle")
	}
}

func TestZeroDurationAppliesInstantly(t *testing.T) {
	f := newFixture(t, WithDuration(0))
	run := f.update(t)

	if !run.Done() || !f.coord.Idle() {
		t.Errorf("zero-duration run should finish in Start")
	}
	if op, _ := f.opacity("a2"); op != 1 {
		t.Errorf("a2 opacity = %v", op)
	}
}

func TestOnDoneAndDisposedSurface(t *testing.T) {
	var done []uint64
	f := newFixture(t, WithOnDone(func(r *Run, _ time.Duration) { done = append(done, r.ID) }))
	f.update(t)
	f.coord.Settle()
	if len(done) != 1 {
		t.Fatalf("onDone calls = %v", done)
	}

	_ = f.model.Collapse(orgtree.Descendant, "a")
	f.update(t)
	f.surface.Dispose()
	f.coord.Tick(f.clock.Advance(time.Millisecond))
	if !f.coord.Idle() {
		t.Error("runs on a disposed surface should be dropped")
	}
	if len(done) != 1 {
		t.Errorf("dropped runs should not report done, got %v", done)
	}
}

func TestAnimate(t *testing.T) {
	f := newFixture(t, WithDuration(30*time.Millisecond), WithClock(SystemClock))
	f.update(t)

	frames := 0
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.coord.Animate(ctx, 5*time.Millisecond, func(time.Time) { frames++ }); err != nil {
		t.Fatalf("Animate() error = %v", err)
	}
	if frames == 0 || !f.coord.Idle() {
		t.Errorf("frames = %d idle = %v", frames, f.coord.Idle())
	}
}

func TestEasings(t *testing.T) {
	for _, e := range []Easing{Linear, CubicInOut} {
		if e(0) != 0 || e(1) != 1 {
			t.Errorf("easing endpoints = %v, %v", e(0), e(1))
		}
		prev := 0.0
		for i := 1; i <= 10; i++ {
			v := e(float64(i) / 10)
			if v < prev {
				t.Errorf("easing not monotonic at %d", i)
			}
			prev = v
		}
	}
}
