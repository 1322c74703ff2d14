package scene

import (
	"testing"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/orgtree"
)

func TestKeyString(t *testing.T) {
	if got := NodeKey(orgtree.Descendant, "a").String(); got != "node/descendant/a" {
		t.Errorf("String() = %q", got)
	}
	if got := ConnectorKey(orgtree.Ancestor, "p").String(); got != "link/ancestor/p" {
		t.Errorf("String() = %q", got)
	}
	if !(Key{}).IsZero() || NodeKey(orgtree.Descendant, "a").IsZero() {
		t.Error("IsZero mismatch")
	}
}

func TestSurfacePaintOrder(t *testing.T) {
	s := NewSurface()
	_ = s.Attach(&Element{Key: NodeKey(orgtree.Descendant, "b")})
	_ = s.Attach(&Element{Key: ConnectorKey(orgtree.Descendant, "b")})
	_ = s.Attach(&Element{Key: NodeKey(orgtree.Descendant, "a")})

	els := s.Elements()
	if len(els) != 3 {
		t.Fatalf("Elements() len = %d", len(els))
	}
	if els[0].Key.Kind != KindConnector {
		t.Errorf("connectors paint first, got %v", els[0].Key)
	}
	if els[1].Key.ID != "b" || els[2].Key.ID != "a" {
		t.Errorf("nodes should keep attach order, got %v %v", els[1].Key, els[2].Key)
	}

	// Re-attaching keeps the original slot.
	_ = s.Attach(&Element{Key: NodeKey(orgtree.Descendant, "b"), State: State{Opacity: 1}})
	if els := s.Elements(); els[1].Key.ID != "b" || els[1].State.Opacity != 1 {
		t.Errorf("re-attach moved or lost the element: %+v", els[1])
	}
}

func TestSurfaceDispose(t *testing.T) {
	s := NewSurface()
	_ = s.Attach(&Element{Key: NodeKey(orgtree.Descendant, "a")})
	s.Dispose()

	if s.Len() != 0 || !s.Disposed() {
		t.Errorf("Len() = %d, Disposed() = %v", s.Len(), s.Disposed())
	}
	err := s.Attach(&Element{Key: NodeKey(orgtree.Descendant, "b")})
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Attach after Dispose error = %v", err)
	}
}

func TestSnapshotCopies(t *testing.T) {
	s := NewSurface()
	e := &Element{Key: NodeKey(orgtree.Descendant, "a"), State: State{Position: geom.Point{X: 1}}}
	_ = s.Attach(e)
	f := s.Snapshot(ViewBox{Width: 10, Height: 10})

	e.State.Position.X = 99
	got, ok := f.Node(NodeKey(orgtree.Descendant, "a"))
	if !ok || got.State.Position.X != 1 {
		t.Errorf("snapshot should not alias the surface, got %+v", got)
	}
	if f.ViewBox.String() != "0 0 10 10" {
		t.Errorf("ViewBox = %q", f.ViewBox.String())
	}
}

func TestLerpState(t *testing.T) {
	a := State{Position: geom.Point{X: 0, Y: 0}, Opacity: 0}
	b := State{Position: geom.Point{X: 10, Y: 20}, Opacity: 1}

	mid := Lerp(a, b, 0.5)
	if mid.Position != (geom.Point{X: 5, Y: 10}) || mid.Opacity != 0.5 {
		t.Errorf("Lerp(0.5) = %+v", mid)
	}
	if Lerp(a, b, 1) != b {
		t.Errorf("Lerp(1) = %+v", Lerp(a, b, 1))
	}
}
