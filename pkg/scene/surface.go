package scene

import (
	"sort"

	"github.com/matzehuels/orgchart/pkg/errors"
)

// Surface is the single root container a chart paints into.
//
// It is not safe for concurrent use; the chart drives it from one
// goroutine.
type Surface struct {
	elems    map[Key]*Element
	seq      uint64
	disposed bool
}

// NewSurface returns an empty surface.
func NewSurface() *Surface {
	return &Surface{elems: make(map[Key]*Element)}
}

// Attach adds e, replacing any element with the same key.
func (s *Surface) Attach(e *Element) error {
	if s.disposed {
		return errors.New(errors.ErrCodeInternal, "attach %s to a disposed surface", e.Key)
	}
	if old, ok := s.elems[e.Key]; ok {
		e.seq = old.seq
	} else {
		s.seq++
		e.seq = s.seq
	}
	s.elems[e.Key] = e
	return nil
}

// Detach removes the element with key k.
func (s *Surface) Detach(k Key) {
	delete(s.elems, k)
}

// Lookup returns the element with key k.
func (s *Surface) Lookup(k Key) (*Element, bool) {
	e, ok := s.elems[k]
	return e, ok
}

// Len returns the number of attached elements.
func (s *Surface) Len() int { return len(s.elems) }

// Keys returns every attached key in [Key.Less] order.
func (s *Surface) Keys() []Key {
	keys := make([]Key, 0, len(s.elems))
	for k := range s.elems {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// Elements returns the attached elements in paint order: connectors first
// so nodes cover their ends, then attach order within a kind.
func (s *Surface) Elements() []*Element {
	out := make([]*Element, 0, len(s.elems))
	for _, e := range s.elems {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Kind != out[j].Key.Kind {
			return out[i].Key.Kind == KindConnector
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Dispose empties the surface and refuses further attachments.
func (s *Surface) Dispose() {
	s.elems = make(map[Key]*Element)
	s.disposed = true
}

// Disposed reports whether Dispose was called.
func (s *Surface) Disposed() bool { return s.disposed }

// Snapshot copies the surface into a frame.
func (s *Surface) Snapshot(vb ViewBox) Frame {
	f := Frame{ViewBox: vb}
	for _, e := range s.Elements() {
		c := *e
		switch e.Key.Kind {
		case KindNode:
			f.Nodes = append(f.Nodes, c)
		case KindConnector:
			f.Connectors = append(f.Connectors, c)
		}
	}
	return f
}
