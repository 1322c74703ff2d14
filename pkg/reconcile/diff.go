package reconcile

import (
	"github.com/matzehuels/orgchart/pkg/geom"
	"github.com/matzehuels/orgchart/pkg/route"
	"github.com/matzehuels/orgchart/pkg/scene"
)

// Rendered is the surface a diff runs against.
type Rendered interface {
	Lookup(k scene.Key) (*scene.Element, bool)
	Keys() []scene.Key
}

// Input is one diff request.
type Input struct {
	// Previous is the last generation handed to Diff; nil on first paint.
	Previous *Generation
	// Rendered is the live surface, including elements still animating
	// out. Nil means "exactly Previous, fully settled".
	Rendered Rendered
	Next     *Generation
}

// Change moves one element from one state to another.
type Change struct {
	Key    scene.Key
	Parent scene.Key
	From   scene.State
	To     scene.State
	// Target carries the paint data of entering and updating elements.
	// Exits keep whatever the surface already has.
	Target *Target
}

// Plan is the partition of all old and new keys.
type Plan struct {
	Enter  []Change
	Update []Change
	Exit   []Change
}

// Len returns the total number of changes.
func (p Plan) Len() int { return len(p.Enter) + len(p.Update) + len(p.Exit) }

// Keys returns the keys of one partition.
func Keys(changes []Change) []scene.Key {
	out := make([]scene.Key, len(changes))
	for i, c := range changes {
		out[i] = c.Key
	}
	return out
}

// Diff partitions the keys of in.Previous/in.Rendered and in.Next.
//
// Entering elements start at the previous position of their nearest
// ancestor that was already laid out, or at the origin on first paint,
// with zero opacity. Updating elements start wherever the surface has them.
// Exiting elements head for the new position of their nearest surviving
// ancestor and fade out.
//
// Diff also threads previous positions forward: every node of in.Next gets
// its Previous set to where it was, or to its entry anchor.
func Diff(in Input) Plan {
	var plan Plan
	old := oldKeys(in)

	for _, t := range in.Next.Targets() {
		t := t
		if _, ok := old[t.Key]; ok {
			from := currentState(in, t.Key)
			plan.Update = append(plan.Update, Change{Key: t.Key, Parent: t.Parent, From: from, To: t.State, Target: &t})
			if n, ok := in.Next.HierarchyNode(t.Key); ok {
				n.Previous = from.Position
				if p, ok := in.Previous.Position(t.Key); ok {
					n.Previous = p
				}
			}
			continue
		}

		anchor := enterAnchor(in, t)
		from := scene.State{Position: anchor, Path: route.Collapsed(anchor), Opacity: 0}
		plan.Enter = append(plan.Enter, Change{Key: t.Key, Parent: t.Parent, From: from, To: t.State, Target: &t})
		if n, ok := in.Next.HierarchyNode(t.Key); ok {
			n.Previous = anchor
		}
	}

	for _, k := range orderedOld(in) {
		if in.Next.Has(k) {
			continue
		}
		from := currentState(in, k)
		anchor := exitAnchor(in, k)
		to := scene.State{Position: anchor, Path: route.Collapsed(anchor), Opacity: 0}
		plan.Exit = append(plan.Exit, Change{Key: k, Parent: parentOf(in, k), From: from, To: to})
	}
	return plan
}

func oldKeys(in Input) map[scene.Key]struct{} {
	old := make(map[scene.Key]struct{})
	if in.Rendered != nil {
		for _, k := range in.Rendered.Keys() {
			old[k] = struct{}{}
		}
		return old
	}
	for _, k := range in.Previous.Keys() {
		old[k] = struct{}{}
	}
	return old
}

// orderedOld lists old keys deterministically: previous build order first,
// then any rendered leftovers in key order.
func orderedOld(in Input) []scene.Key {
	old := oldKeys(in)
	out := make([]scene.Key, 0, len(old))
	seen := make(map[scene.Key]bool, len(old))
	for _, k := range in.Previous.Keys() {
		if _, ok := old[k]; ok {
			out = append(out, k)
			seen[k] = true
		}
	}
	var rest []scene.Key
	for k := range old {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	scene.SortKeys(rest)
	return append(out, rest...)
}

func currentState(in Input, k scene.Key) scene.State {
	if in.Rendered != nil {
		if e, ok := in.Rendered.Lookup(k); ok {
			return e.State
		}
	}
	if t, ok := in.Previous.Lookup(k); ok {
		return t.State
	}
	return scene.State{}
}

func parentOf(in Input, k scene.Key) scene.Key {
	if t, ok := in.Previous.Lookup(k); ok {
		return t.Parent
	}
	if in.Rendered != nil {
		if e, ok := in.Rendered.Lookup(k); ok {
			return e.Parent
		}
	}
	return scene.Key{}
}

// enterAnchor walks up the new tree until it finds a node that was laid
// out before and returns that node's previous position.
func enterAnchor(in Input, t Target) geom.Point {
	for k := t.Parent; !k.IsZero(); {
		if p, ok := in.Previous.Position(k); ok {
			return p
		}
		next, ok := in.Next.Lookup(k)
		if !ok {
			break
		}
		k = next.Parent
	}
	return geom.Origin
}

// exitAnchor walks up the old tree until it finds a node that survives and
// returns that node's new position.
func exitAnchor(in Input, k scene.Key) geom.Point {
	for p := parentOf(in, k); !p.IsZero(); p = parentOf(in, p) {
		if pos, ok := in.Next.Position(p); ok {
			return pos
		}
	}
	return geom.Origin
}
