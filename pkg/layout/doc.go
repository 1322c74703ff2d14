// Package layout computes tidy-tree positions for an org chart hierarchy.
//
// [Apply] runs two passes over the visible part of a tree. The bottom-up
// pass places each node's children left to right, shifting every subtree
// right until it clears its left neighbours by SiblingSpacing, then centres
// the parent on the mean of its children. The top-down pass turns the
// relative offsets into absolute positions with the root at the origin and
// y = depth × DepthSpacing.
//
// Separation compares the full horizontal extents of sibling subtrees, so
// their bounding boxes never intersect. A leaf is never tucked under a
// wider neighbour, at the price of a wider chart than the classic
// contour-based tidy tree.
//
// Ancestor trees get the same layout with y negated so they grow upward
// from the focus.
//
// Collapsed subtrees are invisible to the layout: a collapsed node takes
// exactly one slot, as a leaf would.
package layout
