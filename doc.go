// Package vsadjust normalizes correction parameters for multi-plane video frames and
// applies level corrections to whole planes or to rectangular sub-regions.
//
// Level corrections are piecewise linear-plus-gamma remaps whose endpoints default to
// the black and white points of the frame's dynamic range. Line corrections confine the
// remap to single rows or columns and apply in order, so overlapping bands compound.
// Border corrections dispatch to pluggable deringing operations selected by kind, and
// colorspace conversions sequence tag overrides ahead of a Resampler call.
package vsadjust
