package vsadjust

import (
	"slices"

	"github.com/samber/lo"
)

// NormalizeSeq expands values to exactly n entries. A shorter sequence is padded by
// repeating its last value, so a single scalar applies to every plane; an empty
// sequence yields zero values. Extra entries are dropped.
func NormalizeSeq[T any](values []T, n int) []T {
	out := make([]T, n)
	if len(values) == 0 {
		return out
	}
	for i := range out {
		if i < len(values) {
			out[i] = values[i]
		} else {
			out[i] = values[len(values)-1]
		}
	}
	return out
}

// Margins is a per-plane border request in pixels measured inward from each edge.
type Margins struct {
	Left, Right, Top, Bottom int
}

// IsZero reports whether no border is requested.
func (m Margins) IsZero() bool {
	return m == Margins{}
}

func (m Margins) values() []int {
	return []int{m.Left, m.Right, m.Top, m.Bottom}
}

// NormalizeMargins expands per-axis margin sequences to n planes and transposes them into
// per-plane tuples. Any negative margin fails the whole request.
func NormalizeMargins(left, right, top, bottom []int, n int) ([]Margins, error) {
	axes := [][]int{
		NormalizeSeq(left, n),
		NormalizeSeq(right, n),
		NormalizeSeq(top, n),
		NormalizeSeq(bottom, n),
	}
	if lo.SomeBy(lo.Flatten(axes), func(v int) bool { return v < 0 }) {
		return nil, newError(ErrCodeInvalidInput, "negative margins are not allowed: left=%v right=%v top=%v bottom=%v",
			left, right, top, bottom)
	}
	out := make([]Margins, n)
	for i := range out {
		out[i] = Margins{Left: axes[0][i], Right: axes[1][i], Top: axes[2][i], Bottom: axes[3][i]}
	}
	return out, nil
}

// AllZero reports whether every margin tuple is empty.
func AllZero(ms []Margins) bool {
	return lo.EveryBy(ms, Margins.IsZero)
}

// normalizePlanes validates a plane selection against n planes, returning sorted unique
// indexes. A nil selection yields def.
func normalizePlanes(planes []int, n int, def []int) ([]int, error) {
	if planes == nil {
		planes = def
	}
	out := lo.Uniq(planes)
	slices.Sort(out)
	for _, p := range out {
		if p < 0 || p >= n {
			return nil, newError(ErrCodeInvalidInput, "plane index %d out of range [0, %d)", p, n)
		}
	}
	return out, nil
}

func allPlanes(n int) []int {
	return lo.Range(n)
}
