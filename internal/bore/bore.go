// Package bore implements border deringing by balancing each border line against its
// inner neighbour. Lines are processed from the innermost border line outwards, so every
// line is matched against an already corrected reference.
package bore

import "math"

// Plane is a mutable view of one image channel.
type Plane struct {
	Width, Height int
	Pix           []float32
	// Lo and Hi bound corrected samples.
	Lo, Hi float64
	// Integer rounds corrected samples to whole codes.
	Integer bool
}

// Params describes the border request for one plane.
type Params struct {
	Left, Right, Top, Bottom int
	// Mask excludes samples with non-zero values from the fit, len(Mask) == Width*Height.
	Mask []float32

	// Lower and Upper limit the per-sample ratio accepted by the limited variant.
	Lower, Upper float64
	// Sigma is the similarity scale of the weighted variant, relative to Hi-Lo.
	Sigma float64
}

// Defaults for the limited and weighted variants.
const (
	DefaultLower = 0.5
	DefaultUpper = 2.0
	DefaultSigma = 0.1
)

// weightFunc returns the fit weight of a (current, reference) pair, 0 excludes it.
type weightFunc func(cur, ref float64) float64

// SinglePlane multiplies every border line by the least squares ratio to its inner neighbour.
func SinglePlane(p Plane, prm Params) {
	run(p, prm, func(cur, _ float64) float64 { return 1 })
}

// SinglePlaneLimited is SinglePlane restricted to sample pairs whose ratio lies within
// [Lower, Upper]; the resulting multiplier is clamped to the same interval.
func SinglePlaneLimited(p Plane, prm Params) {
	lower, upper := prm.Lower, prm.Upper
	if lower <= 0 {
		lower = DefaultLower
	}
	if upper <= 0 {
		upper = DefaultUpper
	}
	run(p, prm, func(cur, ref float64) float64 {
		if cur == 0 {
			return 0
		}
		r := ref / cur
		if r < lower || r > upper {
			return 0
		}
		return 1
	}, func(m float64) float64 {
		return math.Min(math.Max(m, lower), upper)
	})
}

// SinglePlaneWeighted weights each pair by exp(-d²/2σ²) where d is their difference.
func SinglePlaneWeighted(p Plane, prm Params) {
	sigma := prm.Sigma
	if sigma <= 0 {
		sigma = DefaultSigma
	}
	s := sigma * (p.Hi - p.Lo)
	den := 2 * s * s
	run(p, prm, func(cur, ref float64) float64 {
		d := ref - cur
		return math.Exp(-d * d / den)
	})
}

func run(p Plane, prm Params, weight weightFunc, limit ...func(float64) float64) {
	b := balancer{p: p, mask: prm.Mask, weight: weight}
	if len(limit) > 0 {
		b.limit = limit[0]
	}
	for y := prm.Top - 1; y >= 0; y-- {
		b.balance(b.row(y), b.row(y+1))
	}
	for y := p.Height - prm.Bottom; y < p.Height; y++ {
		b.balance(b.row(y), b.row(y-1))
	}
	for x := prm.Left - 1; x >= 0; x-- {
		b.balance(b.column(x), b.column(x+1))
	}
	for x := p.Width - prm.Right; x < p.Width; x++ {
		b.balance(b.column(x), b.column(x-1))
	}
}

type balancer struct {
	p      Plane
	mask   []float32
	weight weightFunc
	limit  func(float64) float64
}

// row and column return sample offsets of a line.
func (b balancer) row(y int) []int {
	idx := make([]int, b.p.Width)
	for x := range idx {
		idx[x] = y*b.p.Width + x
	}
	return idx
}

func (b balancer) column(x int) []int {
	idx := make([]int, b.p.Height)
	for y := range idx {
		idx[y] = y*b.p.Width + x
	}
	return idx
}

func (b balancer) balance(cur, ref []int) {
	var num, den float64
	for i, c := range cur {
		if b.mask != nil && (b.mask[c] != 0 || b.mask[ref[i]] != 0) {
			continue
		}
		cv, rv := float64(b.p.Pix[c]), float64(b.p.Pix[ref[i]])
		w := b.weight(cv, rv)
		num += w * cv * rv
		den += w * cv * cv
	}
	if den == 0 {
		return
	}
	m := num / den
	if b.limit != nil {
		m = b.limit(m)
	}
	for _, c := range cur {
		v := float64(b.p.Pix[c]) * m
		if b.p.Integer {
			v = math.Round(v)
		}
		b.p.Pix[c] = float32(math.Min(math.Max(v, b.p.Lo), b.p.Hi))
	}
}
