package vsadjust

import (
	"math"

	"github.com/samber/lo"
)

// LevelsOptions controls FixLevels and FixRangeLevels.
type LevelsOptions struct {
	Config

	// Endpoints are per-plane sequences; nil means not supplied. A shorter sequence
	// repeats its last value. Values with magnitude <= 1 are ratios of the plane scale
	// unless NativeScale is set.
	MinIn  []float64
	MinOut []float64
	MaxIn  []float64
	MaxOut []float64

	// InputDepth declares that endpoints above 1 are integer codes at this bit depth.
	// Zero means native codes for integer planes and 8-bit codes for float planes.
	InputDepth int
	// NativeScale disables ratio detection: every endpoint is taken as a native sample value.
	NativeScale bool
	// Planes selects planes to process, luma only when nil.
	Planes []int
}

func (o *LevelsOptions) anyEndpoint() bool {
	return o.MinIn != nil || o.MinOut != nil || o.MaxIn != nil || o.MaxOut != nil
}

// Levels is a resolved transform for one plane in its native sample scale:
//
//	out = clamp(((in - MinIn) / (MaxIn - MinIn)) ^ Gamma * (MaxOut - MinOut) + MinOut, MinOut, MaxOut)
type Levels struct {
	MinIn, MaxIn   float64
	MinOut, MaxOut float64
	Gamma          float64
	Format         Format
}

// Apply evaluates the transfer function at v. Inputs outside [MinIn, MaxIn] saturate.
func (l Levels) Apply(v float64) float64 {
	var t float64
	switch {
	case l.MaxIn == l.MinIn:
		if v >= l.MaxIn {
			t = 1
		}
	default:
		t = clampf((v-l.MinIn)/(l.MaxIn-l.MinIn), 0, 1)
	}
	return clampf(powf(t, l.Gamma)*(l.MaxOut-l.MinOut)+l.MinOut, l.MinOut, l.MaxOut)
}

// IsIdentity reports whether the transform leaves every sample unchanged.
func (l Levels) IsIdentity() bool {
	return l.Gamma == 1 && l.MinIn == l.MinOut && l.MaxIn == l.MaxOut
}

// lut tabulates the transform over every integer code.
func (l Levels) lut() []float32 {
	n := int(l.Format.MaxCode()) + 1
	out := make([]float32, n)
	for i := range out {
		out[i] = roundCode(l.Apply(float64(i)), l.Format)
	}
	return out
}

func (l Levels) applyPlane(src *Plane, table []float32) *Plane {
	dst := NewPlane(src.Width, src.Height, src.Format)
	if src.Format.Float {
		for i, v := range src.Pix {
			dst.Pix[i] = float32(l.Apply(float64(v)))
		}
		return dst
	}
	if table == nil {
		table = l.lut()
	}
	last := len(table) - 1
	for i, v := range src.Pix {
		idx := int(math.Round(float64(v)))
		if idx < 0 {
			idx = 0
		} else if idx > last {
			idx = last
		}
		dst.Pix[i] = table[idx]
	}
	return dst
}

// PlaneLevels binds a transform to a plane index.
type PlaneLevels struct {
	Plane  int
	Levels Levels
}

// LevelsPlan is the set of transforms FixLevels will apply.
type LevelsPlan struct {
	Planes []PlaneLevels
	// SharedChroma is set when every selected chroma plane resolved to the same
	// transform, in which case one lookup table serves all of them.
	SharedChroma bool
}

// Apply runs the plan against f and returns a new frame; unselected planes are shared with f.
func (p *LevelsPlan) Apply(f *Frame) *Frame {
	out := f.withPlanes()
	var chromaTable []float32
	for _, pl := range p.Planes {
		var table []float32
		if p.SharedChroma && f.IsChroma(pl.Plane) && !pl.Levels.Format.Float {
			if chromaTable == nil {
				chromaTable = pl.Levels.lut()
			}
			table = chromaTable
		}
		out.Planes[pl.Plane] = pl.Levels.applyPlane(f.Planes[pl.Plane], table)
	}
	return out
}

func levelsOptions(opts []func(o *LevelsOptions)) LevelsOptions {
	o := LevelsOptions{Config: DefaultConfig()}
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

// FixLevels remaps plane levels from [MinIn, MaxIn] to [MinOut, MaxOut] with a gamma curve.
// Missing input endpoints default to the output endpoints, then to the range black and
// white points; missing output endpoints default to the resolved input endpoints.
// With no endpoints at all it behaves as FixRangeLevels.
func FixLevels(f *Frame, opts ...func(o *LevelsOptions)) (*Frame, error) {
	plan, err := BuildLevels(f, opts...)
	if err != nil {
		return nil, err
	}
	return plan.Apply(f), nil
}

// FixRangeLevels applies a pure gamma curve anchored at the black and white points of
// the configured range, or of the frame's own range when Config.Range is unspecified.
func FixRangeLevels(f *Frame, opts ...func(o *LevelsOptions)) (*Frame, error) {
	plan, err := buildRangeLevels(f, levelsOptions(opts))
	if err != nil {
		return nil, err
	}
	return plan.Apply(f), nil
}

// BuildLevels resolves the per-plane transforms without touching samples.
func BuildLevels(f *Frame, opts ...func(o *LevelsOptions)) (*LevelsPlan, error) {
	o := levelsOptions(opts)
	if !o.anyEndpoint() {
		return buildRangeLevels(f, o)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := o.Config.validate(); err != nil {
		return nil, err
	}
	planes, err := normalizePlanes(o.Planes, f.NumPlanes(), []int{0})
	if err != nil {
		return nil, err
	}

	n := f.NumPlanes()
	minIn, minOut := o.resolve(f, o.MinIn, n), o.resolve(f, o.MinOut, n)
	maxIn, maxOut := o.resolve(f, o.MaxIn, n), o.resolve(f, o.MaxOut, n)
	rng := o.Config.rangeFor(f)

	plan := &LevelsPlan{}
	for _, i := range planes {
		low, peak := f.PlaneReference(i, rng)
		l := Levels{Gamma: o.Gamma, Format: f.Planes[i].Format}
		l.MinIn = firstOf(minIn, minOut, i, low)
		l.MaxIn = firstOf(maxIn, maxOut, i, peak)
		l.MinOut = firstOf(minOut, nil, i, l.MinIn)
		l.MaxOut = firstOf(maxOut, nil, i, l.MaxIn)
		plan.Planes = append(plan.Planes, PlaneLevels{Plane: i, Levels: l})
	}
	plan.SharedChroma = sharedChroma(f, plan.Planes)
	logPlan(f, plan)
	return plan, nil
}

func buildRangeLevels(f *Frame, o LevelsOptions) (*LevelsPlan, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := o.Config.validate(); err != nil {
		return nil, err
	}
	planes, err := normalizePlanes(o.Planes, f.NumPlanes(), []int{0})
	if err != nil {
		return nil, err
	}
	rng := o.Config.rangeFor(f)
	plan := &LevelsPlan{}
	for _, i := range planes {
		low, peak := f.PlaneReference(i, rng)
		plan.Planes = append(plan.Planes, PlaneLevels{Plane: i, Levels: Levels{
			MinIn: low, MinOut: low, MaxIn: peak, MaxOut: peak,
			Gamma: o.Gamma, Format: f.Planes[i].Format,
		}})
	}
	plan.SharedChroma = sharedChroma(f, plan.Planes)
	logPlan(f, plan)
	return plan, nil
}

// resolve expands one endpoint sequence to n planes in native scale, nil stays nil.
func (o *LevelsOptions) resolve(f *Frame, values []float64, n int) []float64 {
	if values == nil {
		return nil
	}
	out := NormalizeSeq(values, n)
	for i, v := range out {
		p := f.Planes[i]
		chroma := f.IsChroma(i)
		switch {
		case o.NativeScale:
		case math.Abs(v) <= 1:
			out[i] = ratioToNative(v, p.Format, chroma)
		case o.InputDepth > 0:
			out[i] = ScaleValue(v, o.InputDepth, p.Format, chroma)
		case p.Format.Float:
			out[i] = ScaleValue(v, 8, p.Format, chroma)
		}
	}
	return out
}

func firstOf(primary, secondary []float64, i int, def float64) float64 {
	if primary != nil {
		return primary[i]
	}
	if secondary != nil {
		return secondary[i]
	}
	return def
}

func sharedChroma(f *Frame, planes []PlaneLevels) bool {
	chroma := lo.Filter(planes, func(p PlaneLevels, _ int) bool { return f.IsChroma(p.Plane) })
	if len(chroma) < 2 {
		return false
	}
	return len(lo.UniqBy(chroma, func(p PlaneLevels) Levels { return p.Levels })) == 1
}

func logPlan(f *Frame, plan *LevelsPlan) {
	l := Logger()
	for _, p := range plan.Planes {
		l.Debug("levels resolved",
			"plane", p.Plane, "chroma", f.IsChroma(p.Plane),
			"min_in", p.Levels.MinIn, "max_in", p.Levels.MaxIn,
			"min_out", p.Levels.MinOut, "max_out", p.Levels.MaxOut,
			"gamma", p.Levels.Gamma)
	}
}
