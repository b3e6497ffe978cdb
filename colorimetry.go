package vsadjust

import "math"

// transferCurve converts between encoded and linear light, both normalized to 0..1.
type transferCurve struct {
	toLinear, fromLinear func(float64) float64
}

func identityCurve(v float64) float64 { return v }

func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

// bt709ToLinear inverts the BT.709 OETF, shared by BT.601 and BT.2020.
func bt709ToLinear(v float64) float64 {
	if v < 0.081 {
		return v / 4.5
	}
	return math.Pow((v+0.099)/1.099, 1/0.45)
}

func linearToBT709(v float64) float64 {
	if v < 0.018 {
		return v * 4.5
	}
	return 1.099*math.Pow(v, 0.45) - 0.099
}

var transferCurves = map[Transfer]transferCurve{
	TransferLinear: {toLinear: identityCurve, fromLinear: identityCurve},
	TransferSRGB:   {toLinear: srgbToLinear, fromLinear: linearToSRGB},
	TransferBT709:  {toLinear: bt709ToLinear, fromLinear: linearToBT709},
	TransferBT601:  {toLinear: bt709ToLinear, fromLinear: linearToBT709},
}

type mat3 [3][3]float64

func (m mat3) apply(r, g, b float64) (float64, float64, float64) {
	return m[0][0]*r + m[0][1]*g + m[0][2]*b,
		m[1][0]*r + m[1][1]*g + m[1][2]*b,
		m[2][0]*r + m[2][1]*g + m[2][2]*b
}

// gamut holds D65 linear RGB <-> XYZ matrices.
type gamut struct {
	toXYZ, fromXYZ mat3
}

var gamuts = map[Primaries]gamut{
	PrimariesBT709: {
		toXYZ: mat3{
			{0.4123908, 0.35758433, 0.1804808},
			{0.212639, 0.71516865, 0.07219232},
			{0.019330818, 0.11919478, 0.95053214},
		},
		fromXYZ: mat3{
			{3.24097, -1.5373832, -0.49861076},
			{-0.96924365, 1.8759675, 0.041555058},
			{0.05563008, -0.20397696, 1.0569715},
		},
	},
	PrimariesDisplayP3: {
		toXYZ: mat3{
			{0.48657095, 0.2656677, 0.19821729},
			{0.22897457, 0.69173855, 0.07928691},
			{0, 0.04511338, 1.0439444},
		},
		fromXYZ: mat3{
			{2.493497, -0.9313836, -0.4027108},
			{-0.829489, 1.7626641, 0.023624685},
			{0.03584583, -0.07617239, 0.9568845},
		},
	},
	PrimariesBT2020: {
		toXYZ: mat3{
			{0.63695805, 0.14461690, 0.16888098},
			{0.26270021, 0.67799807, 0.05930172},
			{0, 0.02807269, 1.06098506},
		},
		fromXYZ: mat3{
			{1.71665119, -0.35567078, -0.25336628},
			{-0.66668435, 1.61648124, 0.01576855},
			{0.01763986, -0.04277061, 0.94210312},
		},
	},
}

// colorimetryPlan describes a per-sample conversion of the non-YUV planes of a frame.
type colorimetryPlan struct {
	decode, encode func(float64) float64
	gamut          *mat3
}

// planColorimetry validates the requested transfer and primaries conversions against the
// tags of f. A nil plan means nothing to do.
func planColorimetry(f *Frame, args ResampleArgs) (*colorimetryPlan, error) {
	transfer := args.Transfer != nil && *args.Transfer != f.Transfer
	primaries := args.Primaries != nil && *args.Primaries != f.Primaries
	if !transfer && !primaries {
		return nil, nil
	}
	if f.Family == FamilyYUV {
		return nil, newError(ErrCodeUnsupported, "colorimetry conversion of YUV frames, convert the matrix first")
	}

	for i, p := range f.Planes {
		if p.Width != f.Width() || p.Height != f.Height() {
			return nil, newError(ErrCodeUnsupported, "colorimetry conversion of subsampled plane %d", i)
		}
	}

	// Primaries conversions happen in linear light, so a known transfer is needed either way.
	src, ok := transferCurves[f.Transfer]
	if !ok {
		return nil, newError(ErrCodeUnsupported, "transfer %d has no known curve", int(f.Transfer))
	}
	dstTransfer := f.Transfer
	if args.Transfer != nil {
		dstTransfer = *args.Transfer
	}
	dst, ok := transferCurves[dstTransfer]
	if !ok {
		return nil, newError(ErrCodeUnsupported, "transfer conversion %d -> %d", int(f.Transfer), int(dstTransfer))
	}
	plan := &colorimetryPlan{decode: src.toLinear, encode: dst.fromLinear}

	if primaries {
		if f.Family != FamilyRGB {
			return nil, newError(ErrCodeUnsupported, "primaries conversion needs an RGB frame, got %s", f.Family)
		}
		from, okFrom := gamuts[f.Primaries]
		to, okTo := gamuts[*args.Primaries]
		if !okFrom || !okTo {
			return nil, newError(ErrCodeUnsupported, "primaries conversion %d -> %d", int(f.Primaries), int(*args.Primaries))
		}
		var m mat3
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				for k := 0; k < 3; k++ {
					m[i][j] += to.fromXYZ[i][k] * from.toXYZ[k][j]
				}
			}
		}
		plan.gamut = &m
	}
	return plan, nil
}

// apply converts the planes of f in place of out. Samples are normalized with the
// black and white points of the frame range and written back at the same scale.
func (c *colorimetryPlan) apply(f, out *Frame) {
	rng := RangeFromFrame(f)
	planes := make([]*Plane, len(f.Planes))
	norm := make([][2]float64, len(f.Planes))
	for i, p := range f.Planes {
		planes[i] = NewPlane(p.Width, p.Height, p.Format)
		low, peak := f.PlaneReference(i, rng)
		norm[i] = [2]float64{low, peak - low}
	}
	decode := func(i, j int) float64 {
		return c.decode((float64(f.Planes[i].Pix[j]) - norm[i][0]) / norm[i][1])
	}
	encode := func(i, j int, v float64) {
		v = c.encode(clampf(v, 0, 1))*norm[i][1] + norm[i][0]
		p := planes[i]
		if !p.Format.Float {
			v = float64(roundCode(v, p.Format))
		}
		p.Pix[j] = float32(v)
	}

	n := len(f.Planes[0].Pix)
	parallelFor(n, func(start, end int) {
		for j := start; j < end; j++ {
			if c.gamut == nil || len(planes) < 3 {
				for i := range planes {
					encode(i, j, decode(i, j))
				}
				continue
			}
			r, g, b := c.gamut.apply(decode(0, j), decode(1, j), decode(2, j))
			encode(0, j, r)
			encode(1, j, g)
			encode(2, j, b)
		}
	})
	copy(out.Planes, planes)
}
