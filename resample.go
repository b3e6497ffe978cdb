package vsadjust

import (
	"image"
	"image/color"
	"math"

	"github.com/nfnt/resize"
)

// PointResampler is the built-in Resampler. It converts between limited and full range,
// changes dimensions with nearest neighbour scaling and updates tags. Transfer and
// primaries conversions are done for gray and RGB frames with known curves and gamuts,
// anything else, including every matrix conversion, is reported as unsupported.
type PointResampler struct{}

// Resample implements Resampler.
func (PointResampler) Resample(f, template *Frame, args ResampleArgs) (*Frame, error) {
	return resample(f, template, args, scalePlane)
}

// KernelResampler is PointResampler with a selectable scaling kernel. Samples are
// filtered at full precision and rounded once for integer planes.
type KernelResampler struct {
	Interpolation Interpolation
}

// Resample implements Resampler.
func (k KernelResampler) Resample(f, template *Frame, args ResampleArgs) (*Frame, error) {
	if k.Interpolation == InterpolationNearest {
		return resample(f, template, args, scalePlane)
	}
	def := kernelFor(k.Interpolation)
	return resample(f, template, args, func(p *Plane, w, h int, _ bool) *Plane {
		dst := NewPlane(w, h, p.Format)
		dst.Pix = resampleSamples(p.Pix, p.Width, p.Height, w, h, def)
		if !p.Format.Float {
			for i, v := range dst.Pix {
				dst.Pix[i] = roundCode(float64(v), p.Format)
			}
		}
		return dst
	})
}

type scaleFunc func(p *Plane, w, h int, chroma bool) *Plane

func resample(f, template *Frame, args ResampleArgs, scale scaleFunc) (*Frame, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if template == nil {
		template = f
	}
	if len(template.Planes) != len(f.Planes) {
		return nil, newError(ErrCodeInvalidInput, "template has %d planes, frame has %d", len(template.Planes), len(f.Planes))
	}
	if args.Matrix != nil && *args.Matrix != f.Matrix {
		return nil, newError(ErrCodeUnsupported, "matrix conversion %d -> %d", int(f.Matrix), int(*args.Matrix))
	}
	cp, err := planColorimetry(f, args)
	if err != nil {
		return nil, err
	}

	out := f.withPlanes()
	if cp != nil {
		cp.apply(f, out)
	}
	if args.Transfer != nil {
		out.Transfer = *args.Transfer
	}
	if args.Primaries != nil {
		out.Primaries = *args.Primaries
	}

	if args.Range != nil {
		from, to := RangeFromFrame(f), *args.Range
		if to != RangeUnspecified && to != from {
			for i, p := range out.Planes {
				if p.Format.Float {
					continue
				}
				out.Planes[i] = convertRange(p, f.IsChroma(i), from, to, args.Dither)
			}
		}
		out.Range = to
	}

	for i, p := range out.Planes {
		t := template.Planes[i]
		if t.Width != p.Width || t.Height != p.Height {
			out.Planes[i] = scale(p, t.Width, t.Height, f.IsChroma(i))
		}
	}
	return out, nil
}

// convertRange maps samples linearly from one range's black/white points onto another's.
func convertRange(p *Plane, chroma bool, from, to ColorRange, dither DitherType) *Plane {
	l := Levels{
		MinIn: Lowest(p.Format, chroma, from), MaxIn: Peak(p.Format, chroma, from),
		MinOut: Lowest(p.Format, chroma, to), MaxOut: Peak(p.Format, chroma, to),
		Gamma: 1, Format: p.Format,
	}
	if dither != DitherErrorDiffusion {
		return l.applyPlane(p, nil)
	}

	dst := NewPlane(p.Width, p.Height, p.Format)
	// Floyd-Steinberg, carrying errors in two row buffers.
	cur := make([]float64, p.Width+2)
	next := make([]float64, p.Width+2)
	for y := 0; y < p.Height; y++ {
		src, row := p.Row(y), dst.Row(y)
		for x, v := range src {
			want := l.Apply(float64(v)) + cur[x+1]
			q := roundCode(want, p.Format)
			row[x] = q
			e := want - float64(q)
			cur[x+2] += e * 7 / 16
			next[x] += e * 3 / 16
			next[x+1] += e * 5 / 16
			next[x+2] += e * 1 / 16
		}
		cur, next = next, cur
		for i := range next {
			next[i] = 0
		}
	}
	return dst
}

// scalePlane resizes p with nearest neighbour interpolation. Float samples travel through
// 16-bit codes spanning the plane's nominal interval.
func scalePlane(p *Plane, w, h int, chroma bool) *Plane {
	lo, hi := 0.0, 1.0
	if p.Format.Float && chroma {
		lo, hi = floatChromaLow, floatChromaPeak
	}

	img := image.NewGray16(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x, v := range p.Row(y) {
			code := float64(v)
			if p.Format.Float {
				code = clampf((code-lo)/(hi-lo), 0, 1) * math.MaxUint16
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(code))})
		}
	}

	scaled := resize.Resize(uint(w), uint(h), img, resize.NearestNeighbor)

	dst := NewPlane(w, h, p.Format)
	b := scaled.Bounds()
	for y := 0; y < h; y++ {
		row := dst.Row(y)
		for x := range row {
			v := float64(color.Gray16Model.Convert(scaled.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16).Y)
			if p.Format.Float {
				v = lo + v/math.MaxUint16*(hi-lo)
			}
			row[x] = float32(v)
		}
	}
	return dst
}
