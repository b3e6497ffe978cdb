package vsadjust

import "github.com/samber/lo"

// Apply tags f with matrix m without touching samples.
func (m Matrix) Apply(f *Frame) *Frame {
	out := f.withPlanes()
	out.Matrix = m
	return out
}

// Apply tags f with transfer t without touching samples.
func (t Transfer) Apply(f *Frame) *Frame {
	out := f.withPlanes()
	out.Transfer = t
	return out
}

// Apply tags f with primaries p without touching samples.
func (p Primaries) Apply(f *Frame) *Frame {
	out := f.withPlanes()
	out.Primaries = p
	return out
}

// Apply tags f with range r without touching samples.
func (r ColorRange) Apply(f *Frame) *Frame {
	out := f.withPlanes()
	out.Range = r
	return out
}

// ResampleArgs lists the conversions requested from a Resampler. Nil axes are left alone.
type ResampleArgs struct {
	Matrix    *Matrix
	Transfer  *Transfer
	Primaries *Primaries
	Range     *ColorRange
	Dither    DitherType
}

// Resampler converts f to the dimensions and formats of template, applying the requested
// colorimetry conversions from the tags f carries.
type Resampler interface {
	Resample(f, template *Frame, args ResampleArgs) (*Frame, error)
}

// ColorspaceOptions controls ColorspaceConversion. Output values request a conversion,
// input values override the tag the conversion starts from.
type ColorspaceOptions struct {
	Matrix    *Matrix
	Transfer  *Transfer
	Primaries *Primaries
	Range     *ColorRange

	MatrixIn    *Matrix
	TransferIn  *Transfer
	PrimariesIn *Primaries
	RangeIn     *ColorRange

	Dither DitherType
	// Width and Height resize the output when set, subsampled planes keep their ratio.
	Width, Height int
	// Resampler performs the conversion, PointResampler when nil.
	Resampler Resampler
}

// ColorspaceConversion converts f to the requested matrix, transfer, primaries and range.
// For each requested axis a given input value first retags f, then the conversion is
// requested from the resampler in a single call. Axes without an output value are omitted.
func ColorspaceConversion(f *Frame, opts ...func(o *ColorspaceOptions)) (*Frame, error) {
	var o ColorspaceOptions
	for _, apply := range opts {
		apply(&o)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	work := f
	args := ResampleArgs{Dither: o.Dither}
	if o.Matrix != nil {
		if o.MatrixIn != nil {
			work = o.MatrixIn.Apply(work)
		}
		args.Matrix = o.Matrix
	}
	if o.Transfer != nil {
		if o.TransferIn != nil {
			work = o.TransferIn.Apply(work)
		}
		args.Transfer = o.Transfer
	}
	if o.Primaries != nil {
		if o.PrimariesIn != nil {
			work = o.PrimariesIn.Apply(work)
		}
		args.Primaries = o.Primaries
	}
	if o.Range != nil {
		if o.RangeIn != nil {
			work = o.RangeIn.Apply(work)
		}
		args.Range = o.Range
	}

	tmpl := work
	if o.Width != 0 || o.Height != 0 {
		if o.Width < 0 || o.Height < 0 {
			return nil, newError(ErrCodeInvalidInput, "invalid output size %dx%d", o.Width, o.Height)
		}
		tmpl = work.resized(o.Width, o.Height)
	}

	rs := o.Resampler
	if rs == nil {
		rs = PointResampler{}
	}
	return rs.Resample(work, tmpl, args)
}

// resized returns an empty frame shaped like f at w×h luma samples, 0 keeps a dimension.
func (f *Frame) resized(w, h int) *Frame {
	if w == 0 {
		w = f.Width()
	}
	if h == 0 {
		h = f.Height()
	}
	out := f.withPlanes()
	for i, p := range f.Planes {
		sx, sy := f.subsampling(i)
		out.Planes[i] = NewPlane((w+sx-1)/sx, (h+sy-1)/sy, p.Format)
	}
	return out
}

// FixDoubleRange repairs footage that was range-compressed twice: samples are expanded
// from limited to full range with error diffusion and the result is tagged limited again.
func FixDoubleRange(f *Frame, opts ...func(o *ColorspaceOptions)) (*Frame, error) {
	fix, err := ColorspaceConversion(f, append([]func(o *ColorspaceOptions){func(o *ColorspaceOptions) {
		o.RangeIn = lo.ToPtr(RangeLimited)
		o.Range = lo.ToPtr(RangeFull)
		o.Dither = DitherErrorDiffusion
	}}, opts...)...)
	if err != nil {
		return nil, err
	}
	return RangeLimited.Apply(fix), nil
}
