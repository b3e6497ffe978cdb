package vsadjust

// Format describes the sample representation of a plane.
type Format struct {
	Bits  int  // 8..16 for integer planes, 32 for float planes
	Float bool // float planes hold normalized samples
}

// FormatFloat is the 32-bit float sample format.
var FormatFloat = Format{Bits: 32, Float: true}

// IntegerFormat returns an integer sample format with the given bit depth.
func IntegerFormat(bits int) Format {
	return Format{Bits: bits}
}

// MaxCode returns the largest integer code of the format, or 1 for float formats.
func (f Format) MaxCode() float64 {
	if f.Float {
		return 1
	}
	return float64(int(1)<<f.Bits - 1)
}

func (f Format) validate() error {
	if f.Float {
		if f.Bits != 32 {
			return newError(ErrCodeInvalidInput, "float planes must be 32-bit, got %d", f.Bits)
		}
		return nil
	}
	if f.Bits < minIntegerBits || f.Bits > maxIntegerBits {
		return newError(ErrCodeInvalidInput, "integer bit depth must be in [%d, %d], got %d",
			minIntegerBits, maxIntegerBits, f.Bits)
	}
	return nil
}

// Plane is a single channel of a frame. Samples are stored row-major without padding:
// integer planes hold integral codes, float planes hold normalized values.
type Plane struct {
	Width  int
	Height int
	Format Format
	Pix    []float32
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int, f Format) *Plane {
	return &Plane{Width: width, Height: height, Format: f, Pix: make([]float32, width*height)}
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) float32 { return p.Pix[y*p.Width+x] }

// Set stores the sample at (x, y).
func (p *Plane) Set(x, y int, v float32) { p.Pix[y*p.Width+x] = v }

// Row returns the samples of row y.
func (p *Plane) Row(y int) []float32 { return p.Pix[y*p.Width : (y+1)*p.Width] }

// Clone returns a deep copy of the plane.
func (p *Plane) Clone() *Plane {
	out := *p
	out.Pix = append([]float32(nil), p.Pix...)
	return &out
}

// Fill sets every sample to v.
func (p *Plane) Fill(v float32) {
	for i := range p.Pix {
		p.Pix[i] = v
	}
}

func (p *Plane) validate() error {
	if p == nil {
		return newError(ErrCodeInvalidInput, "nil plane")
	}
	if p.Width <= 0 || p.Height <= 0 {
		return newError(ErrCodeInvalidInput, "invalid plane dimensions %dx%d", p.Width, p.Height)
	}
	if len(p.Pix) != p.Width*p.Height {
		return newError(ErrCodeInvalidInput, "plane holds %d samples, want %d", len(p.Pix), p.Width*p.Height)
	}
	return p.Format.validate()
}

func (p *Plane) equal(o *Plane) bool {
	if p.Width != o.Width || p.Height != o.Height || p.Format != o.Format {
		return false
	}
	for i, v := range p.Pix {
		if o.Pix[i] != v {
			return false
		}
	}
	return true
}

// Frame is a multi-plane image with its colorimetry tags.
type Frame struct {
	Family    ColorFamily
	Planes    []*Plane
	Range     ColorRange
	Matrix    Matrix
	Transfer  Transfer
	Primaries Primaries
}

// NewFrame validates planes against family and returns an untagged frame.
// Gray frames carry one plane, YUV and RGB frames carry three.
func NewFrame(family ColorFamily, planes ...*Plane) (*Frame, error) {
	f := &Frame{
		Family:    family,
		Planes:    planes,
		Matrix:    MatrixUnspecified,
		Transfer:  TransferUnspecified,
		Primaries: PrimariesUnspecified,
	}
	if family == FamilyRGB {
		f.Matrix = MatrixRGB
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks plane count, dimensions and formats.
func (f *Frame) Validate() error {
	if f == nil {
		return newError(ErrCodeInvalidInput, "nil frame")
	}
	want := 3
	if f.Family == FamilyGray {
		want = 1
	}
	if len(f.Planes) != want {
		return newError(ErrCodeInvalidInput, "%s frame needs %d planes, got %d", f.Family, want, len(f.Planes))
	}
	for i, p := range f.Planes {
		if err := p.validate(); err != nil {
			return wrapError(ErrCodeInvalidInput, err, "plane %d", i)
		}
		if p.Format.Float != f.Planes[0].Format.Float {
			return newError(ErrCodeInvalidInput, "plane %d mixes float and integer samples", i)
		}
	}
	return nil
}

// Width returns the width of the first plane.
func (f *Frame) Width() int { return f.Planes[0].Width }

// Height returns the height of the first plane.
func (f *Frame) Height() int { return f.Planes[0].Height }

// NumPlanes returns the number of planes.
func (f *Frame) NumPlanes() int { return len(f.Planes) }

// IsChroma reports whether plane i carries colour difference samples.
func (f *Frame) IsChroma(i int) bool {
	return f.Family == FamilyYUV && i > 0
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := f.withPlanes()
	for i, p := range out.Planes {
		out.Planes[i] = p.Clone()
	}
	return out
}

// withPlanes copies the frame header and plane list; planes are shared until replaced.
func (f *Frame) withPlanes() *Frame {
	out := *f
	out.Planes = append([]*Plane(nil), f.Planes...)
	return &out
}

// Equal reports whether both frames carry identical tags and samples.
func (f *Frame) Equal(o *Frame) bool {
	if f == o {
		return true
	}
	if f == nil || o == nil {
		return false
	}
	if f.Family != o.Family || f.Range != o.Range || f.Matrix != o.Matrix ||
		f.Transfer != o.Transfer || f.Primaries != o.Primaries || len(f.Planes) != len(o.Planes) {
		return false
	}
	for i, p := range f.Planes {
		if !p.equal(o.Planes[i]) {
			return false
		}
	}
	return true
}
