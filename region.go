package vsadjust

import "math"

// Region delimits a rectangle by its distance in pixels from each edge of the luma plane.
type Region struct {
	Left, Right, Top, Bottom int
}

// rowRegion returns the one-row band at row r of a plane with height h.
func rowRegion(r, h int) Region {
	return Region{Top: r, Bottom: h - r - 1}
}

// columnRegion returns the one-column band at column c of a plane with width w.
func columnRegion(c, w int) Region {
	return Region{Left: c, Right: w - c - 1}
}

// scaled converts luma margins to a plane subsampled by sx horizontally and sy vertically.
// scaled maps a luma region of a w×h frame onto a plane subsampled by sx, sy with size
// pw×ph. The far edges round up so every covered luma line keeps its chroma line.
func (r Region) scaled(sx, sy, w, h, pw, ph int) Region {
	return Region{
		Left:   r.Left / sx,
		Right:  max(pw-ceilDiv(w-r.Right, sx), 0),
		Top:    r.Top / sy,
		Bottom: max(ph-ceilDiv(h-r.Bottom, sy), 0),
	}
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func (r Region) bounds(w, h int) (x0, y0, x1, y1 int, err error) {
	if r.Left < 0 || r.Right < 0 || r.Top < 0 || r.Bottom < 0 {
		return 0, 0, 0, 0, newError(ErrCodeInvalidInput, "negative region margins %+v", r)
	}
	x0, y0, x1, y1 = r.Left, r.Top, w-r.Right, h-r.Bottom
	if x0 >= x1 || y0 >= y1 {
		return 0, 0, 0, 0, newError(ErrCodeInvalidInput, "region %+v is empty on a %dx%d plane", r, w, h)
	}
	return x0, y0, x1, y1, nil
}

// Crop copies the region of p into a new plane.
func (p *Plane) Crop(r Region) (*Plane, error) {
	x0, y0, x1, y1, err := r.bounds(p.Width, p.Height)
	if err != nil {
		return nil, err
	}
	out := NewPlane(x1-x0, y1-y0, p.Format)
	for y := y0; y < y1; y++ {
		copy(out.Row(y-y0), p.Row(y)[x0:x1])
	}
	return out, nil
}

// Paste copies src into p with its top-left corner at (x, y).
func (p *Plane) Paste(src *Plane, x, y int) {
	for sy := 0; sy < src.Height; sy++ {
		copy(p.Row(y + sy)[x:x+src.Width], src.Row(sy))
	}
}

// subsampling returns the horizontal and vertical subsampling factors of plane i.
// Subsampled sizes round up, so a 5x5 frame with 3x3 chroma is 4:2:0.
func (f *Frame) subsampling(i int) (sx, sy int) {
	p := f.Planes[i]
	return subsamplingFactor(f.Width(), p.Width), subsamplingFactor(f.Height(), p.Height)
}

func subsamplingFactor(luma, plane int) int {
	for _, s := range []int{1, 2, 4} {
		if (luma+s-1)/s == plane {
			return s
		}
	}
	return max(luma/plane, 1)
}

// ApplyRegion runs fn on the region of f and pastes the result back; samples outside the
// region are passed through. Margins are in luma pixels and are scaled for subsampled planes.
// fn must return planes with the dimensions it was given.
func ApplyRegion(f *Frame, r Region, fn func(*Frame) (*Frame, error)) (*Frame, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if r.Left < 0 || r.Right < 0 || r.Top < 0 || r.Bottom < 0 {
		return nil, newError(ErrCodeInvalidInput, "negative region margins %+v", r)
	}
	crop := f.withPlanes()
	origins := make([][2]int, len(f.Planes))
	for i, p := range f.Planes {
		sx, sy := f.subsampling(i)
		pr := r.scaled(sx, sy, f.Width(), f.Height(), p.Width, p.Height)
		c, err := p.Crop(pr)
		if err != nil {
			return nil, wrapError(ErrCodeInvalidInput, err, "plane %d", i)
		}
		crop.Planes[i] = c
		origins[i] = [2]int{pr.Left, pr.Top}
	}

	done, err := fn(crop)
	if err != nil {
		return nil, err
	}

	out := f.withPlanes()
	for i, c := range done.Planes {
		if c == crop.Planes[i] {
			continue
		}
		if c.Width != crop.Planes[i].Width || c.Height != crop.Planes[i].Height {
			return nil, newError(ErrCodeInvalidInput, "region function changed plane %d size from %dx%d to %dx%d",
				i, crop.Planes[i].Width, crop.Planes[i].Height, c.Width, c.Height)
		}
		dst := f.Planes[i].Clone()
		dst.Paste(c, origins[i][0], origins[i][1])
		out.Planes[i] = dst
	}
	return out, nil
}

// LineAdjustment brightens (positive) or darkens (negative) one row or column.
// Adjustment must lie in the open interval (-100, 100). Negative lines count from the
// bottom or right edge.
type LineAdjustment struct {
	Line       int
	Adjustment float64
}

// LineMap is an ordered list of line adjustments; entries apply in order.
type LineMap []LineAdjustment

// FixLineBrightness corrects darkened or brightened luma rows and columns with level
// adjustments. A positive adjustment moves the input white point down by
// adjustment/100 of the black-to-white span, a negative one moves the input black point
// up by the same share. Rows apply before columns, each entry on the output of the
// previous one, so overlapping bands compound.
//
// When an entry is rejected, the frame corrected by the preceding entries is returned
// together with the error.
func FixLineBrightness(f *Frame, rows, columns LineMap, opts ...func(o *LevelsOptions)) (*Frame, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	o := levelsOptions(opts)
	if err := o.Config.validate(); err != nil {
		return nil, err
	}

	luma := &Frame{
		Family: FamilyGray, Planes: []*Plane{f.Planes[0]},
		Range: o.Config.rangeFor(f), Matrix: f.Matrix, Transfer: f.Transfer, Primaries: f.Primaries,
	}
	low, peak := luma.PlaneReference(0, RangeUnspecified)
	lf := &lineFixer{gamma: o.Gamma, low: low, peak: peak}

	result := func(err error) (*Frame, error) {
		if luma.Planes[0] == f.Planes[0] {
			return f, err
		}
		out := f.withPlanes()
		out.Planes[0] = luma.Planes[0]
		return out, err
	}

	for _, e := range rows {
		next, err := lf.fix(luma, true, e)
		if err != nil {
			return result(err)
		}
		luma = next
	}
	for _, e := range columns {
		next, err := lf.fix(luma, false, e)
		if err != nil {
			return result(err)
		}
		luma = next
	}
	return result(nil)
}

type lineFixer struct {
	gamma     float64
	low, peak float64
}

func (lf *lineFixer) fix(f *Frame, isRow bool, e LineAdjustment) (*Frame, error) {
	axis, dim := "column", f.Width()
	if isRow {
		axis, dim = "row", f.Height()
	}
	if math.IsNaN(e.Adjustment) || e.Adjustment <= -adjustmentLimit || e.Adjustment >= adjustmentLimit {
		return nil, newError(ErrCodeInvalidInput, "%s %d: adjustment %v must be in (-100, 100)", axis, e.Line, e.Adjustment)
	}
	line := e.Line
	if line < 0 {
		line += dim
	}
	if line < 0 || line >= dim {
		return nil, newError(ErrCodeInvalidInput, "%s %d out of range for size %d", axis, e.Line, dim)
	}
	if e.Adjustment == 0 {
		return f, nil
	}

	span := (lf.peak - lf.low) * e.Adjustment / 100
	levels := func(o *LevelsOptions) {
		o.Gamma = lf.gamma
		o.Range = f.Range
		o.NativeScale = true
		if e.Adjustment > 0 {
			o.MaxIn = []float64{lf.peak - span}
			o.MaxOut = []float64{lf.peak}
		} else {
			o.MinIn = []float64{lf.low - span}
			o.MinOut = []float64{lf.low}
		}
	}

	r := columnRegion(line, dim)
	if isRow {
		r = rowRegion(line, dim)
	}
	Logger().Debug("line brightness", "axis", axis, "line", line, "adjustment", e.Adjustment)
	return ApplyRegion(f, r, func(c *Frame) (*Frame, error) {
		return FixLevels(c, levels)
	})
}
