package vsadjust

// Lowest returns the black point of a plane with format f under range r.
// Float planes ignore r: luma spans 0..1 and chroma -0.5..0.5.
// RangeUnspecified is treated as limited.
func Lowest(f Format, chroma bool, r ColorRange) float64 {
	if f.Float {
		if chroma {
			return floatChromaLow
		}
		return 0
	}
	if r == RangeFull {
		return 0
	}
	return float64(limitedLowCode << (f.Bits - 8))
}

// Peak returns the white point of a plane with format f under range r.
func Peak(f Format, chroma bool, r ColorRange) float64 {
	if f.Float {
		if chroma {
			return floatChromaPeak
		}
		return 1
	}
	if r == RangeFull {
		return f.MaxCode()
	}
	if chroma {
		return float64(limitedChromaPeakCode << (f.Bits - 8))
	}
	return float64(limitedLumaPeakCode << (f.Bits - 8))
}

// RangeFromFrame returns the range tag of f, or the conventional range of its
// family when the tag is unspecified: full for RGB, limited otherwise.
func RangeFromFrame(f *Frame) ColorRange {
	if f.Range != RangeUnspecified {
		return f.Range
	}
	if f.Family == FamilyRGB {
		return RangeFull
	}
	return RangeLimited
}

// PlaneReference returns the black and white points of plane i of f under r.
// RangeUnspecified falls back to the frame's own range.
func (f *Frame) PlaneReference(i int, r ColorRange) (low, peak float64) {
	if r == RangeUnspecified {
		r = RangeFromFrame(f)
	}
	p := f.Planes[i]
	chroma := f.IsChroma(i)
	return Lowest(p.Format, chroma, r), Peak(p.Format, chroma, r)
}

// ScaleValue converts an integer code at fromBits into the native scale of format to.
// Chroma codes are offset around the neutral code before normalization.
func ScaleValue(v float64, fromBits int, to Format, chroma bool) float64 {
	if to.Float {
		fromMax := float64(int(1)<<fromBits - 1)
		if chroma {
			return (v - float64(chromaNeutralCode<<(fromBits-8))) / fromMax
		}
		return v / fromMax
	}
	shift := to.Bits - fromBits
	if shift >= 0 {
		return v * float64(int(1)<<shift)
	}
	return v / float64(int(1)<<-shift)
}

// ratioToNative maps a normalized ratio onto the native scale of format f.
// Luma ratios span 0..1; chroma ratios are signed around the neutral code and are
// clamped to the code range.
func ratioToNative(v float64, f Format, chroma bool) float64 {
	if f.Float {
		return v
	}
	if chroma {
		return clampf(v*f.MaxCode()+float64(chromaNeutralCode<<(f.Bits-8)), 0, f.MaxCode())
	}
	return v * f.MaxCode()
}
