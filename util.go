package vsadjust

import "math"

func clampf(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func powf(v, e float64) float64 {
	if e == 1 {
		return v
	}
	return math.Pow(v, e)
}

// roundCode rounds a sample to the nearest integer code of f and clamps it into the code range.
func roundCode(v float64, f Format) float32 {
	return float32(clampf(math.Round(v), 0, f.MaxCode()))
}
