package vsadjust

// Config carries the defaults a call falls back to. It is passed explicitly to each
// operation through its options rather than held as package state.
type Config struct {
	// Gamma is the exponent of the level transfer function.
	Gamma float64
	// Range overrides the dynamic range inferred from frame tags when set.
	Range ColorRange
}

// DefaultConfig returns the stock defaults: gamma 0.88, range inferred from the frame.
func DefaultConfig() Config {
	return Config{Gamma: defaultGamma}
}

func (c Config) validate() error {
	if !(c.Gamma > 0) {
		return newError(ErrCodeInvalidInput, "gamma must be positive, got %v", c.Gamma)
	}
	if c.Range < RangeUnspecified || c.Range > RangeFull {
		return newError(ErrCodeInvalidInput, "unknown color range %d", int(c.Range))
	}
	return nil
}

func (c Config) rangeFor(f *Frame) ColorRange {
	if c.Range != RangeUnspecified {
		return c.Range
	}
	return RangeFromFrame(f)
}
