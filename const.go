package vsadjust

const (
	defaultGamma = 0.88

	// adjustmentLimit bounds line adjustments to the open interval (-limit, limit).
	adjustmentLimit = 100.0
)

const (
	limitedLowCode        int = 16
	limitedLumaPeakCode   int = 235
	limitedChromaPeakCode int = 240
	chromaNeutralCode     int = 128

	floatChromaLow  = -0.5
	floatChromaPeak = 0.5
)

const (
	minIntegerBits = 8
	maxIntegerBits = 16
)
