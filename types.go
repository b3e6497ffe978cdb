package vsadjust

import "fmt"

// ColorFamily identifies how the planes of a frame relate to each other.
type ColorFamily int

const (
	FamilyGray ColorFamily = iota
	FamilyYUV
	FamilyRGB
)

func (c ColorFamily) String() string {
	switch c {
	case FamilyGray:
		return "gray"
	case FamilyYUV:
		return "yuv"
	case FamilyRGB:
		return "rgb"
	default:
		return fmt.Sprintf("family(%d)", int(c))
	}
}

// ColorRange identifies where black and white sit on the sample scale.
type ColorRange int

const (
	RangeUnspecified ColorRange = iota
	RangeLimited
	RangeFull
)

func (r ColorRange) String() string {
	switch r {
	case RangeLimited:
		return "limited"
	case RangeFull:
		return "full"
	default:
		return "unspecified"
	}
}

// ParseColorRange accepts "limited"/"tv" and "full"/"pc".
func ParseColorRange(s string) (ColorRange, error) {
	switch s {
	case "", "unspecified":
		return RangeUnspecified, nil
	case "limited", "tv":
		return RangeLimited, nil
	case "full", "pc":
		return RangeFull, nil
	}
	return RangeUnspecified, newError(ErrCodeInvalidInput, "unknown color range %q", s)
}

// Matrix identifies the YUV<->RGB matrix coefficients (H.273 code points).
type Matrix int

const (
	MatrixRGB         Matrix = 0
	MatrixBT709       Matrix = 1
	MatrixUnspecified Matrix = 2
	MatrixBT470BG     Matrix = 5
	MatrixST170M      Matrix = 6
	MatrixBT2020NCL   Matrix = 9
	MatrixBT2020CL    Matrix = 10
)

// Transfer identifies the transfer characteristics (H.273 code points).
type Transfer int

const (
	TransferBT709       Transfer = 1
	TransferUnspecified Transfer = 2
	TransferBT470M      Transfer = 4
	TransferBT601       Transfer = 6
	TransferLinear      Transfer = 8
	TransferSRGB        Transfer = 13
	TransferPQ          Transfer = 16
	TransferHLG         Transfer = 18
)

// Primaries identifies the colour primaries (H.273 code points).
type Primaries int

const (
	PrimariesBT709       Primaries = 1
	PrimariesUnspecified Primaries = 2
	PrimariesBT470M      Primaries = 4
	PrimariesBT470BG     Primaries = 5
	PrimariesBT2020      Primaries = 9
	PrimariesDisplayP3   Primaries = 12
)

// DitherType selects how float results are quantized into integer codes.
type DitherType int

const (
	DitherAuto DitherType = iota
	DitherNone
	DitherErrorDiffusion
)
