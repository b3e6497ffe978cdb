package vsadjust

import "testing"

func TestRangeReference(t *testing.T) {
	cases := []struct {
		name      string
		format    Format
		chroma    bool
		rng       ColorRange
		low, peak float64
	}{
		{name: "8-bit limited luma", format: IntegerFormat(8), rng: RangeLimited, low: 16, peak: 235},
		{name: "8-bit limited chroma", format: IntegerFormat(8), chroma: true, rng: RangeLimited, low: 16, peak: 240},
		{name: "10-bit limited luma", format: IntegerFormat(10), rng: RangeLimited, low: 64, peak: 940},
		{name: "10-bit limited chroma", format: IntegerFormat(10), chroma: true, rng: RangeLimited, low: 64, peak: 960},
		{name: "16-bit full", format: IntegerFormat(16), rng: RangeFull, low: 0, peak: 65535},
		{name: "8-bit full chroma", format: IntegerFormat(8), chroma: true, rng: RangeFull, low: 0, peak: 255},
		{name: "unspecified is limited", format: IntegerFormat(8), rng: RangeUnspecified, low: 16, peak: 235},
		{name: "float luma", format: FormatFloat, rng: RangeLimited, low: 0, peak: 1},
		{name: "float chroma", format: FormatFloat, chroma: true, rng: RangeFull, low: -0.5, peak: 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			low, peak := Lowest(tc.format, tc.chroma, tc.rng), Peak(tc.format, tc.chroma, tc.rng)
			if low != tc.low || peak != tc.peak {
				t.Fatalf("got (%v, %v), want (%v, %v)", low, peak, tc.low, tc.peak)
			}
			if low >= peak {
				t.Fatalf("low %v must be below peak %v", low, peak)
			}
		})
	}
}

func TestRangeFromFrame(t *testing.T) {
	g := grayFrame(t, 2, 2, IntegerFormat(8), 0, RangeUnspecified)
	if r := RangeFromFrame(g); r != RangeLimited {
		t.Fatalf("gray default: got %v", r)
	}
	g.Range = RangeFull
	if r := RangeFromFrame(g); r != RangeFull {
		t.Fatalf("explicit tag: got %v", r)
	}
	rgb, err := NewFrame(FamilyRGB, NewPlane(2, 2, IntegerFormat(8)), NewPlane(2, 2, IntegerFormat(8)), NewPlane(2, 2, IntegerFormat(8)))
	if err != nil {
		t.Fatal(err)
	}
	if r := RangeFromFrame(rgb); r != RangeFull {
		t.Fatalf("rgb default: got %v", r)
	}
}

func TestScaleValue(t *testing.T) {
	if v := ScaleValue(235, 8, IntegerFormat(10), false); v != 940 {
		t.Fatalf("8 -> 10 bit: got %v", v)
	}
	if v := ScaleValue(940, 10, IntegerFormat(8), false); v != 235 {
		t.Fatalf("10 -> 8 bit: got %v", v)
	}
	if v := ScaleValue(255, 8, FormatFloat, false); v != 1 {
		t.Fatalf("8 bit -> float luma: got %v", v)
	}
	if v := ScaleValue(128, 8, FormatFloat, true); v != 0 {
		t.Fatalf("neutral chroma -> float: got %v", v)
	}
}

func TestParseColorRange(t *testing.T) {
	for in, want := range map[string]ColorRange{"limited": RangeLimited, "tv": RangeLimited, "full": RangeFull, "pc": RangeFull, "": RangeUnspecified} {
		got, err := ParseColorRange(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %v, %v", in, got, err)
		}
	}
	if _, err := ParseColorRange("studio"); !IsCode(err, ErrCodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
