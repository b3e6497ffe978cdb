package planeio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vearutop/vsadjust"
)

type exrTestChannel struct {
	name    string
	half    bool
	samples []float32
}

// encodeEXR writes an uncompressed scanline OpenEXR image.
func encodeEXR(t *testing.T, w, h int, channels []exrTestChannel) []byte {
	t.Helper()
	var buf bytes.Buffer
	le := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatal(err)
		}
	}
	attr := func(name, typ string, payload []byte) {
		buf.WriteString(name + "\x00" + typ + "\x00")
		le(int32(len(payload)))
		buf.Write(payload)
	}

	le(uint32(exrMagic))
	le(uint32(2))

	var chlist bytes.Buffer
	for _, ch := range channels {
		chlist.WriteString(ch.name + "\x00")
		typ := int32(exrPixelFloat)
		if ch.half {
			typ = exrPixelHalf
		}
		_ = binary.Write(&chlist, binary.LittleEndian, []int32{typ, 0, 1, 1})
	}
	chlist.WriteByte(0)
	attr("channels", "chlist", chlist.Bytes())
	attr("compression", "compression", []byte{exrCompressionNone})
	box := make([]byte, 16)
	binary.LittleEndian.PutUint32(box[8:], uint32(w-1))
	binary.LittleEndian.PutUint32(box[12:], uint32(h-1))
	attr("dataWindow", "box2i", box)
	buf.WriteByte(0)

	lineBytes := 0
	for _, ch := range channels {
		size := 4
		if ch.half {
			size = 2
		}
		lineBytes += w * size
	}
	tableEnd := buf.Len() + 8*h
	for y := 0; y < h; y++ {
		le(uint64(tableEnd + y*(8+lineBytes)))
	}
	for y := 0; y < h; y++ {
		le(int32(y))
		le(int32(lineBytes))
		for _, ch := range channels {
			for _, v := range ch.samples[y*w : (y+1)*w] {
				if ch.half {
					le(float32ToHalf(v))
				} else {
					le(math.Float32bits(v))
				}
			}
		}
	}
	return buf.Bytes()
}

// float32ToHalf handles the normal, exactly representable values used in tests.
func float32ToHalf(v float32) uint16 {
	if v == 0 {
		return 0
	}
	bits := math.Float32bits(v)
	sign := uint16(bits>>16) & 0x8000
	exp := int((bits>>23)&0xff) - 127 + 15
	mant := uint16(bits>>13) & 0x3ff
	return sign | uint16(exp)<<10 | mant
}

func TestDecodeEXRRGB(t *testing.T) {
	r := []float32{0, 0.5, 1, 2.5}
	g := []float32{0.25, 0.125, 4, 1}
	b := []float32{1, 1, 0, 0.75}
	data := encodeEXR(t, 2, 2, []exrTestChannel{
		{name: "A", samples: []float32{1, 1, 1, 1}},
		{name: "B", samples: b},
		{name: "G", half: true, samples: g},
		{name: "R", samples: r},
	})

	f, err := DecodeEXR(data)
	if err != nil {
		t.Fatal(err)
	}
	if f.Family != vsadjust.FamilyRGB || f.Transfer != vsadjust.TransferLinear || !f.Planes[0].Format.Float {
		t.Fatalf("unexpected frame %v %v %+v", f.Family, f.Transfer, f.Planes[0].Format)
	}
	for i, want := range [][]float32{r, g, b} {
		if diff := cmp.Diff(want, f.Planes[i].Pix); diff != "" {
			t.Fatalf("plane %d (-want +got):\n%s", i, diff)
		}
	}
}

func TestDecodeEXRGray(t *testing.T) {
	y := []float32{0.5, 1, 1.5}
	data := encodeEXR(t, 3, 1, []exrTestChannel{{name: "Y", half: true, samples: y}})

	path := filepath.Join(t.TempDir(), "luma.exr")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Family != vsadjust.FamilyGray {
		t.Fatalf("family %v", f.Family)
	}
	if diff := cmp.Diff(y, f.Planes[0].Pix); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestDecodeEXRErrors(t *testing.T) {
	if _, err := DecodeEXR([]byte{1, 2, 3, 4, 5, 6, 7, 8}); err == nil {
		t.Fatal("expected magic error")
	}
	data := encodeEXR(t, 1, 1, []exrTestChannel{{name: "Z", samples: []float32{1}}})
	if _, err := DecodeEXR(data); err == nil {
		t.Fatal("expected missing channels error")
	}
	if _, err := DecodeEXR(data[:20]); err == nil {
		t.Fatal("expected truncation error")
	}
}
