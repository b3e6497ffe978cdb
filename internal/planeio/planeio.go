// Package planeio converts between image files and vsadjust frames.
package planeio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/vearutop/vsadjust"
)

const jpegQuality = 95

// ReadFile decodes an image file into a frame. OpenEXR files become float frames,
// everything else goes through the registered image decoders.
func ReadFile(path string) (*vsadjust.Frame, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	if isEXR(data) {
		f, err := DecodeEXR(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return f, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return FromImage(img)
}

// WriteFile encodes f into path, choosing the codec from the file extension
// (.png, .jpg/.jpeg, .tif/.tiff).
func WriteFile(path string, f *vsadjust.Frame) error {
	img, err := ToImage(f)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(&buf, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	case ".tif", ".tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported output format %q", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Clean(path), buf.Bytes(), 0o644)
}

// FromImage converts img into a frame. Gray images become single-plane frames, YCbCr
// images keep their subsampled planes, anything else becomes RGB. Decoded images are
// tagged full range.
func FromImage(img image.Image) (*vsadjust.Frame, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New("invalid image dimensions")
	}

	var (
		f   *vsadjust.Frame
		err error
	)
	switch src := img.(type) {
	case *image.Gray:
		p := vsadjust.NewPlane(w, h, vsadjust.IntegerFormat(8))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p.Set(x, y, float32(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		f, err = vsadjust.NewFrame(vsadjust.FamilyGray, p)
	case *image.Gray16:
		p := vsadjust.NewPlane(w, h, vsadjust.IntegerFormat(16))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p.Set(x, y, float32(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
		f, err = vsadjust.NewFrame(vsadjust.FamilyGray, p)
	case *image.YCbCr:
		f, err = fromYCbCr(src)
	default:
		f, err = fromRGB(img)
	}
	if err != nil {
		return nil, err
	}
	f.Range = vsadjust.RangeFull
	return f, nil
}

func fromYCbCr(src *image.YCbCr) (*vsadjust.Frame, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	cw, ch := chromaSize(w, h, src.SubsampleRatio)
	yp := vsadjust.NewPlane(w, h, vsadjust.IntegerFormat(8))
	cb := vsadjust.NewPlane(cw, ch, vsadjust.IntegerFormat(8))
	cr := vsadjust.NewPlane(cw, ch, vsadjust.IntegerFormat(8))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			yp.Set(x, y, float32(src.Y[src.YOffset(b.Min.X+x, b.Min.Y+y)]))
		}
	}
	sx, sy := w/cw, h/ch
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			i := src.COffset(b.Min.X+x*sx, b.Min.Y+y*sy)
			cb.Set(x, y, float32(src.Cb[i]))
			cr.Set(x, y, float32(src.Cr[i]))
		}
	}
	f, err := vsadjust.NewFrame(vsadjust.FamilyYUV, yp, cb, cr)
	if err != nil {
		return nil, err
	}
	f.Matrix = vsadjust.MatrixBT470BG
	return f, nil
}

func fromRGB(img image.Image) (*vsadjust.Frame, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	bits := 8
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64:
		bits = 16
	}
	planes := []*vsadjust.Plane{
		vsadjust.NewPlane(w, h, vsadjust.IntegerFormat(bits)),
		vsadjust.NewPlane(w, h, vsadjust.IntegerFormat(bits)),
		vsadjust.NewPlane(w, h, vsadjust.IntegerFormat(bits)),
	}
	shift := 16 - bits
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			planes[0].Set(x, y, float32(c.R>>shift))
			planes[1].Set(x, y, float32(c.G>>shift))
			planes[2].Set(x, y, float32(c.B>>shift))
		}
	}
	f, err := vsadjust.NewFrame(vsadjust.FamilyRGB, planes...)
	if err != nil {
		return nil, err
	}
	f.Transfer = vsadjust.TransferSRGB
	f.Primaries = vsadjust.PrimariesBT709
	return f, nil
}

func chromaSize(w, h int, r image.YCbCrSubsampleRatio) (int, int) {
	switch r {
	case image.YCbCrSubsampleRatio422:
		return (w + 1) / 2, h
	case image.YCbCrSubsampleRatio420:
		return (w + 1) / 2, (h + 1) / 2
	case image.YCbCrSubsampleRatio440:
		return w, (h + 1) / 2
	case image.YCbCrSubsampleRatio411:
		return (w + 3) / 4, h
	case image.YCbCrSubsampleRatio410:
		return (w + 3) / 4, (h + 1) / 2
	default:
		return w, h
	}
}

func subsampleRatio(w, h, cw, ch int) (image.YCbCrSubsampleRatio, error) {
	for _, r := range []image.YCbCrSubsampleRatio{
		image.YCbCrSubsampleRatio444, image.YCbCrSubsampleRatio422, image.YCbCrSubsampleRatio420,
		image.YCbCrSubsampleRatio440, image.YCbCrSubsampleRatio411, image.YCbCrSubsampleRatio410,
	} {
		if rw, rh := chromaSize(w, h, r); rw == cw && rh == ch {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unsupported chroma size %dx%d for %dx%d luma", cw, ch, w, h)
}

// ToImage converts f into an image. YUV frames are reduced to 8-bit YCbCr, gray and RGB
// frames keep 16-bit precision when deeper than 8 bits. Float samples are quantized.
func ToImage(f *vsadjust.Frame) (image.Image, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	w, h := f.Width(), f.Height()
	rect := image.Rect(0, 0, w, h)
	switch f.Family {
	case vsadjust.FamilyGray:
		p := f.Planes[0]
		if !p.Format.Float && p.Format.Bits <= 8 {
			img := image.NewGray(rect)
			for i, v := range p.Pix {
				img.Pix[i] = uint8(code(v, p.Format, 8, false))
			}
			return img, nil
		}
		img := image.NewGray16(rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetGray16(x, y, color.Gray16{Y: uint16(code(p.At(x, y), p.Format, 16, false))})
			}
		}
		return img, nil
	case vsadjust.FamilyYUV:
		cw, ch := f.Planes[1].Width, f.Planes[1].Height
		ratio, err := subsampleRatio(w, h, cw, ch)
		if err != nil {
			return nil, err
		}
		img := image.NewYCbCr(rect, ratio)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.Y[img.YOffset(x, y)] = uint8(code(f.Planes[0].At(x, y), f.Planes[0].Format, 8, false))
			}
		}
		for y := 0; y < ch; y++ {
			for x := 0; x < cw; x++ {
				i := y*img.CStride + x
				img.Cb[i] = uint8(code(f.Planes[1].At(x, y), f.Planes[1].Format, 8, true))
				img.Cr[i] = uint8(code(f.Planes[2].At(x, y), f.Planes[2].Format, 8, true))
			}
		}
		return img, nil
	default:
		img := image.NewNRGBA64(rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetNRGBA64(x, y, color.NRGBA64{
					R: uint16(code(f.Planes[0].At(x, y), f.Planes[0].Format, 16, false)),
					G: uint16(code(f.Planes[1].At(x, y), f.Planes[1].Format, 16, false)),
					B: uint16(code(f.Planes[2].At(x, y), f.Planes[2].Format, 16, false)),
					A: math.MaxUint16,
				})
			}
		}
		return img, nil
	}
}

// code converts a sample into an integer code at bits.
func code(v float32, f vsadjust.Format, bits int, chroma bool) float64 {
	top := float64(int(1)<<bits - 1)
	var c float64
	switch {
	case f.Float && chroma:
		c = float64(v)*top + float64(int(1)<<(bits-1))
	case f.Float:
		c = float64(v) * top
	case f.Bits > bits:
		c = float64(v) / float64(int(1)<<(f.Bits-bits))
	default:
		c = float64(v) * float64(int(1)<<(bits-f.Bits))
	}
	return math.Min(math.Max(math.Round(c), 0), top)
}
