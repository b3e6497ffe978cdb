package planeio

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/vearutop/vsadjust"
)

const exrMagic = 20000630

const (
	exrCompressionNone = 0
	exrCompressionZips = 2
	exrCompressionZip  = 3
)

const (
	exrPixelUint  = 0
	exrPixelHalf  = 1
	exrPixelFloat = 2
)

// Channel roles index the plane array a block decodes into.
const (
	exrChanR     = 0
	exrChanG     = 1
	exrChanB     = 2
	exrChanY     = 3
	exrChanOther = -1
)

type exrChannel struct {
	name      string
	pixelType int32
	xSampling int32
	ySampling int32
	role      int
}

// isEXR reports whether data starts with the OpenEXR magic number.
func isEXR(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == exrMagic
}

// exrReader is a little-endian reader that keeps the first error it hits; reads after
// a failure return zero values.
type exrReader struct {
	*bytes.Reader
	err error
}

func (r *exrReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Len() {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	b := make([]byte, n)
	_, r.err = io.ReadFull(r, b)
	return b
}

func (r *exrReader) u32() uint32 {
	if b := r.bytes(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *exrReader) i32() int32 { return int32(r.u32()) }

func (r *exrReader) u64() uint64 {
	if b := r.bytes(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *exrReader) cstring() string {
	var sb strings.Builder
	for r.err == nil {
		var c byte
		if c, r.err = r.ReadByte(); r.err != nil || c == 0 {
			break
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// exrHeader holds the attributes a scanline frame decode needs.
type exrHeader struct {
	channels    []exrChannel
	window      [4]int32 // xMin, yMin, xMax, yMax
	hasWindow   bool
	compression byte
}

func (h *exrHeader) size() (w, ht int) {
	return int(h.window[2]-h.window[0]) + 1, int(h.window[3]-h.window[1]) + 1
}

func (h *exrHeader) linesPerBlock() int {
	if h.compression == exrCompressionZip {
		return 16
	}
	return 1
}

func readEXRHeader(r *exrReader) (*exrHeader, error) {
	if r.u32() != exrMagic {
		if r.err != nil {
			return nil, r.err
		}
		return nil, errors.New("not an OpenEXR file")
	}
	switch version := r.u32(); {
	case version&0x200 != 0:
		return nil, errors.New("tiled OpenEXR not supported")
	case version&0x400 != 0:
		return nil, errors.New("deep OpenEXR not supported")
	case version&0x800 != 0:
		return nil, errors.New("multipart OpenEXR not supported")
	}

	h := &exrHeader{compression: exrCompressionNone}
	for r.err == nil {
		name := r.cstring()
		if name == "" {
			break
		}
		typ := r.cstring()
		payload := r.bytes(int(r.i32()))
		if r.err != nil {
			break
		}
		if err := h.set(name, typ, payload); err != nil {
			return nil, err
		}
	}
	if r.err != nil {
		return nil, fmt.Errorf("OpenEXR header: %w", r.err)
	}

	switch {
	case len(h.channels) == 0:
		return nil, errors.New("OpenEXR missing channels")
	case !h.hasWindow:
		return nil, errors.New("OpenEXR missing dataWindow")
	}
	for _, ch := range h.channels {
		if ch.xSampling != 1 || ch.ySampling != 1 {
			return nil, fmt.Errorf("OpenEXR channel %s is subsampled", ch.name)
		}
	}
	if w, ht := h.size(); w <= 0 || ht <= 0 {
		return nil, fmt.Errorf("invalid OpenEXR size %dx%d", w, ht)
	}
	return h, nil
}

func (h *exrHeader) set(name, typ string, payload []byte) error {
	var err error
	switch name {
	case "channels":
		if typ != "chlist" {
			return fmt.Errorf("OpenEXR channels has type %s", typ)
		}
		h.channels, err = parseEXRChannels(payload)
	case "dataWindow":
		if typ != "box2i" || len(payload) != 16 {
			return errors.New("invalid OpenEXR dataWindow")
		}
		for i := range h.window {
			h.window[i] = int32(binary.LittleEndian.Uint32(payload[i*4:]))
		}
		h.hasWindow = true
	case "compression":
		if len(payload) < 1 {
			return errors.New("invalid OpenEXR compression")
		}
		h.compression = payload[0]
		switch h.compression {
		case exrCompressionNone, exrCompressionZips, exrCompressionZip:
		default:
			return fmt.Errorf("unsupported OpenEXR compression %d", h.compression)
		}
	case "tiles":
		return errors.New("tiled OpenEXR not supported")
	}
	return err
}

// frame allocates the output frame: R, G and B channels give RGB, a lone Y gives gray.
// Planes of channels that do not end up in the frame stay nil.
func (h *exrHeader) frame() (*vsadjust.Frame, [4]*vsadjust.Plane, error) {
	var planes [4]*vsadjust.Plane
	w, ht := h.size()
	for _, ch := range h.channels {
		if ch.role != exrChanOther {
			planes[ch.role] = vsadjust.NewPlane(w, ht, vsadjust.FormatFloat)
		}
	}
	var (
		f   *vsadjust.Frame
		err error
	)
	switch {
	case planes[exrChanR] != nil && planes[exrChanG] != nil && planes[exrChanB] != nil:
		planes[exrChanY] = nil
		f, err = vsadjust.NewFrame(vsadjust.FamilyRGB, planes[exrChanR], planes[exrChanG], planes[exrChanB])
	case planes[exrChanY] != nil:
		planes = [4]*vsadjust.Plane{exrChanY: planes[exrChanY]}
		f, err = vsadjust.NewFrame(vsadjust.FamilyGray, planes[exrChanY])
	default:
		return nil, planes, errors.New("OpenEXR missing R/G/B or Y channels")
	}
	if err != nil {
		return nil, planes, err
	}
	f.Range = vsadjust.RangeFull
	f.Transfer = vsadjust.TransferLinear
	f.Primaries = vsadjust.PrimariesBT709
	return f, planes, nil
}

// DecodeEXR decodes a single-part scanline OpenEXR image into a float frame. R, G and B
// channels give an RGB frame, a lone Y channel gives a gray one; other channels are
// skipped. Samples are scene-linear and are tagged as such with BT.709 primaries.
func DecodeEXR(data []byte) (*vsadjust.Frame, error) {
	r := &exrReader{Reader: bytes.NewReader(data)}
	h, err := readEXRHeader(r)
	if err != nil {
		return nil, err
	}
	f, planes, err := h.frame()
	if err != nil {
		return nil, err
	}

	width, height := h.size()
	lines := h.linesPerBlock()
	offsets := make([]uint64, (height+lines-1)/lines)
	for i := range offsets {
		offsets[i] = r.u64()
	}
	if r.err != nil {
		return nil, fmt.Errorf("OpenEXR offset table: %w", r.err)
	}

	for _, off := range offsets {
		if off == 0 {
			continue
		}
		if _, err := r.Seek(int64(off), io.SeekStart); err != nil {
			return nil, err
		}
		y := int(r.i32()) - int(h.window[1])
		raw := r.bytes(int(r.i32()))
		if r.err != nil {
			return nil, fmt.Errorf("OpenEXR block at %d: %w", off, r.err)
		}
		if y < 0 || y >= height {
			return nil, fmt.Errorf("OpenEXR scanline %d out of bounds", y)
		}
		n := min(lines, height-y)
		unpacked, err := exrDecompress(h.compression, raw, exrExpectedBlockBytes(width, n, h.channels))
		if err != nil {
			return nil, err
		}
		if err := exrDecodeBlock(planes, h.channels, y, width, n, unpacked); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func parseEXRChannels(data []byte) ([]exrChannel, error) {
	r := &exrReader{Reader: bytes.NewReader(data)}
	var channels []exrChannel
	for {
		name := r.cstring()
		if name == "" || r.err != nil {
			break
		}
		ch := exrChannel{name: name, pixelType: r.i32(), role: exrChanOther}
		r.bytes(4) // pLinear and reserved
		ch.xSampling, ch.ySampling = r.i32(), r.i32()
		if r.err != nil {
			break
		}
		switch ch.pixelType {
		case exrPixelUint, exrPixelHalf, exrPixelFloat:
		default:
			return nil, fmt.Errorf("unsupported OpenEXR pixel type %d", ch.pixelType)
		}
		switch strings.ToUpper(name) {
		case "R":
			ch.role = exrChanR
		case "G":
			ch.role = exrChanG
		case "B":
			ch.role = exrChanB
		case "Y":
			ch.role = exrChanY
		}
		channels = append(channels, ch)
	}
	if r.err != nil {
		return nil, fmt.Errorf("OpenEXR channel list: %w", r.err)
	}
	return channels, nil
}

func exrExpectedBlockBytes(width, lines int, channels []exrChannel) int {
	total := 0
	for _, ch := range channels {
		total += width * lines * exrPixelSize(ch.pixelType)
	}
	return total
}

func exrDecompress(compression byte, data []byte, expected int) ([]byte, error) {
	switch compression {
	case exrCompressionNone:
		if expected > 0 && len(data) != expected {
			return nil, errors.New("unexpected OpenEXR block size")
		}
		return data, nil
	case exrCompressionZips, exrCompressionZip:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		uncompressed, err := io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
		if expected > 0 && len(uncompressed) != expected {
			return nil, errors.New("unexpected OpenEXR decompressed size")
		}
		if len(uncompressed)%2 != 0 {
			return nil, errors.New("invalid OpenEXR ZIP payload size")
		}
		undoPredictor(uncompressed)
		return unshuffleBytes(uncompressed), nil
	default:
		return nil, errors.New("unsupported OpenEXR compression")
	}
}

func undoPredictor(data []byte) {
	for i := 1; i < len(data); i++ {
		data[i] = byte(int(data[i]) + int(data[i-1]) - 128)
	}
}

func unshuffleBytes(data []byte) []byte {
	n := len(data) / 2
	out := make([]byte, len(data))
	for i := 0; i < n; i++ {
		out[2*i] = data[i]
		out[2*i+1] = data[i+n]
	}
	return out
}

func exrDecodeBlock(planes [4]*vsadjust.Plane, channels []exrChannel, startY, width, lines int, data []byte) error {
	offset := 0
	for row := 0; row < lines; row++ {
		y := startY + row
		for _, ch := range channels {
			lineBytes := width * exrPixelSize(ch.pixelType)
			if offset+lineBytes > len(data) {
				return errors.New("OpenEXR block truncated")
			}
			line := data[offset : offset+lineBytes]
			offset += lineBytes

			if ch.role == exrChanOther || planes[ch.role] == nil {
				continue
			}
			decodeEXRLine(planes[ch.role].Row(y), ch.pixelType, line)
		}
	}
	return nil
}

func exrPixelSize(pixelType int32) int {
	if pixelType == exrPixelHalf {
		return 2
	}
	return 4
}

func decodeEXRLine(dst []float32, pixelType int32, line []byte) {
	for x := range dst {
		switch pixelType {
		case exrPixelHalf:
			dst[x] = halfToFloat32(binary.LittleEndian.Uint16(line[x*2:]))
		case exrPixelFloat:
			dst[x] = math.Float32frombits(binary.LittleEndian.Uint32(line[x*4:]))
		default:
			dst[x] = float32(binary.LittleEndian.Uint32(line[x*4:]))
		}
	}
}

func halfToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := int32(h>>10) & 0x1F
	mant := int32(h & 0x03FF)

	if exp == 0 {
		if mant == 0 {
			return math.Float32frombits(sign << 31)
		}
		for mant&0x0400 == 0 {
			mant <<= 1
			exp--
		}
		exp++
		mant &= 0x03FF
	} else if exp == 31 {
		if mant == 0 {
			return math.Float32frombits((sign << 31) | 0x7F800000)
		}
		return math.Float32frombits((sign << 31) | 0x7F800000 | (uint32(mant) << 13))
	}

	exp = exp + (127 - 15)
	mant <<= 13
	bits := (sign << 31) | (uint32(exp) << 23) | uint32(mant)
	return math.Float32frombits(bits)
}
