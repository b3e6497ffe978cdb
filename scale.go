package vsadjust

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
)

// Interpolation selects the kernel KernelResampler scales planes with.
type Interpolation int

const (
	// InterpolationNearest is nearest-neighbor sampling.
	InterpolationNearest Interpolation = iota
	// InterpolationBilinear is linear sampling.
	InterpolationBilinear
	// InterpolationBicubic is cubic sampling.
	InterpolationBicubic
	// InterpolationMitchellNetravali is Mitchell-Netravali sampling.
	InterpolationMitchellNetravali
	// InterpolationLanczos2 is Lanczos sampling with a=2.
	InterpolationLanczos2
	// InterpolationLanczos3 is Lanczos sampling with a=3.
	InterpolationLanczos3
)

var interpolationNames = []string{"nearest", "bilinear", "bicubic", "mitchell", "lanczos2", "lanczos3"}

func (i Interpolation) String() string {
	if i >= 0 && int(i) < len(interpolationNames) {
		return interpolationNames[i]
	}
	return fmt.Sprintf("interpolation(%d)", int(i))
}

// ParseInterpolation maps a kernel name such as "bicubic" to its Interpolation.
func ParseInterpolation(s string) (Interpolation, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range interpolationNames {
		if n == name {
			return Interpolation(i), nil
		}
	}
	err := newError(ErrCodeUnknownVariant, "no interpolation named %q, known: %s", s, strings.Join(interpolationNames, ", "))
	err.Kind = s
	return InterpolationNearest, err
}

type kernelDef struct {
	interp Interpolation
	taps   int
	kernel func(float64) float64
}

func kernelFor(interp Interpolation) kernelDef {
	switch interp {
	case InterpolationBilinear:
		return kernelDef{interp: interp, taps: 2, kernel: linearKernel}
	case InterpolationBicubic:
		return kernelDef{interp: interp, taps: 4, kernel: cubicKernel}
	case InterpolationMitchellNetravali:
		return kernelDef{interp: interp, taps: 4, kernel: mitchellNetravaliKernel}
	case InterpolationLanczos2:
		return kernelDef{interp: interp, taps: 4, kernel: lanczos2Kernel}
	case InterpolationLanczos3:
		return kernelDef{interp: interp, taps: 6, kernel: lanczos3Kernel}
	default:
		return kernelDef{interp: InterpolationNearest, taps: 2, kernel: nearestKernel}
	}
}

type resampleWeights struct {
	coeffs       []float32
	start        []int
	filterLength int
}

type weightsKey struct {
	src, dst int
	interp   Interpolation
}

var weightsCache sync.Map

func getWeights(src, dst int, def kernelDef) resampleWeights {
	key := weightsKey{src: src, dst: dst, interp: def.interp}
	if cached, ok := weightsCache.Load(key); ok {
		return cached.(resampleWeights)
	}
	scale := float64(src) / float64(dst)
	filterLength := def.taps * int(math.Max(math.Ceil(scale), 1))
	filterFactor := math.Min(1/scale, 1)
	coeffs := make([]float32, dst*filterLength)
	start := make([]int, dst)
	for y := 0; y < dst; y++ {
		center := scale*(float64(y)+0.5) - 0.5
		start[y] = int(math.Floor(center)) - filterLength/2 + 1
		center -= float64(start[y])
		base := y * filterLength
		var sum float64
		for i := 0; i < filterLength; i++ {
			w := def.kernel((center - float64(i)) * filterFactor)
			coeffs[base+i] = float32(w)
			sum += w
		}
		if sum != 0 {
			inv := float32(1 / sum)
			for i := 0; i < filterLength; i++ {
				coeffs[base+i] *= inv
			}
		}
	}
	weights := resampleWeights{coeffs: coeffs, start: start, filterLength: filterLength}
	weightsCache.Store(key, weights)
	return weights
}

// maxScaleWorkers caps the goroutines one resampling pass fans out to, 0 means GOMAXPROCS.
var maxScaleWorkers = 0

// parallelFor splits [0, total) into contiguous chunks processed concurrently.
func parallelFor(total int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if maxScaleWorkers > 0 && workers > maxScaleWorkers {
		workers = maxScaleWorkers
	}
	if workers > total {
		workers = total
	}
	if workers <= 1 {
		fn(0, total)
		return
	}
	step := (total + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < total; start += step {
		end := min(start+step, total)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(start, end)
		}()
	}
	wg.Wait()
}

var float32Pool = sync.Pool{
	New: func() any {
		buf := make([]float32, 0)
		return &buf
	},
}

func getFloat32(n int) []float32 {
	buf := *float32Pool.Get().(*[]float32)
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}

func putFloat32(buf []float32) {
	buf = buf[:0]
	float32Pool.Put(&buf)
}

// resampleSamples scales a w×h sample grid to dw×dh with a separable kernel, clamping
// taps at the edges.
func resampleSamples(src []float32, w, h, dw, dh int, def kernelDef) []float32 {
	wx := getWeights(w, dw, def)
	wy := getWeights(h, dh, def)

	temp := getFloat32(dw * h)
	parallelFor(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := src[y*w : (y+1)*w]
			out := temp[y*dw : (y+1)*dw]
			for x := range out {
				s, base := wx.start[x], x*wx.filterLength
				var sum float32
				for i := 0; i < wx.filterLength; i++ {
					sum += row[clampIndex(s+i, w)] * wx.coeffs[base+i]
				}
				out[x] = sum
			}
		}
	})

	dst := make([]float32, dw*dh)
	parallelFor(dh, func(start, end int) {
		for y := start; y < end; y++ {
			s, base := wy.start[y], y*wy.filterLength
			out := dst[y*dw : (y+1)*dw]
			for x := range out {
				var sum float32
				for i := 0; i < wy.filterLength; i++ {
					sum += temp[clampIndex(s+i, h)*dw+x] * wy.coeffs[base+i]
				}
				out[x] = sum
			}
		}
	})

	putFloat32(temp)
	return dst
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func nearestKernel(in float64) float64 {
	if in >= -0.5 && in < 0.5 {
		return 1
	}
	return 0
}

func linearKernel(in float64) float64 {
	in = math.Abs(in)
	if in <= 1 {
		return 1 - in
	}
	return 0
}

func cubicKernel(in float64) float64 {
	in = math.Abs(in)
	if in <= 1 {
		return in*in*(1.5*in-2.5) + 1
	}
	if in <= 2 {
		return in*(in*(2.5-0.5*in)-4) + 2
	}
	return 0
}

func mitchellNetravaliKernel(in float64) float64 {
	in = math.Abs(in)
	if in <= 1 {
		return (7*in*in*in - 12*in*in + 16.0/3) / 6
	}
	if in <= 2 {
		return (-7.0/3*in*in*in + 12*in*in - 20*in + 32.0/3) / 6
	}
	return 0
}

func sinc(x float64) float64 {
	x = math.Abs(x) * math.Pi
	if x >= 1.220703e-4 {
		return math.Sin(x) / x
	}
	return 1
}

func lanczos2Kernel(in float64) float64 {
	if in > -2 && in < 2 {
		return sinc(in) * sinc(in/2)
	}
	return 0
}

func lanczos3Kernel(in float64) float64 {
	if in > -3 && in < 3 {
		return sinc(in) * sinc(in/3)
	}
	return 0
}
