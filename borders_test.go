package vsadjust

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op    string
	plane int
	m     Margins
}

// recorder is a PluginRegistry that records invocations and returns the frame unchanged.
type recorder struct {
	ops   map[string]bool
	calls []call
	masks []*Plane
}

func newRecorder(ops ...string) *recorder {
	r := &recorder{ops: map[string]bool{}}
	for _, op := range ops {
		r.ops[op] = true
	}
	return r
}

func (r *recorder) Lookup(op string) (BorderFunc, bool) {
	if !r.ops[op] {
		return nil, false
	}
	return func(f *Frame, m Margins, plane int, mask *Plane, _ map[string]float64) (*Frame, error) {
		r.calls = append(r.calls, call{op: op, plane: plane, m: m})
		r.masks = append(r.masks, mask)
		return f, nil
	}, true
}

func allOps() []string {
	return []string{OpSinglePlane, OpSinglePlaneLimited, OpSinglePlaneWeighted}
}

func TestParseCorrectionKind(t *testing.T) {
	for _, name := range KindNames() {
		k, err := ParseCorrectionKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, k.String())
	}

	k, err := ParseCorrectionKind("Single_Plane_Weighted")
	require.NoError(t, err)
	assert.Equal(t, KindSinglePlaneWeighted, k)

	_, err = ParseCorrectionKind("nope")
	require.ErrorIs(t, err, ErrUnknownVariant)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "nope", e.Kind)
}

func TestResolveKind(t *testing.T) {
	res, err := ResolveKind(KindSinglePlaneLimited)
	require.NoError(t, err)
	assert.Equal(t, OpSinglePlaneLimited, res.Op)
	assert.Nil(t, res.Notice)

	for _, k := range []CorrectionKind{KindFixBrightness, KindBalance} {
		res, err = ResolveKind(k)
		require.NoError(t, err)
		assert.Equal(t, OpSinglePlane, res.Op)
		assert.Equal(t, KindSinglePlane, res.Kind)
		require.NotNil(t, res.Notice)
		assert.Equal(t, k, res.Notice.Kind)
	}

	_, err = ResolveKind(CorrectionKind(99))
	assert.True(t, IsCode(err, ErrCodeUnknownVariant))
}

func TestBoreAllZeroSkipsPlugins(t *testing.T) {
	f := yuvFrame(t, 8, 8, IntegerFormat(8), 100, 128, RangeLimited)
	reg := newRecorder(allOps()...)

	out, err := Bore(f, KindSinglePlane, func(o *BoreOptions) {
		o.Registry = reg
		o.Top = []int{0}
		o.Left = []int{0, 0, 0}
	})
	require.NoError(t, err)
	assert.Same(t, f, out)
	assert.Empty(t, reg.calls)

	out, err = Bore(f, KindSinglePlaneWeighted, func(o *BoreOptions) { o.Registry = reg })
	require.NoError(t, err)
	assert.Same(t, f, out)
	assert.Empty(t, reg.calls)
}

func TestBoreRejectsNegativeMargins(t *testing.T) {
	f := grayFrame(t, 8, 8, IntegerFormat(8), 100, RangeFull)
	reg := newRecorder(allOps()...)

	_, err := Bore(f, KindSinglePlane, func(o *BoreOptions) {
		o.Registry = reg
		o.Top = []int{-1}
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, reg.calls)
}

func TestBoreUnknownKind(t *testing.T) {
	f := grayFrame(t, 8, 8, IntegerFormat(8), 100, RangeFull)
	reg := newRecorder(allOps()...)

	_, err := Bore(f, CorrectionKind(99), func(o *BoreOptions) {
		o.Registry = reg
		o.Top = []int{1}
	})
	require.ErrorIs(t, err, ErrUnknownVariant)
	assert.Empty(t, reg.calls)
}

func TestBoreDeprecatedKind(t *testing.T) {
	f := grayFrame(t, 8, 8, IntegerFormat(8), 100, RangeFull)
	reg := newRecorder(allOps()...)

	var notices []DeprecationNotice
	_, err := Bore(f, KindBalance, func(o *BoreOptions) {
		o.Registry = reg
		o.Left = []int{2}
		o.OnNotice = func(n DeprecationNotice) { notices = append(notices, n) }
	})
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, KindBalance, notices[0].Kind)
	assert.Equal(t, KindSinglePlane, notices[0].Replacement)
	assert.Equal(t, []call{{op: OpSinglePlane, plane: 0, m: Margins{Left: 2}}}, reg.calls)
}

func TestBorePluginUnavailable(t *testing.T) {
	f := grayFrame(t, 8, 8, IntegerFormat(8), 100, RangeFull)

	_, err := Bore(f, KindSinglePlaneLimited, func(o *BoreOptions) {
		o.Registry = Plugins{}
		o.Top = []int{1}
	})
	require.ErrorIs(t, err, ErrPluginUnavailable)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "single-plane-limited", e.Kind)
}

func TestBorePerPlaneDispatch(t *testing.T) {
	f := yuvFrame(t, 8, 8, IntegerFormat(8), 100, 128, RangeLimited)
	reg := newRecorder(allOps()...)

	_, err := Bore(f, KindSinglePlaneWeighted, func(o *BoreOptions) {
		o.Registry = reg
		o.Left = []int{0, 2, 0}
	})
	require.NoError(t, err)
	assert.Equal(t, []call{{op: OpSinglePlaneWeighted, plane: 1, m: Margins{Left: 2}}}, reg.calls)

	reg.calls = nil
	_, err = Bore(f, KindSinglePlane, func(o *BoreOptions) {
		o.Registry = reg
		o.Bottom = []int{1}
		o.Planes = []int{2, 0}
	})
	require.NoError(t, err)
	assert.Equal(t, []call{
		{op: OpSinglePlane, plane: 0, m: Margins{Bottom: 1}},
		{op: OpSinglePlane, plane: 2, m: Margins{Bottom: 1}},
	}, reg.calls)
}

func TestBoreMarginsExceedPlane(t *testing.T) {
	f := yuvFrame(t, 8, 8, IntegerFormat(8), 100, 128, RangeLimited)

	_, err := Bore(f, KindSinglePlane, func(o *BoreOptions) {
		o.Registry = newRecorder(allOps()...)
		o.Top = []int{3}
		o.Bottom = []int{3}
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestBoreDefaultPlugins(t *testing.T) {
	f := grayFrame(t, 8, 8, IntegerFormat(8), 100, RangeFull)
	for x := 0; x < 8; x++ {
		f.Planes[0].Set(x, 0, 50)
	}

	for _, k := range []CorrectionKind{KindSinglePlane, KindSinglePlaneLimited, KindSinglePlaneWeighted} {
		t.Run(k.String(), func(t *testing.T) {
			out, err := Bore(f, k, func(o *BoreOptions) { o.Top = []int{1} })
			require.NoError(t, err)
			assert.Equal(t, float32(50), f.Planes[0].At(3, 0), "input must not change")
			for x := 0; x < 8; x++ {
				assert.Equal(t, float32(100), out.Planes[0].At(x, 0))
			}
			assert.False(t, out.Planes[0].equal(f.Planes[0]))
		})
	}
}

func TestBoreIgnoreMask(t *testing.T) {
	f := grayFrame(t, 4, 4, IntegerFormat(8), 100, RangeFull)
	for x := 0; x < 4; x++ {
		f.Planes[0].Set(x, 0, 50)
	}
	f.Planes[0].Set(0, 1, 200)

	mask := grayFrame(t, 4, 4, IntegerFormat(8), 0, RangeFull)
	mask.Planes[0].Set(0, 1, 1)

	out, err := Bore(f, KindSinglePlane, func(o *BoreOptions) {
		o.Top = []int{1}
		o.IgnoreMask = mask
	})
	require.NoError(t, err)
	assert.Equal(t, float32(100), out.Planes[0].At(0, 0))
	assert.Equal(t, float32(100), out.Planes[0].At(1, 0))

	_, err = Bore(f, KindSinglePlane, func(o *BoreOptions) {
		o.Top = []int{1}
		o.IgnoreMask = grayFrame(t, 2, 2, IntegerFormat(8), 0, RangeFull)
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestBoreIgnoreMaskSubsampled(t *testing.T) {
	f := yuvFrame(t, 8, 8, IntegerFormat(8), 100, 128, RangeLimited)
	mask := yuvFrame(t, 8, 8, IntegerFormat(8), 0, 0, RangeLimited)
	mask.Planes[1].Set(2, 1, 1)

	rec := newRecorder(allOps()...)
	_, err := Bore(f, KindSinglePlane, func(o *BoreOptions) {
		o.Registry = rec
		o.Top = []int{1}
		o.IgnoreMask = mask
	})
	require.NoError(t, err)
	require.Len(t, rec.masks, 3)
	for i, m := range rec.masks {
		assert.Same(t, mask.Planes[i], m, "plane %d", i)
	}
}

func TestBoreMarginsLeaveReferenceLine(t *testing.T) {
	f := grayFrame(t, 4, 4, IntegerFormat(8), 100, RangeFull)
	for _, set := range []func(o *BoreOptions){
		func(o *BoreOptions) { o.Top = []int{4} },
		func(o *BoreOptions) { o.Left, o.Right = []int{2}, []int{2} },
	} {
		require.NotPanics(t, func() {
			_, err := Bore(f, KindSinglePlane, set)
			require.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := Bore(f, KindSinglePlane, func(o *BoreOptions) { o.Top = []int{3} })
	require.NoError(t, err)
}
