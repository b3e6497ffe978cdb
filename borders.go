package vsadjust

import (
	"fmt"
	"sort"
	"strings"
)

// CorrectionKind selects a border correction algorithm.
type CorrectionKind int

const (
	KindUnknown CorrectionKind = iota
	// KindSinglePlane balances each border line against its inner neighbour with least squares.
	KindSinglePlane
	// KindSinglePlaneLimited ignores sample pairs whose ratio falls outside [thrlo, thrhi].
	KindSinglePlaneLimited
	// KindSinglePlaneWeighted weights sample pairs by their similarity.
	KindSinglePlaneWeighted

	// Deprecated: KindFixBrightness resolves to KindSinglePlane.
	KindFixBrightness
	// Deprecated: KindBalance resolves to KindSinglePlane.
	KindBalance
)

// Operation names a border plugin looks up.
const (
	OpSinglePlane         = "bore.SinglePlane"
	OpSinglePlaneLimited  = "bore.SinglePlaneLimited"
	OpSinglePlaneWeighted = "bore.SinglePlaneWeighted"
)

type kindEntry struct {
	name        string
	op          string
	replacement CorrectionKind
}

var kindTable = map[CorrectionKind]kindEntry{
	KindSinglePlane:         {name: "single-plane", op: OpSinglePlane},
	KindSinglePlaneLimited:  {name: "single-plane-limited", op: OpSinglePlaneLimited},
	KindSinglePlaneWeighted: {name: "single-plane-weighted", op: OpSinglePlaneWeighted},
	KindFixBrightness:       {name: "fix-brightness", op: OpSinglePlane, replacement: KindSinglePlane},
	KindBalance:             {name: "balance", op: OpSinglePlane, replacement: KindSinglePlane},
}

func (k CorrectionKind) String() string {
	if e, ok := kindTable[k]; ok {
		return e.name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseCorrectionKind maps a kind name such as "single-plane" or "balance" to its kind.
// Underscores and case are ignored.
func ParseCorrectionKind(s string) (CorrectionKind, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for k, e := range kindTable {
		if e.name == name {
			return k, nil
		}
	}
	err := newError(ErrCodeUnknownVariant, "no correction kind named %q, known: %s", s, strings.Join(KindNames(), ", "))
	err.Kind = s
	return KindUnknown, err
}

// KindNames lists the recognised kind names in sorted order.
func KindNames() []string {
	names := make([]string, 0, len(kindTable))
	for _, e := range kindTable {
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}

// Resolution is the outcome of resolving a correction kind.
type Resolution struct {
	// Kind is the effective kind, the replacement for deprecated kinds.
	Kind CorrectionKind
	// Op is the plugin operation to invoke.
	Op string
	// Notice is set when the requested kind is deprecated.
	Notice *DeprecationNotice
}

// ResolveKind maps k to its plugin operation.
func ResolveKind(k CorrectionKind) (Resolution, error) {
	e, ok := kindTable[k]
	if !ok {
		err := newError(ErrCodeUnknownVariant, "unknown correction kind %d", int(k))
		err.Kind = k.String()
		return Resolution{}, err
	}
	if e.replacement == KindUnknown {
		return Resolution{Kind: k, Op: e.op}, nil
	}
	return Resolution{
		Kind:   e.replacement,
		Op:     e.op,
		Notice: &DeprecationNotice{Kind: k, Replacement: e.replacement},
	}, nil
}

// BorderFunc corrects the borders of one plane of f and returns the corrected frame.
// mask, when set, marks samples to leave out of the fit with non-zero values.
type BorderFunc func(f *Frame, m Margins, plane int, mask *Plane, extra map[string]float64) (*Frame, error)

// PluginRegistry resolves plugin operations by name.
type PluginRegistry interface {
	Lookup(op string) (BorderFunc, bool)
}

// Plugins is a map-backed PluginRegistry.
type Plugins map[string]BorderFunc

// Lookup implements PluginRegistry.
func (p Plugins) Lookup(op string) (BorderFunc, bool) {
	fn, ok := p[op]
	return fn, ok && fn != nil
}

// BoreOptions controls Bore.
type BoreOptions struct {
	// Margins per axis, a single value applies to every plane.
	Left, Right, Top, Bottom []int
	// Planes selects planes to process, all when nil.
	Planes []int
	// IgnoreMask is a mask clip with the shape of the frame; non-zero samples of its
	// plane i are excluded from the fit of plane i.
	IgnoreMask *Frame
	// Extra is passed through to the plugin.
	Extra map[string]float64
	// Registry provides the plugins, DefaultPlugins when nil.
	Registry PluginRegistry
	// OnNotice receives deprecation notices.
	OnNotice func(n DeprecationNotice)
}

// Bore runs a border deringer of the given kind over every plane with a non-zero
// margin request. An all-zero request returns f without invoking any plugin.
func Bore(f *Frame, kind CorrectionKind, opts ...func(o *BoreOptions)) (*Frame, error) {
	var o BoreOptions
	for _, apply := range opts {
		apply(&o)
	}

	res, err := ResolveKind(kind)
	if err != nil {
		return nil, err
	}
	if res.Notice != nil {
		Logger().Warn(res.Notice.String(), "kind", kind.String(), "replacement", res.Kind.String())
		if o.OnNotice != nil {
			o.OnNotice(*res.Notice)
		}
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	margins, err := NormalizeMargins(o.Left, o.Right, o.Top, o.Bottom, f.NumPlanes())
	if err != nil {
		return nil, err
	}
	planes, err := normalizePlanes(o.Planes, f.NumPlanes(), allPlanes(f.NumPlanes()))
	if err != nil {
		return nil, err
	}
	if AllZero(margins) {
		Logger().Debug("bore: nothing to do", "kind", res.Kind.String())
		return f, nil
	}

	reg := o.Registry
	if reg == nil {
		reg = DefaultPlugins()
	}
	plugin, ok := reg.Lookup(res.Op)
	if !ok {
		err := newError(ErrCodePluginUnavailable, "operation %s is not available, plugin library may be out of date", res.Op)
		err.Kind = kind.String()
		return nil, err
	}

	out := f
	for _, i := range planes {
		m := margins[i]
		if m.IsZero() {
			Logger().Debug("bore: skipping plane", "plane", i)
			continue
		}
		p := f.Planes[i]
		if m.Left+m.Right >= p.Width || m.Top+m.Bottom >= p.Height {
			return nil, newError(ErrCodeInvalidInput, "plane %d: margins %+v exceed %dx%d", i, m, p.Width, p.Height)
		}
		var mask *Plane
		if o.IgnoreMask != nil {
			if i >= o.IgnoreMask.NumPlanes() {
				return nil, newError(ErrCodeInvalidInput, "plane %d: ignore mask has %d planes", i, o.IgnoreMask.NumPlanes())
			}
			mask = o.IgnoreMask.Planes[i]
			if mask.Width != p.Width || mask.Height != p.Height {
				return nil, newError(ErrCodeInvalidInput, "plane %d: ignore mask is %dx%d, plane is %dx%d",
					i, mask.Width, mask.Height, p.Width, p.Height)
			}
		}
		if out, err = plugin(out, m, i, mask, o.Extra); err != nil {
			return nil, fmt.Errorf("%s plane %d: %w", res.Op, i, err)
		}
	}
	return out, nil
}
