package vsadjust

import "github.com/vearutop/vsadjust/internal/bore"

// DefaultPlugins returns the built-in border plugins.
func DefaultPlugins() Plugins {
	return Plugins{
		OpSinglePlane:         borePlugin(bore.SinglePlane),
		OpSinglePlaneLimited:  borePlugin(bore.SinglePlaneLimited),
		OpSinglePlaneWeighted: borePlugin(bore.SinglePlaneWeighted),
	}
}

func borePlugin(run func(p bore.Plane, prm bore.Params)) BorderFunc {
	return func(f *Frame, m Margins, plane int, mask *Plane, extra map[string]float64) (*Frame, error) {
		src := f.Planes[plane]
		dst := src.Clone()
		lo, hi := 0.0, src.Format.MaxCode()
		if f.IsChroma(plane) && src.Format.Float {
			lo, hi = floatChromaLow, floatChromaPeak
		}
		prm := bore.Params{
			Left: m.Left, Right: m.Right, Top: m.Top, Bottom: m.Bottom,
			Lower: extra["thrlo"], Upper: extra["thrhi"], Sigma: extra["sigma"],
		}
		if mask != nil {
			prm.Mask = mask.Pix
		}
		run(bore.Plane{
			Width: dst.Width, Height: dst.Height, Pix: dst.Pix,
			Lo: lo, Hi: hi, Integer: !src.Format.Float,
		}, prm)

		out := f.withPlanes()
		out.Planes[plane] = dst
		return out, nil
	}
}
