package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/vearutop/vsadjust"
	"github.com/vearutop/vsadjust/internal/planeio"
)

// ioFlags are shared by every command.
type ioFlags struct {
	in, out, job string
}

func (f *ioFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.in, "in", "i", "", "input image")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output image (.png, .jpg, .tif)")
	cmd.Flags().StringVar(&f.job, "job", "", "TOML job file")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
}

// process loads the job and input frame, runs fn and writes the result.
func (f *ioFlags) process(cmd *cobra.Command, fn func(j *job, in *vsadjust.Frame) (*vsadjust.Frame, error)) error {
	logger := loggerFromContext(cmd.Context())
	start := time.Now()

	j, err := loadJob(f.job)
	if err != nil {
		return err
	}
	in, err := planeio.ReadFile(f.in)
	if err != nil {
		return err
	}
	logger.Debug("frame loaded", "path", f.in, "family", in.Family, "width", in.Width(), "height", in.Height(),
		"bits", in.Planes[0].Format.Bits, "range", in.Range)

	out, err := fn(j, in)
	if err != nil {
		return err
	}
	if out == in {
		logger.Info("no correction requested, writing input unchanged")
	}
	if err := planeio.WriteFile(f.out, out); err != nil {
		return err
	}
	logger.Infof("%s written (%s)", f.out, time.Since(start).Round(time.Millisecond))
	return nil
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "vsadjust",
		Short:        "Level, line, border and range corrections for image planes",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(
		newLevelsCmd(),
		newRangeLevelsCmd(),
		newDoubleRangeCmd(),
		newLineBrightnessCmd(),
		newBoreCmd(),
		newColorspaceCmd(),
	)
	return root
}

// levelsFlags holds flags shared by the level commands.
type levelsFlags struct {
	gamma  float64
	rng    string
	planes []int
}

func (f *levelsFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.gamma, "gamma", 0, "gamma exponent (default 0.88)")
	cmd.Flags().StringVar(&f.rng, "range", "", "dynamic range: limited or full (default from frame)")
	cmd.Flags().IntSliceVar(&f.planes, "planes", nil, "planes to process (default luma)")
}

func (f *levelsFlags) options(cmd *cobra.Command, j *job) (func(o *vsadjust.LevelsOptions), error) {
	cfg, err := j.config()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("gamma") {
		cfg.Gamma = f.gamma
	}
	if cmd.Flags().Changed("range") {
		if cfg.Range, err = vsadjust.ParseColorRange(f.rng); err != nil {
			return nil, err
		}
	}
	planes := j.Planes
	if cmd.Flags().Changed("planes") {
		planes = f.planes
	}
	return func(o *vsadjust.LevelsOptions) {
		o.Config = cfg
		o.Planes = planes
	}, nil
}

func newLevelsCmd() *cobra.Command {
	var (
		io                           ioFlags
		lf                           levelsFlags
		minIn, minOut, maxIn, maxOut []float64
		inputDepth                   int
	)
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Remap plane levels with a gamma curve",
		Long: `Remaps [min-in, max-in] onto [min-out, max-out] with a gamma curve.
Values with magnitude up to 1 are ratios of the plane scale, larger values are codes
(at --input-depth when given). Without endpoints the range black and white points are used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return io.process(cmd, func(j *job, in *vsadjust.Frame) (*vsadjust.Frame, error) {
				base, err := lf.options(cmd, j)
				if err != nil {
					return nil, err
				}
				l := j.Levels
				pick := func(name string, flag, fromJob []float64) []float64 {
					if cmd.Flags().Changed(name) {
						return flag
					}
					return fromJob
				}
				return vsadjust.FixLevels(in, base, func(o *vsadjust.LevelsOptions) {
					o.MinIn = pick("min-in", minIn, l.MinIn)
					o.MinOut = pick("min-out", minOut, l.MinOut)
					o.MaxIn = pick("max-in", maxIn, l.MaxIn)
					o.MaxOut = pick("max-out", maxOut, l.MaxOut)
					o.InputDepth = l.InputDepth
					if cmd.Flags().Changed("input-depth") {
						o.InputDepth = inputDepth
					}
				})
			})
		},
	}
	io.register(cmd)
	lf.register(cmd)
	cmd.Flags().Float64SliceVar(&minIn, "min-in", nil, "input black point per plane")
	cmd.Flags().Float64SliceVar(&minOut, "min-out", nil, "output black point per plane")
	cmd.Flags().Float64SliceVar(&maxIn, "max-in", nil, "input white point per plane")
	cmd.Flags().Float64SliceVar(&maxOut, "max-out", nil, "output white point per plane")
	cmd.Flags().IntVar(&inputDepth, "input-depth", 0, "bit depth of integer endpoint codes")
	return cmd
}

func newRangeLevelsCmd() *cobra.Command {
	var (
		io ioFlags
		lf levelsFlags
	)
	cmd := &cobra.Command{
		Use:   "range-levels",
		Short: "Apply a gamma curve anchored at the range black and white points",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return io.process(cmd, func(j *job, in *vsadjust.Frame) (*vsadjust.Frame, error) {
				opt, err := lf.options(cmd, j)
				if err != nil {
					return nil, err
				}
				return vsadjust.FixRangeLevels(in, opt)
			})
		},
	}
	io.register(cmd)
	lf.register(cmd)
	return cmd
}

func newDoubleRangeCmd() *cobra.Command {
	var io ioFlags
	cmd := &cobra.Command{
		Use:   "double-range",
		Short: "Expand twice range-compressed footage back to limited range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return io.process(cmd, func(_ *job, in *vsadjust.Frame) (*vsadjust.Frame, error) {
				return vsadjust.FixDoubleRange(in)
			})
		},
	}
	io.register(cmd)
	return cmd
}

func newLineBrightnessCmd() *cobra.Command {
	var (
		io            ioFlags
		lf            levelsFlags
		rows, columns []string
	)
	cmd := &cobra.Command{
		Use:   "line-brightness",
		Short: "Brighten or darken single luma rows and columns",
		Long: `Each --row/--column takes line:adjustment with adjustment in (-100, 100).
Negative lines count from the bottom/right edge. Entries apply in order.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return io.process(cmd, func(j *job, in *vsadjust.Frame) (*vsadjust.Frame, error) {
				opt, err := lf.options(cmd, j)
				if err != nil {
					return nil, err
				}
				r, c := j.lines(true), j.lines(false)
				if cmd.Flags().Changed("row") {
					if r, err = parseLines(rows); err != nil {
						return nil, err
					}
				}
				if cmd.Flags().Changed("column") {
					if c, err = parseLines(columns); err != nil {
						return nil, err
					}
				}
				return vsadjust.FixLineBrightness(in, r, c, opt)
			})
		},
	}
	io.register(cmd)
	lf.register(cmd)
	cmd.Flags().StringArrayVar(&rows, "row", nil, "row adjustment line:adjustment")
	cmd.Flags().StringArrayVar(&columns, "column", nil, "column adjustment line:adjustment")
	return cmd
}

func newBoreCmd() *cobra.Command {
	var (
		io                       ioFlags
		kind                     string
		left, right, top, bottom []int
		planes                   []int
		extra                    map[string]string
	)
	cmd := &cobra.Command{
		Use:   "bore",
		Short: "Balance border lines against their inner neighbours",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := loggerFromContext(cmd.Context())
			return io.process(cmd, func(j *job, in *vsadjust.Frame) (*vsadjust.Frame, error) {
				b := j.Bore
				name := b.Kind
				if cmd.Flags().Changed("kind") || name == "" {
					name = kind
				}
				k, err := vsadjust.ParseCorrectionKind(name)
				if err != nil {
					return nil, err
				}
				pickInts := func(flag string, v, fromJob []int) []int {
					if cmd.Flags().Changed(flag) {
						return v
					}
					return fromJob
				}
				ex := b.Extra
				if cmd.Flags().Changed("extra") {
					if ex, err = parseExtra(extra); err != nil {
						return nil, err
					}
				}
				return vsadjust.Bore(in, k, func(o *vsadjust.BoreOptions) {
					o.Left = pickInts("left", left, b.Left)
					o.Right = pickInts("right", right, b.Right)
					o.Top = pickInts("top", top, b.Top)
					o.Bottom = pickInts("bottom", bottom, b.Bottom)
					o.Planes = pickInts("planes", planes, j.Planes)
					o.Extra = ex
					o.OnNotice = func(n vsadjust.DeprecationNotice) {
						logger.Warn("deprecated correction kind", "kind", n.Kind, "use", n.Replacement)
					}
				})
			})
		},
	}
	io.register(cmd)
	cmd.Flags().StringVar(&kind, "kind", "single-plane", "correction kind")
	cmd.Flags().IntSliceVar(&left, "left", nil, "left margin per plane")
	cmd.Flags().IntSliceVar(&right, "right", nil, "right margin per plane")
	cmd.Flags().IntSliceVar(&top, "top", nil, "top margin per plane")
	cmd.Flags().IntSliceVar(&bottom, "bottom", nil, "bottom margin per plane")
	cmd.Flags().IntSliceVar(&planes, "planes", nil, "planes to process (default all)")
	cmd.Flags().StringToStringVar(&extra, "extra", nil, "plugin options, e.g. thrlo=0.5,thrhi=2")
	return cmd
}

func newColorspaceCmd() *cobra.Command {
	var (
		io               ioFlags
		rng, rngIn       string
		matrix, matrixIn int
		transfer, trIn   int
		primaries, prIn  int
		width, height    int
		kernel           string
	)
	cmd := &cobra.Command{
		Use:   "colorspace",
		Short: "Convert range, transfer and primaries, retag matrix and resize",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return io.process(cmd, func(_ *job, in *vsadjust.Frame) (*vsadjust.Frame, error) {
				var opts vsadjust.ColorspaceOptions
				changed := cmd.Flags().Changed
				if changed("range") {
					r, err := vsadjust.ParseColorRange(rng)
					if err != nil {
						return nil, err
					}
					opts.Range = &r
				}
				if changed("range-in") {
					r, err := vsadjust.ParseColorRange(rngIn)
					if err != nil {
						return nil, err
					}
					opts.RangeIn = &r
				}
				if changed("matrix") {
					opts.Matrix = lo.ToPtr(vsadjust.Matrix(matrix))
				}
				if changed("matrix-in") {
					opts.MatrixIn = lo.ToPtr(vsadjust.Matrix(matrixIn))
				}
				if changed("transfer") {
					opts.Transfer = lo.ToPtr(vsadjust.Transfer(transfer))
				}
				if changed("transfer-in") {
					opts.TransferIn = lo.ToPtr(vsadjust.Transfer(trIn))
				}
				if changed("primaries") {
					opts.Primaries = lo.ToPtr(vsadjust.Primaries(primaries))
				}
				if changed("primaries-in") {
					opts.PrimariesIn = lo.ToPtr(vsadjust.Primaries(prIn))
				}
				opts.Width, opts.Height = width, height
				interp, err := vsadjust.ParseInterpolation(kernel)
				if err != nil {
					return nil, err
				}
				opts.Resampler = vsadjust.KernelResampler{Interpolation: interp}
				if opts.Matrix == nil && opts.Transfer == nil && opts.Primaries == nil && opts.Range == nil &&
					width == 0 && height == 0 {
					return nil, errors.New("no conversion requested")
				}
				return vsadjust.ColorspaceConversion(in, func(o *vsadjust.ColorspaceOptions) { *o = opts })
			})
		},
	}
	io.register(cmd)
	cmd.Flags().StringVar(&rng, "range", "", "output range: limited or full")
	cmd.Flags().StringVar(&rngIn, "range-in", "", "override input range tag")
	cmd.Flags().IntVar(&matrix, "matrix", 0, "output matrix (H.273 code)")
	cmd.Flags().IntVar(&matrixIn, "matrix-in", 0, "override input matrix tag")
	cmd.Flags().IntVar(&transfer, "transfer", 0, "output transfer (H.273 code)")
	cmd.Flags().IntVar(&trIn, "transfer-in", 0, "override input transfer tag")
	cmd.Flags().IntVar(&primaries, "primaries", 0, "output primaries (H.273 code)")
	cmd.Flags().IntVar(&prIn, "primaries-in", 0, "override input primaries tag")
	cmd.Flags().IntVar(&width, "width", 0, "output width (default unchanged)")
	cmd.Flags().IntVar(&height, "height", 0, "output height (default unchanged)")
	cmd.Flags().StringVar(&kernel, "kernel", "nearest", "scaling kernel: nearest, bilinear, bicubic, mitchell, lanczos2, lanczos3")
	return cmd
}

func parseExtra(kv map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(kv))
	for k, v := range kv {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("extra %s: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}
