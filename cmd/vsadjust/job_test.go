package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vearutop/vsadjust"
	"github.com/vearutop/vsadjust/internal/planeio"
)

func TestParseLines(t *testing.T) {
	got, err := parseLines([]string{"5:20", " -1 : -12.5"})
	require.NoError(t, err)
	assert.Equal(t, vsadjust.LineMap{{Line: 5, Adjustment: 20}, {Line: -1, Adjustment: -12.5}}, got)

	for _, bad := range []string{"5", "x:1", "1:y"} {
		_, err = parseLines([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseExtra(t *testing.T) {
	got, err := parseExtra(map[string]string{"thrlo": "0.25", "sigma": "1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"thrlo": 0.25, "sigma": 1}, got)

	_, err = parseExtra(map[string]string{"thrhi": "high"})
	assert.Error(t, err)
}

func writeJob(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadJob(t *testing.T) {
	j, err := loadJob(writeJob(t, `
gamma = 1.2
range = "full"
planes = [0]

[levels]
max_in = [235.0]
input_depth = 8

[[rows]]
line = 0
adjustment = 30.0

[[rows]]
line = -1
adjustment = -10.0

[bore]
kind = "single-plane-limited"
top = [2]
extra = { thrlo = 0.8 }
`))
	require.NoError(t, err)

	cfg, err := j.config()
	require.NoError(t, err)
	assert.Equal(t, vsadjust.Config{Gamma: 1.2, Range: vsadjust.RangeFull}, cfg)
	assert.Equal(t, []float64{235}, j.Levels.MaxIn)
	assert.Equal(t, 8, j.Levels.InputDepth)
	assert.Equal(t, vsadjust.LineMap{{Line: 0, Adjustment: 30}, {Line: -1, Adjustment: -10}}, j.lines(true))
	assert.Empty(t, j.lines(false))
	assert.Equal(t, "single-plane-limited", j.Bore.Kind)
	assert.Equal(t, map[string]float64{"thrlo": 0.8}, j.Bore.Extra)

	_, err = loadJob(writeJob(t, "gama = 1\n"))
	assert.ErrorContains(t, err, "unknown keys")

	j, err = loadJob("")
	require.NoError(t, err)
	cfg, err = j.config()
	require.NoError(t, err)
	assert.Equal(t, vsadjust.DefaultConfig(), cfg)
}

func writeGray(t *testing.T, dir string, row0 uint8) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(100)
			if y == 0 {
				v = row0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	path := filepath.Join(dir, "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(os.Stderr)
	return cmd.Execute()
}

func TestBoreCommand(t *testing.T) {
	dir := t.TempDir()
	in, out := writeGray(t, dir, 50), filepath.Join(dir, "out.png")

	require.NoError(t, run(t, "bore", "-i", in, "-o", out, "--top", "1"))

	f, err := planeio.ReadFile(out)
	require.NoError(t, err)
	for x := 0; x < 8; x++ {
		assert.Equal(t, float32(100), f.Planes[0].At(x, 0))
	}
}

func TestBoreCommandUnknownKind(t *testing.T) {
	dir := t.TempDir()
	in := writeGray(t, dir, 50)

	err := run(t, "bore", "-i", in, "-o", filepath.Join(dir, "out.png"), "--kind", "sideways", "--top", "1")
	assert.ErrorIs(t, err, vsadjust.ErrUnknownVariant)
}

func TestLineBrightnessCommand(t *testing.T) {
	dir := t.TempDir()
	in, out := writeGray(t, dir, 50), filepath.Join(dir, "out.png")
	job := writeJob(t, "[[rows]]\nline = 0\nadjustment = 40.0\n")

	require.NoError(t, run(t, "line-brightness", "-i", in, "-o", out, "--job", job))

	f, err := planeio.ReadFile(out)
	require.NoError(t, err)
	assert.Greater(t, f.Planes[0].At(0, 0), float32(50))
	assert.Equal(t, float32(100), f.Planes[0].At(0, 1))

	err = run(t, "line-brightness", "-i", in, "-o", out, "--row", "0:100")
	assert.ErrorIs(t, err, vsadjust.ErrValidation)
}

func TestColorspaceCommandNeedsConversion(t *testing.T) {
	dir := t.TempDir()
	in := writeGray(t, dir, 50)

	err := run(t, "colorspace", "-i", in, "-o", filepath.Join(dir, "out.png"), "--matrix-in", "1")
	assert.ErrorContains(t, err, "no conversion requested")
}

func TestColorspaceCommandResize(t *testing.T) {
	dir := t.TempDir()
	in, out := writeGray(t, dir, 100), filepath.Join(dir, "out.png")

	require.NoError(t, run(t, "colorspace", "-i", in, "-o", out, "--width", "4", "--kernel", "bilinear"))

	f, err := planeio.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Width())
	assert.Equal(t, 8, f.Height())
	assert.Equal(t, float32(100), f.Planes[0].At(2, 5))

	err = run(t, "colorspace", "-i", in, "-o", out, "--width", "4", "--kernel", "sharp")
	assert.ErrorIs(t, err, vsadjust.ErrUnknownVariant)
}
