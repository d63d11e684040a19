package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noise returns an image that compresses poorly.
func noise(w, h int, alpha bool) *image.NRGBA {
	rnd := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			if alpha {
				a = uint8(rnd.Intn(256))
			}
			img.Set(x, y, color.NRGBA{R: uint8(rnd.Intn(256)), G: uint8(rnd.Intn(256)), B: uint8(rnd.Intn(256)), A: a})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func jpegSize(t *testing.T, img image.Image, q int) int64 {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)))
	return int64(buf.Len())
}

func TestCompressFitsAtStartQuality(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "001_a.png")
	writePNG(t, src, noise(200, 100, false))

	res, err := NewCompressor(nil, nil).Compress(src, dir, 10*1024*1024)
	require.NoError(t, err)

	assert.True(t, res.Fits)
	assert.Equal(t, StartQuality, res.Quality)
	assert.Equal(t, dir, filepath.Dir(res.Path))
	assert.Regexp(t, `^001_a-.+\.jpg$`, filepath.Base(res.Path))
	assert.FileExists(t, res.Path)
}

func TestCompressKeepsSameStemApart(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, ".tmp")
	require.NoError(t, os.Mkdir(out, 0o755))

	png1 := filepath.Join(dir, "001_a.png")
	writePNG(t, png1, noise(120, 80, false))
	jpg := filepath.Join(dir, "001_a.jpg")
	f, err := os.Create(jpg)
	require.NoError(t, err)
	require.NoError(t, imaging.Encode(f, noise(80, 120, false), imaging.JPEG))
	require.NoError(t, f.Close())

	c := NewCompressor(nil, nil)
	first, err := c.Compress(png1, out, 10*1024*1024)
	require.NoError(t, err)
	second, err := c.Compress(jpg, out, 10*1024*1024)
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	a, err := imaging.Open(first.Path)
	require.NoError(t, err)
	b, err := imaging.Open(second.Path)
	require.NoError(t, err)
	assert.Equal(t, 120, a.Bounds().Dx())
	assert.Equal(t, 80, b.Bounds().Dx())
}

func TestCompressLowersQualityUntilUnderLimit(t *testing.T) {
	dir := t.TempDir()
	img := noise(400, 400, false)
	src := filepath.Join(dir, "big.png")
	writePNG(t, src, img)

	limit := jpegSize(t, img, StartQuality) - 1
	res, err := NewCompressor(nil, nil).Compress(src, dir, limit)
	require.NoError(t, err)

	assert.True(t, res.Fits)
	assert.Less(t, res.Quality, StartQuality)
	assert.GreaterOrEqual(t, res.Quality, MinQuality)

	info, err := os.Stat(res.Path)
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), limit)
}

func TestCompressReturnsBestEffortAtFloor(t *testing.T) {
	dir := t.TempDir()
	img := noise(300, 300, false)
	src := filepath.Join(dir, "huge.png")
	writePNG(t, src, img)

	res, err := NewCompressor(nil, nil).Compress(src, dir, 1024)
	require.NoError(t, err)

	assert.False(t, res.Fits)
	assert.Equal(t, MinQuality, res.Quality)
	assert.Equal(t, jpegSize(t, img, MinQuality), res.Size)
	assert.FileExists(t, res.Path)
}

func TestCompressDownsamplesAndFlattens(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wide.png")
	writePNG(t, src, noise(3840, 960, true))

	res, err := NewCompressor(nil, nil).Compress(src, dir, 50*1024*1024)
	require.NoError(t, err)
	assert.Equal(t, 1920, res.Width)
	assert.Equal(t, 480, res.Height)

	out, err := imaging.Open(res.Path)
	require.NoError(t, err)
	assert.Equal(t, 1920, out.Bounds().Dx())
}

func TestCompressRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.jpg")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	_, err := NewCompressor(nil, nil).Compress(src, dir, 1024)
	assert.Error(t, err)
}
