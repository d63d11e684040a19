package media

import (
	"bytes"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/samber/oops"
	_ "golang.org/x/image/webp" // webp decoder registration

	"github.com/reshetovitsme/channel-autoposter/internal/shared/metrics"
)

const (
	// DefaultSizeLimit is the largest photo the messaging platform accepts.
	DefaultSizeLimit int64 = 5 * 1024 * 1024
	// MaxDimension bounds both width and height of a compressed image.
	MaxDimension = 1920

	StartQuality = 85
	MinQuality   = 50
	QualityStep  = 5
)

// Result describes a compressed image.
type Result struct {
	Path    string
	Size    int64
	Quality int
	Width   int
	Height  int
	// Fits is false when even MinQuality did not get under the limit;
	// Path then holds the smallest attempt.
	Fits bool
}

// Compressor re-encodes oversized images as JPEG
type Compressor struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewCompressor creates a new image compressor
func NewCompressor(logger *slog.Logger, m *metrics.Metrics) *Compressor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compressor{logger: logger, metrics: m}
}

// Compress decodes src, flattens transparency, fits it within
// MaxDimension x MaxDimension and encodes it into dstDir at decreasing
// quality until the result is at most limit bytes or MinQuality is reached.
func (c *Compressor) Compress(src, dstDir string, limit int64) (Result, error) {
	if limit <= 0 {
		limit = DefaultSizeLimit
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, oops.With("path", src, "context", "failed to decode image").Wrap(err)
	}

	bounds := img.Bounds()
	c.logger.Info("Compressing image", "path", src, "width", bounds.Dx(), "height", bounds.Dy())

	img = flatten(img)
	img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)

	var (
		best        []byte
		bestQuality int
	)
	for q := StartQuality; q >= MinQuality; q -= QualityStep {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
			return Result{}, oops.With("path", src, "quality", q, "context", "failed to encode image").Wrap(err)
		}
		if best == nil || buf.Len() < len(best) {
			best = buf.Bytes()
			bestQuality = q
		}
		if int64(buf.Len()) <= limit {
			break
		}
	}

	dst, err := writeTemp(dstDir, strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)), best)
	if err != nil {
		return Result{}, oops.With("path", src, "dir", dstDir, "context", "failed to write compressed image").Wrap(err)
	}

	res := Result{
		Path:    dst,
		Size:    int64(len(best)),
		Quality: bestQuality,
		Width:   img.Bounds().Dx(),
		Height:  img.Bounds().Dy(),
		Fits:    int64(len(best)) <= limit,
	}
	c.metrics.RecordCompression(res.Fits)

	if !res.Fits {
		c.logger.Warn("Unable to compress image under limit", "path", src, "size", res.Size, "limit", limit)
	} else {
		c.logger.Info("Compressed image saved", "path", dst, "size_mb", float64(res.Size)/1024/1024, "quality", res.Quality)
	}
	return res, nil
}

// writeTemp stores data under a fresh <base>-*.jpg name, so sources that
// differ only in extension never share an output file.
func writeTemp(dir, base string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, base+"-*.jpg")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// flatten draws img over an opaque white background so it can be
// encoded as JPEG without an alpha channel.
func flatten(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
