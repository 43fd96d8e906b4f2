// Package inset resolves image directives into bitmaps ready to paste.
//
// A [Resolver] fetches bytes through a [Provider], decodes PNG, JPEG, GIF,
// WebP, or BMP, flattens the result onto an opaque RGB canvas, and downscales
// it with Lanczos resampling when it is taller than the requested maximum.
// Width follows the same ratio and is never constrained on its own.
//
// Resolve never panics on bad input and never returns a partial image: the
// caller gets either a usable [Image] or an error, and decides what to do.
package inset

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/clishot/pkg/errors"
)

// MaxSourcePixels bounds the decoded size of a source image. Headers are
// checked before any pixel data is decoded.
const MaxSourcePixels = 64 << 20

// Image is a decoded, opaque, possibly downscaled inset.
type Image struct {
	Bitmap       *image.RGBA
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int
}

// Resolver turns references into images.
type Resolver struct {
	Provider Provider
	Logger   *log.Logger
}

// NewResolver returns a resolver reading through p.
func NewResolver(p Provider, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{Provider: p, Logger: logger}
}

// Resolve fetches ref, decodes it, and scales it down to maxHeight.
// A maxHeight <= 0 disables scaling.
func (r *Resolver) Resolve(ctx context.Context, ref string, maxHeight int) (*Image, error) {
	ref = strings.TrimSpace(ref)
	if err := errors.ValidateImageRef(ref); err != nil {
		return nil, err
	}
	if r.Provider == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "no image provider configured for %s", ref)
	}

	data, err := r.Provider.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	img, format, err := Decode(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode image %s", ref)
	}

	out := Fit(img, maxHeight)
	r.Logger.Debug("resolved image",
		"ref", ref,
		"format", format,
		"source", image.Pt(out.SourceWidth, out.SourceHeight),
		"size", image.Pt(out.Width, out.Height))
	return out, nil
}

// Decode decodes any registered image format. Images larger than
// [MaxSourcePixels] are rejected from their header alone.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", errors.New(errors.ErrCodeDecode, "empty image data")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxSourcePixels/cfg.Height {
		return nil, format, errors.New(errors.ErrCodeDecode, "%s image %dx%d exceeds %d pixels", format, cfg.Width, cfg.Height, MaxSourcePixels)
	}
	return image.Decode(bytes.NewReader(data))
}

// Fit flattens img to opaque RGB and downscales it to maxHeight when taller.
func Fit(img image.Image, maxHeight int) *Image {
	b := img.Bounds()
	out := &Image{SourceWidth: b.Dx(), SourceHeight: b.Dy()}

	if maxHeight > 0 && b.Dy() > maxHeight {
		w := max(int(float64(b.Dx())*float64(maxHeight)/float64(b.Dy())), 1)
		img = resize.Resize(uint(w), uint(maxHeight), img, resize.Lanczos3)
	}

	out.Bitmap = Flatten(img)
	out.Width = out.Bitmap.Bounds().Dx()
	out.Height = out.Bitmap.Bounds().Dy()
	return out
}

// Flatten composites img over black and returns an opaque RGBA copy at the origin.
func Flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
