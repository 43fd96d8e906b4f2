package glyph

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"

	gtfont "github.com/go-text/typesetting/font"
	xdraw "golang.org/x/image/draw"
)

// bitmapFace draws color emoji from embedded PNG/JPEG strikes (CBDT, sbix).
type bitmapFace struct {
	face  *gtfont.Face
	size  int
	scale float64
	cache map[rune]image.Image
}

// NewBitmapFace returns a face for a color bitmap font at size pixels.
// f is shared read-only; the returned face owns its own caches.
func NewBitmapFace(f *gtfont.Font, size float64) Face {
	px := max(int(math.Round(size)), 1)
	face := gtfont.NewFace(f)
	face.SetPpem(uint16(px), uint16(px))

	upem := float64(f.Upem())
	if upem == 0 {
		upem = 1000
	}
	return &bitmapFace{
		face:  face,
		size:  px,
		scale: size / upem,
		cache: make(map[rune]image.Image),
	}
}

func (b *bitmapFace) Advance(r rune) (int, bool) {
	gid, ok := b.face.NominalGlyph(r)
	if !ok {
		return 0, false
	}
	return int(math.Ceil(float64(b.face.HorizontalAdvance(gid)) * b.scale)), true
}

func (b *bitmapFace) Draw(dst draw.Image, r rune, x, top int, _ color.Color) {
	img := b.bitmap(r)
	if img == nil {
		return
	}
	src := img.Bounds()
	if src.Dy() == 0 {
		return
	}
	w := src.Dx() * b.size / src.Dy()
	xdraw.CatmullRom.Scale(dst, image.Rect(x, top, x+w, top+b.size), img, src, xdraw.Over, nil)
}

// bitmap decodes and caches the strike for r. Runes without bitmap data
// cache nil.
func (b *bitmapFace) bitmap(r rune) image.Image {
	if img, ok := b.cache[r]; ok {
		return img
	}
	var img image.Image
	if gid, ok := b.face.NominalGlyph(r); ok {
		img = decodeBitmap(b.face.GlyphData(gid))
	}
	b.cache[r] = img
	return img
}

func decodeBitmap(data gtfont.GlyphData) image.Image {
	var bm gtfont.GlyphBitmap
	switch g := data.(type) {
	case gtfont.GlyphBitmap:
		bm = g
	case *gtfont.GlyphBitmap:
		bm = *g
	default:
		return nil
	}
	if bm.Format != gtfont.PNG && bm.Format != gtfont.JPG {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(bm.Data))
	if err != nil {
		return nil
	}
	return img
}
