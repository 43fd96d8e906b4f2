package glyph

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// outlineFace adapts an x/image font.Face.
type outlineFace struct {
	face   font.Face
	ascent int
}

// NewOutlineFace wraps f, typically an opentype face or basicfont.Face7x13.
func NewOutlineFace(f font.Face) Face {
	return &outlineFace{face: f, ascent: f.Metrics().Ascent.Ceil()}
}

func (o *outlineFace) Advance(r rune) (int, bool) {
	adv, ok := o.face.GlyphAdvance(r)
	if !ok {
		return 0, false
	}
	return adv.Ceil(), true
}

func (o *outlineFace) Draw(dst draw.Image, r rune, x, top int, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: o.face,
		Dot:  fixed.P(x, top+o.ascent),
	}
	d.DrawString(string(r))
}
