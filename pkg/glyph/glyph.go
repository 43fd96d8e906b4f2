// Package glyph measures and draws single characters with per-rune font dispatch.
//
// No single font covers both terminal text and color emoji, so every rune is
// classified by [IsEmoji] and routed to one of two [Face] values. Widths are
// integral pixel advances; text width is their plain sum, without kerning.
//
// Negative advances are clamped to zero, so [Measurer.TextWidth] never
// decreases as runes are appended. Line wrapping binary-searches on it.
package glyph

import (
	"image/color"
	"image/draw"
)

// Face measures and draws single runes at a fixed size.
// Implementations are not safe for concurrent use.
type Face interface {
	// Advance returns the horizontal advance of r in pixels and false when
	// the font has no glyph for r.
	Advance(r rune) (int, bool)

	// Draw renders r with its top-left corner at (x, top). Outline faces fill
	// with col; color bitmap faces ignore it.
	Draw(dst draw.Image, r rune, x, top int, col color.Color)
}

// Measurer dispatches runes between a text face and an emoji face.
type Measurer struct {
	text  Face
	emoji Face
}

// NewMeasurer returns a measurer. A nil emoji face routes every rune to text.
func NewMeasurer(text, emoji Face) *Measurer {
	if emoji == nil {
		emoji = text
	}
	return &Measurer{text: text, emoji: emoji}
}

// Face returns the face responsible for r.
func (m *Measurer) Face(r rune) Face {
	if IsEmoji(r) {
		return m.emoji
	}
	return m.text
}

// Width returns the advance of r, or 0 when its face has no glyph.
func (m *Measurer) Width(r rune) int {
	w, ok := m.Face(r).Advance(r)
	if !ok || w < 0 {
		return 0
	}
	return w
}

// TextWidth returns the summed advance of every rune in s.
func (m *Measurer) TextWidth(s string) int {
	total := 0
	for _, r := range s {
		total += m.Width(r)
	}
	return total
}

// DrawString draws s starting at (x, top) and returns the x after the last rune.
// The cursor advances by [Measurer.Width] so drawing matches measurement.
func (m *Measurer) DrawString(dst draw.Image, s string, x, top int, col color.Color) int {
	for _, r := range s {
		w := m.Width(r)
		if w > 0 {
			m.Face(r).Draw(dst, r, x, top, col)
		}
		x += w
	}
	return x
}
