package glyph

import "unicode"

// emojiTable lists the code points routed to the emoji font.
var emojiTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200d, Hi: 0x200d, Stride: 1}, // zero width joiner
		{Lo: 0x2600, Hi: 0x27bf, Stride: 1}, // misc symbols, dingbats
		{Lo: 0xfe0f, Hi: 0xfe0f, Stride: 1}, // emoji presentation selector
	},
	R32: []unicode.Range32{
		{Lo: 0x1f1e6, Hi: 0x1f1ff, Stride: 1}, // regional indicators
		{Lo: 0x1f300, Hi: 0x1faf6, Stride: 1},
	},
}

// IsEmoji reports whether r is drawn with the emoji font.
func IsEmoji(r rune) bool {
	return unicode.Is(emojiTable, r)
}
