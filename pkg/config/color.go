package config

import (
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/style"
)

// ParseColor accepts a hex string ("#0f0", "#00ff00", "00ff00") or an
// [r, g, b] array of integers in 0..255.
func ParseColor(v any) (style.RGB, error) {
	switch c := v.(type) {
	case string:
		return parseHex(c)
	case []any:
		return parseTriple(c)
	default:
		return style.RGB{}, errors.New(errors.ErrCodeInvalidStyle, "color must be a hex string or [r, g, b], got %T", v)
	}
}

func parseHex(s string) (style.RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	col, err := colorful.Hex("#" + s)
	if err != nil {
		return style.RGB{}, errors.Wrap(errors.ErrCodeInvalidStyle, err, "invalid hex color %q", s)
	}
	r, g, b := col.RGB255()
	return style.RGB{R: r, G: g, B: b}, nil
}

func parseTriple(vals []any) (style.RGB, error) {
	if len(vals) != 3 {
		return style.RGB{}, errors.New(errors.ErrCodeInvalidStyle, "color array needs 3 components, got %d", len(vals))
	}
	var out [3]uint8
	for i, v := range vals {
		var f float64
		switch n := v.(type) {
		case int64:
			f = float64(n)
		case float64:
			f = n
		default:
			return style.RGB{}, errors.New(errors.ErrCodeInvalidStyle, "color component %d is %T, want a number", i, v)
		}
		if f < 0 || f > 255 || f != math.Trunc(f) {
			return style.RGB{}, errors.New(errors.ErrCodeInvalidStyle, "color component %d out of range: %v", i, v)
		}
		out[i] = uint8(f)
	}
	return style.RGB{R: out[0], G: out[1], B: out[2]}, nil
}
