// Package style maps transcript lines to visual styles by their leading prefix.
//
// A [Registry] is built once from the built-in table merged with caller
// overrides and is never mutated afterward. Resolution walks the prefixes in
// insertion order and returns the first one the line starts with, falling
// back to the [DefaultKey] style when nothing matches.
//
//	reg, err := style.NewRegistry(style.Spec{Prefix: "ERR", Color: style.RGB{R: 255}})
//	s := reg.Resolve("ERR disk full") // the ERR style
//	s = reg.Resolve("plain text")     // the "$" style
package style

import (
	"image/color"
	"strings"

	"github.com/matzehuels/clishot/pkg/errors"
)

const (
	// DefaultKey is the prefix whose style is used for unmatched lines.
	DefaultKey = "$"

	// ImageKey is the pseudo-style consulted for image directives.
	// It never participates in prefix matching.
	ImageKey = "img"

	// DefaultImageMaxHeight caps inset images when the image style sets none.
	DefaultImageMaxHeight = 300
)

// RGB is an opaque 8-bit color.
type RGB struct {
	R, G, B uint8
}

// RGBA converts c to an opaque color.RGBA.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// Spec describes how lines starting with Prefix are drawn.
type Spec struct {
	Prefix    string  `json:"prefix" toml:"-"`
	Color     RGB     `json:"color" toml:"-"`
	Indent    int     `json:"indent" toml:"indent"`
	FontSize  float64 `json:"font_size,omitempty" toml:"font_size"`   // 0 uses the render font size
	MaxHeight int     `json:"max_height,omitempty" toml:"max_height"` // image pseudo-style only
	Glow      bool    `json:"glow,omitempty" toml:"glow"`             // parsed, not drawn
}

// Builtins returns the built-in style table in resolution order.
func Builtins() []Spec {
	return []Spec{
		{Prefix: ">>", Color: RGB{0, 255, 255}, Indent: 0, Glow: true},
		{Prefix: "$", Color: RGB{0, 255, 0}, Indent: 20},
		{Prefix: "#", Color: RGB{128, 128, 128}, Indent: 10},
		{Prefix: "!", Color: RGB{255, 0, 0}, Indent: 0},
		{Prefix: "@", Color: RGB{255, 255, 0}, Indent: 10},
		{Prefix: ImageKey, Color: RGB{255, 128, 255}, Indent: 20, MaxHeight: DefaultImageMaxHeight},
	}
}

// Registry is an immutable, ordered set of styles.
// It is safe for concurrent use.
type Registry struct {
	specs []Spec
	index map[string]int
}

// Default returns a registry holding only the built-in styles.
func Default() *Registry {
	r, _ := NewRegistry()
	return r
}

// NewRegistry merges overrides into the built-in table.
//
// An override whose prefix matches an existing entry replaces that entry as a
// whole and keeps its position. New prefixes are appended in the order given.
// The merge is deterministic for a given overrides slice.
func NewRegistry(overrides ...Spec) (*Registry, error) {
	specs := Builtins()
	index := make(map[string]int, len(specs)+len(overrides))
	for i, s := range specs {
		index[s.Prefix] = i
	}

	for _, o := range overrides {
		if err := errors.ValidatePrefix(o.Prefix); err != nil {
			return nil, err
		}
		if o.Indent < 0 {
			return nil, errors.New(errors.ErrCodeInvalidStyle, "style %q: indent must be >= 0, got %d", o.Prefix, o.Indent)
		}
		if o.FontSize < 0 {
			return nil, errors.New(errors.ErrCodeInvalidStyle, "style %q: font_size must be >= 0", o.Prefix)
		}
		if o.MaxHeight < 0 {
			return nil, errors.New(errors.ErrCodeInvalidStyle, "style %q: max_height must be >= 0", o.Prefix)
		}
		if i, ok := index[o.Prefix]; ok {
			specs[i] = o
			continue
		}
		index[o.Prefix] = len(specs)
		specs = append(specs, o)
	}

	return &Registry{specs: specs, index: index}, nil
}

// Resolve returns the style for a trimmed line.
func (r *Registry) Resolve(line string) Spec {
	for _, s := range r.specs {
		if s.Prefix == ImageKey {
			continue
		}
		if strings.HasPrefix(line, s.Prefix) {
			return s
		}
	}
	return r.specs[r.index[DefaultKey]]
}

// Lookup returns the style registered under key.
func (r *Registry) Lookup(key string) (Spec, bool) {
	i, ok := r.index[key]
	if !ok {
		return Spec{}, false
	}
	return r.specs[i], true
}

// Image returns the image pseudo-style with MaxHeight defaulted.
func (r *Registry) Image() Spec {
	s := r.specs[r.index[ImageKey]]
	if s.MaxHeight <= 0 {
		s.MaxHeight = DefaultImageMaxHeight
	}
	return s
}

// Specs returns a copy of all styles in resolution order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}
