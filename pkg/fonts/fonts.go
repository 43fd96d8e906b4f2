// Package fonts loads the text and emoji fonts used to draw transcripts.
//
// Font loading never fails a render. A text font that cannot be read falls
// back to the bundled Go Mono face, and if that cannot be parsed either, to
// basicfont's fixed 7x13 bitmap face. A missing emoji font routes emoji to
// the text face. Every fallback is logged as a warning.
//
// Parsed fonts are shared read-only. Faces carry glyph caches, so
// [Set.Measurer] builds new faces on every call.
package fonts

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/glyph"
)

// DefaultEmojiPaths are probed in order when no emoji font is configured.
var DefaultEmojiPaths = []string{
	"fonts/NotoColorEmoji.ttf",
	"/usr/share/fonts/truetype/noto/NotoColorEmoji.ttf",
	"/usr/share/fonts/noto/NotoColorEmoji.ttf",
	"/usr/share/fonts/google-noto-emoji/NotoColorEmoji.ttf",
	"/usr/local/share/fonts/NotoColorEmoji.ttf",
}

// Go Mono is parsed once on first use.
var (
	goMono     *opentype.Font
	goMonoErr  error
	goMonoOnce sync.Once
)

// GoMono returns the bundled Go Mono font.
func GoMono() (*opentype.Font, error) {
	goMonoOnce.Do(func() {
		goMono, goMonoErr = opentype.Parse(gomono.TTF)
	})
	return goMono, goMonoErr
}

// Options selects font files. Empty paths use the defaults.
type Options struct {
	TextPath  string
	EmojiPath string
	Logger    *log.Logger
}

// Set holds the parsed fonts for a renderer.
type Set struct {
	text  *opentype.Font // nil selects basicfont.Face7x13
	emoji *gtfont.Font   // nil routes emoji to the text face

	TextSource  string
	EmojiSource string
}

// Load parses the configured fonts, falling back as described in the
// package documentation. It does not return an error.
func Load(opts Options) *Set {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Set{}

	if opts.TextPath != "" {
		f, err := LoadText(opts.TextPath)
		if err == nil {
			s.text, s.TextSource = f, opts.TextPath
		} else {
			logger.Warn("text font unavailable, using Go Mono", "path", opts.TextPath, "err", err)
		}
	}
	if s.text == nil {
		if f, err := GoMono(); err == nil {
			s.text, s.TextSource = f, "gomono"
		} else {
			logger.Warn("Go Mono unavailable, using basicfont 7x13", "err", err)
			s.TextSource = "basicfont"
		}
	}

	paths := DefaultEmojiPaths
	if opts.EmojiPath != "" {
		paths = []string{opts.EmojiPath}
	}
	for _, p := range paths {
		f, err := LoadEmoji(p)
		if err != nil {
			if opts.EmojiPath != "" {
				logger.Warn("emoji font unavailable, emoji use the text font", "path", p, "err", err)
			}
			continue
		}
		s.emoji, s.EmojiSource = f, p
		break
	}
	if s.emoji == nil && opts.EmojiPath == "" {
		logger.Debug("no emoji font found, emoji use the text font")
	}

	logger.Debug("fonts loaded", "text", s.TextSource, "emoji", s.EmojiSource)
	return s
}

// LoadText parses an OpenType or TrueType outline font file.
func LoadText(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "text font %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeFont, err, "read text font %s", path)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFont, err, "parse text font %s", path)
	}
	return f, nil
}

// LoadEmoji parses a color emoji font file with bitmap strikes.
func LoadEmoji(path string) (*gtfont.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "emoji font %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeFont, err, "read emoji font %s", path)
	}
	face, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFont, err, "parse emoji font %s", path)
	}
	return face.Font, nil
}

// HasEmoji reports whether a color emoji font was loaded.
func (s *Set) HasEmoji() bool { return s.emoji != nil }

// TextFace returns a new x/image face for the text font at size pixels.
func (s *Set) TextFace(size float64) font.Face {
	if s.text == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(s.text, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// Measurer builds a measurer with fresh faces at size pixels.
func (s *Set) Measurer(size float64) *glyph.Measurer {
	text := glyph.NewOutlineFace(s.TextFace(size))
	if s.emoji == nil {
		return glyph.NewMeasurer(text, nil)
	}
	return glyph.NewMeasurer(text, glyph.NewBitmapFace(s.emoji, size))
}
