// Package pipeline provides the transcript rendering pipeline for clishot.
//
// This package implements the complete plan → draw → encode pipeline used
// by both the CLI and the HTTP server. Centralizing it keeps defaults, cache
// keys, and output formats identical across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Plan: Classify, wrap, and measure every line; resolve inset images
//  2. Draw: Paint the plan onto a canvas
//  3. Encode: Produce the requested formats (PNG, base64 PNG, JSON plan)
//
// Encoded artifacts are cached by a hash of the input lines and every
// option that changes their bytes.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	runner.Fonts = fonts.Load(fonts.Options{Logger: logger})
//	runner.Images = inset.NewResolver(provider, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Lines:   []string{">> build", "$ go test ./..."},
//	    Formats: []string{pipeline.FormatPNG},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
package pipeline

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clishot/pkg/cache"
	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/layout"
	"github.com/matzehuels/clishot/pkg/style"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = 1200

	// DefaultPadding is the default canvas padding in pixels.
	DefaultPadding = 40

	// DefaultFontSize is the default text size in pixels.
	DefaultFontSize = 24.0

	// MaxLines caps the number of input lines per render.
	MaxLines = 2000

	// MaxWidth caps the canvas width.
	MaxWidth = 8192
)

// Format constants for output formats.
const (
	FormatPNG    = "png"
	FormatBase64 = "base64"
	FormatJSON   = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:    true,
	FormatBase64: true,
	FormatJSON:   true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one render.
// This struct supports JSON serialization for API requests.
type Options struct {
	Lines []string `json:"lines"`

	// Canvas options
	Width      int     `json:"width,omitempty"`
	Padding    *int    `json:"padding,omitempty"`
	FontSize   float64 `json:"font_size,omitempty"`
	ShowChrome *bool   `json:"show_chrome,omitempty"`

	// Styles override or extend the built-in style table, in order.
	Styles []style.Spec `json:"styles,omitempty"`

	// Output options
	Formats []string `json:"formats,omitempty"`
	Refresh bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	registry  *style.Registry
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Plan is the measured layout. It is nil when every artifact came from cache.
	Plan *layout.Plan

	// InputHash is the content hash of the input lines.
	InputHash string

	// Artifacts contains encoded outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Width         int
	Height        int
	LineCount     int
	SubLineCount  int
	ImageCount    int
	SkippedImages int
	PlanTime      time.Duration
	DrawTime      time.Duration
	EncodeTime    time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: png, base64, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Lines) > MaxLines {
		return errors.New(errors.ErrCodeInvalidInput, "too many lines: %d (max %d)", len(o.Lines), MaxLines)
	}

	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Width < 0 || o.Width > MaxWidth {
		return errors.New(errors.ErrCodeInvalidInput, "width must be between 1 and %d, got %d", MaxWidth, o.Width)
	}
	if o.Padding == nil {
		p := DefaultPadding
		o.Padding = &p
	}
	if *o.Padding < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "padding must be >= 0, got %d", *o.Padding)
	}
	if o.FontSize == 0 {
		o.FontSize = DefaultFontSize
	}
	if o.FontSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "font_size must be positive, got %g", o.FontSize)
	}
	if o.ShowChrome == nil {
		on := true
		o.ShowChrome = &on
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	reg, err := style.NewRegistry(o.Styles...)
	if err != nil {
		return err
	}
	o.registry = reg

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Registry returns the merged style registry. It is nil until
// ValidateAndSetDefaults succeeds.
func (o *Options) Registry() *style.Registry {
	return o.registry
}

// Chrome reports whether the window chrome is drawn.
func (o *Options) Chrome() bool {
	return o.ShowChrome == nil || *o.ShowChrome
}

// PaddingPx returns the padding in pixels.
func (o *Options) PaddingPx() int {
	if o.Padding == nil {
		return DefaultPadding
	}
	return *o.Padding
}

// InputHash returns the content hash of the input lines.
func (o *Options) InputHash() string {
	data, _ := json.Marshal(o.Lines)
	return cache.Hash(data)
}

// HasImages reports whether any line is an image directive.
func (o *Options) HasImages() bool {
	for _, line := range o.Lines {
		if _, _, ok := layout.ParseDirective(strings.TrimSpace(line)); ok {
			return true
		}
	}
	return false
}

// ArtifactKeyOpts returns cache key options for one output format.
func (o *Options) ArtifactKeyOpts(format, fonts string) cache.ArtifactKeyOpts {
	styles := ""
	if o.registry != nil {
		data, _ := json.Marshal(o.registry.Specs())
		styles = cache.Hash(data)
	}
	return cache.ArtifactKeyOpts{
		Format:     format,
		Width:      o.Width,
		Padding:    o.PaddingPx(),
		FontSize:   o.FontSize,
		ShowChrome: o.Chrome(),
		Styles:     styles,
		Fonts:      fonts,
	}
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }
