package pipeline

import (
	"bytes"
	"context"
	"image/png"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clishot/pkg/cache"
	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/fonts"
	"github.com/matzehuels/clishot/pkg/glyph"
	"github.com/matzehuels/clishot/pkg/layout"
	"github.com/matzehuels/clishot/pkg/observability"
	"github.com/matzehuels/clishot/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Fonts are the parsed fonts shared by every render.
	Fonts *fonts.Set

	// Images resolves image directives. Nil skips every image.
	Images layout.ImageResolver
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Fonts default to the bundled fallbacks until the caller sets them.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Fonts:  fonts.Load(fonts.Options{Logger: logger}),
	}
}

// Execute runs the complete plan → draw → encode pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (res *Result, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	result := &Result{
		InputHash: opts.InputHash(),
		Artifacts: make(map[string][]byte),
	}
	result.Stats.LineCount = len(opts.Lines)

	// Image bytes are not part of the cache key, and a skipped image may be
	// a transient failure, so renders with image directives are never cached.
	cacheable := !opts.HasImages()
	if cacheable && !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, result.InputHash, opts); ok {
			result.Artifacts = artifacts
			result.CacheInfo.RenderHit = true
			result.Stats.Width, result.Stats.Height = artifactSize(artifacts)
			opts.Logger.Debug("artifacts from cache", "formats", opts.Formats)
			return result, nil
		}
	}

	// Stage 1: Plan
	planStart := time.Now()
	sizes := r.sizes(opts.FontSize)
	p, err := layout.PlanLayout(ctx, opts.Lines, layout.Config{
		Width:      opts.Width,
		Padding:    opts.PaddingPx(),
		ShowChrome: opts.Chrome(),
		Styles:     opts.Registry(),
		Sizes:      sizes,
		Images:     r.Images,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	result.Plan = p
	result.Stats.PlanTime = time.Since(planStart)
	result.Stats.Width, result.Stats.Height = p.Width, p.Height
	result.Stats.SubLineCount = p.SubLineCount()
	result.Stats.ImageCount = p.CountKind(layout.KindImage)
	result.Stats.SkippedImages = p.CountKind(layout.KindSkipped)

	opts.Logger.Info("planned layout",
		"lines", len(opts.Lines),
		"sub_lines", result.Stats.SubLineCount,
		"images", result.Stats.ImageCount,
		"height", p.Height,
		"duration", result.Stats.PlanTime)

	// Stage 2: Draw
	drawStart := time.Now()
	canvas, err := render.Draw(p, sizes)
	if err != nil {
		return nil, err
	}
	result.Stats.DrawTime = time.Since(drawStart)

	// Stage 3: Encode
	encodeStart := time.Now()
	artifacts, err := Encode(canvas, opts.Formats)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.EncodeTime = time.Since(encodeStart)

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"size", len(artifacts[opts.Formats[0]]),
		"duration", result.Stats.DrawTime+result.Stats.EncodeTime)

	if cacheable {
		r.storeArtifacts(ctx, result.InputHash, opts, artifacts)
	}
	return result, nil
}

// Plan runs only the measuring pass.
func (r *Runner) Plan(ctx context.Context, opts Options) (*layout.Plan, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return layout.PlanLayout(ctx, opts.Lines, layout.Config{
		Width:      opts.Width,
		Padding:    opts.PaddingPx(),
		ShowChrome: opts.Chrome(),
		Styles:     opts.Registry(),
		Sizes:      r.sizes(opts.FontSize),
		Images:     r.Images,
		Logger:     opts.Logger,
	})
}

// Encode produces the requested formats from a drawn canvas.
func Encode(c *render.Canvas, formats []string) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(formats))
	var pngData []byte
	for _, format := range formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatPNG, FormatBase64:
			if pngData == nil {
				if pngData, err = c.PNG(); err != nil {
					return nil, err
				}
			}
			data = pngData
			if format == FormatBase64 {
				data = render.EncodeBase64(pngData)
			}
		case FormatJSON:
			data, err = c.JSON()
		default:
			return nil, ValidateFormat(format)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) sizes(base float64) *glyph.Sizes {
	fs := r.Fonts
	if fs == nil {
		fs = fonts.Load(fonts.Options{Logger: r.Logger})
	}
	return glyph.NewSizes(base, fs.Measurer)
}

func (r *Runner) fontKey() string {
	if r.Fonts == nil {
		return ""
	}
	return r.Fonts.TextSource + "+" + r.Fonts.EmojiSource
}

func (r *Runner) cachedArtifacts(ctx context.Context, inputHash string, opts Options) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(inputHash, opts.ArtifactKeyOpts(format, r.fontKey()))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			return nil, false
		}
		artifacts[format] = data
	}
	observability.Cache().OnCacheHit(ctx, "artifact")
	return artifacts, true
}

func (r *Runner) storeArtifacts(ctx context.Context, inputHash string, opts Options, artifacts map[string][]byte) {
	for format, data := range artifacts {
		key := r.Keyer.ArtifactKey(inputHash, opts.ArtifactKeyOpts(format, r.fontKey()))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			opts.Logger.Warn("cache artifact", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
}

// artifactSize reads the canvas size from a cached PNG or base64 artifact.
func artifactSize(artifacts map[string][]byte) (int, int) {
	data := artifacts[FormatPNG]
	if data == nil {
		if b64, ok := artifacts[FormatBase64]; ok {
			data, _ = render.DecodeBase64(b64)
		}
	}
	if data == nil {
		return 0, 0
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
