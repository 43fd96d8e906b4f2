// Package layout turns transcript lines into a measured [Plan].
//
// Planning is the measuring pass of a render. Every input line becomes one
// [Item]: a blank gap, a wrapped text block, a resolved image inset, or a
// skipped image whose fetch or decode failed. Each item carries its final
// top coordinate and height, so the drawing pass only walks the plan and
// never wraps or resizes anything itself.
//
// The vertical budget is:
//
//	total = 2*padding + (ChromeHeight if chrome) + sum(item heights)
//
// where a blank line is one line height, a text item is its line height
// times the number of wrapped sub-lines, an image is its scaled height plus
// [ImageGap], and a skipped image is zero.
package layout

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/glyph"
	"github.com/matzehuels/clishot/pkg/inset"
	"github.com/matzehuels/clishot/pkg/observability"
	"github.com/matzehuels/clishot/pkg/style"
)

const (
	// ChromeHeight is the height of the window title bar.
	ChromeHeight = 30

	// ImageGap is the vertical space reserved below every inset image.
	ImageGap = 10

	DirectiveLeft   = "image-left:"
	DirectiveCenter = "image-center:"
)

// Kind classifies a planned line.
type Kind string

const (
	KindBlank   Kind = "blank"
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindSkipped Kind = "skipped"
)

// Align is the horizontal placement of an inset image.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
)

// ImageResolver fetches and scales the image behind a directive.
type ImageResolver interface {
	Resolve(ctx context.Context, ref string, maxHeight int) (*inset.Image, error)
}

// Item is the measured form of one input line.
type Item struct {
	Kind Kind   `json:"kind"`
	Line string `json:"line"`
	Top  int    `json:"top"`

	// Height is the cursor advance reserved for this item.
	Height int `json:"height"`

	// Text items.
	Style      style.Spec `json:"style"`
	SubLines   []string   `json:"sub_lines,omitempty"`
	LineHeight int        `json:"line_height,omitempty"`
	Available  int        `json:"available,omitempty"`

	// Image and skipped items.
	Ref         string       `json:"ref,omitempty"`
	Align       Align        `json:"align,omitempty"`
	Image       *inset.Image `json:"-"`
	ImageWidth  int          `json:"image_width,omitempty"`
	ImageHeight int          `json:"image_height,omitempty"`
	Err         error        `json:"-"`
	Error       string       `json:"error,omitempty"`
}

// Plan is the result of the measuring pass.
type Plan struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Padding    int     `json:"padding"`
	ShowChrome bool    `json:"show_chrome"`
	FontSize   float64 `json:"font_size"`
	Items      []Item  `json:"items"`
}

// ContentTop is the y coordinate of the first item.
func (p *Plan) ContentTop() int {
	if p.ShowChrome {
		return p.Padding + ChromeHeight
	}
	return p.Padding
}

// SubLineCount returns the number of wrapped text rows.
func (p *Plan) SubLineCount() int {
	n := 0
	for _, it := range p.Items {
		n += len(it.SubLines)
	}
	return n
}

// CountKind returns the number of items of kind k.
func (p *Plan) CountKind(k Kind) int {
	n := 0
	for _, it := range p.Items {
		if it.Kind == k {
			n++
		}
	}
	return n
}

// Config holds everything the measuring pass needs.
type Config struct {
	Width      int
	Padding    int
	ShowChrome bool
	Styles     *style.Registry
	Sizes      *glyph.Sizes

	// Images resolves directives. A nil resolver skips every image.
	Images ImageResolver
	Logger *log.Logger
}

// ParseDirective reports whether line is an image directive and returns its
// alignment and trimmed reference.
func ParseDirective(line string) (Align, string, bool) {
	var align Align
	switch {
	case strings.HasPrefix(line, DirectiveLeft):
		align = AlignLeft
	case strings.HasPrefix(line, DirectiveCenter):
		align = AlignCenter
	default:
		return "", "", false
	}
	ref := line[strings.Index(line, ":")+1:]
	return align, strings.TrimSpace(ref), true
}

// PlanLayout measures lines into a plan.
//
// Per-line failures never abort planning: an image that cannot be resolved
// becomes a [KindSkipped] item with zero height. An error is returned only
// for invalid geometry or a cancelled context.
func PlanLayout(ctx context.Context, lines []string, cfg Config) (*Plan, error) {
	if cfg.Width <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "width must be positive, got %d", cfg.Width)
	}
	if cfg.Padding < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "padding must be >= 0, got %d", cfg.Padding)
	}
	if cfg.Sizes == nil {
		return nil, errors.New(errors.ErrCodeInternal, "layout: no glyph sizes configured")
	}
	if cfg.Styles == nil {
		cfg.Styles = style.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	hooks := observability.Pipeline()
	hooks.OnPlanStart(ctx, len(lines))
	start := time.Now()

	p := &Plan{
		Width:      cfg.Width,
		Padding:    cfg.Padding,
		ShowChrome: cfg.ShowChrome,
		FontSize:   cfg.Sizes.Base(),
		Items:      make([]Item, 0, len(lines)),
	}
	cursor := p.ContentTop()

	for _, raw := range lines {
		if err := ctx.Err(); err != nil {
			hooks.OnPlanComplete(ctx, 0, time.Since(start), err)
			return nil, err
		}

		it, err := planLine(ctx, strings.TrimSpace(raw), cfg, logger)
		if err != nil {
			hooks.OnPlanComplete(ctx, 0, time.Since(start), err)
			return nil, err
		}
		it.Top = cursor
		cursor += it.Height
		p.Items = append(p.Items, it)
	}

	p.Height = cursor + cfg.Padding
	hooks.OnPlanComplete(ctx, p.Height, time.Since(start), nil)
	return p, nil
}

func planLine(ctx context.Context, line string, cfg Config, logger *log.Logger) (Item, error) {
	if line == "" {
		lh := cfg.Sizes.LineHeight(0)
		return Item{Kind: KindBlank, LineHeight: lh, Height: lh}, nil
	}

	if align, ref, ok := ParseDirective(line); ok {
		return planImage(ctx, line, ref, align, cfg, logger), nil
	}

	spec := cfg.Styles.Resolve(line)
	available := cfg.Width - 2*cfg.Padding - spec.Indent
	lh := cfg.Sizes.LineHeight(spec.FontSize)
	sub, err := WrapContext(ctx, line, available, cfg.Sizes.For(spec.FontSize))
	if err != nil {
		return Item{}, err
	}
	return Item{
		Kind:       KindText,
		Line:       line,
		Style:      spec,
		SubLines:   sub,
		LineHeight: lh,
		Available:  available,
		Height:     lh * len(sub),
	}, nil
}

func planImage(ctx context.Context, line, ref string, align Align, cfg Config, logger *log.Logger) Item {
	it := Item{Kind: KindSkipped, Line: line, Ref: ref, Align: align, Style: cfg.Styles.Image()}

	var (
		img *inset.Image
		err error
	)
	if cfg.Images == nil {
		err = errors.New(errors.ErrCodeUnsupported, "image directives are disabled")
	} else {
		img, err = cfg.Images.Resolve(ctx, ref, it.Style.MaxHeight)
	}
	if err != nil {
		logger.Warn("skipping image", "ref", ref, "err", err)
		observability.Pipeline().OnImageSkipped(ctx, ref, err)
		it.Err = err
		it.Error = errors.UserMessage(err)
		return it
	}

	it.Kind = KindImage
	it.Image = img
	it.ImageWidth = img.Width
	it.ImageHeight = img.Height
	it.Height = img.Height + ImageGap
	return it
}

// ImageX returns the left edge of an image item on a canvas of width.
func (p *Plan) ImageX(it Item) int {
	if it.Align == AlignCenter {
		return (p.Width - it.ImageWidth) / 2
	}
	return p.Padding + it.Style.Indent
}

// TextX returns the left edge of a text item's sub-lines.
func (p *Plan) TextX(it Item) int {
	return p.Padding + it.Style.Indent
}
