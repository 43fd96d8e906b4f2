package render

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"

	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/glyph"
	"github.com/matzehuels/clishot/pkg/layout"
)

const (
	// GridStep is the spacing of the background guide lines.
	GridStep = 20

	// BorderRadius is the corner radius of the outer border.
	BorderRadius = 20

	// BorderWidth is the stroke width of the outer border.
	BorderWidth = 2

	// MaxCanvasPixels bounds the canvas allocation.
	MaxCanvasPixels = 64 << 20
)

var (
	Background  = color.RGBA{0, 0, 20, 255}
	GridColor   = color.RGBA{20, 20, 40, 255}
	ChromeColor = color.RGBA{30, 30, 30, 255}
	BorderColor = color.RGBA{0, 255, 255, 255}

	// ButtonColors are the close, minimize, and zoom buttons, left to right.
	ButtonColors = []color.RGBA{
		{255, 95, 86, 255},
		{255, 189, 46, 255},
		{39, 201, 63, 255},
	}
)

// Canvas is a finished drawing together with the plan it was drawn from.
type Canvas struct {
	Plan *layout.Plan
	dc   *gg.Context
}

// Image returns the drawn canvas.
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

// Render plans lines and draws them, returning PNG bytes.
func Render(ctx context.Context, lines []string, cfg layout.Config) ([]byte, error) {
	p, err := layout.PlanLayout(ctx, lines, cfg)
	if err != nil {
		return nil, err
	}
	c, err := Draw(p, cfg.Sizes)
	if err != nil {
		return nil, err
	}
	return c.PNG()
}

// Draw paints p onto a new canvas. Text is measured and drawn with the
// measurers in sizes, which must be the ones p was planned with.
func Draw(p *layout.Plan, sizes *glyph.Sizes) (*Canvas, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "canvas must be positive, got %dx%d", p.Width, p.Height)
	}
	if p.Width*p.Height > MaxCanvasPixels {
		return nil, errors.New(errors.ErrCodeInvalidInput, "canvas %dx%d exceeds %d pixels", p.Width, p.Height, MaxCanvasPixels)
	}

	dc := gg.NewContext(p.Width, p.Height)
	dst, ok := dc.Image().(draw.Image)
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "canvas %T is not drawable", dc.Image())
	}

	drawBackground(dc)
	if p.ShowChrome {
		drawChrome(dc)
	}

	cursor := p.ContentTop()
	for i, it := range p.Items {
		if it.Top != cursor {
			return nil, errors.New(errors.ErrCodeInternal, "item %d planned at y=%d, cursor at %d", i, it.Top, cursor)
		}
		switch it.Kind {
		case layout.KindText:
			m := sizes.For(it.Style.FontSize)
			x := p.TextX(it)
			for j, sub := range it.SubLines {
				m.DrawString(dst, sub, x, cursor+j*it.LineHeight, it.Style.Color.RGBA())
			}
		case layout.KindImage:
			dc.DrawImage(it.Image.Bitmap, p.ImageX(it), cursor)
		}
		cursor += it.Height
	}
	if cursor+p.Padding != p.Height {
		return nil, errors.New(errors.ErrCodeInternal, "drew %dpx of a %dpx plan", cursor+p.Padding, p.Height)
	}

	drawBorder(dc, p)
	return &Canvas{Plan: p, dc: dc}, nil
}

func drawBackground(dc *gg.Context) {
	w, h := float64(dc.Width()), float64(dc.Height())
	dc.SetColor(Background)
	dc.Clear()

	dc.SetColor(GridColor)
	dc.SetLineWidth(1)
	for x := 0; x < dc.Width(); x += GridStep {
		dc.DrawLine(float64(x)+0.5, 0, float64(x)+0.5, h)
	}
	for y := 0; y < dc.Height(); y += GridStep {
		dc.DrawLine(0, float64(y)+0.5, w, float64(y)+0.5)
	}
	dc.Stroke()
}

func drawChrome(dc *gg.Context) {
	dc.SetColor(ChromeColor)
	dc.DrawRectangle(0, 0, float64(dc.Width()), layout.ChromeHeight)
	dc.Fill()

	for i, c := range ButtonColors {
		dc.SetColor(c)
		dc.DrawCircle(17.5+25*float64(i), 15.5, 7.5)
		dc.Fill()
	}
}

func drawBorder(dc *gg.Context, p *layout.Plan) {
	x0 := p.Padding / 2
	y0 := p.Padding / 2
	if p.ShowChrome {
		y0 += layout.ChromeHeight
	}
	x1 := p.Width - p.Padding/2
	y1 := p.Height - p.Padding/2
	if x1 <= x0 || y1 <= y0 {
		return
	}

	dc.SetColor(BorderColor)
	dc.SetLineWidth(BorderWidth)
	dc.DrawRoundedRectangle(float64(x0)+1, float64(y0)+1, float64(x1-x0-1), float64(y1-y0-1), BorderRadius)
	dc.Stroke()
}
