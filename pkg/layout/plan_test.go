package layout

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/glyph"
	"github.com/matzehuels/clishot/pkg/inset"
	"github.com/matzehuels/clishot/pkg/style"
)

type monoFace struct{ w int }

func (f monoFace) Advance(rune) (int, bool)                     { return f.w, true }
func (f monoFace) Draw(draw.Image, rune, int, int, color.Color) {}

func testSizes(base float64) *glyph.Sizes {
	return glyph.NewSizes(base, func(size float64) *glyph.Measurer {
		return glyph.NewMeasurer(monoFace{w: int(size * 0.6)}, nil)
	})
}

// fakeImages resolves refs from a map and fails for everything else.
type fakeImages map[string][2]int

func (f fakeImages) Resolve(_ context.Context, ref string, maxHeight int) (*inset.Image, error) {
	dim, ok := f[ref]
	if !ok {
		return nil, errors.New(errors.ErrCodeNetwork, "GET %s: connection refused", ref)
	}
	img := image.NewRGBA(image.Rect(0, 0, dim[0], dim[1]))
	return inset.Fit(img, maxHeight), nil
}

func testConfig() Config {
	return Config{
		Width:   1200,
		Padding: 40,
		Styles:  style.Default(),
		Sizes:   testSizes(24),
	}
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		line  string
		align Align
		ref   string
		ok    bool
	}{
		{"image-left: logo.png", AlignLeft, "logo.png", true},
		{"image-center:https://example.com/a.png", AlignCenter, "https://example.com/a.png", true},
		{"image-center:  spaced.png  ", AlignCenter, "spaced.png", true},
		{"image-left:", AlignLeft, "", true},
		{"Image-left: a.png", "", "", false},
		{"image-right: a.png", "", "", false},
		{"$ image-left: a.png", "", "", false},
	}

	for _, tt := range tests {
		align, ref, ok := ParseDirective(tt.line)
		if align != tt.align || ref != tt.ref || ok != tt.ok {
			t.Errorf("ParseDirective(%q) = %q, %q, %v; want %q, %q, %v",
				tt.line, align, ref, ok, tt.align, tt.ref, tt.ok)
		}
	}
}

func TestPlanLayoutScenario(t *testing.T) {
	lines := []string{">> run", "$ ok", "", "# note"}
	p, err := PlanLayout(context.Background(), lines, testConfig())
	if err != nil {
		t.Fatalf("PlanLayout() error: %v", err)
	}

	lh := 36
	if want := 2*40 + lh*4; p.Height != want {
		t.Errorf("Height = %d, want %d", p.Height, want)
	}

	wantKinds := []Kind{KindText, KindText, KindBlank, KindText}
	wantX := []int{40, 60, 0, 50}
	for i, it := range p.Items {
		if it.Kind != wantKinds[i] {
			t.Errorf("item %d kind = %s, want %s", i, it.Kind, wantKinds[i])
		}
		if it.Top != 40+i*lh {
			t.Errorf("item %d top = %d, want %d", i, it.Top, 40+i*lh)
		}
		if it.Kind == KindText && p.TextX(it) != wantX[i] {
			t.Errorf("item %d x = %d, want %d", i, p.TextX(it), wantX[i])
		}
	}
}

func TestPlanLayoutChrome(t *testing.T) {
	cfg := testConfig()
	cfg.ShowChrome = true
	p, err := PlanLayout(context.Background(), []string{"$ ls"}, cfg)
	if err != nil {
		t.Fatalf("PlanLayout() error: %v", err)
	}
	if p.ContentTop() != 70 {
		t.Errorf("ContentTop() = %d, want 70", p.ContentTop())
	}
	if p.Height != 80+ChromeHeight+36 {
		t.Errorf("Height = %d, want %d", p.Height, 80+ChromeHeight+36)
	}
}

func TestPlanLayoutLongLine(t *testing.T) {
	line := strings.Repeat("a", 500)
	p, err := PlanLayout(context.Background(), []string{line}, testConfig())
	if err != nil {
		t.Fatalf("PlanLayout() error: %v", err)
	}

	it := p.Items[0]
	if it.Available != 1200-80-20 {
		t.Errorf("Available = %d, want %d", it.Available, 1100)
	}
	if len(it.SubLines) < 2 {
		t.Fatalf("500 characters wrapped into %d sub-lines", len(it.SubLines))
	}

	m := testSizes(24).For(0)
	total := 0
	for _, s := range it.SubLines {
		if w := m.TextWidth(s); w > it.Available {
			t.Errorf("sub-line width %d exceeds %d", w, it.Available)
		}
		total += len(s)
	}
	if total != 500 {
		t.Errorf("sub-lines hold %d characters, want 500", total)
	}
	if it.Height != len(it.SubLines)*36 {
		t.Errorf("Height = %d, want %d", it.Height, len(it.SubLines)*36)
	}

	again, _ := PlanLayout(context.Background(), []string{line}, testConfig())
	if len(again.Items[0].SubLines) != len(it.SubLines) {
		t.Errorf("second plan wrapped into %d sub-lines, first into %d",
			len(again.Items[0].SubLines), len(it.SubLines))
	}
}

func TestPlanLayoutImages(t *testing.T) {
	cfg := testConfig()
	cfg.Images = fakeImages{
		"small.png": {100, 50},
		"big.png":   {800, 600},
	}
	lines := []string{
		"$ before",
		"image-left: small.png",
		"image-center: big.png",
		"image-left: https://unreachable.invalid/a.png",
		"$ after",
	}
	p, err := PlanLayout(context.Background(), lines, cfg)
	if err != nil {
		t.Fatalf("PlanLayout() error: %v", err)
	}

	small, big, missing, after := p.Items[1], p.Items[2], p.Items[3], p.Items[4]
	if small.Kind != KindImage || small.Height != 50+ImageGap {
		t.Errorf("small = %s height %d, want image height %d", small.Kind, small.Height, 50+ImageGap)
	}
	if p.ImageX(small) != 40+20 {
		t.Errorf("ImageX(left) = %d, want 60", p.ImageX(small))
	}
	if big.ImageWidth != 400 || big.ImageHeight != 300 {
		t.Errorf("big scaled to %dx%d, want 400x300", big.ImageWidth, big.ImageHeight)
	}
	if p.ImageX(big) != (1200-400)/2 {
		t.Errorf("ImageX(center) = %d, want 400", p.ImageX(big))
	}

	if missing.Kind != KindSkipped || missing.Height != 0 {
		t.Errorf("unreachable = %s height %d, want skipped height 0", missing.Kind, missing.Height)
	}
	if !errors.Is(missing.Err, errors.ErrCodeNetwork) || missing.Error == "" {
		t.Errorf("unreachable error = %v (%q), want NETWORK_ERROR", missing.Err, missing.Error)
	}
	if after.Top != missing.Top {
		t.Errorf("line after skipped image at %d, want %d", after.Top, missing.Top)
	}

	want := 80 + 36 + (50 + ImageGap) + (300 + ImageGap) + 36
	if p.Height != want {
		t.Errorf("Height = %d, want %d", p.Height, want)
	}
	if p.CountKind(KindImage) != 2 || p.CountKind(KindSkipped) != 1 {
		t.Errorf("CountKind image/skipped = %d/%d, want 2/1", p.CountKind(KindImage), p.CountKind(KindSkipped))
	}
}

func TestPlanLayoutNoResolverSkips(t *testing.T) {
	p, err := PlanLayout(context.Background(), []string{"image-left: a.png"}, testConfig())
	if err != nil {
		t.Fatalf("PlanLayout() error: %v", err)
	}
	if p.Items[0].Kind != KindSkipped || !errors.Is(p.Items[0].Err, errors.ErrCodeUnsupported) {
		t.Errorf("item = %s %v, want skipped UNSUPPORTED", p.Items[0].Kind, p.Items[0].Err)
	}
}

func TestPlanLayoutSkipsOversizedImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	// Claim 12000x12000 in the header; the file stays a few dozen bytes.
	data := buf.Bytes()
	binary.BigEndian.PutUint32(data[16:20], 12000)
	binary.BigEndian.PutUint32(data[20:24], 12000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	cfg := testConfig()
	cfg.Images = inset.NewResolver(inset.ProviderFunc(func(context.Context, string) ([]byte, error) {
		return data, nil
	}), nil)
	p, err := PlanLayout(context.Background(), []string{"image-left: huge.png", "$ after"}, cfg)
	if err != nil {
		t.Fatalf("PlanLayout() error: %v", err)
	}
	if it := p.Items[0]; it.Kind != KindSkipped || it.Height != 0 || !errors.Is(it.Err, errors.ErrCodeDecode) {
		t.Errorf("item = %s height %d err %v, want skipped DECODE", it.Kind, it.Height, it.Err)
	}
	if p.Items[1].Kind != KindText {
		t.Errorf("next item = %s, want text", p.Items[1].Kind)
	}
}

func TestPlanLayoutStyleFontSize(t *testing.T) {
	reg, err := style.NewRegistry(style.Spec{Prefix: "!!", Color: style.RGB{R: 255}, FontSize: 40})
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Styles = reg
	p, err := PlanLayout(context.Background(), []string{"!! big", "! small"}, cfg)
	if err != nil {
		t.Fatalf("PlanLayout() error: %v", err)
	}
	// "!" is registered before "!!", so it wins for both lines.
	if p.Items[0].LineHeight != 36 {
		t.Errorf("first match should win: line height %d, want 36", p.Items[0].LineHeight)
	}

	reg, _ = style.NewRegistry(style.Spec{Prefix: "%", Color: style.RGB{G: 255}, FontSize: 40})
	cfg.Styles = reg
	p, _ = PlanLayout(context.Background(), []string{"% big"}, cfg)
	if p.Items[0].LineHeight != 60 {
		t.Errorf("LineHeight = %d, want 60", p.Items[0].LineHeight)
	}
}

func TestPlanLayoutErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Width = 0
	if _, err := PlanLayout(context.Background(), nil, cfg); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("width 0: error = %v, want INVALID_INPUT", err)
	}

	cfg = testConfig()
	cfg.Padding = -1
	if _, err := PlanLayout(context.Background(), nil, cfg); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("padding -1: error = %v, want INVALID_INPUT", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := PlanLayout(ctx, []string{"$ x"}, testConfig()); err != context.Canceled {
		t.Errorf("cancelled: error = %v, want context.Canceled", err)
	}
}

func TestPlanLayoutDegenerateWidth(t *testing.T) {
	cfg := testConfig()
	cfg.Width = 60
	p, err := PlanLayout(context.Background(), []string{"$ a long line that cannot wrap"}, cfg)
	if err != nil {
		t.Fatalf("PlanLayout() error: %v", err)
	}
	if got := p.Items[0].SubLines; len(got) != 1 {
		t.Errorf("SubLines = %q, want the whole line", got)
	}
}
