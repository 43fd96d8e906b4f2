package cli

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/clishot/pkg/config"
	"github.com/matzehuels/clishot/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to png", "", []string{"png"}},
		{"single format", "json", []string{"json"}},
		{"multiple formats", "png,base64,json", []string{"png", "base64", "json"}},
		{"spaces and empties", " png , ,json", []string{"png", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"blank lines kept", "a\n\nb", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitLines(strings.NewReader(tt.in))
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("splitLines(%q) = %q, want %q", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitLines(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.txt")
	if err := os.WriteFile(path, []byte(">> Build\n$ make\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readInput(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1] != "$ make" {
		t.Errorf("readInput(file) = %q", got)
	}

	got, err = readInput("-", strings.NewReader("# from stdin\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "# from stdin" {
		t.Errorf("readInput(stdin) = %q", got)
	}

	if _, err := readInput(filepath.Join(t.TempDir(), "missing.txt"), nil); err == nil {
		t.Error("readInput(missing) should fail")
	}
}

func TestRenderName(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"", "", defaultName},
		{"", "-", defaultName},
		{"", "logs/session.txt", "session"},
		{"demo", "logs/session.txt", "demo"},
	}
	for _, tt := range tests {
		if got := renderName(tt.name, tt.input); got != tt.want {
			t.Errorf("renderName(%q, %q) = %q, want %q", tt.name, tt.input, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		output  string
		format  string
		formats []string
		want    string
	}{
		{"out.png", "png", []string{"png"}, "out.png"},
		{"shot", "png", []string{"png"}, "shot"},
		{"out.png", "json", []string{"png", "json"}, "out.json"},
		{"out.png", "base64", []string{"png", "base64"}, "out.b64"},
		{"out", "png", []string{"png", "json"}, "out.png"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.output, tt.format, tt.formats); got != tt.want {
			t.Errorf("outputPath(%q, %q, %v) = %q, want %q", tt.output, tt.format, tt.formats, got, tt.want)
		}
	}
}

func TestBuildOptionsFlagsOverrideConfig(t *testing.T) {
	cfg := &config.Config{Width: 900, Padding: pipeline.IntPtr(10), FontSize: 18}
	cmd := New(&bytes.Buffer{}, LogInfo).renderCommand()
	if err := cmd.ParseFlags([]string{"--width", "640", "--no-chrome"}); err != nil {
		t.Fatal(err)
	}

	opts := &renderOpts{width: 640, noChrome: true, formats: []string{"png"}}
	po, err := buildOptions(cmd, cfg, []string{"a"}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if po.Width != 640 {
		t.Errorf("Width = %d, want flag value 640", po.Width)
	}
	if po.Padding == nil || *po.Padding != 10 {
		t.Errorf("Padding = %v, want config value 10", po.Padding)
	}
	if po.FontSize != 18 {
		t.Errorf("FontSize = %g, want config value 18", po.FontSize)
	}
	if po.ShowChrome == nil || *po.ShowChrome {
		t.Errorf("ShowChrome = %v, want false", po.ShowChrome)
	}
}

func TestBuildOptionsStylesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.json")
	if err := os.WriteFile(path, []byte(`{"%": {"color": [255, 136, 0], "indent": 4}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{}
	cmd := New(&bytes.Buffer{}, LogInfo).renderCommand()

	po, err := buildOptions(cmd, cfg, []string{"% x"}, &renderOpts{stylesPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if len(po.Styles) != 1 || po.Styles[0].Prefix != "%" || po.Styles[0].Indent != 4 {
		t.Errorf("Styles = %+v, want the %% style from the file", po.Styles)
	}
}

func executeRoot(t *testing.T, args ...string) error {
	t.Helper()
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(""))
	return root.ExecuteContext(context.Background())
}

func TestRenderCommandOutputFile(t *testing.T) {
	t.Chdir(t.TempDir())
	out := filepath.Join(t.TempDir(), "shot.png")

	err := executeRoot(t, "render", "--no-cache", "--width", "400",
		"--line", ">> Build", "--line", "$ go test ./...", "-o", out)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if cfg.Width != 400 {
		t.Errorf("width = %d, want 400", cfg.Width)
	}
}

func TestRenderCommandTimestamped(t *testing.T) {
	t.Chdir(t.TempDir())
	input := "session.txt"
	if err := os.WriteFile(input, []byte("$ ls\nREADME.md\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()

	if err := executeRoot(t, "render", input, "--no-cache", "--output-dir", dir, "-f", "png,json"); err != nil {
		t.Fatalf("render: %v", err)
	}

	pngs, _ := filepath.Glob(filepath.Join(dir, "session_*.png"))
	jsons, _ := filepath.Glob(filepath.Join(dir, "session_*.json"))
	if len(pngs) != 1 || len(jsons) != 1 {
		t.Fatalf("got png %v and json %v, want one of each", pngs, jsons)
	}
	if strings.TrimSuffix(pngs[0], ".png") != strings.TrimSuffix(jsons[0], ".json") {
		t.Errorf("artifacts %q and %q do not share a stamped name", pngs[0], jsons[0])
	}
}

func TestRenderCommandErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"render", "--line", "a", "-f", "svg"}},
		{"no input", []string{"render", "--no-cache"}},
		{"negative width", []string{"render", "--no-cache", "--line", "a", "--width=-5", "-o", "x.png"}},
		{"stdout with two formats", []string{"render", "--no-cache", "--line", "a", "-f", "png,json", "-o", "-"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := executeRoot(t, tt.args...); err == nil {
				t.Errorf("%v should fail", tt.args)
			}
		})
	}
}

func TestRenderCommandFlags(t *testing.T) {
	cmd := New(&bytes.Buffer{}, LogInfo).renderCommand()
	for _, name := range []string{
		"config", "styles", "line", "width", "padding", "font-size", "no-chrome",
		"format", "output", "output-dir", "name", "font", "emoji-font", "no-cache", "refresh", "mongo-uri",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("render is missing --%s", name)
		}
	}
}
