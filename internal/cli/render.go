package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clishot/pkg/config"
	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/pipeline"
	"github.com/matzehuels/clishot/pkg/storage"
)

const (
	// defaultName is the base name for renders read from stdin or --line.
	defaultName = "clishot"

	// stdoutPath writes a single artifact to standard output.
	stdoutPath = "-"
)

// formatExt maps an output format to its file extension.
var formatExt = map[string]string{
	pipeline.FormatPNG:    "png",
	pipeline.FormatBase64: "b64",
	pipeline.FormatJSON:   "json",
}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	configPath string   // config file (default: discovered clishot.toml)
	stylesPath string   // JSON style map merged over the config styles
	lines      []string // transcript lines given inline
	width      int      // canvas width in pixels
	padding    int      // canvas padding in pixels
	fontSize   float64  // base font size in pixels
	noChrome   bool     // omit the window title bar
	formats    []string // output formats: png, base64, json
	output     string   // output file, "-" for stdout, or base path for several formats
	outputDir  string   // directory for timestamped renders when output is empty
	name       string   // base name for timestamped renders
	textFont   string   // text font file
	emojiFont  string   // emoji font file
	noCache    bool     // bypass the cache entirely
	refresh    bool     // re-render even when cached
	mongoURI   string   // store PNGs in MongoDB instead of the output dir
}

// renderCommand creates the render command.
//
// Input is read from the file argument, from stdin when the argument is "-"
// or absent, or from repeated --line flags. Without -o the PNG is saved as
// <name>_<timestamp>.png in the output directory.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a transcript to an image",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRender(cmd, input, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: ./clishot.toml)")
	cmd.Flags().StringVar(&opts.stylesPath, "styles", "", "JSON style map merged over the configured styles")
	cmd.Flags().StringArrayVarP(&opts.lines, "line", "l", nil, "transcript line (repeatable, replaces file input)")
	cmd.Flags().IntVar(&opts.width, "width", pipeline.DefaultWidth, "canvas width in pixels")
	cmd.Flags().IntVar(&opts.padding, "padding", pipeline.DefaultPadding, "canvas padding in pixels")
	cmd.Flags().Float64Var(&opts.fontSize, "font-size", pipeline.DefaultFontSize, "base font size in pixels")
	cmd.Flags().BoolVar(&opts.noChrome, "no-chrome", false, "omit the window title bar")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): png (default), base64, json (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout, or base path for several formats")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "directory for timestamped renders (default: config or .)")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "base name for timestamped renders (default: input file name)")
	cmd.Flags().StringVar(&opts.textFont, "font", "", "text font file (TTF/OTF)")
	cmd.Flags().StringVar(&opts.emojiFont, "emoji-font", "", "emoji font file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when a cached render exists")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "store renders in MongoDB")

	return cmd
}

// runRender loads configuration and input, runs the pipeline, and writes
// every requested artifact.
func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	applyFontFlags(cfg, opts)

	lines := opts.lines
	if len(lines) == 0 {
		if lines, err = readInput(input, cmd.InOrStdin()); err != nil {
			return err
		}
	}
	if len(lines) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no input lines")
	}

	pipeOpts, err := buildOptions(cmd, cfg, lines, opts)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, runnerOpts{noCache: opts.noCache})
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spin := newSpinnerWithContext(ctx, "Rendering...")
	if opts.output != stdoutPath {
		spin.Start()
	}
	result, err := runner.Execute(ctx, pipeOpts)
	if opts.output != stdoutPath {
		spin.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d lines", result.Stats.LineCount))

	paths, err := c.writeArtifacts(ctx, cfg, input, opts, result)
	if err != nil {
		return err
	}
	if opts.output == stdoutPath {
		return nil
	}

	printSuccess("Rendered %dx%d", result.Stats.Width, result.Stats.Height)
	printStats(result.Stats, result.CacheInfo.RenderHit)
	if n := result.Stats.SkippedImages; n > 0 {
		printWarning("%d image(s) could not be loaded and were skipped", n)
	}
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// applyFontFlags overrides configured fonts with command-line fonts.
func applyFontFlags(cfg *config.Config, opts *renderOpts) {
	if opts.textFont != "" {
		cfg.Fonts.Text = opts.textFont
	}
	if opts.emojiFont != "" {
		cfg.Fonts.Emoji = opts.emojiFont
	}
	if opts.mongoURI != "" {
		cfg.Storage.MongoURI = opts.mongoURI
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}
}

// buildOptions layers explicitly set flags over the config file.
func buildOptions(cmd *cobra.Command, cfg *config.Config, lines []string, opts *renderOpts) (pipeline.Options, error) {
	po := cfg.Options(lines)
	flags := cmd.Flags()
	if flags.Changed("width") {
		po.Width = opts.width
	}
	if flags.Changed("padding") {
		po.Padding = pipeline.IntPtr(opts.padding)
	}
	if flags.Changed("font-size") {
		po.FontSize = opts.fontSize
	}
	if flags.Changed("no-chrome") {
		po.ShowChrome = pipeline.BoolPtr(!opts.noChrome)
	}
	if opts.stylesPath != "" {
		extra, err := config.LoadStyleMap(opts.stylesPath)
		if err != nil {
			return pipeline.Options{}, err
		}
		po.Styles = append(cfg.Styles[:len(cfg.Styles):len(cfg.Styles)], extra...)
	}
	po.Formats = opts.formats
	po.Refresh = opts.refresh
	return po, nil
}

// readInput reads transcript lines from path, or from stdin when path is
// empty or "-".
func readInput(path string, stdin io.Reader) ([]string, error) {
	r := stdin
	if path != "" && path != stdoutPath {
		if err := errors.ValidatePath(path, true); err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "input %s", path)
			}
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
		}
		defer f.Close()
		r = f
	}
	return splitLines(r)
}

// splitLines reads r line by line, dropping line terminators.
func splitLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read input")
	}
	return lines, nil
}

// renderName is the base name for timestamped renders.
func renderName(name, input string) string {
	if name != "" {
		return name
	}
	if input == "" || input == stdoutPath {
		return defaultName
	}
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// basePath strips a known format extension from output.
func basePath(output string) string {
	ext := filepath.Ext(output)
	for _, e := range formatExt {
		if ext == "."+e {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// outputPath returns where format is written when -o is given.
func outputPath(output, format string, formats []string) string {
	if len(formats) == 1 {
		return output
	}
	return basePath(output) + "." + formatExt[format]
}

// writeArtifacts writes each artifact and returns the paths or IDs written.
//
// With -o every format goes to the given path. Otherwise the PNG is saved
// through a store (MongoDB when configured, else the output directory) and
// other formats are written next to it under the same stamped name.
func (c *CLI) writeArtifacts(ctx context.Context, cfg *config.Config, input string, opts *renderOpts, result *pipeline.Result) ([]string, error) {
	if opts.output == stdoutPath {
		if len(opts.formats) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "stdout output needs exactly one format, got %d", len(opts.formats))
		}
		_, err := os.Stdout.Write(result.Artifacts[opts.formats[0]])
		return nil, err
	}

	var paths []string
	if opts.output != "" {
		for _, format := range opts.formats {
			path := outputPath(opts.output, format, opts.formats)
			if err := writeFile(path, result.Artifacts[format]); err != nil {
				return nil, err
			}
			c.Logger.Debug("wrote artifact", "format", format, "path", path)
			paths = append(paths, path)
		}
		return paths, nil
	}

	dir := expandHome(cfg.Output.Dir)
	if dir == "" {
		dir = "."
	}
	store, err := newStore(ctx, cfg, dir)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	name := renderName(opts.name, input)
	if err := errors.ValidateOutputName(name); err != nil {
		return nil, err
	}
	stamped := ""
	for _, format := range opts.formats {
		if format != pipeline.FormatPNG {
			continue
		}
		id, err := store.Save(ctx, name, result.Artifacts[format])
		if err != nil {
			return nil, err
		}
		stamped = strings.TrimSuffix(id, ".png")
		if fs, ok := store.(*storage.FileStore); ok {
			id = fs.Path(id)
		}
		paths = append(paths, id)
	}
	if stamped == "" {
		stamped = storage.StampedName(name, time.Now())
	}
	for _, format := range opts.formats {
		if format == pipeline.FormatPNG {
			continue
		}
		path := filepath.Join(dir, stamped+"."+formatExt[format])
		if err := writeFile(path, result.Artifacts[format]); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// newStore opens MongoDB when a URI is configured, else a file store in dir.
func newStore(ctx context.Context, cfg *config.Config, dir string) (storage.Store, error) {
	if uri := cfg.Storage.MongoURI; uri != "" {
		return storage.NewMongoStore(ctx, uri, cfg.Storage.Database, cfg.Storage.Collection)
	}
	return storage.NewFileStore(dir)
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
