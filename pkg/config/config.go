// Package config loads clishot configuration files.
//
// Files are TOML or JSON, selected by extension. Every key is optional;
// command-line flags override file values and built-in defaults fill the
// rest.
//
//	width = 1200
//	padding = 40
//	font_size = 24
//	show_chrome = true
//
//	[fonts]
//	text = "fonts/DejaVuSansMono.ttf"
//	emoji = "fonts/NotoColorEmoji.ttf"
//
//	[images]
//	base_dir = "assets"
//	timeout = "10s"
//
//	[cache]
//	dir = "~/.cache/clishot"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
//
//	[output]
//	dir = "renders"
//
//	[storage]
//	mongo_uri = "mongodb://localhost:27017"
//
//	[styles.">>>"]
//	color = "#ff00ff"
//	indent = 30
//	glow = true
//
//	[styles."$"]
//	color = [0, 200, 0]
//	indent = 20
//
// Style tables are applied in document order: a table whose key matches a
// built-in prefix replaces that style, and new prefixes are appended.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/clishot/pkg/errors"
	"github.com/matzehuels/clishot/pkg/pipeline"
	"github.com/matzehuels/clishot/pkg/style"
)

// FileName is the base name probed by [Find].
const FileName = "clishot.toml"

// Duration is a time.Duration written as a string such as "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Fonts struct {
	Text  string `toml:"text" json:"text"`
	Emoji string `toml:"emoji" json:"emoji"`
}

type Images struct {
	BaseDir string   `toml:"base_dir" json:"base_dir"`
	Timeout Duration `toml:"timeout" json:"timeout"`
}

type Cache struct {
	Dir      string   `toml:"dir" json:"dir"`
	RedisURL string   `toml:"redis_url" json:"redis_url"`
	TTL      Duration `toml:"ttl" json:"ttl"`
}

type Output struct {
	Dir string `toml:"dir" json:"dir"`
}

type Storage struct {
	MongoURI   string `toml:"mongo_uri" json:"mongo_uri"`
	Database   string `toml:"database" json:"database"`
	Collection string `toml:"collection" json:"collection"`
}

// Config is a parsed configuration file.
type Config struct {
	Width      int     `toml:"width" json:"width"`
	Padding    *int    `toml:"padding" json:"padding"`
	FontSize   float64 `toml:"font_size" json:"font_size"`
	ShowChrome *bool   `toml:"show_chrome" json:"show_chrome"`

	Fonts   Fonts   `toml:"fonts" json:"fonts"`
	Images  Images  `toml:"images" json:"images"`
	Cache   Cache   `toml:"cache" json:"cache"`
	Output  Output  `toml:"output" json:"output"`
	Storage Storage `toml:"storage" json:"storage"`

	// Styles are the style overrides in document order.
	Styles []style.Spec `toml:"-" json:"-"`

	// Path is the file the config was loaded from, if any.
	Path string `toml:"-" json:"-"`
}

// StyleEntry is the file form of a style override.
type StyleEntry struct {
	Color     any     `toml:"color" json:"color"`
	Indent    int     `toml:"indent" json:"indent"`
	Glow      bool    `toml:"glow" json:"glow"`
	FontSize  float64 `toml:"font_size" json:"font_size"`
	MaxHeight int     `toml:"max_height" json:"max_height"`
}

// document is the on-disk shape; styles are decoded separately to keep order.
type document struct {
	Config
	Styles map[string]StyleEntry `toml:"styles" json:"styles"`
}

// Load reads a TOML or JSON config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		cfg, err = ParseTOML(data)
	case ".json":
		cfg, err = ParseJSON(data)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (use .toml or .json)", filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	cfg.Path = path
	return cfg, nil
}

// Find returns the first config file that exists in the working directory
// or the user config directory, or "" when there is none.
func Find() string {
	candidates := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "clishot", "config.toml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ParseTOML parses a TOML document.
func ParseTOML(data []byte) (*Config, error) {
	var doc document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}

	var order []string
	for _, key := range md.Keys() {
		if len(key) == 2 && key[0] == "styles" {
			order = append(order, key[1])
		}
	}
	return finish(doc, order)
}

// ParseJSON parses a JSON document.
func ParseJSON(data []byte) (*Config, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	var raw struct {
		Styles json.RawMessage `json:"styles"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	order, err := objectKeys(raw.Styles)
	if err != nil {
		return nil, err
	}
	return finish(doc, order)
}

// ParseStyleMap parses a bare JSON object mapping prefixes to style entries.
func ParseStyleMap(data []byte) ([]style.Spec, error) {
	var entries map[string]StyleEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse style map")
	}
	order, err := objectKeys(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse style map")
	}
	return buildStyles(entries, order)
}

// LoadStyleMap reads a bare JSON style map from path.
func LoadStyleMap(path string) ([]style.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "style map %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read style map %s", path)
	}
	return ParseStyleMap(data)
}

func finish(doc document, order []string) (*Config, error) {
	cfg := doc.Config
	styles, err := buildStyles(doc.Styles, order)
	if err != nil {
		return nil, err
	}
	cfg.Styles = styles
	return &cfg, cfg.Validate()
}

func buildStyles(entries map[string]StyleEntry, order []string) ([]style.Spec, error) {
	specs := make([]style.Spec, 0, len(order))
	for _, prefix := range order {
		e, ok := entries[prefix]
		if !ok {
			continue
		}
		if e.Color == nil {
			return nil, errors.New(errors.ErrCodeInvalidStyle, "style %q: color is required", prefix)
		}
		c, err := ParseColor(e.Color)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "style %q", prefix)
		}
		specs = append(specs, style.Spec{
			Prefix:    prefix,
			Color:     c,
			Indent:    e.Indent,
			Glow:      e.Glow,
			FontSize:  e.FontSize,
			MaxHeight: e.MaxHeight,
		})
	}
	return specs, nil
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(data json.RawMessage) ([]string, error) {
	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "styles must be an object")
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Width < 0 || c.Width > pipeline.MaxWidth {
		return errors.New(errors.ErrCodeInvalidConfig, "width must be between 1 and %d, got %d", pipeline.MaxWidth, c.Width)
	}
	if c.Padding != nil && *c.Padding < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "padding must be >= 0, got %d", *c.Padding)
	}
	if c.FontSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "font_size must be positive, got %g", c.FontSize)
	}
	if _, err := style.NewRegistry(c.Styles...); err != nil {
		return err
	}
	return nil
}

// Options converts the config into pipeline options for lines.
// Unset values are left for the pipeline defaults.
func (c *Config) Options(lines []string) pipeline.Options {
	return pipeline.Options{
		Lines:      lines,
		Width:      c.Width,
		Padding:    c.Padding,
		FontSize:   c.FontSize,
		ShowChrome: c.ShowChrome,
		Styles:     c.Styles,
	}
}
