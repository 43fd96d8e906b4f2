// Package pkg provides the core libraries for clishot transcript rendering.
//
// # Overview
//
// clishot turns a CLI transcript into a window-styled image. Each line is
// colored by its prefix, long lines wrap to the canvas width, and lines of
// the form "image-left: <ref>" or "image-center: <ref>" inset a picture.
//
// # Architecture
//
// A render runs in two passes so that the canvas height is known before any
// pixel is drawn:
//
//	lines
//	   ↓
//	[style] resolve each line's prefix style
//	   ↓
//	[layout] wrap text via [glyph] measurement, resolve images via [inset]
//	   ↓
//	Plan (every item's top and height)
//	   ↓
//	[render] draw background, chrome, text, images, border
//	   ↓
//	PNG / base64 / JSON
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Lines: []string{">> Build", "$ go test ./...", "ok"},
//	})
//	os.WriteFile("shot.png", res.Artifacts[pipeline.FormatPNG], 0o644)
//
// # Main Packages
//
// Rendering:
//   - [style]: Prefix-to-style registry with built-ins and overrides
//   - [glyph]: Per-rune measurement and drawing with emoji fallback
//   - [fonts]: Font discovery and loading
//   - [layout]: Line wrapping and the measuring pass
//   - [inset]: Image fetching, decoding, and scaling
//   - [render]: The drawing pass and encoders
//
// Orchestration:
//   - [pipeline]: Plan → draw → encode with artifact caching
//   - [config]: TOML and JSON configuration files
//   - [server]: HTTP API
//
// Infrastructure:
//   - [cache]: File, Redis, and null caches
//   - [httputil]: Cached, retrying HTTP downloads
//   - [storage]: Saved renders on disk or in MongoDB
//   - [observability]: Pipeline, cache, and HTTP hooks
//   - [errors]: Coded errors and input validation
//
// [style]: github.com/matzehuels/clishot/pkg/style
// [glyph]: github.com/matzehuels/clishot/pkg/glyph
// [fonts]: github.com/matzehuels/clishot/pkg/fonts
// [layout]: github.com/matzehuels/clishot/pkg/layout
// [inset]: github.com/matzehuels/clishot/pkg/inset
// [render]: github.com/matzehuels/clishot/pkg/render
// [pipeline]: github.com/matzehuels/clishot/pkg/pipeline
// [config]: github.com/matzehuels/clishot/pkg/config
// [server]: github.com/matzehuels/clishot/pkg/server
// [cache]: github.com/matzehuels/clishot/pkg/cache
// [httputil]: github.com/matzehuels/clishot/pkg/httputil
// [storage]: github.com/matzehuels/clishot/pkg/storage
// [observability]: github.com/matzehuels/clishot/pkg/observability
// [errors]: github.com/matzehuels/clishot/pkg/errors
package pkg
