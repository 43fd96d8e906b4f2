// Package render draws a measured [layout.Plan] onto a raster canvas.
//
// # Overview
//
// Rendering is the second pass of a transcript render. The first pass,
// [layout.PlanLayout], has already wrapped every line, resolved every image,
// and assigned each item its top coordinate and height. [Draw] only walks
// the plan:
//
//  1. Fill the background and the 20px guide grid
//  2. Draw the window chrome when the plan enables it
//  3. Draw each text sub-line glyph by glyph through [glyph.Measurer]
//  4. Paste each resolved image at its aligned x
//  5. Stroke the rounded border
//
// The vertical cursor advances by exactly the planned item heights. A plan
// whose items disagree with their own running total is rejected as an
// internal error rather than drawn misaligned.
//
// # Output
//
// A [Canvas] encodes to PNG, to a base64 PNG envelope for text transports,
// or exports its plan as JSON:
//
//	plan, err := layout.PlanLayout(ctx, lines, cfg)
//	canvas, err := render.Draw(plan, cfg.Sizes)
//	png, err := canvas.PNG()
//
// [Render] runs both passes and returns PNG bytes in one call.
//
// [layout.Plan]: github.com/matzehuels/clishot/pkg/layout
// [layout.PlanLayout]: github.com/matzehuels/clishot/pkg/layout
// [glyph.Measurer]: github.com/matzehuels/clishot/pkg/glyph
package render
