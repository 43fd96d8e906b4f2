package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clishot/pkg/config"
	"github.com/matzehuels/clishot/pkg/style"
)

// stylesCommand prints the effective style table after config and --styles
// overrides are merged into the built-ins.
func (c *CLI) stylesCommand() *cobra.Command {
	var configPath, stylesPath string

	cmd := &cobra.Command{
		Use:   "styles",
		Short: "List the line styles in resolution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			specs := cfg.Styles
			if stylesPath != "" {
				extra, err := config.LoadStyleMap(stylesPath)
				if err != nil {
					return err
				}
				specs = append(specs[:len(specs):len(specs)], extra...)
			}
			reg, err := style.NewRegistry(specs...)
			if err != nil {
				return err
			}
			printStyles(cmd.OutOrStdout(), reg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default: ./clishot.toml)")
	cmd.Flags().StringVar(&stylesPath, "styles", "", "JSON style map merged over the configured styles")

	return cmd
}

// printStyles writes one row per style, each prefix drawn in its own color.
func printStyles(w io.Writer, reg *style.Registry) {
	col := lipgloss.NewStyle().Width(14)
	fmt.Fprintln(w, StyleTitle.Render(col.Render("PREFIX")+col.Render("COLOR")+col.Render("INDENT")+col.Render("SIZE")+"EXTRA"))
	for _, s := range reg.Specs() {
		fmt.Fprintln(w, styleRow(s, col))
	}
}

func styleRow(s style.Spec, col lipgloss.Style) string {
	hex := Hex(s.Color)
	prefix := lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Inherit(col).Render(displayPrefix(s.Prefix))

	size := "-"
	if s.FontSize > 0 {
		size = strconv.FormatFloat(s.FontSize, 'g', -1, 64)
	}
	extra := ""
	if s.MaxHeight > 0 {
		extra = fmt.Sprintf("max_height=%d", s.MaxHeight)
	}
	if s.Glow {
		extra = "glow"
	}
	return prefix + col.Render(hex) + col.Render(strconv.Itoa(s.Indent)) + col.Render(size) + StyleDim.Render(extra)
}

// displayPrefix marks the fallback style and the image pseudo-style.
func displayPrefix(p string) string {
	switch p {
	case style.DefaultKey:
		return p + " (default)"
	case style.ImageKey:
		return p + " (image)"
	}
	return p
}

// Hex formats c as #rrggbb.
func Hex(c style.RGB) string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}
