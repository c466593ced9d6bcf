package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// colorEnabled reports whether layer swatches should be drawn.
var colorEnabled = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format JSON: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// swatch renders a coloured block for a layer, or nothing off-terminal.
func swatch(color string) string {
	if !colorEnabled() || color == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("■") + " "
}

func layerLabel(l domain.Layer) string {
	return swatch(l.Color) + l.DisplayName
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers(headers...)
}

// valueLines renders a value, one index/value row per array element.
func valueLines(v domain.Value) []string {
	if !v.IsArray() {
		return []string{v.String()}
	}
	elems := v.Elements()
	if len(elems) == 0 {
		return []string{"[] (empty)"}
	}
	lines := make([]string, len(elems))
	for i, e := range elems {
		lines[i] = fmt.Sprintf("[%d] %s", i, e.String())
	}
	return lines
}

// shortValue is the single-cell rendering used in tables.
func shortValue(v domain.Value) string {
	if v.IsArray() {
		return fmt.Sprintf("%s (%d)", truncate(v.String(), 40), v.Len())
	}
	return truncate(v.String(), 48)
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func parsePathArg(s string) (domain.Path, error) {
	p, err := domain.ParsePath(s)
	if err != nil {
		return "", fmt.Errorf("invalid prim path %q: %w", s, err)
	}
	return p, nil
}

// layerView is the JSON shape of a layer.
type layerView struct {
	Identifier  string `json:"identifier"`
	DisplayName string `json:"display_name"`
	Rank        int    `json:"rank"`
	Arc         string `json:"arc"`
	Color       string `json:"color"`
}

func toLayerView(l domain.Layer) layerView {
	return layerView{
		Identifier:  l.Identifier,
		DisplayName: l.DisplayName,
		Rank:        l.Rank,
		Arc:         l.Arc.String(),
		Color:       l.Color,
	}
}

func toLayerViews(layers []domain.Layer) []layerView {
	out := make([]layerView, len(layers))
	for i, l := range layers {
		out[i] = toLayerView(l)
	}
	return out
}
