package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

var timeFlag float64

var propsCmd = &cobra.Command{
	Use:   "props [stage] [path]",
	Short: "List the properties of a prim with their winning values",
	Long: `List every property of a prim, which layer wins each one and the
winning value at a time code (default: start of the stage time range).

A property that fails to evaluate shows its error without hiding the others.`,
	Args: cobra.ExactArgs(2),
	RunE: runProps,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [stage] [path] [property]",
	Short: "Show which layers author a property",
	Long: `Show every layer holding an opinion for a property, strongest first.
The first layer is the winner.`,
	Args: cobra.ExactArgs(3),
	RunE: runResolve,
}

var sampleCmd = &cobra.Command{
	Use:   "sample [stage] [path] [property]",
	Short: "Evaluate a property at a time code",
	Long: `Evaluate a property's winning opinion at a time code (default: start of
the stage time range). Time samples are interpolated linearly where the
value type allows it and held otherwise.`,
	Args: cobra.ExactArgs(3),
	RunE: runSample,
}

func init() {
	propsCmd.Flags().Float64VarP(&timeFlag, "time", "t", 0, "time code to evaluate at")
	sampleCmd.Flags().Float64VarP(&timeFlag, "time", "t", 0, "time code to evaluate at")
	rootCmd.AddCommand(propsCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(sampleCmd)
}

// evalTime returns --time when given, else the start of the stage range.
func evalTime(ctx context.Context, cmd *cobra.Command, stage driving.StageService) (domain.TimeCode, error) {
	if cmd.Flags().Changed("time") {
		return domain.TimeCode(timeFlag), nil
	}
	r, err := stage.TimeRange(ctx)
	if err != nil {
		return 0, err
	}
	return r.Start, nil
}

// propertyView is the JSON shape of a property panel row.
type propertyView struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	TypeName string   `json:"type_name,omitempty"`
	Value    any      `json:"value,omitempty"`
	Source   string   `json:"source,omitempty"`
	Winner   string   `json:"winner,omitempty"`
	Layers   []string `json:"layers,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func runProps(cmd *cobra.Command, args []string) error {
	path, err := parsePathArg(args[1])
	if err != nil {
		return err
	}

	return withStage(cmd.Context(), args[0], func(stage driving.StageService) error {
		ctx := cmd.Context()
		t, err := evalTime(ctx, cmd, stage)
		if err != nil {
			return err
		}
		rows, err := stage.Rows(ctx, path, t)
		if err != nil {
			return err
		}

		if jsonFlag {
			views := make([]propertyView, len(rows))
			for i := range rows {
				views[i] = toPropertyView(rows[i])
			}
			return printJSON(cmd, map[string]any{
				"path":       string(path),
				"time":       float64(t),
				"properties": views,
			})
		}

		if len(rows) == 0 {
			cmd.Printf("%s has no properties\n", path)
			return nil
		}
		cmd.Printf("%s @ %s\n\n", path, t)
		tbl := newTable("", "NAME", "TYPE", "VALUE", "LAYER", "SOURCE")
		for i := range rows {
			tbl.Row(propertyCells(rows[i])...)
		}
		cmd.Println(tbl.String())
		return nil
	})
}

func propertyCells(row domain.PropertyRow) []string {
	cells := []string{row.Info.Label(), row.Info.Name, row.Info.TypeName, "", "", ""}
	switch {
	case row.Err != nil:
		cells[3] = "error: " + truncate(row.Err.Error(), 40)
	case !row.Found:
		cells[3] = "(declared)"
	default:
		cells[3] = shortValue(row.Sample.Value)
		cells[5] = string(row.Sample.Source)
	}
	if row.Found {
		label := layerLabel(row.Resolution.Winner())
		if extra := len(row.Resolution.Layers) - 1; extra > 0 {
			label += fmt.Sprintf(" +%d", extra)
		}
		cells[4] = label
	}
	return cells
}

func toPropertyView(row domain.PropertyRow) propertyView {
	v := propertyView{
		Name:     row.Info.Name,
		Kind:     string(row.Info.Kind),
		TypeName: row.Info.TypeName,
	}
	if row.Found {
		v.Winner = row.Resolution.Winner().DisplayName
		for _, l := range row.Resolution.Layers {
			v.Layers = append(v.Layers, l.DisplayName)
		}
	}
	if row.Err != nil {
		v.Error = row.Err.Error()
		return v
	}
	if row.Found {
		v.Value = domain.EncodeValue(row.Sample.Value)
		v.Source = string(row.Sample.Source)
	}
	return v
}

func runResolve(cmd *cobra.Command, args []string) error {
	path, err := parsePathArg(args[1])
	if err != nil {
		return err
	}
	property := args[2]

	return withStage(cmd.Context(), args[0], func(stage driving.StageService) error {
		set, found, err := stage.Resolve(cmd.Context(), path, property)
		if err != nil {
			return err
		}

		if jsonFlag {
			return printJSON(cmd, map[string]any{
				"path":     string(path),
				"property": property,
				"found":    found,
				"layers":   toLayerViews(set.Layers),
			})
		}

		if !found {
			cmd.Printf("%s.%s has no authored opinion\n", path, property)
			return nil
		}
		cmd.Printf("%s.%s\n\n", path, property)
		tbl := newTable("", "RANK", "LAYER", "ARC")
		for i, l := range set.Layers {
			marker := ""
			if i == 0 {
				marker = "*"
			}
			tbl.Row(marker, fmt.Sprint(l.Rank), layerLabel(l), l.Arc.String())
		}
		cmd.Println(tbl.String())
		return nil
	})
}

func runSample(cmd *cobra.Command, args []string) error {
	path, err := parsePathArg(args[1])
	if err != nil {
		return err
	}
	property := args[2]

	return withStage(cmd.Context(), args[0], func(stage driving.StageService) error {
		ctx := cmd.Context()
		t, err := evalTime(ctx, cmd, stage)
		if err != nil {
			return err
		}
		v, found, err := stage.Sample(ctx, path, property, t)
		if err != nil {
			return err
		}

		if jsonFlag {
			out := map[string]any{
				"path":     string(path),
				"property": property,
				"time":     float64(t),
				"found":    found,
			}
			if found {
				out["value"] = domain.EncodeValue(v.Value)
				out["kind"] = v.Value.Kind().String()
				out["source"] = string(v.Source)
				out["layer"] = toLayerView(v.Layer)
			}
			return printJSON(cmd, out)
		}

		if !found {
			cmd.Printf("%s.%s has no authored value\n", path, property)
			return nil
		}
		cmd.Printf("%s.%s @ %s\n", path, property, t)
		cmd.Printf("  Layer:  %s\n", layerLabel(v.Layer))
		cmd.Printf("  Source: %s\n", v.Source)
		lines := valueLines(v.Value)
		if len(lines) == 1 && !v.Value.IsArray() {
			cmd.Printf("  Value:  %s\n", lines[0])
			return nil
		}
		cmd.Printf("  Value:  %d elements\n", v.Value.Len())
		for _, line := range lines {
			cmd.Printf("    %s\n", line)
		}
		return nil
	})
}
