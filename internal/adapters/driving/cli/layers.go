package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

var layersCmd = &cobra.Command{
	Use:   "layers [stage]",
	Short: "List the layer stack, strongest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayers,
}

func init() {
	rootCmd.AddCommand(layersCmd)
}

func runLayers(cmd *cobra.Command, args []string) error {
	return withStage(cmd.Context(), args[0], func(stage driving.StageService) error {
		layers := stage.Layers()
		if jsonFlag {
			return printJSON(cmd, toLayerViews(layers))
		}

		tbl := newTable("RANK", "LAYER", "ARC", "COLOR", "IDENTIFIER")
		for _, l := range layers {
			tbl.Row(fmt.Sprint(l.Rank), layerLabel(l), l.Arc.String(), l.Color, l.Identifier)
		}
		cmd.Println(tbl.String())
		cmd.Printf("Total: %d layers\n", len(layers))
		return nil
	})
}
