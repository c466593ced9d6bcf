package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle [stage] [output]",
	Short: "Write a stage to a single-file SQLite bundle",
	Long: `Compose a stage and write every layer's specs, opinions and metadata to
a SQLite bundle. Bundles open with every other command and compose to the
same result as their source. The output file must not exist.

Example:
  usdinspect bundle shot.yaml shot.usdb
  usdinspect tree shot.usdb`,
	Args: cobra.ExactArgs(2),
	RunE: runBundle,
}

func init() {
	rootCmd.AddCommand(bundleCmd)
}

func runBundle(cmd *cobra.Command, args []string) error {
	if bundler == nil {
		return errors.New("bundler not configured")
	}

	summary, err := bundler(cmd.Context(), args[0], args[1], openOptions())
	if err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}

	if jsonFlag {
		return printJSON(cmd, summary)
	}
	cmd.Printf("Wrote %s\n", args[1])
	cmd.Printf("  Layers:     %d\n", summary.Layers)
	cmd.Printf("  Prims:      %d\n", summary.Prims)
	cmd.Printf("  Properties: %d\n", summary.Properties)
	cmd.Printf("  Samples:    %d\n", summary.Samples)
	return nil
}
