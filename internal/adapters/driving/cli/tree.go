package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

var treeDepth int

var treeCmd = &cobra.Command{
	Use:   "tree [stage] [path]",
	Short: "Print the composed prim hierarchy",
	Long: `Print the composed prim hierarchy below a path (default: the pseudo-root).

Children are listed in composed order. Use --depth to limit how far the
tree is expanded; 0 expands everything.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().IntVarP(&treeDepth, "depth", "d", 0, "levels to expand below the path (0 = all)")
	rootCmd.AddCommand(treeCmd)
}

// treeView is the JSON shape of a prim and its expanded descendants.
type treeView struct {
	Path      string     `json:"path"`
	Name      string     `json:"name"`
	TypeName  string     `json:"type_name,omitempty"`
	Specifier string     `json:"specifier,omitempty"`
	Children  []treeView `json:"children,omitempty"`
}

func runTree(cmd *cobra.Command, args []string) error {
	start := domain.RootPath
	if len(args) == 2 {
		p, err := parsePathArg(args[1])
		if err != nil {
			return err
		}
		start = p
	}
	if treeDepth < 0 {
		return fmt.Errorf("--depth must not be negative")
	}

	return withStage(cmd.Context(), args[0], func(stage driving.StageService) error {
		levels := treeDepth
		if levels == 0 {
			levels = -1
		}
		tree, err := expand(cmd.Context(), stage, start, levels)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(cmd, tree)
		}
		printTree(cmd, tree, 0)
		return nil
	})
}

// expand walks levels of the hierarchy below path; negative levels is unlimited.
func expand(ctx context.Context, stage driving.StageService, path domain.Path, levels int) (treeView, error) {
	node, err := stage.Node(ctx, path)
	if err != nil {
		return treeView{}, err
	}
	view := treeView{
		Path:      string(node.Path),
		Name:      node.Name(),
		TypeName:  node.TypeName,
		Specifier: string(node.Specifier),
	}
	if levels == 0 {
		return view, nil
	}

	children, err := stage.ChildrenOf(ctx, path)
	if err != nil {
		return treeView{}, err
	}
	next := levels - 1
	if levels < 0 {
		next = levels
	}
	for _, child := range children {
		sub, err := expand(ctx, stage, child, next)
		if err != nil {
			return treeView{}, err
		}
		view.Children = append(view.Children, sub)
	}
	return view, nil
}

func printTree(cmd *cobra.Command, v treeView, indent int) {
	pad := strings.Repeat("  ", indent)
	if v.Path == string(domain.RootPath) {
		cmd.Println("/")
	} else {
		parts := []string{v.Specifier}
		if v.TypeName != "" {
			parts = append(parts, v.TypeName)
		}
		parts = append(parts, strconv.Quote(v.Name))
		cmd.Printf("%s%s\n", pad, strings.Join(parts, " "))
	}
	for _, child := range v.Children {
		printTree(cmd, child, indent+1)
	}
}
