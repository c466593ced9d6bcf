package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/core/ports/driving"
)

var primProperty string

var primCmd = &cobra.Command{
	Use:   "prim [stage] [path]",
	Short: "Show a prim's layer stack and metadata",
	Long: `Show the layers holding a spec for a prim (strongest first, with their
composition arc), and the prim's composed metadata.

With --property, also show each layer's raw opinion for that property:
its default value or its full list of time samples.`,
	Args: cobra.ExactArgs(2),
	RunE: runPrim,
}

func init() {
	primCmd.Flags().StringVarP(&primProperty, "property", "p", "", "property to show per-layer opinions for")
	rootCmd.AddCommand(primCmd)
}

type specView struct {
	Layer     layerView `json:"layer"`
	Specifier string    `json:"specifier"`
	TypeName  string    `json:"type_name,omitempty"`
}

type metadatumView struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	Layer string `json:"layer"`
}

type sampleView struct {
	Time  float64 `json:"time"`
	Value any     `json:"value"`
}

type opinionView struct {
	Layer    layerView    `json:"layer"`
	TypeName string       `json:"type_name,omitempty"`
	Default  any          `json:"default,omitempty"`
	Samples  []sampleView `json:"samples,omitempty"`
}

type primView struct {
	Path     string          `json:"path"`
	Stack    []specView      `json:"stack"`
	Metadata []metadatumView `json:"metadata"`
	Property string          `json:"property,omitempty"`
	Opinions []opinionView   `json:"opinions,omitempty"`
	PropMeta []metadatumView `json:"property_metadata,omitempty"`

	opinions []*domain.Opinion
	layers   map[string]domain.Layer
}

func runPrim(cmd *cobra.Command, args []string) error {
	path, err := parsePathArg(args[1])
	if err != nil {
		return err
	}

	return withStage(cmd.Context(), args[0], func(stage driving.StageService) error {
		view, err := inspectPrim(cmd.Context(), stage, path, primProperty)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(cmd, view)
		}
		printPrim(cmd, view)
		return nil
	})
}

func inspectPrim(ctx context.Context, stage driving.StageService, path domain.Path, property string) (*primView, error) {
	refs, err := stage.PrimStack(ctx, path)
	if err != nil {
		return nil, err
	}
	view := &primView{
		Path:   string(path),
		layers: make(map[string]domain.Layer),
	}
	for _, ref := range refs {
		view.Stack = append(view.Stack, specView{
			Layer:     toLayerView(ref.Layer),
			Specifier: string(ref.Specifier),
			TypeName:  ref.TypeName,
		})
		view.layers[ref.Layer.Identifier] = ref.Layer
	}

	md, err := stage.Metadata(ctx, path, "", "")
	if err != nil {
		return nil, err
	}
	view.Metadata = toMetadataViews(md, view.layers)

	if property == "" {
		return view, nil
	}
	view.Property = property
	for _, ref := range refs {
		op, err := stage.LayerOpinion(ctx, ref.Layer.Identifier, path, property)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		view.opinions = append(view.opinions, op)
		view.Opinions = append(view.Opinions, toOpinionView(ref.Layer, op))
	}
	pmd, err := stage.Metadata(ctx, path, property, "")
	if err != nil {
		return nil, err
	}
	view.PropMeta = toMetadataViews(pmd, view.layers)
	return view, nil
}

func toMetadataViews(md domain.Metadata, layers map[string]domain.Layer) []metadatumView {
	out := make([]metadatumView, len(md))
	for i, m := range md {
		name := m.LayerID
		if l, ok := layers[m.LayerID]; ok {
			name = l.DisplayName
		}
		out[i] = metadatumView{Key: m.Key, Value: domain.EncodeValue(m.Value), Layer: name}
	}
	return out
}

func toOpinionView(layer domain.Layer, op *domain.Opinion) opinionView {
	v := opinionView{Layer: toLayerView(layer), TypeName: op.TypeName}
	if op.Default != nil {
		v.Default = domain.EncodeValue(*op.Default)
	}
	for _, s := range op.Samples {
		v.Samples = append(v.Samples, sampleView{Time: float64(s.Time), Value: domain.EncodeValue(s.Value)})
	}
	return v
}

func printPrim(cmd *cobra.Command, v *primView) {
	cmd.Printf("Prim: %s\n\n", v.Path)

	cmd.Println("Layer stack:")
	for _, s := range v.Stack {
		layer := v.layers[s.Layer.Identifier]
		line := "  " + layerLabel(layer) + "  " + s.Layer.Arc + "  " + s.Specifier
		if s.TypeName != "" {
			line += " " + s.TypeName
		}
		cmd.Println(line)
	}

	cmd.Println()
	cmd.Println("Metadata:")
	printMetadata(cmd, v.Metadata)

	if v.Property == "" {
		return
	}
	cmd.Printf("\nOpinions for %s:\n", v.Property)
	if len(v.opinions) == 0 {
		cmd.Println("  (none authored)")
	}
	for _, op := range v.opinions {
		layer := v.layers[op.LayerID]
		cmd.Printf("  %s\n", layerLabel(layer))
		if op.Default != nil {
			cmd.Printf("    default: %s\n", op.Default.String())
		}
		for _, s := range op.Samples {
			cmd.Printf("    %s: %s\n", s.Time, s.Value.String())
		}
	}
	if len(v.PropMeta) > 0 {
		cmd.Println()
		cmd.Println("Property metadata:")
		printMetadata(cmd, v.PropMeta)
	}
}

func printMetadata(cmd *cobra.Command, md []metadatumView) {
	if len(md) == 0 {
		cmd.Println("  (none)")
		return
	}
	for _, m := range md {
		cmd.Printf("  %s = %v  (%s)\n", m.Key, m.Value, m.Layer)
	}
}
