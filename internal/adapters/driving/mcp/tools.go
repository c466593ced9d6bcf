package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// PathInput addresses a prim.
type PathInput struct {
	Path string `json:"path" jsonschema:"absolute prim path, e.g. /World/Cube; / is the pseudo-root"`
}

// ListPropertiesInput is the input schema for the list_properties tool.
type ListPropertiesInput struct {
	Path string   `json:"path" jsonschema:"absolute prim path"`
	Time *float64 `json:"time,omitempty" jsonschema:"time code to evaluate at (default: start of the stage time range)"`
}

// PropertyInput addresses a property.
type PropertyInput struct {
	Path     string `json:"path" jsonschema:"absolute prim path"`
	Property string `json:"property" jsonschema:"property name, e.g. xformOp:translate"`
}

// SamplePropertyInput is the input schema for the sample_property tool.
type SamplePropertyInput struct {
	Path     string  `json:"path" jsonschema:"absolute prim path"`
	Property string  `json:"property" jsonschema:"property name"`
	Time     float64 `json:"time" jsonschema:"time code to evaluate at"`
}

// ListLayersInput is the input schema for the list_layers tool.
type ListLayersInput struct{}

// LayerOutput describes one layer of the stack.
type LayerOutput struct {
	Identifier  string `json:"identifier"`
	DisplayName string `json:"display_name"`
	Rank        int    `json:"rank"`
	Arc         string `json:"arc"`
	Color       string `json:"color"`
}

// ChildOutput describes one child prim.
type ChildOutput struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	TypeName  string `json:"type_name,omitempty"`
	Specifier string `json:"specifier,omitempty"`
}

// ListChildrenOutput is the output schema for the list_children tool.
type ListChildrenOutput struct {
	Path     string        `json:"path"`
	Children []ChildOutput `json:"children"`
}

// PropertyOutput is one property row.
type PropertyOutput struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	TypeName string   `json:"type_name,omitempty"`
	Value    string   `json:"value,omitempty"`
	Source   string   `json:"source,omitempty"`
	Winner   string   `json:"winner,omitempty"`
	Layers   []string `json:"layers,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ListPropertiesOutput is the output schema for the list_properties tool.
type ListPropertiesOutput struct {
	Path       string           `json:"path"`
	Time       float64          `json:"time"`
	Properties []PropertyOutput `json:"properties"`
}

// ResolvePropertyOutput is the output schema for the resolve_property tool.
type ResolvePropertyOutput struct {
	Found  bool          `json:"found"`
	Layers []LayerOutput `json:"layers"`
}

// SamplePropertyOutput is the output schema for the sample_property tool.
type SamplePropertyOutput struct {
	Found    bool     `json:"found"`
	Value    string   `json:"value,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Elements []string `json:"elements,omitempty"`
	Source   string   `json:"source,omitempty"`
	Layer    string   `json:"layer,omitempty"`
	Time     float64  `json:"time"`
}

// ListLayersOutput is the output schema for the list_layers tool.
type ListLayersOutput struct {
	Layers []LayerOutput `json:"layers"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_children",
		Description: "List the child prims of a prim in composed order",
	}, s.handleListChildren)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_properties",
		Description: "List a prim's properties with their winning layer and value at a time code",
	}, s.handleListProperties)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_property",
		Description: "List the layers holding an opinion for a property, strongest first",
	}, s.handleResolveProperty)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sample_property",
		Description: "Evaluate a property at a time code and report which layer the value came from",
	}, s.handleSampleProperty)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_layers",
		Description: "List the layer stack of the open stage, strongest first",
	}, s.handleListLayers)
}

func (s *Server) handleListChildren(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PathInput,
) (*mcp.CallToolResult, ListChildrenOutput, error) {
	path, err := domain.ParsePath(input.Path)
	if err != nil {
		return nil, ListChildrenOutput{}, err
	}

	children, err := s.ports.Stage.ChildrenOf(ctx, path)
	if err != nil {
		return nil, ListChildrenOutput{}, fmt.Errorf("listing children of %s: %w", path, err)
	}

	output := ListChildrenOutput{
		Path:     string(path),
		Children: make([]ChildOutput, len(children)),
	}
	for i, child := range children {
		node, err := s.ports.Stage.Node(ctx, child)
		if err != nil {
			return nil, ListChildrenOutput{}, fmt.Errorf("reading %s: %w", child, err)
		}
		output.Children[i] = ChildOutput{
			Path:      string(child),
			Name:      child.Name(),
			TypeName:  node.TypeName,
			Specifier: string(node.Specifier),
		}
	}
	return nil, output, nil
}

func (s *Server) handleListProperties(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListPropertiesInput,
) (*mcp.CallToolResult, ListPropertiesOutput, error) {
	path, err := domain.ParsePath(input.Path)
	if err != nil {
		return nil, ListPropertiesOutput{}, err
	}

	t, err := s.timeOrStart(ctx, input.Time)
	if err != nil {
		return nil, ListPropertiesOutput{}, err
	}

	rows, err := s.ports.Stage.Rows(ctx, path, t)
	if err != nil {
		return nil, ListPropertiesOutput{}, fmt.Errorf("listing properties of %s: %w", path, err)
	}

	output := ListPropertiesOutput{
		Path:       string(path),
		Time:       float64(t),
		Properties: make([]PropertyOutput, len(rows)),
	}
	for i, row := range rows {
		output.Properties[i] = propertyOutput(row)
	}
	return nil, output, nil
}

func (s *Server) handleResolveProperty(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PropertyInput,
) (*mcp.CallToolResult, ResolvePropertyOutput, error) {
	path, err := domain.ParsePath(input.Path)
	if err != nil {
		return nil, ResolvePropertyOutput{}, err
	}

	set, found, err := s.ports.Stage.Resolve(ctx, path, input.Property)
	if err != nil {
		return nil, ResolvePropertyOutput{}, fmt.Errorf("resolving %s.%s: %w", path, input.Property, err)
	}

	output := ResolvePropertyOutput{Found: found, Layers: []LayerOutput{}}
	for _, l := range set.Layers {
		output.Layers = append(output.Layers, layerOutput(l))
	}
	return nil, output, nil
}

func (s *Server) handleSampleProperty(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SamplePropertyInput,
) (*mcp.CallToolResult, SamplePropertyOutput, error) {
	path, err := domain.ParsePath(input.Path)
	if err != nil {
		return nil, SamplePropertyOutput{}, err
	}

	t := domain.TimeCode(input.Time)
	v, found, err := s.ports.Stage.Sample(ctx, path, input.Property, t)
	if err != nil {
		return nil, SamplePropertyOutput{}, fmt.Errorf("sampling %s.%s: %w", path, input.Property, err)
	}

	output := SamplePropertyOutput{Found: found, Time: input.Time}
	if found {
		output.Value = v.Value.String()
		output.Kind = v.Value.Kind().String()
		output.Source = string(v.Source)
		output.Layer = v.Layer.Identifier
		for _, e := range v.Value.Elements() {
			output.Elements = append(output.Elements, e.String())
		}
	}
	return nil, output, nil
}

func (s *Server) handleListLayers(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListLayersInput,
) (*mcp.CallToolResult, ListLayersOutput, error) {
	layers := s.ports.Stage.Layers()
	output := ListLayersOutput{Layers: make([]LayerOutput, len(layers))}
	for i, l := range layers {
		output.Layers[i] = layerOutput(l)
	}
	return nil, output, nil
}

// timeOrStart returns t, or the start of the stage's time range when t is nil.
func (s *Server) timeOrStart(ctx context.Context, t *float64) (domain.TimeCode, error) {
	if t != nil {
		return domain.TimeCode(*t), nil
	}
	r, err := s.ports.Stage.TimeRange(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading time range: %w", err)
	}
	return r.Start, nil
}

func layerOutput(l domain.Layer) LayerOutput {
	return LayerOutput{
		Identifier:  l.Identifier,
		DisplayName: l.DisplayName,
		Rank:        l.Rank,
		Arc:         string(l.Arc),
		Color:       l.Color,
	}
}

func propertyOutput(row domain.PropertyRow) PropertyOutput {
	out := PropertyOutput{
		Name:     row.Info.Name,
		Kind:     string(row.Info.Kind),
		TypeName: row.Info.TypeName,
	}
	for _, l := range row.Resolution.Layers {
		out.Layers = append(out.Layers, l.Identifier)
	}
	if row.Found {
		out.Winner = row.Resolution.Winner().Identifier
	}
	if row.Err != nil {
		out.Error = row.Err.Error()
		return out
	}
	if row.Found {
		out.Value = row.Sample.Value.String()
		out.Source = string(row.Sample.Source)
	}
	return out
}
