package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for stage resources.
	uriScheme = "usdinspect://"

	primsPrefix = uriScheme + "prims"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stage",
		Name:        "stage",
		Description: "The open stage: location, layer stack and time range",
		MIMEType:    "application/json",
	}, s.handleStageResource)

	// The prim path follows the prefix verbatim: usdinspect://prims/World/Cube
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: primsPrefix + "{+path}",
		Name:        "prim",
		Description: "A composed prim: type, children, properties, layer stack and metadata",
		MIMEType:    "application/json",
	}, s.handlePrimResource)
}

type stageInfo struct {
	Session  string        `json:"session"`
	Location string        `json:"location"`
	Layers   []LayerOutput `json:"layers"`
	Start    float64       `json:"start_time_code"`
	End      float64       `json:"end_time_code"`
	Rate     float64       `json:"time_codes_per_second"`
}

type primSpecInfo struct {
	Layer     string `json:"layer"`
	Arc       string `json:"arc"`
	Specifier string `json:"specifier"`
	TypeName  string `json:"type_name,omitempty"`
}

type primInfo struct {
	Path       string            `json:"path"`
	TypeName   string            `json:"type_name,omitempty"`
	Specifier  string            `json:"specifier,omitempty"`
	Children   []string          `json:"children"`
	Properties []string          `json:"properties"`
	Stack      []primSpecInfo    `json:"stack"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// handleStageResource describes the open stage.
func (s *Server) handleStageResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	r, err := s.ports.Stage.TimeRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading time range: %w", err)
	}

	info := stageInfo{
		Session:  s.ports.Stage.ID(),
		Location: s.ports.Stage.Location(),
		Start:    float64(r.Start),
		End:      float64(r.End),
		Rate:     r.TimeCodesPerSecond,
	}
	for _, l := range s.ports.Stage.Layers() {
		info.Layers = append(info.Layers, layerOutput(l))
	}
	return jsonResource(req.Params.URI, info)
}

// handlePrimResource describes one prim.
func (s *Server) handlePrimResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	path, ok := extractPrimPath(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	node, err := s.ports.Stage.Node(ctx, path)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info := primInfo{
		Path:      string(path),
		TypeName:  node.TypeName,
		Specifier: string(node.Specifier),
		Children:  []string{},
		Stack:     []primSpecInfo{},
	}

	children, err := s.ports.Stage.ChildrenOf(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}
	for _, c := range children {
		info.Children = append(info.Children, string(c))
	}

	info.Properties, err = s.ports.Stage.PropertiesOf(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}

	if !path.IsRoot() {
		stack, err := s.ports.Stage.PrimStack(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("reading prim stack: %w", err)
		}
		for _, ref := range stack {
			info.Stack = append(info.Stack, primSpecInfo{
				Layer:     ref.Layer.Identifier,
				Arc:       string(ref.Layer.Arc),
				Specifier: string(ref.Specifier),
				TypeName:  ref.TypeName,
			})
		}

		md, err := s.ports.Stage.Metadata(ctx, path, "", "")
		if err != nil {
			return nil, fmt.Errorf("reading metadata: %w", err)
		}
		if len(md) > 0 {
			info.Metadata = make(map[string]string, len(md))
			for _, field := range md {
				info.Metadata[field.Key] = field.Value.String()
			}
		}
	}

	return jsonResource(req.Params.URI, info)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractPrimPath extracts the prim path from a URI like usdinspect://prims/World/Cube.
// A bare usdinspect://prims addresses the pseudo-root.
func extractPrimPath(uri string) (domain.Path, bool) {
	if !strings.HasPrefix(uri, primsPrefix) {
		return "", false
	}
	rest := strings.TrimPrefix(uri, primsPrefix)
	if rest == "" {
		return domain.RootPath, true
	}
	path, err := domain.ParsePath(rest)
	if err != nil {
		return "", false
	}
	return path, true
}
