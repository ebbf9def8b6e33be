// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

// ToolName is the MCP tool that runs an extraction.
const ToolName = "pdf_extract"

type extractReq struct {
	Input        string `json:"input"`
	Output       string `json:"output"`
	Pages        string `json:"pages"`
	Method       string `json:"method"`
	MinImageSize *int   `json:"min_image_size"`
}

// config applies the request overrides to base.
func (r extractReq) config(base types.ExtractionConfig) (types.ExtractionConfig, error) {
	cfg := base
	if r.Pages != "" {
		rng, err := types.ParsePageRange(r.Pages)
		if err != nil {
			return cfg, err
		}
		cfg.Pages = rng
	}
	if r.Method != "" {
		m, err := types.ParseMethod(r.Method)
		if err != nil {
			return cfg, err
		}
		cfg.Method = m
	}
	if r.MinImageSize != nil {
		if *r.MinImageSize < 0 {
			return cfg, fmt.Errorf("min_image_size must not be negative, got %d", *r.MinImageSize)
		}
		cfg.MinImageSize = *r.MinImageSize
	}
	return cfg, nil
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// RegisterMCP registers the extraction tool on an MCP server. Each call
// runs with p's configuration overridden by the call arguments.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        ToolName,
		Description: "Extract text, images and metadata from a PDF into Markdown, metadata.json and an images directory.",
		InputSchema: inputSchema(map[string]any{
			"input":          map[string]any{"type": "string", "description": "Path of the PDF file"},
			"output":         map[string]any{"type": "string", "description": "Output directory (default: <stem>_extracted next to the input)"},
			"pages":          map[string]any{"type": "string", "description": "Inclusive page range START-END"},
			"method":         map[string]any{"type": "string", "enum": []string{"auto", "primary", "fallback"}},
			"min_image_size": map[string]any{"type": "integer", "description": "Minimum image width or height in pixels"},
		}, []string{"input"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r extractReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}
		if r.Input == "" {
			return toolError(errors.New("invalid arguments: input is required")), nil
		}
		cfg, err := r.config(p.cfg)
		if err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}
		outDir := r.Output
		if outDir == "" {
			outDir = OutputDir(r.Input, "")
		}

		rep, err := p.With(cfg).Convert(ctx, r.Input, outDir)
		if err != nil {
			return toolError(err), nil
		}
		data, err := json.Marshal(rep)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}
