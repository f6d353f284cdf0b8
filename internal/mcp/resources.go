package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/liftplan/internal/training"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) phaseTable(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, training.Table())
}

func (h *handlers) today(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	day, err := h.ds.Prescribe(ctx, "", h.now())
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, day)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
