// Package mcp implements the Model Context Protocol server for hive-bff,
// exposing the content aggregation as tools for agent integrations.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hivehq/hive-bff/internal/dents"
	"github.com/hivehq/hive-bff/internal/models"
)

// Server wraps an MCPServer with hive-bff dependencies.
type Server struct {
	mcp     *mcpserver.MCPServer
	fetcher dents.Fetcher
	logger  *slog.Logger
}

// NewServer creates a new MCP server. If fetcher is nil, tool calls return
// an error response instead of panicking.
func NewServer(fetcher dents.Fetcher, logger *slog.Logger) *Server {
	s := &Server{
		fetcher: fetcher,
		logger:  logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"hive-bff",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildGetDentsTool(), s.handleGetDents)
	mcpSrv.AddTool(buildGetCountsTool(), s.handleGetCounts)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleGetDents is the exported handler for the "get_dents" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleGetDents(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGetDents(ctx, req)
}

// HandleGetCounts is the exported handler for the "get_counts" tool.
func (s *Server) HandleGetCounts(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGetCounts(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// --- tool definitions ---

func buildGetDentsTool() mcpgo.Tool {
	return mcpgo.NewTool("get_dents",
		mcpgo.WithDescription("Fetch the content aggregate (documents, events, notes, tasks) for a contact, tile, or hive member."),
		mcpgo.WithString("entity_type",
			mcpgo.Required(),
			mcpgo.Description("Entity kind: contact, tile, or user"),
		),
		mcpgo.WithString("entity_id",
			mcpgo.Required(),
			mcpgo.Description("The entity id to aggregate content for"),
		),
		mcpgo.WithString("account_id",
			mcpgo.Required(),
			mcpgo.Description("The account the request is authorized under"),
		),
		mcpgo.WithString("user_id",
			mcpgo.Required(),
			mcpgo.Description("The requesting user id"),
		),
		mcpgo.WithString("content_types",
			mcpgo.Description("Comma-joined subset of files,notes,events,tasks (default: all)"),
		),
		mcpgo.WithBoolean("include_deleted",
			mcpgo.Description("Include soft-deleted items (default: false)"),
		),
	)
}

func buildGetCountsTool() mcpgo.Tool {
	return mcpgo.NewTool("get_counts",
		mcpgo.WithDescription("Fetch only the per-kind item counts for an entity's content aggregate."),
		mcpgo.WithString("entity_type",
			mcpgo.Required(),
			mcpgo.Description("Entity kind: contact, tile, or user"),
		),
		mcpgo.WithString("entity_id",
			mcpgo.Required(),
			mcpgo.Description("The entity id to count content for"),
		),
		mcpgo.WithString("account_id",
			mcpgo.Required(),
			mcpgo.Description("The account the request is authorized under"),
		),
		mcpgo.WithString("user_id",
			mcpgo.Required(),
			mcpgo.Description("The requesting user id"),
		),
	)
}

// --- tool handlers ---

// fetchAggregate validates tool arguments and runs the routed fetch; the
// error result is a user-facing message, nil when the fetch produced an
// aggregate (degraded or not).
func (s *Server) fetchAggregate(ctx context.Context, req mcpgo.CallToolRequest) (*models.DentsResponse, *mcpgo.CallToolResult) {
	if s.fetcher == nil {
		return nil, mcpgo.NewToolResultError("fetcher is unavailable")
	}

	entityType := models.EntityType(req.GetString("entity_type", ""))
	if !entityType.IsValid() {
		return nil, mcpgo.NewToolResultErrorf("invalid entity_type %q: must be one of contact, tile, user", string(entityType))
	}

	entityID := req.GetString("entity_id", "")
	if strings.TrimSpace(entityID) == "" {
		return nil, mcpgo.NewToolResultError("entity_id is required and must not be empty")
	}

	opts := dents.Options{
		AccountID:      req.GetString("account_id", ""),
		UserID:         req.GetString("user_id", ""),
		IncludeDeleted: req.GetBool("include_deleted", false),
	}
	if opts.AccountID == "" || opts.UserID == "" {
		return nil, mcpgo.NewToolResultError("account_id and user_id are required")
	}

	if raw := req.GetString("content_types", ""); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			kind := models.ContentKind(strings.TrimSpace(part))
			if !kind.IsValid() {
				return nil, mcpgo.NewToolResultErrorf("invalid content type %q", string(kind))
			}
			opts.ContentTypes = append(opts.ContentTypes, kind)
		}
	}

	var (
		resp *models.DentsResponse
		err  error
	)
	switch entityType {
	case models.EntityContact:
		resp, err = s.fetcher.ContactDents(ctx, entityID, opts)
	case models.EntityTile:
		resp, err = s.fetcher.TileDents(ctx, entityID, opts)
	case models.EntityUser:
		resp, err = s.fetcher.UserDents(ctx, entityID, opts)
	}
	if err != nil {
		// Degraded aggregates are still returned; log the cause.
		s.logger.Warn("mcp: degraded dents aggregate", "entityType", entityType, "entityId", entityID, "error", err)
	}

	return resp, nil
}

// handleGetDents returns the full aggregate for an entity.
func (s *Server) handleGetDents(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	resp, errResult := s.fetchAggregate(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	return toolResultJSON(resp)
}

// handleGetCounts returns only the per-kind counts.
func (s *Server) handleGetCounts(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	resp, errResult := s.fetchAggregate(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	result := map[string]any{
		"entityType": resp.EntityType,
		"entityId":   resp.EntityID,
		"counts":     resp.Counts,
	}
	return toolResultJSON(result)
}
