// Package mcpserver exposes the registry's tool surface over the Model
// Context Protocol, so external MCP clients (editors, other agents) can call
// the same tools the in-process loop uses.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/relaymesh/relay/internal/agent/tools"
)

const version = "0.1.0"

type Server struct {
	registry *tools.Registry
	server   *mcp.Server
	logger   *slog.Logger
}

func New(registry *tools.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		registry: registry,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "relay",
			Version: version,
		}, nil),
		logger: logger,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	for _, tool := range s.registry.List() {
		tool := tool
		s.server.AddTool(&mcp.Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: parseSchema(tool.ParametersSchema()),
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				args = []byte(`{}`)
			}
			// Every outcome, including skipped and failure envelopes, is a
			// well-formed JSON string; the registry guarantees it.
			result := s.registry.ExecuteTool(ctx, tool.Name(), args)
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: result}},
			}, nil
		})
	}
}

// parseSchema decodes a tool's schema string; a malformed schema degrades to
// a permissive object schema rather than hiding the tool.
func parseSchema(schema string) *jsonschema.Schema {
	var parsed jsonschema.Schema
	if err := json.Unmarshal([]byte(schema), &parsed); err != nil {
		return &jsonschema.Schema{Type: "object"}
	}
	return &parsed
}

// Run serves MCP over stdio, for clients that spawn the process directly.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves MCP over streamable HTTP until ctx is canceled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("mcp server listening", "addr", addr)
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
