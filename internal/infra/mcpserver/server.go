package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"unitymcp/internal/domain"
)

const (
	serverName    = "unity-mcp-config"
	serverVersion = "0.1.0"

	configResourceURI = "config://server"
)

// ConfigProvider supplies configuration snapshots to the MCP surface.
type ConfigProvider interface {
	Snapshot(ctx context.Context) (domain.ConfigState, error)
	Reload(ctx context.Context) error
}

// Server exposes the effective server configuration to MCP clients: a
// config resource, a status tool, and a reload tool.
type Server struct {
	provider   ConfigProvider
	logger     *zap.Logger
	server     *mcp.Server
	instanceID string
	startedAt  time.Time
}

func New(provider ConfigProvider, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		provider:   provider,
		logger:     logger.Named("mcpserver"),
		instanceID: uuid.NewString(),
		startedAt:  time.Now(),
	}
	s.server = s.build()
	return s
}

func (s *Server) build() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &mcp.ServerOptions{
		HasTools:     true,
		HasResources: true,
	})

	server.AddResource(&mcp.Resource{
		URI:         configResourceURI,
		Name:        "server-config",
		Description: "Effective Unity MCP server configuration",
		MIMEType:    "application/json",
	}, s.readConfigResource)

	server.AddTool(&mcp.Tool{
		Name:        "server_status",
		Description: "Report the server instance, configuration revision, and Unity port source",
		InputSchema: map[string]any{"type": "object"},
	}, s.statusHandler)

	server.AddTool(&mcp.Tool{
		Name:        "reload_config",
		Description: "Re-resolve the configuration from its override files",
		InputSchema: map[string]any{"type": "object"},
	}, s.reloadHandler)

	return server
}

// RunStdio serves MCP over stdio until ctx is cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("mcp server starting (stdio transport)", zap.String("instance", s.instanceID))
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves MCP over streamable HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (streamable http)",
			zap.String("addr", addr),
			zap.String("instance", s.instanceID),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("mcp server failed to start: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("mcp server shutdown error", zap.Error(err))
			return err
		}
		s.logger.Info("mcp server stopped")
		return nil
	}
}

// Handler returns the streamable HTTP handler, exported for tests and for
// embedding under an existing mux.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

type configPayload struct {
	UnityHost         string  `json:"unityHost"`
	UnityPort         int     `json:"unityPort"`
	MCPPort           int     `json:"mcpPort"`
	ConnectionTimeout float64 `json:"connectionTimeout"`
	BufferSize        int     `json:"bufferSize"`
	LogLevel          string  `json:"logLevel"`
	LogFormat         string  `json:"logFormat"`
	MaxRetries        int     `json:"maxRetries"`
	RetryDelay        float64 `json:"retryDelay"`
	PortSource        string  `json:"portSource"`
	Revision          uint64  `json:"revision"`
}

func (s *Server) readConfigResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	state, err := s.provider.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(configPayload{
		UnityHost:         state.Config.UnityHost,
		UnityPort:         state.Config.UnityPort,
		MCPPort:           state.Config.MCPPort,
		ConnectionTimeout: state.Config.ConnectionTimeout,
		BufferSize:        state.Config.BufferSize,
		LogLevel:          state.Config.LogLevel,
		LogFormat:         state.Config.LogFormat,
		MaxRetries:        state.Config.MaxRetries,
		RetryDelay:        state.Config.RetryDelay,
		PortSource:        string(state.PortSource),
		Revision:          state.Revision,
	})
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      configResourceURI,
			MIMEType: "application/json",
			Text:     string(payload),
		}},
	}, nil
}

type statusPayload struct {
	Instance      string `json:"instance"`
	Revision      uint64 `json:"revision"`
	PortSource    string `json:"portSource"`
	UnityEndpoint string `json:"unityEndpoint"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

func (s *Server) statusHandler(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.provider.Snapshot(ctx)
	if err != nil {
		return toolError(err), nil
	}

	payload, err := json.Marshal(statusPayload{
		Instance:      s.instanceID,
		Revision:      state.Revision,
		PortSource:    string(state.PortSource),
		UnityEndpoint: fmt.Sprintf("%s:%d", state.Config.UnityHost, state.Config.UnityPort),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
	if err != nil {
		return toolError(err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil
}

func (s *Server) reloadHandler(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.provider.Reload(ctx); err != nil {
		return toolError(err), nil
	}

	state, err := s.provider.Snapshot(ctx)
	if err != nil {
		return toolError(err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{
			Text: fmt.Sprintf(`{"revision":%d,"portSource":%q}`, state.Revision, state.PortSource),
		}},
	}, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
