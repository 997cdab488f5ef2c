package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/usecase/adaptive"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "adaptive-engine"
	serverVersion = "0.1.0"
)

// Observer is notified after every tool call
type Observer interface {
	Observe(operation string, err error)
}

// Server exposes the UseCase command surface as MCP tools
type Server struct {
	uc       *adaptive.UseCase
	observer Observer
	server   *mcp.Server
}

type Option func(*Server)

// WithObserver reports tool calls, e.g. to metrics
func WithObserver(o Observer) Option {
	return func(s *Server) {
		s.observer = o
	}
}

// New creates an MCP server with every tool registered
func New(uc *adaptive.UseCase, opts ...Option) *Server {
	s := &Server{uc: uc}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)
	s.registerTools()

	return s
}

// MCP returns the underlying server, e.g. to connect custom transports
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// RunStdio serves MCP over stdin/stdout until the client disconnects or ctx
// is cancelled
func (s *Server) RunStdio(ctx context.Context) error {
	logging.From(ctx).Info("serving MCP over stdio", "server", serverName)
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return goerr.Wrap(err, "MCP stdio server failed")
	}
	return nil
}

// Handler serves MCP over streamable HTTP
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// ServeHTTP serves MCP over streamable HTTP on addr until ctx is cancelled
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.From(ctx).Info("serving MCP over HTTP", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return goerr.Wrap(err, "MCP HTTP server failed", goerr.V("addr", addr))
	}
	return nil
}

func (s *Server) observe(ctx context.Context, tool string, err error) {
	if s.observer != nil {
		s.observer.Observe(tool, err)
	}
	if err != nil {
		logging.From(ctx).Warn("tool call failed", "tool", tool, "error", err)
	}
}

// jsonResult renders v as the single text content of a tool result
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to encode tool result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}
