// Package mcpserver serves a toolsrv registry over the Model Context Protocol using mcp-go.
// Every tool call is routed through the Dispatcher, so validation, timeouts and error
// normalization are identical to in-process invocation.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/skosovsky/toolsrv"
)

// Transports accepted by Serve.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

const shutdownTimeout = 5 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithIO replaces stdin/stdout for the stdio transport.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in, s.out = in, out
	}
}

// Server binds a Dispatcher to an mcp-go server.
type Server struct {
	mcp        *server.MCPServer
	dispatcher *toolsrv.Dispatcher
	logger     *slog.Logger
	in         io.Reader
	out        io.Writer
}

// New registers every tool of the dispatcher's registry with a new MCP server.
func New(name, version string, d *toolsrv.Dispatcher, opts ...Option) (*Server, error) {
	s := &Server{
		mcp:        server.NewMCPServer(name, version, server.WithToolCapabilities(false), server.WithRecovery()),
		dispatcher: d,
		in:         os.Stdin,
		out:        os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, tool := range d.Registry().Tools() {
		schema, err := json.Marshal(tool.InputSchema())
		if err != nil {
			return nil, fmt.Errorf("encode input schema for %s: %w", tool.Name(), err)
		}
		s.mcp.AddTool(mcp.NewToolWithRawSchema(tool.Name(), tool.Description(), schema), s.handler(tool.Name()))
	}
	return s, nil
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Decoded arguments go in as is: re-encoding a rounded float64 would hide the rounding.
		if args, ok := req.Params.Arguments.(map[string]any); ok || req.Params.Arguments == nil {
			return ToCallToolResult(s.dispatcher.Invoke(ctx, name, args)), nil
		}
		raw, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return ToCallToolResult(toolsrv.Failure(toolsrv.Validationf("invalid arguments: %v", err))), nil
		}
		res := s.dispatcher.Execute(ctx, toolsrv.ToolCall{ToolName: name, Args: raw})
		return ToCallToolResult(res), nil
	}
}

// ToCallToolResult renders a Result as MCP tool output. The JSON form of the Result is the text
// content; object payloads are also set as structured content. Failures set IsError.
func ToCallToolResult(res toolsrv.Result) *mcp.CallToolResult {
	payload, err := json.Marshal(res)
	if err != nil {
		res = toolsrv.Failure(&toolsrv.SystemError{Err: fmt.Errorf("encode result: %w", err)})
		payload, _ = json.Marshal(res)
	}
	out := &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(payload))},
		IsError: !res.OK(),
	}
	var obj map[string]any
	if json.Unmarshal(payload, &obj) == nil && obj != nil {
		out.StructuredContent = obj
	}
	return out
}

// Serve runs the server on transport until ctx is cancelled. addr is used by sse and http.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	switch transport {
	case TransportStdio, "":
		return s.serveStdio(ctx)
	case TransportSSE:
		return s.serveHTTP(ctx, server.NewSSEServer(s.mcp), transport, addr)
	case TransportHTTP:
		return s.serveHTTP(ctx, server.NewStreamableHTTPServer(s.mcp), transport, addr)
	default:
		return fmt.Errorf("%w: unknown transport %q", toolsrv.ErrConfiguration, transport)
	}
}

func (s *Server) serveStdio(ctx context.Context) error {
	s.logger.InfoContext(ctx, "serving MCP over stdio")
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	err := stdio.Listen(ctx, s.in, s.out)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type httpTransport interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

func (s *Server) serveHTTP(ctx context.Context, srv httpTransport, transport, addr string) error {
	s.logger.InfoContext(ctx, "serving MCP", "transport", transport, "addr", addr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(addr)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.InfoContext(ctx, "shutting down MCP listener", "transport", transport)
		return srv.Shutdown(shutdownCtx)
	}
}
