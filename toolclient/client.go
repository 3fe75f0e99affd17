// Package toolclient is a small MCP client for toolsrv servers, used by the example programs.
package toolclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	clientName    = "toolsrv-client"
	clientVersion = "0.1.0"
)

// CallError is a tool-level failure: the server answered with an {"error": ...} result.
type CallError struct {
	Tool    string
	Message string
}

func (e *CallError) Error() string { return e.Message }

// IsCallError reports whether err is a tool-level failure rather than a transport error.
func IsCallError(err error) bool {
	var ce *CallError
	return errors.As(err, &ce)
}

// Client is an initialized MCP session.
type Client struct {
	mcp    client.MCPClient
	server mcp.Implementation
}

// Connect spawns command with args as an MCP server over stdio and initializes a session.
func Connect(ctx context.Context, command string, args []string, env []string) (*Client, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", command, err)
	}
	return initialize(ctx, c)
}

// ConnectInProcess opens a session to srv without any transport.
func ConnectInProcess(ctx context.Context, srv *server.MCPServer) (*Client, error) {
	c, err := client.NewInProcessClient(srv)
	if err != nil {
		return nil, fmt.Errorf("create in-process client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("start in-process client: %w", err)
	}
	return initialize(ctx, c)
}

func initialize(ctx context.Context, c client.MCPClient) (*Client, error) {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: clientVersion}
	res, err := c.Initialize(ctx, req)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return &Client{mcp: c, server: res.ServerInfo}, nil
}

// ServerName returns the name the server reported during initialization.
func (c *Client) ServerName() string { return c.server.Name }

// ListTools returns the tools advertised by the server.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	res, err := c.mcp.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return res.Tools, nil
}

// Call invokes a tool and decodes its JSON result. A tool-level failure is returned as *CallError;
// unknown tools and transport faults are returned as plain errors.
func (c *Client) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.mcp.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}
	text := textOf(res)
	if res.IsError {
		var payload struct {
			Error string `json:"error"`
		}
		msg := text
		if json.Unmarshal([]byte(text), &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return nil, &CallError{Tool: name, Message: msg}
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text, nil
	}
	return v, nil
}

// Close ends the session and stops a spawned server.
func (c *Client) Close() error {
	return c.mcp.Close()
}

func textOf(res *mcp.CallToolResult) string {
	var parts []string
	for _, content := range res.Content {
		switch tc := content.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
