// Package mcp serves the record tools to AI clients over the Model Context
// Protocol: JSON-RPC 2.0, newline-delimited on stdio or POSTed over HTTP.
// Recoverable tool mistakes come back as isError text content so the client
// model can correct itself; only transport and infrastructure failures
// become JSON-RPC errors.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/deskclerk/deskclerk/internal/tools"
)

// ProtocolVersion is the MCP revision this server speaks
const ProtocolVersion = "2024-11-05"

// JSON-RPC error codes used by the server
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Toolset is the tool surface the server exposes. *tools.Dispatcher
// satisfies it.
type Toolset interface {
	Definitions() []tools.Definition
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

// Request is a JSON-RPC request
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC response
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error is a JSON-RPC error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// InitializeResult is the result of initialize
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
}

// ServerInfo identifies the server to the client
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Capabilities advertises what the server supports
type Capabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

// ToolsCapability describes tool support
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// content is one piece of tool output
type content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// callResult is the result of tools/call
type callResult struct {
	Content []content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Server dispatches MCP requests to a toolset. It is transport-agnostic:
// ServeStdio runs the newline-delimited loop, Handle serves one request for
// the HTTP transport.
type Server struct {
	toolset Toolset
	logger  *zap.Logger
	name    string
	version string
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithLogger attaches a logger; the default discards everything
func WithLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServerInfo overrides the name and version reported on initialize
func WithServerInfo(name, version string) ServerOption {
	return func(s *Server) {
		s.name = name
		s.version = version
	}
}

// NewServer creates an MCP server over a toolset
func NewServer(toolset Toolset, opts ...ServerOption) *Server {
	s := &Server{
		toolset: toolset,
		logger:  zap.NewNop(),
		name:    "deskclerk",
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeStdio reads newline-delimited requests from r and writes responses to
// w until r is exhausted or ctx is cancelled. Malformed lines are logged and
// skipped; a client that cannot frame JSON cannot receive an error either.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Tool results can carry whole result pages; allow large frames.
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("dropping unparseable frame", zap.Error(err))
			continue
		}

		resp := s.Handle(ctx, &req)
		if resp == nil {
			// Notification - nothing goes back.
			continue
		}
		if err := writeResponse(w, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	return scanner.Err()
}

// Run serves MCP on the process's stdin and stdout
func (s *Server) Run(ctx context.Context) error {
	return s.ServeStdio(ctx, os.Stdin, os.Stdout)
}

// Handle serves one request. Notifications (nil id, or methods defined to
// have no reply) return nil.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	s.logger.Debug("mcp request", zap.String("method", req.Method))

	switch req.Method {
	case "initialize":
		return s.result(req.ID, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      ServerInfo{Name: s.name, Version: s.version},
			Capabilities:    Capabilities{Tools: &ToolsCapability{ListChanged: false}},
		})

	case "initialized", "notifications/initialized":
		return nil

	case "ping":
		return s.result(req.ID, map[string]any{})

	case "tools/list":
		return s.result(req.ID, map[string]any{"tools": s.toolset.Definitions()})

	case "tools/call":
		return s.handleToolsCall(ctx, req)

	default:
		return s.err(req.ID, codeMethodNotFound, "Method not found", req.Method)
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.err(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	out, err := s.toolset.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		// The dispatcher already folded everything the model can correct
		// into text; what reaches here is infrastructure failure.
		s.logger.Error("tool call failed",
			zap.String("tool", params.Name),
			zap.Error(err))
		return s.err(req.ID, codeInternalError, "Internal error", err.Error())
	}

	return s.result(req.ID, callResult{
		Content: []content{{Type: "text", Text: out}},
	})
}

func (s *Server) result(id, result any) *Response {
	if id == nil {
		return nil
	}
	return &Response{JSONRPC: "2.0", ID: id, Result: result}
}

func (s *Server) err(id any, code int, message string, data any) *Response {
	// Errors for notifications have nowhere to go; log and drop.
	if id == nil {
		s.logger.Warn("error with no request id",
			zap.String("message", message),
			zap.Any("data", data))
		return nil
	}
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: data},
	}
}

func writeResponse(w io.Writer, resp *Response) error {
	out, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}
