// Package stdio implements the line-delimited JSON-RPC transport
// (component list, spec §6): an MCP-style "initialize"/"tools/list"/
// "tools/call" server speaking newline-delimited JSON over stdin and
// stdout. The wire format is grounded in
// _examples/original_source/fetch_news.py and mcp_client.go's
// send_request/call_tool shape: {"jsonrpc":"2.0","id":...,"method":...,
// "params":...} in, {"jsonrpc":"2.0","id":...,"result":{"content":[{"type":"text","text":"..."}]}}
// or {"jsonrpc":"2.0","id":...,"error":{"code":...,"message":...}} out.
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"newsnexus/internal/domain/entity"
	"newsnexus/internal/requesthandler"
)

// protocolVersion is echoed back from initialize, matching the
// version fetch_news.py's client sends.
const protocolVersion = "2024-11-05"

// Server is one stdio JSON-RPC loop bound to a request handler.
type Server struct {
	handler *requesthandler.Handler
	logger  *slog.Logger
}

// New builds a Server over handler.
func New(handler *requesthandler.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{handler: handler, logger: logger}
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any         `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// toolDescriptor is what "tools/list" advertises, mirroring
// mcp_client.go's tool.name/tool.description shape.
type toolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var tools = []toolDescriptor{
	{Name: "get_top_news", Description: "Fetch top news across priority publishers, optionally filtered by topic/location/days"},
	{Name: "get_articles", Description: "Fetch articles for a single configured publisher domain"},
	{Name: "health_check", Description: "Report basic server liveness"},
}

// Serve reads newline-delimited JSON-RPC requests from r and writes
// responses to w until r is exhausted or ctx is canceled. Malformed
// lines produce a parse-error response rather than aborting the loop,
// per spec §4.14's "no error is fatal to the process".
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			writeResponse(w, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "parse error: " + err.Error()}})
			continue
		}

		resp := s.dispatch(ctx, req)
		writeResponse(w, resp)
	}
	return scanner.Err()
}

// HandleOne parses a single JSON-RPC request from body and returns its
// marshaled response, for transports that exchange one request/response
// pair per call rather than a persistent stream (e.g. HTTP POST /rpc).
func (s *Server) HandleOne(ctx context.Context, body []byte) []byte {
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		b, _ := json.Marshal(rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "parse error: " + err.Error()}})
		return b
	}
	resp := s.dispatch(ctx, req)
	b, err := json.Marshal(resp)
	if err != nil {
		return []byte(`{"jsonrpc":"2.0","error":{"code":-32603,"message":"internal marshal error"}}`)
	}
	return b
}

func (s *Server) dispatch(ctx context.Context, req rpcRequest) rpcResponse {
	switch req.Method {
	case "initialize":
		return rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "newsnexus", "version": "1.0"},
		}}
	case "tools/list":
		return rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"tools": tools}}
	case "tools/call":
		return s.callTool(ctx, req)
	default:
		return rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: -32601, Message: "method not found: " + req.Method}}
	}
}

func (s *Server) callTool(ctx context.Context, req rpcRequest) rpcResponse {
	var params toolCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: -32602, Message: "invalid params: " + err.Error()}}
		}
	}

	switch params.Name {
	case "health_check":
		return rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: textResult(map[string]any{"status": "ok"})}
	case "get_top_news":
		return s.handleFetch(ctx, req, argString(params.Arguments, "domain"), params.Arguments)
	case "get_articles":
		domain := argString(params.Arguments, "domain")
		if domain == "" {
			return rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: -32602, Message: "get_articles requires a domain argument"}}
		}
		return s.handleFetch(ctx, req, domain, params.Arguments)
	default:
		return rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: -32601, Message: "unknown tool: " + params.Name}}
	}
}

func (s *Server) handleFetch(ctx context.Context, req rpcRequest, domain string, args map[string]any) rpcResponse {
	handlerReq := requesthandler.Request{
		Domain:   domain,
		Topic:    argString(args, "topic"),
		Location: argString(args, "location"),
		Days:     argInt(args, "lastNDays"),
		Count:    argInt(args, "count"),
	}

	resp, err := s.handler.Handle(ctx, handlerReq)
	if err != nil {
		var kerr *entity.KindedError
		if errors.As(err, &kerr) {
			s.logger.Warn("tool call failed", "tool", "get_top_news/get_articles", "kind", kerr.Kind, "message", kerr.Message)
			return rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: textResult(map[string]any{
				"articles":    []entity.Article{},
				"message":     kerr.Message,
				"errorKind":   kerr.Kind,
				"retryAfter":  kerr.RetryAfter,
				"totalFetched": 0,
			})}
		}
		return rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: -32603, Message: "internal error: " + err.Error()}}
	}

	return rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: textResult(map[string]any{
		"articles":     resp.Articles,
		"totalFetched": len(resp.Articles),
		"sourcesQueried": resp.SourceUsed,
		"durationMs":   resp.DurationMs,
		"message":      resp.Message,
		"cached":       resp.Cached,
	})}
}

func textResult(payload any) toolResult {
	b, err := json.Marshal(payload)
	if err != nil {
		return toolResult{Content: []toolContent{{Type: "text", Text: fmt.Sprintf("marshal error: %v", err)}}, IsError: true}
	}
	return toolResult{Content: []toolContent{{Type: "text", Text: string(b)}}}
}

func argString(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argInt(args map[string]any, key string) int {
	if args == nil {
		return 0
	}
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func writeResponse(w io.Writer, resp rpcResponse) {
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	w.Write(b)
	w.Write([]byte("\n"))
}
