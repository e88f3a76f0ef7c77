// Package httpapi implements the HTTP transport adapter (spec §6):
// REST endpoints over the request handler (C14), reusing the
// teacher's ambient HTTP stack (respond, middleware, requestid,
// pathutil) rather than reinventing routing/logging/recovery.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	handlerhttp "newsnexus/internal/handler/http"
	"newsnexus/internal/handler/http/requestid"
	"newsnexus/internal/handler/http/respond"
	"newsnexus/internal/cascade"
	"newsnexus/internal/domain/entity"
	"newsnexus/internal/observability/metrics"
	"newsnexus/internal/observability/tracing"
	"newsnexus/internal/requesthandler"
	"newsnexus/internal/transport/stdio"

	"newsnexus/pkg/security/csp"
)

// Server wraps the request handler with REST (+ SSE) endpoints.
type Server struct {
	handler *requesthandler.Handler
	stdio   *stdio.Server
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New builds a Server. The same request handler backs every route;
// rpc also gets a stdio.Server so /rpc can reuse its JSON-RPC dispatch
// logic for exactly one request instead of a persistent stream.
func New(handler *requesthandler.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		handler: handler,
		stdio:   stdio.New(handler, logger),
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /rpc", s.handleRPC)
	s.mux.HandleFunc("GET /articles", s.handleArticles)
	s.mux.HandleFunc("GET /top-news", s.handleTopNews)
	s.mux.HandleFunc("GET /articles/stream", s.handleStream)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", handlerhttp.MetricsHandler())
}

// Handler returns the fully wrapped http.Handler (routes + middleware
// chain), ready to pass to http.Server.
func (s *Server) Handler() http.Handler {
	builder := csp.StrictPolicy()
	policy := builder.Build()
	headerName := builder.HeaderName()

	var h http.Handler = s.mux
	h = cspMiddleware(headerName, policy)(h)
	h = handlerhttp.MetricsMiddleware(h)
	h = handlerhttp.Recover(s.logger)(h)
	h = handlerhttp.Logging(s.logger)(h)
	h = tracing.Middleware(h)
	h = requestid.Middleware(h)
	return h
}

func cspMiddleware(headerName, policy string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(headerName, policy)
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := readAll(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	out := s.stdio.HandleOne(r.Context(), body)
	w.Header().Set("Content-Type", "application/json")
	w.Write(out)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	s.handleFetch(w, r, requestParams(r))
}

func (s *Server) handleTopNews(w http.ResponseWriter, r *http.Request) {
	params := requestParams(r)
	params.Domain = ""
	s.handleFetch(w, r, params)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request, req requesthandler.Request) {
	resp, err := s.handler.Handle(r.Context(), req)
	writeHandlerResult(w, resp, err)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.Error(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	req := requestParams(r)
	resp, err := s.handler.StreamDomain(r.Context(), req, func(p cascade.Provenance) {
		writeSSEEvent(w, "tier", p)
		flusher.Flush()
	})
	if err != nil {
		writeSSEEvent(w, "error", err.Error())
		flusher.Flush()
		return
	}
	writeSSEEvent(w, "done", resp)
	flusher.Flush()
}

func writeSSEEvent(w http.ResponseWriter, event string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": metrics.Default.Uptime().String(),
	})
}

func writeHandlerResult(w http.ResponseWriter, resp requesthandler.Response, err error) {
	if err != nil {
		var kerr *entity.KindedError
		if errors.As(err, &kerr) {
			writeKindedError(w, kerr)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, resp)
}

func writeKindedError(w http.ResponseWriter, kerr *entity.KindedError) {
	status := http.StatusInternalServerError
	switch kerr.Kind {
	case entity.ErrKindInvalidArgument:
		status = http.StatusBadRequest
	case entity.ErrKindNotConfigured:
		status = http.StatusNotFound
	case entity.ErrKindRateLimited:
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", strconv.Itoa(kerr.RetryAfter))
	case entity.ErrKindNoContent:
		status = http.StatusOK
	}
	respond.JSON(w, status, map[string]any{
		"error":       kerr.Kind,
		"message":     kerr.Message,
		"retry_after": kerr.RetryAfter,
	})
}

func requestParams(r *http.Request) requesthandler.Request {
	q := r.URL.Query()
	return requesthandler.Request{
		Domain:   q.Get("domain"),
		Topic:    q.Get("topic"),
		Location: q.Get("location"),
		Days:     atoiOr(q.Get("days"), 0),
		Count:    atoiOr(q.Get("count"), 0),
	}
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func readAll(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// ListenAndServe starts the HTTP server on addr with a graceful
// shutdown bound to ctx.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	}
}
