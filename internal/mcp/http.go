package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// HTTPConfig configures the HTTP transport
type HTTPConfig struct {
	Addr string

	// AuthSecret, when non-empty, requires every /rpc request to carry a
	// bearer token signed with it (HS256).
	AuthSecret string

	// WebSocket, when non-nil, is mounted at /ws for the business
	// application's UI connection.
	WebSocket http.HandlerFunc
}

// HTTPServer serves MCP over HTTP: one JSON-RPC request per POST /rpc, a
// health probe, and the optional UI WebSocket.
type HTTPServer struct {
	server *http.Server
	rpc    *Server
	config HTTPConfig
	logger *zap.Logger
}

// NewHTTPServer builds the HTTP transport around an MCP server
func NewHTTPServer(rpc *Server, config HTTPConfig, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &HTTPServer{
		rpc:    rpc,
		config: config,
		logger: logger,
	}

	h.server = &http.Server{
		Addr:              config.Addr,
		Handler:           h.Routes(),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second, // tool calls can hold a slow query
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return h
}

// Routes builds the router. Exposed so tests can drive the handler without
// binding a port.
func (h *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.logRequests)

	r.Get("/healthz", h.handleHealth)

	r.Group(func(r chi.Router) {
		if h.config.AuthSecret != "" {
			r.Use(h.requireBearer)
		}
		r.Post("/rpc", h.handleRPC)
	})

	if h.config.WebSocket != nil {
		// The UI connects from the same machine; the hub enforces the
		// localhost origin check itself.
		r.Get("/ws", h.config.WebSocket)
	}

	return r
}

// ListenAndServe blocks until ctx is cancelled, then drains in-flight
// requests before returning.
func (h *HTTPServer) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		h.logger.Info("mcp http transport listening", zap.String("addr", h.server.Addr))
		errc <- h.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *HTTPServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &Response{
			JSONRPC: "2.0",
			Error:   &Error{Code: codeParseError, Message: "Parse error", Data: err.Error()},
		})
		return
	}

	resp := h.rpc.Handle(r.Context(), &req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// requireBearer validates the Authorization header against the configured
// secret. The signing method is pinned to HS256 so an attacker cannot pick
// their own algorithm.
func (h *HTTPServer) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
			if token.Method.Alg() != "HS256" {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(h.config.AuthSecret), nil
		})
		if err != nil || !token.Valid {
			h.logger.Warn("rejected rpc request", zap.Error(err))
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
