package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
	"github.com/AmonBrollo/FlashLingo/internal/handler/dto"
	"github.com/AmonBrollo/FlashLingo/internal/middleware"
	"github.com/AmonBrollo/FlashLingo/internal/service"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	lifecycle      *service.Lifecycle
	storage        domain.CacheStorage
	proxy          *httputil.ReverseProxy
	authMiddleware *middleware.AuthMiddleware
}

// New creates a new Handler. Requests the active worker does not answer are
// proxied to upstream; controlToken guards the control endpoints.
func New(lifecycle *service.Lifecycle, storage domain.CacheStorage, upstream *url.URL, controlToken string) *Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Warn("upstream request failed", "path", r.URL.Path, "error", err)
			respondError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "upstream unavailable")
		},
	}

	return &Handler{
		lifecycle:      lifecycle,
		storage:        storage,
		proxy:          proxy,
		authMiddleware: middleware.NewAuthMiddleware(controlToken),
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// Worker control plane
	mux.HandleFunc("GET /_worker/status", h.handleStatus)
	mux.Handle("POST /_worker/message", h.authMiddleware.Authenticate(http.HandlerFunc(h.handleMessage)))

	// Everything else is an intercepted app request
	mux.HandleFunc("/", h.handleFetch)
}

// handleHealthz returns 200 OK if the cache store is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.storage.Names(r.Context()); err != nil {
		slog.Error("cache store health check failed", "error", err)
		http.Error(w, "cache store unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError writes the mapped response for a domain error.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}
