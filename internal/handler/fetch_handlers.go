package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
)

// hopHeaders are connection-level headers never replayed from the cache.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Connection",
	"Transfer-Encoding",
	"Upgrade",
	"Trailer",
	"Te",
	"Content-Length",
}

// handleFetch routes an app request through the active worker. Requests the
// worker passes through go to the upstream unchanged.
func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	worker := h.lifecycle.Controller()
	if worker == nil {
		h.proxy.ServeHTTP(w, r)
		return
	}

	resp, err := worker.Fetch(r.Context(), r)
	if errors.Is(err, domain.ErrPassThrough) {
		h.proxy.ServeHTTP(w, r)
		return
	}
	if err != nil {
		slog.Warn("fetch failed", "worker_id", worker.ID(), "path", r.URL.Path, "error", err)
		respondError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "upstream unavailable and no cached copy")
		return
	}

	writeResponse(w, resp)
}

// writeResponse replays a worker response to the client.
func writeResponse(w http.ResponseWriter, resp *domain.Response) {
	header := w.Header()
	for k, vs := range resp.Header {
		header[k] = append([]string(nil), vs...)
	}
	for _, k := range hopHeaders {
		header.Del(k)
	}
	header.Set("Content-Length", strconv.Itoa(len(resp.Body)))

	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		slog.Debug("client went away", "url", resp.URL, "error", err)
	}
}
