package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
	"github.com/AmonBrollo/FlashLingo/internal/handler/dto"
	"github.com/AmonBrollo/FlashLingo/internal/service"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// handleStatus reports the hosted workers and the size of each cache.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summaries, err := service.Inventory(ctx, h.storage)
	if err != nil {
		slog.Error("failed to inventory caches", "error", err)
		respondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "cache store unavailable")
		return
	}

	resp := dto.StatusResponse{Caches: dto.NewCacheInfos(summaries)}
	if c := h.lifecycle.Controller(); c != nil {
		resp.Controller = dto.NewWorkerInfo(c.Status())
	}
	if waiting := h.lifecycle.Waiting(); waiting != nil {
		resp.Waiting = dto.NewWorkerInfo(waiting.Status())
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleMessage delivers a control message to the active worker.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "data is required")
		return
	}

	worker := h.lifecycle.Controller()
	if waiting := h.lifecycle.Waiting(); waiting != nil && req.Data == domain.MessageSkipWaiting {
		worker = waiting
	}
	if worker == nil {
		respondDomainError(w, fmt.Errorf("deliver %q: %w", req.Data, domain.ErrNoController))
		return
	}

	if err := worker.Message(ctx, req.Data); err != nil {
		respondDomainError(w, err)
		return
	}

	slog.Info("control message accepted", "worker_id", worker.ID(), "message", req.Data)
	respondJSON(w, http.StatusAccepted, dto.MessageResponse{WorkerID: worker.ID(), Message: req.Data})
}
