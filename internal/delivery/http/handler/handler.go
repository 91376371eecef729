package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/site-mirror/internal/delivery/http/request"
	"github.com/user/site-mirror/internal/delivery/http/response"
	"github.com/user/site-mirror/internal/repository"
	"github.com/user/site-mirror/internal/usecase"
)

type Handler struct {
	runManager usecase.RunManager
}

func NewHandler(runManager usecase.RunManager) *Handler {
	return &Handler{
		runManager: runManager,
	}
}

func (h *Handler) HandleSubmitMirror(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitMirrorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	runID, err := h.runManager.Submit(r.Context(), usecase.MirrorRequest{
		URL:         req.URL,
		OnlyHost:    req.OnlyHost,
		OnPageError: usecase.PageErrorPolicy(req.OnPageError),
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidSeed), errors.Is(err, usecase.ErrInvalidPolicy):
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, usecase.ErrRunInProgress):
			h.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error(), "run_id": runID})
		case errors.Is(err, usecase.ErrShuttingDown):
			h.writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		default:
			slog.Error("Failed to submit mirror run", "url", req.URL, "error", err)
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	resp := response.SubmitMirrorResponse{
		Status:  "success",
		Message: "URL submitted for mirroring",
		RunID:   runID,
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) HandleGetMirror(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.runManager.GetStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			h.writeJSONError(w, "Mirror run not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get mirror run", "run_id", id, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewMirrorRunResponse(run))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
