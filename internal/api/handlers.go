package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"dispatch/internal/domain/shipment"
	"dispatch/internal/usecase"

	"github.com/go-chi/chi/v5"
)

const maxRequestBody = 1 << 20

type ShipmentSubmitter interface {
	Execute(ctx context.Context, params usecase.SubmitShipmentParams, rawRequest []byte) usecase.SubmitResult
}

type ShipmentFinder interface {
	Execute(ctx context.Context, shipmentID string) (*shipment.Record, error)
}

type Handlers struct {
	submitUC  ShipmentSubmitter
	getUC     ShipmentFinder
	validator *RequestValidator
	logger    *slog.Logger
}

func NewHandlers(submitUC ShipmentSubmitter, getUC ShipmentFinder, validator *RequestValidator, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		submitUC:  submitUC,
		getUC:     getUC,
		validator: validator,
		logger:    logger,
	}
}

type shipmentResponse struct {
	EventID string `json:"eventId"`
	Message string `json:"message"`
}

func (h *Handlers) SubmitShipment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if h.validator != nil {
		if err := h.validator.Validate(body); err != nil {
			var reqErr *RequestError
			if errors.As(err, &reqErr) {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error":   "validation failed",
					"details": reqErr.Details,
				})
				return
			}
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	var params usecase.SubmitShipmentParams
	if err := json.Unmarshal(body, &params); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	h.logger.Info("received shipment request",
		"shipment_id", params.ShipmentID, "attempt_number", params.AttemptNumber)

	res := h.submitUC.Execute(r.Context(), params, body)

	status := http.StatusAccepted
	if !res.Published {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, shipmentResponse{EventID: res.EventID, Message: res.Message})
}

func (h *Handlers) GetShipment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "shipmentId")
	if id == "" {
		http.Error(w, "missing shipment id", http.StatusBadRequest)
		return
	}

	rec, err := h.getUC.Execute(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load shipment", "shipment_id", id, "error", err)
		http.Error(w, "failed to load shipment", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	writeJSON(w, http.StatusOK, rec)
}

func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
