// Package rest exposes the public HTTP surface: zone and plant management,
// ingestion, risk assessment, recommendations, and the two simulators.
package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/droughtwatch/droughtwatch-backend/internal/catalog"
	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
	"github.com/droughtwatch/droughtwatch-backend/internal/service"
)

// Handler holds the service layer and adapts it to HTTP.
type Handler struct {
	svc    *service.DroughtService
	logger *slog.Logger
}

func NewHandler(svc *service.DroughtService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// decodeBody unmarshals a JSON request body into dst. An empty body is
// accepted and leaves dst at its zero value.
func decodeBody(r *http.Request, dst interface{}) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return apperr.Wrap(apperr.ErrInvalidInput, "rest.decodeBody", err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.Wrap(apperr.ErrInvalidInput, "rest.decodeBody", err)
	}
	return nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Zones ---

func (h *Handler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var zone models.Zone
	if err := decodeBody(r, &zone); err != nil {
		respondAppError(w, err)
		return
	}
	created, err := h.svc.CreateZone(r.Context(), &zone)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.svc.ListZones(r.Context())
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, zones)
}

func (h *Handler) GetZone(w http.ResponseWriter, r *http.Request) {
	zone, err := h.svc.GetZone(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, zone)
}

func (h *Handler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	var update models.Zone
	if err := decodeBody(r, &update); err != nil {
		respondAppError(w, err)
		return
	}
	zone, err := h.svc.UpdateZone(r.Context(), mux.Vars(r)["slug"], &update)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, zone)
}

func (h *Handler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteZone(r.Context(), mux.Vars(r)["slug"]); err != nil {
		respondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Plants ---

func (h *Handler) CreatePlant(w http.ResponseWriter, r *http.Request) {
	var plant models.PowerPlant
	if err := decodeBody(r, &plant); err != nil {
		respondAppError(w, err)
		return
	}
	created, err := h.svc.CreatePlant(r.Context(), mux.Vars(r)["slug"], &plant)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListPlants(w http.ResponseWriter, r *http.Request) {
	plants, err := h.svc.ListPlants(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plants)
}

func (h *Handler) UpdatePlant(w http.ResponseWriter, r *http.Request) {
	var update models.PowerPlant
	if err := decodeBody(r, &update); err != nil {
		respondAppError(w, err)
		return
	}
	plant, err := h.svc.UpdatePlant(r.Context(), mux.Vars(r)["id"], &update)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plant)
}

func (h *Handler) DeletePlant(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePlant(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Pipeline operations ---

type ingestRequest struct {
	Sources   []string `json:"sources"`
	ForceFull bool     `json:"force_full"`
}

func (h *Handler) IngestZone(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeBody(r, &req); err != nil {
		respondAppError(w, err)
		return
	}
	reports, err := h.svc.IngestZone(r.Context(), mux.Vars(r)["slug"], req.Sources, req.ForceFull)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

func (h *Handler) AssessRisk(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.svc.AssessRisk(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

type recommendRequest struct {
	Profile string `json:"profile"`
}

func (h *Handler) RecommendActions(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := decodeBody(r, &req); err != nil {
		respondAppError(w, err)
		return
	}
	result, err := h.svc.RecommendActions(r.Context(), mux.Vars(r)["slug"], req.Profile)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type simulateRequest struct {
	ActionInstanceIDs []string `json:"action_instance_ids"`
	ProjectionDays    int      `json:"projection_days"`
}

func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := decodeBody(r, &req); err != nil {
		respondAppError(w, err)
		return
	}
	delta, err := h.svc.Simulate(r.Context(), mux.Vars(r)["slug"], req.ActionInstanceIDs, req.ProjectionDays)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, delta)
}

type simulateEconomicRequest struct {
	PlantIDs          []string `json:"plant_ids"`
	ActionInstanceIDs []string `json:"action_instance_ids"`
	ProjectionDays    int      `json:"projection_days"`
}

func (h *Handler) SimulateEconomic(w http.ResponseWriter, r *http.Request) {
	var req simulateEconomicRequest
	if err := decodeBody(r, &req); err != nil {
		respondAppError(w, err)
		return
	}
	delta, err := h.svc.SimulateEconomic(r.Context(), mux.Vars(r)["slug"],
		req.PlantIDs, req.ActionInstanceIDs, req.ProjectionDays)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, delta)
}

// CatalogActions lists every action archetype with its parameter schema.
func (h *Handler) CatalogActions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"actions": catalog.All()})
}
