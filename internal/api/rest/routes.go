package rest

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes wires the public API onto the router.
func SetupRoutes(router *mux.Router, h *Handler) {
	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware)

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	router.HandleFunc("/zones", h.CreateZone).Methods(http.MethodPost)
	router.HandleFunc("/zones", h.ListZones).Methods(http.MethodGet)
	router.HandleFunc("/zones/{slug}", h.GetZone).Methods(http.MethodGet)
	router.HandleFunc("/zones/{slug}", h.UpdateZone).Methods(http.MethodPatch)
	router.HandleFunc("/zones/{slug}", h.DeleteZone).Methods(http.MethodDelete)

	router.HandleFunc("/zones/{slug}/plants", h.CreatePlant).Methods(http.MethodPost)
	router.HandleFunc("/zones/{slug}/plants", h.ListPlants).Methods(http.MethodGet)
	router.HandleFunc("/plants/{id}", h.UpdatePlant).Methods(http.MethodPatch)
	router.HandleFunc("/plants/{id}", h.DeletePlant).Methods(http.MethodDelete)

	router.HandleFunc("/zones/{slug}/ingest", h.IngestZone).Methods(http.MethodPost)
	router.HandleFunc("/zones/{slug}/assess", h.AssessRisk).Methods(http.MethodPost)
	router.HandleFunc("/zones/{slug}/recommendations", h.RecommendActions).Methods(http.MethodPost)
	router.HandleFunc("/zones/{slug}/simulate", h.Simulate).Methods(http.MethodPost)
	router.HandleFunc("/zones/{slug}/simulate/economic", h.SimulateEconomic).Methods(http.MethodPost)

	router.HandleFunc("/catalog/actions", h.CatalogActions).Methods(http.MethodGet)
}
