package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/blckassembly/brelth-AES/internal/physics"
	"github.com/blckassembly/brelth-AES/internal/sim"
	"github.com/blckassembly/brelth-AES/internal/storage/sqlite"
	"github.com/blckassembly/brelth-AES/pkg/logger"
)

// Handler contains the monitoring API handlers
type Handler struct {
	scheduler *sim.Scheduler
	storage   *sqlite.ReportStorage // nil when archival is disabled
	logger    *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(scheduler *sim.Scheduler, storage *sqlite.ReportStorage, log *logger.Logger) *Handler {
	return &Handler{
		scheduler: scheduler,
		storage:   storage,
		logger:    log.Named("api"),
	}
}

// FleetResponse is the response for the fleet listing endpoint
type FleetResponse struct {
	Timestamp time.Time              `json:"timestamp"`
	Count     int                    `json:"count"`
	Aircraft  []sim.AircraftSnapshot `json:"aircraft"`
}

// AircraftDetailResponse is the response for the single-aircraft endpoint
type AircraftDetailResponse struct {
	sim.AircraftSnapshot

	PressureHPA       float64      `json:"pressure_hpa"`
	MagneticVariation float64      `json:"magnetic_variation"`
	MagneticHeading   float64      `json:"magnetic_heading"`
	RecentReports     []sim.Report `json:"recent_reports,omitempty"`
}

// StatusResponse is the response for the status endpoint
type StatusResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Stats     sim.StatsSnapshot `json:"stats"`
}

// GetFleet returns the latest snapshot of every aircraft
func (h *Handler) GetFleet(w http.ResponseWriter, r *http.Request) {
	snapshot := h.scheduler.Snapshot()
	h.respondJSON(w, http.StatusOK, FleetResponse{
		Timestamp: time.Now().UTC(),
		Count:     len(snapshot),
		Aircraft:  snapshot,
	})
}

// GetAircraft returns one aircraft with derived atmospherics and, when the
// archive is enabled, its recent reports
func (h *Handler) GetAircraft(w http.ResponseWriter, r *http.Request) {
	icao := chi.URLParam(r, "icao")

	var found *sim.AircraftSnapshot
	for _, a := range h.scheduler.Snapshot() {
		if a.ICAOAddress == icao {
			found = &a
			break
		}
	}
	if found == nil {
		h.respondError(w, http.StatusNotFound, "aircraft not found")
		return
	}

	now := time.Now().UTC()
	detail := AircraftDetailResponse{
		AircraftSnapshot:  *found,
		PressureHPA:       physics.AltitudeToPressure(found.Altitude),
		MagneticVariation: physics.MagneticVariation(found.Latitude, found.Longitude, found.Altitude, now),
		MagneticHeading:   physics.MagneticHeading(found.Heading, found.Latitude, found.Longitude, found.Altitude, now),
	}

	if h.storage != nil {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		reports, err := h.storage.RecentReports(icao, limit)
		if err != nil {
			h.logger.Error("Failed to load recent reports", logger.Error(err), logger.String("icao", icao))
		} else {
			detail.RecentReports = reports
		}
	}

	h.respondJSON(w, http.StatusOK, detail)
}

// GetStatus returns the running simulation statistics
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, StatusResponse{
		Timestamp: time.Now().UTC(),
		Stats:     h.scheduler.Stats(),
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
