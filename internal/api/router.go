package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/blckassembly/brelth-AES/internal/sim"
	"github.com/blckassembly/brelth-AES/internal/storage/sqlite"
	"github.com/blckassembly/brelth-AES/internal/websocket"
	"github.com/blckassembly/brelth-AES/pkg/logger"
)

// Router wires the monitoring API routes
type Router struct {
	handler  *Handler
	wsServer *websocket.Server
	logger   *logger.Logger
}

// NewRouter creates the API router over the scheduler, the optional report
// archive and the WebSocket feed server
func NewRouter(scheduler *sim.Scheduler, storage *sqlite.ReportStorage, wsServer *websocket.Server, log *logger.Logger) *Router {
	return &Router{
		handler:  NewHandler(scheduler, storage, log),
		wsServer: wsServer,
		logger:   log.Named("router"),
	}
}

// Routes returns the HTTP handler for the monitoring API
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/aircraft", rt.handler.GetFleet)
		r.Get("/aircraft/{icao}", rt.handler.GetAircraft)
		r.Get("/status", rt.handler.GetStatus)
	})

	r.Get("/ws", rt.wsServer.HandleConnection)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
