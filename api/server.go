package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/pipeline"
	"github.com/khaledhikmat/ecovision-go/service/fault"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

// Server is the dashboard's HTTP surface. It only reads snapshots and calls
// into the engine; it owns no state besides the websocket hub.
type Server struct {
	engine    *pipeline.Engine
	svcs      pipeline.ServicesFactory
	evaluator *fault.Evaluator
	hub       *Hub
	now       func() time.Time
}

func NewServer(engine *pipeline.Engine, svcs pipeline.ServicesFactory, evaluator *fault.Evaluator) *Server {
	return &Server{
		engine:    engine,
		svcs:      svcs,
		evaluator: evaluator,
		hub:       NewHub(),
		now:       time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/stats", s.getStats)
	mux.HandleFunc("GET /api/toggle", s.toggle)
	mux.HandleFunc("POST /api/analyze", s.analyze)
	mux.HandleFunc("POST /api/chat", s.chat)
	mux.HandleFunc("GET /api/faults", s.getFaults)
	mux.HandleFunc("GET /api/analytics", s.getAnalytics)
	mux.HandleFunc("POST /api/battery", s.setBattery)
	mux.HandleFunc("GET /api/events", s.getEvents)
	mux.HandleFunc("GET /api/analyses", s.getAnalyses)
	mux.HandleFunc("GET /video_feed", s.videoFeed)
	mux.HandleFunc("GET /ws/stats", s.hub.serveWS)
	mux.Handle("GET /metrics", s.svcs.MetricsSvc.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return logRequests(mux)
}

// Run drives the websocket hub and pushes the stats payload until ctx is done.
func (s *Server) Run(ctx context.Context) {
	go s.hub.Run(ctx)

	ticker := time.NewTicker(pushPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if s.hub.ClientCount() == 0 {
				continue
			}

			payload, err := json.Marshal(s.stats())
			if err != nil {
				lgr.Logger.Error("error marshaling stats", slog.Any("error", err))
				continue
			}
			s.hub.Broadcast(payload)
		}
	}
}

type statsResponse struct {
	Stats    map[model.Category]int `json:"stats"`
	Outcomes model.Outcomes         `json:"outcomes"`
	Status   model.RobotStatus      `json:"status"`
	Detected *string                `json:"detected"`
	Battery  float64                `json:"battery"`
}

func (s *Server) stats() statsResponse {
	snap := s.engine.Ledger.Snapshot()

	var detected *string
	if snap.Detected != "" {
		detected = &snap.Detected
	}

	return statsResponse{
		Stats:    snap.Stats,
		Outcomes: snap.Outcomes,
		Status:   snap.Status,
		Detected: detected,
		Battery:  roundBattery(s.svcs.TelemetrySvc.Level()),
	}
}

func roundBattery(level float64) float64 {
	return math.Round(level*10) / 10
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		lgr.Logger.Warn("error writing response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		lgr.Logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}
