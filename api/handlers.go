package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/service/fault"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	maxBody      = 1 << 16
	boundary     = "frame"
)

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats())
}

func (s *Server) toggle(w http.ResponseWriter, _ *http.Request) {
	status := s.engine.Ledger.Toggle()
	s.svcs.MetricsSvc.SetStatus(status)
	lgr.Logger.Info("robot status toggled", slog.String("status", string(status)))

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": status})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	advice := s.engine.Analyzer.Analyze(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"advice": advice})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid chat request")
		return
	}

	response := s.engine.Analyzer.Chat(r.Context(), req.Message)
	writeJSON(w, http.StatusOK, map[string]string{"response": response})
}

func (s *Server) getFaults(w http.ResponseWriter, _ *http.Request) {
	device := fault.DeviceState{
		Active:       s.engine.Ledger.Status() == model.Active,
		CameraOpened: s.svcs.CameraSvc.IsOpened(),
	}

	faults := s.evaluator.Evaluate(device, s.svcs.TelemetrySvc.Snapshot(), s.now())
	writeJSON(w, http.StatusOK, faults)
}

func (s *Server) getAnalytics(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Ledger.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":   snap.Stats,
		"history": snap.History,
	})
}

type batteryRequest struct {
	Level *float64 `json:"level"`
}

// setBattery is the external reset: docking, or forcing a level for a demo.
func (s *Server) setBattery(w http.ResponseWriter, r *http.Request) {
	var req batteryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil || req.Level == nil {
		writeError(w, http.StatusBadRequest, "invalid battery request")
		return
	}

	if *req.Level < 0 || *req.Level > 100 {
		writeError(w, http.StatusBadRequest, "battery level must be within [0,100]")
		return
	}

	s.svcs.TelemetrySvc.SetLevel(*req.Level, s.now())
	level := s.svcs.TelemetrySvc.Level()
	s.svcs.MetricsSvc.SetBattery(level)
	lgr.Logger.Info("battery level set", slog.Float64("level", level))

	writeJSON(w, http.StatusOK, map[string]float64{"battery": roundBattery(level)})
}

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := s.svcs.DataSvc.RetrieveCountedItems(limit)
	if err != nil {
		lgr.Logger.Error("error retrieving counted items", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "error retrieving events")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analyses, err := s.svcs.DataSvc.RetrieveAnalyses(limit)
	if err != nil {
		lgr.Logger.Error("error retrieving analyses", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "error retrieving analyses")
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, xerrors.Errorf("invalid limit %q", raw)
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, nil
}

// videoFeed streams JPEG frames as multipart/x-mixed-replace until the client goes away.
func (s *Server) videoFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	id, frames := s.engine.Broadcaster.Subscribe()
	defer s.engine.Broadcaster.Unsubscribe(id)

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return

		case jpeg := <-frames:
			if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, len(jpeg)); err != nil {
				return
			}
			if _, err := w.Write(jpeg); err != nil {
				return
			}
			if _, err := io.WriteString(w, "\r\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
