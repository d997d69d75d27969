package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/ecovision-go/model"
)

func scrape(t *testing.T, svc IService) string {
	t.Helper()

	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCounters(t *testing.T) {
	svc := NewPrometheus()

	svc.FrameCaptured()
	svc.FrameCaptured()
	svc.FrameDropped()
	svc.DetectionCompleted(10*time.Millisecond, nil)
	svc.DetectionCompleted(10*time.Millisecond, errors.New("boom"))
	svc.ItemCounted(model.Plastic, model.SourceTracker)
	svc.ItemCounted(model.Plastic, model.SourceAnalysis)
	svc.ItemCounted(model.Plastic, model.SourceTracker)
	svc.SetBattery(97.5)
	svc.SetStatus(model.Standby)

	body := scrape(t, svc)
	assert.Contains(t, body, "ecovision_frames_total 2")
	assert.Contains(t, body, "ecovision_frames_dropped_total 1")
	assert.Contains(t, body, `ecovision_detections_total{result="error"} 1`)
	assert.Contains(t, body, `ecovision_detections_total{result="ok"} 1`)
	assert.Contains(t, body, `ecovision_counted_items_total{category="Plastic",source="tracker"} 2`)
	assert.Contains(t, body, `ecovision_counted_items_total{category="Plastic",source="analysis"} 1`)
	assert.Contains(t, body, "ecovision_battery_level_percent 97.5")
	assert.Contains(t, body, "ecovision_robot_active 0")
}

func TestAnalyses(t *testing.T) {
	svc := NewPrometheus()
	svc.AnalysisCompleted(true, false, time.Second)

	body := scrape(t, svc)
	assert.Contains(t, body, `ecovision_analyses_total{failed="false",recyclable="true"} 1`)
	assert.Contains(t, body, "ecovision_advise_duration_seconds_count 1")
	assert.Contains(t, body, "ecovision_robot_active 1")
}
