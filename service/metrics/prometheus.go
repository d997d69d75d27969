package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khaledhikmat/ecovision-go/model"
)

const namespace = "ecovision"

type prometheusService struct {
	registry *prometheus.Registry

	frames         prometheus.Counter
	droppedFrames  prometheus.Counter
	cameraErrors   prometheus.Counter
	detections     *prometheus.CounterVec
	detectDuration prometheus.Histogram
	detectTimeouts prometheus.Counter
	countedItems   *prometheus.CounterVec
	analyses       *prometheus.CounterVec
	adviseDuration prometheus.Histogram
	battery        prometheus.Gauge
	active         prometheus.Gauge
}

// NewPrometheus builds a private registry so tests can create as many services as they like.
func NewPrometheus() IService {
	svc := &prometheusService{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames read from the camera.",
		}),
		droppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Frames not handed to the detector because it was busy.",
		}),
		cameraErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "camera_errors_total",
			Help:      "Failed camera reads.",
		}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Detector invocations by result.",
		}, []string{"result"}),
		detectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detect_duration_seconds",
			Help:      "Detector latency.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		detectTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detect_timeouts_total",
			Help:      "Detector calls abandoned after the timeout.",
		}),
		countedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counted_items_total",
			Help:      "Category counter increments.",
		}, []string{"category", "source"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "On-demand analyses by outcome.",
		}, []string{"recyclable", "failed"}),
		adviseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "advise_duration_seconds",
			Help:      "Advisor round trip latency.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		battery: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_level_percent",
			Help:      "Current battery level.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "robot_active",
			Help:      "1 when the robot is active, 0 in standby.",
		}),
	}

	svc.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		svc.frames,
		svc.droppedFrames,
		svc.cameraErrors,
		svc.detections,
		svc.detectDuration,
		svc.detectTimeouts,
		svc.countedItems,
		svc.analyses,
		svc.adviseDuration,
		svc.battery,
		svc.active,
	)

	svc.active.Set(1)
	return svc
}

func (svc *prometheusService) FrameCaptured() {
	svc.frames.Inc()
}

func (svc *prometheusService) FrameDropped() {
	svc.droppedFrames.Inc()
}

func (svc *prometheusService) CameraError() {
	svc.cameraErrors.Inc()
}

func (svc *prometheusService) DetectionCompleted(elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	svc.detections.WithLabelValues(result).Inc()
	svc.detectDuration.Observe(elapsed.Seconds())
}

func (svc *prometheusService) DetectTimeout() {
	svc.detectTimeouts.Inc()
}

func (svc *prometheusService) ItemCounted(category model.Category, source model.CountSource) {
	svc.countedItems.WithLabelValues(string(category), string(source)).Inc()
}

func (svc *prometheusService) AnalysisCompleted(recyclable, failed bool, elapsed time.Duration) {
	svc.analyses.WithLabelValues(strconv.FormatBool(recyclable), strconv.FormatBool(failed)).Inc()
	svc.adviseDuration.Observe(elapsed.Seconds())
}

func (svc *prometheusService) SetBattery(level float64) {
	svc.battery.Set(level)
}

func (svc *prometheusService) SetStatus(status model.RobotStatus) {
	if status == model.Active {
		svc.active.Set(1)
		return
	}
	svc.active.Set(0)
}

func (svc *prometheusService) Handler() http.Handler {
	return promhttp.HandlerFor(svc.registry, promhttp.HandlerOpts{
		Registry: svc.registry,
	})
}
