package telemetry

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

// Sensor reads a physical battery percentage.
type Sensor interface {
	Percentage() (float64, error)
}

type hardwareService struct {
	mu      sync.Mutex
	sensor  Sensor
	state   BatteryState
	failing bool
}

// NewHardware passes sensor readings through. A failed read keeps the last known level.
func NewHardware(sensor Sensor, start time.Time) IService {
	return &hardwareService{
		sensor: sensor,
		state: BatteryState{
			Level:    maxLevel,
			LastTick: start,
		},
	}
}

func (svc *hardwareService) Tick(now time.Time) float64 {
	level, err := svc.sensor.Percentage()

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err != nil {
		// log once per failure streak, Tick runs at frame rate
		if !svc.failing {
			lgr.Logger.Warn("hardware battery read failed",
				slog.Any("error", err),
			)
		}
		svc.failing = true
		return svc.state.Level
	}

	svc.failing = false

	svc.state.Level = clamp(level)
	svc.state.LastTick = now
	return svc.state.Level
}

func (svc *hardwareService) Level() float64 {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.state.Level
}

func (svc *hardwareService) Snapshot() BatteryState {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.state
}

// SetLevel is overwritten by the next sensor reading.
func (svc *hardwareService) SetLevel(level float64, now time.Time) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.state.Level = clamp(level)
	svc.state.LastTick = now
}

// FileSensor reads a sysfs style capacity file containing a percentage.
type FileSensor struct {
	Path string
}

func (s FileSensor) Percentage() (float64, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, xerrors.Errorf("error reading battery sensor %s: %w", s.Path, err)
	}

	level, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, xerrors.Errorf("error parsing battery sensor %s: %w", s.Path, err)
	}
	return level, nil
}
