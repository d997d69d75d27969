package telemetry

import (
	"math"
	"sync"
	"time"
)

type simulatedService struct {
	mu    sync.Mutex
	state BatteryState
}

// NewSimulated starts a full battery whose first drain is due one interval after start.
func NewSimulated(start time.Time) IService {
	return &simulatedService{
		state: BatteryState{
			Level:    maxLevel,
			LastTick: start,
		},
	}
}

func (svc *simulatedService) Tick(now time.Time) float64 {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if now.Sub(svc.state.LastTick) >= BatteryInterval {
		svc.state.Level = quantize(clamp(svc.state.Level - BatteryStep))
		svc.state.LastTick = now
	}

	return svc.state.Level
}

func (svc *simulatedService) Level() float64 {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.state.Level
}

func (svc *simulatedService) Snapshot() BatteryState {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.state
}

func (svc *simulatedService) SetLevel(level float64, now time.Time) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.state.Level = quantize(clamp(level))
	svc.state.LastTick = now
}

// quantize keeps repeated 0.1 steps from drifting, so 100 - 30*0.1 is exactly 97.
func quantize(level float64) float64 {
	return math.Round(level*1e6) / 1e6
}
