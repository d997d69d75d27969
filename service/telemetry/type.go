package telemetry

import "time"

const (
	// BatteryInterval is the real-time spacing between two simulated drains.
	BatteryInterval = 5 * time.Second
	// BatteryStep is the level drained per interval, in percent.
	BatteryStep = 0.1

	maxLevel = 100.0
)

type BatteryState struct {
	Level    float64   `json:"level"`
	LastTick time.Time `json:"lastTick"`
}

// IService owns the battery state. Implementations are safe for concurrent use.
type IService interface {
	// Tick advances the state to now and returns the resulting level.
	Tick(now time.Time) float64
	Level() float64
	Snapshot() BatteryState
	// SetLevel is the external reset (docking, tests). It is the only way the level goes up.
	SetLevel(level float64, now time.Time)
}

func clamp(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > maxLevel {
		return maxLevel
	}
	return level
}
