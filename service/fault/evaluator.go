package fault

import (
	"time"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/service/telemetry"
)

// Evaluator builds a fresh fault snapshot on every call. It keeps no state
// between calls: no dedup, no suppression.
type Evaluator struct {
	sources []Source
}

func NewEvaluator(sources ...Source) *Evaluator {
	return &Evaluator{
		sources: sources,
	}
}

// NewDefaultEvaluator checks camera, then battery, then the simulated motor.
func NewDefaultEvaluator() *Evaluator {
	return NewEvaluator(CameraSource(), BatterySource(), SimulatedMotorSource())
}

// Evaluate returns records in source order; the slice is never nil.
func (e *Evaluator) Evaluate(device DeviceState, battery telemetry.BatteryState, now time.Time) []model.FaultRecord {
	in := Input{
		Device:  device,
		Battery: battery,
		Now:     now,
	}

	faults := []model.FaultRecord{}
	for _, src := range e.sources {
		faults = append(faults, src.Check(in)...)
	}
	return faults
}
