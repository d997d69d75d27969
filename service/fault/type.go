package fault

import (
	"time"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/service/telemetry"
)

const timestampLayout = "2006-01-02 15:04"

type DeviceState struct {
	// Active is the robot status; a Standby robot is not expected to see.
	Active       bool
	CameraOpened bool
}

type Input struct {
	Device  DeviceState
	Battery telemetry.BatteryState
	Now     time.Time
}

// Source inspects one part of the device. Sources must be pure functions of the input.
type Source interface {
	Name() string
	Check(in Input) []model.FaultRecord
}

func newRecord(component, issue string, severity model.Severity, now time.Time) model.FaultRecord {
	return model.FaultRecord{
		Component:  component,
		Issue:      issue,
		Severity:   severity,
		ObservedAt: now,
		Timestamp:  now.Format(timestampLayout),
	}
}
