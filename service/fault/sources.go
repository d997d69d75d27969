package fault

import "github.com/khaledhikmat/ecovision-go/model"

const (
	lowBatteryLevel      = 20
	criticalBatteryLevel = 5
)

type cameraSource struct{}

// CameraSource reports a lost camera while the robot is active.
func CameraSource() Source {
	return cameraSource{}
}

func (cameraSource) Name() string {
	return "camera"
}

func (cameraSource) Check(in Input) []model.FaultRecord {
	if !in.Device.Active || in.Device.CameraOpened {
		return nil
	}
	return []model.FaultRecord{
		newRecord("Main Camera", "Camera Connection Lost", model.Critical, in.Now),
	}
}

type batterySource struct{}

func BatterySource() Source {
	return batterySource{}
}

func (batterySource) Name() string {
	return "battery"
}

func (batterySource) Check(in Input) []model.FaultRecord {
	level := in.Battery.Level
	if level >= lowBatteryLevel {
		return nil
	}

	severity := model.Warning
	if level < criticalBatteryLevel {
		severity = model.Critical
	}
	return []model.FaultRecord{
		newRecord("Battery Unit", "Low Battery Voltage", severity, in.Now),
	}
}

type simulatedMotorSource struct{}

// SimulatedMotorSource stands in for a real motor temperature sensor. It fires
// whenever the integer battery level ends in 7, which gives the dashboard a
// deterministic fault to display. Swap it for a real source on hardware.
func SimulatedMotorSource() Source {
	return simulatedMotorSource{}
}

func (simulatedMotorSource) Name() string {
	return "simulated-motor"
}

func (simulatedMotorSource) Check(in Input) []model.FaultRecord {
	if int(in.Battery.Level)%10 != 7 {
		return nil
	}
	return []model.FaultRecord{
		newRecord("Right Wheel Motor", "High Temperature Warning", model.Warning, in.Now),
	}
}
