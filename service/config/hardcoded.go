package config

type hardcodedService struct {
}

// NewHardCoded returns the built-in defaults. Tests and the env service build on it.
func NewHardCoded() IService {
	return &hardcodedService{}
}

func (svc *hardcodedService) GetModeMaxShutdownTime() int {
	return 5
}

func (svc *hardcodedService) GetPort() int {
	return 5000
}

func (svc *hardcodedService) GetLogLevel() string {
	return "info"
}

func (svc *hardcodedService) GetLogFile() string {
	// Empty means stderr only
	return ""
}

func (svc *hardcodedService) GetDataFile() string {
	return "./data/ecovision.db"
}

func (svc *hardcodedService) GetDetectionsLogFile() string {
	return "./logs/detections.log"
}

func (svc *hardcodedService) GetStatsPeriod() int {
	return 30
}

func (svc *hardcodedService) GetCameraSource() string {
	// Device index of the default webcam
	return "0"
}

func (svc *hardcodedService) GetFrameInterval() int {
	// ~15 FPS, in milliseconds
	return 66
}

func (svc *hardcodedService) GetStreamerMaxWorkers() int {
	// The detection streamer must stay at one worker so that
	// frames reach the tracker in capture order.
	return 1
}

func (svc *hardcodedService) GetDetectorType() string {
	return "yolo"
}

func (svc *hardcodedService) GetDetectTimeout() int {
	// Milliseconds
	return 2000
}

func (svc *hardcodedService) GetDetectorParameters() DetectorParameters {
	return DetectorParameters{
		ModelPath:           "./yolo/yolov8n.onnx",
		LabelsPath:          "./yolo/coco.names",
		ConfidenceThreshold: 0.5,
		Logging:             false,
		LogFile:             "./logs/yolo-detections.log",
	}
}

func (svc *hardcodedService) GetAdvisorURL() string {
	return "http://localhost:11434"
}

func (svc *hardcodedService) GetAdvisorModel() string {
	return "gpt-oss:120b-cloud"
}

func (svc *hardcodedService) GetAdvisorTimeout() int {
	// Seconds. Model round trips can be slow.
	return 60
}

func (svc *hardcodedService) GetBatterySource() string {
	return "simulated"
}

func (svc *hardcodedService) GetBatterySensorPath() string {
	return "/sys/class/power_supply/BAT0/capacity"
}

func (svc *hardcodedService) GetTracingExporter() string {
	// "off" or "stdout"
	return "off"
}
