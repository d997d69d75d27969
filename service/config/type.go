package config

type IService interface {
	GetModeMaxShutdownTime() int
	GetPort() int
	GetLogLevel() string
	GetLogFile() string
	GetDataFile() string
	GetDetectionsLogFile() string
	GetStatsPeriod() int

	GetCameraSource() string
	GetFrameInterval() int
	GetStreamerMaxWorkers() int

	GetDetectorType() string
	GetDetectTimeout() int
	GetDetectorParameters() DetectorParameters

	GetAdvisorURL() string
	GetAdvisorModel() string
	GetAdvisorTimeout() int

	GetBatterySource() string
	GetBatterySensorPath() string

	GetTracingExporter() string
}

type DetectorParameters struct {
	ModelPath           string
	LabelsPath          string
	ConfidenceThreshold float32
	Logging             bool
	LogFile             string
}
