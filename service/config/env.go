package config

import (
	"os"
	"strconv"
)

type envService struct {
	defaults IService
}

// NewEnv reads settings from the environment and falls back to the hardcoded defaults.
func NewEnv() IService {
	return &envService{
		defaults: NewHardCoded(),
	}
}

func (svc *envService) GetModeMaxShutdownTime() int {
	return getEnvAsInt("SHUTDOWN_TIME_S", svc.defaults.GetModeMaxShutdownTime())
}

func (svc *envService) GetPort() int {
	return getEnvAsInt("PORT", svc.defaults.GetPort())
}

func (svc *envService) GetLogLevel() string {
	return getEnv("LOG_LEVEL", svc.defaults.GetLogLevel())
}

func (svc *envService) GetLogFile() string {
	return getEnv("LOG_FILE", svc.defaults.GetLogFile())
}

func (svc *envService) GetDataFile() string {
	return getEnv("DB_PATH", svc.defaults.GetDataFile())
}

func (svc *envService) GetDetectionsLogFile() string {
	return getEnv("DETECTIONS_LOG", svc.defaults.GetDetectionsLogFile())
}

func (svc *envService) GetStatsPeriod() int {
	return getEnvAsInt("STATS_PERIOD_S", svc.defaults.GetStatsPeriod())
}

func (svc *envService) GetCameraSource() string {
	return getEnv("CAMERA_SOURCE", svc.defaults.GetCameraSource())
}

func (svc *envService) GetFrameInterval() int {
	return getEnvAsInt("FRAME_INTERVAL_MS", svc.defaults.GetFrameInterval())
}

func (svc *envService) GetStreamerMaxWorkers() int {
	return svc.defaults.GetStreamerMaxWorkers()
}

func (svc *envService) GetDetectorType() string {
	return getEnv("DETECTOR", svc.defaults.GetDetectorType())
}

func (svc *envService) GetDetectTimeout() int {
	return getEnvAsInt("DETECT_TIMEOUT_MS", svc.defaults.GetDetectTimeout())
}

func (svc *envService) GetDetectorParameters() DetectorParameters {
	params := svc.defaults.GetDetectorParameters()
	params.ModelPath = getEnv("MODEL_PATH", params.ModelPath)
	params.LabelsPath = getEnv("LABELS_PATH", params.LabelsPath)
	params.ConfidenceThreshold = getEnvAsFloat32("CONFIDENCE_THRESHOLD", params.ConfidenceThreshold)
	params.Logging = getEnvAsBool("DETECTOR_LOGGING", params.Logging)
	params.LogFile = getEnv("DETECTOR_LOG_FILE", params.LogFile)
	return params
}

func (svc *envService) GetAdvisorURL() string {
	return getEnv("ADVISOR_URL", svc.defaults.GetAdvisorURL())
}

func (svc *envService) GetAdvisorModel() string {
	return getEnv("ADVISOR_MODEL", svc.defaults.GetAdvisorModel())
}

func (svc *envService) GetAdvisorTimeout() int {
	return getEnvAsInt("ADVISOR_TIMEOUT_S", svc.defaults.GetAdvisorTimeout())
}

func (svc *envService) GetBatterySource() string {
	return getEnv("BATTERY_SOURCE", svc.defaults.GetBatterySource())
}

func (svc *envService) GetBatterySensorPath() string {
	return getEnv("BATTERY_SENSOR_PATH", svc.defaults.GetBatterySensorPath())
}

func (svc *envService) GetTracingExporter() string {
	return getEnv("TRACING_EXPORTER", svc.defaults.GetTracingExporter())
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
