package inference

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/natefinch/lumberjack"

	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

// DetectionLog appends raw model output as JSON lines to a rotating file.
type DetectionLog struct {
	writer *lumberjack.Logger
}

type detectionEntry struct {
	Time       string      `json:"time"`
	Detections []Detection `json:"detections"`
}

func NewDetectionLog(path string) *DetectionLog {
	return &DetectionLog{
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     7,    // days
			Compress:   true, // compress old logs
		},
	}
}

func (l *DetectionLog) Write(detections []Detection, now time.Time) {
	if len(detections) == 0 {
		return
	}

	jsonData, err := json.Marshal(detectionEntry{
		Time:       now.Format(time.RFC3339),
		Detections: detections,
	})
	if err != nil {
		lgr.Logger.Error("error marshaling detections", slog.Any("error", err))
		return
	}

	if _, err := l.writer.Write(append(jsonData, '\n')); err != nil {
		lgr.Logger.Error("error writing detection log",
			slog.String("file", l.writer.Filename),
			slog.Any("error", err),
		)
	}
}

func (l *DetectionLog) Close() error {
	return l.writer.Close()
}
