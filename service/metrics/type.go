package metrics

import (
	"net/http"
	"time"

	"github.com/khaledhikmat/ecovision-go/model"
)

type IService interface {
	FrameCaptured()
	FrameDropped()
	CameraError()
	DetectionCompleted(elapsed time.Duration, err error)
	DetectTimeout()
	ItemCounted(category model.Category, source model.CountSource)
	AnalysisCompleted(recyclable, failed bool, elapsed time.Duration)
	SetBattery(level float64)
	SetStatus(status model.RobotStatus)

	Handler() http.Handler
}
