package inference

import (
	"context"

	"github.com/khaledhikmat/ecovision-go/service/camera"
)

type Detection struct {
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

// IService returns detections ordered the way the model reports them. An empty
// result means nothing was detected and is not an error.
type IService interface {
	Detect(ctx context.Context, frame camera.Frame) ([]Detection, error)
	Close() error
}
