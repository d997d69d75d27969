package pipeline

import (
	"context"
	"time"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/service/camera"
	"github.com/khaledhikmat/ecovision-go/service/inference"
)

// Tracker keeps the ledger's detection state in step with the latest processed frame.
type Tracker struct {
	ledger   *Ledger
	detector inference.IService
	timeout  time.Duration
}

func NewTracker(ledger *Ledger, detector inference.IService, timeout time.Duration) *Tracker {
	return &Tracker{
		ledger:   ledger,
		detector: detector,
		timeout:  timeout,
	}
}

// Observe runs the detector on one frame and records the first detection,
// or none when the detector returns nothing. The first entry wins even if a
// later one has a higher confidence.
//
// In standby the detector is not called and the detection is cleared. When
// the detector fails or times out the previous state is kept and the error
// returned.
func (t *Tracker) Observe(ctx context.Context, frame camera.Frame) (string, error) {
	if t.ledger.Status() != model.Active {
		t.ledger.SetDetection("", frame.Timestamp)
		return "", nil
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	detections, err := t.detector.Detect(ctx, frame)
	if err != nil {
		return t.ledger.Detection().Label, xerrors.Errorf("error detecting objects: %w", err)
	}

	label := ""
	if len(detections) > 0 {
		label = detections[0].Label
	}

	t.ledger.SetDetection(label, frame.Timestamp)
	return label, nil
}
