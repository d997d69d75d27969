package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

// Detector feeds frames to the tracker and the debounced aggregator. Its
// inbound channel holds a single frame so the framer drops frames while a
// detection is in flight.
func Detector(canx context.Context, svcs ServicesFactory, engine *Engine, errorStream chan interface{}, statsStream chan interface{}) chan FrameData {
	in := make(chan FrameData, 1)

	go func() {
		lgr.Logger.Info(
			"detector initialized...",
			slog.String("camera", svcs.CameraSvc.Name()),
		)

		// Launch worker processes that compete on emptying/procesing frames
		for i := 0; i < svcs.CfgSvc.GetStreamerMaxWorkers(); i++ {
			go func(worker int) {
				frames := 0
				beginTime := time.Now().Unix()
				errs := 0

				var totalInferenceTime time.Duration // Track total processing time

				defer func() {
					uptime := time.Now().Unix() - beginTime
					fps := 0
					if uptime > 0 {
						fps = int(float64(frames) / float64(uptime))
					}

					// Calculate average processing time
					var avgProcTime float64
					if frames > 0 {
						avgProcTime = totalInferenceTime.Seconds() / float64(frames)
					}

					statsStream <- model.StreamerStats{
						Name:        "detector",
						Worker:      worker,
						Camera:      svcs.CameraSvc.Name(),
						Frames:      frames,
						Errors:      errs,
						Uptime:      uptime,
						FPS:         fps,
						AvgProcTime: avgProcTime,
					}
				}()

				for {
					select {
					case <-canx.Done():
						lgr.Logger.Info(
							"detector worker context cancelled",
							slog.Int("worker", worker),
						)
						return

					case f := <-in:
						startInference := time.Now()
						err := detect(canx, svcs, engine, f)
						frames++
						totalInferenceTime += time.Since(startInference) // Accumulate processing time
						if err == nil {
							continue
						}

						errs++
						select {
						case <-canx.Done():
							return
						case errorStream <- model.GenError("detector",
							err,
							map[string]interface{}{"worker": worker},
							"error processing frame"):
						}
					}
				}
			}(i)
		}
	}()

	return in
}

// detect runs one frame through the tracker and then the aggregator.
func detect(ctx context.Context, svcs ServicesFactory, engine *Engine, f FrameData) error {
	if f.Kind == FrameCameraError {
		return nil
	}

	start := time.Now()
	label, err := engine.Tracker.Observe(ctx, f.Frame)
	if f.Kind == FrameLive {
		svcs.MetricsSvc.DetectionCompleted(time.Since(start), err)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			svcs.MetricsSvc.DetectTimeout()
		}
		return err
	}

	if engine.Ledger.OnTick(label, f.Frame.Timestamp) {
		svcs.MetricsSvc.ItemCounted(CategoryOf(label), model.SourceTracker)
	}
	return nil
}
