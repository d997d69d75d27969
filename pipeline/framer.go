package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/service/camera"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

// framer is the single producer loop. It advances the battery, reads the
// camera and routes frames to the streamers. Sends never block: a busy
// streamer misses the frame, so a hung detector cannot starve the video feed.
func framer(canxCtx context.Context, svcs ServicesFactory, engine *Engine, errorStream chan interface{}, statsStream chan interface{}, streamChannels []chan FrameData) {
	go func() {
		var startTime = time.Now().Unix()
		var frames = 0
		var dropped = 0
		var errors = 0
		var failing = false

		defer func() {
			uptime := time.Now().Unix() - startTime
			fps := 0
			if uptime > 0 {
				fps = int(float64(frames) / float64(uptime))
			}
			statsStream <- model.FramerStats{
				Name:    "framer",
				Camera:  svcs.CameraSvc.Name(),
				Frames:  frames,
				Dropped: dropped,
				Errors:  errors,
				Uptime:  uptime,
				FPS:     fps,
			}
		}()

		ticker := time.NewTicker(time.Duration(svcs.CfgSvc.GetFrameInterval()) * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-canxCtx.Done():
				lgr.Logger.Info(
					"framer context cancelled",
				)
				return

			case <-ticker.C:
				data, err := nextFrame(svcs, engine, time.Now())
				if err != nil {
					errors++
					svcs.MetricsSvc.CameraError()
					// report only the first failure of a streak
					if !failing {
						failing = true
						select {
						case <-canxCtx.Done():
							return
						case errorStream <- model.GenError("framer",
							err,
							map[string]interface{}{"camera": svcs.CameraSvc.Name()},
							"error reading frame"):
						}
					}
				} else if data.Kind == FrameLive {
					if failing {
						lgr.Logger.Info("camera recovered", slog.String("camera", svcs.CameraSvc.Name()))
					}
					failing = false
					frames++
					svcs.MetricsSvc.FrameCaptured()
				}

				for _, streamChan := range streamChannels {
					// WARNING: We need an extra check to make sure we don't send on c closed channel
					select {
					case <-canxCtx.Done():
						lgr.Logger.Info("framer context cancelled while sending!!")
						return
					case streamChan <- data:
					default:
						dropped++
						svcs.MetricsSvc.FrameDropped()
					}
				}
			}
		}
	}()
}

// nextFrame produces what the streamers see for one tick. On a camera error
// it still returns the error placeholder together with the error.
func nextFrame(svcs ServicesFactory, engine *Engine, now time.Time) (FrameData, error) {
	level := svcs.TelemetrySvc.Tick(now)
	svcs.MetricsSvc.SetBattery(level)

	if engine.Ledger.Status() != model.Active {
		return FrameData{
			Kind:  FrameStandby,
			Frame: camera.Frame{Image: RenderStandby(), Timestamp: now},
		}, nil
	}

	frame, err := svcs.CameraSvc.Read()
	if err != nil {
		return FrameData{
			Kind:  FrameCameraError,
			Frame: camera.Frame{Image: RenderCameraError(), Timestamp: now},
		}, err
	}

	return FrameData{
		Kind:  FrameLive,
		Frame: frame,
	}, nil
}
