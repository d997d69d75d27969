package mode

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/ecovision-go/pipeline"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

// Headless runs the camera pipeline without the HTTP surface and logs a
// snapshot of the counters every stats period. Useful on a robot with no
// dashboard attached.
func Headless(canxCtx context.Context, svcs pipeline.ServicesFactory, recorder pipeline.Recorder) error {
	// The streams are never closed: exiting goroutines may still report on them
	errorStream := make(chan interface{})
	statsStream := make(chan interface{})

	events := recorder(canxCtx, svcs, errorStream, statsStream)
	engine := pipeline.NewEngine(svcs, events)

	agentResult := make(chan error, 1)
	go func() {
		agentResult <- pipeline.Agent(canxCtx, svcs, engine, errorStream, statsStream, []pipeline.Streamer{
			pipeline.Detector,
		})
	}()

	ticker := time.NewTicker(time.Duration(svcs.CfgSvc.GetStatsPeriod()) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"headless mode context cancelled",
			)
			goto resume

		case err := <-agentResult:
			if err != nil {
				lgr.Logger.Error("agent exited", slog.Any("error", err))
			}
			goto resume

		case <-ticker.C:
			snap := engine.Ledger.Snapshot()
			lgr.Logger.Info(
				"headless snapshot",
				slog.Any("stats", snap.Stats),
				slog.Any("outcomes", snap.Outcomes),
				slog.String("detected", snap.Detected),
				slog.Float64("battery", svcs.TelemetrySvc.Level()),
			)

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}

	// Wait in a non-blocking way for all the go routines to exit
	// This is needed because the go routines may need to report errors as they are existing
resume:
	waitOnShutdown("headless mode", svcs, errorStream, statsStream)
	return nil
}
