package mode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/khaledhikmat/ecovision-go/api"
	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/pipeline"
	"github.com/khaledhikmat/ecovision-go/service/fault"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

// Server runs the camera pipeline and the dashboard API side by side and
// persists whatever they report on the error and stats streams.
func Server(canxCtx context.Context, svcs pipeline.ServicesFactory, recorder pipeline.Recorder) error {
	// The streams are never closed: exiting goroutines may still report on them
	errorStream := make(chan interface{})
	statsStream := make(chan interface{})

	events := recorder(canxCtx, svcs, errorStream, statsStream)
	engine := pipeline.NewEngine(svcs, events)
	apiServer := api.NewServer(engine, svcs, fault.NewDefaultEvaluator())

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", svcs.CfgSvc.GetPort()),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(canxCtx)

	group.Go(func() error {
		return pipeline.Agent(groupCtx, svcs, engine, errorStream, statsStream, []pipeline.Streamer{
			pipeline.Detector,
			engine.Broadcaster.Stream,
		})
	})

	group.Go(func() error {
		apiServer.Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		lgr.Logger.Info("dashboard api listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	groupResult := make(chan error, 1)
	go func() {
		groupResult <- group.Wait()
	}()

	var result error
	for {
		select {
		case result = <-groupResult:
			if result != nil {
				lgr.Logger.Error("server mode failed", slog.Any("error", result))
			}
			goto resume

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}

resume:
	lgr.Logger.Info(
		"server mode stopped",
		slog.Any("status", engine.Ledger.Status()),
		slog.Any("stats", engine.Ledger.Snapshot().Stats),
	)

	waitOnShutdown("server mode", svcs, errorStream, statsStream)
	if result != nil {
		return model.GenError("server_mode", result, map[string]interface{}{}, "server mode exited")
	}
	return nil
}
