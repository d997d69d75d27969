package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/ecovision-go/mode"
	"github.com/khaledhikmat/ecovision-go/pipeline"
	"github.com/khaledhikmat/ecovision-go/service/advisor"
	"github.com/khaledhikmat/ecovision-go/service/camera"
	"github.com/khaledhikmat/ecovision-go/service/camera/webcam"
	"github.com/khaledhikmat/ecovision-go/service/config"
	"github.com/khaledhikmat/ecovision-go/service/data"
	"github.com/khaledhikmat/ecovision-go/service/inference"
	"github.com/khaledhikmat/ecovision-go/service/inference/yolo"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
	"github.com/khaledhikmat/ecovision-go/service/metrics"
	"github.com/khaledhikmat/ecovision-go/service/telemetry"
	"github.com/khaledhikmat/ecovision-go/service/tracing"
)

const (
	// WARNING: this has to be bigger that the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"server":   mode.Server,
	"headless": mode.Headless,
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		err := godotenv.Load()
		if err != nil {
			lgr.Logger.Warn("no .env file loaded", slog.Any("error", xerrors.New(err.Error())))
		}
	}

	// Config service
	cfgSvc := config.NewEnv()
	lgr.Init(cfgSvc.GetLogLevel(), cfgSvc.GetLogFile())

	shutdownTracing, err := tracing.Init(cfgSvc.GetTracingExporter(), os.Stdout)
	if err != nil {
		lgr.Logger.Error("error initializing tracing, spans are disabled", slog.Any("error", err))
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		flushCtx, flushFn := context.WithTimeout(rootCtx, 2*time.Second)
		defer flushFn()
		if err := shutdownTracing(flushCtx); err != nil {
			lgr.Logger.Warn("error flushing spans", slog.Any("error", err))
		}
	}()

	modeType := "server"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		panic("invalid mode")
	}

	// Create the services needed for the mode processor
	svcs := pipeline.ServicesFactory{
		CfgSvc:       cfgSvc,
		DataSvc:      newDataService(cfgSvc),
		CameraSvc:    newCameraService(cfgSvc),
		InferenceSvc: newInferenceService(cfgSvc),
		AdvisorSvc:   advisor.NewOllama(cfgSvc),
		TelemetrySvc: newTelemetryService(cfgSvc),
		MetricsSvc:   metrics.NewPrometheus(),
	}
	defer closeServices(svcs)

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs, pipeline.EventRecorder)
	}()

	// Wait for cancellation or mode proc
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"ecovision context cancelled",
			)
			goto resume

		case err := <-modeProcResult:
			if err != nil {
				lgr.Logger.Info(
					"ecovision mode processor exited",
					slog.Any("error", xerrors.New(err.Error())),
				)
			}
			goto resume
		}
	}

	// Wait in a non-blocking way for `waitOnShutdown` for all the go routines to exit
	// This is needed because the go routines may need to report errors as they are existing
resume:
	// Cancel the context if not already cancelled
	if canxCtx.Err() == nil {
		// Force cancel the context
		canxFn()
	}

	lgr.Logger.Info(
		"ecovision is waiting for all go routines to exit",
	)

	// The only way to exit the main function is to wait for the shutdown
	// duration or for the mode processor to finish
	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case <-timer.C:
		lgr.Logger.Info(
			"ecovision shutdown waiting period expired. Exiting now",
			slog.Duration("period", waitOnShutdown),
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Info(
				"ecovision mode processor exited",
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
	}
}

// newCameraService never fails: without a webcam the robot runs on a closed
// simulated source, which surfaces as a camera fault and a placeholder feed.
func newCameraService(cfgSvc config.IService) camera.IService {
	if cfgSvc.GetCameraSource() == "simulated" {
		return camera.NewSimulated()
	}

	cam, err := webcam.New(cfgSvc.GetCameraSource())
	if err != nil {
		lgr.Logger.Warn("camera not found, running without one",
			slog.String("source", cfgSvc.GetCameraSource()),
			slog.Any("error", err),
		)
		closed := camera.NewSimulated()
		closed.SetOpened(false)
		return closed
	}
	return cam
}

// newInferenceService falls back to a detector that never sees anything.
func newInferenceService(cfgSvc config.IService) inference.IService {
	if cfgSvc.GetDetectorType() != "yolo" {
		return inference.NewFake()
	}

	detector, err := yolo.New(cfgSvc.GetDetectorParameters())
	if err != nil {
		lgr.Logger.Error("error loading detection model, detection disabled",
			slog.Any("error", err),
		)
		return inference.NewFake()
	}
	return detector
}

func newTelemetryService(cfgSvc config.IService) telemetry.IService {
	if cfgSvc.GetBatterySource() == "hardware" {
		return telemetry.NewHardware(telemetry.FileSensor{Path: cfgSvc.GetBatterySensorPath()}, time.Now())
	}
	return telemetry.NewSimulated(time.Now())
}

func newDataService(cfgSvc config.IService) data.IService {
	dataSvc, err := data.NewSQLite(cfgSvc.GetDataFile())
	if err == nil {
		return dataSvc
	}

	lgr.Logger.Error("error opening data store, events will not survive a restart",
		slog.String("path", cfgSvc.GetDataFile()),
		slog.Any("error", err),
	)

	dataSvc, err = data.NewSQLite(":memory:")
	if err != nil {
		panic(err)
	}
	return dataSvc
}

func closeServices(svcs pipeline.ServicesFactory) {
	if err := svcs.CameraSvc.Close(); err != nil {
		lgr.Logger.Warn("error closing camera", slog.Any("error", err))
	}
	if err := svcs.InferenceSvc.Close(); err != nil {
		lgr.Logger.Warn("error closing detector", slog.Any("error", err))
	}
	if err := svcs.DataSvc.Close(); err != nil {
		lgr.Logger.Warn("error closing data store", slog.Any("error", err))
	}
}
