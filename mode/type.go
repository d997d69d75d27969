package mode

import (
	"context"
	"log/slog"
	"time"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/pipeline"
	"github.com/khaledhikmat/ecovision-go/service/data"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

type Processor func(canxCtx context.Context,
	svcs pipeline.ServicesFactory,
	recorder pipeline.Recorder) error

func procStats(datasvc data.IService, stats interface{}) {
	switch stats := stats.(type) {
	case model.AgentStats:
		procAgentStats(datasvc, stats)
	case model.FramerStats:
		procFramerStats(datasvc, stats)
	case model.StreamerStats:
		procStreamerStats(datasvc, stats)
	default:
		lgr.Logger.Error(
			"unknown stats type",
			slog.Any("stats", stats),
		)
	}
}

func procAgentStats(datasvc data.IService, stats model.AgentStats) {
	err := datasvc.NewAgentStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store agent stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procFramerStats(datasvc data.IService, stats model.FramerStats) {
	err := datasvc.NewFramerStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store framer stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procStreamerStats(datasvc data.IService, stats model.StreamerStats) {
	err := datasvc.NewStreamerStats(stats)
	if err != nil {
		lgr.Logger.Error(
			"failed to store streamer stats",
			slog.Any("stats", stats),
			slog.Any("error", err),
		)
	}
}

func procError(datasvc data.IService, err interface{}) {
	lgr.Logger.Error(
		"pipeline error",
		slog.Any("error", err),
	)

	errTemp := datasvc.NewError(err)
	if errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}

// waitOnShutdown keeps draining the side streams for the configured shutdown
// period so exiting goroutines can still report.
func waitOnShutdown(name string, svcs pipeline.ServicesFactory, errorStream chan interface{}, statsStream chan interface{}) {
	lgr.Logger.Info(
		name + " is waiting for all go routines to exit",
	)

	timer := time.NewTimer(time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime()) * time.Second)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			lgr.Logger.Info(
				name+" shutdown waiting period expired. Exiting now",
				slog.Duration("period", time.Duration(svcs.CfgSvc.GetModeMaxShutdownTime())*time.Second),
			)
			return

		case s := <-statsStream:
			procStats(svcs.DataSvc, s)

		case e := <-errorStream:
			procError(svcs.DataSvc, e)
		}
	}
}
