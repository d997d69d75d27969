package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/natefinch/lumberjack"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

// EventRecorder persists counted items and analyses to the data service and
// appends them as JSON lines to a rotating detections log.
func EventRecorder(canx context.Context, svcs ServicesFactory, errorStream chan interface{}, _ chan interface{}) chan interface{} {
	in := make(chan interface{}, 100)

	detectionsLog := &lumberjack.Logger{
		Filename:   svcs.CfgSvc.GetDetectionsLogFile(),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     7,    // days
		Compress:   true, // compress old logs
	}

	go func() {
		// The stream is shared with the ledger and is left open: producers never block on it.
		defer detectionsLog.Close()

		for {
			select {
			case <-canx.Done():
				lgr.Logger.Info(
					"recorder context cancelled",
				)
				return

			case event := <-in:
				if err := record(svcs, detectionsLog, event); err != nil {
					select {
					case <-canx.Done():
						return
					case errorStream <- model.GenError("recorder",
						err,
						map[string]interface{}{"event": event},
						"error recording event"):
					}
				}
			}
		}
	}()

	return in
}

type logEntry struct {
	Time  string      `json:"time"`
	Kind  string      `json:"kind"`
	Event interface{} `json:"event"`
}

func record(svcs ServicesFactory, detectionsLog *lumberjack.Logger, event interface{}) error {
	var kind string
	var err error

	switch e := event.(type) {
	case model.CountedItem:
		kind = "counted"
		lgr.Logger.Info(
			"item counted",
			slog.String("label", e.Label),
			slog.String("category", string(e.Category)),
			slog.String("source", string(e.Source)),
		)
		err = svcs.DataSvc.NewCountedItem(e)

	case model.Analysis:
		kind = "analysis"
		lgr.Logger.Info(
			"object analyzed",
			slog.String("id", e.ID),
			slog.String("label", e.Label),
			slog.Bool("recyclable", e.Recyclable),
			slog.Bool("failed", e.Failed),
		)
		err = svcs.DataSvc.NewAnalysis(e)

	default:
		lgr.Logger.Error(
			"unknown event type",
			slog.Any("event", event),
		)
		return nil
	}

	if err != nil {
		return err
	}

	line, err := json.Marshal(logEntry{
		Time:  time.Now().Format(time.RFC3339),
		Kind:  kind,
		Event: event,
	})
	if err != nil {
		return err
	}

	_, err = detectionsLog.Write(append(line, '\n'))
	return err
}
