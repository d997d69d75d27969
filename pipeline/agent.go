package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

// Agent runs the camera pipeline: it starts the streamers, then the framer
// that feeds them, and reports its uptime until the context is cancelled.
func Agent(canxCtx context.Context,
	svcs ServicesFactory,
	engine *Engine,
	errorStream chan interface{},
	statsStream chan interface{},
	streamers []Streamer) error {
	agentID := uuid.NewString()
	lgr.Logger.Info(
		"agent starting....",
		slog.String("agentID", agentID),
		slog.String("camera", svcs.CameraSvc.Name()),
		slog.Int("streamers", len(streamers)),
		slog.Int("frameIntervalMs", svcs.CfgSvc.GetFrameInterval()),
	)

	var agentStartTime = time.Now().Unix()
	agentStats := model.AgentStats{
		ID:     agentID,
		Camera: svcs.CameraSvc.Name(),
	}

	// Setup the stream channels
	streamChannels := []chan FrameData{}
	for _, streamer := range streamers {
		streamChannels = append(streamChannels, streamer(canxCtx, svcs, engine, errorStream, statsStream))
	}

	// Start the agent frame capturer
	framer(canxCtx, svcs, engine, errorStream, statsStream, streamChannels)

	ticker := time.NewTicker(time.Duration(svcs.CfgSvc.GetStatsPeriod()) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"agent context cancelled",
				slog.String("agentID", agentID),
			)
			return nil

		case <-ticker.C:
			agentStats.Uptime = time.Now().Unix() - agentStartTime

			select {
			case <-canxCtx.Done():
			case statsStream <- agentStats:
			}
		}
	}
}
