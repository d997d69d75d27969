package pipeline

import (
	"context"
	"time"

	"github.com/khaledhikmat/ecovision-go/service/advisor"
	"github.com/khaledhikmat/ecovision-go/service/camera"
	"github.com/khaledhikmat/ecovision-go/service/config"
	"github.com/khaledhikmat/ecovision-go/service/data"
	"github.com/khaledhikmat/ecovision-go/service/inference"
	"github.com/khaledhikmat/ecovision-go/service/metrics"
	"github.com/khaledhikmat/ecovision-go/service/telemetry"
)

type FrameKind int

const (
	FrameLive FrameKind = iota
	FrameStandby
	FrameCameraError
)

type FrameData struct {
	Kind  FrameKind
	Frame camera.Frame
}

type ServicesFactory struct {
	CfgSvc       config.IService
	DataSvc      data.IService
	CameraSvc    camera.IService
	InferenceSvc inference.IService
	AdvisorSvc   advisor.IService
	TelemetrySvc telemetry.IService
	MetricsSvc   metrics.IService
}

// Engine is the owned state handle threaded from main into the pipeline and the API.
type Engine struct {
	Ledger      *Ledger
	Tracker     *Tracker
	Analyzer    *Analyzer
	Broadcaster *Broadcaster
}

// NewEngine wires the core components. events may be nil.
func NewEngine(svcs ServicesFactory, events chan<- interface{}) *Engine {
	ledger := NewLedger(events)
	return &Engine{
		Ledger:      ledger,
		Tracker:     NewTracker(ledger, svcs.InferenceSvc, time.Duration(svcs.CfgSvc.GetDetectTimeout())*time.Millisecond),
		Analyzer:    NewAnalyzer(ledger, svcs.AdvisorSvc, svcs.MetricsSvc, events),
		Broadcaster: NewBroadcaster(),
	}
}

// Signature of streamer function
type Streamer func(canx context.Context, svcs ServicesFactory, engine *Engine, errorStream chan interface{}, statsStream chan interface{}) chan FrameData

// Signature of recorder function. The returned stream receives model.CountedItem
// and model.Analysis values and is never closed.
type Recorder func(canx context.Context, svcs ServicesFactory, errorStream chan interface{}, statsStream chan interface{}) chan interface{}
