package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/service/advisor"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
	"github.com/khaledhikmat/ecovision-go/service/metrics"
)

const NothingToAnalyze = "No object detected to analyze."

// Analyzer is the on-demand path: it counts the current object directly and
// asks the advisor about it. It always returns text.
type Analyzer struct {
	ledger     *Ledger
	advisorSvc advisor.IService
	metricsSvc metrics.IService
	events     chan<- interface{}
	now        func() time.Time
}

func NewAnalyzer(ledger *Ledger, advisorSvc advisor.IService, metricsSvc metrics.IService, events chan<- interface{}) *Analyzer {
	return &Analyzer{
		ledger:     ledger,
		advisorSvc: advisorSvc,
		metricsSvc: metricsSvc,
		events:     events,
		now:        time.Now,
	}
}

// Analyze commits the count before the advisor is called and never rolls it
// back. The same object may already have been counted by the tracker.
func (a *Analyzer) Analyze(ctx context.Context) string {
	label := a.ledger.Detection().Label
	if label == "" {
		return NothingToAnalyze
	}

	now := a.now()
	category := CategoryOf(label)
	a.ledger.RecordDirect(category, label, now)
	if a.metricsSvc != nil {
		a.metricsSvc.ItemCounted(category, model.SourceAnalysis)
	}

	// no lock is held here
	start := time.Now()
	advice, err := a.advisorSvc.Advise(ctx, label)
	failed := err != nil
	if failed {
		lgr.Logger.Warn("advisor failed",
			slog.String("label", label),
			slog.Any("error", err),
		)
		advice = err.Error()
	}

	// best effort: a failure text rarely starts with "yes" so it lands in toxic
	recyclable := advisor.LooksRecyclable(advice)
	a.ledger.RecordOutcome(recyclable)

	if a.metricsSvc != nil {
		a.metricsSvc.AnalysisCompleted(recyclable, failed, time.Since(start))
	}

	a.emit(model.Analysis{
		ID:         uuid.NewString(),
		Label:      label,
		Category:   category,
		Advice:     advice,
		Recyclable: recyclable,
		Failed:     failed,
		Timestamp:  now,
	})

	return advice
}

// Chat forwards a free-text question to the advisor. Detection state is not touched.
func (a *Analyzer) Chat(ctx context.Context, message string) string {
	response, err := a.advisorSvc.Advise(ctx, message)
	if err != nil {
		lgr.Logger.Warn("advisor chat failed", slog.Any("error", err))
		return err.Error()
	}
	return response
}

func (a *Analyzer) emit(analysis model.Analysis) {
	if a.events == nil {
		return
	}

	select {
	case a.events <- analysis:
	default:
		lgr.Logger.Warn("events stream is full, dropping analysis",
			slog.String("id", analysis.ID),
		)
	}
}
