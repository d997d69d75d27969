package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

// DebounceInterval is the minimum spacing between two tracker counts.
const DebounceInterval = 2 * time.Second

type DetectionState struct {
	Label      string
	LastUpdate time.Time
}

// Snapshot is a consistent copy of the ledger taken under one lock.
type Snapshot struct {
	Stats    map[model.Category]int `json:"stats"`
	History  []int                  `json:"history"`
	Outcomes model.Outcomes         `json:"outcomes"`
	Status   model.RobotStatus      `json:"status"`
	Detected string                 `json:"detected"`
}

// Ledger owns detection state, category counters, the hourly histogram,
// outcome counters and robot status. One mutex guards all of them so the
// debounce check and the increment happen atomically.
type Ledger struct {
	mu            sync.Mutex
	detection     DetectionState
	stats         map[model.Category]int
	history       [24]int
	lastCountedAt time.Time
	outcomes      model.Outcomes
	status        model.RobotStatus

	// optional; counted items are offered without blocking
	events chan<- interface{}
}

func NewLedger(events chan<- interface{}) *Ledger {
	stats := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		stats[c] = 0
	}

	return &Ledger{
		stats:  stats,
		status: model.Active,
		events: events,
	}
}

// SetDetection overwrites the detection state wholesale. An empty label means nothing is in frame.
func (l *Ledger) SetDetection(label string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.detection = DetectionState{
		Label:      label,
		LastUpdate: now,
	}
}

func (l *Ledger) Detection() DetectionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.detection
}

// OnTick counts label at most once per DebounceInterval. It reports whether a count happened.
func (l *Ledger) OnTick(label string, now time.Time) bool {
	if label == "" {
		return false
	}

	category := CategoryOf(label)

	l.mu.Lock()
	if l.status != model.Active {
		l.mu.Unlock()
		return false
	}

	// the zero value means nothing was counted yet
	if !l.lastCountedAt.IsZero() && now.Sub(l.lastCountedAt) < DebounceInterval {
		l.mu.Unlock()
		return false
	}

	l.stats[category]++
	l.history[now.Hour()]++
	l.lastCountedAt = now
	l.mu.Unlock()

	l.emit(model.CountedItem{
		Label:     label,
		Category:  category,
		Source:    model.SourceTracker,
		Hour:      now.Hour(),
		Timestamp: now,
	})
	return true
}

// RecordDirect bypasses the debounce and leaves lastCountedAt alone.
func (l *Ledger) RecordDirect(category model.Category, label string, now time.Time) {
	l.mu.Lock()
	l.stats[category]++
	l.history[now.Hour()]++
	l.mu.Unlock()

	l.emit(model.CountedItem{
		Label:     label,
		Category:  category,
		Source:    model.SourceAnalysis,
		Hour:      now.Hour(),
		Timestamp: now,
	})
}

func (l *Ledger) RecordOutcome(recyclable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.outcomes.ItemsFound++
	if recyclable {
		l.outcomes.Recycled++
		return
	}
	l.outcomes.Toxic++
}

func (l *Ledger) Toggle() model.RobotStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.status == model.Active {
		l.status = model.Standby
	} else {
		l.status = model.Active
	}
	return l.status
}

func (l *Ledger) Status() model.RobotStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := make(map[model.Category]int, len(l.stats))
	for c, n := range l.stats {
		stats[c] = n
	}

	history := make([]int, len(l.history))
	copy(history, l.history[:])

	return Snapshot{
		Stats:    stats,
		History:  history,
		Outcomes: l.outcomes,
		Status:   l.status,
		Detected: l.detection.Label,
	}
}

func (l *Ledger) emit(item model.CountedItem) {
	if l.events == nil {
		return
	}

	select {
	case l.events <- item:
	default:
		lgr.Logger.Warn("events stream is full, dropping counted item",
			slog.String("label", item.Label),
			slog.String("category", string(item.Category)),
		)
	}
}
