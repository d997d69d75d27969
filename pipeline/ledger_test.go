package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/ecovision-go/model"
)

var t0 = time.Date(2026, 10, 18, 9, 59, 59, 0, time.Local)

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func TestNewLedger(t *testing.T) {
	snap := NewLedger(nil).Snapshot()

	assert.Equal(t, model.Active, snap.Status)
	assert.Empty(t, snap.Detected)
	assert.Len(t, snap.History, 24)
	assert.Len(t, snap.Stats, len(model.Categories))
	for _, c := range model.Categories {
		assert.Zero(t, snap.Stats[c], c)
	}
}

func TestOnTickDebounce(t *testing.T) {
	l := NewLedger(nil)

	assert.True(t, l.OnTick("bottle", t0))
	assert.False(t, l.OnTick("bottle", t0.Add(500*time.Millisecond)))
	assert.False(t, l.OnTick("bottle", t0.Add(1900*time.Millisecond)))
	assert.Equal(t, 1, l.Snapshot().Stats[model.Plastic])

	assert.True(t, l.OnTick("bottle", t0.Add(2100*time.Millisecond)))
	assert.Equal(t, 2, l.Snapshot().Stats[model.Plastic])
}

func TestOnTickExactIntervalCounts(t *testing.T) {
	l := NewLedger(nil)

	require.True(t, l.OnTick("can", t0))
	assert.True(t, l.OnTick("can", t0.Add(DebounceInterval)))
	assert.Equal(t, 2, l.Snapshot().Stats[model.Metal])
}

func TestOnTickDebounceIsShared(t *testing.T) {
	l := NewLedger(nil)

	require.True(t, l.OnTick("bottle", t0))
	// a different object inside the window is not counted either
	assert.False(t, l.OnTick("book", t0.Add(time.Second)))

	snap := l.Snapshot()
	assert.Equal(t, 1, snap.Stats[model.Plastic])
	assert.Zero(t, snap.Stats[model.Paper])
}

func TestOnTickNone(t *testing.T) {
	l := NewLedger(nil)
	before := l.Snapshot()

	assert.False(t, l.OnTick("", t0))
	assert.Equal(t, before, l.Snapshot())

	// none does not consume the debounce window
	assert.True(t, l.OnTick("bottle", t0.Add(time.Millisecond)))
}

func TestOnTickUnknownLabelGoesToTrash(t *testing.T) {
	l := NewLedger(nil)

	require.True(t, l.OnTick("person", t0))
	assert.Equal(t, 1, l.Snapshot().Stats[model.Trash])
}

func TestOnTickHistogramHour(t *testing.T) {
	l := NewLedger(nil)

	require.True(t, l.OnTick("bottle", t0))
	require.True(t, l.OnTick("bottle", t0.Add(3*time.Second)))

	snap := l.Snapshot()
	assert.Equal(t, 1, snap.History[9])
	assert.Equal(t, 1, snap.History[10])
	assert.Equal(t, 2, sum(snap.History))
}

func TestHistogramAccumulatesAcrossDays(t *testing.T) {
	l := NewLedger(nil)

	require.True(t, l.OnTick("bottle", t0))
	require.True(t, l.OnTick("bottle", t0.Add(24*time.Hour)))
	assert.Equal(t, 2, l.Snapshot().History[9])
}

func TestRecordDirect(t *testing.T) {
	for _, category := range model.Categories {
		t.Run(string(category), func(t *testing.T) {
			l := NewLedger(nil)
			require.True(t, l.OnTick("bottle", t0))
			before := l.Snapshot()

			l.RecordDirect(category, "thing", t0.Add(100*time.Millisecond))

			after := l.Snapshot()
			for _, c := range model.Categories {
				want := before.Stats[c]
				if c == category {
					want++
				}
				assert.Equal(t, want, after.Stats[c], c)
			}
		})
	}
}

func TestRecordDirectKeepsDebounceWindow(t *testing.T) {
	l := NewLedger(nil)

	require.True(t, l.OnTick("bottle", t0))
	l.RecordDirect(model.Plastic, "bottle", t0.Add(1500*time.Millisecond))

	// the window still runs from the tracker count at t0
	assert.True(t, l.OnTick("bottle", t0.Add(2*time.Second)))
	assert.Equal(t, 3, l.Snapshot().Stats[model.Plastic])
}

func TestRecordOutcome(t *testing.T) {
	l := NewLedger(nil)

	l.RecordOutcome(true)
	l.RecordOutcome(false)
	l.RecordOutcome(false)

	assert.Equal(t, model.Outcomes{ItemsFound: 3, Recycled: 1, Toxic: 2}, l.Snapshot().Outcomes)
}

func TestToggle(t *testing.T) {
	l := NewLedger(nil)

	assert.Equal(t, model.Standby, l.Toggle())
	assert.Equal(t, model.Standby, l.Status())
	assert.Equal(t, model.Active, l.Toggle())
	assert.Equal(t, model.Active, l.Status())
}

func TestStandbyNeverCounts(t *testing.T) {
	l := NewLedger(nil)
	l.Toggle()
	before := l.Snapshot()

	for i := 0; i < 10; i++ {
		assert.False(t, l.OnTick("bottle", t0.Add(time.Duration(i)*3*time.Second)))
	}
	assert.Equal(t, before.Stats, l.Snapshot().Stats)
	assert.Equal(t, before.History, l.Snapshot().History)
}

func TestEventsAreEmitted(t *testing.T) {
	events := make(chan interface{}, 4)
	l := NewLedger(events)

	require.True(t, l.OnTick("bottle", t0))
	l.RecordDirect(model.Metal, "can", t0)

	first := (<-events).(model.CountedItem)
	assert.Equal(t, model.SourceTracker, first.Source)
	assert.Equal(t, model.Plastic, first.Category)
	assert.Equal(t, 9, first.Hour)

	second := (<-events).(model.CountedItem)
	assert.Equal(t, model.SourceAnalysis, second.Source)
	assert.Equal(t, "can", second.Label)
}

func TestFullEventsStreamDoesNotBlock(t *testing.T) {
	events := make(chan interface{})
	l := NewLedger(events)

	done := make(chan struct{})
	go func() {
		l.OnTick("bottle", t0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnTick blocked on the events stream")
	}
	assert.Equal(t, 1, l.Snapshot().Stats[model.Plastic])
}

func TestConcurrentTicksCountOnce(t *testing.T) {
	l := NewLedger(nil)

	var wg sync.WaitGroup
	counted := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counted <- l.OnTick("bottle", t0.Add(time.Duration(i)*time.Millisecond))
		}(i)
	}
	wg.Wait()
	close(counted)

	n := 0
	for ok := range counted {
		if ok {
			n++
		}
	}
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, l.Snapshot().Stats[model.Plastic])
}
