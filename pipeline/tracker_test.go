package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/service/camera"
	"github.com/khaledhikmat/ecovision-go/service/inference"
)

func frameAt(ts time.Time) camera.Frame {
	return camera.Frame{Timestamp: ts}
}

func det(labels ...string) []inference.Detection {
	out := []inference.Detection{}
	for i, l := range labels {
		out = append(out, inference.Detection{Label: l, Confidence: 0.5 + float32(i)*0.1})
	}
	return out
}

func TestObserveFirstDetectionWins(t *testing.T) {
	l := NewLedger(nil)
	tr := NewTracker(l, inference.NewFake(det("cup", "bottle")), time.Second)

	label, err := tr.Observe(context.Background(), frameAt(t0))
	require.NoError(t, err)
	assert.Equal(t, "cup", label)
	assert.Equal(t, DetectionState{Label: "cup", LastUpdate: t0}, l.Detection())
}

func TestObserveEmptyClears(t *testing.T) {
	l := NewLedger(nil)
	tr := NewTracker(l, inference.NewFake(det("bottle"), det()), time.Second)

	label, err := tr.Observe(context.Background(), frameAt(t0))
	require.NoError(t, err)
	assert.Equal(t, "bottle", label)

	label, err = tr.Observe(context.Background(), frameAt(t0.Add(time.Second)))
	require.NoError(t, err)
	assert.Empty(t, label)
	assert.Empty(t, l.Detection().Label)
}

func TestObserveErrorKeepsState(t *testing.T) {
	l := NewLedger(nil)
	l.SetDetection("book", t0)
	tr := NewTracker(l, inference.NewFake().WithError(errors.New("model gone")), time.Second)

	label, err := tr.Observe(context.Background(), frameAt(t0.Add(time.Second)))
	assert.Error(t, err)
	assert.Equal(t, "book", label)
	assert.Equal(t, DetectionState{Label: "book", LastUpdate: t0}, l.Detection())
}

func TestObserveTimeout(t *testing.T) {
	l := NewLedger(nil)
	tr := NewTracker(l, inference.NewFake(det("bottle")).WithDelay(time.Minute), 20*time.Millisecond)

	start := time.Now()
	_, err := tr.Observe(context.Background(), frameAt(t0))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Empty(t, l.Detection().Label)
}

func TestObserveStandby(t *testing.T) {
	l := NewLedger(nil)
	detector := inference.NewFake(det("bottle"))
	tr := NewTracker(l, detector, time.Second)

	_, err := tr.Observe(context.Background(), frameAt(t0))
	require.NoError(t, err)
	require.Equal(t, model.Standby, l.Toggle())

	label, err := tr.Observe(context.Background(), frameAt(t0.Add(time.Second)))
	require.NoError(t, err)
	assert.Empty(t, label)
	assert.Empty(t, l.Detection().Label)
	assert.Equal(t, 1, detector.Calls())
}

func TestTrackerFeedsAggregator(t *testing.T) {
	l := NewLedger(nil)
	tr := NewTracker(l, inference.NewFake(det("bottle")), time.Second)

	for _, offset := range []time.Duration{0, time.Second, 3 * time.Second} {
		frame := frameAt(t0.Add(offset))
		label, err := tr.Observe(context.Background(), frame)
		require.NoError(t, err)
		l.OnTick(label, frame.Timestamp)
	}

	snap := l.Snapshot()
	assert.Equal(t, 2, snap.Stats[model.Plastic])
	assert.Equal(t, 2, snap.History[t0.Hour()]+snap.History[t0.Add(3*time.Second).Hour()])
	assert.Equal(t, 2, sum(snap.History))
}

func TestStandbyProcessingNeverCounts(t *testing.T) {
	l := NewLedger(nil)
	tr := NewTracker(l, inference.NewFake(det("bottle")), time.Second)
	l.Toggle()

	for i := 0; i < 5; i++ {
		frame := frameAt(t0.Add(time.Duration(i) * 3 * time.Second))
		label, err := tr.Observe(context.Background(), frame)
		require.NoError(t, err)
		l.OnTick(label, frame.Timestamp)
	}

	for _, c := range model.Categories {
		assert.Zero(t, l.Snapshot().Stats[c], c)
	}
}
