package inference

import (
	"context"

	"golang.org/x/xerrors"
)

// ErrBusy is returned while an abandoned inference is still running.
var ErrBusy = xerrors.New("detector busy with a previous frame")

// Inflight runs at most one blocking inference at a time and lets the caller
// stop waiting on it when ctx is done. The abandoned call keeps the slot
// until it returns, so timed out calls never pile up.
type Inflight struct {
	slot chan struct{}
}

func NewInflight() *Inflight {
	return &Inflight{
		slot: make(chan struct{}, 1),
	}
}

type result struct {
	detections []Detection
	err        error
}

func (f *Inflight) Run(ctx context.Context, fn func() ([]Detection, error)) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case f.slot <- struct{}{}:
	default:
		return nil, ErrBusy
	}

	done := make(chan result, 1)
	go func() {
		defer func() { <-f.slot }()
		detections, err := fn()
		done <- result{detections: detections, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.detections, r.err
	}
}

// Wait blocks until no inference is running and keeps the slot taken.
// It is meant for Close.
func (f *Inflight) Wait() {
	f.slot <- struct{}{}
}
