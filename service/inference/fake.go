package inference

import (
	"context"
	"sync"
	"time"

	"github.com/khaledhikmat/ecovision-go/service/camera"
)

// FakeService replays a fixed script of detection results, one entry per call,
// wrapping around at the end.
type FakeService struct {
	mu     sync.Mutex
	script [][]Detection
	next   int
	calls  int
	delay  time.Duration
	err    error
}

func NewFake(script ...[]Detection) *FakeService {
	return &FakeService{
		script: script,
	}
}

// WithDelay makes every call block for d or until the context is done.
func (svc *FakeService) WithDelay(d time.Duration) *FakeService {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.delay = d
	return svc
}

// WithError makes every call fail with err.
func (svc *FakeService) WithError(err error) *FakeService {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.err = err
	return svc
}

func (svc *FakeService) Detect(ctx context.Context, _ camera.Frame) ([]Detection, error) {
	svc.mu.Lock()
	svc.calls++
	delay := svc.delay
	err := svc.err
	var result []Detection
	if len(svc.script) > 0 {
		result = svc.script[svc.next%len(svc.script)]
		svc.next++
	}
	svc.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return nil, err
	}

	return result, nil
}

func (svc *FakeService) Calls() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.calls
}

func (svc *FakeService) Close() error {
	return nil
}
