package advisor

import (
	"context"
	"sync"
)

// FakeService answers with a canned reply. When Gate is set, every call blocks
// until the gate is closed or the context is done.
type FakeService struct {
	mu       sync.Mutex
	Reply    string
	Err      error
	Gate     chan struct{}
	subjects []string
}

func NewFake(reply string) *FakeService {
	return &FakeService{
		Reply: reply,
	}
}

func (svc *FakeService) Advise(ctx context.Context, subject string) (string, error) {
	svc.mu.Lock()
	svc.subjects = append(svc.subjects, subject)
	gate := svc.Gate
	reply, err := svc.Reply, svc.Err
	svc.mu.Unlock()

	if gate != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-gate:
		}
	}

	if err != nil {
		return "", err
	}
	return reply, nil
}

func (svc *FakeService) Subjects() []string {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]string{}, svc.subjects...)
}
