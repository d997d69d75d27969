package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/ecovision-go/model"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

// Broadcaster keeps the latest encoded frame and fans it out to video feed
// subscribers. A slow subscriber only ever sees the newest frame.
type Broadcaster struct {
	mu     sync.RWMutex
	latest []byte
	subs   map[string]chan []byte
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: map[string]chan []byte{},
	}
}

func (b *Broadcaster) Subscribe() (string, <-chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, 1)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[id] = ch
	if b.latest != nil {
		ch <- b.latest
	}
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broadcaster) Latest() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest
}

func (b *Broadcaster) Publish(jpeg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest = jpeg
	for _, ch := range b.subs {
		// replace a frame the subscriber has not picked up yet
		select {
		case <-ch:
		default:
		}
		ch <- jpeg
	}
}

// Stream is the broadcaster's streamer: it renders the overlay and encodes every frame it gets.
func (b *Broadcaster) Stream(canx context.Context, svcs ServicesFactory, engine *Engine, errorStream chan interface{}, statsStream chan interface{}) chan FrameData {
	in := make(chan FrameData, 1)

	go func() {
		lgr.Logger.Info(
			"broadcaster initialized...",
			slog.String("camera", svcs.CameraSvc.Name()),
		)

		frames := 0
		errs := 0
		beginTime := time.Now().Unix()
		var totalProcTime time.Duration

		defer func() {
			uptime := time.Now().Unix() - beginTime
			fps := 0
			if uptime > 0 {
				fps = int(float64(frames) / float64(uptime))
			}

			var avgProcTime float64
			if frames > 0 {
				avgProcTime = totalProcTime.Seconds() / float64(frames)
			}

			statsStream <- model.StreamerStats{
				Name:        "broadcaster",
				Camera:      svcs.CameraSvc.Name(),
				Frames:      frames,
				Errors:      errs,
				Uptime:      uptime,
				FPS:         fps,
				AvgProcTime: avgProcTime,
			}
		}()

		for {
			select {
			case <-canx.Done():
				lgr.Logger.Info(
					"broadcaster context cancelled",
				)
				return

			case f := <-in:
				start := time.Now()
				err := b.broadcast(engine, f)
				totalProcTime += time.Since(start)
				frames++
				if err == nil {
					continue
				}

				errs++
				select {
				case <-canx.Done():
					return
				case errorStream <- model.GenError("broadcaster",
					err,
					map[string]interface{}{},
					"error encoding frame"):
				}
			}
		}
	}()

	return in
}

func (b *Broadcaster) broadcast(engine *Engine, f FrameData) error {
	img := f.Frame.Image
	if img == nil {
		return xerrors.New("empty frame")
	}

	if f.Kind == FrameLive {
		img = RenderOverlay(img, engine.Ledger.Detection().Label)
	}

	data, err := EncodeJPEG(img)
	if err != nil {
		return err
	}

	b.Publish(data)
	return nil
}
