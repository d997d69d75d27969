package camera

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"
)

const (
	simulatedWidth  = 640
	simulatedHeight = 480
)

type SimulatedService struct {
	mu     sync.Mutex
	opened bool
	frames int
}

// NewSimulated returns a synthetic 640x480 source, used when no webcam is attached.
func NewSimulated() *SimulatedService {
	return &SimulatedService{
		opened: true,
	}
}

func (svc *SimulatedService) Name() string {
	return "simulated"
}

func (svc *SimulatedService) Read() (Frame, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if !svc.opened {
		return Frame{}, ErrClosed
	}

	svc.frames++
	shade := uint8(svc.frames % 64)

	img := image.NewRGBA(image.Rect(0, 0, simulatedWidth, simulatedHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 20, G: 40 + shade, B: 30, A: 255}}, image.Point{}, draw.Src)

	return Frame{
		Image:     img,
		Timestamp: time.Now(),
	}, nil
}

func (svc *SimulatedService) IsOpened() bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.opened
}

// SetOpened simulates a cable pull or reconnect.
func (svc *SimulatedService) SetOpened(opened bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.opened = opened
}

func (svc *SimulatedService) Close() error {
	svc.SetOpened(false)
	return nil
}
