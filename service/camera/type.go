package camera

import (
	"errors"
	"image"
	"time"
)

var ErrClosed = errors.New("camera is closed")

type Frame struct {
	Image     image.Image
	Timestamp time.Time
}

// IService is the core's frame source.
type IService interface {
	Name() string
	Read() (Frame, error)
	// IsOpened reports whether the capture source is available.
	IsOpened() bool
	Close() error
}
