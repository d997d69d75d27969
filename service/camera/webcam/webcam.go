package webcam

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/ecovision-go/service/camera"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

type webcamService struct {
	mu     sync.Mutex
	source string
	webcam *gocv.VideoCapture
	img    gocv.Mat
}

// New opens a capture device. source is either a device index ("0") or a stream URL.
func New(source string) (camera.IService, error) {
	var device interface{} = source
	if idx, err := strconv.Atoi(source); err == nil {
		device = idx
	}

	webcam, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, xerrors.Errorf("error opening capture source %s: %w", source, err)
	}

	if !webcam.IsOpened() {
		webcam.Close()
		return nil, xerrors.Errorf("capture source %s is not available", source)
	}

	lgr.Logger.Info("webcam opened",
		slog.String("source", source),
		slog.String("openCV", gocv.Version()),
	)

	return &webcamService{
		source: source,
		webcam: webcam,
		img:    gocv.NewMat(),
	}, nil
}

func (svc *webcamService) Name() string {
	return fmt.Sprintf("webcam:%s", svc.source)
}

func (svc *webcamService) Read() (camera.Frame, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.webcam == nil || !svc.webcam.IsOpened() {
		return camera.Frame{}, camera.ErrClosed
	}

	if ok := svc.webcam.Read(&svc.img); !ok || svc.img.Empty() {
		return camera.Frame{}, xerrors.New("failed to grab frame")
	}

	img, err := svc.img.ToImage()
	if err != nil {
		return camera.Frame{}, xerrors.Errorf("error converting frame: %w", err)
	}

	return camera.Frame{
		Image:     img,
		Timestamp: time.Now(),
	}, nil
}

func (svc *webcamService) IsOpened() bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.webcam != nil && svc.webcam.IsOpened()
}

func (svc *webcamService) Close() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.webcam == nil {
		return nil
	}

	svc.img.Close() // Crucial to close the image to avoid memory leaks
	err := svc.webcam.Close()
	svc.webcam = nil
	return err
}
