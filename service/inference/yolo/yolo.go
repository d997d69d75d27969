package yolo

import (
	"context"
	"image"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/ecovision-go/service/camera"
	"github.com/khaledhikmat/ecovision-go/service/config"
	"github.com/khaledhikmat/ecovision-go/service/inference"
	"github.com/khaledhikmat/ecovision-go/service/lgr"
)

const (
	inputSize    = 640
	nmsThreshold = 0.45
)

type yoloService struct {
	// WARNING: net is not thread-safe!!! inflight serializes every use of it.
	inflight  *inference.Inflight
	net       gocv.Net
	labels    []string
	threshold float32
	detLog    *inference.DetectionLog
}

// New loads a YOLOv8 ONNX export and its class names.
func New(params config.DetectorParameters) (inference.IService, error) {
	if _, err := os.Stat(params.ModelPath); os.IsNotExist(err) {
		return nil, xerrors.Errorf("no yolo model exists at %s", params.ModelPath)
	}

	labels, err := loadLabels(params.LabelsPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNet(params.ModelPath, "")
	if net.Empty() {
		return nil, xerrors.Errorf("error reading yolo model %s", params.ModelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, xerrors.Errorf("error setting backend: %w", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, xerrors.Errorf("error setting target: %w", err)
	}

	lgr.Logger.Info("yolo detector loaded",
		slog.String("model", params.ModelPath),
		slog.Int("classes", len(labels)),
		slog.String("openCV", gocv.Version()),
	)

	svc := &yoloService{
		inflight:  inference.NewInflight(),
		net:       net,
		labels:    labels,
		threshold: params.ConfidenceThreshold,
	}
	if params.Logging {
		svc.detLog = inference.NewDetectionLog(params.LogFile)
	}
	return svc, nil
}

// Detect stops waiting when ctx is done. The forward pass cannot be
// interrupted, so it finishes in the background and the next call gets
// inference.ErrBusy until it does.
func (svc *yoloService) Detect(ctx context.Context, frame camera.Frame) ([]inference.Detection, error) {
	if frame.Image == nil {
		return nil, xerrors.New("empty frame")
	}

	return svc.inflight.Run(ctx, func() ([]inference.Detection, error) {
		return svc.infer(frame)
	})
}

func (svc *yoloService) infer(frame camera.Frame) ([]inference.Detection, error) {
	mat, err := gocv.ImageToMatRGB(frame.Image)
	if err != nil {
		return nil, xerrors.Errorf("error converting frame: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(inputSize, inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	svc.net.SetInput(blob, "")
	output := svc.net.Forward("")
	defer output.Close()

	// YOLOv8 output is [1, 4+classes, anchors]
	dims := output.Size()
	if len(dims) != 3 || dims[1] != 4+len(svc.labels) {
		return nil, xerrors.Errorf("unexpected DNN output dims: %v", dims)
	}

	reshaped := output.Reshape(1, dims[1])
	defer reshaped.Close()

	rows := gocv.NewMat()
	defer rows.Close()
	gocv.Transpose(reshaped, &rows)

	xFactor := float32(mat.Cols()) / inputSize
	yFactor := float32(mat.Rows()) / inputSize

	var boxes []image.Rectangle
	var scores []float32
	var classes []int
	for i := 0; i < rows.Rows(); i++ {
		row := rows.RowRange(i, i+1)
		data, dataErr := row.DataPtrFloat32()
		if dataErr != nil || len(data) < 4+len(svc.labels) {
			row.Close()
			continue
		}

		classID, score := -1, float32(0)
		for j, s := range data[4:] {
			if s > score {
				score = s
				classID = j
			}
		}

		if classID >= 0 && score >= svc.threshold {
			cx, cy, w, h := data[0]*xFactor, data[1]*yFactor, data[2]*xFactor, data[3]*yFactor
			x := int(cx - w/2)
			y := int(cy - h/2)
			boxes = append(boxes, image.Rect(x, y, x+int(w), y+int(h)))
			scores = append(scores, score)
			classes = append(classes, classID)
		}
		row.Close()
	}

	if len(boxes) == 0 {
		return []inference.Detection{}, nil
	}

	indices := gocv.NMSBoxes(boxes, scores, svc.threshold, nmsThreshold)
	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})

	detections := make([]inference.Detection, 0, len(indices))
	for _, idx := range indices {
		detections = append(detections, inference.Detection{
			Label:      svc.labels[classes[idx]],
			Confidence: scores[idx],
		})
	}

	if svc.detLog != nil {
		svc.detLog.Write(detections, frame.Timestamp)
	}

	return detections, nil
}

func (svc *yoloService) Close() error {
	svc.inflight.Wait()

	if svc.detLog != nil {
		if err := svc.detLog.Close(); err != nil {
			lgr.Logger.Warn("error closing detection log", slog.Any("error", err))
		}
	}
	return svc.net.Close()
}

func loadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("error reading labels %s: %w", path, err)
	}

	labels := strings.Split(strings.TrimSpace(string(data)), "\n")
	for i := range labels {
		labels[i] = strings.TrimSpace(labels[i])
	}
	return labels, nil
}
