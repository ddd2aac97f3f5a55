//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"

	"gocv.io/x/gocv"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

// YOLODetector детектор объектов на YOLOv8 ONNX. Держит пул сетей, поэтому
// безопасен для одновременных вызовов.
type YOLODetector struct {
	pool           chan *gocv.Net
	nets           []*gocv.Net
	inputSize      int
	scoreThreshold float64
	nmsThreshold   float64
}

// LoadYOLODetector загружает poolSize копий модели.
func LoadYOLODetector(modelPath string, poolSize int) (*YOLODetector, error) {
	if poolSize < 1 {
		poolSize = 1
	}
	d := &YOLODetector{
		pool:           make(chan *gocv.Net, poolSize),
		inputSize:      yoloInputSize,
		scoreThreshold: yoloScoreThreshold,
		nmsThreshold:   yoloNMSThreshold,
	}
	for i := 0; i < poolSize; i++ {
		net := gocv.ReadNetFromONNX(modelPath)
		if net.Empty() {
			_ = d.Close()
			return nil, errors.Newf("failed to load ONNX model %s", modelPath)
		}
		d.nets = append(d.nets, &net)
		d.pool <- &net
	}
	return d, nil
}

// Detect прогоняет изображение через сеть и возвращает объекты после NMS.
func (d *YOLODetector) Detect(ctx context.Context, imagePath string) ([]entity.Detection, error) {
	var net *gocv.Net
	select {
	case net = <-d.pool:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { d.pool <- net }()

	img, err := readImage(imagePath)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(d.inputSize, d.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	net.SetInput(blob, "")
	out := net.Forward("")
	defer out.Close()

	sizes := out.Size()
	if len(sizes) != 3 {
		return nil, errors.Newf("unexpected detector output shape %v", sizes)
	}
	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "read detector output")
	}

	scaleX := float64(img.Cols()) / float64(d.inputSize)
	scaleY := float64(img.Rows()) / float64(d.inputSize)
	detections := DecodeYOLOOutput(data, sizes[1], sizes[2], d.scoreThreshold, scaleX, scaleY, img.Cols(), img.Rows())
	return NonMaxSuppression(detections, d.nmsThreshold), nil
}

// Close освобождает все сети пула.
func (d *YOLODetector) Close() error {
	for _, net := range d.nets {
		_ = net.Close()
	}
	d.nets = nil
	return nil
}

var _ port.ObjectDetector = (*YOLODetector)(nil)
