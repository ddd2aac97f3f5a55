//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"

	"gocv.io/x/gocv"

	"vehicle-intelligence/internal/errors"
)

// rearRect нижняя часть кадра, где находится выхлоп.
func (c *ExhaustClassifier) rearRect(width, height int) image.Rectangle {
	start := int(float64(height) * c.tuning.RearCropStart)
	return image.Rect(0, start, width, height)
}

func (c *ExhaustClassifier) measureFrame(ctx context.Context, framePath string) (exhaustMeasurement, error) {
	img, err := readImage(framePath)
	if err != nil {
		return exhaustMeasurement{}, err
	}
	defer img.Close()

	rect := c.rearRect(img.Cols(), img.Rows())
	if rect.Empty() {
		return exhaustMeasurement{}, errors.Newf("rear region of %s is empty", framePath)
	}
	rear := img.Region(rect)
	defer rear.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(rear, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, c.tuning.CannyLow, c.tuning.CannyHigh)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(9, 9), 2, 2, gocv.BorderDefault)

	circles := gocv.NewMat()
	defer circles.Close()
	gocv.HoughCirclesWithParams(blurred, &circles, gocv.HoughGradient,
		c.tuning.HoughDP, c.tuning.HoughMinDist, c.tuning.HoughParam1, c.tuning.HoughParam2,
		c.tuning.MinRadius, c.tuning.MaxRadius)

	return exhaustMeasurement{
		Circles:        circles.Cols(),
		EdgeComplexity: ratioOfMask(edges),
	}, nil
}

func (c *ExhaustClassifier) saveRearCrop(framePath, dst string) error {
	img, err := readImage(framePath)
	if err != nil {
		return err
	}
	defer img.Close()

	rear := img.Region(c.rearRect(img.Cols(), img.Rows()))
	defer rear.Close()
	if !gocv.IMWrite(dst, rear) {
		return errors.Newf("failed to write exhaust snapshot %s", dst)
	}
	return nil
}

// cropDashboard сохраняет верхне-среднюю область кадра.
func cropDashboard(framePath, dst string) error {
	img, err := readImage(framePath)
	if err != nil {
		return err
	}
	defer img.Close()

	w, h := float64(img.Cols()), float64(img.Rows())
	rect := image.Rect(int(w*dashboardLeft), int(h*dashboardTop), int(w*dashboardRight), int(h*dashboardBottom))
	if rect.Empty() {
		return errors.Newf("dashboard region of %s is empty", framePath)
	}
	region := img.Region(rect)
	defer region.Close()
	if !gocv.IMWrite(dst, region) {
		return errors.Newf("failed to write dashboard crop %s", dst)
	}
	return nil
}
