//go:build gocv
// +build gocv

package vision

import (
	"image/color"

	"gocv.io/x/gocv"

	"vehicle-intelligence/internal/errors"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// readImage читает цветное изображение с диска.
func readImage(path string) (gocv.Mat, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), errors.Newf("failed to read image %s", path)
	}
	return mat, nil
}

func ratioOfMask(mask gocv.Mat) float64 {
	total := mask.Cols() * mask.Rows()
	if total <= 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total)
}

// encodePNG кодирует изображение без потерь.
func encodePNG(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}
