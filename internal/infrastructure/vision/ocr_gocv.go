//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"

	"gocv.io/x/gocv"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/errors"
)

// Variants возвращает PNG-варианты изображения в фиксированном порядке.
func (p *OCRPreprocessor) Variants(ctx context.Context, imagePath string) ([]entity.ImageVariant, error) {
	img, err := readImage(imagePath)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	clahe := gocv.NewCLAHEWithParams(p.clipLimit, image.Pt(8, 8))
	defer clahe.Close()

	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(gray, &equalized)

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.BilateralFilter(gray, &denoised, 9, 75, 75)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	upscaled := gocv.NewMat()
	defer upscaled.Close()
	gocv.Resize(gray, &upscaled, image.Pt(0, 0), p.upscale, p.upscale, gocv.InterpolationCubic)

	equalizedBinary := gocv.NewMat()
	defer equalizedBinary.Close()
	gocv.Threshold(equalized, &equalizedBinary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	upscaledEqualized := gocv.NewMat()
	defer upscaledEqualized.Close()
	clahe.Apply(upscaled, &upscaledEqualized)

	ordered := []struct {
		name string
		mat  gocv.Mat
	}{
		{"gray", gray},
		{"clahe", equalized},
		{"denoised", denoised},
		{"threshold", binary},
		{"upscaled", upscaled},
		{"clahe_threshold", equalizedBinary},
		{"upscaled_clahe", upscaledEqualized},
	}

	variants := make([]entity.ImageVariant, 0, len(ordered))
	for _, v := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := encodePNG(v.mat)
		if err != nil {
			return nil, errors.Wrapf(err, "variant %s", v.name)
		}
		variants = append(variants, entity.ImageVariant{Name: v.name, Data: data})
	}
	return variants, nil
}

// EstimateColor считает долю пикселей каждого цвета внутри region (или всего кадра).
func (HSVColorEstimator) EstimateColor(ctx context.Context, imagePath string, region *entity.VehicleRegion) (string, error) {
	img, err := readImage(imagePath)
	if err != nil {
		return entity.Unknown, err
	}
	defer img.Close()

	bounds := entity.FullFrame(img.Cols(), img.Rows())
	if region != nil {
		if clipped := region.Clip(img.Cols(), img.Rows()); !clipped.Empty() {
			bounds = clipped
		}
	}
	roi := img.Region(bounds.Rect())
	defer roi.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(roi, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()

	ratios := make(map[string]float64, len(ColorRanges))
	for _, r := range ColorRanges {
		lower := gocv.NewScalar(r.Lower[0], r.Lower[1], r.Lower[2], 0)
		upper := gocv.NewScalar(r.Upper[0], r.Upper[1], r.Upper[2], 0)
		gocv.InRangeWithScalar(hsv, lower, upper, &mask)
		ratios[r.Name] += ratioOfMask(mask)
	}
	return PickColor(ratios), nil
}
