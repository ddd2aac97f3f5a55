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

// Два перекрывающихся диапазона оранжево-коричневых оттенков ржавчины в HSV.
var rustRanges = [2][2]gocv.Scalar{
	{gocv.NewScalar(5, 80, 50, 0), gocv.NewScalar(20, 255, 200, 0)},
	{gocv.NewScalar(10, 100, 100, 0), gocv.NewScalar(25, 255, 255, 0)},
}

// analyzeFrame выполняет три прохода внутри области кузова.
func (e *DamageEngine) analyzeFrame(ctx context.Context, framePath string, region *entity.VehicleRegion) (frameAnalysis, error) {
	img, err := readImage(framePath)
	if err != nil {
		return frameAnalysis{}, err
	}
	defer img.Close()

	w, h := img.Cols(), img.Rows()
	bounds := entity.FullFrame(w, h)
	if region != nil {
		if clipped := region.Clip(w, h); !clipped.Empty() {
			bounds = clipped
		}
	}

	roi := img.Region(bounds.Rect())
	defer roi.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(roi, &gray, gocv.ColorBGRToGray)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(roi, &hsv, gocv.ColorBGRToHSV)

	candidates := e.scratches(gray)
	if err := ctx.Err(); err != nil {
		return frameAnalysis{}, err
	}
	candidates = append(candidates, e.rust(hsv)...)
	if err := ctx.Err(); err != nil {
		return frameAnalysis{}, err
	}
	candidates = append(candidates, e.dents(gray)...)

	for i := range candidates {
		candidates[i].BBox = candidates[i].BBox.Translate(bounds.X1, bounds.Y1)
	}
	return frameAnalysis{Width: w, Height: h, Candidates: candidates}, nil
}

// scratches ищет вытянутые контуры по границам Canny с порогами от медианы яркости.
func (e *DamageEngine) scratches(gray gocv.Mat) []entity.DamageLocation {
	t := e.tuning.Scratch

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	lower, upper := CannyThresholds(MedianIntensity(blurred.ToBytes()), t.CannySigma)
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, lower, upper)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(edges, &dilated, kernel)

	contours := gocv.FindContours(dilated, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	mask := gocv.Zeros(gray.Rows(), gray.Cols(), gocv.MatTypeCV8U)
	defer mask.Close()
	inverted := gocv.NewMat()
	defer inverted.Close()
	ring := gocv.NewMat()
	defer ring.Close()

	var found []entity.DamageLocation
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area < t.MinArea || area > t.MaxArea {
			continue
		}
		rect := gocv.BoundingRect(c)
		if AspectRatio(rect.Dx(), rect.Dy()) < t.MinAspect {
			continue
		}

		mask.SetTo(gocv.NewScalar(0, 0, 0, 0))
		gocv.DrawContours(&mask, contours, i, white, -1)
		interior := gray.MeanWithMask(mask).Val1

		// Кольцо вокруг контура: расширенный прямоугольник без самого контура.
		outer := entity.FromRect(rect).Pad(t.RingPadding, gray.Cols(), gray.Rows())
		ringMask := gocv.Zeros(gray.Rows(), gray.Cols(), gocv.MatTypeCV8U)
		gocv.Rectangle(&ringMask, outer.Rect(), white, -1)
		gocv.BitwiseNot(mask, &inverted)
		gocv.BitwiseAnd(ringMask, inverted, &ring)
		ringMask.Close()

		surrounding := interior
		if gocv.CountNonZero(ring) > 0 {
			surrounding = gray.MeanWithMask(ring).Val1
		}

		edgeRegion := edges.Region(rect)
		density := ratioOfMask(edgeRegion)
		edgeRegion.Close()

		confidence, ok := ScratchConfidence(interior, surrounding, density, t, t.MinEvidence)
		if !ok {
			continue
		}
		found = append(found, entity.DamageLocation{
			Type:       entity.DamageScratch,
			BBox:       entity.FromRect(rect),
			Confidence: confidence,
		})
	}
	return found
}

// rust сегментирует оранжево-коричневые оттенки и чистит маску морфологией.
func (e *DamageEngine) rust(hsv gocv.Mat) []entity.DamageLocation {
	t := e.tuning.Rust

	merged := gocv.Zeros(hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8U)
	defer merged.Close()
	part := gocv.NewMat()
	defer part.Close()
	for _, r := range rustRanges {
		gocv.InRangeWithScalar(hsv, r[0], r[1], &part)
		gocv.BitwiseOr(merged, part, &merged)
	}

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(t.KernelSize, t.KernelSize))
	defer kernel.Close()
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(merged, &closed, gocv.MorphClose, kernel)
	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(closed, &opened, gocv.MorphOpen, kernel)

	contours := gocv.FindContours(opened, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	mask := gocv.Zeros(hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8U)
	defer mask.Close()

	var found []entity.DamageLocation
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area <= t.MinArea {
			continue
		}

		mask.SetTo(gocv.NewScalar(0, 0, 0, 0))
		gocv.DrawContours(&mask, contours, i, white, -1)
		mean := hsv.MeanWithMask(mask)

		confidence := RustConfidence(mean.Val2, mean.Val3, area, t)
		found = append(found, entity.DamageLocation{
			Type:       entity.DamageRust,
			BBox:       entity.FromRect(gocv.BoundingRect(c)),
			Confidence: confidence,
		})
	}
	return found
}

// dents ищет округлые области сильного отклика Лапласиана от размытого кадра.
func (e *DamageEngine) dents(gray gocv.Mat) []entity.DamageLocation {
	t := e.tuning.Dent

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(t.BlurKernel, t.BlurKernel), t.BlurSigma, t.BlurSigma, gocv.BorderDefault)

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(blurred, &lap, gocv.MatTypeCV64F, 3, 1, 0, gocv.BorderDefault)

	normalized := gocv.NewMat()
	defer normalized.Close()
	gocv.Normalize(lap, &normalized, 0, 255, gocv.NormMinMax)

	response := gocv.NewMat()
	defer response.Close()
	normalized.ConvertTo(&response, gocv.MatTypeCV8U)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(response, &binary, float32(t.Threshold), 255, gocv.ThresholdBinary)

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(t.KernelSize, t.KernelSize))
	defer kernel.Close()
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(binary, &closed, gocv.MorphClose, kernel)

	contours := gocv.FindContours(closed, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	outline := gocv.Zeros(gray.Rows(), gray.Cols(), gocv.MatTypeCV8U)
	defer outline.Close()

	var found []entity.DamageLocation
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area < t.MinArea || area > t.MaxArea {
			continue
		}
		circularity := Circularity(area, gocv.ArcLength(c, true))
		if circularity <= t.MinCircularity {
			continue
		}
		rect := gocv.BoundingRect(c)

		cx, cy := rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2
		core := image.Rect(cx-rect.Dx()/4, cy-rect.Dy()/4, cx+rect.Dx()/4+1, cy+rect.Dy()/4+1).
			Intersect(image.Rect(0, 0, gray.Cols(), gray.Rows()))
		if core.Empty() {
			continue
		}
		coreMat := gray.Region(core)
		centerMean := coreMat.Mean().Val1
		coreMat.Close()

		outline.SetTo(gocv.NewScalar(0, 0, 0, 0))
		gocv.DrawContours(&outline, contours, i, white, 3)
		edgeMean := gray.MeanWithMask(outline).Val1

		confidence := DentConfidence(area, circularity, centerMean, edgeMean, t)
		found = append(found, entity.DamageLocation{
			Type:       entity.DamageDent,
			BBox:       entity.FromRect(rect),
			Confidence: confidence,
		})
	}
	return found
}

// writeSnapshot сохраняет вырезку вокруг рамки с отступом padding.
func writeSnapshot(framePath string, box entity.VehicleRegion, padding int, dst string) error {
	img, err := readImage(framePath)
	if err != nil {
		return err
	}
	defer img.Close()

	crop := box.Pad(padding, img.Cols(), img.Rows())
	if crop.Empty() {
		return errors.Newf("snapshot region %+v is outside the frame", box)
	}
	region := img.Region(crop.Rect())
	defer region.Close()

	if !gocv.IMWrite(dst, region) {
		return errors.Newf("failed to write snapshot %s", dst)
	}
	return nil
}
