//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/errors"
)

const histogramBins = 64

// Extract декодирует видео последовательно и сохраняет принятые кадры в outputDir.
func (x *FrameExtractor) Extract(ctx context.Context, videoPath, outputDir string) ([]entity.Frame, error) {
	vc, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, errors.VideoOpen(videoPath, err)
	}
	defer vc.Close()
	if !vc.IsOpened() {
		return nil, errors.VideoOpen(videoPath, nil)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create frames directory %s", outputDir)
	}

	interval := SamplingInterval(vc.Get(gocv.VideoCaptureFPS), x.tuning.SampleRate, x.tuning.FallbackInterval)

	frame := gocv.NewMat()
	defer frame.Close()
	last := gocv.NewMat()
	defer last.Close()

	var stats extractionStats
	var frames []entity.Frame
	for position := 0; ; position++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "frame extraction interrupted")
		}
		if ok := vc.Read(&frame); !ok || frame.Empty() {
			break
		}
		stats.decoded++
		if position%interval != 0 {
			continue
		}
		stats.sampled++

		path := filepath.Join(outputDir, FrameFileName(len(frames)+1))
		accepted, err := x.sample(frame, &last, path, &stats)
		if err != nil {
			return nil, err
		}
		if accepted {
			frames = append(frames, entity.Frame{Path: path, SequenceIndex: len(frames)})
		}
	}

	if stats.decoded == 0 {
		return nil, errors.VideoOpen(videoPath, errors.New("no decodable frames"))
	}

	x.logger.Info("frames extracted",
		append(stats.fields(), zap.Int("accepted", len(frames)), zap.Int("interval", interval))...)
	return frames, nil
}

// sample применяет фильтры резкости и повторов и сохраняет кадр.
// last хранит гистограмму последнего принятого кадра.
func (x *FrameExtractor) sample(frame gocv.Mat, last *gocv.Mat, path string, stats *extractionStats) (bool, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	if laplacianVariance(gray) < x.tuning.MinSharpness {
		stats.blurry++
		return false, nil
	}

	hist := grayHistogram(gray)
	if !last.Empty() {
		similarity := float64(gocv.CompareHist(*last, hist, gocv.HistCmpCorrel))
		if similarity > x.tuning.DuplicateSimilarity {
			stats.duplicates++
			hist.Close()
			return false, nil
		}
	}
	last.Close()
	*last = hist

	enhanced := x.enhance(frame)
	defer enhanced.Close()
	if !gocv.IMWriteWithParams(path, enhanced, []int{gocv.IMWriteJpegQuality, x.tuning.JPEGQuality}) {
		return false, errors.Newf("failed to write frame %s", path)
	}
	return true, nil
}

// enhance выравнивает локальный контраст канала L и слегка повышает резкость.
func (x *FrameExtractor) enhance(frame gocv.Mat) gocv.Mat {
	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(frame, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	clahe := gocv.NewCLAHEWithParams(x.tuning.CLAHEClipLimit, image.Pt(8, 8))
	defer clahe.Close()
	lightness := gocv.NewMat()
	clahe.Apply(channels[0], &lightness)
	channels[0].Close()
	channels[0] = lightness

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(channels, &merged)

	equalized := gocv.NewMat()
	defer equalized.Close()
	gocv.CvtColor(merged, &equalized, gocv.ColorLabToBGR)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(equalized, &blurred, image.Pt(0, 0), 3, 3, gocv.BorderDefault)

	sharpened := gocv.NewMat()
	amount := x.tuning.SharpenAmount
	gocv.AddWeighted(equalized, 1+amount, blurred, -amount, 0, &sharpened)
	return sharpened
}

// laplacianVariance оценка резкости: дисперсия отклика Лапласиана.
func laplacianVariance(gray gocv.Mat) float64 {
	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	defer mean.Close()
	std := gocv.NewMat()
	defer std.Close()
	gocv.MeanStdDev(lap, &mean, &std)

	s := std.GetDoubleAt(0, 0)
	return s * s
}

func grayHistogram(gray gocv.Mat) gocv.Mat {
	mask := gocv.NewMat()
	defer mask.Close()

	hist := gocv.NewMat()
	gocv.CalcHist([]gocv.Mat{gray}, []int{0}, mask, &hist, []int{histogramBins}, []float64{0, 256}, false)
	return hist
}
