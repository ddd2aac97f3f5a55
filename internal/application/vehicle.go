package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

// vehicleLabels метки детектора, которые считаются типом автомобиля
var vehicleLabels = map[string]bool{"car": true, "motorcycle": true, "bus": true, "truck": true}

// VehicleIdentifier определяет тип, марку, модель и цвет автомобиля.
type VehicleIdentifier struct {
	detector   port.ObjectDetector
	classifier port.EmbeddingClassifier
	colors     port.ColorEstimator
	tuning     entity.VehicleTuning
	logger     *zap.Logger
}

// NewVehicleIdentifier создаёт этап идентификации.
func NewVehicleIdentifier(detector port.ObjectDetector, classifier port.EmbeddingClassifier, colors port.ColorEstimator, tuning entity.VehicleTuning, logger *zap.Logger) *VehicleIdentifier {
	return &VehicleIdentifier{
		detector:   detector,
		classifier: classifier,
		colors:     colors,
		tuning:     tuning,
		logger:     logger,
	}
}

// Identify возвращает ошибку только если ни один из выбранных кадров не читается.
func (v *VehicleIdentifier) Identify(ctx context.Context, framePaths []string) (entity.VehicleInfo, error) {
	samples := readableFrames(framePaths, v.tuning.SampleFrames)
	if len(samples) == 0 {
		return entity.VehicleInfo{}, errors.Newf("no readable frames among %d sampled for identification", len(framePaths))
	}

	info := entity.UnknownVehicle()
	region := v.detectType(ctx, samples[0], &info)
	info.Color = v.detectColor(ctx, samples[0], region)

	classifierFrames := samples
	if len(classifierFrames) > v.tuning.ClassifierFrames && v.tuning.ClassifierFrames > 0 {
		classifierFrames = classifierFrames[:v.tuning.ClassifierFrames]
	}
	brand, confidence, err := v.pick(ctx, classifierFrames, v.tuning.Brands, brandLabel)
	if err != nil {
		v.logger.Warn("brand classification failed", zap.Error(err))
		return info, nil
	}
	info.Brand = brand
	info.Confidence = entity.ClampConfidence(confidence)

	if models := v.tuning.Catalog[brand]; len(models) > 0 {
		model, _, err := v.pick(ctx, classifierFrames, models, func(m string) string { return modelLabel(brand, m) })
		if err != nil {
			v.logger.Warn("model classification failed", zap.String("brand", brand), zap.Error(err))
		} else {
			info.Model = model
		}
	}
	return info, nil
}

// detectType заполняет тип по детекции с наибольшей уверенностью и
// возвращает рамку наибольшего автомобиля.
func (v *VehicleIdentifier) detectType(ctx context.Context, framePath string, info *entity.VehicleInfo) *entity.VehicleRegion {
	if v.detector == nil {
		return nil
	}
	detections, err := v.detector.Detect(ctx, framePath)
	if err != nil {
		v.logger.Warn("vehicle type detection failed", zap.String("frame", framePath), zap.Error(err))
		return nil
	}

	var best, largest *entity.Detection
	for i := range detections {
		d := &detections[i]
		if !vehicleLabels[d.Label] {
			continue
		}
		if best == nil || d.Confidence > best.Confidence {
			best = d
		}
		if largest == nil || d.Box.Area() > largest.Box.Area() {
			largest = d
		}
	}
	if best == nil {
		return nil
	}
	info.Type = best.Label
	box := largest.Box
	return &box
}

func (v *VehicleIdentifier) detectColor(ctx context.Context, framePath string, region *entity.VehicleRegion) string {
	if v.colors == nil {
		return entity.Unknown
	}
	color, err := v.colors.EstimateColor(ctx, framePath, region)
	if err != nil || color == "" {
		if err != nil {
			v.logger.Warn("color estimation failed", zap.String("frame", framePath), zap.Error(err))
		}
		return entity.Unknown
	}
	return color
}

// pick выбирает вариант с наибольшей средней вероятностью классификатора.
func (v *VehicleIdentifier) pick(ctx context.Context, frames, options []string, label func(string) string) (string, float64, error) {
	if v.classifier == nil {
		return "", 0, errors.New("embedding classifier is not configured")
	}
	if len(options) == 0 {
		return "", 0, errors.New("no labels to classify against")
	}

	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = label(o)
	}
	probs, err := v.classifier.Classify(ctx, frames, labels)
	if err != nil {
		return "", 0, err
	}
	if len(probs) != len(options) {
		return "", 0, errors.Newf("classifier returned %d probabilities for %d labels", len(probs), len(options))
	}

	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return options[best], probs[best], nil
}

func brandLabel(brand string) string {
	return fmt.Sprintf("a photo of a %s vehicle", brand)
}

func modelLabel(brand, model string) string {
	return fmt.Sprintf("a photo of a %s %s", brand, model)
}

// readableFrames первые limit путей, из которых отбираются существующие файлы.
func readableFrames(paths []string, limit int) []string {
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
			out = append(out, p)
		}
	}
	return out
}

var _ port.VehicleIdentifier = (*VehicleIdentifier)(nil)
