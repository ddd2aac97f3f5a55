package app

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
)

var digitSeparators = strings.NewReplacer(" ", "", ",", "", ".", "", "'", "", "\u00a0", "")

// OdometerCandidate числовое значение, найденное OCR.
type OdometerCandidate struct {
	Value     int
	Digits    int
	Score     float64
	ImagePath string
}

// OdometerReader читает одометр через OCR по нескольким вариантам снимка и
// при наличии генеративной модели сверяет консенсус с ней.
type OdometerReader struct {
	ocr       port.TextOCR
	variants  port.OCRVariantSource
	generator port.TextGenerator
	tuning    entity.OdometerTuning
	policy    RetryPolicy
	digits    *regexp.Regexp
	// llmOff после 401/403/429 сверка с моделью отключается до перезапуска
	llmOff atomic.Bool
	logger *zap.Logger
}

// NewOdometerReader создаёт этап чтения одометра. generator может быть nil.
func NewOdometerReader(ocr port.TextOCR, variants port.OCRVariantSource, generator port.TextGenerator, tuning entity.OdometerTuning, logger *zap.Logger) *OdometerReader {
	return &OdometerReader{
		ocr:       ocr,
		variants:  variants,
		generator: generator,
		tuning:    tuning,
		policy:    NewRetryPolicy(tuning.Retry),
		digits:    regexp.MustCompile(fmt.Sprintf(`\d{%d,%d}`, tuning.MinDigits, tuning.MaxDigits)),
		logger:    logger,
	}
}

// Read никогда не возвращает ошибку: без распознанного значения Value == nil.
func (r *OdometerReader) Read(ctx context.Context, imagePaths []string) entity.OdometerReading {
	if len(imagePaths) == 0 {
		return entity.UnreadOdometer("")
	}

	var candidates []OdometerCandidate
	for _, path := range imagePaths {
		if ctx.Err() != nil {
			break
		}
		candidates = append(candidates, r.readImage(ctx, path)...)
	}

	candidates = DedupeCandidates(candidates)
	if len(candidates) == 0 {
		r.logger.Debug("no odometer candidates", zap.Int("images", len(imagePaths)))
		return entity.UnreadOdometer(imagePaths[0])
	}

	best := candidates[0]
	confidence := best.Score
	if value, ok := r.crossValidate(ctx, candidates); ok {
		if value == best.Value {
			confidence += r.tuning.AgreementBoost
		} else {
			for _, c := range candidates {
				if c.Value == value {
					best, confidence = c, c.Score
					break
				}
			}
		}
	}

	value := best.Value
	return entity.OdometerReading{
		Value:      &value,
		Confidence: entity.ClampConfidence(confidence),
		ImagePath:  best.ImagePath,
	}
}

func (r *OdometerReader) readImage(ctx context.Context, path string) []OdometerCandidate {
	variants := r.imageVariants(ctx, path)

	var out []OdometerCandidate
	for _, variant := range variants {
		if ctx.Err() != nil {
			return out
		}
		spans, err := r.ocr.Recognize(ctx, variant.Data)
		if err != nil {
			r.logger.Debug("ocr failed", zap.String("image", path), zap.String("variant", variant.Name), zap.Error(err))
			continue
		}
		for _, span := range spans {
			out = append(out, r.ExtractCandidates(span, path)...)
		}
	}
	return out
}

// imageVariants при ошибке предобработки использует исходный файл как единственный вариант.
func (r *OdometerReader) imageVariants(ctx context.Context, path string) []entity.ImageVariant {
	if r.variants != nil {
		variants, err := r.variants.Variants(ctx, path)
		if err == nil && len(variants) > 0 {
			return variants
		}
		if err != nil {
			r.logger.Debug("ocr preprocessing failed, using raw image", zap.String("image", path), zap.Error(err))
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("odometer image is not readable", zap.String("image", path), zap.Error(err))
		return nil
	}
	return []entity.ImageVariant{{Name: "raw", Data: data}}
}

// ExtractCandidates ищет в тексте числа из допустимого количества цифр.
// Числа вне предпочтительной длины получают пониженную оценку.
func (r *OdometerReader) ExtractCandidates(span entity.TextSpan, imagePath string) []OdometerCandidate {
	text := digitSeparators.Replace(span.Text)
	confidence := entity.ClampConfidence(span.Confidence)

	var out []OdometerCandidate
	for _, match := range r.digits.FindAllString(text, -1) {
		value, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		score := confidence
		if len(match) < r.tuning.PreferredMinDigits || len(match) > r.tuning.PreferredMaxDigits {
			score *= r.tuning.NonPreferredPenalty
		}
		out = append(out, OdometerCandidate{Value: value, Digits: len(match), Score: score, ImagePath: imagePath})
	}
	return out
}

// DedupeCandidates оставляет по одному кандидату на значение с наибольшей
// оценкой и сортирует их по убыванию оценки.
func DedupeCandidates(candidates []OdometerCandidate) []OdometerCandidate {
	byValue := make(map[int]OdometerCandidate, len(candidates))
	for _, c := range candidates {
		if prev, ok := byValue[c.Value]; !ok || c.Score > prev.Score {
			byValue[c.Value] = c
		}
	}

	out := make([]OdometerCandidate, 0, len(byValue))
	for _, c := range byValue {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Value < out[j].Value
	})
	return out
}

type odometerVerdict struct {
	Value      *int    `json:"value"`
	Confidence float64 `json:"confidence"`
}

// crossValidate спрашивает модель, какое из значений OCR верно. Ответ
// принимается, только если модель выбрала одного из кандидатов.
func (r *OdometerReader) crossValidate(ctx context.Context, candidates []OdometerCandidate) (int, bool) {
	if r.generator == nil || r.llmOff.Load() {
		return 0, false
	}

	prompt := odometerPrompt(candidates)
	var verdict odometerVerdict
	disposition, err := r.policy.Do(ctx, func(ctx context.Context) error {
		text, err := r.generator.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		if !ExtractJSONObject(text, &verdict) {
			verdict = odometerVerdict{}
		}
		return nil
	})
	if err != nil {
		if disposition == Disable && r.llmOff.CompareAndSwap(false, true) {
			r.logger.Warn("odometer llm validation disabled", zap.Error(err))
		} else {
			r.logger.Debug("odometer llm validation failed", zap.Error(err))
		}
		return 0, false
	}
	if verdict.Value == nil {
		return 0, false
	}

	for _, c := range candidates {
		if c.Value == *verdict.Value {
			return c.Value, true
		}
	}
	r.logger.Debug("llm odometer value is not an ocr candidate", zap.Int("value", *verdict.Value))
	return 0, false
}

// LLMDisabled сообщает, отключена ли сверка с моделью.
func (r *OdometerReader) LLMDisabled() bool {
	return r.llmOff.Load()
}

func odometerPrompt(candidates []OdometerCandidate) string {
	var b strings.Builder
	b.WriteString("OCR of a vehicle odometer produced the following candidate readings (value, confidence):\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %d (%.2f)\n", c.Value, c.Score)
	}
	b.WriteString("Odometers usually show 5 to 7 digits in kilometers. Pick the most plausible total mileage.\n")
	b.WriteString(`Respond with JSON only: {"value": <integer or null>, "confidence": <number between 0 and 1>}`)
	return b.String()
}

var _ port.OdometerReader = (*OdometerReader)(nil)
