package entity

import "time"

// Tuning набор эвристических констант. Значения по умолчанию подобраны вручную,
// любое из них можно переопределить YAML-файлом.
type Tuning struct {
	Frames   FrameTuning    `yaml:"frames"`
	Damage   DamageTuning   `yaml:"damage"`
	Severity SeverityTuning `yaml:"severity"`
	Exhaust  ExhaustTuning  `yaml:"exhaust"`
	Odometer OdometerTuning `yaml:"odometer"`
	Vehicle  VehicleTuning  `yaml:"vehicle"`
	Report   RetryTuning    `yaml:"report_retry"`
}

// FrameTuning параметры извлечения кадров
type FrameTuning struct {
	SampleRate          float64 `yaml:"sample_rate"`
	FallbackInterval    int     `yaml:"fallback_interval"`
	MinSharpness        float64 `yaml:"min_sharpness"`
	DuplicateSimilarity float64 `yaml:"duplicate_similarity"`
	JPEGQuality         int     `yaml:"jpeg_quality"`
	CLAHEClipLimit      float64 `yaml:"clahe_clip_limit"`
	SharpenAmount       float64 `yaml:"sharpen_amount"`
}

// DamageTuning параметры трёх проходов поиска повреждений
type DamageTuning struct {
	MaxLocations int           `yaml:"max_locations"`
	Scratch      ScratchTuning `yaml:"scratch"`
	Rust         RustTuning    `yaml:"rust"`
	Dent         DentTuning    `yaml:"dent"`
	Dedup        DedupTuning   `yaml:"dedup"`
}

type ScratchTuning struct {
	CannySigma       float64 `yaml:"canny_sigma"`
	MinArea          float64 `yaml:"min_area"`
	MaxArea          float64 `yaml:"max_area"`
	MinAspect        float64 `yaml:"min_aspect"`
	RingPadding      int     `yaml:"ring_padding"`
	ContrastWeight   float64 `yaml:"contrast_weight"`
	EdgeWeight       float64 `yaml:"edge_weight"`
	EdgeDensityScale float64 `yaml:"edge_density_scale"`
	// MinEvidence порог исходной оценки до масштабирования
	MinEvidence      float64 `yaml:"min_evidence"`
	ConfidenceFloor  float64 `yaml:"confidence_floor"`
	ConfidenceCeil   float64 `yaml:"confidence_ceil"`
	SnapshotPadding  int     `yaml:"snapshot_padding"`
}

type RustTuning struct {
	MinArea          float64 `yaml:"min_area"`
	AreaNorm         float64 `yaml:"area_norm"`
	KernelSize       int     `yaml:"kernel_size"`
	SaturationWeight float64 `yaml:"saturation_weight"`
	ValueWeight      float64 `yaml:"value_weight"`
	AreaWeight       float64 `yaml:"area_weight"`
	SnapshotPadding  int     `yaml:"snapshot_padding"`
}

type DentTuning struct {
	BlurKernel        int     `yaml:"blur_kernel"`
	BlurSigma         float64 `yaml:"blur_sigma"`
	Threshold         float64 `yaml:"threshold"`
	KernelSize        int     `yaml:"kernel_size"`
	MinArea           float64 `yaml:"min_area"`
	MaxArea           float64 `yaml:"max_area"`
	MinCircularity    float64 `yaml:"min_circularity"`
	AreaNorm          float64 `yaml:"area_norm"`
	AreaWeight        float64 `yaml:"area_weight"`
	CircularityWeight float64 `yaml:"circularity_weight"`
	ShadowWeight      float64 `yaml:"shadow_weight"`
	ShadowScale       float64 `yaml:"shadow_scale"`
	SnapshotPadding   int     `yaml:"snapshot_padding"`
}

// DedupTuning радиусы (в пикселях) и окно кадров для склейки одного дефекта.
type DedupTuning struct {
	ScratchRadius float64 `yaml:"scratch_radius"`
	RustRadius    float64 `yaml:"rust_radius"`
	DentRadius    float64 `yaml:"dent_radius"`
	FrameWindow   int     `yaml:"frame_window"`
}

// Radius возвращает радиус склейки для типа повреждения.
func (t DedupTuning) Radius(kind DamageType) float64 {
	switch kind {
	case DamageScratch:
		return t.ScratchRadius
	case DamageRust:
		return t.RustRadius
	case DamageDent:
		return t.DentRadius
	default:
		return 0
	}
}

// SeverityTuning пороги уровней тяжести
type SeverityTuning struct {
	HighTotal          int     `yaml:"high_total"`
	ElevatedTotal      int     `yaml:"elevated_total"`
	ElevatedConfidence float64 `yaml:"elevated_confidence"`
	MediumTotal        int     `yaml:"medium_total"`
	MediumConfidence   float64 `yaml:"medium_confidence"`
}

type ExhaustTuning struct {
	RearCropStart      float64 `yaml:"rear_crop_start"`
	CannyLow           float32 `yaml:"canny_low"`
	CannyHigh          float32 `yaml:"canny_high"`
	ModifiedComplexity float64 `yaml:"modified_complexity"`
	HoughDP            float64 `yaml:"hough_dp"`
	HoughMinDist       float64 `yaml:"hough_min_dist"`
	HoughParam1        float64 `yaml:"hough_param1"`
	HoughParam2        float64 `yaml:"hough_param2"`
	MinRadius          int     `yaml:"min_radius"`
	MaxRadius          int     `yaml:"max_radius"`
	CircleConfidence   float64 `yaml:"circle_confidence"`
	CircleBonusMax     float64 `yaml:"circle_bonus_max"`
	ModifiedConfidence float64 `yaml:"modified_confidence"`
	DefaultConfidence  float64 `yaml:"default_confidence"`
}

type OdometerTuning struct {
	DashboardFrames     int         `yaml:"dashboard_frames"`
	MinDigits           int         `yaml:"min_digits"`
	MaxDigits           int         `yaml:"max_digits"`
	PreferredMinDigits  int         `yaml:"preferred_min_digits"`
	PreferredMaxDigits  int         `yaml:"preferred_max_digits"`
	NonPreferredPenalty float64     `yaml:"non_preferred_penalty"`
	AgreementBoost      float64     `yaml:"agreement_boost"`
	Retry               RetryTuning `yaml:"retry"`
}

type VehicleTuning struct {
	SampleFrames     int                 `yaml:"sample_frames"`
	ClassifierFrames int                 `yaml:"classifier_frames"`
	Brands           []string            `yaml:"brands"`
	Catalog          map[string][]string `yaml:"catalog"`
}

// RetryTuning политика повторов для генеративной модели.
type RetryTuning struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	Multiplier     float64       `yaml:"multiplier"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
}

// DefaultBrands марки, среди которых выбирает классификатор.
var DefaultBrands = []string{
	"Toyota", "Honda", "Ford", "Chevrolet", "Nissan",
	"BMW", "Mercedes-Benz", "Audi", "Volkswagen", "Hyundai",
	"Kia", "Mazda", "Subaru", "Jeep", "Lexus",
	"Tesla", "Porsche", "Jaguar", "Land Rover", "Volvo",
}

// DefaultTuning возвращает значения по умолчанию.
func DefaultTuning() Tuning {
	return Tuning{
		Frames: FrameTuning{
			SampleRate:          1,
			FallbackInterval:    30,
			MinSharpness:        50,
			DuplicateSimilarity: 0.98,
			JPEGQuality:         95,
			CLAHEClipLimit:      2.0,
			SharpenAmount:       0.5,
		},
		Damage: DamageTuning{
			MaxLocations: 20,
			Scratch: ScratchTuning{
				CannySigma:       0.33,
				MinArea:          500,
				MaxArea:          20000,
				MinAspect:        1.5,
				RingPadding:      8,
				ContrastWeight:   0.7,
				EdgeWeight:       0.3,
				EdgeDensityScale: 5,
				MinEvidence:      0.3,
				ConfidenceFloor:  0.4,
				ConfidenceCeil:   0.95,
				SnapshotPadding:  20,
			},
			Rust: RustTuning{
				MinArea:          2000,
				AreaNorm:         20000,
				KernelSize:       5,
				SaturationWeight: 0.4,
				ValueWeight:      0.2,
				AreaWeight:       0.4,
				SnapshotPadding:  30,
			},
			Dent: DentTuning{
				BlurKernel:        9,
				BlurSigma:         2,
				Threshold:         200,
				KernelSize:        7,
				MinArea:           2000,
				MaxArea:           100000,
				MinCircularity:    0.4,
				AreaNorm:          20000,
				AreaWeight:        0.3,
				CircularityWeight: 0.4,
				ShadowWeight:      0.3,
				ShadowScale:       64,
				SnapshotPadding:   25,
			},
			Dedup: DedupTuning{
				ScratchRadius: 50,
				RustRadius:    80,
				DentRadius:    60,
				FrameWindow:   3,
			},
		},
		Severity: SeverityTuning{
			HighTotal:          10,
			ElevatedTotal:      5,
			ElevatedConfidence: 0.6,
			MediumTotal:        3,
			MediumConfidence:   0.5,
		},
		Exhaust: ExhaustTuning{
			RearCropStart:      0.7,
			CannyLow:           50,
			CannyHigh:          150,
			ModifiedComplexity: 0.2,
			HoughDP:            1,
			HoughMinDist:       20,
			HoughParam1:        50,
			HoughParam2:        30,
			MinRadius:          10,
			MaxRadius:          50,
			CircleConfidence:   0.7,
			CircleBonusMax:     0.15,
			ModifiedConfidence: 0.6,
			DefaultConfidence:  0.5,
		},
		Odometer: OdometerTuning{
			DashboardFrames:     10,
			MinDigits:           4,
			MaxDigits:           8,
			PreferredMinDigits:  5,
			PreferredMaxDigits:  7,
			NonPreferredPenalty: 0.8,
			AgreementBoost:      0.1,
			Retry: RetryTuning{
				MaxAttempts:    3,
				InitialBackoff: time.Second,
				Multiplier:     2,
				AttemptTimeout: 20 * time.Second,
			},
		},
		Vehicle: VehicleTuning{
			SampleFrames:     5,
			ClassifierFrames: 3,
			Brands:           append([]string(nil), DefaultBrands...),
			Catalog:          map[string][]string{},
		},
		Report: RetryTuning{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			Multiplier:     2,
			AttemptTimeout: 60 * time.Second,
		},
	}
}
