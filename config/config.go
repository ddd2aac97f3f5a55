package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/errors"
)

// Config настройки сервиса осмотров.
type Config struct {
	HTTPAddr string
	Env      string

	MockMode  bool
	MockDelay time.Duration

	AllowedUploadPaths []string
	UploadsRoot        string

	YOLOModelPath    string
	DetectorPoolSize int
	ClassifierURL    string
	OCRURL           string

	LLM LLMConfig

	ExtractionTimeout time.Duration
	OdometerTimeout   time.Duration

	Minio    MinioConfig
	Telegram TelegramConfig

	TuningPath string
	Tuning     entity.Tuning
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	RPS     float64
}

// MinioConfig зеркалирование артефактов; пустой Endpoint отключает его.
type MinioConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// TelegramConfig уведомления об осмотрах; пустой Token отключает их.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// Production сообщает, что сервис запущен в боевом окружении.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	var errs []error
	cfg := &Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8000"),
		Env:                getEnv("APP_ENV", "development"),
		MockMode:           getBool("MOCK_MODE", false, &errs),
		MockDelay:          getDuration("MOCK_DELAY", 2*time.Second, &errs),
		AllowedUploadPaths: getList("ALLOWED_UPLOAD_PATHS", []string{"./uploads"}),
		UploadsRoot:        getEnv("UPLOADS_ROOT", "./uploads"),
		YOLOModelPath:      getEnvAllowEmpty("YOLO_MODEL_PATH", "./models/yolov8n.onnx"),
		DetectorPoolSize:   getInt("DETECTOR_POOL_SIZE", 2, &errs),
		ClassifierURL:      getEnv("CLASSIFIER_URL", "http://localhost:8101"),
		OCRURL:             getEnv("OCR_URL", "http://localhost:8102"),
		LLM: LLMConfig{
			APIKey:  strings.TrimSpace(os.Getenv("LLM_API_KEY")),
			BaseURL: os.Getenv("LLM_BASE_URL"),
			Model:   os.Getenv("LLM_MODEL"),
			RPS:     getFloat("LLM_RPS", 1, &errs),
		},
		ExtractionTimeout: getDuration("EXTRACTION_TIMEOUT", 5*time.Minute, &errs),
		OdometerTimeout:   getDuration("ODOMETER_TIMEOUT", 30*time.Second, &errs),
		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			Region:    os.Getenv("MINIO_REGION"),
			Bucket:    getEnv("MINIO_BUCKET", "inspections"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    getBool("MINIO_USE_SSL", false, &errs),
		},
		Telegram: TelegramConfig{
			Token:  os.Getenv("TELEGRAM_TOKEN"),
			ChatID: getInt64("TELEGRAM_CHAT_ID", 0, &errs),
		},
		TuningPath: os.Getenv("TUNING_PATH"),
	}
	if len(errs) > 0 {
		return nil, errors.Wrap(joinErrors(errs), "invalid environment")
	}

	tuning, err := LoadTuning(cfg.TuningPath)
	if err != nil {
		return nil, err
	}
	cfg.Tuning = tuning

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if len(c.AllowedUploadPaths) == 0 {
		return errors.New("ALLOWED_UPLOAD_PATHS must list at least one directory")
	}
	if c.UploadsRoot == "" {
		return errors.New("UPLOADS_ROOT is required")
	}
	if c.DetectorPoolSize < 1 {
		return errors.Newf("DETECTOR_POOL_SIZE must be positive, got %d", c.DetectorPoolSize)
	}
	if c.ExtractionTimeout <= 0 || c.OdometerTimeout <= 0 {
		return errors.New("EXTRACTION_TIMEOUT and ODOMETER_TIMEOUT must be positive")
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}
	return nil
}

// LoadTuning читает YAML-файл поверх значений по умолчанию. Пустой путь
// возвращает значения по умолчанию.
func LoadTuning(path string) (entity.Tuning, error) {
	tuning := entity.DefaultTuning()
	if path == "" {
		return tuning, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Tuning{}, errors.Wrapf(err, "read tuning file %s", path)
	}
	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return entity.Tuning{}, errors.Wrapf(err, "parse tuning file %s", path)
	}
	return tuning, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// getEnvAllowEmpty как getEnv, но явно заданная пустая переменная остаётся пустой
func getEnvAllowEmpty(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getBool(key string, fallback bool, errs *[]error) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, errors.Wrapf(err, "%s", key))
		return fallback
	}
	return v
}

func getInt(key string, fallback int, errs *[]error) int {
	return int(getInt64(key, int64(fallback), errs))
}

func getInt64(key string, fallback int64, errs *[]error) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		*errs = append(*errs, errors.Wrapf(err, "%s", key))
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64, errs *[]error) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*errs = append(*errs, errors.Wrapf(err, "%s", key))
		return fallback
	}
	return v
}

// getDuration принимает как "30s", так и число секунд.
func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, errors.Wrapf(err, "%s", key))
		return fallback
	}
	return v
}

func joinErrors(errs []error) error {
	err := errs[0]
	for _, e := range errs[1:] {
		err = errors.CombineErrors(err, e)
	}
	return err
}
