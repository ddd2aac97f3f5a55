package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"

	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

// ClassifierClient клиент сервиса zero-shot классификации изображений по текстовым меткам.
type ClassifierClient struct {
	sidecar
}

// ClassifierHealth ответ /health: модель и препроцессор загружаются парой.
type ClassifierHealth struct {
	Status          string `json:"status"`
	ModelLoaded     bool   `json:"model_loaded"`
	ProcessorLoaded bool   `json:"processor_loaded"`
}

type classifyRequest struct {
	Images []string `json:"images"`
	Labels []string `json:"labels"`
}

type classifyResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// NewClassifierClient создаёт клиент. client может быть nil.
func NewClassifierClient(baseURL string, client *http.Client) *ClassifierClient {
	return &ClassifierClient{sidecar: newSidecar("classifier", baseURL, client)}
}

// Classify отправляет изображения в base64 и возвращает вероятности в порядке labels.
func (c *ClassifierClient) Classify(ctx context.Context, imagePaths []string, labels []string) ([]float64, error) {
	if len(imagePaths) == 0 || len(labels) == 0 {
		return nil, errors.New("classify requires at least one image and one label")
	}

	payload := classifyRequest{Labels: labels}
	for _, path := range imagePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read image %s", path)
		}
		payload.Images = append(payload.Images, base64.StdEncoding.EncodeToString(data))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode classify request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	var resp classifyResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Probabilities) != len(labels) {
		return nil, errors.NewCollaboratorError(c.name, http.StatusOK,
			errors.Newf("got %d probabilities for %d labels", len(resp.Probabilities), len(labels)))
	}
	return resp.Probabilities, nil
}

// Health возвращает состояние сервиса.
func (c *ClassifierClient) Health(ctx context.Context) (ClassifierHealth, error) {
	var health ClassifierHealth
	err := c.get(ctx, "/health", &health)
	return health, err
}

// Ready возвращает ошибку, если модель или препроцессор не загружены.
func (c *ClassifierClient) Ready(ctx context.Context) error {
	health, err := c.Health(ctx)
	if err != nil {
		return err
	}
	if !health.ModelLoaded || !health.ProcessorLoaded {
		return errors.Newf("classifier is not ready: model_loaded=%t processor_loaded=%t",
			health.ModelLoaded, health.ProcessorLoaded)
	}
	return nil
}

var _ port.EmbeddingClassifier = (*ClassifierClient)(nil)
