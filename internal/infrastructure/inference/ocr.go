package inference

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

// OCRClient клиент сервиса распознавания текста.
type OCRClient struct {
	sidecar
}

type ocrResponse struct {
	Spans []entity.TextSpan `json:"spans"`
}

// NewOCRClient создаёт клиент. client может быть nil.
func NewOCRClient(baseURL string, client *http.Client) *OCRClient {
	return &OCRClient{sidecar: newSidecar("ocr", baseURL, client)}
}

// Recognize отправляет изображение multipart-запросом и возвращает фрагменты текста.
func (c *OCRClient) Recognize(ctx context.Context, image []byte) ([]entity.TextSpan, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, errors.Wrap(err, "create form file")
	}
	if _, err := part.Write(image); err != nil {
		return nil, errors.Wrap(err, "copy image data")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp ocrResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	for i := range resp.Spans {
		resp.Spans[i].Confidence = entity.ClampConfidence(resp.Spans[i].Confidence)
	}
	return resp.Spans, nil
}

var _ port.TextOCR = (*OCRClient)(nil)
