package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"vehicle-intelligence/internal/errors"
)

// DefaultTimeout таймаут HTTP-клиента по умолчанию
const DefaultTimeout = 60 * time.Second

// sidecar общий HTTP-транспорт для Python-сервисов с моделями.
type sidecar struct {
	name    string
	baseURL string
	http    *http.Client
}

func newSidecar(name, baseURL string, client *http.Client) sidecar {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return sidecar{name: name, baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

// do отправляет запрос и декодирует JSON-ответ в out. Любой неуспешный статус
// превращается в CollaboratorError с кодом ответа.
func (s sidecar) do(req *http.Request, out interface{}) error {
	resp, err := s.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return errors.NewCollaboratorError(s.name, 0, ctxErr)
		}
		return errors.NewCollaboratorError(s.name, 0, errors.Wrap(err, "send request"))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.NewCollaboratorError(s.name, resp.StatusCode,
			errors.Newf("unexpected status: %s", strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewCollaboratorError(s.name, resp.StatusCode, errors.Wrap(err, "decode response"))
	}
	return nil
}

func (s sidecar) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	return s.do(req, out)
}
