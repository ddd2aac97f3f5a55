package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	app "vehicle-intelligence/internal/application"
	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

const maxBodyBytes = 1 << 20

// Deps зависимости HTTP-слоя
type Deps struct {
	Processor app.Processor
	Tracker   port.InspectionTracker
	// Ready сообщает, загружены ли модели
	Ready      func() bool
	Production bool
	Logger     *zap.Logger
}

type Router struct {
	deps Deps
}

// NewRouter собирает chi-роутер сервиса осмотров.
func NewRouter(deps Deps) http.Handler {
	if deps.Ready == nil {
		deps.Ready = func() bool { return true }
	}
	r := &Router{deps: deps}

	mux := chi.NewRouter()
	mux.Use(requestID)
	mux.Use(accessLog(deps.Logger))
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
	}))

	mux.Get("/health", r.handleHealth)
	mux.Get("/ready", r.handleReady)
	mux.Post("/process", r.wrap(r.handleProcess))
	mux.Post("/api/process", r.wrap(r.handleProcess))
	mux.Get("/inspections/{id}/state", r.wrap(r.handleState))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap переводит ошибку обработчика в конверт {"error": {...}}.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status, code := classify(err)
			message := err.Error()
			if status == http.StatusInternalServerError {
				r.deps.Logger.Error("request failed",
					zap.String("path", req.URL.Path),
					zap.String("request_id", RequestIDFrom(req.Context())),
					zap.Error(err),
				)
				if r.deps.Production {
					message = "internal server error"
				}
			}
			writeError(w, status, code, message)
		}
	}
}

// schemaError тело запроса не соответствует схеме
type schemaError struct {
	msg string
}

func (e *schemaError) Error() string { return e.msg }

// classify HTTP-статус и машинный код ошибки.
func classify(err error) (int, string) {
	var schema *schemaError
	switch {
	case errors.As(err, &schema):
		return http.StatusUnprocessableEntity, "schema_validation"
	case errors.IsAny(err, errors.ErrValidation, errors.ErrVideoOpen):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errors.ErrExtractionTimeout):
		return http.StatusRequestTimeout, "extraction_timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// POST /process
// Body: {"video_path": "...", "inspection_id": "...", "odometer_image_path": "..."}
func (r *Router) handleProcess(w http.ResponseWriter, req *http.Request) error {
	var body entity.InspectionRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := decoder.Decode(&body); err != nil {
		return &schemaError{msg: "invalid request body: " + err.Error()}
	}

	var missing []string
	if strings.TrimSpace(body.VideoPath) == "" {
		missing = append(missing, "video_path")
	}
	if strings.TrimSpace(body.InspectionID) == "" {
		missing = append(missing, "inspection_id")
	}
	if len(missing) > 0 {
		return &schemaError{msg: "missing required fields: " + strings.Join(missing, ", ")}
	}

	result, err := r.deps.Processor.Process(req.Context(), body)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// GET /inspections/{id}/state
func (r *Router) handleState(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if r.deps.Tracker == nil {
		return errors.NotFound("inspection %s is not running", id)
	}
	state, ok := r.deps.Tracker.State(req.Context(), id)
	if !ok {
		return errors.NotFound("inspection %s is not running", id)
	}
	return writeJSON(w, http.StatusOK, map[string]string{"inspection_id": id, "state": string(state)})
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	if !r.deps.Ready() {
		_ = writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	_ = writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// contextKey ключ значений запроса в контексте
type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDFrom идентификатор запроса из контекста
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
