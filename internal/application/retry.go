package app

import (
	"context"
	"math"
	"net/http"
	"time"

	"vehicle-intelligence/internal/domain/entity"
	"vehicle-intelligence/internal/errors"
)

// Disposition решение по ошибке вызова генеративной модели
type Disposition int

const (
	// Retryable повторить после паузы
	Retryable Disposition = iota
	// Permanent прекратить попытки для этого вызова
	Permanent
	// Disable прекратить попытки и отключить модель до перезапуска процесса
	Disable
)

// dispositions таблица решений по HTTP-статусу коллаборатора.
var dispositions = map[int]Disposition{
	http.StatusBadRequest:          Permanent,
	http.StatusNotFound:            Permanent,
	http.StatusUnauthorized:        Disable,
	http.StatusForbidden:           Disable,
	http.StatusTooManyRequests:     Disable,
	http.StatusRequestTimeout:      Retryable,
	http.StatusInternalServerError: Retryable,
	http.StatusBadGateway:          Retryable,
	http.StatusServiceUnavailable:  Retryable,
	http.StatusGatewayTimeout:      Retryable,
}

// Classify определяет, что делать с ошибкой очередной попытки.
func Classify(err error) Disposition {
	switch {
	case err == nil:
		return Permanent
	case errors.Is(err, context.Canceled):
		return Permanent
	case errors.Is(err, context.DeadlineExceeded):
		return Retryable
	}

	status := errors.StatusCode(err)
	if d, ok := dispositions[status]; ok {
		return d
	}
	if status == 0 || status >= 500 {
		return Retryable
	}
	return Permanent
}

// RetryPolicy ограниченное число попыток с экспоненциальной паузой и таймаутом на попытку.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
	AttemptTimeout time.Duration
}

// NewRetryPolicy строит политику из настроек.
func NewRetryPolicy(t entity.RetryTuning) RetryPolicy {
	return RetryPolicy(t)
}

// Backoff пауза перед попыткой attempt+1 (attempt считается с нуля).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	return time.Duration(float64(p.InitialBackoff) * math.Pow(multiplier, float64(attempt)))
}

// Do выполняет fn, пока она не завершится успешно, не вернёт неповторяемую
// ошибку или не кончатся попытки. Возвращает последнюю ошибку и решение по ней.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) (Disposition, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Permanent, ctxErr
		}

		err = p.attempt(ctx, fn)
		if err == nil {
			return Retryable, nil
		}
		// отмена родительского контекста не повторяется
		if ctx.Err() != nil {
			return Permanent, err
		}

		disposition := Classify(err)
		if disposition != Retryable {
			return disposition, err
		}
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return Permanent, ctx.Err()
		case <-timer.C:
		}
	}
	return Retryable, err
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.AttemptTimeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return fn(attemptCtx)
}
