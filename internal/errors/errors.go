// Package errors реэкспортирует github.com/cockroachdb/errors и задаёт
// классы ошибок сервиса осмотров.
//
// Конкретные ошибки помечаются одним из маркеров ниже, поэтому вызывающий
// код классифицирует их через Is независимо от числа обёрток:
//
//	if errors.Is(err, errors.ErrNotFound) {
//	    // 404
//	}
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

var (
	New      = crdb.New
	Newf     = crdb.Newf
	Wrap     = crdb.Wrap
	Wrapf    = crdb.Wrapf
	Mark     = crdb.Mark
	WithHint = crdb.WithHint

	CombineErrors = crdb.CombineErrors
)

var (
	Is           = crdb.Is
	IsAny        = crdb.IsAny
	As           = crdb.As
	UnwrapAll    = crdb.UnwrapAll
	FlattenHints = crdb.FlattenHints
)

// Маркеры классов ошибок
var (
	// ErrValidation некорректный или небезопасный ввод
	ErrValidation = New("validation failed")

	// ErrNotFound файл из запроса не существует
	ErrNotFound = New("referenced file not found")

	// ErrExtractionTimeout извлечение кадров не уложилось в таймаут
	ErrExtractionTimeout = New("frame extraction timed out")

	// ErrVideoOpen видео не открывается или не декодируется
	ErrVideoOpen = New("video cannot be opened")

	// ErrModelInitialization реестр не смог загрузить модель
	ErrModelInitialization = New("model initialization failed")

	// ErrNotInitialized обращение к модели до инициализации реестра
	ErrNotInitialized = New("model registry is not initialized")

	// ErrCollaborator сбой внешней модели или сервиса
	ErrCollaborator = New("collaborator failed")
)

// Validation создаёт ошибку с маркером ErrValidation.
func Validation(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrValidation)
}

// NotFound создаёт ошибку с маркером ErrNotFound.
func NotFound(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrNotFound)
}

// VideoOpen помечает cause маркером ErrVideoOpen.
func VideoOpen(path string, cause error) error {
	if cause == nil {
		cause = Newf("cannot open video %s", path)
	} else {
		cause = Wrapf(cause, "open video %s", path)
	}
	return Mark(cause, ErrVideoOpen)
}

// ExtractionTimeout создаёт ошибку с маркером ErrExtractionTimeout.
func ExtractionTimeout(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrExtractionTimeout)
}

// ModelInitialization помечает cause маркером ErrModelInitialization.
func ModelInitialization(cause error, model string) error {
	return Mark(Wrapf(cause, "load %s", model), ErrModelInitialization)
}

// CollaboratorError сбой внешнего сервиса вместе с кодом ответа.
// StatusCode равен 0, если ответ не был получен.
type CollaboratorError struct {
	Collaborator string
	StatusCode   int
	Err          error
}

func (e *CollaboratorError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Collaborator, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// NewCollaboratorError строит CollaboratorError с маркером ErrCollaborator.
func NewCollaboratorError(collaborator string, statusCode int, err error) error {
	if err == nil {
		err = New("request failed")
	}
	return Mark(&CollaboratorError{Collaborator: collaborator, StatusCode: statusCode, Err: err}, ErrCollaborator)
}

// StatusCode код ответа первой CollaboratorError в цепочке или 0.
func StatusCode(err error) int {
	var ce *CollaboratorError
	if As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}
