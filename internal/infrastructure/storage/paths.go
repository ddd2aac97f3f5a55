package storage

import (
	"os"
	"path/filepath"
	"strings"

	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

// PathPolicy разрешает только пути внутри заданного списка базовых каталогов.
type PathPolicy struct {
	bases []string
}

// NewPathPolicy создаёт политику. Базовые каталоги приводятся к абсолютному виду
// с раскрытием символических ссылок.
func NewPathPolicy(bases []string) (*PathPolicy, error) {
	resolved := make([]string, 0, len(bases))
	for _, base := range bases {
		base = strings.TrimSpace(base)
		if base == "" {
			continue
		}
		abs, err := resolve(base)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve allowed path %q", base)
		}
		resolved = append(resolved, abs)
	}
	if len(resolved) == 0 {
		return nil, errors.New("at least one allowed upload path is required")
	}
	return &PathPolicy{bases: resolved}, nil
}

// Bases возвращает разрешённые каталоги
func (p *PathPolicy) Bases() []string {
	return append([]string(nil), p.bases...)
}

// Resolve возвращает абсолютный путь, если он лежит внутри одного из базовых каталогов.
// Проверка не зависит от существования файла.
func (p *PathPolicy) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.Validation("path is empty")
	}
	if strings.ContainsRune(path, 0) {
		return "", errors.Validation("path contains a NUL byte")
	}

	resolved, err := resolve(path)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "resolve path %q", path), errors.ErrValidation)
	}

	for _, base := range p.bases {
		if within(base, resolved) {
			return resolved, nil
		}
	}
	return "", errors.Validation("path %q is outside allowed directories", path)
}

// resolve делает путь абсолютным и раскрывает символические ссылки. Для
// несуществующего пути раскрывается ближайший существующий предок, а
// оставшиеся компоненты присоединяются к нему.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	existing, missing := abs, ""
	for {
		evaluated, err := filepath.EvalSymlinks(existing)
		if err == nil {
			return filepath.Join(evaluated, missing), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		missing = filepath.Join(filepath.Base(existing), missing)
		existing = parent
	}
}

func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Проверка реализации интерфейса
var _ port.PathGuard = (*PathPolicy)(nil)
