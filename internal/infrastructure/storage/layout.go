package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

// Layout раскладка артефактов осмотра под корнем раздачи файлов:
// frames/<id>, damage/<id>, exhaust/<id>, odometer/<id>.
type Layout struct {
	root string
}

// NewLayout создаёт раскладку с корнем root.
func NewLayout(root string) (Layout, error) {
	abs, err := resolve(root)
	if err != nil {
		return Layout{}, errors.Wrapf(err, "resolve uploads root %q", root)
	}
	return Layout{root: abs}, nil
}

// Root абсолютный путь корня раздачи
func (l Layout) Root() string { return l.root }

func (l Layout) FramesDir(inspectionID string) string {
	return filepath.Join(l.root, "frames", inspectionID)
}

func (l Layout) DamageDir(inspectionID string) string {
	return filepath.Join(l.root, "damage", inspectionID)
}

func (l Layout) ExhaustDir(inspectionID string) string {
	return filepath.Join(l.root, "exhaust", inspectionID)
}

// Ensure создаёт каталоги осмотра.
func (l Layout) Ensure(inspectionID string) error {
	for _, dir := range []string{l.FramesDir(inspectionID), l.DamageDir(inspectionID), l.ExhaustDir(inspectionID)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	return nil
}

func (l Layout) OdometerDir(inspectionID string) string {
	return filepath.Join(l.root, "odometer", inspectionID)
}

// Import возвращает путь файла под корнем раздачи. Файл вне корня
// копируется в odometer/<id>/.
func (l Layout) Import(inspectionID, path string) (string, error) {
	if within(l.root, path) {
		return path, nil
	}

	dir := l.OdometerDir(inspectionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	dst := filepath.Join(dir, filepath.Base(path))
	if err := copyFile(path, dst); err != nil {
		return "", errors.Wrapf(err, "import %s", path)
	}
	return dst, nil
}

// Relative возвращает путь относительно корня с разделителем "/".
// Для путей вне корня возвращается пустая строка.
func (l Layout) Relative(path string) string {
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	rel, err := filepath.Rel(l.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Проверка реализации интерфейса
var _ port.ArtifactLayout = Layout{}
