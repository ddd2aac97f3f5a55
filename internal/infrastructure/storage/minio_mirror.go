package storage

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"vehicle-intelligence/internal/domain/port"
	"vehicle-intelligence/internal/errors"
)

// MinioConfig параметры подключения к MinIO
type MinioConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioMirror копирует кадры и снимки осмотра в бакет MinIO.
// Ключ объекта совпадает с путём относительно корня раздачи.
type MinioMirror struct {
	client *minio.Client
	bucket string
	root   string
	logger *zap.Logger
}

// NewMinioMirror подключается к MinIO и создаёт бакет, если его нет.
func NewMinioMirror(ctx context.Context, cfg MinioConfig, root string, logger *zap.Logger) (*MinioMirror, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create minio client")
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "check bucket %s", cfg.Bucket)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, errors.Wrapf(err, "create bucket %s", cfg.Bucket)
		}
	}

	return &MinioMirror{client: cli, bucket: cfg.Bucket, root: root, logger: logger}, nil
}

// Mirror загружает файлы по относительным путям. Ошибки отдельных файлов
// логируются, итоговая ошибка сообщает их количество.
func (m *MinioMirror) Mirror(ctx context.Context, relativePaths []string) error {
	failed := 0
	for _, rel := range relativePaths {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := objectKey(rel)
		if key == "" {
			continue
		}
		local := filepath.Join(m.root, filepath.FromSlash(key))
		_, err := m.client.FPutObject(ctx, m.bucket, key, local, minio.PutObjectOptions{
			ContentType: contentType(local),
		})
		if err != nil {
			failed++
			m.logger.Warn("artifact upload failed", zap.String("key", key), zap.Error(err))
		}
	}
	if failed > 0 {
		return errors.Newf("%d of %d artifacts were not uploaded", failed, len(relativePaths))
	}
	return nil
}

func objectKey(rel string) string {
	key := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel))), "/")
	if key == "." || strings.HasPrefix(key, "../") || key == ".." {
		return ""
	}
	return key
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Проверка реализации интерфейса
var _ port.ArtifactMirror = (*MinioMirror)(nil)
