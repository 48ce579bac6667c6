package minio_storage

import (
	"context"
	"io"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
)

// StorageScheme marks lesson fields that hold an object key.
const StorageScheme = "storage://"

type LessonStorage struct {
	storage      *MinioStorage
	bucket       string
	presignedTTL time.Duration
}

func NewLessonStorage(ctx context.Context, storage *MinioStorage, bucketName string, presignedTTL time.Duration) (*LessonStorage, error) {
	if err := storage.ensureBucket(ctx, bucketName); err != nil {
		return nil, err
	}
	return &LessonStorage{storage: storage, bucket: bucketName, presignedTTL: presignedTTL}, nil
}

// UploadFile stores reader under objectKey and returns a storage reference.
// Presigned URLs expire, so lessons keep the reference and viewers resolve
// it with ObjectURL.
func (s *LessonStorage) UploadFile(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
	progress func(sent int64),
) (string, error) {
	if size <= 0 {
		size = -1
	}
	opts := minio.PutObjectOptions{ContentType: contentType}
	if progress != nil {
		opts.Progress = &progressCounter{report: progress}
	}

	_, err := s.storage.client.PutObject(ctx, s.bucket, objectKey, reader, size, opts)
	if err != nil {
		return "", app_errors.Transport("put object", err)
	}
	return StorageScheme + objectKey, nil
}

// ObjectURL returns a presigned download URL for objectKey.
func (s *LessonStorage) ObjectURL(ctx context.Context, objectKey string) (string, error) {
	u, err := s.storage.client.PresignedGetObject(ctx, s.bucket, objectKey, s.presignedTTL, make(url.Values))
	if err != nil {
		return "", app_errors.Transport("presign object", err)
	}
	return u.String(), nil
}

// progressCounter is read by minio once per chunk sent; it only counts.
type progressCounter struct {
	sent   atomic.Int64
	report func(sent int64)
}

func (p *progressCounter) Read(b []byte) (int, error) {
	n := p.sent.Add(int64(len(b)))
	p.report(n)
	return len(b), nil
}

func (s *LessonStorage) Ping(ctx context.Context) error {
	_, err := s.storage.client.BucketExists(ctx, s.bucket)
	return err
}
