package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
)

const storageScheme = "storage://"

// FileStore keeps uploaded media on local disk when no object storage is
// configured. Files are served by the HTTP layer under baseURL.
type FileStore struct {
	dir     string
	baseURL string
}

func NewFileStore(dir, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create files dir: %w", err)
	}
	return &FileStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) UploadFile(ctx context.Context, objectKey string, r io.Reader, _ int64, _ string, progress func(sent int64)) (string, error) {
	dest, err := s.path(objectKey)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", app_errors.Transport("create object dir", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", app_errors.Transport("create object", err)
	}
	defer os.Remove(tmp.Name())

	if err := copyWithProgress(ctx, tmp, r, progress); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", app_errors.Transport("write object", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", app_errors.Transport("store object", err)
	}
	return storageScheme + objectKey, nil
}

func (s *FileStore) ObjectURL(_ context.Context, objectKey string) (string, error) {
	if _, err := s.path(objectKey); err != nil {
		return "", err
	}
	segments := strings.Split(objectKey, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/"), nil
}

func (s *FileStore) path(objectKey string) (string, error) {
	clean := path.Clean("/" + objectKey)
	if objectKey == "" || clean != "/"+objectKey {
		return "", fmt.Errorf("invalid object key %q", objectKey)
	}
	return filepath.Join(s.dir, filepath.FromSlash(objectKey)), nil
}

func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, progress func(int64)) error {
	buf := make([]byte, 32*1024)
	var sent int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return app_errors.Transport("write object", err)
			}
			sent += int64(n)
			if progress != nil {
				progress(sent)
			}
		}
		if errors.Is(rerr, io.EOF) {
			return nil
		}
		if rerr != nil {
			return app_errors.Transport("read upload", rerr)
		}
	}
}
