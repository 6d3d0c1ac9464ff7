package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/config"
	"github.com/skillsenselab/skillloop/internal/logger"
)

type memStorage struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStorage) Upload(_ context.Context, path string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[path] = data
	m.types[path] = contentType
	return nil
}

func (m *memStorage) Delete(_ context.Context, path string) error {
	delete(m.objects, path)
	return nil
}

func (m *memStorage) Exists(_ context.Context, path string) (bool, error) {
	_, ok := m.objects[path]
	return ok, nil
}

func (m *memStorage) URL(path string) string { return "https://cdn.test/" + path }

func newTestService(storage Storage) *Service {
	return NewService(storage, 10, logger.NewDefault("media-test"))
}

func TestService_UploadImage(t *testing.T) {
	mem := newMemStorage()
	svc := newTestService(mem)

	res, err := svc.UploadImage(context.Background(), "user-1", "image/png", bytes.NewReader([]byte("png-bytes")), 9)
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !strings.HasPrefix(res.Key, "images/user-1/") {
		t.Errorf("key = %q, want images/user-1/ prefix", res.Key)
	}
	if !strings.HasSuffix(res.Key, ".png") {
		t.Errorf("key = %q, want .png suffix", res.Key)
	}
	if res.URL != "https://cdn.test/"+res.Key {
		t.Errorf("url = %q", res.URL)
	}
	if string(mem.objects[res.Key]) != "png-bytes" {
		t.Errorf("stored bytes = %q", mem.objects[res.Key])
	}
	if mem.types[res.Key] != "image/png" {
		t.Errorf("stored content type = %q", mem.types[res.Key])
	}
}

func TestService_UploadImage_ContentTypeParameters(t *testing.T) {
	svc := newTestService(newMemStorage())

	res, err := svc.UploadImage(context.Background(), "user-1", "Image/JPEG; charset=binary", bytes.NewReader([]byte("jpg")), 3)
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !strings.HasSuffix(res.Key, ".jpg") {
		t.Errorf("key = %q, want .jpg suffix", res.Key)
	}
}

func TestService_UploadImage_RejectsUnsupportedType(t *testing.T) {
	svc := newTestService(newMemStorage())

	_, err := svc.UploadImage(context.Background(), "user-1", "application/pdf", bytes.NewReader(nil), 3)
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperr.CodeInvalidInput {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}

func TestService_UploadVideo_RejectsImageType(t *testing.T) {
	svc := newTestService(newMemStorage())

	if _, err := svc.UploadVideo(context.Background(), "user-1", "image/png", bytes.NewReader(nil), 3); err == nil {
		t.Fatal("expected error for image type on video upload")
	}
}

func TestService_Upload_RejectsOversizedFile(t *testing.T) {
	svc := newTestService(newMemStorage())

	_, err := svc.UploadImage(context.Background(), "user-1", "image/png", bytes.NewReader(nil), 11*1024*1024)
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperr.CodeInvalidInput {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
	if !strings.Contains(appErr.Message, "10 MB") {
		t.Errorf("message = %q, want limit mentioned", appErr.Message)
	}
}

func TestService_Upload_UniqueKeys(t *testing.T) {
	mem := newMemStorage()
	svc := newTestService(mem)

	first, err := svc.UploadVideo(context.Background(), "user-1", "video/mp4", bytes.NewReader([]byte("a")), 1)
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	second, err := svc.UploadVideo(context.Background(), "user-1", "video/mp4", bytes.NewReader([]byte("b")), 1)
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if first.Key == second.Key {
		t.Errorf("duplicate object key %q", first.Key)
	}
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(config.LocalConfig{BasePath: dir, BaseURL: "http://localhost:8080/media"})
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	ctx := context.Background()
	if err := ls.Upload(ctx, "images/u1/pic.png", bytes.NewReader([]byte("data")), "image/png"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	exists, err := ls.Exists(ctx, "images/u1/pic.png")
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v; want true", exists, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "images", "u1", "pic.png"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "data" {
		t.Errorf("stored data = %q", data)
	}

	if got := ls.URL("images/u1/pic.png"); got != "http://localhost:8080/media/images/u1/pic.png" {
		t.Errorf("URL = %q", got)
	}

	if err := ls.Delete(ctx, "images/u1/pic.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if exists, _ := ls.Exists(ctx, "images/u1/pic.png"); exists {
		t.Error("object still exists after delete")
	}

	// Deleting a missing object is not an error.
	if err := ls.Delete(ctx, "images/u1/pic.png"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}
