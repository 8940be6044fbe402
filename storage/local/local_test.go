package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/tomoflow/errors"
)

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}

	if err := s.Upload(ctx, "run/out01_scale_x.tfb", strings.NewReader("data")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	rc, err := s.Download(ctx, "run/out01_scale_x.tfb")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}

	entries, _ := os.ReadDir(filepath.Join(s.basePath, "run"))
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want 1 (temp file left behind?)", len(entries))
	}
}

func TestUploadReplaces(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStorage(t.TempDir())
	_ = s.Upload(ctx, "f", strings.NewReader("one"))
	_ = s.Upload(ctx, "f", strings.NewReader("two"))
	rc, err := s.Download(ctx, "f")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "two" {
		t.Errorf("content = %q, want two", got)
	}
}

func TestAbsolutePathUnderBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, _ := NewStorage(base)
	abs := filepath.Join(s.basePath, "nested", "f.tfb")
	if err := s.Upload(ctx, abs, strings.NewReader("x")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := os.Stat(abs); err != nil {
		t.Errorf("file not at absolute path: %v", err)
	}
}

func TestDownloadMissing(t *testing.T) {
	s, _ := NewStorage(t.TempDir())
	_, err := s.Download(context.Background(), "nope")
	if !errors.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestExistsDeleteList(t *testing.T) {
	ctx := context.Background()
	s, _ := NewStorage(t.TempDir())
	for _, p := range []string{"a/2.tfb", "a/1.tfb", "b/3.tfb"} {
		if err := s.Upload(ctx, p, strings.NewReader(p)); err != nil {
			t.Fatalf("Upload %s: %v", p, err)
		}
	}

	ok, err := s.Exists(ctx, "a/1.tfb")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	files, err := s.List(ctx, "a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 || files[0].Path != filepath.Join("a", "1.tfb") {
		t.Errorf("List = %+v", files)
	}
	if files[0].Size != int64(len("a/1.tfb")) {
		t.Errorf("Size = %d", files[0].Size)
	}

	if err := s.Delete(ctx, "a/1.tfb"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "a/1.tfb"); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
	if ok, _ := s.Exists(ctx, "a/1.tfb"); ok {
		t.Error("file still exists after Delete")
	}
}
