package preview

import (
	"encoding/base64"
	"os"
	"strings"
	"testing"
	"time"

	"bgforge/imagegen"
	"bgforge/logging"
)

func testResult() *imagegen.Result {
	return &imagegen.Result{
		Bytes: []byte("fake-image-data"),
		Metadata: imagegen.Metadata{
			Service:     imagegen.ServiceHuggingFace,
			Prompt:      "a quiet forest",
			GeneratedAt: time.Now(),
			Format:      "png",
			Width:       1024,
			Height:      1024,
		},
	}
}

func TestBrowser_WritePage(t *testing.T) {
	b := NewBrowser(logging.Nop())
	path, err := b.writePage(testResult())
	if err != nil {
		t.Fatalf("writePage() error = %v", err)
	}
	defer os.Remove(path)

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	page := string(content)

	if !strings.Contains(page, "a quiet forest") {
		t.Error("page missing prompt")
	}
	if !strings.Contains(page, imagegen.ServiceHuggingFace) {
		t.Error("page missing service name")
	}
	if !strings.Contains(page, "1024x1024") {
		t.Error("page missing dimensions")
	}
	encoded := base64.StdEncoding.EncodeToString([]byte("fake-image-data"))
	if !strings.Contains(page, encoded) {
		t.Error("page missing base64 image data")
	}
	if !strings.Contains(page, "data:image/png;base64,") {
		t.Error("page missing data URI prefix")
	}
}

func TestBrowser_Cleanup(t *testing.T) {
	b := NewBrowser(logging.Nop())

	path, err := b.writePage(testResult())
	if err != nil {
		t.Fatalf("writePage() error = %v", err)
	}
	b.files = append(b.files, path)

	if b.PageCount() != 1 {
		t.Fatalf("PageCount() = %d, want 1", b.PageCount())
	}
	b.Cleanup()
	if b.PageCount() != 0 {
		t.Errorf("PageCount() after Cleanup = %d", b.PageCount())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("preview page still exists after Cleanup")
	}

	// second Cleanup is a no-op
	b.Cleanup()
}

func TestMimeForFormat(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"png", "image/png"},
		{"jpeg", "image/jpeg"},
		{"webp", "image/webp"},
		{"", "image/png"},
	}
	for _, tt := range tests {
		if got := mimeForFormat(tt.format); got != tt.want {
			t.Errorf("mimeForFormat(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}
