package imagegen

import (
	"net/http"
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"simple words", "ocean waves at sunset", "ocean_waves_at_sunset"},
		{"mixed case", "Ocean Waves", "ocean_waves"},
		{"punctuation collapses", "a cat, sitting!  on a mat?", "a_cat_sitting_on_a_mat"},
		{"leading and trailing junk", "  !!hello!!  ", "hello"},
		{"empty prompt", "", "image"},
		{"only punctuation", "!?!,.", "image"},
		{"digits kept", "4k render v2", "4k_render_v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.prompt); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename_Truncates(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "abcdefghij "
	}
	got := SanitizeFilename(long)
	if len(got) > maxFilenameStem {
		t.Errorf("stem length = %d, want <= %d", len(got), maxFilenameStem)
	}
}

func TestExtensionForFormat(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"png", ".png"},
		{"jpeg", ".jpg"},
		{"gif", ".gif"},
		{"webp", ".webp"},
		{"", ".png"},
		{"tiff", ".png"},
	}
	for _, tt := range tests {
		if got := ExtensionForFormat(tt.format); got != tt.want {
			t.Errorf("ExtensionForFormat(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"seconds", "30", 30 * time.Second},
		{"zero", "0", 0},
		{"negative", "-5", 0},
		{"absent", "", 0},
		{"garbage", "soon", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			if got := parseRetryAfter(h); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseRetryAfter_HTTPDate(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", time.Now().Add(10*time.Second).UTC().Format(http.TimeFormat))
	got := parseRetryAfter(h)
	if got <= 0 || got > 11*time.Second {
		t.Errorf("parseRetryAfter(http-date) = %v, want ~10s", got)
	}
}

func TestExtensionFromContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want string
	}{
		{"image/png", ".png"},
		{"image/jpeg", ".jpg"},
		{"image/jpeg; charset=binary", ".jpg"},
		{"image/webp", ".webp"},
		{"application/octet-stream", ".png"},
	}
	for _, tt := range tests {
		if got := extensionFromContentType(tt.ct); got != tt.want {
			t.Errorf("extensionFromContentType(%q) = %q, want %q", tt.ct, got, tt.want)
		}
	}
}
