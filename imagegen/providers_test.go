package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bgforge/core"
	"bgforge/logging"
)

// pngBytes encodes a tiny valid PNG for provider responses.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newHFProvider(url string) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		client:   http.DefaultClient,
		model:    "test-model",
		endpoint: url + "/",
		logger:   logging.Nop(),
	}
}

func TestHuggingFaceProvider_Generate(t *testing.T) {
	img := []byte("raw-image-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hf_testkey" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		if payload["inputs"] != "a quiet forest" {
			t.Errorf("inputs = %q, want the prompt", payload["inputs"])
		}
		w.Write(img)
	}))
	defer srv.Close()

	p := newHFProvider(srv.URL)
	res, err := p.Generate(context.Background(), "a quiet forest", "hf_testkey")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !bytes.Equal(res.Bytes, img) {
		t.Error("Generate() returned wrong bytes")
	}
	if res.Metadata.Service != ServiceHuggingFace {
		t.Errorf("Service = %q", res.Metadata.Service)
	}
	if res.Metadata.Prompt != "a quiet forest" {
		t.Errorf("Prompt = %q", res.Metadata.Prompt)
	}
}

func TestHuggingFaceProvider_NoKeyOmitsAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want unset on free tier", got)
		}
		w.Write([]byte("img"))
	}))
	defer srv.Close()

	if _, err := newHFProvider(srv.URL).Generate(context.Background(), "x", ""); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
}

func TestHuggingFaceProvider_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		header    http.Header
		body      string
		wantType  func(error) bool
		transient bool
	}{
		{
			name:   "401 is fatal auth",
			status: http.StatusUnauthorized,
			body:   `{"error":"invalid token"}`,
			wantType: func(err error) bool {
				var e *core.AuthError
				return errors.As(err, &e)
			},
		},
		{
			name:   "429 is transient rate limit with hint",
			status: http.StatusTooManyRequests,
			header: http.Header{"Retry-After": []string{"7"}},
			body:   `{"error":"rate limited"}`,
			wantType: func(err error) bool {
				var e *core.RateLimitError
				return errors.As(err, &e) && e.RetryAfter == 7*time.Second
			},
			transient: true,
		},
		{
			name:   "503 is transient network",
			status: http.StatusServiceUnavailable,
			body:   `{"error":"model loading"}`,
			wantType: func(err error) bool {
				var e *core.NetworkError
				return errors.As(err, &e) && e.StatusCode == http.StatusServiceUnavailable
			},
			transient: true,
		},
		{
			name:   "400 is fatal validation",
			status: http.StatusBadRequest,
			body:   `{"error":"inputs too long"}`,
			wantType: func(err error) bool {
				var e *core.ValidationError
				return errors.As(err, &e)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, vs := range tt.header {
					for _, v := range vs {
						w.Header().Add(k, v)
					}
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newHFProvider(srv.URL).Generate(context.Background(), "x", "")
			if err == nil {
				t.Fatal("Generate() error = nil")
			}
			if !tt.wantType(err) {
				t.Errorf("Generate() error = %#v, wrong type", err)
			}
			if core.IsTransient(err) != tt.transient {
				t.Errorf("IsTransient = %v, want %v", core.IsTransient(err), tt.transient)
			}
		})
	}
}

func TestStabilityProvider_Generate(t *testing.T) {
	img := pngBytes(t, 4, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer st-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "image/png" {
			t.Errorf("Accept = %q, want image/png", got)
		}
		var payload struct {
			TextPrompts []struct {
				Text string `json:"text"`
			} `json:"text_prompts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(payload.TextPrompts) != 1 || payload.TextPrompts[0].Text != "a red door" {
			t.Errorf("text_prompts = %+v", payload.TextPrompts)
		}
		w.Write(img)
	}))
	defer srv.Close()

	p := &StabilityProvider{
		client:   http.DefaultClient,
		engine:   "test-engine",
		endpoint: srv.URL + "/%s/text-to-image",
		logger:   logging.Nop(),
	}
	res, err := p.Generate(context.Background(), "a red door", "st-key")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !bytes.Equal(res.Bytes, img) {
		t.Error("Generate() returned wrong bytes")
	}
}

func TestDownloadBytes(t *testing.T) {
	img := []byte("downloaded")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(img)
	}))
	defer srv.Close()

	data, err := DownloadBytes(context.Background(), http.DefaultClient, ServiceOpenAI, srv.URL)
	if err != nil {
		t.Fatalf("DownloadBytes() error = %v", err)
	}
	if !bytes.Equal(data, img) {
		t.Error("DownloadBytes() returned wrong bytes")
	}
}

func TestDownloadBytes_FailureClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := DownloadBytes(context.Background(), http.DefaultClient, ServiceOpenAI, srv.URL)
	var netErr *core.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %T, want *core.NetworkError", err)
	}
	if !core.IsTransient(err) {
		t.Error("502 download failure should be transient")
	}
}

func TestDescribeImage(t *testing.T) {
	res := &Result{Bytes: pngBytes(t, 8, 6)}
	DescribeImage(res)
	if res.Metadata.Format != "png" {
		t.Errorf("Format = %q, want png", res.Metadata.Format)
	}
	if res.Metadata.Width != 8 || res.Metadata.Height != 6 {
		t.Errorf("dimensions = %dx%d, want 8x6", res.Metadata.Width, res.Metadata.Height)
	}
}

func TestDescribeImage_UndecodableLeavesFormatEmpty(t *testing.T) {
	res := &Result{Bytes: []byte("not an image")}
	DescribeImage(res)
	if res.Metadata.Format != "" {
		t.Errorf("Format = %q, want empty", res.Metadata.Format)
	}
}

func TestSuggestFilename(t *testing.T) {
	res := &Result{Metadata: Metadata{
		Prompt:      "Ocean waves at sunset!",
		Format:      "png",
		GeneratedAt: time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
	}}
	got := SuggestFilename(res)
	want := "ocean_waves_at_sunset_20260314_150926.png"
	if got != want {
		t.Errorf("SuggestFilename() = %q, want %q", got, want)
	}
}
