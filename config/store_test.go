package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.yaml")
}

// TestOpen_MissingFile tests that a missing file yields an empty store.
func TestOpen_MissingFile(t *testing.T) {
	store, err := Open(tempStorePath(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.APIKey("openai"); ok {
		t.Error("empty store should have no keys")
	}
	if store.LastUsedService() != "" {
		t.Error("empty store should have no last-used service")
	}
}

// TestOpen_EmptyPath tests that an empty path is rejected.
func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("expected error for empty path")
	}
}

// TestOpen_InvalidYAML tests the error for a corrupt config file.
func TestOpen_InvalidYAML(t *testing.T) {
	path := tempStorePath(t)
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

// TestSetAPIKey_RoundTrip tests persistence across store instances.
func TestSetAPIKey_RoundTrip(t *testing.T) {
	path := tempStorePath(t)

	store, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SetAPIKey("openai", "sk-test-key"); err != nil {
		t.Fatalf("SetAPIKey failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	key, ok := reopened.APIKey("openai")
	if !ok || key != "sk-test-key" {
		t.Errorf("key = %q/%v, want sk-test-key/true", key, ok)
	}
	if _, ok := reopened.APIKey("stability"); ok {
		t.Error("unset service should have no key")
	}
}

// TestSetLastUsedService_RoundTrip tests the remembered service survives reopen.
func TestSetLastUsedService_RoundTrip(t *testing.T) {
	path := tempStorePath(t)

	store, _ := Open(path)
	if err := store.SetLastUsedService("stability"); err != nil {
		t.Fatalf("SetLastUsedService failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got := reopened.LastUsedService(); got != "stability" {
		t.Errorf("last-used = %q, want stability", got)
	}
}

// TestSave_RestrictivePermissions tests that every write enforces 0600.
func TestSave_RestrictivePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file mode bits are not meaningful on windows")
	}
	path := tempStorePath(t)

	store, _ := Open(path)
	if err := store.SetAPIKey("huggingface", "hf_secret"); err != nil {
		t.Fatalf("SetAPIKey failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}
}

// TestAPIKey_EmptyValueTreatedAsMissing tests that a blank key does not count.
func TestAPIKey_EmptyValueTreatedAsMissing(t *testing.T) {
	path := tempStorePath(t)
	store, _ := Open(path)
	if err := store.SetAPIKey("openai", ""); err != nil {
		t.Fatalf("SetAPIKey failed: %v", err)
	}
	if _, ok := store.APIKey("openai"); ok {
		t.Error("empty key should be treated as missing")
	}
}
