package core

import (
	"testing"
	"time"
)

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("BGFORGE_TEST_STR", "value")
	if got := EnvOrDefault("BGFORGE_TEST_STR", "fallback"); got != "value" {
		t.Errorf("got %q, want value", got)
	}
	if got := EnvOrDefault("BGFORGE_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("BGFORGE_TEST_INT", "5")
	if got := EnvInt("BGFORGE_TEST_INT", 3); got != 5 {
		t.Errorf("got %d, want 5", got)
	}
	t.Setenv("BGFORGE_TEST_INT", "not-a-number")
	if got := EnvInt("BGFORGE_TEST_INT", 3); got != 3 {
		t.Errorf("unparseable value should fall back, got %d", got)
	}
	if got := EnvInt("BGFORGE_TEST_INT_UNSET", 3); got != 3 {
		t.Errorf("unset value should fall back, got %d", got)
	}
}

func TestEnvFloat(t *testing.T) {
	t.Setenv("BGFORGE_TEST_FLOAT", "2.5")
	if got := EnvFloat("BGFORGE_TEST_FLOAT", 2.0); got != 2.5 {
		t.Errorf("got %f, want 2.5", got)
	}
	t.Setenv("BGFORGE_TEST_FLOAT", "x")
	if got := EnvFloat("BGFORGE_TEST_FLOAT", 2.0); got != 2.0 {
		t.Errorf("unparseable value should fall back, got %f", got)
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true}, {"TRUE", true}, {"1", true}, {"yes", true}, {"on", true},
		{"false", false}, {"0", false}, {"no", false}, {"off", false},
	}
	for _, tt := range tests {
		t.Setenv("BGFORGE_TEST_BOOL", tt.value)
		if got := EnvBool("BGFORGE_TEST_BOOL", !tt.want); got != tt.want {
			t.Errorf("EnvBool(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
	t.Setenv("BGFORGE_TEST_BOOL", "maybe")
	if got := EnvBool("BGFORGE_TEST_BOOL", true); got != true {
		t.Error("invalid value should fall back to default")
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("BGFORGE_TEST_DUR", "1500ms")
	if got := EnvDuration("BGFORGE_TEST_DUR", time.Second); got != 1500*time.Millisecond {
		t.Errorf("got %s, want 1.5s", got)
	}
	t.Setenv("BGFORGE_TEST_DUR", "bogus")
	if got := EnvDuration("BGFORGE_TEST_DUR", time.Second); got != time.Second {
		t.Errorf("unparseable value should fall back, got %s", got)
	}
}
