package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("USE_API_BY_DEFAULT")
	os.Unsetenv("MAX_RETRIES")
	c, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.MaxRetries != 3 {
		t.Fatalf("want default MaxRetries 3, got %d", c.MaxRetries)
	}
	if c.UseAPIByDefault {
		t.Fatalf("want UseAPIByDefault false by default")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("MAX_RETRIES", "9")
	defer os.Unsetenv("MAX_RETRIES")
	c, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.MaxRetries != 9 {
		t.Fatalf("want overridden MaxRetries 9, got %d", c.MaxRetries)
	}
}

func TestLoadTestingFlag(t *testing.T) {
	os.Setenv("TESTING", "true")
	defer os.Unsetenv("TESTING")
	c, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Testing {
		t.Fatalf("want Testing true")
	}
}
