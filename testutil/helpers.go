package testutil

import (
	"os"
	"testing"
)

// Chdir switches the working directory for the rest of the test
func Chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

// ClearEnv unsets variables for the rest of the test
func ClearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		// t.Setenv registers the restore; the value is then removed
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}
