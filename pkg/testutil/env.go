package testutil

import (
	"testing"

	"github.com/adrg/xdg"
)

// Environ builds an environment map from KEY, VALUE pairs.
func Environ(t *testing.T, pairs ...string) map[string]string {
	t.Helper()

	if len(pairs)%2 != 0 {
		t.Fatalf("Environ needs KEY, VALUE pairs, got %d arguments", len(pairs))
	}
	env := make(map[string]string, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		env[pairs[i]] = pairs[i+1]
	}
	return env
}

// SetXDG sets XDG_* variables (KEY, VALUE pairs) for the test and reloads
// adrg/xdg, which caches them at start-up. The cache is reloaded again after
// the variables are restored.
func SetXDG(t *testing.T, pairs ...string) {
	t.Helper()

	// Registered first so it runs after t.Setenv restores the environment.
	t.Cleanup(xdg.Reload)
	for name, value := range Environ(t, pairs...) {
		t.Setenv(name, value)
	}
	xdg.Reload()
}
