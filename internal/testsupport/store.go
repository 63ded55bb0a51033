package testsupport

import (
	"testing"

	"ruokalista/internal/config"
	"ruokalista/internal/menustore"
)

// MustOpenStore opens the configured menu store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) menustore.Store {
	t.Helper()

	store, err := menustore.Open(cfg)
	if err != nil {
		t.Fatalf("menustore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
