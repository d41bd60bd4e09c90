package testsupport

import (
	"context"
	"testing"

	"curator/internal/config"
	"curator/internal/journal"
)

// MustOpenJournal opens a journal.Store for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewUpload creates a pending upload for tests using the provided store.
func NewUpload(t testing.TB, store *journal.Store, key string, captures ...string) *journal.Upload {
	t.Helper()

	if len(captures) == 0 {
		captures = []string{"part1.avi"}
	}
	upload, err := store.CreateUpload(context.Background(), key, captures)
	if err != nil {
		t.Fatalf("CreateUpload: %v", err)
	}
	return upload
}
