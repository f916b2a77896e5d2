package testsupport

import (
	"context"
	"testing"

	"nomen/internal/config"
	"nomen/internal/filestore"
)

// MustOpenStore opens a filestore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *filestore.Store {
	t.Helper()

	store, err := filestore.Open(cfg)
	if err != nil {
		t.Fatalf("filestore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// PutRecord stores rec and fails the test on error.
func PutRecord(t testing.TB, store *filestore.Store, rec *filestore.Record) *filestore.Record {
	t.Helper()

	stored, err := store.Put(context.Background(), rec)
	if err != nil {
		t.Fatalf("store.Put: %v", err)
	}
	return stored
}
