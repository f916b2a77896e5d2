package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"nomen/internal/faults"
	"nomen/internal/logging"
	"nomen/internal/metadata"
	"nomen/internal/testsupport"
)

func TestSaveWaitsForFileLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := NewService(cfg, store, logging.NewNop())
	path := testsupport.WriteWAV(t, t.TempDir(), "held.wav")

	holder := flock.New(filepath.Join(cfg.Paths.LockDir, lockName(path)))
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = svc.Save(ctx, path, &metadata.Metadata{}, SaveOptions{})
	if !errors.Is(err, faults.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := holder.Unlock(); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Save(context.Background(), path, &metadata.Metadata{}, SaveOptions{}); err != nil {
		t.Fatalf("Save after release: %v", err)
	}
}

func TestLockNameIsStablePerPath(t *testing.T) {
	if lockName("/a/b.wav") != lockName("/a/b.wav") {
		t.Fatal("lock name not deterministic")
	}
	if lockName("/a/b.wav") == lockName("/a/c.wav") {
		t.Fatal("distinct paths share a lock")
	}
}
