package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"nomen/internal/faults"
	"nomen/internal/filestore"
	"nomen/internal/fileutil"
	"nomen/internal/logging"
	"nomen/internal/metadata"
	"nomen/internal/reader"
	"nomen/internal/rewrite"
	"nomen/internal/writer"
)

const (
	lockTimeout    = 5 * time.Second
	lockRetryDelay = 50 * time.Millisecond
)

// SaveOptions tunes Save.
type SaveOptions struct {
	// CopyTo writes to a verified copy at this path and leaves the source
	// untouched. Its parent directory must exist.
	CopyTo string
}

// SaveResult describes a completed save.
type SaveResult struct {
	Target   string            `json:"target"`
	Record   *filestore.Record `json:"record"`
	Report   rewrite.Report    `json:"-"`
	Verified bool              `json:"verified"`
}

// Save writes md to path. A nil md writes the metadata staged in the file's
// record. Identity values from the settings fill keys md leaves unset. The
// file must not have changed since its record was stored.
func (s *Service) Save(ctx context.Context, path string, md *metadata.Metadata, opts SaveOptions) (*SaveResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "save", path, err)
	}
	ctx = logging.WithOperation(ctx, "save")
	logger := logging.WithContext(ctx, s.logger)

	if md == nil {
		if md, err = s.stagedMetadata(ctx, abs); err != nil {
			return nil, err
		}
	}
	md = s.withSettings(md)
	if err := md.Validate(); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, abs)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.checkUnchanged(ctx, abs); err != nil {
		return nil, err
	}

	target := abs
	if opts.CopyTo != "" {
		if target, err = s.prepareCopy(abs, opts.CopyTo); err != nil {
			return nil, err
		}
	}
	discard := func() {
		if target == abs {
			return
		}
		if rmErr := os.Remove(target); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logger.Warn("failed to remove partial copy", logging.String(logging.FieldPath, target), logging.Error(rmErr))
		}
	}

	report, err := s.writer.WriteMetadata(target, md)
	if err != nil {
		discard()
		return nil, err
	}
	result := &SaveResult{Target: target, Report: report}
	if s.cfg.Writer.VerifyAfterWrite {
		check := writer.VerifyWrite(target, md)
		if !check.OK {
			discard()
			logging.WarnWithContext(logger, "save verification failed",
				"verify_failed",
				logging.String(logging.FieldPath, target),
				logging.String("mismatches", strings.Join(check.Errors, "; ")),
				logging.String(logging.FieldErrorHint, "inspect the file with nomen read"),
			)
			return nil, faults.Wrap(faults.ErrVerification, "save", strings.Join(check.Errors, "; "), nil)
		}
		result.Verified = true
	}

	hash, err := reader.QuickHash(target)
	if err != nil {
		return nil, err
	}
	rec, err := s.readRecord(target, hash)
	if err != nil {
		return nil, err
	}
	rec.Status = filestore.StatusSaved
	if result.Record, err = s.store.Put(ctx, rec); err != nil {
		return nil, faults.Wrap(faults.ErrIO, "save", "store record", err)
	}
	logger.Info("file saved",
		logging.String(logging.FieldPath, target),
		logging.String(logging.FieldRecordID, result.Record.ID),
		logging.Bool("copy", target != abs),
		logging.Bool("verified", result.Verified),
	)
	return result, nil
}

func (s *Service) stagedMetadata(ctx context.Context, path string) (*metadata.Metadata, error) {
	rec, err := s.store.GetByPath(ctx, path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "save", "load record", err)
	}
	if rec == nil {
		return nil, faults.Wrap(faults.ErrValidation, "save", "no metadata given and no record stored for "+path, nil)
	}
	return rec.Metadata, nil
}

// withSettings returns a copy of md with the configured creator, source and
// library values filled in where md has none.
func (s *Service) withSettings(md *metadata.Metadata) *metadata.Metadata {
	out := md.Clone()
	if out == nil {
		out = &metadata.Metadata{}
	}
	settings := s.cfg.Settings
	defaults := []struct {
		key   metadata.Key
		value string
	}{
		{metadata.CreatorID, settings.CreatorID},
		{metadata.SourceID, settings.SourceID},
		{metadata.Library, settings.RenderLibrary()},
	}
	for _, d := range defaults {
		if d.value != "" && !out.Has(d.key) {
			_ = out.Set(d.key, d.value)
		}
	}
	return out
}

// lock takes the per-file lock that serializes saves across processes.
func (s *Service) lock(ctx context.Context, path string) (func(), error) {
	if err := os.MkdirAll(s.cfg.Paths.LockDir, 0o755); err != nil {
		return nil, faults.Wrap(faults.ErrIO, "save", "create lock dir", err)
	}
	lockPath := filepath.Join(s.cfg.Paths.LockDir, lockName(path))
	fl := flock.New(lockPath)

	waitCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	ok, err := fl.TryLockContext(waitCtx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, faults.Wrap(faults.ErrIO, "save", "acquire lock", err)
	}
	if !ok {
		return nil, faults.Wrap(faults.ErrLocked, "save", path+" is being saved by another process", nil)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("failed to release save lock", logging.String("lock", lockPath), logging.Error(err))
		}
	}, nil
}

func lockName(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:8]) + ".lock"
}

// checkUnchanged compares the stored hash with the file. Files without a
// record have nothing to compare against.
func (s *Service) checkUnchanged(ctx context.Context, path string) error {
	rec, err := s.store.GetByPath(ctx, path)
	if err != nil {
		return faults.Wrap(faults.ErrIO, "save", "load record", err)
	}
	if rec == nil || rec.FileHash == "" {
		return nil
	}
	current, err := reader.QuickHash(path)
	if err != nil {
		return err
	}
	if current != rec.FileHash {
		return faults.Wrap(faults.ErrFileChanged, "save", path+" changed since it was imported; re-import before saving", nil)
	}
	return nil
}

func (s *Service) prepareCopy(src, dest string) (string, error) {
	target, err := filepath.Abs(dest)
	if err != nil {
		return "", faults.Wrap(faults.ErrIO, "save", dest, err)
	}
	parent := filepath.Dir(target)
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return "", faults.Wrap(faults.ErrValidation, "save", fmt.Sprintf("destination directory %s does not exist", parent), nil)
	}
	if err := fileutil.CopyFile(src, target); err != nil {
		if errors.Is(err, fileutil.ErrSameFile) {
			return "", faults.Wrap(faults.ErrValidation, "save", "destination is the source file", nil)
		}
		marker := faults.ErrIO
		if faults.IsDiskFull(err) {
			marker = faults.ErrDiskFull
		}
		return "", faults.Wrap(marker, "save", "copy to "+target, err)
	}
	return target, nil
}
