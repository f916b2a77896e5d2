package library

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"nomen/internal/faults"
	"nomen/internal/filestore"
	"nomen/internal/logging"
)

// sniffSize covers every signature filetype knows about.
const sniffSize = 262

// ScanFailure is a file Scan could not import.
type ScanFailure struct {
	Path string `json:"path"`
	Code string `json:"code"`
	Err  error  `json:"-"`
}

// ScanResult summarizes a directory scan.
type ScanResult struct {
	Imported []*filestore.Record `json:"imported"`
	Skipped  int                 `json:"skipped"`
	Removed  int64               `json:"removed"`
	Failed   []ScanFailure       `json:"failed,omitempty"`
}

// Scan imports every WAV file below dir and drops records for files under dir
// that no longer exist. Dot-named files and directories are neither visited
// nor pruned. Files that fail to import are reported, not fatal.
func (s *Service) Scan(ctx context.Context, dir string) (*ScanResult, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "scan", dir, err)
	}
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, faults.Wrap(faults.ErrNotFound, "scan", root, err)
	case err != nil:
		return nil, faults.Wrap(faults.ErrIO, "scan", root, err)
	case !info.IsDir():
		return nil, faults.Wrap(faults.ErrValidation, "scan", root+" is not a directory", nil)
	}
	ctx = logging.WithOperation(ctx, "scan")
	logger := logging.WithContext(ctx, s.logger)

	result := &ScanResult{}
	seen := make(map[string]struct{})
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Debug("scan entry unreadable", logging.String(logging.FieldPath, path), logging.Error(err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !isWAV(path) {
			result.Skipped++
			return nil
		}
		seen[path] = struct{}{}
		rec, err := s.Import(ctx, path)
		if err != nil {
			logging.WarnWithContext(logger, "scan import failed",
				"scan_import_failed",
				logging.String(logging.FieldPath, path),
				logging.String(logging.FieldErrorCode, faults.Code(err)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run nomen read on the file for details"),
			)
			result.Failed = append(result.Failed, ScanFailure{Path: path, Code: faults.Code(err), Err: err})
			return nil
		}
		result.Imported = append(result.Imported, rec)
		return nil
	})
	if walkErr != nil {
		return nil, faults.Wrap(faults.ErrIO, "scan", root, walkErr)
	}

	removed, err := s.pruneMissing(ctx, root, seen)
	if err != nil {
		return nil, err
	}
	result.Removed = removed

	logger.Info("scan completed",
		logging.String(logging.FieldPath, root),
		logging.Int("imported", len(result.Imported)),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", len(result.Failed)),
		logging.Int64("removed", removed),
	)
	return result, nil
}

func (s *Service) pruneMissing(ctx context.Context, root string, seen map[string]struct{}) (int64, error) {
	records, err := s.store.List(ctx, filestore.ListOptions{Directory: root})
	if err != nil {
		return 0, faults.Wrap(faults.ErrIO, "scan", "list records", err)
	}
	var stale []string
	for _, rec := range records {
		if _, ok := seen[rec.Path]; ok || hiddenBelow(root, rec.Path) {
			continue
		}
		stale = append(stale, rec.Path)
	}
	n, err := s.store.DeleteByPaths(ctx, stale)
	if err != nil {
		return 0, faults.Wrap(faults.ErrIO, "scan", "remove stale records", err)
	}
	return n, nil
}

// hiddenBelow reports whether path sits under a dot-named entry inside root.
// Scan never visits those, so their records are not its to prune.
func hiddenBelow(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// isWAV sniffs the file header rather than trusting the extension.
func isWAV(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, sniffSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}
	kind, err := filetype.Match(head[:n])
	if err != nil {
		return false
	}
	return kind.Extension == "wav"
}
