package writer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"nomen/internal/config"
	"nomen/internal/faults"
	"nomen/internal/ixml"
	"nomen/internal/logging"
	"nomen/internal/metadata"
	"nomen/internal/rewrite"
	"nomen/internal/riff"
)

// TempFile is the subset of *os.File the driver writes through.
type TempFile interface {
	io.WriteSeeker
	Name() string
	Chmod(mode os.FileMode) error
	Sync() error
	Close() error
}

var (
	createTemp = func(dir, pattern string) (TempFile, error) {
		f, err := os.CreateTemp(dir, pattern)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	rename = os.Rename
)

// SetCreateTempForTests overrides temp file creation. It returns a restore
// function.
func SetCreateTempForTests(fn func(dir, pattern string) (TempFile, error)) func() {
	prev := createTemp
	createTemp = fn
	return func() { createTemp = prev }
}

// SetRenameForTests overrides the final replace step. It returns a restore
// function.
func SetRenameForTests(fn func(oldpath, newpath string) error) func() {
	prev := rename
	rename = fn
	return func() { rename = prev }
}

// TempSuffix ends the name of every in-flight temporary file.
const TempSuffix = ".wav.tmp"

// Writer applies metadata to WAV files.
type Writer struct {
	opts   rewrite.Options
	logger *slog.Logger
}

// New constructs a Writer. A nil logger discards output.
func New(opts rewrite.Options, logger *slog.Logger) *Writer {
	logger = logging.NewComponentLogger(logger, "writer")
	opts.Logger = logger
	return &Writer{opts: opts, logger: logger}
}

// NewFromConfig builds a Writer from the [writer] section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Writer {
	opts := rewrite.Options{IXML: ixml.DefaultOptions()}
	if cfg != nil {
		opts.BufferSize = cfg.BufferSize()
		opts.IXML = ixml.Options{Embedder: cfg.Writer.Embedder, Version: cfg.Writer.IXMLVersion}
	}
	return New(opts, logger)
}

// WriteMetadata merges md into the file at path. On error the file is
// unchanged.
func (w *Writer) WriteMetadata(path string, md *metadata.Metadata) (rewrite.Report, error) {
	if md == nil {
		md = &metadata.Metadata{}
	}
	if err := md.Validate(); err != nil {
		return rewrite.Report{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return rewrite.Report{}, faults.Wrap(faults.ErrIO, "write", path, err)
	}
	info, err := checkAccess(abs)
	if err != nil {
		return rewrite.Report{}, err
	}

	start := time.Now()
	report, err := w.replace(abs, info.Mode().Perm(), md)
	if err != nil {
		logging.ErrorWithContext(w.logger, "metadata write failed",
			"write_failed",
			logging.String(logging.FieldPath, abs),
			logging.String(logging.FieldErrorCode, faults.Code(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions and free space"),
			logging.String(logging.FieldImpact, "original file left unchanged"),
		)
		return rewrite.Report{}, err
	}
	w.logger.Info("metadata written",
		logging.String(logging.FieldPath, abs),
		logging.Int64("bytes", report.Size),
		logging.Int("fields", len(md.Present())+len(md.CustomFields)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

func checkAccess(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrNotFound, "write", "file not found: "+path, err)
		}
		return nil, faults.Wrap(faults.ErrIO, "write", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, faults.Wrap(faults.ErrNotFound, "write", "not a regular file: "+path, nil)
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return nil, faults.Wrap(faults.ErrPermission, "write", "cannot read file: "+path, err)
	}
	if err := unix.Access(path, unix.W_OK); err != nil {
		return nil, faults.Wrap(faults.ErrReadOnly, "write", "file is read-only: "+path, err)
	}
	return info, nil
}

func (w *Writer) replace(path string, mode os.FileMode, md *metadata.Metadata) (report rewrite.Report, err error) {
	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return report, faults.Wrap(faults.ErrPermission, "write", "cannot read file: "+path, err)
		}
		return report, faults.Wrap(faults.ErrIO, "write", "open "+path, err)
	}
	srcOpen := true
	defer func() {
		if srcOpen {
			_ = src.Close()
		}
	}()

	// Reject non-WAV input before anything is created on disk.
	if err := riff.ReadFileHeader(src); err != nil {
		if errors.Is(err, faults.ErrFormat) {
			return report, fmt.Errorf("%s: %w", path, err)
		}
		return report, faults.Wrap(faults.ErrIO, "write", "read header", err)
	}

	tmp, err := createTemp(filepath.Dir(path), "."+filepath.Base(path)+".*"+TempSuffix)
	if err != nil {
		return report, tempErr(err)
	}
	tmpName := tmp.Name()
	tmpOpen := true
	defer func() {
		if err == nil {
			return
		}
		if tmpOpen {
			_ = tmp.Close()
		}
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			w.logger.Debug("temp cleanup failed", logging.String(logging.FieldPath, tmpName), logging.Error(rmErr))
		}
	}()

	report, err = rewrite.Rewrite(src, tmp, md, w.opts)
	if err != nil {
		return report, err
	}
	if err = tmp.Chmod(mode); err != nil {
		return report, faults.Wrap(faults.ErrIO, "write", "set temp file mode", err)
	}
	if err = tmp.Sync(); err != nil {
		return report, syncErr(err)
	}
	tmpOpen = false
	if err = tmp.Close(); err != nil {
		return report, syncErr(err)
	}
	srcOpen = false
	if err = src.Close(); err != nil {
		return report, faults.Wrap(faults.ErrIO, "write", "close source", err)
	}

	if err = rename(tmpName, path); err != nil {
		return report, renameErr(path, err)
	}
	return report, nil
}

func tempErr(err error) error {
	switch {
	case faults.IsDiskFull(err):
		return faults.Wrap(faults.ErrDiskFull, "write", "create temp file", err)
	case errors.Is(err, fs.ErrPermission):
		return faults.Wrap(faults.ErrReadOnly, "write", "directory is not writable", err)
	default:
		return faults.Wrap(faults.ErrIO, "write", "create temp file", err)
	}
}

func syncErr(err error) error {
	if faults.IsDiskFull(err) {
		return faults.Wrap(faults.ErrDiskFull, "write", "flush temp file", err)
	}
	return faults.Wrap(faults.ErrIO, "write", "flush temp file", err)
}

func renameErr(path string, err error) error {
	switch {
	case faults.IsLockedReplace(err):
		return faults.Wrap(faults.ErrLocked, "write", "file is locked: "+path, err)
	case faults.IsDiskFull(err):
		return faults.Wrap(faults.ErrDiskFull, "write", "replace "+path, err)
	default:
		return faults.Wrap(faults.ErrIO, "write", "replace "+path, err)
	}
}
