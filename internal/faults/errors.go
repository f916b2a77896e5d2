package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFormat       = errors.New("invalid wav")
	ErrNotFound     = errors.New("file not found")
	ErrPermission   = errors.New("permission denied")
	ErrReadOnly     = errors.New("file is read-only")
	ErrLocked       = errors.New("file is locked")
	ErrDiskFull     = errors.New("disk full")
	ErrIO           = errors.New("i/o failure")
	ErrFileChanged  = errors.New("file modified externally")
	ErrValidation   = errors.New("validation error")
	ErrVerification = errors.New("write verification failed")
)

// Machine-readable codes reported to callers of the CLI and record layers.
const (
	CodeFileNotFound = "FILE_NOT_FOUND"
	CodeFileReadOnly = "FILE_READ_ONLY"
	CodeReadDenied   = "READ_DENIED"
	CodeFileLocked   = "FILE_LOCKED"
	CodeFileChanged  = "FILE_CHANGED"
	CodeDiskFull     = "DISK_FULL"
	CodeInvalidWAV   = "INVALID_WAV"
	CodeValidation   = "VALIDATION_ERROR"
	CodeWriteFailed  = "WRITE_FAILED"
	CodeIO           = "IO_ERROR"
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker. The marker should be one of the sentinels above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Code maps an error to its stable machine code. Unclassified errors map to
// IO_ERROR.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return CodeFileNotFound
	case errors.Is(err, ErrReadOnly):
		return CodeFileReadOnly
	case errors.Is(err, ErrPermission):
		return CodeReadDenied
	case errors.Is(err, ErrLocked):
		return CodeFileLocked
	case errors.Is(err, ErrFileChanged):
		return CodeFileChanged
	case errors.Is(err, ErrDiskFull):
		return CodeDiskFull
	case errors.Is(err, ErrFormat):
		return CodeInvalidWAV
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrVerification):
		return CodeWriteFailed
	default:
		return CodeIO
	}
}

var kinds = []error{
	ErrFormat, ErrNotFound, ErrPermission, ErrReadOnly, ErrLocked,
	ErrDiskFull, ErrIO, ErrFileChanged, ErrValidation, ErrVerification,
}

// Classified reports whether err carries one of the sentinel kinds.
func Classified(err error) bool {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "metadata failure"
	}
	return strings.Join(parts, ": ")
}
