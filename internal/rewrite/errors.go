package rewrite

import (
	"errors"
	"fmt"
	"io"

	"nomen/internal/faults"
)

// writeErr tags output failures; running out of space is reported as
// ErrDiskFull so callers can tell it apart from other I/O errors.
func writeErr(op string, err error) error {
	if faults.IsDiskFull(err) {
		return faults.Wrap(faults.ErrDiskFull, "rewrite", op, err)
	}
	return faults.Wrap(faults.ErrIO, "rewrite", op, err)
}

func readErr(op string, err error) error {
	return faults.Wrap(faults.ErrIO, "rewrite", op, err)
}

// copyErr classifies a stream-copy failure, which may come from either side.
func copyErr(id fmt.Stringer, err error) error {
	op := fmt.Sprintf("copy %s chunk", id)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return faults.Wrap(faults.ErrIO, "rewrite", op+": source ended early", err)
	}
	return writeErr(op, err)
}
