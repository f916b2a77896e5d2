package faults

import (
	"errors"

	"golang.org/x/sys/unix"
)

// IsDiskFull reports whether err stems from an exhausted device or quota.
func IsDiskFull(err error) bool {
	return errors.Is(err, unix.ENOSPC) || errors.Is(err, unix.EDQUOT)
}

// IsLockedReplace reports whether a rename failed because another process
// holds the destination.
func IsLockedReplace(err error) bool {
	return errors.Is(err, unix.EBUSY) || errors.Is(err, unix.ETXTBSY) ||
		errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM)
}
