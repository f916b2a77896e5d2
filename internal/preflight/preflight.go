package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"nomen/internal/config"
)

// MinFreeBytes is the free space below which the data volume is reported.
// A rewrite needs room for a full temporary copy of the file.
const MinFreeBytes = 256 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Lock directory", cfg.Paths.LockDir),
		CheckDirectoryAccess("Database directory", filepath.Dir(cfg.Paths.DatabasePath)),
		CheckFreeSpace("Data volume", cfg.Paths.DataDir, MinFreeBytes),
		CheckIdentity(cfg.Settings),
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the volume holding path has at least minFree bytes
// available to unprivileged writers.
func CheckFreeSpace(name, path string, minFree uint64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := st.Bavail * uint64(st.Bsize)
	detail := fmt.Sprintf("%s free on %s", humanize.IBytes(free), path)
	if free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: below %s)", detail, humanize.IBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckIdentity reports whether saves will stamp creator and source IDs.
func CheckIdentity(s config.Settings) Result {
	const name = "Creator identity"
	switch {
	case s.CreatorID == "" && s.SourceID == "":
		return Result{Name: name, Detail: "creator_id and source_id unset; saves will not stamp them"}
	case s.CreatorID == "":
		return Result{Name: name, Detail: "creator_id unset"}
	case s.SourceID == "":
		return Result{Name: name, Detail: "source_id unset"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s / %s", s.CreatorID, s.SourceID)}
}
