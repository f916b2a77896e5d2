package filestore

import (
	"path/filepath"
	"time"

	"nomen/internal/metadata"
	"nomen/internal/reader"
)

// Status tracks a record relative to the file on disk.
type Status string

const (
	// StatusUnmodified means the record mirrors the file as imported.
	StatusUnmodified Status = "unmodified"
	// StatusModified means the record holds edits not yet written.
	StatusModified Status = "modified"
	// StatusSaved means the record's metadata was written and verified.
	StatusSaved Status = "saved"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusUnmodified, StatusModified, StatusSaved:
		return true
	}
	return false
}

// Record is one imported file.
type Record struct {
	ID            string             `json:"id"`
	Path          string             `json:"path"`
	Filename      string             `json:"filename"`
	Directory     string             `json:"directory"`
	Status        Status             `json:"status"`
	ChangedFields []string           `json:"changed_fields,omitempty"`
	FileHash      string             `json:"file_hash"`
	Metadata      *metadata.Metadata `json:"metadata"`
	Technical     reader.Technical   `json:"technical"`
	Bext          *reader.Bext       `json:"bext,omitempty"`
	Info          *reader.Info       `json:"info,omitempty"`
	ImportedAt    time.Time          `json:"imported_at"`
	ModifiedAt    time.Time          `json:"modified_at"`
}

// NewRecord builds a record from a fresh read of path.
func NewRecord(path, hash string, snap *reader.Snapshot) *Record {
	return &Record{
		Path:      path,
		Filename:  filepath.Base(path),
		Directory: filepath.Dir(path),
		Status:    StatusUnmodified,
		FileHash:  hash,
		Metadata:  snap.Metadata,
		Technical: snap.Technical,
		Bext:      snap.Bext,
		Info:      snap.Info,
	}
}

// ListOptions filters List.
type ListOptions struct {
	// Directory limits results to files directly inside or below it.
	Directory string
	Status    Status
	Limit     int
}
