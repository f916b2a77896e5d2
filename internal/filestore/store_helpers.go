package filestore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"nomen/internal/metadata"
	"nomen/internal/reader"
)

const recordColumns = "id, path, filename, directory, status, changed_fields_json, file_hash, metadata_json, technical_json, bext_json, info_json, imported_at, modified_at"

type encodedRecord struct {
	changedFields any
	metadata      any
	technical     any
	bext          any
	info          any
}

func encodeRecord(rec *Record) (encodedRecord, error) {
	var (
		out encodedRecord
		err error
	)
	if len(rec.ChangedFields) > 0 {
		if out.changedFields, err = marshalString(rec.ChangedFields); err != nil {
			return out, fmt.Errorf("marshal changed fields: %w", err)
		}
	}
	if rec.Metadata != nil {
		if out.metadata, err = marshalString(rec.Metadata); err != nil {
			return out, fmt.Errorf("marshal metadata: %w", err)
		}
	}
	if out.technical, err = marshalString(rec.Technical); err != nil {
		return out, fmt.Errorf("marshal technical: %w", err)
	}
	if rec.Bext != nil {
		if out.bext, err = marshalString(rec.Bext); err != nil {
			return out, fmt.Errorf("marshal bext: %w", err)
		}
	}
	if rec.Info != nil {
		if out.info, err = marshalString(rec.Info); err != nil {
			return out, fmt.Errorf("marshal info: %w", err)
		}
	}
	return out, nil
}

func marshalString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec           Record
		status        string
		changedFields sql.NullString
		fileHash      sql.NullString
		metadataRaw   sql.NullString
		technicalRaw  sql.NullString
		bextRaw       sql.NullString
		infoRaw       sql.NullString
		importedRaw   string
		modifiedRaw   string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.Path,
		&rec.Filename,
		&rec.Directory,
		&status,
		&changedFields,
		&fileHash,
		&metadataRaw,
		&technicalRaw,
		&bextRaw,
		&infoRaw,
		&importedRaw,
		&modifiedRaw,
	); err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	rec.FileHash = fileHash.String
	rec.Metadata = &metadata.Metadata{}

	decode := []struct {
		raw  sql.NullString
		dst  any
		name string
	}{
		{changedFields, &rec.ChangedFields, "changed fields"},
		{metadataRaw, rec.Metadata, "metadata"},
		{technicalRaw, &rec.Technical, "technical"},
	}
	for _, d := range decode {
		if !d.raw.Valid || d.raw.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(d.raw.String), d.dst); err != nil {
			return nil, fmt.Errorf("decode %s for %s: %w", d.name, rec.Path, err)
		}
	}
	if bextRaw.Valid && bextRaw.String != "" {
		rec.Bext = &reader.Bext{}
		if err := json.Unmarshal([]byte(bextRaw.String), rec.Bext); err != nil {
			return nil, fmt.Errorf("decode bext for %s: %w", rec.Path, err)
		}
	}
	if infoRaw.Valid && infoRaw.String != "" {
		rec.Info = &reader.Info{}
		if err := json.Unmarshal([]byte(infoRaw.String), rec.Info); err != nil {
			return nil, fmt.Errorf("decode info for %s: %w", rec.Path, err)
		}
	}
	if t, err := parseTimeString(importedRaw); err == nil {
		rec.ImportedAt = t
	}
	if t, err := parseTimeString(modifiedRaw); err == nil {
		rec.ModifiedAt = t
	}
	return &rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
