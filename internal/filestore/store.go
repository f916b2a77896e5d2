package filestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"nomen/internal/config"
)

// Store manages file records backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the database named by the configuration, creating it and
// its schema on first use.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Paths.DatabasePath)
}

// OpenPath connects to the database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put inserts rec, or replaces the record stored under the same path while
// keeping its ID and import time. rec is updated with the stored identity.
func (s *Store) Put(ctx context.Context, rec *Record) (*Record, error) {
	if rec == nil {
		return nil, errors.New("record is nil")
	}
	if strings.TrimSpace(rec.Path) == "" {
		return nil, errors.New("record path is empty")
	}
	if rec.Status == "" {
		rec.Status = StatusUnmodified
	}
	if !rec.Status.Valid() {
		return nil, fmt.Errorf("record status %q is not valid", rec.Status)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = now
	}
	rec.ModifiedAt = now

	enc, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO files (`+recordColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
             filename = excluded.filename,
             directory = excluded.directory,
             status = excluded.status,
             changed_fields_json = excluded.changed_fields_json,
             file_hash = excluded.file_hash,
             metadata_json = excluded.metadata_json,
             technical_json = excluded.technical_json,
             bext_json = excluded.bext_json,
             info_json = excluded.info_json,
             modified_at = excluded.modified_at`,
		rec.ID,
		rec.Path,
		rec.Filename,
		rec.Directory,
		string(rec.Status),
		enc.changedFields,
		nullableString(rec.FileHash),
		enc.metadata,
		enc.technical,
		enc.bext,
		enc.info,
		formatTime(rec.ImportedAt),
		formatTime(rec.ModifiedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert record %s: %w", rec.Path, err)
	}
	stored, err := s.GetByPath(ctx, rec.Path)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("upsert record %s: row missing after write", rec.Path)
	}
	return stored, nil
}

// GetByID fetches a record by identifier. A missing record is (nil, nil).
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM files WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// GetByPath fetches the record for an absolute path. A missing record is
// (nil, nil).
func (s *Store) GetByPath(ctx context.Context, path string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM files WHERE path = ?`, path)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record by path: %w", err)
	}
	return rec, nil
}

// List returns records ordered by path.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM files`
	var (
		where []string
		args  []any
	)
	if dir := strings.TrimRight(opts.Directory, string(filepath.Separator)); dir != "" {
		where = append(where, "(directory = ? OR path LIKE ? ESCAPE '\\')")
		args = append(args, dir, escapeLike(dir+string(filepath.Separator))+"%")
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY path"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes the record with id. It reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	return n > 0, nil
}

// DeleteByPaths removes the records for paths and returns how many went.
func (s *Store) DeleteByPaths(ctx context.Context, paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	args := make([]any, len(paths))
	for i, p := range paths {
		args[i] = p
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM files WHERE path IN (`+makePlaceholders(len(paths))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return res.RowsAffected()
}
