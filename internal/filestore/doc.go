// Package filestore persists one record per imported WAV file in SQLite.
//
// A record caches what reader.Read extracted (technical fields, bext, INFO,
// metadata) together with the QuickHash of the file at import or save time,
// so the library can skip re-reading unchanged files and refuse to save over
// files that changed behind its back.
//
// The database is a cache of what is on disk, not an archive. Schema changes
// bump schemaVersion in schema.go; users delete the database to adopt the new
// schema and re-import.
package filestore
