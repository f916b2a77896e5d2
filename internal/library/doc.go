// Package library keeps the record store in step with WAV files on disk.
//
// Import and Scan read files into filestore records, reusing a cached record
// while the file's quick hash is unchanged. Save writes edited metadata back
// under a per-file lock, refusing when the file changed since it was
// imported, and optionally writes to a verified copy instead of the source.
package library
