// Package writer replaces a WAV file's metadata without ever modifying the
// original in place.
//
// WriteMetadata checks access up front, streams the rewrite into a temporary
// file in the same directory, and renames it over the target only after the
// whole file has been produced and synced. Any failure removes the temporary
// file and leaves the original byte-for-byte unchanged. VerifyWrite re-reads a
// written file and lists the fields that do not hold the expected values.
package writer
