// Package reader extracts technical fields and metadata from WAV files.
//
// Read is the counterpart of writer.WriteMetadata: every value the writer
// stores comes back through Read subject to the same ASCII and field width
// rules. Load exposes the raw metadata chunks for callers such as the write
// verifier that need to inspect individual blocks.
package reader
