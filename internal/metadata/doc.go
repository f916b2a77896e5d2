// Package metadata defines the typed metadata map merged into WAV files and
// the tables that map its keys onto iXML USER tags, iXML ASWG tags and RIFF
// INFO sub-chunks.
//
// A nil field means "leave whatever the file already has"; a non-nil field,
// even an empty one, means "write this value". Custom fields are arbitrary
// upper-case USER tags and only ever land in the USER block.
package metadata
