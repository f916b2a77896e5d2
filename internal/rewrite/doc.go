// Package rewrite streams a RIFF/WAVE source into a new container while
// updating its metadata chunks.
//
// The source is walked once. The first bext, iXML and LIST/INFO chunks are
// rewritten through their codecs; later copies of the same chunk type are
// dropped. Every other chunk, including LIST chunks of other types, is
// streamed through a fixed buffer unchanged. Metadata chunks the source
// lacked are appended at the end, and the RIFF size field is patched last.
package rewrite
