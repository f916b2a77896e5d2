// Package riff reads and writes the little-endian RIFF chunk framing used by
// WAVE files.
//
// Every chunk is an 8-byte header (4-byte ID, little-endian uint32 size)
// followed by the payload and, when the size is odd, a single zero pad byte
// that is not counted in the size. Scanner walks a seekable source chunk by
// chunk without buffering payloads, clamping a trailing chunk whose declared
// size runs past the end of the file so damaged files can still be recovered.
// CopyPayload streams a payload through a caller-owned buffer so peak memory
// stays bounded by the buffer, never by the chunk.
package riff
