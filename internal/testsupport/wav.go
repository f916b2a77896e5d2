package testsupport

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WAVOption customizes a synthetic WAV fixture.
type WAVOption func(*wavBuilder)

type wavBuilder struct {
	sampleRate uint32
	channels   uint16
	bits       uint16
	data       []byte
	before     [][]byte
	after      [][]byte
}

// WithFormat overrides the fmt chunk fields. The data payload is regenerated
// for 100 frames unless WithData is applied afterwards.
func WithFormat(sampleRate uint32, channels, bits uint16) WAVOption {
	return func(b *wavBuilder) {
		b.sampleRate = sampleRate
		b.channels = channels
		b.bits = bits
		b.data = samplePattern(100 * int(channels) * int(bits/8))
	}
}

// WithData replaces the audio payload.
func WithData(payload []byte) WAVOption {
	return func(b *wavBuilder) {
		b.data = append([]byte(nil), payload...)
	}
}

// WithBext inserts a bext chunk before the data chunk.
func WithBext(payload []byte) WAVOption {
	return WithChunkBeforeData("bext", payload)
}

// WithIXML inserts an iXML chunk with the raw bytes given.
func WithIXML(raw []byte) WAVOption {
	return WithChunkBeforeData("iXML", raw)
}

// WithInfo inserts a LIST/INFO chunk built from tag, value pairs.
func WithInfo(pairs ...string) WAVOption {
	return WithChunkBeforeData("LIST", InfoPayload(pairs...))
}

// WithChunkBeforeData inserts an arbitrary chunk between fmt and data.
func WithChunkBeforeData(id string, payload []byte) WAVOption {
	return func(b *wavBuilder) {
		b.before = append(b.before, Chunk(id, payload))
	}
}

// WithChunk appends an arbitrary chunk after the data chunk.
func WithChunk(id string, payload []byte) WAVOption {
	return func(b *wavBuilder) {
		b.after = append(b.after, Chunk(id, payload))
	}
}

// WithTrailingBytes appends raw bytes after all chunks, for example a header
// whose declared size runs past the end of the file.
func WithTrailingBytes(raw []byte) WAVOption {
	return func(b *wavBuilder) {
		b.after = append(b.after, append([]byte(nil), raw...))
	}
}

// BuildWAV assembles a PCM WAV file in memory. The default is mono, 44.1 kHz,
// 16-bit with 100 frames of audio.
func BuildWAV(opts ...WAVOption) []byte {
	b := &wavBuilder{
		sampleRate: 44100,
		channels:   1,
		bits:       16,
		data:       samplePattern(200),
	}
	for _, opt := range opts {
		opt(b)
	}

	blockAlign := b.channels * (b.bits / 8)
	fmtPayload := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtPayload[0:], 1)
	binary.LittleEndian.PutUint16(fmtPayload[2:], b.channels)
	binary.LittleEndian.PutUint32(fmtPayload[4:], b.sampleRate)
	binary.LittleEndian.PutUint32(fmtPayload[8:], b.sampleRate*uint32(blockAlign))
	binary.LittleEndian.PutUint16(fmtPayload[12:], blockAlign)
	binary.LittleEndian.PutUint16(fmtPayload[14:], b.bits)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	buf.Write([]byte{0, 0, 0, 0})
	buf.WriteString("WAVE")
	buf.Write(Chunk("fmt ", fmtPayload))
	for _, c := range b.before {
		buf.Write(c)
	}
	buf.Write(Chunk("data", b.data))
	for _, c := range b.after {
		buf.Write(c)
	}

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out
}

// WriteWAV builds a fixture and writes it under dir, returning the path.
func WriteWAV(t testing.TB, dir, name string, opts ...WAVOption) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, BuildWAV(opts...), 0o644); err != nil {
		t.Fatalf("write wav fixture %s: %v", path, err)
	}
	return path
}

// Chunk encodes one RIFF chunk including the pad byte for odd payloads.
func Chunk(id string, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload)+1)
	copy(out[0:4], id)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(payload)))
	out = append(out, payload...)
	if len(payload)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

// InfoPayload builds a LIST payload of type INFO from tag, value pairs.
func InfoPayload(pairs ...string) []byte {
	out := []byte("INFO")
	for i := 0; i+1 < len(pairs); i += 2 {
		value := append([]byte(pairs[i+1]), 0)
		out = append(out, Chunk(pairs[i], value)...)
	}
	return out
}

// BextPayload builds a 602-byte bext payload with the given description and
// originator and an optional coding history.
func BextPayload(description, originator, codingHistory string) []byte {
	out := make([]byte, 602)
	copy(out[0:256], description)
	copy(out[256:288], originator)
	copy(out[320:330], "2024-01-02")
	copy(out[330:338], "03:04:05")
	binary.LittleEndian.PutUint32(out[338:], 48000)
	binary.LittleEndian.PutUint16(out[346:], 2)
	for i := 348; i < 412; i++ {
		out[i] = byte(i)
	}
	binary.LittleEndian.PutUint16(out[412:], uint16(0xFF9C))
	return append(out, codingHistory...)
}

// CountChunks counts top-level chunks with the given ID.
func CountChunks(data []byte, id string) int {
	return len(ChunkPayloads(data, id))
}

// ChunkPayloads returns the payloads of top-level chunks with the given ID.
func ChunkPayloads(data []byte, id string) [][]byte {
	var out [][]byte
	pos := 12
	for pos+8 <= len(data) {
		cid := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		start := pos + 8
		end := min(start+size, len(data))
		if cid == id {
			out = append(out, data[start:end])
		}
		pos = end + size%2
	}
	return out
}

// ListPayloads returns LIST payloads whose type word matches listType.
func ListPayloads(data []byte, listType string) [][]byte {
	var out [][]byte
	for _, payload := range ChunkPayloads(data, "LIST") {
		if len(payload) >= 4 && string(payload[:4]) == listType {
			out = append(out, payload)
		}
	}
	return out
}

func samplePattern(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i*7 + 3)
	}
	return out
}
