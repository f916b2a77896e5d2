package riff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// HeaderSize is the size of a chunk header: ID plus little-endian length.
const HeaderSize = 8

// ID is a four character chunk or form identifier.
type ID [4]byte

// MakeID converts a four byte string to an ID. Shorter strings are space
// padded, longer strings truncated.
func MakeID(s string) ID {
	id := ID{' ', ' ', ' ', ' '}
	copy(id[:], s)
	return id
}

func (id ID) String() string { return string(id[:]) }

var (
	IDRIFF = ID{'R', 'I', 'F', 'F'}
	IDRIFX = ID{'R', 'I', 'F', 'X'}
	IDRF64 = ID{'R', 'F', '6', '4'}
	IDWAVE = ID{'W', 'A', 'V', 'E'}
	IDFmt  = ID{'f', 'm', 't', ' '}
	IDData = ID{'d', 'a', 't', 'a'}
	IDBext = ID{'b', 'e', 'x', 't'}
	IDIXML = ID{'i', 'X', 'M', 'L'}
	IDList = ID{'L', 'I', 'S', 'T'}
	IDInfo = ID{'I', 'N', 'F', 'O'}
)

// Chunk describes one chunk in a source file. Size is the number of payload
// bytes actually available and never exceeds DeclaredSize.
type Chunk struct {
	ID           ID
	DeclaredSize uint32
	Offset       int64
	Size         int64
	Clamped      bool
}

// Padded reports whether a pad byte follows the payload.
func (c Chunk) Padded() bool { return c.Size%2 == 1 }

// ErrTruncatedHeader is returned when fewer than HeaderSize bytes remain.
var ErrTruncatedHeader = errors.New("truncated chunk header")

// ReadChunkHeader reads a chunk header and advances r by HeaderSize bytes.
func ReadChunkHeader(r io.Reader) (ID, uint32, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ID{}, 0, ErrTruncatedHeader
		}
		return ID{}, 0, fmt.Errorf("read chunk header: %w", err)
	}
	var id ID
	copy(id[:], hdr[:4])
	return id, binary.LittleEndian.Uint32(hdr[4:]), nil
}

// WriteChunkHeader emits id and size without the payload.
func WriteChunkHeader(w io.Writer, id ID, size uint32) error {
	var hdr [HeaderSize]byte
	copy(hdr[:4], id[:])
	binary.LittleEndian.PutUint32(hdr[4:], size)
	_, err := w.Write(hdr[:])
	return err
}

// WriteChunk emits a complete chunk: header, payload and the pad byte when
// the payload length is odd.
func WriteChunk(w io.Writer, id ID, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("chunk %q: payload of %d bytes exceeds RIFF limit", id, len(payload))
	}
	if err := WriteChunkHeader(w, id, uint32(len(payload))); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return WritePad(w, int64(len(payload)))
}

// WritePad writes the zero pad byte required after an odd-sized payload.
func WritePad(w io.Writer, size int64) error {
	if size%2 == 0 {
		return nil
	}
	_, err := w.Write([]byte{0})
	return err
}

// SkipPad consumes the pad byte after an odd-sized payload. A missing pad at
// end of file is tolerated.
func SkipPad(r io.Reader, size int64) error {
	if size%2 == 0 {
		return nil
	}
	var pad [1]byte
	if _, err := io.ReadFull(r, pad[:]); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read pad byte: %w", err)
	}
	return nil
}

// CopyPayload copies exactly n bytes from src to dst through buf.
func CopyPayload(dst io.Writer, src io.Reader, n int64, buf []byte) (int64, error) {
	if len(buf) == 0 {
		return 0, errors.New("copy payload: empty buffer")
	}
	var copied int64
	for remaining := n; remaining > 0; {
		window := buf
		if int64(len(window)) > remaining {
			window = window[:remaining]
		}
		read, err := io.ReadFull(src, window)
		if read > 0 {
			if _, werr := dst.Write(window[:read]); werr != nil {
				return copied, werr
			}
			copied += int64(read)
			remaining -= int64(read)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return copied, fmt.Errorf("%w: expected %d more bytes", io.ErrUnexpectedEOF, remaining)
			}
			return copied, err
		}
	}
	return copied, nil
}
