package riff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"nomen/internal/faults"
)

// FileHeaderSize covers "RIFF", the container size and the "WAVE" form type.
const FileHeaderSize = 12

var (
	ErrTooSmall = fmt.Errorf("%w: file too small to be a WAV file", faults.ErrFormat)
	ErrRIFX     = fmt.Errorf("%w: big-endian RIFX files are not supported", faults.ErrFormat)
	ErrRF64     = fmt.Errorf("%w: RF64 files are not supported", faults.ErrFormat)
	ErrNotRIFF  = fmt.Errorf("%w: missing RIFF header", faults.ErrFormat)
	ErrNotWAVE  = fmt.Errorf("%w: missing WAVE identifier", faults.ErrFormat)
	ErrTooLarge = fmt.Errorf("%w: output exceeds the 4 GiB RIFF size limit", faults.ErrFormat)
)

// ReadFileHeader validates the 12-byte RIFF/WAVE header. The recorded
// container size is ignored; writers recompute it.
func ReadFileHeader(r io.Reader) error {
	var hdr [FileHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTooSmall
		}
		return fmt.Errorf("read RIFF header: %w", err)
	}
	var magic, form ID
	copy(magic[:], hdr[0:4])
	copy(form[:], hdr[8:12])
	switch magic {
	case IDRIFF:
	case IDRIFX:
		return ErrRIFX
	case IDRF64:
		return ErrRF64
	default:
		return ErrNotRIFF
	}
	if form != IDWAVE {
		return ErrNotWAVE
	}
	return nil
}

// WriteFileHeader writes a RIFF/WAVE header with a zero size placeholder.
func WriteFileHeader(w io.Writer) error {
	var hdr [FileHeaderSize]byte
	copy(hdr[0:4], IDRIFF[:])
	copy(hdr[8:12], IDWAVE[:])
	_, err := w.Write(hdr[:])
	return err
}

// FinalizeSize patches the RIFF size field at offset 4 with the number of
// bytes following the 8-byte RIFF header, then restores the write offset to
// the end of the output. It returns the total output size.
func FinalizeSize(ws io.WriteSeeker) (int64, error) {
	total, err := ws.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek output end: %w", err)
	}
	if total < FileHeaderSize {
		return 0, fmt.Errorf("finalize RIFF size: output is only %d bytes", total)
	}
	if total-HeaderSize > math.MaxUint32 {
		return 0, ErrTooLarge
	}
	if _, err := ws.Seek(4, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek RIFF size field: %w", err)
	}
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(total-HeaderSize))
	if _, err := ws.Write(size[:]); err != nil {
		return 0, fmt.Errorf("write RIFF size: %w", err)
	}
	if _, err := ws.Seek(0, io.SeekEnd); err != nil {
		return 0, fmt.Errorf("seek output end: %w", err)
	}
	return total, nil
}
