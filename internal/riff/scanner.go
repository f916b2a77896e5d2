package riff

import (
	"errors"
	"fmt"
	"io"
)

// Scanner iterates the chunks of a RIFF/WAVE source. Between calls to Next
// the current chunk's payload can be consumed through Read; whatever is left
// unread is skipped with a seek.
type Scanner struct {
	r    io.ReadSeeker
	size int64
	pos  int64

	cur    Chunk
	left   int64
	inside bool
}

// NewScanner validates the file header and positions the scanner at the first
// chunk. The source size is measured once so trailing chunks can be clamped.
func NewScanner(r io.ReadSeeker) (*Scanner, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek source start: %w", err)
	}
	if err := ReadFileHeader(r); err != nil {
		return nil, err
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("measure source: %w", err)
	}
	if _, err := r.Seek(FileHeaderSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek first chunk: %w", err)
	}
	return &Scanner{r: r, size: size, pos: FileHeaderSize}, nil
}

// Size returns the source length in bytes.
func (s *Scanner) Size() int64 { return s.size }

// Next advances to the next chunk header. It returns io.EOF once the source
// is exhausted or fewer than HeaderSize bytes remain.
func (s *Scanner) Next() (Chunk, error) {
	if s.inside {
		if err := s.finish(); err != nil {
			return Chunk{}, err
		}
	}
	if s.pos >= s.size {
		return Chunk{}, io.EOF
	}
	id, declared, err := ReadChunkHeader(s.r)
	if err != nil {
		if errors.Is(err, ErrTruncatedHeader) {
			s.pos = s.size
			return Chunk{}, io.EOF
		}
		return Chunk{}, err
	}
	offset := s.pos + HeaderSize
	size := int64(declared)
	clamped := false
	if offset+size > s.size {
		size = max(s.size-offset, 0)
		clamped = true
	}
	s.cur = Chunk{ID: id, DeclaredSize: declared, Offset: offset, Size: size, Clamped: clamped}
	s.left = size
	s.inside = true
	return s.cur, nil
}

// Read reads from the current chunk payload.
func (s *Scanner) Read(p []byte) (int, error) {
	if !s.inside || s.left <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > s.left {
		p = p[:s.left]
	}
	n, err := s.r.Read(p)
	s.left -= int64(n)
	if errors.Is(err, io.EOF) && s.left > 0 {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// ReadPayload buffers the remaining payload of the current chunk. Only use it
// for chunks known to be small.
func (s *Scanner) ReadPayload() ([]byte, error) {
	buf := make([]byte, s.left)
	if _, err := io.ReadFull(s, buf); err != nil {
		return nil, fmt.Errorf("read %s payload: %w", s.cur.ID, err)
	}
	return buf, nil
}

// Remaining reports the unread payload bytes of the current chunk.
func (s *Scanner) Remaining() int64 { return s.left }

func (s *Scanner) finish() error {
	if s.left > 0 {
		if _, err := s.r.Seek(s.left, io.SeekCurrent); err != nil {
			return fmt.Errorf("skip %s payload: %w", s.cur.ID, err)
		}
		s.left = 0
	}
	if err := SkipPad(s.r, s.cur.Size); err != nil {
		return err
	}
	s.pos = s.cur.Offset + s.cur.Size
	if s.cur.Padded() {
		s.pos++
	}
	s.inside = false
	return nil
}
