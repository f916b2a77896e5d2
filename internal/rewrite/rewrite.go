package rewrite

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"nomen/internal/bext"
	"nomen/internal/faults"
	"nomen/internal/ixml"
	"nomen/internal/listinfo"
	"nomen/internal/logging"
	"nomen/internal/metadata"
	"nomen/internal/riff"
)

// DefaultBufferSize is the stream-copy window for non-metadata chunks.
const DefaultBufferSize = 1 << 20

const minBufferSize = 4 << 10

// Options tunes a rewrite.
type Options struct {
	IXML       ixml.Options
	BufferSize int
	// Now stamps newly created bext chunks. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Report summarizes what a rewrite did to the chunk sequence.
type Report struct {
	Size          int64
	ChunksCopied  int
	ChunksDropped int
	ClampedChunks int
	BextCreated   bool
	IXMLCreated   bool
	InfoCreated   bool
	IXMLFallback  *ixml.ParseError
}

type chunkState uint8

const (
	notSeen chunkState = iota
	written
)

type session struct {
	scan   *riff.Scanner
	out    *bufio.Writer
	md     *metadata.Metadata
	opts   Options
	logger *slog.Logger
	buf    []byte

	bext chunkState
	ixml chunkState
	info chunkState

	report Report
}

// Rewrite reads src and writes the updated container to dst, which must be
// positioned at its start. The caller owns both handles.
func Rewrite(src io.ReadSeeker, dst io.WriteSeeker, md *metadata.Metadata, opts Options) (Report, error) {
	if md == nil {
		md = &metadata.Metadata{}
	}
	opts = normalize(opts)
	scan, err := riff.NewScanner(src)
	if err != nil {
		return Report{}, err
	}
	s := &session{
		scan:   scan,
		out:    bufio.NewWriterSize(dst, 64<<10),
		md:     md,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "rewrite"),
		buf:    make([]byte, opts.BufferSize),
	}
	if err := riff.WriteFileHeader(s.out); err != nil {
		return Report{}, writeErr("write RIFF header", err)
	}
	if err := s.walk(); err != nil {
		return Report{}, err
	}
	if err := s.appendMissing(); err != nil {
		return Report{}, err
	}
	if err := s.out.Flush(); err != nil {
		return Report{}, writeErr("flush output", err)
	}
	total, err := riff.FinalizeSize(dst)
	if err != nil {
		if errors.Is(err, faults.ErrFormat) {
			return Report{}, err
		}
		return Report{}, writeErr("finalize RIFF size", err)
	}
	s.report.Size = total
	s.logger.Debug("rewrite complete",
		logging.Int64("output_bytes", total),
		logging.Int("chunks_copied", s.report.ChunksCopied),
		logging.Int("chunks_dropped", s.report.ChunksDropped),
	)
	return s.report, nil
}

func normalize(opts Options) Options {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	opts.BufferSize = max(opts.BufferSize, minBufferSize)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

func (s *session) walk() error {
	for {
		c, err := s.scan.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return readErr("read chunk header", err)
		}
		if c.Clamped {
			s.report.ClampedChunks++
			logging.WarnWithContext(s.logger, "chunk truncated by end of file",
				"chunk_clamped",
				logging.String("chunk_id", c.ID.String()),
				logging.Int64("declared_bytes", int64(c.DeclaredSize)),
				logging.Int64("available_bytes", c.Size),
				logging.String(logging.FieldErrorHint, "source file may be damaged"),
				logging.String(logging.FieldImpact, "chunk copied with the bytes that remain"),
			)
		}
		if err := s.dispatch(c); err != nil {
			return err
		}
	}
}

func (s *session) dispatch(c riff.Chunk) error {
	switch c.ID {
	case riff.IDBext:
		return s.handleBext(c)
	case riff.IDIXML:
		return s.handleIXML(c)
	case riff.IDList:
		return s.handleList(c)
	default:
		return s.copyChunk(c)
	}
}

func (s *session) handleBext(c riff.Chunk) error {
	if s.bext == written {
		s.drop(c, "")
		return nil
	}
	payload, err := s.scan.ReadPayload()
	if err != nil {
		return readErr("read bext", err)
	}
	if err := s.emit(riff.IDBext, bext.Update(payload, s.md)); err != nil {
		return err
	}
	s.bext = written
	return nil
}

func (s *session) handleIXML(c riff.Chunk) error {
	if s.ixml == written {
		s.drop(c, "")
		return nil
	}
	payload, err := s.scan.ReadPayload()
	if err != nil {
		return readErr("read iXML", err)
	}
	res, err := ixml.Update(payload, s.md, s.opts.IXML)
	if err != nil {
		return faults.Wrap(faults.ErrIO, "rewrite", "build iXML", err)
	}
	if res.Fallback != nil {
		s.report.IXMLFallback = res.Fallback
		logging.WarnWithContext(s.logger, "existing iXML replaced",
			"ixml_rebuilt",
			logging.String("reason", res.Fallback.Reason.String()),
			logging.Error(res.Fallback),
			logging.String(logging.FieldErrorHint, "existing iXML could not be reused"),
			logging.String(logging.FieldImpact, "vendor iXML content in this chunk was discarded"),
		)
	}
	if err := s.emit(riff.IDIXML, res.Data); err != nil {
		return err
	}
	s.ixml = written
	return nil
}

func (s *session) handleList(c riff.Chunk) error {
	if c.Size < 4 {
		payload, err := s.scan.ReadPayload()
		if err != nil {
			return readErr("read LIST", err)
		}
		s.report.ChunksCopied++
		return s.emitRaw(riff.IDList, payload)
	}
	var listType riff.ID
	if _, err := io.ReadFull(s.scan, listType[:]); err != nil {
		return readErr("read LIST type", err)
	}
	if listType != riff.IDInfo {
		s.report.ChunksCopied++
		return s.stream(riff.IDList, listType[:], c.Size)
	}
	if s.info == written {
		s.drop(c, listType.String())
		return nil
	}
	existing, err := s.scan.ReadPayload()
	if err != nil {
		return readErr("read LIST/INFO", err)
	}
	if err := s.emit(riff.IDList, listinfo.Build(existing, s.md)); err != nil {
		return err
	}
	s.info = written
	return nil
}

func (s *session) drop(c riff.Chunk, listType string) {
	s.report.ChunksDropped++
	attrs := []logging.Attr{
		logging.String("chunk_id", c.ID.String()),
		logging.Int64("chunk_offset", c.Offset-riff.HeaderSize),
		logging.Int64("chunk_bytes", c.Size),
		logging.String(logging.FieldErrorHint, "source held a duplicate metadata chunk"),
		logging.String(logging.FieldImpact, "only the first occurrence is kept"),
	}
	if listType != "" {
		attrs = append(attrs, logging.String("list_type", listType))
	}
	logging.WarnWithContext(s.logger, "duplicate chunk dropped", "chunk_duplicate", attrs...)
}

func (s *session) copyChunk(c riff.Chunk) error {
	s.report.ChunksCopied++
	s.logger.Debug("copying chunk",
		logging.String("chunk_id", c.ID.String()),
		logging.Int64("chunk_bytes", c.Size),
	)
	return s.stream(c.ID, nil, c.Size)
}

// stream writes a chunk whose payload is prefix followed by the rest of the
// current source payload. size covers prefix plus the remainder.
func (s *session) stream(id riff.ID, prefix []byte, size int64) error {
	if err := riff.WriteChunkHeader(s.out, id, uint32(size)); err != nil {
		return writeErr("write chunk header", err)
	}
	if _, err := s.out.Write(prefix); err != nil {
		return writeErr("write chunk payload", err)
	}
	if _, err := riff.CopyPayload(s.out, s.scan, s.scan.Remaining(), s.buf); err != nil {
		return copyErr(id, err)
	}
	if err := riff.WritePad(s.out, size); err != nil {
		return writeErr("write pad byte", err)
	}
	return nil
}

func (s *session) emit(id riff.ID, payload []byte) error {
	s.logger.Debug("writing metadata chunk",
		logging.String("chunk_id", id.String()),
		logging.Int("chunk_bytes", len(payload)),
	)
	return s.emitRaw(id, payload)
}

func (s *session) emitRaw(id riff.ID, payload []byte) error {
	if err := riff.WriteChunk(s.out, id, payload); err != nil {
		return writeErr(fmt.Sprintf("write %s chunk", id), err)
	}
	return nil
}

func (s *session) appendMissing() error {
	if s.bext == notSeen && s.md.NeedsBext() {
		if err := s.emit(riff.IDBext, bext.BuildDefault(s.md, s.opts.Now())); err != nil {
			return err
		}
		s.bext = written
		s.report.BextCreated = true
	}
	if s.ixml == notSeen && s.md.NeedsIXML() {
		data, err := ixml.BuildFresh(s.md, s.opts.IXML)
		if err != nil {
			return faults.Wrap(faults.ErrIO, "rewrite", "build iXML", err)
		}
		if err := s.emit(riff.IDIXML, data); err != nil {
			return err
		}
		s.ixml = written
		s.report.IXMLCreated = true
	}
	if s.info == notSeen && s.md.NeedsInfo() {
		if err := s.emit(riff.IDList, listinfo.Build(nil, s.md)); err != nil {
			return err
		}
		s.info = written
		s.report.InfoCreated = true
	}
	return nil
}
