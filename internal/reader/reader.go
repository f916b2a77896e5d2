package reader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/beevik/etree"

	"nomen/internal/bext"
	"nomen/internal/faults"
	"nomen/internal/ixml"
	"nomen/internal/listinfo"
	"nomen/internal/logging"
	"nomen/internal/metadata"
	"nomen/internal/riff"
)

const (
	formatPCM        = 0x0001
	formatExtensible = 0xFFFE
	minFormatSize    = 16
)

// Chunks holds the first occurrence of every chunk the reader cares about.
type Chunks struct {
	Format   []byte
	DataSize int64
	HasData  bool
	Bext     []byte
	IXML     []byte
	Info     *listinfo.Table
	FileSize int64
}

// Technical describes the audio stream.
type Technical struct {
	SampleRate      uint32  `json:"sample_rate"`
	BitDepth        uint16  `json:"bit_depth"`
	Channels        uint16  `json:"channels"`
	DurationSeconds float64 `json:"duration_seconds"`
	FrameCount      int64   `json:"frame_count"`
	AudioFormat     string  `json:"audio_format"`
	FileSizeBytes   int64   `json:"file_size_bytes"`
}

// Bext is the decoded broadcast extension.
type Bext struct {
	Description     string `json:"description,omitempty"`
	Originator      string `json:"originator,omitempty"`
	OriginationDate string `json:"origination_date,omitempty"`
	OriginationTime string `json:"origination_time,omitempty"`
	TimeReference   uint64 `json:"time_reference"`
	CodingHistory   string `json:"coding_history,omitempty"`
}

// Info is the decoded LIST/INFO table.
type Info struct {
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Comment     string `json:"comment,omitempty"`
	CreatedDate string `json:"created_date,omitempty"`
	Software    string `json:"software,omitempty"`
	Copyright   string `json:"copyright,omitempty"`
	Product     string `json:"product,omitempty"`
	Keywords    string `json:"keywords,omitempty"`
}

// Snapshot is everything Read extracts from one file.
type Snapshot struct {
	Path      string             `json:"path"`
	Technical Technical          `json:"technical"`
	Bext      *Bext              `json:"bext,omitempty"`
	Info      *Info              `json:"info,omitempty"`
	Metadata  *metadata.Metadata `json:"metadata"`
}

// Load scans path and collects its metadata chunks. Later duplicates are
// ignored, matching what the writer keeps.
func Load(path string) (*Chunks, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openErr(path, err)
	}
	defer f.Close()

	scan, err := riff.NewScanner(f)
	if err != nil {
		if errors.Is(err, faults.ErrFormat) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, faults.Wrap(faults.ErrIO, "read", path, err)
	}
	out := &Chunks{FileSize: scan.Size()}
	for {
		c, err := scan.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, faults.Wrap(faults.ErrIO, "read", path, err)
		}
		if err := collect(out, scan, c); err != nil {
			return nil, faults.Wrap(faults.ErrIO, "read", path, err)
		}
	}
	if out.Format == nil {
		return nil, faults.Wrap(faults.ErrFormat, "read", path+": missing fmt chunk", nil)
	}
	return out, nil
}

func collect(out *Chunks, scan *riff.Scanner, c riff.Chunk) error {
	var err error
	switch c.ID {
	case riff.IDFmt:
		if out.Format == nil {
			out.Format, err = scan.ReadPayload()
		}
	case riff.IDData:
		if !out.HasData {
			out.HasData = true
			out.DataSize = c.Size
		}
	case riff.IDBext:
		if out.Bext == nil {
			out.Bext, err = scan.ReadPayload()
		}
	case riff.IDIXML:
		if out.IXML == nil {
			out.IXML, err = scan.ReadPayload()
		}
	case riff.IDList:
		if out.Info != nil || c.Size < 4 {
			return nil
		}
		var payload []byte
		payload, err = scan.ReadPayload()
		if err == nil && riff.MakeID(string(payload[:4])) == riff.IDInfo {
			out.Info = listinfo.Parse(payload[4:])
		}
	}
	return err
}

// Read loads path and decodes everything into a Snapshot.
func Read(path string, logger *slog.Logger) (*Snapshot, error) {
	chunks, err := Load(path)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Path:      path,
		Technical: chunks.technical(),
		Bext:      chunks.bext(),
		Info:      chunks.info(),
		Metadata:  chunks.metadata(),
	}
	logger = logging.NewComponentLogger(logger, "reader")
	if chunks.IXML != nil {
		if _, perr := ixml.Parse(chunks.IXML); perr != nil {
			logging.WarnWithContext(logger, "iXML ignored",
				"ixml_unreadable",
				logging.String(logging.FieldPath, path),
				logging.Error(perr),
				logging.String(logging.FieldErrorHint, "save the file to rebuild its iXML"),
				logging.String(logging.FieldImpact, "USER and ASWG values were not loaded"),
			)
		}
	}
	logger.Debug("file read",
		logging.String(logging.FieldPath, path),
		logging.Int64("bytes", snap.Technical.FileSizeBytes),
		logging.Float64("duration_seconds", snap.Technical.DurationSeconds),
	)
	return snap, nil
}

func (c *Chunks) technical() Technical {
	t := Technical{FileSizeBytes: c.FileSize}
	if len(c.Format) < minFormatSize {
		t.AudioFormat = "0x0000"
		return t
	}
	code := binary.LittleEndian.Uint16(c.Format[0:2])
	t.Channels = binary.LittleEndian.Uint16(c.Format[2:4])
	t.SampleRate = binary.LittleEndian.Uint32(c.Format[4:8])
	blockAlign := binary.LittleEndian.Uint16(c.Format[12:14])
	t.BitDepth = binary.LittleEndian.Uint16(c.Format[14:16])
	if code == formatExtensible && len(c.Format) >= 26 {
		code = binary.LittleEndian.Uint16(c.Format[24:26])
	}
	if code == formatPCM {
		t.AudioFormat = "PCM"
	} else {
		t.AudioFormat = fmt.Sprintf("0x%04X", code)
	}
	if blockAlign > 0 {
		t.FrameCount = c.DataSize / int64(blockAlign)
	}
	if t.SampleRate > 0 {
		seconds := float64(t.FrameCount) / float64(t.SampleRate)
		t.DurationSeconds = math.Round(seconds*1e6) / 1e6
	}
	return t
}

func (c *Chunks) bext() *Bext {
	if c.Bext == nil {
		return nil
	}
	f := bext.Unpack(c.Bext)
	return &Bext{
		Description:     clean(f.Description),
		Originator:      clean(f.Originator),
		OriginationDate: clean(f.OriginationDate),
		OriginationTime: clean(f.OriginationTime),
		TimeReference:   f.TimeReference(),
		CodingHistory:   clean(string(f.CodingHistory)),
	}
}

var infoFields = []struct {
	tag string
	dst func(*Info) *string
}{
	{"INAM", func(i *Info) *string { return &i.Title }},
	{"IART", func(i *Info) *string { return &i.Artist }},
	{"IGNR", func(i *Info) *string { return &i.Genre }},
	{"ICMT", func(i *Info) *string { return &i.Comment }},
	{"ICRD", func(i *Info) *string { return &i.CreatedDate }},
	{"ISFT", func(i *Info) *string { return &i.Software }},
	{"ICOP", func(i *Info) *string { return &i.Copyright }},
	{"IPRD", func(i *Info) *string { return &i.Product }},
	{"IKEY", func(i *Info) *string { return &i.Keywords }},
}

func (c *Chunks) info() *Info {
	if c.Info == nil {
		return nil
	}
	out := &Info{}
	found := false
	for _, field := range infoFields {
		if v, ok := c.Info.Text(riff.MakeID(field.tag)); ok {
			*field.dst(out) = strings.TrimSpace(v)
			found = true
		}
	}
	if !found {
		return nil
	}
	return out
}

// metadata decodes the iXML blocks. ASWG values are read first and USER
// values override them; unknown USER tags become custom fields.
func (c *Chunks) metadata() *metadata.Metadata {
	md := &metadata.Metadata{}
	if c.IXML == nil {
		return md
	}
	doc, err := ixml.Parse(c.IXML)
	if err != nil {
		return md
	}
	apply(md, doc, ixml.ASWGTag, metadata.ASWGTags)
	apply(md, doc, ixml.UserTag, metadata.UserTags)
	for _, field := range ixml.Values(doc, ixml.UserTag) {
		if field.Value == "" || metadata.IsBuiltinUserTag(field.Tag) {
			continue
		}
		md.SetCustom(field.Tag, field.Value)
	}
	return md
}

func apply(md *metadata.Metadata, doc *etree.Document, block string, mappings []metadata.TagMapping) {
	for _, mapping := range mappings {
		if v, ok := ixml.Lookup(doc, block, mapping.Tag); ok && v != "" {
			// Set only fails for unknown keys and every mapping key is known.
			_ = md.Set(mapping.Key, v)
		}
	}
}

func clean(raw string) string {
	return strings.TrimSpace(bext.Text(raw))
}

func openErr(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return faults.Wrap(faults.ErrNotFound, "read", path, err)
	case errors.Is(err, fs.ErrPermission):
		return faults.Wrap(faults.ErrPermission, "read", path, err)
	default:
		return faults.Wrap(faults.ErrIO, "read", path, err)
	}
}
