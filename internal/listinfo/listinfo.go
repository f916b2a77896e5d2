package listinfo

import (
	"bytes"
	"encoding/binary"

	"nomen/internal/bext"
	"nomen/internal/metadata"
	"nomen/internal/riff"
)

// Entry is one INFO sub-chunk. Value holds the stored bytes including the
// NUL terminator when the writer included one.
type Entry struct {
	Tag   riff.ID
	Value []byte
}

// Table is an ordered tag to value mapping. Tags are unique.
type Table struct {
	entries []Entry
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns the entries in order.
func (t *Table) Entries() []Entry { return t.entries }

// Has reports whether tag is present.
func (t *Table) Has(tag riff.ID) bool {
	return t.index(tag) >= 0
}

// Get returns the raw stored bytes for tag.
func (t *Table) Get(tag riff.ID) ([]byte, bool) {
	if i := t.index(tag); i >= 0 {
		return t.entries[i].Value, true
	}
	return nil, false
}

// Text returns the value for tag as text, cut at the first NUL.
func (t *Table) Text(tag riff.ID) (string, bool) {
	raw, ok := t.Get(tag)
	if !ok {
		return "", false
	}
	return bext.Text(string(raw)), true
}

// Set stores raw under tag, replacing in place or appending.
func (t *Table) Set(tag riff.ID, raw []byte) {
	if i := t.index(tag); i >= 0 {
		t.entries[i].Value = raw
		return
	}
	t.entries = append(t.entries, Entry{Tag: tag, Value: raw})
}

func (t *Table) index(tag riff.ID) int {
	for i, e := range t.entries {
		if e.Tag == tag {
			return i
		}
	}
	return -1
}

// Parse decodes the sub-chunks following the INFO type word. Trailing bytes
// too short for a sub-chunk header are dropped, and a sub-chunk that runs
// past the end keeps whatever bytes remain. A repeated tag replaces the
// earlier value in its original position.
func Parse(data []byte) *Table {
	t := &Table{}
	pos := 0
	for pos+riff.HeaderSize <= len(data) {
		var tag riff.ID
		copy(tag[:], data[pos:pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		start := pos + riff.HeaderSize
		end := len(data)
		if size <= end-start {
			end = start + size
		}
		t.Set(tag, bytes.Clone(data[start:end]))
		pos = start + size + size%2
		if pos < 0 || pos > len(data) {
			break
		}
	}
	return t
}

// Merge adds the INFO-mapped values from md that the table lacks. Existing
// tags are never overwritten and empty values are never added.
func Merge(t *Table, md *metadata.Metadata) *Table {
	if t == nil {
		t = &Table{}
	}
	strategy := metadata.GapFill
	for _, field := range md.InfoFields() {
		tag := riff.MakeID(field.Tag)
		if !strategy.ShouldWrite(t.Has(tag)) {
			continue
		}
		t.Set(tag, EncodeValue(field.Value))
	}
	return t
}

// EncodeValue returns the stored form of a new value: ASCII with '?'
// substitution and a NUL terminator.
func EncodeValue(value string) []byte {
	v := bext.ASCII(value)
	out := make([]byte, len(v)+1)
	copy(out, v)
	return out
}

// Serialize returns a LIST payload: the INFO type word and every sub-chunk
// in table order, each padded to an even length.
func Serialize(t *Table) []byte {
	var buf bytes.Buffer
	buf.Write(riff.IDInfo[:])
	for _, e := range t.Entries() {
		// Writes to a bytes.Buffer cannot fail.
		_ = riff.WriteChunk(&buf, e.Tag, e.Value)
	}
	return buf.Bytes()
}

// Build merges md into the table parsed from existing, which may be nil.
func Build(existing []byte, md *metadata.Metadata) []byte {
	return Serialize(Merge(Parse(existing), md))
}
