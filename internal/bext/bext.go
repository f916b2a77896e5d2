package bext

import (
	"bytes"
	"encoding/binary"
	"strings"
	"time"
	"unicode/utf8"

	"nomen/internal/metadata"
)

// Field widths and the fixed portion size.
const (
	DescriptionSize     = 256
	OriginatorSize      = 32
	OriginatorRefSize   = 32
	OriginationDateSize = 10
	OriginationTimeSize = 8
	UMIDSize            = 64
	ReservedSize        = 180
	FixedSize           = 602
)

const (
	offDescription   = 0
	offOriginator    = 256
	offOriginatorRef = 288
	offDate          = 320
	offTime          = 330
	offTimeRefLow    = 338
	offTimeRefHigh   = 342
	offVersion       = 346
	offUMID          = 348
	offLoudness      = 412
	offReserved      = 422
)

// Fields is the decoded chunk. Text fields hold the stored bytes with
// trailing NULs removed, so an unpack/pack cycle is lossless.
type Fields struct {
	Description     string
	Originator      string
	OriginatorRef   string
	OriginationDate string
	OriginationTime string
	TimeRefLow      uint32
	TimeRefHigh     uint32
	Version         uint16
	UMID            [UMIDSize]byte
	LoudnessValue   int16
	LoudnessRange   int16
	MaxTruePeak     int16
	MaxMomentary    int16
	MaxShortTerm    int16
	Reserved        [ReservedSize]byte
	CodingHistory   []byte
}

// TimeReference combines the split sample counter.
func (f Fields) TimeReference() uint64 {
	return uint64(f.TimeRefHigh)<<32 | uint64(f.TimeRefLow)
}

// Unpack decodes a chunk payload. Payloads shorter than FixedSize are zero
// padded first, so Unpack never fails.
func Unpack(payload []byte) Fields {
	data := payload
	if len(data) < FixedSize {
		data = make([]byte, FixedSize)
		copy(data, payload)
	}
	le := binary.LittleEndian
	f := Fields{
		Description:     trimNUL(data[offDescription:offOriginator]),
		Originator:      trimNUL(data[offOriginator:offOriginatorRef]),
		OriginatorRef:   trimNUL(data[offOriginatorRef:offDate]),
		OriginationDate: trimNUL(data[offDate:offTime]),
		OriginationTime: trimNUL(data[offTime:offTimeRefLow]),
		TimeRefLow:      le.Uint32(data[offTimeRefLow:]),
		TimeRefHigh:     le.Uint32(data[offTimeRefHigh:]),
		Version:         le.Uint16(data[offVersion:]),
		LoudnessValue:   int16(le.Uint16(data[offLoudness:])),
		LoudnessRange:   int16(le.Uint16(data[offLoudness+2:])),
		MaxTruePeak:     int16(le.Uint16(data[offLoudness+4:])),
		MaxMomentary:    int16(le.Uint16(data[offLoudness+6:])),
		MaxShortTerm:    int16(le.Uint16(data[offLoudness+8:])),
	}
	copy(f.UMID[:], data[offUMID:offLoudness])
	copy(f.Reserved[:], data[offReserved:FixedSize])
	if len(data) > FixedSize {
		f.CodingHistory = bytes.Clone(data[FixedSize:])
	}
	return f
}

// Pack encodes f. Text fields are NUL padded or truncated to their widths.
func Pack(f Fields) []byte {
	out := make([]byte, FixedSize, FixedSize+len(f.CodingHistory))
	putText(out[offDescription:offOriginator], f.Description)
	putText(out[offOriginator:offOriginatorRef], f.Originator)
	putText(out[offOriginatorRef:offDate], f.OriginatorRef)
	putText(out[offDate:offTime], f.OriginationDate)
	putText(out[offTime:offTimeRefLow], f.OriginationTime)
	le := binary.LittleEndian
	le.PutUint32(out[offTimeRefLow:], f.TimeRefLow)
	le.PutUint32(out[offTimeRefHigh:], f.TimeRefHigh)
	le.PutUint16(out[offVersion:], f.Version)
	copy(out[offUMID:offLoudness], f.UMID[:])
	le.PutUint16(out[offLoudness:], uint16(f.LoudnessValue))
	le.PutUint16(out[offLoudness+2:], uint16(f.LoudnessRange))
	le.PutUint16(out[offLoudness+4:], uint16(f.MaxTruePeak))
	le.PutUint16(out[offLoudness+6:], uint16(f.MaxMomentary))
	le.PutUint16(out[offLoudness+8:], uint16(f.MaxShortTerm))
	copy(out[offReserved:FixedSize], f.Reserved[:])
	return append(out, f.CodingHistory...)
}

// Update rewrites description and originator from md when present and
// leaves every other field as stored.
func Update(existing []byte, md *metadata.Metadata) []byte {
	f := Unpack(existing)
	apply(&f, md)
	return Pack(f)
}

// BuildDefault creates a chunk for a file that had none. Date and time come
// from at; loudness fields stay zero.
func BuildDefault(md *metadata.Metadata, at time.Time) []byte {
	f := Fields{
		OriginationDate: at.Format("2006-01-02"),
		OriginationTime: at.Format("15:04:05"),
		Version:         1,
	}
	apply(&f, md)
	return Pack(f)
}

func apply(f *Fields, md *metadata.Metadata) {
	if v, ok := md.Get(metadata.Description); ok {
		f.Description = ASCII(v)
	}
	if v, ok := md.Get(metadata.Designer); ok {
		f.Originator = ASCII(v)
	}
}

// ASCII replaces every non-ASCII rune, and every invalid UTF-8 byte, with '?'.
func ASCII(s string) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= utf8.RuneSelf {
			b.WriteByte('?')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Expected returns what a field of the given width holds after value is
// written, for comparison against a read-back.
func Expected(value string, width int) string {
	v := ASCII(value)
	if len(v) > width {
		v = v[:width]
	}
	return strings.TrimRight(v, "\x00")
}

// Text returns a stored field as display text: cut at the first NUL, with
// non-ASCII bytes shown as '?'.
func Text(raw string) string {
	if i := strings.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return ASCII(raw)
}

func putText(dst []byte, value string) {
	copy(dst, value)
}

func trimNUL(b []byte) string {
	return string(bytes.TrimRight(b, "\x00"))
}
