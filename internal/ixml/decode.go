package ixml

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode converts raw chunk bytes to text. A UTF-16 byte order mark selects
// UTF-16; otherwise the bytes are read as UTF-8, or as Latin-1 when they are
// not valid UTF-8. Decode never fails. Trailing NULs and surrounding
// whitespace are removed.
func Decode(raw []byte) string {
	var text string
	switch {
	case bytes.HasPrefix(raw, bomUTF16LE):
		text = decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), raw[2:])
	case bytes.HasPrefix(raw, bomUTF16BE):
		text = decodeWith(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), raw[2:])
	case utf8.Valid(raw):
		text = strings.TrimPrefix(string(raw), "\ufeff")
	default:
		text = decodeWith(charmap.ISO8859_1, raw)
	}
	return strings.TrimSpace(strings.TrimRight(text, "\x00 \t\r\n"))
}

func decodeWith(enc encoding.Encoding, raw []byte) string {
	// The x/text decoders substitute U+FFFD for malformed input, so the only
	// error left is a truncated trailing code unit.
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte("\uFFFD")))
	}
	return string(out)
}
