package riff_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"nomen/internal/faults"
	"nomen/internal/riff"
	"nomen/internal/testsupport"
)

func TestReadChunkHeader(t *testing.T) {
	r := bytes.NewReader(testsupport.Chunk("XYZW", []byte{1, 2, 3}))
	id, size, err := riff.ReadChunkHeader(r)
	if err != nil {
		t.Fatalf("ReadChunkHeader: %v", err)
	}
	if id != riff.MakeID("XYZW") || size != 3 {
		t.Fatalf("unexpected header %q/%d", id, size)
	}
	if r.Len() != 4 {
		t.Fatalf("expected cursor advanced by 8 bytes, %d left", r.Len())
	}
}

func TestReadChunkHeaderTruncated(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("dat"), []byte("data\x01\x00")} {
		_, _, err := riff.ReadChunkHeader(bytes.NewReader(raw))
		if !errors.Is(err, riff.ErrTruncatedHeader) {
			t.Fatalf("expected truncated header for %q, got %v", raw, err)
		}
	}
}

func TestWriteChunkPadsOddPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := riff.WriteChunk(&buf, riff.MakeID("abcd"), []byte("xyz")); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	want := append([]byte("abcd\x03\x00\x00\x00xyz"), 0)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", buf.Bytes(), want)
	}

	buf.Reset()
	if err := riff.WriteChunk(&buf, riff.MakeID("abcd"), []byte("xy")); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	if buf.Len() != 10 {
		t.Fatalf("expected no pad for even payload, got %d bytes", buf.Len())
	}
}

func TestSkipPad(t *testing.T) {
	r := bytes.NewReader([]byte{0, 'n'})
	if err := riff.SkipPad(r, 3); err != nil {
		t.Fatalf("SkipPad: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one byte consumed, %d left", r.Len())
	}
	if err := riff.SkipPad(r, 4); err != nil || r.Len() != 1 {
		t.Fatalf("expected even size to consume nothing, err=%v left=%d", err, r.Len())
	}
	if err := riff.SkipPad(bytes.NewReader(nil), 1); err != nil {
		t.Fatalf("missing pad at EOF should be tolerated: %v", err)
	}
}

func TestCopyPayloadUsesSmallBuffer(t *testing.T) {
	src := bytes.Repeat([]byte("0123456789"), 50)
	var dst bytes.Buffer
	n, err := riff.CopyPayload(&dst, bytes.NewReader(src), int64(len(src)), make([]byte, 7))
	if err != nil {
		t.Fatalf("CopyPayload: %v", err)
	}
	if n != int64(len(src)) || !bytes.Equal(dst.Bytes(), src) {
		t.Fatalf("copy mismatch: n=%d", n)
	}
}

func TestCopyPayloadShortSource(t *testing.T) {
	var dst bytes.Buffer
	_, err := riff.CopyPayload(&dst, bytes.NewReader([]byte("abc")), 10, make([]byte, 4))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
}

func TestReadFileHeaderRejectsVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		want error
	}{
		{"too small", []byte("RIFF\x00\x00"), riff.ErrTooSmall},
		{"rifx", []byte("RIFX\x00\x00\x00\x00WAVE"), riff.ErrRIFX},
		{"rf64", []byte("RF64\xff\xff\xff\xffWAVE"), riff.ErrRF64},
		{"not riff", []byte("OggS\x00\x00\x00\x00WAVE"), riff.ErrNotRIFF},
		{"not wave", []byte("RIFF\x00\x00\x00\x00AVI "), riff.ErrNotWAVE},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := riff.ReadFileHeader(bytes.NewReader(tc.raw))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, faults.ErrFormat) {
				t.Fatalf("expected format error kind, got %v", err)
			}
		})
	}
}

func TestScannerWalksChunks(t *testing.T) {
	wav := testsupport.BuildWAV(
		testsupport.WithChunkBeforeData("odd ", []byte("abc")),
		testsupport.WithChunk("XYZW", []byte("tail")),
	)
	sc, err := riff.NewScanner(bytes.NewReader(wav))
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	var ids []string
	for {
		c, err := sc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		ids = append(ids, c.ID.String())
		if c.ID == riff.MakeID("XYZW") {
			payload, err := sc.ReadPayload()
			if err != nil {
				t.Fatalf("ReadPayload: %v", err)
			}
			if string(payload) != "tail" {
				t.Fatalf("unexpected payload %q", payload)
			}
		}
	}
	want := []string{"fmt ", "odd ", "data", "XYZW"}
	if len(ids) != len(want) {
		t.Fatalf("got ids %q, want %q", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got ids %q, want %q", ids, want)
		}
	}
}

func TestScannerClampsTruncatedChunk(t *testing.T) {
	trailing := make([]byte, 8+10)
	copy(trailing, "junk")
	binary.LittleEndian.PutUint32(trailing[4:], 1000)
	wav := testsupport.BuildWAV(testsupport.WithTrailingBytes(trailing))

	sc, err := riff.NewScanner(bytes.NewReader(wav))
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	var last riff.Chunk
	for {
		c, err := sc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		last = c
	}
	if last.ID != riff.MakeID("junk") {
		t.Fatalf("expected trailing chunk, got %q", last.ID)
	}
	if !last.Clamped || last.Size != 10 || last.DeclaredSize != 1000 {
		t.Fatalf("expected clamp to 10 bytes, got %+v", last)
	}
}

func TestScannerStopsOnPartialHeader(t *testing.T) {
	wav := testsupport.BuildWAV(testsupport.WithTrailingBytes([]byte("abc")))
	sc, err := riff.NewScanner(bytes.NewReader(wav))
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	count := 0
	for {
		if _, err := sc.Next(); err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("expected EOF, got %v", err)
			}
			break
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected fmt and data only, got %d chunks", count)
	}
}

func TestFinalizeSize(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := riff.WriteFileHeader(f); err != nil {
		t.Fatal(err)
	}
	if err := riff.WriteChunk(f, riff.IDData, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	total, err := riff.FinalizeSize(f)
	if err != nil {
		t.Fatalf("FinalizeSize: %v", err)
	}
	if total != 24 {
		t.Fatalf("expected 24 bytes, got %d", total)
	}
	raw, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); got != 16 {
		t.Fatalf("expected RIFF size 16, got %d", got)
	}
}
