package writer

import (
	"path/filepath"
	"strings"
	"testing"

	"nomen/internal/metadata"
	"nomen/internal/testsupport"
)

func TestVerifyWriteTruncatesLikeTheWriter(t *testing.T) {
	path := testsupport.WriteWAV(t, t.TempDir(), "long.wav")
	md := &metadata.Metadata{
		Description: metadata.String(strings.Repeat("é", 150) + strings.Repeat("x", 200)),
		Designer:    metadata.String("Zoë Sound Design Collective Ltd. International"),
	}
	if _, err := newTestWriter().WriteMetadata(path, md); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}
	if res := VerifyWrite(path, md); !res.OK {
		t.Fatalf("verify failed: %v", res.Errors)
	}
}

func TestVerifyWriteReportsMismatches(t *testing.T) {
	path := testsupport.WriteWAV(t, t.TempDir(), "a.wav",
		testsupport.WithInfo("INAM", "Old"),
	)
	written := &metadata.Metadata{
		Category:    metadata.String("WEATHER"),
		FXName:      metadata.String("New"),
		Description: metadata.String("one"),
	}
	if _, err := newTestWriter().WriteMetadata(path, written); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}
	if res := VerifyWrite(path, written); !res.OK {
		t.Fatalf("gap-filled INFO should verify: %v", res.Errors)
	}

	expected := &metadata.Metadata{
		Category:     metadata.String("FOLEY"),
		Description:  metadata.String("two"),
		Microphone:   metadata.String("MKH50"),
		Keywords:     metadata.String("k"),
		CustomFields: map[string]string{"SHOT": "1"},
	}
	res := VerifyWrite(path, expected)
	if res.OK {
		t.Fatal("expected mismatches")
	}
	joined := strings.Join(res.Errors, "\n")
	for _, want := range []string{
		"BEXT description mismatch",
		"USER/<CATEGORY> mismatch",
		"USER field <MICROPHONE> not found",
		"custom field <SHOT>",
		"ASWG/<category> mismatch",
		"INFO IKEY missing",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}
}

func TestVerifyWriteUnreadableFile(t *testing.T) {
	res := VerifyWrite(filepath.Join(t.TempDir(), "missing.wav"), &metadata.Metadata{})
	if res.OK || len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "failed to read file") {
		t.Fatalf("unexpected result: %+v", res)
	}
}
