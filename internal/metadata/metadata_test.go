package metadata_test

import (
	"errors"
	"testing"

	"nomen/internal/faults"
	"nomen/internal/metadata"
)

func TestGetSetPresence(t *testing.T) {
	var md metadata.Metadata
	if md.Has(metadata.Category) {
		t.Fatal("expected category absent on zero value")
	}
	if err := md.Set(metadata.Category, ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok := md.Get(metadata.Category)
	if !ok || v != "" {
		t.Fatalf("expected present empty category, got %q ok=%v", v, ok)
	}
	md.Unset(metadata.Category)
	if md.Has(metadata.Category) {
		t.Fatal("expected category absent after Unset")
	}
	if err := md.Set(metadata.Key("bogus"), "x"); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error for unknown key, got %v", err)
	}
}

func TestEveryKeyHasASlot(t *testing.T) {
	var md metadata.Metadata
	for _, k := range metadata.Keys {
		if err := md.Set(k, string(k)); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	if got := len(md.Present()); got != len(metadata.Keys) {
		t.Fatalf("expected %d present keys, got %d", len(metadata.Keys), got)
	}
	clone := md.Clone()
	for _, k := range metadata.Keys {
		if v, _ := clone.Get(k); v != string(k) {
			t.Fatalf("clone lost %s: %q", k, v)
		}
	}
}

func TestNeedsPredicates(t *testing.T) {
	tests := []struct {
		name                 string
		md                   metadata.Metadata
		bext, ixml, infoNeed bool
	}{
		{name: "empty"},
		{name: "designer only", md: metadata.Metadata{Designer: metadata.String("A")}, bext: true, ixml: true, infoNeed: true},
		{name: "empty description", md: metadata.Metadata{Description: metadata.String("")}, bext: true, ixml: true},
		{name: "project only", md: metadata.Metadata{Project: metadata.String("P")}, ixml: true},
		{name: "custom only", md: metadata.Metadata{CustomFields: map[string]string{"TAKE": "3"}}, ixml: true},
		{name: "keywords", md: metadata.Metadata{Keywords: metadata.String("rain")}, ixml: true, infoNeed: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.md.NeedsBext(); got != tc.bext {
				t.Fatalf("NeedsBext = %v, want %v", got, tc.bext)
			}
			if got := tc.md.NeedsIXML(); got != tc.ixml {
				t.Fatalf("NeedsIXML = %v, want %v", got, tc.ixml)
			}
			if got := tc.md.NeedsInfo(); got != tc.infoNeed {
				t.Fatalf("NeedsInfo = %v, want %v", got, tc.infoNeed)
			}
		})
	}
}

func TestUserFieldsOrderAndCollisions(t *testing.T) {
	md := metadata.Metadata{
		FXName:   metadata.String("Rumble"),
		Category: metadata.String("WEATHER"),
		CustomFields: map[string]string{
			"ZED":      "z",
			"ALPHA":    "a",
			"CATEGORY": "shadow",
		},
	}
	fields := md.UserFields("NomenAudio")
	want := []metadata.Field{
		{Tag: "CATEGORY", Value: "WEATHER"},
		{Tag: "FXNAME", Value: "Rumble"},
		{Tag: "EMBEDDER", Value: "NomenAudio"},
		{Tag: "ALPHA", Value: "a"},
		{Tag: "ZED", Value: "z"},
	}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %+v", len(want), fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("field %d = %+v, want %+v", i, fields[i], want[i])
		}
	}
}

func TestASWGFieldsIncludeOriginatorAndContentType(t *testing.T) {
	md := metadata.Metadata{Designer: metadata.String("TESTUSER"), Microphone: metadata.String("MKH416")}
	fields := md.ASWGFields()
	got := map[string]string{}
	for _, f := range fields {
		got[f.Tag] = f.Value
	}
	if got["originator"] != "TESTUSER" || got["micType"] != "MKH416" || got["contentType"] != "sfx" {
		t.Fatalf("unexpected ASWG fields: %+v", fields)
	}
	if last := fields[len(fields)-1]; last.Tag != metadata.ContentTypeTag {
		t.Fatalf("expected contentType last, got %+v", last)
	}
}

func TestInfoFieldsSkipEmpty(t *testing.T) {
	md := metadata.Metadata{FXName: metadata.String(""), Designer: metadata.String("D")}
	fields := md.InfoFields()
	if len(fields) != 1 || fields[0].Tag != "IART" {
		t.Fatalf("expected only IART, got %+v", fields)
	}
}

func TestMergeStrategies(t *testing.T) {
	if !metadata.Overwrite.ShouldWrite(true) || !metadata.Overwrite.ShouldWrite(false) {
		t.Fatal("overwrite must always write")
	}
	if metadata.GapFill.ShouldWrite(true) || !metadata.GapFill.ShouldWrite(false) {
		t.Fatal("gap-fill must only write absent tags")
	}
	if metadata.GapFill.String() != "gap-fill" {
		t.Fatalf("unexpected name %q", metadata.GapFill.String())
	}
}

func TestValidateCustomFields(t *testing.T) {
	tests := []struct {
		tag     string
		wantErr bool
	}{
		{"TAKE_NUMBER", false},
		{"MIC2", false},
		{"catId", true},
		{"CATEGORY", true},
		{"EMBEDDER", true},
		{"has space", true},
		{"", true},
	}
	for _, tc := range tests {
		md := metadata.Metadata{CustomFields: map[string]string{tc.tag: "v"}}
		err := md.Validate()
		if tc.wantErr && !errors.Is(err, faults.ErrValidation) {
			t.Fatalf("tag %q: expected validation error, got %v", tc.tag, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("tag %q: unexpected error %v", tc.tag, err)
		}
	}
}

func TestParseKey(t *testing.T) {
	if k, ok := metadata.ParseKey(" FX_Name "); !ok || k != metadata.FXName {
		t.Fatalf("ParseKey = %q %v", k, ok)
	}
	if _, ok := metadata.ParseKey("title"); ok {
		t.Fatal("expected unknown key")
	}
}
