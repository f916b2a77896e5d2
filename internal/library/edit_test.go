package library_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"slices"
	"testing"

	"nomen/internal/faults"
	"nomen/internal/filestore"
	"nomen/internal/library"
	"nomen/internal/metadata"
	"nomen/internal/reader"
	"nomen/internal/testsupport"
)

func TestEditStagesChangesWithoutWriting(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	path := testsupport.WriteWAV(t, t.TempDir(), "door.wav", testsupport.WithInfo("INAM", "Door Slam", "IGNR", "DOORS"))
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	imported, err := svc.Import(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if imported.Status != filestore.StatusUnmodified || len(imported.ChangedFields) != 0 {
		t.Fatalf("imported = %+v", imported)
	}

	edited, err := svc.Edit(ctx, imported.ID, &metadata.Metadata{Category: metadata.String("WOOD")}, nil)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.Status != filestore.StatusModified {
		t.Fatalf("status = %s", edited.Status)
	}
	if got := value(t, edited.Metadata, metadata.Category); got != "WOOD" {
		t.Fatalf("category = %q", got)
	}
	if got := value(t, edited.Metadata, metadata.FXName); got != "Door Slam" {
		t.Fatalf("fx_name = %q, want the imported value kept", got)
	}

	md := &metadata.Metadata{}
	md.SetCustom("MOOD", "tense")
	edited, err = svc.Edit(ctx, imported.ID, md, []metadata.Key{metadata.FXName})
	if err != nil {
		t.Fatalf("second Edit: %v", err)
	}
	want := []string{"category", library.CustomFieldsChange, "fx_name"}
	if !slices.Equal(edited.ChangedFields, want) {
		t.Fatalf("changed fields = %v, want %v", edited.ChangedFields, want)
	}
	if edited.Metadata.Has(metadata.FXName) || edited.Metadata.CustomFields["MOOD"] != "tense" {
		t.Fatalf("metadata = %+v", edited.Metadata)
	}

	stored, err := store.GetByID(ctx, imported.ID)
	if err != nil || stored.Status != filestore.StatusModified {
		t.Fatalf("stored = %+v, %v", stored, err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("Edit must not touch the file")
	}
}

func TestEditRejectsUnknownRecordAndBadTags(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Edit(ctx, "missing", &metadata.Metadata{Category: metadata.String("X")}, nil); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	rec, err := svc.Import(ctx, testsupport.WriteWAV(t, t.TempDir(), "a.wav"))
	if err != nil {
		t.Fatal(err)
	}
	md := &metadata.Metadata{}
	md.SetCustom("CATEGORY", "x")
	if _, err := svc.Edit(ctx, rec.ID, md, nil); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	unchanged, err := svc.Edit(ctx, rec.ID, nil, nil)
	if err != nil || unchanged.Status != filestore.StatusUnmodified {
		t.Fatalf("empty edit = %+v, %v", unchanged, err)
	}
}

func TestRevertRereadsFile(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	path := testsupport.WriteWAV(t, t.TempDir(), "door.wav", testsupport.WithInfo("IGNR", "DOORS"))
	rec, err := svc.Import(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Edit(ctx, rec.ID, &metadata.Metadata{Category: metadata.String("WOOD")}, nil); err != nil {
		t.Fatal(err)
	}

	reverted, err := svc.Revert(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if reverted.ID != rec.ID || reverted.Status != filestore.StatusUnmodified || len(reverted.ChangedFields) != 0 {
		t.Fatalf("reverted = %+v", reverted)
	}
	if got := value(t, reverted.Metadata, metadata.Category); got != "DOORS" {
		t.Fatalf("category = %q, want DOORS", got)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Revert(ctx, rec.ID); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found for missing file, got %v", err)
	}
}

func TestSaveWritesStagedMetadata(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	path := testsupport.WriteWAV(t, t.TempDir(), "rain.wav")
	rec, err := svc.Import(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Edit(ctx, rec.ID, &metadata.Metadata{Category: metadata.String("WEATHER")}, nil); err != nil {
		t.Fatal(err)
	}

	result, err := svc.SaveRecord(ctx, rec.ID, library.SaveOptions{})
	if err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if result.Record.Status != filestore.StatusSaved || len(result.Record.ChangedFields) != 0 {
		t.Fatalf("record = %+v", result.Record)
	}
	snap, err := reader.Read(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := value(t, snap.Metadata, metadata.Category); got != "WEATHER" {
		t.Fatalf("category on disk = %q", got)
	}
}

func TestSaveWithoutMetadataNeedsRecord(t *testing.T) {
	svc, _, _ := newService(t)
	path := testsupport.WriteWAV(t, t.TempDir(), "a.wav")
	if _, err := svc.Save(context.Background(), path, nil, library.SaveOptions{}); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveRecordsContinuesPastFailures(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	dir := t.TempDir()
	good, err := svc.Import(ctx, testsupport.WriteWAV(t, dir, "good.wav"))
	if err != nil {
		t.Fatal(err)
	}
	changed, err := svc.Import(ctx, testsupport.WriteWAV(t, dir, "changed.wav"))
	if err != nil {
		t.Fatal(err)
	}
	testsupport.WriteWAV(t, dir, "changed.wav", testsupport.WithInfo("INAM", "Other"))

	result := svc.SaveRecords(ctx, []string{changed.ID, "missing", good.ID})
	if len(result.Saved) != 1 || result.Saved[0].Record.ID != good.ID {
		t.Fatalf("saved = %+v", result.Saved)
	}
	codes := map[string]string{}
	for _, f := range result.Failed {
		codes[f.ID] = f.Code
	}
	if codes[changed.ID] != faults.CodeFileChanged || codes["missing"] != faults.CodeFileNotFound {
		t.Fatalf("failures = %+v", result.Failed)
	}
}
