package library

import (
	"context"
	"slices"

	"nomen/internal/faults"
	"nomen/internal/filestore"
	"nomen/internal/logging"
	"nomen/internal/metadata"
	"nomen/internal/reader"
)

// CustomFieldsChange is the changed-field name recorded for custom tag edits.
const CustomFieldsChange = "custom_fields"

// Edit stages values into a record without touching the file. Keys present
// in md overwrite the stored values, custom fields are merged by tag, and
// keys in unset are cleared. The record becomes modified and remembers every
// field edited since it was last read or saved.
func (s *Service) Edit(ctx context.Context, id string, md *metadata.Metadata, unset []metadata.Key) (*filestore.Record, error) {
	ctx = logging.WithOperation(ctx, "edit")
	logger := logging.WithContext(ctx, s.logger)

	rec, err := s.record(ctx, id)
	if err != nil {
		return nil, err
	}
	if md == nil {
		md = &metadata.Metadata{}
	}
	if len(md.Present()) == 0 && len(md.CustomFields) == 0 && len(unset) == 0 {
		return rec, nil
	}
	staged := rec.Metadata.Clone()
	if staged == nil {
		staged = &metadata.Metadata{}
	}
	changed := slices.Clone(rec.ChangedFields)
	mark := func(name string) {
		if !slices.Contains(changed, name) {
			changed = append(changed, name)
		}
	}
	for _, k := range md.Present() {
		v, _ := md.Get(k)
		if err := staged.Set(k, v); err != nil {
			return nil, err
		}
		mark(string(k))
	}
	for _, k := range unset {
		staged.Unset(k)
		mark(string(k))
	}
	for _, tag := range md.CustomTags() {
		staged.SetCustom(tag, md.CustomFields[tag])
		mark(CustomFieldsChange)
	}
	if err := staged.Validate(); err != nil {
		return nil, err
	}
	slices.Sort(changed)

	rec.Metadata = staged
	rec.ChangedFields = changed
	rec.Status = filestore.StatusModified
	stored, err := s.store.Put(ctx, rec)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "edit", "store record", err)
	}
	logger.Info("record edited",
		logging.String(logging.FieldRecordID, stored.ID),
		logging.String(logging.FieldPath, stored.Path),
		logging.Int("changed_fields", len(changed)),
	)
	return stored, nil
}

// Revert discards staged edits by reading the file again, whether or not it
// changed on disk.
func (s *Service) Revert(ctx context.Context, id string) (*filestore.Record, error) {
	ctx = logging.WithOperation(ctx, "revert")
	logger := logging.WithContext(ctx, s.logger)

	rec, err := s.record(ctx, id)
	if err != nil {
		return nil, err
	}
	hash, err := reader.QuickHash(rec.Path)
	if err != nil {
		return nil, err
	}
	fresh, err := s.readRecord(rec.Path, hash)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Put(ctx, fresh)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "revert", "store record", err)
	}
	logger.Info("record reverted",
		logging.String(logging.FieldRecordID, stored.ID),
		logging.String(logging.FieldPath, stored.Path),
		logging.Int("discarded_fields", len(rec.ChangedFields)),
	)
	return stored, nil
}

// SaveRecord writes the metadata staged in a record to its file.
func (s *Service) SaveRecord(ctx context.Context, id string, opts SaveOptions) (*SaveResult, error) {
	rec, err := s.record(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, rec.Path, nil, opts)
}

// BatchFailure is a record SaveRecords could not save.
type BatchFailure struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Err  error  `json:"-"`
}

// BatchResult summarizes SaveRecords.
type BatchResult struct {
	Saved  []*SaveResult  `json:"saved"`
	Failed []BatchFailure `json:"failed,omitempty"`
}

// SaveRecords saves each record in turn. A failure is reported and the
// remaining records are still saved.
func (s *Service) SaveRecords(ctx context.Context, ids []string) *BatchResult {
	result := &BatchResult{}
	for _, id := range ids {
		saved, err := s.SaveRecord(ctx, id, SaveOptions{})
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{ID: id, Code: faults.Code(err), Err: err})
			continue
		}
		result.Saved = append(result.Saved, saved)
	}
	return result
}

func (s *Service) record(ctx context.Context, id string) (*filestore.Record, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "record", "load record", err)
	}
	if rec == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "record", "no record "+id, nil)
	}
	return rec, nil
}
