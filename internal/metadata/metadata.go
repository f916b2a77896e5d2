package metadata

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"nomen/internal/faults"
)

// Key names one of the recognized metadata fields.
type Key string

const (
	Category       Key = "category"
	Subcategory    Key = "subcategory"
	CatID          Key = "cat_id"
	CategoryFull   Key = "category_full"
	UserCategory   Key = "user_category"
	FXName         Key = "fx_name"
	Description    Key = "description"
	Keywords       Key = "keywords"
	Notes          Key = "notes"
	Designer       Key = "designer"
	Library        Key = "library"
	Project        Key = "project"
	Microphone     Key = "microphone"
	MicPerspective Key = "mic_perspective"
	RecMedium      Key = "rec_medium"
	ReleaseDate    Key = "release_date"
	Rating         Key = "rating"
	IsDesigned     Key = "is_designed"
	Manufacturer   Key = "manufacturer"
	RecType        Key = "rec_type"
	CreatorID      Key = "creator_id"
	SourceID       Key = "source_id"
)

// Keys lists every recognized key in canonical order.
var Keys = []Key{
	Category, Subcategory, CatID, CategoryFull, UserCategory, FXName,
	Description, Keywords, Notes, Designer, Library, Project, Microphone,
	MicPerspective, RecMedium, ReleaseDate, Rating, IsDesigned,
	Manufacturer, RecType, CreatorID, SourceID,
}

// Metadata is the set of values to merge into a file.
type Metadata struct {
	Category       *string `json:"category,omitempty"`
	Subcategory    *string `json:"subcategory,omitempty"`
	CatID          *string `json:"cat_id,omitempty"`
	CategoryFull   *string `json:"category_full,omitempty"`
	UserCategory   *string `json:"user_category,omitempty"`
	FXName         *string `json:"fx_name,omitempty"`
	Description    *string `json:"description,omitempty"`
	Keywords       *string `json:"keywords,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	Designer       *string `json:"designer,omitempty"`
	Library        *string `json:"library,omitempty"`
	Project        *string `json:"project,omitempty"`
	Microphone     *string `json:"microphone,omitempty"`
	MicPerspective *string `json:"mic_perspective,omitempty"`
	RecMedium      *string `json:"rec_medium,omitempty"`
	ReleaseDate    *string `json:"release_date,omitempty"`
	Rating         *string `json:"rating,omitempty"`
	IsDesigned     *string `json:"is_designed,omitempty"`
	Manufacturer   *string `json:"manufacturer,omitempty"`
	RecType        *string `json:"rec_type,omitempty"`
	CreatorID      *string `json:"creator_id,omitempty"`
	SourceID       *string `json:"source_id,omitempty"`

	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

// String returns a pointer to value, for building Metadata literals.
func String(value string) *string { return &value }

func (m *Metadata) slot(k Key) **string {
	switch k {
	case Category:
		return &m.Category
	case Subcategory:
		return &m.Subcategory
	case CatID:
		return &m.CatID
	case CategoryFull:
		return &m.CategoryFull
	case UserCategory:
		return &m.UserCategory
	case FXName:
		return &m.FXName
	case Description:
		return &m.Description
	case Keywords:
		return &m.Keywords
	case Notes:
		return &m.Notes
	case Designer:
		return &m.Designer
	case Library:
		return &m.Library
	case Project:
		return &m.Project
	case Microphone:
		return &m.Microphone
	case MicPerspective:
		return &m.MicPerspective
	case RecMedium:
		return &m.RecMedium
	case ReleaseDate:
		return &m.ReleaseDate
	case Rating:
		return &m.Rating
	case IsDesigned:
		return &m.IsDesigned
	case Manufacturer:
		return &m.Manufacturer
	case RecType:
		return &m.RecType
	case CreatorID:
		return &m.CreatorID
	case SourceID:
		return &m.SourceID
	}
	return nil
}

// Get returns the value for k and whether the key is present.
func (m *Metadata) Get(k Key) (string, bool) {
	if m == nil {
		return "", false
	}
	p := m.slot(k)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

// Has reports whether k is present, regardless of its value.
func (m *Metadata) Has(k Key) bool {
	_, ok := m.Get(k)
	return ok
}

// Set marks k present with value.
func (m *Metadata) Set(k Key, value string) error {
	p := m.slot(k)
	if p == nil {
		return faults.Wrap(faults.ErrValidation, "metadata", fmt.Sprintf("unknown field %q", k), nil)
	}
	*p = &value
	return nil
}

// Unset marks k absent.
func (m *Metadata) Unset(k Key) {
	if p := m.slot(k); p != nil {
		*p = nil
	}
}

// SetCustom stores a custom USER tag value.
func (m *Metadata) SetCustom(tag, value string) {
	if m.CustomFields == nil {
		m.CustomFields = make(map[string]string)
	}
	m.CustomFields[tag] = value
}

// Present returns the keys that are set, in canonical order.
func (m *Metadata) Present() []Key {
	out := make([]Key, 0, len(Keys))
	for _, k := range Keys {
		if m.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// CustomTags returns the custom field tags in sorted order.
func (m *Metadata) CustomTags() []string {
	if m == nil {
		return nil
	}
	tags := make([]string, 0, len(m.CustomFields))
	for tag := range m.CustomFields {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Clone returns a deep copy.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	out := &Metadata{}
	for _, k := range Keys {
		if v, ok := m.Get(k); ok {
			_ = out.Set(k, v)
		}
	}
	for tag, v := range m.CustomFields {
		out.SetCustom(tag, v)
	}
	return out
}

// NeedsBext reports whether a bext chunk must exist after a write.
func (m *Metadata) NeedsBext() bool {
	return m.Has(Description) || m.Has(Designer)
}

// NeedsIXML reports whether an iXML chunk must exist after a write.
func (m *Metadata) NeedsIXML() bool {
	for _, mapping := range UserTags {
		if m.Has(mapping.Key) {
			return true
		}
	}
	for _, mapping := range ASWGTags {
		if m.Has(mapping.Key) {
			return true
		}
	}
	return m != nil && len(m.CustomFields) > 0
}

// NeedsInfo reports whether any INFO-mapped key carries a non-empty value.
func (m *Metadata) NeedsInfo() bool {
	for _, mapping := range InfoTags {
		if v, ok := m.Get(mapping.Key); ok && v != "" {
			return true
		}
	}
	return false
}

var customTagPattern = regexp.MustCompile(`^[A-Z0-9_]+$`)

// ValidCustomTag reports whether tag is usable as a custom USER tag.
func ValidCustomTag(tag string) error {
	switch {
	case !customTagPattern.MatchString(tag):
		return fmt.Errorf("custom field tag %q must match [A-Z0-9_]+", tag)
	case IsBuiltinUserTag(tag):
		return fmt.Errorf("custom field tag %q collides with a built-in USER tag", tag)
	}
	return nil
}

// Validate checks the custom fields. Tags colliding with a built-in USER tag
// or not in upper-case form are rejected; camelCase ASWG names can never
// pass the pattern, so custom fields cannot reach the ASWG block.
func (m *Metadata) Validate() error {
	if m == nil {
		return nil
	}
	for _, tag := range m.CustomTags() {
		if err := ValidCustomTag(tag); err != nil {
			return faults.Wrap(faults.ErrValidation, "metadata", err.Error(), nil)
		}
	}
	return nil
}

// ParseKey resolves a user-supplied field name.
func ParseKey(name string) (Key, bool) {
	k := Key(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Keys {
		if known == k {
			return k, true
		}
	}
	return "", false
}
