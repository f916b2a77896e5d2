package metadata

// TagMapping binds a metadata key to a tag in one of the target chunks.
type TagMapping struct {
	Key Key
	Tag string
}

// Field is one tag and the value to store under it.
type Field struct {
	Tag   string
	Value string
}

const (
	// EmbedderTag identifies the writing tool inside the USER block.
	EmbedderTag = "EMBEDDER"
	// ContentTypeTag is forced to ContentTypeSFX in the ASWG block.
	ContentTypeTag = "contentType"
	ContentTypeSFX = "sfx"
)

// UserTags maps keys to iXML USER tags (Soundminer/BaseHead convention).
var UserTags = []TagMapping{
	{Category, "CATEGORY"},
	{Subcategory, "SUBCATEGORY"},
	{CatID, "CATID"},
	{CategoryFull, "CATEGORYFULL"},
	{FXName, "FXNAME"},
	{Description, "DESCRIPTION"},
	{Keywords, "KEYWORDS"},
	{Notes, "NOTES"},
	{Designer, "DESIGNER"},
	{Library, "LIBRARY"},
	{UserCategory, "USERCATEGORY"},
	{Microphone, "MICROPHONE"},
	{MicPerspective, "MICPERSPECTIVE"},
	{RecMedium, "RECMEDIUM"},
	{ReleaseDate, "RELEASEDATE"},
	{Rating, "RATING"},
	{Manufacturer, "MANUFACTURER"},
	{RecType, "RECTYPE"},
	{CreatorID, "CREATORID"},
	{SourceID, "SOURCEID"},
}

// ASWGTags maps keys to iXML ASWG tags. The trailing originator entry takes
// its value from the designer key.
var ASWGTags = []TagMapping{
	{Category, "category"},
	{Subcategory, "subCategory"},
	{CatID, "catId"},
	{UserCategory, "userCategory"},
	{FXName, "fxName"},
	{Library, "library"},
	{Notes, "notes"},
	{Project, "project"},
	{Microphone, "micType"},
	{IsDesigned, "isDesigned"},
	{Manufacturer, "manufacturer"},
	{RecType, "recType"},
	{CreatorID, "creatorId"},
	{SourceID, "sourceId"},
	{Designer, "originator"},
}

// InfoTags maps keys to RIFF LIST/INFO sub-chunk tags.
var InfoTags = []TagMapping{
	{FXName, "INAM"},
	{Designer, "IART"},
	{Category, "IGNR"},
	{Notes, "ICMT"},
	{Library, "IPRD"},
	{Keywords, "IKEY"},
}

var builtinUserTags = func() map[string]struct{} {
	out := make(map[string]struct{}, len(UserTags)+1)
	for _, m := range UserTags {
		out[m.Tag] = struct{}{}
	}
	out[EmbedderTag] = struct{}{}
	return out
}()

// IsBuiltinUserTag reports whether tag is one of the known USER tags or
// EMBEDDER.
func IsBuiltinUserTag(tag string) bool {
	_, ok := builtinUserTags[tag]
	return ok
}

// UserFields returns the USER block values carried by m, in mapping order,
// followed by EMBEDDER and the custom fields sorted by tag. Custom fields that
// collide with a built-in tag are skipped.
func (m *Metadata) UserFields(embedder string) []Field {
	out := make([]Field, 0, len(UserTags)+1)
	for _, mapping := range UserTags {
		if v, ok := m.Get(mapping.Key); ok {
			out = append(out, Field{Tag: mapping.Tag, Value: v})
		}
	}
	out = append(out, Field{Tag: EmbedderTag, Value: embedder})
	for _, tag := range m.CustomTags() {
		if IsBuiltinUserTag(tag) {
			continue
		}
		out = append(out, Field{Tag: tag, Value: m.CustomFields[tag]})
	}
	return out
}

// ASWGFields returns the ASWG block values carried by m followed by the
// forced contentType marker.
func (m *Metadata) ASWGFields() []Field {
	out := make([]Field, 0, len(ASWGTags)+1)
	for _, mapping := range ASWGTags {
		if v, ok := m.Get(mapping.Key); ok {
			out = append(out, Field{Tag: mapping.Tag, Value: v})
		}
	}
	return append(out, Field{Tag: ContentTypeTag, Value: ContentTypeSFX})
}

// InfoFields returns the INFO values carried by m. Empty values are omitted
// because INFO only fills gaps.
func (m *Metadata) InfoFields() []Field {
	out := make([]Field, 0, len(InfoTags))
	for _, mapping := range InfoTags {
		if v, ok := m.Get(mapping.Key); ok && v != "" {
			out = append(out, Field{Tag: mapping.Tag, Value: v})
		}
	}
	return out
}
