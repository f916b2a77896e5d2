package metadata

// MergeStrategy decides whether an incoming value replaces an existing one.
type MergeStrategy int

const (
	// Overwrite replaces the existing value whenever the caller supplies a key.
	// iXML USER and ASWG blocks use it.
	Overwrite MergeStrategy = iota
	// GapFill only adds values whose tag is absent. RIFF INFO uses it so
	// legacy tags never clobber edits captured elsewhere.
	GapFill
)

// ShouldWrite reports whether an incoming value for a tag is written, given
// whether the target already holds that tag.
func (s MergeStrategy) ShouldWrite(existing bool) bool {
	switch s {
	case GapFill:
		return !existing
	default:
		return true
	}
}

func (s MergeStrategy) String() string {
	switch s {
	case GapFill:
		return "gap-fill"
	default:
		return "overwrite"
	}
}
