package domain

// FieldDiff compares one proposed field value against the stored one.
type FieldDiff struct {
	Field    MemberField
	Current  string
	Proposed string
	// Changed is false when the proposal equals the stored value.
	Changed bool
}

// DiffMember reports, for every field present in changes, the stored and proposed values.
// It never mutates m.
func DiffMember(m Member, changes Changes) []FieldDiff {
	out := make([]FieldDiff, 0, len(changes))
	for _, f := range changes.Fields() {
		cur := m.Get(f)
		prop := changes[f]
		out = append(out, FieldDiff{
			Field:    f,
			Current:  cur,
			Proposed: prop,
			Changed:  cur != prop,
		})
	}
	return out
}

// ChangedFields filters diffs down to the entries that would actually alter the record.
func ChangedFields(diffs []FieldDiff) []FieldDiff {
	out := make([]FieldDiff, 0, len(diffs))
	for _, d := range diffs {
		if d.Changed {
			out = append(out, d)
		}
	}
	return out
}
