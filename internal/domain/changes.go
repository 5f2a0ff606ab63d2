package domain

import "sort"

// Changes is a sparse set of proposed member field values.
// Only fields present in the map are touched when the changes are applied;
// "" on an optional field means "clear it".
type Changes map[MemberField]string

// ParseChanges validates an untyped field map coming from a caller and returns typed Changes.
//
// Unknown keys, the immutable "id" key, empty sets and invalid values are all rejected here,
// at submission time, so nothing downstream has to cope with them.
func ParseChanges(raw map[string]string) (Changes, error) {
	if len(raw) == 0 {
		return nil, NewValidationError("changes", "must contain at least one field")
	}
	verr := &ValidationError{}
	out := make(Changes, len(raw))
	for k, v := range raw {
		if k == "id" {
			verr.Add(k, "is immutable")
			continue
		}
		f := MemberField(k)
		if !f.Valid() {
			verr.Add(k, "unknown field")
			continue
		}
		nv, err := NormalizeFieldValue(f, v)
		if err != nil {
			verr.Merge(err)
			continue
		}
		out[f] = nv
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate re-checks already-typed changes, e.g. ones loaded back from storage.
func (c Changes) Validate() error {
	if len(c) == 0 {
		return NewValidationError("changes", "must contain at least one field")
	}
	verr := &ValidationError{}
	for f, v := range c {
		nv, err := NormalizeFieldValue(f, v)
		if err != nil {
			verr.Merge(err)
			continue
		}
		if nv != v {
			verr.Add(string(f), "is not normalized")
		}
	}
	return verr.OrNil()
}

// Fields returns the changed fields in canonical member field order.
func (c Changes) Fields() []MemberField {
	out := make([]MemberField, 0, len(c))
	for f := range c {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return fieldIndex[out[i]] < fieldIndex[out[j]]
	})
	return out
}

// ApplyTo overwrites every field present in c on m and leaves the rest untouched.
func (c Changes) ApplyTo(m *Member) {
	for f, v := range c {
		m.Set(f, v)
	}
}

func (c Changes) Clone() Changes {
	if c == nil {
		return nil
	}
	out := make(Changes, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Raw returns the changes keyed by plain field names (wire and storage shape).
func (c Changes) Raw() map[string]string {
	out := make(map[string]string, len(c))
	for k, v := range c {
		out[string(k)] = v
	}
	return out
}
