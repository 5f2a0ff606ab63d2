package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of every date-valued member field.
const DateLayout = "2006-01-02"

// MemberField names an editable member field. The value is the JSON field name.
type MemberField string

const (
	FieldFullName         MemberField = "fullName"
	FieldBirthDate        MemberField = "birthDate"
	FieldHometown         MemberField = "hometown"
	FieldNativePlace      MemberField = "nativePlace"
	FieldCurrentResidence MemberField = "currentResidence"
	FieldEthnicity        MemberField = "ethnicity"
	FieldReligion         MemberField = "religion"
	FieldMilitaryRank     MemberField = "militaryRank"
	FieldPosition         MemberField = "position"
	FieldUnit             MemberField = "unit"

	FieldPartyDate       MemberField = "partyDate"
	FieldOfficialDate    MemberField = "officialDate"
	FieldPartyCardNumber MemberField = "partyCardNumber"
	FieldIntroducer1     MemberField = "introducer1"
	FieldIntroducer2     MemberField = "introducer2"
	FieldStatus          MemberField = "status"
	FieldRole            MemberField = "role"

	FieldEducationLevel  MemberField = "educationLevel"
	FieldTechnicalTitle  MemberField = "technicalTitle"
	FieldPoliticalTheory MemberField = "politicalTheory"
	FieldForeignLanguage MemberField = "foreignLanguage"
	FieldHealthStatus    MemberField = "healthStatus"

	FieldBackground        MemberField = "background"
	FieldRewardHistory     MemberField = "rewardHistory"
	FieldDisciplineHistory MemberField = "disciplineHistory"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindName
	kindLongText
	kindDate
	kindStatus
	kindRole
)

type fieldSpec struct {
	field    MemberField
	kind     fieldKind
	required bool

	// ptr is set for optional fields only.
	ptr func(m *Member) **string
	get func(m *Member) string
	set func(m *Member, v string)
}

func optionalField(f MemberField, kind fieldKind, ptr func(m *Member) **string) fieldSpec {
	return fieldSpec{
		field: f,
		kind:  kind,
		ptr:   ptr,
		get: func(m *Member) string {
			if p := *ptr(m); p != nil {
				return *p
			}
			return ""
		},
		set: func(m *Member, v string) {
			if v == "" {
				*ptr(m) = nil
				return
			}
			*ptr(m) = &v
		},
	}
}

// memberFieldSpecs is the canonical field order (the order the profile form shows them).
var memberFieldSpecs = []fieldSpec{
	{
		field: FieldFullName, kind: kindName, required: true,
		get: func(m *Member) string { return m.FullName },
		set: func(m *Member, v string) { m.FullName = v },
	},
	optionalField(FieldBirthDate, kindDate, func(m *Member) **string { return &m.BirthDate }),
	optionalField(FieldHometown, kindText, func(m *Member) **string { return &m.Hometown }),
	optionalField(FieldNativePlace, kindText, func(m *Member) **string { return &m.NativePlace }),
	optionalField(FieldCurrentResidence, kindText, func(m *Member) **string { return &m.CurrentResidence }),
	optionalField(FieldEthnicity, kindText, func(m *Member) **string { return &m.Ethnicity }),
	optionalField(FieldReligion, kindText, func(m *Member) **string { return &m.Religion }),
	optionalField(FieldMilitaryRank, kindText, func(m *Member) **string { return &m.MilitaryRank }),
	optionalField(FieldPosition, kindText, func(m *Member) **string { return &m.Position }),
	optionalField(FieldUnit, kindText, func(m *Member) **string { return &m.Unit }),
	{
		field: FieldPartyDate, kind: kindDate, required: true,
		get: func(m *Member) string { return m.PartyDate },
		set: func(m *Member, v string) { m.PartyDate = v },
	},
	optionalField(FieldOfficialDate, kindDate, func(m *Member) **string { return &m.OfficialDate }),
	optionalField(FieldPartyCardNumber, kindText, func(m *Member) **string { return &m.PartyCardNumber }),
	optionalField(FieldIntroducer1, kindName, func(m *Member) **string { return &m.Introducer1 }),
	optionalField(FieldIntroducer2, kindName, func(m *Member) **string { return &m.Introducer2 }),
	{
		field: FieldStatus, kind: kindStatus, required: true,
		get: func(m *Member) string { return string(m.Status) },
		set: func(m *Member, v string) { m.Status = MemberStatus(v) },
	},
	{
		field: FieldRole, kind: kindRole, required: true,
		get: func(m *Member) string { return string(m.Role) },
		set: func(m *Member, v string) { m.Role = MemberRole(v) },
	},
	optionalField(FieldEducationLevel, kindText, func(m *Member) **string { return &m.EducationLevel }),
	optionalField(FieldTechnicalTitle, kindText, func(m *Member) **string { return &m.TechnicalTitle }),
	optionalField(FieldPoliticalTheory, kindText, func(m *Member) **string { return &m.PoliticalTheory }),
	optionalField(FieldForeignLanguage, kindText, func(m *Member) **string { return &m.ForeignLanguage }),
	optionalField(FieldHealthStatus, kindText, func(m *Member) **string { return &m.HealthStatus }),
	optionalField(FieldBackground, kindLongText, func(m *Member) **string { return &m.Background }),
	optionalField(FieldRewardHistory, kindLongText, func(m *Member) **string { return &m.RewardHistory }),
	optionalField(FieldDisciplineHistory, kindLongText, func(m *Member) **string { return &m.DisciplineHistory }),
}

var fieldIndex = func() map[MemberField]int {
	idx := make(map[MemberField]int, len(memberFieldSpecs))
	for i, s := range memberFieldSpecs {
		idx[s.field] = i
	}
	return idx
}()

func lookupField(f MemberField) (fieldSpec, bool) {
	i, ok := fieldIndex[f]
	if !ok {
		return fieldSpec{}, false
	}
	return memberFieldSpecs[i], true
}

// MemberFields returns every editable member field in canonical order.
func MemberFields() []MemberField {
	out := make([]MemberField, 0, len(memberFieldSpecs))
	for _, s := range memberFieldSpecs {
		out = append(out, s.field)
	}
	return out
}

// Valid reports whether f names a known member field.
func (f MemberField) Valid() bool {
	_, ok := fieldIndex[f]
	return ok
}

// Required reports whether the field may never be cleared.
func (f MemberField) Required() bool {
	s, ok := lookupField(f)
	return ok && s.required
}

// Get returns the field's current value; unset optional fields read as "".
// Unknown fields read as "".
func (m Member) Get(f MemberField) string {
	s, ok := lookupField(f)
	if !ok {
		return ""
	}
	return s.get(&m)
}

// Set overwrites a single field without validation. Setting "" on an optional field unsets it.
// Unknown fields are ignored.
func (m *Member) Set(f MemberField, v string) {
	s, ok := lookupField(f)
	if !ok {
		return
	}
	s.set(m, v)
}

// NormalizeFieldValue normalizes a proposed value for f and validates it against the field rules.
// The returned error is a *ValidationError keyed by the field name.
func NormalizeFieldValue(f MemberField, v string) (string, error) {
	s, ok := lookupField(f)
	if !ok {
		return "", NewValidationError(string(f), "unknown field")
	}

	switch s.kind {
	case kindName:
		v = NormalizeHumanName(v)
	case kindLongText:
		v = NormalizeText(v)
	default:
		v = strings.TrimSpace(v)
	}

	if v == "" {
		if s.required {
			return "", NewValidationError(string(f), "must be non-empty")
		}
		return "", nil
	}

	switch s.kind {
	case kindDate:
		if _, err := ParseDate(v); err != nil {
			return "", NewValidationError(string(f), "must be a date in YYYY-MM-DD format")
		}
	case kindStatus:
		if !MemberStatus(v).Valid() {
			return "", NewValidationError(string(f), "unknown status")
		}
	case kindRole:
		if !MemberRole(v).Valid() {
			return "", NewValidationError(string(f), "unknown role")
		}
	}
	return v, nil
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidationError carries field-level validation failures keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a failure for field, keeping the first reason reported.
func (e *ValidationError) Add(field, reason string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = reason
	}
}

// Merge folds other into e. Non-validation errors are ignored.
func (e *ValidationError) Merge(other error) {
	ve, ok := other.(*ValidationError)
	if !ok || ve == nil {
		return
	}
	for k, v := range ve.Fields {
		e.Add(k, v)
	}
}

// OrNil returns nil when no failures were recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
