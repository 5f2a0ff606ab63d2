package domain

import "time"

type MeetingType string

const (
	MeetingTypeRegular       MeetingType = "Định kỳ"
	MeetingTypeThematic      MeetingType = "Chuyên đề"
	MeetingTypeExtraordinary MeetingType = "Bất thường"
)

func (t MeetingType) Valid() bool {
	switch t {
	case MeetingTypeRegular, MeetingTypeThematic, MeetingTypeExtraordinary:
		return true
	default:
		return false
	}
}

// Meeting is a branch meeting's minutes.
type Meeting struct {
	ID    MeetingID
	Title string
	Date  string // YYYY-MM-DD
	Type  MeetingType

	Content    string
	Resolution string

	AttendeesCount int
	TotalMembers   int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the invariants every stored meeting must satisfy.
func (m Meeting) Validate() error {
	verr := &ValidationError{}
	if NormalizeHumanName(m.Title) == "" {
		verr.Add("title", "must be non-empty")
	}
	if _, err := ParseDate(m.Date); err != nil {
		verr.Add("date", "must be a date in YYYY-MM-DD format")
	}
	if !m.Type.Valid() {
		verr.Add("type", "unknown meeting type")
	}
	if m.AttendeesCount < 0 {
		verr.Add("attendeesCount", "must not be negative")
	}
	if m.TotalMembers < 0 {
		verr.Add("totalMembers", "must not be negative")
	}
	if m.AttendeesCount > m.TotalMembers {
		verr.Add("attendeesCount", "must not exceed totalMembers")
	}
	return verr.OrNil()
}
