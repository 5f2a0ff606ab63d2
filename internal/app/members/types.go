package members

import "github.com/chibo-dx/roster-api/internal/domain"

// CreateMemberInput is a privileged roster addition. Fields uses the JSON field names of
// domain.MemberFields; status and role default to probationary and plain member.
type CreateMemberInput struct {
	Fields  map[string]string
	Subject *domain.SubjectID
}

// MakeOfficialInput promotes a probationary member. An empty OfficialDate means today.
type MakeOfficialInput struct {
	OfficialDate    string
	PartyCardNumber string
}

// Profile is the self-service view of a member's own record.
type Profile struct {
	Member  domain.Member
	Pending []domain.EditRequest

	// Proposed holds, for every field touched by a pending request, the value the
	// most recent pending request proposes.
	Proposed map[domain.MemberField]string
}
