package domain

import "time"

// MemberStatus is the organizational standing of a member.
// The values are the labels used on the branch's paper records.
type MemberStatus string

const (
	MemberStatusOfficial     MemberStatus = "Chính thức"
	MemberStatusProbationary MemberStatus = "Dự bị"
	MemberStatusProspect     MemberStatus = "Quần chúng ưu tú"
	// MemberStatusTransferred is terminal: the record stays but leaves every active view.
	MemberStatusTransferred MemberStatus = "Đã chuyển sinh hoạt"
)

func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusOfficial, MemberStatusProbationary, MemberStatusProspect, MemberStatusTransferred:
		return true
	default:
		return false
	}
}

// MemberRole is the member's role inside the branch committee.
type MemberRole string

const (
	MemberRoleSecretary       MemberRole = "Bí thư"
	MemberRoleDeputySecretary MemberRole = "Phó Bí thư"
	MemberRoleCommitteeMember MemberRole = "Chi ủy viên"
	MemberRoleMember          MemberRole = "Đảng viên"
)

func (r MemberRole) Valid() bool {
	switch r {
	case MemberRoleSecretary, MemberRoleDeputySecretary, MemberRoleCommitteeMember, MemberRoleMember:
		return true
	default:
		return false
	}
}

// Privileged reports whether the role may resolve edit requests and edit the roster directly.
func (r MemberRole) Privileged() bool {
	return r == MemberRoleSecretary || r == MemberRoleDeputySecretary
}

// Member is the domain representation of a roster record.
//
// FullName, PartyDate, Status and Role are mandatory; every pointer field is optional
// and nil means unset. Dates are kept in their YYYY-MM-DD form (see DateLayout).
type Member struct {
	ID MemberID
	// Subject is the login identity bound to this record; nil means no account yet.
	Subject *SubjectID

	FullName         string
	BirthDate        *string
	Hometown         *string
	NativePlace      *string
	CurrentResidence *string
	Ethnicity        *string
	Religion         *string
	MilitaryRank     *string
	Position         *string
	Unit             *string

	PartyDate       string
	OfficialDate    *string
	PartyCardNumber *string
	Introducer1     *string
	Introducer2     *string
	Status          MemberStatus
	Role            MemberRole

	EducationLevel  *string
	TechnicalTitle  *string
	PoliticalTheory *string
	ForeignLanguage *string
	HealthStatus    *string

	Background        *string
	RewardHistory     *string
	DisciplineHistory *string

	// Version is the optimistic concurrency token. Repositories reject an update
	// whose Version does not match the stored one and bump it on success.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the member appears in the active roster.
func (m Member) IsActive() bool {
	return m.Status != MemberStatusTransferred
}

// Clone returns a deep copy; callers may mutate the result freely.
func (m Member) Clone() Member {
	out := m
	if m.Subject != nil {
		s := *m.Subject
		out.Subject = &s
	}
	for _, spec := range memberFieldSpecs {
		if spec.ptr == nil {
			continue
		}
		if p := *spec.ptr(&m); p != nil {
			v := *p
			*spec.ptr(&out) = &v
		}
	}
	return out
}
