package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/chibo-dx/roster-api/internal/app/dashboard"
	"github.com/chibo-dx/roster-api/internal/app/editrequests"
	"github.com/chibo-dx/roster-api/internal/app/fees"
	"github.com/chibo-dx/roster-api/internal/app/members"
	"github.com/chibo-dx/roster-api/internal/domain"
)

type Member struct {
	MemberId string                    `json:"memberId"`
	Subject  nullable.Nullable[string] `json:"subject"`

	FullName         string                                `json:"fullName"`
	BirthDate        nullable.Nullable[openapi_types.Date] `json:"birthDate"`
	Hometown         nullable.Nullable[string]             `json:"hometown"`
	NativePlace      nullable.Nullable[string]             `json:"nativePlace"`
	CurrentResidence nullable.Nullable[string]             `json:"currentResidence"`
	Ethnicity        nullable.Nullable[string]             `json:"ethnicity"`
	Religion         nullable.Nullable[string]             `json:"religion"`
	MilitaryRank     nullable.Nullable[string]             `json:"militaryRank"`
	Position         nullable.Nullable[string]             `json:"position"`
	Unit             nullable.Nullable[string]             `json:"unit"`

	PartyDate       openapi_types.Date                    `json:"partyDate"`
	OfficialDate    nullable.Nullable[openapi_types.Date] `json:"officialDate"`
	PartyCardNumber nullable.Nullable[string]             `json:"partyCardNumber"`
	Introducer1     nullable.Nullable[string]             `json:"introducer1"`
	Introducer2     nullable.Nullable[string]             `json:"introducer2"`
	Status          string                                `json:"status"`
	Role            string                                `json:"role"`

	EducationLevel  nullable.Nullable[string] `json:"educationLevel"`
	TechnicalTitle  nullable.Nullable[string] `json:"technicalTitle"`
	PoliticalTheory nullable.Nullable[string] `json:"politicalTheory"`
	ForeignLanguage nullable.Nullable[string] `json:"foreignLanguage"`
	HealthStatus    nullable.Nullable[string] `json:"healthStatus"`

	Background        nullable.Nullable[string] `json:"background"`
	RewardHistory     nullable.Nullable[string] `json:"rewardHistory"`
	DisciplineHistory nullable.Nullable[string] `json:"disciplineHistory"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type MemberSummary struct {
	MemberId  string `json:"memberId"`
	FullName  string `json:"fullName"`
	Status    string `json:"status"`
	Role      string `json:"role"`
	PartyDate string `json:"partyDate"`
}

type MemberResponse struct {
	Member Member `json:"member"`
}

type MembersResponse struct {
	Members []MemberSummary `json:"members"`
}

type EditRequest struct {
	RequestId   string            `json:"requestId"`
	MemberId    string            `json:"memberId"`
	MemberName  string            `json:"memberName"`
	SubmittedBy string            `json:"submittedBy"`
	SubmittedAt time.Time         `json:"submittedAt"`
	Changes     map[string]string `json:"changes"`
}

type EditRequestResponse struct {
	EditRequest EditRequest `json:"editRequest"`
}

type EditRequestsResponse struct {
	EditRequests []EditRequest `json:"editRequests"`
}

type PendingEditRequestResponse struct {
	EditRequest nullable.Nullable[EditRequest] `json:"editRequest"`
}

type Profile struct {
	Member          Member            `json:"member"`
	PendingRequests []EditRequest     `json:"pendingRequests"`
	Proposed        map[string]string `json:"proposed"`
}

type FieldDiff struct {
	Field    string `json:"field"`
	Current  string `json:"current"`
	Proposed string `json:"proposed"`
	Changed  bool   `json:"changed"`
}

type Review struct {
	EditRequest  EditRequest `json:"editRequest"`
	Member       Member      `json:"member"`
	Diffs        []FieldDiff `json:"diffs"`
	ChangedCount int         `json:"changedCount"`
}

type Resolution struct {
	RequestId       string   `json:"requestId"`
	MemberId        string   `json:"memberId"`
	Outcome         string   `json:"outcome"`
	MemberMutated   bool     `json:"memberMutated"`
	AlreadyResolved bool     `json:"alreadyResolved"`
	Member          *Member  `json:"member,omitempty"`
	Applied         []string `json:"applied"`
}

type Fee struct {
	FeeId       string                                `json:"feeId"`
	MemberId    string                                `json:"memberId"`
	MemberName  string                                `json:"memberName"`
	Month       int                                   `json:"month"`
	Year        int                                   `json:"year"`
	Amount      int64                                 `json:"amount"`
	IsPaid      bool                                  `json:"isPaid"`
	PaymentDate nullable.Nullable[openapi_types.Date] `json:"paymentDate"`
	CreatedAt   time.Time                             `json:"createdAt"`
	UpdatedAt   time.Time                             `json:"updatedAt"`
}

type FeeSummary struct {
	FeeCount          int   `json:"feeCount"`
	PaidCount         int   `json:"paidCount"`
	PendingCount      int   `json:"pendingCount"`
	TotalAmount       int64 `json:"totalAmount"`
	TotalCollected    int64 `json:"totalCollected"`
	CompletionPercent int   `json:"completionPercent"`
}

type FeesResponse struct {
	Fees    []Fee      `json:"fees"`
	Summary FeeSummary `json:"summary"`
}

type FeeResponse struct {
	Fee Fee `json:"fee"`
}

type Meeting struct {
	MeetingId      string             `json:"meetingId"`
	Title          string             `json:"title"`
	Date           openapi_types.Date `json:"date"`
	Type           string             `json:"type"`
	Content        string             `json:"content"`
	Resolution     string             `json:"resolution"`
	AttendeesCount int                `json:"attendeesCount"`
	TotalMembers   int                `json:"totalMembers"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

type MeetingResponse struct {
	Meeting Meeting `json:"meeting"`
}

type MeetingsResponse struct {
	Meetings []Meeting `json:"meetings"`
}

type ProbationReminder struct {
	MemberId  string `json:"memberId"`
	FullName  string `json:"fullName"`
	PartyDate string `json:"partyDate"`
	DueDate   string `json:"dueDate"`
	DaysLeft  int    `json:"daysLeft"`
}

type DashboardResponse struct {
	ActiveMembers        int                 `json:"activeMembers"`
	OfficialMembers      int                 `json:"officialMembers"`
	ProbationaryMembers  int                 `json:"probationaryMembers"`
	ProspectMembers      int                 `json:"prospectMembers"`
	FeeCount             int                 `json:"feeCount"`
	FeesPaid             int                 `json:"feesPaid"`
	FeeCompletionPercent int                 `json:"feeCompletionPercent"`
	PendingEditRequests  int                 `json:"pendingEditRequests"`
	ProbationReminders   []ProbationReminder `json:"probationReminders"`
}

type AdvisorResponse struct {
	Answer string `json:"answer"`
}

func nullableString(p *string) nullable.Nullable[string] {
	if p == nil {
		return nullable.NewNullNullable[string]()
	}
	return nullable.NewNullableWithValue(*p)
}

func nullableDate(p *string) nullable.Nullable[openapi_types.Date] {
	if p == nil {
		return nullable.NewNullNullable[openapi_types.Date]()
	}
	return nullable.NewNullableWithValue(dateFromString(*p))
}

// dateFromString renders a stored YYYY-MM-DD value; stored dates are always valid.
func dateFromString(s string) openapi_types.Date {
	t, err := domain.ParseDate(s)
	if err != nil {
		return openapi_types.Date{}
	}
	return openapi_types.Date{Time: t}
}

func memberFromDomain(m domain.Member) Member {
	out := Member{
		MemberId:          string(m.ID),
		Subject:           nullable.NewNullNullable[string](),
		FullName:          m.FullName,
		BirthDate:         nullableDate(m.BirthDate),
		Hometown:          nullableString(m.Hometown),
		NativePlace:       nullableString(m.NativePlace),
		CurrentResidence:  nullableString(m.CurrentResidence),
		Ethnicity:         nullableString(m.Ethnicity),
		Religion:          nullableString(m.Religion),
		MilitaryRank:      nullableString(m.MilitaryRank),
		Position:          nullableString(m.Position),
		Unit:              nullableString(m.Unit),
		PartyDate:         dateFromString(m.PartyDate),
		OfficialDate:      nullableDate(m.OfficialDate),
		PartyCardNumber:   nullableString(m.PartyCardNumber),
		Introducer1:       nullableString(m.Introducer1),
		Introducer2:       nullableString(m.Introducer2),
		Status:            string(m.Status),
		Role:              string(m.Role),
		EducationLevel:    nullableString(m.EducationLevel),
		TechnicalTitle:    nullableString(m.TechnicalTitle),
		PoliticalTheory:   nullableString(m.PoliticalTheory),
		ForeignLanguage:   nullableString(m.ForeignLanguage),
		HealthStatus:      nullableString(m.HealthStatus),
		Background:        nullableString(m.Background),
		RewardHistory:     nullableString(m.RewardHistory),
		DisciplineHistory: nullableString(m.DisciplineHistory),
		Version:           m.Version,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
	if m.Subject != nil {
		out.Subject = nullable.NewNullableWithValue(string(*m.Subject))
	}
	return out
}

func memberSummariesFromDomain(ms []domain.Member) []MemberSummary {
	out := make([]MemberSummary, 0, len(ms))
	for _, m := range ms {
		out = append(out, MemberSummary{
			MemberId:  string(m.ID),
			FullName:  m.FullName,
			Status:    string(m.Status),
			Role:      string(m.Role),
			PartyDate: m.PartyDate,
		})
	}
	return out
}

func editRequestFromDomain(r domain.EditRequest) EditRequest {
	return EditRequest{
		RequestId:   string(r.ID),
		MemberId:    string(r.MemberID),
		MemberName:  r.MemberName,
		SubmittedBy: string(r.SubmittedBy),
		SubmittedAt: r.SubmittedAt.UTC(),
		Changes:     r.Changes.Raw(),
	}
}

func editRequestsFromDomain(rs []domain.EditRequest) []EditRequest {
	out := make([]EditRequest, 0, len(rs))
	for _, r := range rs {
		out = append(out, editRequestFromDomain(r))
	}
	return out
}

func profileFromApp(p members.Profile) Profile {
	proposed := make(map[string]string, len(p.Proposed))
	for f, v := range p.Proposed {
		proposed[string(f)] = v
	}
	return Profile{
		Member:          memberFromDomain(p.Member),
		PendingRequests: editRequestsFromDomain(p.Pending),
		Proposed:        proposed,
	}
}

func reviewFromApp(rv editrequests.Review) Review {
	diffs := make([]FieldDiff, 0, len(rv.Diffs))
	for _, d := range rv.Diffs {
		diffs = append(diffs, FieldDiff{Field: string(d.Field), Current: d.Current, Proposed: d.Proposed, Changed: d.Changed})
	}
	return Review{
		EditRequest:  editRequestFromDomain(rv.Request),
		Member:       memberFromDomain(rv.Member),
		Diffs:        diffs,
		ChangedCount: rv.ChangedCount(),
	}
}

func resolutionFromApp(res editrequests.Resolution) Resolution {
	out := Resolution{
		RequestId:       string(res.RequestID),
		MemberId:        string(res.MemberID),
		Outcome:         string(res.Outcome),
		MemberMutated:   res.MemberMutated,
		AlreadyResolved: res.AlreadyResolved,
		Applied:         make([]string, 0, len(res.Applied)),
	}
	if res.Member != nil {
		m := memberFromDomain(*res.Member)
		out.Member = &m
	}
	for _, f := range res.Applied {
		out.Applied = append(out.Applied, string(f))
	}
	return out
}

func feeFromDomain(f domain.Fee) Fee {
	return Fee{
		FeeId:       string(f.ID),
		MemberId:    string(f.MemberID),
		MemberName:  f.MemberName,
		Month:       f.Month,
		Year:        f.Year,
		Amount:      f.Amount,
		IsPaid:      f.IsPaid,
		PaymentDate: nullableDate(f.PaymentDate),
		CreatedAt:   f.CreatedAt.UTC(),
		UpdatedAt:   f.UpdatedAt.UTC(),
	}
}

func feesReportFromApp(rep fees.Report) FeesResponse {
	out := FeesResponse{
		Fees: make([]Fee, 0, len(rep.Fees)),
		Summary: FeeSummary{
			FeeCount:          rep.Summary.FeeCount,
			PaidCount:         rep.Summary.PaidCount,
			PendingCount:      rep.Summary.PendingCount,
			TotalAmount:       rep.Summary.TotalAmount,
			TotalCollected:    rep.Summary.TotalCollected,
			CompletionPercent: rep.Summary.CompletionPercent,
		},
	}
	for _, f := range rep.Fees {
		out.Fees = append(out.Fees, feeFromDomain(f))
	}
	return out
}

func meetingFromDomain(m domain.Meeting) Meeting {
	return Meeting{
		MeetingId:      string(m.ID),
		Title:          m.Title,
		Date:           dateFromString(m.Date),
		Type:           string(m.Type),
		Content:        m.Content,
		Resolution:     m.Resolution,
		AttendeesCount: m.AttendeesCount,
		TotalMembers:   m.TotalMembers,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

func dashboardFromApp(o dashboard.Overview) DashboardResponse {
	out := DashboardResponse{
		ActiveMembers:        o.ActiveMembers,
		OfficialMembers:      o.OfficialMembers,
		ProbationaryMembers:  o.ProbationaryMembers,
		ProspectMembers:      o.ProspectMembers,
		FeeCount:             o.FeeCount,
		FeesPaid:             o.FeesPaid,
		FeeCompletionPercent: o.FeeCompletionPercent,
		PendingEditRequests:  o.PendingEditRequests,
		ProbationReminders:   make([]ProbationReminder, 0, len(o.ProbationReminders)),
	}
	for _, r := range o.ProbationReminders {
		out.ProbationReminders = append(out.ProbationReminders, ProbationReminder{
			MemberId:  string(r.MemberID),
			FullName:  r.FullName,
			PartyDate: r.PartyDate,
			DueDate:   r.DueDate,
			DaysLeft:  r.DaysLeft,
		})
	}
	return out
}
