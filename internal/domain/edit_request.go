package domain

import "time"

// EditRequest is a member's proposed, not yet applied, set of profile changes.
//
// MemberID is a non-owning back-reference into the roster: it must resolve when the
// request is created but nothing keeps it valid afterwards.
type EditRequest struct {
	ID       EditRequestID
	MemberID MemberID
	// MemberName is the member's full name when the request was submitted, for list views.
	MemberName  string
	SubmittedBy SubjectID
	SubmittedAt time.Time

	Changes Changes
}

func (r EditRequest) Clone() EditRequest {
	out := r
	out.Changes = r.Changes.Clone()
	return out
}

// ResolutionOutcome is the terminal state an edit request reaches.
type ResolutionOutcome string

const (
	ResolutionMerged    ResolutionOutcome = "MERGED"
	ResolutionDiscarded ResolutionOutcome = "DISCARDED"
)
