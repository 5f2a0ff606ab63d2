package editrequests

import "github.com/chibo-dx/roster-api/internal/domain"

// Review is what a resolver sees before deciding on a request.
type Review struct {
	Request domain.EditRequest
	Member  domain.Member
	Diffs   []domain.FieldDiff
}

// ChangedCount is the number of fields whose proposed value differs from the record.
func (r Review) ChangedCount() int {
	return len(domain.ChangedFields(r.Diffs))
}

// Resolution reports the outcome of Approve or Reject.
//
// MemberMutated tells the caller unambiguously whether the roster record was written.
type Resolution struct {
	RequestID domain.EditRequestID
	MemberID  domain.MemberID
	Outcome   domain.ResolutionOutcome

	MemberMutated bool
	// AlreadyResolved is set when Reject found no pending request with the given id.
	AlreadyResolved bool

	// Member is the record after a successful Approve, merged or not.
	Member *domain.Member
	// Applied lists the fields whose value actually changed, in canonical order.
	Applied []domain.MemberField
}
