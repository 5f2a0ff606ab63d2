package domain

// Actor is the caller of an application operation, resolved from the authenticated subject.
type Actor struct {
	MemberID MemberID
	Subject  SubjectID
	Role     MemberRole
}

// CanSubmit reports whether the actor may propose changes to their own record.
func (a Actor) CanSubmit() bool {
	return a.MemberID != ""
}

// CanResolve reports whether the actor may approve or reject edit requests
// and edit the roster directly.
func (a Actor) CanResolve() bool {
	return a.MemberID != "" && a.Role.Privileged()
}
