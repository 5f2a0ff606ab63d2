package domain

// SubjectID is the authenticated subject extracted from token claims (typically "sub").
// We model it as an opaque identifier: its format is controlled by the issuer.
type SubjectID string

// MemberID is an internal identifier for a member record.
type MemberID string

// EditRequestID identifies a pending profile edit request.
type EditRequestID string

// FeeID identifies a dues record.
type FeeID string

// MeetingID identifies a meeting minutes record.
type MeetingID string
