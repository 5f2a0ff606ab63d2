package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiffMember_SuppressesNoOpEdits(t *testing.T) {
	t.Parallel()

	m := Member{ID: "1", FullName: "Nguyen Van A", PartyDate: "2021-02-03", Status: MemberStatusProbationary, Role: MemberRoleMember}
	changes := Changes{
		FieldFullName: "Nguyen Van A",
		FieldStatus:   string(MemberStatusOfficial),
		FieldHometown: "",
	}
	before := m.Clone()

	got := DiffMember(m, changes)
	want := []FieldDiff{
		{Field: FieldFullName, Current: "Nguyen Van A", Proposed: "Nguyen Van A", Changed: false},
		{Field: FieldHometown, Current: "", Proposed: "", Changed: false},
		{Field: FieldStatus, Current: string(MemberStatusProbationary), Proposed: string(MemberStatusOfficial), Changed: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("diff mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, m); diff != "" {
		t.Fatalf("DiffMember mutated the member (-before +after):\n%s", diff)
	}
	if n := len(ChangedFields(got)); n != 1 {
		t.Fatalf("ChangedFields len=%d, want 1", n)
	}
}
