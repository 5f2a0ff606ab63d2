package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestProbationReminders(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ms := []Member{
		{ID: "soon", FullName: "Sắp đến", PartyDate: "2023-06-20", Status: MemberStatusProbationary},
		{ID: "late", FullName: "Quá hạn", PartyDate: "2023-05-01", Status: MemberStatusProbationary},
		{ID: "far", FullName: "Còn xa", PartyDate: "2023-09-01", Status: MemberStatusProbationary},
		{ID: "edge", FullName: "Đúng 30 ngày", PartyDate: "2023-07-01", Status: MemberStatusProbationary},
		{ID: "official", FullName: "Chính thức", PartyDate: "2023-05-01", Status: MemberStatusOfficial},
		{ID: "bad", FullName: "Sai ngày", PartyDate: "n/a", Status: MemberStatusProbationary},
	}

	got := ProbationReminders(ms, today)
	want := []ProbationReminder{
		{MemberID: "late", FullName: "Quá hạn", PartyDate: "2023-05-01", DueDate: "2024-05-01", DaysLeft: -31},
		{MemberID: "soon", FullName: "Sắp đến", PartyDate: "2023-06-20", DueDate: "2024-06-20", DaysLeft: 19},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ProbationReminders mismatch (-want +got):\n%s", diff)
	}
}
