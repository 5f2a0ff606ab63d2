package domain

import (
	"sort"
	"time"
)

// ProbationReminderWindow is how far ahead of the one-year mark a probationary member is flagged.
const ProbationReminderWindow = 30 * 24 * time.Hour

// ProbationReminder flags a probationary member whose one-year review is due or overdue.
type ProbationReminder struct {
	MemberID  MemberID
	FullName  string
	PartyDate string
	// DueDate is PartyDate plus one year.
	DueDate string
	// DaysLeft is negative once the due date has passed.
	DaysLeft int
}

// ProbationReminders returns reminders for active probationary members whose due date is
// in the past or within ProbationReminderWindow of today, soonest first.
// Members with an unparseable PartyDate are skipped.
func ProbationReminders(ms []Member, today time.Time) []ProbationReminder {
	out := make([]ProbationReminder, 0)
	for _, m := range ms {
		if m.Status != MemberStatusProbationary {
			continue
		}
		joined, err := ParseDate(m.PartyDate)
		if err != nil {
			continue
		}
		due := joined.AddDate(1, 0, 0)
		left := due.Sub(today)
		if left >= ProbationReminderWindow {
			continue
		}
		out = append(out, ProbationReminder{
			MemberID:  m.ID,
			FullName:  m.FullName,
			PartyDate: m.PartyDate,
			DueDate:   FormatDate(due),
			DaysLeft:  int(left.Hours() / 24),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DueDate != out[j].DueDate {
			return out[i].DueDate < out[j].DueDate
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}
