package domain

import (
	"math"
	"time"
)

// Fee is one member's dues entry for a calendar month.
type Fee struct {
	ID       FeeID
	MemberID MemberID
	// MemberName is a display snapshot taken when the entry was created.
	MemberName string

	Month  int // 1-12
	Year   int
	Amount int64 // whole currency units

	IsPaid      bool
	PaymentDate *string // YYYY-MM-DD; set only while IsPaid

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (f Fee) Clone() Fee {
	out := f
	if f.PaymentDate != nil {
		v := *f.PaymentDate
		out.PaymentDate = &v
	}
	return out
}

// FeeSummary is the dues rollup shown on the fees page.
type FeeSummary struct {
	FeeCount       int
	PaidCount      int
	PendingCount   int
	TotalAmount    int64
	TotalCollected int64
	// CompletionPercent is collected/total amount, rounded; 0 when nothing is due.
	CompletionPercent int
}

func SummarizeFees(fees []Fee) FeeSummary {
	var s FeeSummary
	for _, f := range fees {
		s.FeeCount++
		s.TotalAmount += f.Amount
		if f.IsPaid {
			s.PaidCount++
			s.TotalCollected += f.Amount
		} else {
			s.PendingCount++
		}
	}
	s.CompletionPercent = PercentRounded(s.TotalCollected, s.TotalAmount)
	return s
}

// PercentRounded returns round(part*100/total), or 0 when total is not positive.
func PercentRounded(part, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
