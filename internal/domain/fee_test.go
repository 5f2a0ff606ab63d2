package domain

import "testing"

func TestSummarizeFees(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fees []Fee
		want FeeSummary
	}{
		{name: "empty", fees: nil, want: FeeSummary{}},
		{
			name: "mixed",
			fees: []Fee{
				{Amount: 150000, IsPaid: true},
				{Amount: 150000, IsPaid: false},
				{Amount: 100000, IsPaid: true},
			},
			want: FeeSummary{FeeCount: 3, PaidCount: 2, PendingCount: 1, TotalAmount: 400000, TotalCollected: 250000, CompletionPercent: 63},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SummarizeFees(tt.fees); got != tt.want {
				t.Fatalf("SummarizeFees()=%+v, want %+v", got, tt.want)
			}
		})
	}
}
