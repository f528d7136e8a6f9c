package core

import "testing"

func TestSpendingPercentage(t *testing.T) {
	tests := []struct {
		name  string
		part  int64
		total int64
		want  float64
	}{
		{name: "thirty of one hundred", part: 3000, total: 10000, want: 30},
		{name: "seventy of one hundred", part: 7000, total: 10000, want: 70},
		{name: "whole total", part: 10000, total: 10000, want: 100},
		{name: "zero total yields zero", part: 3000, total: 0, want: 0},
		{name: "rounds to two decimals", part: 1, total: 3, want: 33.33},
		{name: "rounds half up", part: 1, total: 1600, want: 0.06},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpendingPercentage(Money{Cents: tt.part}, Money{Cents: tt.total})
			if got != tt.want {
				t.Errorf("SpendingPercentage(%d, %d) = %v, want %v", tt.part, tt.total, got, tt.want)
			}
		})
	}
}
