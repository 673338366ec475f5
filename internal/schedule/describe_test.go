package schedule

import (
	"testing"

	"strata/internal/core"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		rule core.RecurrenceRule
		want string
	}{
		{
			name: "daily",
			rule: core.RecurrenceRule{Pattern: core.Daily, Interval: 1},
			want: "Every day",
		},
		{
			name: "every 3 days",
			rule: core.RecurrenceRule{Pattern: core.Daily, Interval: 3},
			want: "Every 3 days",
		},
		{
			name: "weekly without override",
			rule: core.RecurrenceRule{Pattern: core.Weekly, Interval: 1},
			want: "Every week",
		},
		{
			name: "weekly with days in calendar order",
			rule: core.RecurrenceRule{
				Pattern: core.Weekly, Interval: 1,
				WeeklyDays: []core.Weekday{core.Friday, core.Monday, core.Wednesday},
			},
			want: "Every week on MON, WED, FRI",
		},
		{
			name: "every 2 months on the 15th",
			rule: core.RecurrenceRule{
				Pattern: core.Monthly, Interval: 2,
				MonthlyType: core.MonthlyOnDate, MonthlyDate: 15,
			},
			want: "Every 2 months on the 15th",
		},
		{
			name: "monthly on the 31st",
			rule: core.RecurrenceRule{
				Pattern: core.Monthly, Interval: 1,
				MonthlyType: core.MonthlyOnDate, MonthlyDate: 31,
			},
			want: "Every month on the 31st",
		},
		{
			name: "monthly on nth weekday",
			rule: core.RecurrenceRule{
				Pattern: core.Monthly, Interval: 1,
				MonthlyType:  core.MonthlyOnWeekday,
				WeekPosition: core.WeekSecond, Weekday: core.Tuesday,
			},
			want: "Every month on the second Tuesday",
		},
		{
			name: "monthly on last day",
			rule: core.RecurrenceRule{
				Pattern: core.Monthly, Interval: 1,
				MonthlyType: core.MonthlyOnLastDay,
			},
			want: "Every month on the last day",
		},
		{
			name: "yearly",
			rule: core.RecurrenceRule{Pattern: core.Yearly, Interval: 1, YearlyMonth: 2},
			want: "Every year in February",
		},
		{
			name: "every 2 years",
			rule: core.RecurrenceRule{Pattern: core.Yearly, Interval: 2, YearlyMonth: 12},
			want: "Every 2 years in December",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.rule); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOrdinal(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "1st"}, {2, "2nd"}, {3, "3rd"}, {4, "4th"},
		{11, "11th"}, {12, "12th"}, {13, "13th"},
		{21, "21st"}, {22, "22nd"}, {23, "23rd"},
		{31, "31st"}, {111, "111th"}, {101, "101st"},
	}

	for _, tt := range tests {
		if got := Ordinal(tt.n); got != tt.want {
			t.Errorf("Ordinal(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
