package schedule

import (
	"fmt"
	"sort"
	"strings"

	"strata/internal/core"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var shortWeekdayNames = [7]string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}

// Describe produces a human-readable summary of a recurrence rule, such as
// "Every 2 months on the 15th" or "Every week on MON, WED, FRI". A rule
// with an unknown pattern yields an empty string.
func Describe(rule core.RecurrenceRule) string {
	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	switch rule.Pattern {
	case core.Daily:
		return every(interval, "day")

	case core.Weekly:
		base := every(interval, "week")
		if len(rule.WeeklyDays) == 0 {
			return base
		}
		days := sortedWeekdays(rule.WeeklyDays)
		names := make([]string, 0, len(days))
		for _, d := range days {
			if d >= core.Monday && d <= core.Sunday {
				names = append(names, shortWeekdayNames[d])
			}
		}
		return base + " on " + strings.Join(names, ", ")

	case core.Monthly:
		base := every(interval, "month")
		switch rule.MonthlyType {
		case core.MonthlyOnDate:
			return fmt.Sprintf("%s on the %s", base, Ordinal(rule.MonthlyDate))
		case core.MonthlyOnWeekday:
			return fmt.Sprintf("%s on the %s %s", base, rule.WeekPosition, titleWeekday(rule.Weekday))
		case core.MonthlyOnLastDay:
			return base + " on the last day"
		}
		return base

	case core.Yearly:
		base := every(interval, "year")
		if rule.YearlyMonth >= 1 && rule.YearlyMonth <= 12 {
			return base + " in " + monthNames[rule.YearlyMonth-1]
		}
		return base

	default:
		return ""
	}
}

// Ordinal formats n with its English ordinal suffix (1st, 2nd, 3rd, 4th,
// 11th, 21st, ...).
func Ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
		// 11th, 12th, 13th are exceptions to the last-digit rules.
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func every(interval int, unit string) string {
	if interval == 1 {
		return "Every " + unit
	}
	return fmt.Sprintf("Every %d %ss", interval, unit)
}

func sortedWeekdays(days []core.Weekday) []core.Weekday {
	out := append([]core.Weekday(nil), days...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func titleWeekday(w core.Weekday) string {
	name := w.String()
	if name == "invalid" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
