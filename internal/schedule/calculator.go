// Package schedule computes reminder occurrence dates.
//
// This file implements the Strategy Pattern for next-occurrence calculation.
// Each recurrence pattern (daily, weekly, monthly, yearly) has its own
// calculator that encapsulates the date arithmetic for that pattern.
//
// Everything here is pure: the reference date is always supplied by the
// caller, never read from the system clock, so identical inputs always
// produce identical outputs.

package schedule

import (
	"fmt"
	"sort"
	"time"

	"strata/internal/core"
)

// OccurrenceCalculator is the strategy interface for one recurrence pattern.
// Next returns the earliest date strictly after ref that satisfies the rule,
// or ok=false when the rule is not computable for this pattern (missing
// pattern-required fields). End-date handling lives in NextOccurrence, not
// in the strategies.
type OccurrenceCalculator interface {
	Next(rule core.RecurrenceRule, ref core.Date) (core.Date, bool)
}

// NextOccurrence returns the earliest date strictly after ref that satisfies
// rule, or ok=false when the series has ended (the computed date would fall
// on or after rule.EndDate, or EndDate is itself not after ref) or the rule
// is misconfigured. Misconfiguration is not an error: the caller decides
// what to do with a reminder that has no computable next occurrence.
func NextOccurrence(rule core.RecurrenceRule, ref core.Date) (core.Date, bool) {
	if rule.Interval < 1 {
		// Defensive default, never an error.
		rule.Interval = 1
	}
	if !rule.EndDate.IsZero() && !rule.EndDate.After(ref) {
		return core.Date{}, false
	}

	calc, err := GetCalculator(rule.Pattern)
	if err != nil {
		return core.Date{}, false
	}
	next, ok := calc.Next(rule, ref)
	if !ok {
		return core.Date{}, false
	}
	if !rule.EndDate.IsZero() && !next.Before(rule.EndDate) {
		return core.Date{}, false
	}
	return next, true
}

// DailyCalculator advances by a fixed number of days.
type DailyCalculator struct{}

func (DailyCalculator) Next(rule core.RecurrenceRule, ref core.Date) (core.Date, bool) {
	return ref.AddDays(rule.Interval), true
}

// WeeklyCalculator advances by whole weeks, or walks a set of listed
// weekdays when the rule carries an override.
type WeeklyCalculator struct{}

func (WeeklyCalculator) Next(rule core.RecurrenceRule, ref core.Date) (core.Date, bool) {
	if len(rule.WeeklyDays) == 0 {
		// Anniversary weekday: same weekday, interval weeks later.
		return ref.AddDays(7 * rule.Interval), true
	}

	days := append([]core.Weekday(nil), rule.WeeklyDays...)
	for _, d := range days {
		if d < core.Monday || d > core.Sunday {
			return core.Date{}, false
		}
	}
	// Ties break in calendar order Monday..Sunday, not list order.
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	refDay := core.WeekdayOf(ref.Time.Weekday())
	for _, d := range days {
		if d > refDay {
			return ref.AddDays(int(d - refDay)), true
		}
	}

	// Every listed weekday in the current week has passed: jump to the
	// earliest listed weekday in the week interval weeks later.
	weekStart := ref.AddDays(-int(refDay))
	return weekStart.AddDays(7*rule.Interval + int(days[0])), true
}

// MonthlyCalculator advances by months and resolves the day within the
// target month according to the rule's monthly type.
type MonthlyCalculator struct{}

func (MonthlyCalculator) Next(rule core.RecurrenceRule, ref core.Date) (core.Date, bool) {
	year, month := addMonths(ref.Year(), ref.Month(), rule.Interval)

	switch rule.MonthlyType {
	case core.MonthlyOnDate:
		if rule.MonthlyDate < 1 || rule.MonthlyDate > 31 {
			return core.Date{}, false
		}
		// Clamp to the last valid day of shorter months: day 31 in a
		// 30-day month yields day 30, never an overflow into the next
		// month.
		day := rule.MonthlyDate
		if last := daysInMonth(year, month); day > last {
			day = last
		}
		return core.NewDate(year, month, day), true

	case core.MonthlyOnWeekday:
		day, ok := nthWeekdayOfMonth(year, month, rule.Weekday, rule.WeekPosition)
		if !ok {
			return core.Date{}, false
		}
		return core.NewDate(year, month, day), true

	case core.MonthlyOnLastDay:
		return core.NewDate(year, month, daysInMonth(year, month)), true

	default:
		return core.Date{}, false
	}
}

// YearlyCalculator advances by years and re-anchors on the rule's month.
type YearlyCalculator struct{}

func (YearlyCalculator) Next(rule core.RecurrenceRule, ref core.Date) (core.Date, bool) {
	if rule.YearlyMonth < 1 || rule.YearlyMonth > 12 {
		return core.Date{}, false
	}
	year := ref.Year() + rule.Interval
	// A series anchored on Feb 29 resolves to Feb 28 in non-leap years,
	// never Mar 1.
	day := ref.Day()
	if last := daysInMonth(year, rule.YearlyMonth); day > last {
		day = last
	}
	return core.NewDate(year, rule.YearlyMonth, day), true
}

// addMonths advances a year/month pair without day-overflow normalization.
func addMonths(year, month, n int) (int, int) {
	month += n
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	return year, month
}

// daysInMonth returns the number of calendar days in a month; the zeroth
// day of the following month is the last day of this one.
func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// nthWeekdayOfMonth returns the day of month for the given ordinal
// occurrence of a weekday. WeekLast is the final occurrence regardless
// of whether that is the fourth or fifth.
func nthWeekdayOfMonth(year, month int, weekday core.Weekday, pos core.WeekPosition) (int, bool) {
	firstOfMonth := core.NewDate(year, month, 1)
	first := 1 + int((weekday-core.WeekdayOf(firstOfMonth.Time.Weekday())+7)%7)

	var n int
	switch pos {
	case core.WeekFirst:
		n = 0
	case core.WeekSecond:
		n = 1
	case core.WeekThird:
		n = 2
	case core.WeekFourth:
		n = 3
	case core.WeekLast:
		last := daysInMonth(year, month)
		day := first
		for day+7 <= last {
			day += 7
		}
		return day, true
	default:
		return 0, false
	}

	day := first + 7*n
	if day > daysInMonth(year, month) {
		return 0, false
	}
	return day, true
}

// calculators maps recurrence patterns to their corresponding strategies.
var calculators = map[core.Pattern]OccurrenceCalculator{
	core.Daily:   DailyCalculator{},
	core.Weekly:  WeeklyCalculator{},
	core.Monthly: MonthlyCalculator{},
	core.Yearly:  YearlyCalculator{},
}

// GetCalculator returns the strategy for a recurrence pattern.
func GetCalculator(pattern core.Pattern) (OccurrenceCalculator, error) {
	calc, ok := calculators[pattern]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence pattern: %s", pattern)
	}
	return calc, nil
}

// RegisterCalculator registers a custom strategy for a pattern, allowing
// extension without modifying this package.
func RegisterCalculator(pattern core.Pattern, calc OccurrenceCalculator) {
	calculators[pattern] = calc
}
