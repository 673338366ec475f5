package core

import (
	"errors"
	"strings"
	"time"
)

// Pattern is the base recurrence frequency of a reminder series.
type Pattern string

const (
	Daily   Pattern = "daily"
	Weekly  Pattern = "weekly"
	Monthly Pattern = "monthly"
	Yearly  Pattern = "yearly"
)

// MonthlyType selects how a monthly rule picks its day within the month.
type MonthlyType string

const (
	// MonthlyOnDate fires on a fixed day-of-month, clamped to the last
	// valid day of shorter months.
	MonthlyOnDate MonthlyType = "date"
	// MonthlyOnWeekday fires on the Nth weekday of the month.
	MonthlyOnWeekday MonthlyType = "day"
	// MonthlyOnLastDay fires on the last calendar day of the month.
	MonthlyOnLastDay MonthlyType = "last_day"
)

// WeekPosition is the ordinal position of a weekday within a month.
type WeekPosition string

const (
	WeekFirst  WeekPosition = "first"
	WeekSecond WeekPosition = "second"
	WeekThird  WeekPosition = "third"
	WeekFourth WeekPosition = "fourth"
	WeekLast   WeekPosition = "last"
)

// Weekday is Monday-first (Monday=0 .. Sunday=6). The ordering matters:
// when a weekly rule lists several days, ties are broken in calendar
// order Monday < Tuesday < ... < Sunday, not list order.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return "invalid"
	}
	return weekdayNames[w]
}

// Time converts to the standard library's Sunday-first weekday.
func (w Weekday) Time() time.Weekday {
	return time.Weekday((int(w) + 1) % 7)
}

// WeekdayOf converts a standard library weekday to Monday-first ordering.
func WeekdayOf(w time.Weekday) Weekday {
	return Weekday((int(w) + 6) % 7)
}

// ParseWeekday parses a lowercase weekday name.
func ParseWeekday(s string) (Weekday, error) {
	for i, name := range weekdayNames {
		if name == strings.ToLower(strings.TrimSpace(s)) {
			return Weekday(i), nil
		}
	}
	return 0, errors.New("invalid weekday: " + s)
}

// RecurrenceRule describes how a reminder series repeats. Which optional
// fields are populated depends on Pattern (and MonthlyType for monthly
// rules); Validate enforces the pairing.
type RecurrenceRule struct {
	Pattern  Pattern
	Interval int

	// Monthly rules.
	MonthlyType  MonthlyType
	MonthlyDate  int          // MonthlyOnDate: 1-31
	WeekPosition WeekPosition // MonthlyOnWeekday
	Weekday      Weekday      // MonthlyOnWeekday

	// Weekly rules. Empty means the plain anniversary weekday.
	WeeklyDays []Weekday

	// Yearly rules: 1-12.
	YearlyMonth int

	// Optional. No occurrence is generated on or after this date; zero
	// means the series never ends.
	EndDate Date
}

var (
	ErrInvalidPattern      = errors.New("invalid recurrence pattern")
	ErrInvalidMonthlyType  = errors.New("invalid monthly type")
	ErrInvalidMonthlyDate  = errors.New("monthly date must be 1-31")
	ErrInvalidWeekPosition = errors.New("invalid week position")
	ErrInvalidWeekday      = errors.New("invalid weekday")
	ErrInvalidYearlyMonth  = errors.New("yearly month must be 1-12")
)

func (r RecurrenceRule) Validate() error {
	switch r.Pattern {
	case Daily:
	case Weekly:
		for _, d := range r.WeeklyDays {
			if d < Monday || d > Sunday {
				return ErrInvalidWeekday
			}
		}
	case Monthly:
		switch r.MonthlyType {
		case MonthlyOnDate:
			if r.MonthlyDate < 1 || r.MonthlyDate > 31 {
				return ErrInvalidMonthlyDate
			}
		case MonthlyOnWeekday:
			switch r.WeekPosition {
			case WeekFirst, WeekSecond, WeekThird, WeekFourth, WeekLast:
			default:
				return ErrInvalidWeekPosition
			}
			if r.Weekday < Monday || r.Weekday > Sunday {
				return ErrInvalidWeekday
			}
		case MonthlyOnLastDay:
		default:
			return ErrInvalidMonthlyType
		}
	case Yearly:
		if r.YearlyMonth < 1 || r.YearlyMonth > 12 {
			return ErrInvalidYearlyMonth
		}
	default:
		return ErrInvalidPattern
	}
	return nil
}
