package http

import (
	"fmt"

	"strata/internal/core"
)

// ruleJSON is the wire form of a recurrence rule. Weekdays travel as
// lowercase names; the end date as YYYY-MM-DD.
type ruleJSON struct {
	Pattern      string   `json:"pattern"`
	Interval     int      `json:"interval"`
	MonthlyType  string   `json:"monthly_type,omitempty"`
	MonthlyDate  int      `json:"monthly_date,omitempty"`
	WeekPosition string   `json:"week_position,omitempty"`
	Weekday      string   `json:"weekday,omitempty"`
	WeeklyDays   []string `json:"weekly_days,omitempty"`
	YearlyMonth  int      `json:"yearly_month,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
}

func (j ruleJSON) toRule() (core.RecurrenceRule, error) {
	rule := core.RecurrenceRule{
		Pattern:      core.Pattern(j.Pattern),
		Interval:     j.Interval,
		MonthlyType:  core.MonthlyType(j.MonthlyType),
		MonthlyDate:  j.MonthlyDate,
		WeekPosition: core.WeekPosition(j.WeekPosition),
		YearlyMonth:  j.YearlyMonth,
	}

	if j.Weekday != "" {
		day, err := core.ParseWeekday(j.Weekday)
		if err != nil {
			return core.RecurrenceRule{}, err
		}
		rule.Weekday = day
	}
	for _, name := range j.WeeklyDays {
		day, err := core.ParseWeekday(name)
		if err != nil {
			return core.RecurrenceRule{}, err
		}
		rule.WeeklyDays = append(rule.WeeklyDays, day)
	}
	if j.EndDate != "" {
		end, err := core.ParseDate(j.EndDate)
		if err != nil {
			return core.RecurrenceRule{}, fmt.Errorf("invalid end_date: %w", err)
		}
		rule.EndDate = end
	}

	if err := rule.Validate(); err != nil {
		return core.RecurrenceRule{}, err
	}
	return rule, nil
}

func ruleToJSON(rule core.RecurrenceRule) ruleJSON {
	j := ruleJSON{
		Pattern:      string(rule.Pattern),
		Interval:     rule.Interval,
		MonthlyType:  string(rule.MonthlyType),
		MonthlyDate:  rule.MonthlyDate,
		WeekPosition: string(rule.WeekPosition),
		YearlyMonth:  rule.YearlyMonth,
	}
	if rule.Pattern == core.Monthly && rule.MonthlyType == core.MonthlyOnWeekday {
		j.Weekday = rule.Weekday.String()
	}
	for _, day := range rule.WeeklyDays {
		j.WeeklyDays = append(j.WeeklyDays, day.String())
	}
	if !rule.EndDate.IsZero() {
		j.EndDate = rule.EndDate.String()
	}
	return j
}
