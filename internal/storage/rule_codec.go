package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"strata/internal/core"
)

// ruleColumns is the flattened column form of a core.RecurrenceRule.
// Pattern-irrelevant columns stay NULL so the "exactly the fields for
// your pattern" invariant survives the round trip.
type ruleColumns struct {
	Pattern      string
	Interval     int
	MonthlyType  sql.NullString
	MonthlyDate  sql.NullInt64
	WeekPosition sql.NullString
	Weekday      sql.NullString
	WeeklyDays   sql.NullString
	YearlyMonth  sql.NullInt64
	EndDate      sql.NullString
}

func encodeRule(rule core.RecurrenceRule) ruleColumns {
	cols := ruleColumns{
		Pattern:  string(rule.Pattern),
		Interval: rule.Interval,
		EndDate:  nullDate(rule.EndDate),
	}

	switch rule.Pattern {
	case core.Weekly:
		if len(rule.WeeklyDays) > 0 {
			names := make([]string, len(rule.WeeklyDays))
			for i, d := range rule.WeeklyDays {
				names[i] = d.String()
			}
			cols.WeeklyDays = sql.NullString{String: strings.Join(names, ","), Valid: true}
		}
	case core.Monthly:
		cols.MonthlyType = sql.NullString{String: string(rule.MonthlyType), Valid: true}
		switch rule.MonthlyType {
		case core.MonthlyOnDate:
			cols.MonthlyDate = sql.NullInt64{Int64: int64(rule.MonthlyDate), Valid: true}
		case core.MonthlyOnWeekday:
			cols.WeekPosition = sql.NullString{String: string(rule.WeekPosition), Valid: true}
			cols.Weekday = sql.NullString{String: rule.Weekday.String(), Valid: true}
		}
	case core.Yearly:
		cols.YearlyMonth = sql.NullInt64{Int64: int64(rule.YearlyMonth), Valid: true}
	}

	return cols
}

func decodeRule(cols ruleColumns) (core.RecurrenceRule, error) {
	rule := core.RecurrenceRule{
		Pattern:  core.Pattern(cols.Pattern),
		Interval: cols.Interval,
	}

	if cols.EndDate.Valid {
		end, err := scanDate(cols.EndDate)
		if err != nil {
			return core.RecurrenceRule{}, fmt.Errorf("decode end date: %w", err)
		}
		rule.EndDate = end
	}

	if cols.MonthlyType.Valid {
		rule.MonthlyType = core.MonthlyType(cols.MonthlyType.String)
	}
	if cols.MonthlyDate.Valid {
		rule.MonthlyDate = int(cols.MonthlyDate.Int64)
	}
	if cols.WeekPosition.Valid {
		rule.WeekPosition = core.WeekPosition(cols.WeekPosition.String)
	}
	if cols.Weekday.Valid {
		wd, err := core.ParseWeekday(cols.Weekday.String)
		if err != nil {
			return core.RecurrenceRule{}, fmt.Errorf("decode weekday: %w", err)
		}
		rule.Weekday = wd
	}
	if cols.WeeklyDays.Valid && cols.WeeklyDays.String != "" {
		for _, name := range strings.Split(cols.WeeklyDays.String, ",") {
			wd, err := core.ParseWeekday(name)
			if err != nil {
				return core.RecurrenceRule{}, fmt.Errorf("decode weekly days: %w", err)
			}
			rule.WeeklyDays = append(rule.WeeklyDays, wd)
		}
	}
	if cols.YearlyMonth.Valid {
		rule.YearlyMonth = int(cols.YearlyMonth.Int64)
	}

	return rule, nil
}
