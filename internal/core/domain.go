package core

import (
	"errors"
	"strings"
	"time"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Strata is a tenant organization (condominium/property corporation).
	// Every other entity belongs to exactly one strata.
	Strata struct {
		ID   int64
		Name string
	}

	// FeeTier is a named monthly-charge bracket assignable to units.
	FeeTier struct {
		ID       string
		StrataID int64
		Name     string
		Amount   Money
	}

	// UnitFeeAssignment links a unit to at most one fee tier.
	// An empty FeeTierID means the unit is unassigned and contributes
	// nothing to aggregated revenue.
	UnitFeeAssignment struct {
		UnitID     int64
		StrataID   int64
		UnitNumber string
		FeeTierID  string
	}

	// FundSnapshot is a point-in-time view of a reserve or operating fund.
	// InterestRate is the annual rate as a decimal fraction (0.025 = 2.5%);
	// nil means the fund accrues no interest.
	FundSnapshot struct {
		ID           int64
		StrataID     int64
		Name         string
		Balance      Money
		Target       *Money
		InterestRate *float64
		Compounding  CompoundingFrequency
	}

	Expense struct {
		ID          int64
		StrataID    int64
		Date        Date
		Description string
		Amount      Money
		Category    string
	}
)

type CompoundingFrequency string

const (
	CompoundMonthly   CompoundingFrequency = "monthly"
	CompoundQuarterly CompoundingFrequency = "quarterly"
	CompoundAnnually  CompoundingFrequency = "annually"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyTierID      = errors.New("empty tier id")
)

// NewDate creates a day-granularity Date in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to day granularity in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d falls on an earlier day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d falls on a later day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t FeeTier) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyTierID
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	return t.Amount.Validate()
}

func (f FundSnapshot) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	if err := f.Balance.Validate(); err != nil {
		return err
	}
	switch f.Compounding {
	case CompoundMonthly, CompoundQuarterly, CompoundAnnually, "":
	default:
		return errors.New("invalid compounding frequency")
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if e.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Category) == "" {
		return errors.New("empty category")
	}
	return nil
}
