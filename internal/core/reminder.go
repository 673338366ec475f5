package core

import (
	"errors"
	"strings"
)

// ReminderStatus is the lifecycle state of a reminder series.
type ReminderStatus string

const (
	ReminderActive    ReminderStatus = "active"
	ReminderPaused    ReminderStatus = "paused"
	ReminderCompleted ReminderStatus = "completed"
	ReminderCancelled ReminderStatus = "cancelled"
)

// Reminder is a recurring payment-reminder configuration together with
// its per-instance occurrence state. NextDate is zero once the series
// has ended; SentCount is monotonically non-decreasing. Version backs
// optimistic updates so concurrent sends cannot double-advance the
// schedule.
type Reminder struct {
	ID       int64
	StrataID int64
	Title    string
	Rule     RecurrenceRule

	NextDate  Date
	LastSent  Date
	SentCount int64
	Status    ReminderStatus
	Version   int64
}

var ErrEmptyTitle = errors.New("empty title")

func (r Reminder) Validate() error {
	if len(strings.TrimSpace(r.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(r.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	switch r.Status {
	case ReminderActive, ReminderPaused, ReminderCompleted, ReminderCancelled:
	default:
		return errors.New("invalid reminder status")
	}
	return r.Rule.Validate()
}
