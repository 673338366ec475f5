package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"strata/internal/amqp"
	"strata/internal/core"
	"strata/internal/metrics"
	"strata/internal/schedule"
	"strata/internal/storage"
)

// ReminderStore is the slice of storage the reminder service needs.
type ReminderStore interface {
	CreateReminder(ctx context.Context, rem core.Reminder) (int64, error)
	GetReminder(ctx context.Context, id int64) (core.Reminder, error)
	ListReminders(ctx context.Context, strataID int64) ([]core.Reminder, error)
	ListDueReminders(ctx context.Context, asOf core.Date) ([]core.Reminder, error)
	AdvanceReminder(ctx context.Context, id, version int64, next, lastSent core.Date, status core.ReminderStatus) error
	RescheduleReminder(ctx context.Context, id, version int64, rule core.RecurrenceRule, next core.Date, status core.ReminderStatus) error
	UpdateReminderStatus(ctx context.Context, id int64, status core.ReminderStatus) error
	DeleteReminder(ctx context.Context, id int64) error
}

// DispatchPublisher publishes due-reminder notifications.
type DispatchPublisher interface {
	PublishReminderDispatch(ctx context.Context, msg *amqp.ReminderDispatchMessage) error
}

// ErrInvalidTransition is returned for status changes the reminder
// lifecycle does not allow, such as resuming a cancelled reminder.
var ErrInvalidTransition = errors.New("invalid status transition")

// ReminderService orchestrates reminder scheduling across SQLite and AMQP.
type ReminderService struct {
	store     ReminderStore
	publisher DispatchPublisher
}

func NewReminderService(store ReminderStore, publisher DispatchPublisher) *ReminderService {
	return &ReminderService{store: store, publisher: publisher}
}

// CreateReminder validates the rule, seeds the first occurrence from the
// given reference date and persists the reminder. A rule that never fires
// again (end date already passed) is stored as completed.
func (s *ReminderService) CreateReminder(ctx context.Context, strataID int64, title string, rule core.RecurrenceRule, from core.Date) (core.Reminder, error) {
	rem := core.Reminder{
		StrataID: strataID,
		Title:    title,
		Rule:     rule,
		Status:   core.ReminderActive,
		Version:  1,
	}

	next, ok := schedule.NextOccurrence(rule, from)
	if ok {
		rem.NextDate = next
	} else {
		rem.Status = core.ReminderCompleted
	}

	if err := rem.Validate(); err != nil {
		return core.Reminder{}, err
	}

	id, err := s.store.CreateReminder(ctx, rem)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	rem.ID = id

	slog.InfoContext(ctx, "Reminder created",
		"id", id,
		"strata_id", strataID,
		"next_date", rem.NextDate.String(),
		"schedule", schedule.Describe(rule))

	return rem, nil
}

// ProcessDueReminders advances every active reminder whose next date has
// arrived and publishes a dispatch message for each. Returns how many
// reminders were dispatched.
//
// Concurrent workers are safe: the advance is an optimistic update keyed
// on the stored version, so a reminder claimed by another worker is
// skipped rather than dispatched twice.
func (s *ReminderService) ProcessDueReminders(ctx context.Context, now core.Date) (int, error) {
	due, err := s.store.ListDueReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	dispatched := 0
	for _, rem := range due {
		dueDate := rem.NextDate

		next, ok := schedule.NextOccurrence(rem.Rule, dueDate)
		status := core.ReminderActive
		if !ok {
			status = core.ReminderCompleted
			next = core.Date{}
		}

		err := s.store.AdvanceReminder(ctx, rem.ID, rem.Version, next, now, status)
		if errors.Is(err, storage.ErrVersionConflict) {
			metrics.ReminderConflicts.Inc()
			slog.InfoContext(ctx, "Reminder advanced by another worker, skipping",
				"id", rem.ID, "version", rem.Version)
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to advance reminder", "id", rem.ID, "error", err)
			continue
		}

		if err := s.publishDispatch(ctx, rem, dueDate); err != nil {
			// The advance is committed, so the occurrence is consumed
			// even if the notification could not be published.
			slog.ErrorContext(ctx, "Failed to publish dispatch message",
				"id", rem.ID, "error", err)
		}

		metrics.RemindersDispatched.Inc()
		dispatched++

		slog.InfoContext(ctx, "Reminder dispatched",
			"id", rem.ID,
			"due_date", dueDate.String(),
			"next_date", next.String(),
			"status", string(status))
	}

	return dispatched, nil
}

// Pause suspends dispatching for an active reminder.
func (s *ReminderService) Pause(ctx context.Context, id int64) error {
	return s.transition(ctx, id, core.ReminderPaused, core.ReminderActive)
}

// Resume reactivates a paused reminder.
func (s *ReminderService) Resume(ctx context.Context, id int64) error {
	return s.transition(ctx, id, core.ReminderActive, core.ReminderPaused)
}

// Cancel permanently stops a reminder that has not already finished.
func (s *ReminderService) Cancel(ctx context.Context, id int64) error {
	return s.transition(ctx, id, core.ReminderCancelled, core.ReminderActive, core.ReminderPaused)
}

func (s *ReminderService) transition(ctx context.Context, id int64, to core.ReminderStatus, allowedFrom ...core.ReminderStatus) error {
	rem, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return err
	}

	allowed := false
	for _, from := range allowedFrom {
		if rem.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, rem.Status, to)
	}

	if err := s.store.UpdateReminderStatus(ctx, id, to); err != nil {
		return fmt.Errorf("update reminder status: %w", err)
	}

	slog.InfoContext(ctx, "Reminder status changed", "id", id, "status", string(to))
	return nil
}

// Reschedule replaces a reminder's rule and recomputes its next date from
// the given reference. The update is optimistic on the stored version.
func (s *ReminderService) Reschedule(ctx context.Context, id int64, rule core.RecurrenceRule, from core.Date) (core.Reminder, error) {
	if err := rule.Validate(); err != nil {
		return core.Reminder{}, err
	}

	rem, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return core.Reminder{}, err
	}
	if rem.Status == core.ReminderCancelled {
		return core.Reminder{}, fmt.Errorf("%w: cannot reschedule a cancelled reminder", ErrInvalidTransition)
	}

	next, ok := schedule.NextOccurrence(rule, from)
	status := core.ReminderActive
	if !ok {
		status = core.ReminderCompleted
		next = core.Date{}
	}

	if err := s.store.RescheduleReminder(ctx, id, rem.Version, rule, next, status); err != nil {
		return core.Reminder{}, fmt.Errorf("reschedule reminder: %w", err)
	}

	rem.Rule = rule
	rem.NextDate = next
	rem.Status = status
	rem.Version++

	slog.InfoContext(ctx, "Reminder rescheduled",
		"id", id,
		"next_date", next.String(),
		"schedule", schedule.Describe(rule))

	return rem, nil
}

// SchedulePreview is a human-readable rendering of a rule plus its
// next few occurrences.
type SchedulePreview struct {
	Description string
	Occurrences []core.Date
}

// Preview renders a rule without persisting anything. Count is capped
// at 24 occurrences.
func (s *ReminderService) Preview(rule core.RecurrenceRule, from core.Date, count int) (SchedulePreview, error) {
	if err := rule.Validate(); err != nil {
		return SchedulePreview{}, err
	}
	if count < 1 {
		count = 1
	}
	if count > 24 {
		count = 24
	}

	preview := SchedulePreview{Description: schedule.Describe(rule)}
	ref := from
	for i := 0; i < count; i++ {
		next, ok := schedule.NextOccurrence(rule, ref)
		if !ok {
			break
		}
		preview.Occurrences = append(preview.Occurrences, next)
		ref = next
	}
	return preview, nil
}

func (s *ReminderService) publishDispatch(ctx context.Context, rem core.Reminder, dueDate core.Date) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Dispatch publisher not available, skipping message")
		return nil
	}
	msg := amqp.NewReminderDispatchMessage(rem.ID, rem.StrataID, rem.Title, dueDate.String())
	return s.publisher.PublishReminderDispatch(ctx, msg)
}
