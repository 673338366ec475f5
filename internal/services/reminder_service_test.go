package services

import (
	"context"
	"errors"
	"testing"

	"strata/internal/amqp"
	"strata/internal/core"
	"strata/internal/storage"
)

type fakeReminderStore struct {
	reminders map[int64]core.Reminder
	nextID    int64

	// advanceErr is returned by the first AdvanceReminder call when set.
	advanceErr error
}

func newFakeReminderStore() *fakeReminderStore {
	return &fakeReminderStore{reminders: map[int64]core.Reminder{}}
}

func (s *fakeReminderStore) CreateReminder(_ context.Context, rem core.Reminder) (int64, error) {
	s.nextID++
	rem.ID = s.nextID
	s.reminders[rem.ID] = rem
	return rem.ID, nil
}

func (s *fakeReminderStore) GetReminder(_ context.Context, id int64) (core.Reminder, error) {
	rem, ok := s.reminders[id]
	if !ok {
		return core.Reminder{}, storage.ErrNotFound
	}
	return rem, nil
}

func (s *fakeReminderStore) ListReminders(_ context.Context, strataID int64) ([]core.Reminder, error) {
	var out []core.Reminder
	for _, rem := range s.reminders {
		if rem.StrataID == strataID {
			out = append(out, rem)
		}
	}
	return out, nil
}

func (s *fakeReminderStore) ListDueReminders(_ context.Context, asOf core.Date) ([]core.Reminder, error) {
	var out []core.Reminder
	for _, rem := range s.reminders {
		if rem.Status == core.ReminderActive && !rem.NextDate.After(asOf) {
			out = append(out, rem)
		}
	}
	return out, nil
}

func (s *fakeReminderStore) AdvanceReminder(_ context.Context, id, version int64, next, lastSent core.Date, status core.ReminderStatus) error {
	if s.advanceErr != nil {
		err := s.advanceErr
		s.advanceErr = nil
		return err
	}
	rem, ok := s.reminders[id]
	if !ok || rem.Version != version {
		return storage.ErrVersionConflict
	}
	rem.NextDate = next
	rem.LastSent = lastSent
	rem.SentCount++
	rem.Status = status
	rem.Version++
	s.reminders[id] = rem
	return nil
}

func (s *fakeReminderStore) RescheduleReminder(_ context.Context, id, version int64, rule core.RecurrenceRule, next core.Date, status core.ReminderStatus) error {
	rem, ok := s.reminders[id]
	if !ok || rem.Version != version {
		return storage.ErrVersionConflict
	}
	rem.Rule = rule
	rem.NextDate = next
	rem.Status = status
	rem.Version++
	s.reminders[id] = rem
	return nil
}

func (s *fakeReminderStore) UpdateReminderStatus(_ context.Context, id int64, status core.ReminderStatus) error {
	rem, ok := s.reminders[id]
	if !ok {
		return storage.ErrNotFound
	}
	rem.Status = status
	s.reminders[id] = rem
	return nil
}

func (s *fakeReminderStore) DeleteReminder(_ context.Context, id int64) error {
	delete(s.reminders, id)
	return nil
}

type fakePublisher struct {
	messages []*amqp.ReminderDispatchMessage
	err      error
}

func (p *fakePublisher) PublishReminderDispatch(_ context.Context, msg *amqp.ReminderDispatchMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func monthlyRule(day int) core.RecurrenceRule {
	return core.RecurrenceRule{
		Pattern:     core.Monthly,
		Interval:    1,
		MonthlyType: core.MonthlyOnDate,
		MonthlyDate: day,
	}
}

func TestReminderService_CreateReminder(t *testing.T) {
	store := newFakeReminderStore()
	svc := NewReminderService(store, &fakePublisher{})

	rem, err := svc.CreateReminder(context.Background(), 1, "Levy due", monthlyRule(15), core.NewDate(2024, 1, 10))
	if err != nil {
		t.Fatalf("CreateReminder() error = %v", err)
	}

	if rem.Status != core.ReminderActive {
		t.Errorf("Status = %v, want active", rem.Status)
	}
	// The first occurrence lands one interval after the reference month.
	if got := rem.NextDate.String(); got != "2024-02-15" {
		t.Errorf("NextDate = %s, want 2024-02-15", got)
	}
	if rem.ID == 0 {
		t.Error("ID should be assigned")
	}
}

func TestReminderService_CreateReminder_ExpiredSeries(t *testing.T) {
	store := newFakeReminderStore()
	svc := NewReminderService(store, &fakePublisher{})

	rule := monthlyRule(15)
	rule.EndDate = core.NewDate(2023, 12, 31)

	rem, err := svc.CreateReminder(context.Background(), 1, "Old levy", rule, core.NewDate(2024, 1, 10))
	if err != nil {
		t.Fatalf("CreateReminder() error = %v", err)
	}
	if rem.Status != core.ReminderCompleted {
		t.Errorf("Status = %v, want completed", rem.Status)
	}
}

func TestReminderService_CreateReminder_InvalidRule(t *testing.T) {
	svc := NewReminderService(newFakeReminderStore(), &fakePublisher{})

	bad := core.RecurrenceRule{Pattern: core.Monthly, Interval: 1}
	if _, err := svc.CreateReminder(context.Background(), 1, "Broken", bad, core.NewDate(2024, 1, 1)); err == nil {
		t.Error("CreateReminder() should reject a monthly rule without a monthly type")
	}
}

func TestReminderService_ProcessDueReminders(t *testing.T) {
	store := newFakeReminderStore()
	pub := &fakePublisher{}
	svc := NewReminderService(store, pub)
	ctx := context.Background()

	if _, err := svc.CreateReminder(ctx, 1, "Levy due", monthlyRule(15), core.NewDate(2024, 1, 10)); err != nil {
		t.Fatal(err)
	}

	// Not yet due.
	n, err := svc.ProcessDueReminders(ctx, core.NewDate(2024, 2, 14))
	if err != nil {
		t.Fatalf("ProcessDueReminders() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("dispatched = %d, want 0", n)
	}

	// Due today.
	n, err = svc.ProcessDueReminders(ctx, core.NewDate(2024, 2, 15))
	if err != nil {
		t.Fatalf("ProcessDueReminders() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("dispatched = %d, want 1", n)
	}

	if len(pub.messages) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.messages))
	}
	if pub.messages[0].DueDate != "2024-02-15" {
		t.Errorf("message DueDate = %s, want 2024-02-15", pub.messages[0].DueDate)
	}

	rem := store.reminders[1]
	if got := rem.NextDate.String(); got != "2024-03-15" {
		t.Errorf("NextDate after advance = %s, want 2024-03-15", got)
	}
	if rem.SentCount != 1 {
		t.Errorf("SentCount = %d, want 1", rem.SentCount)
	}
	if rem.Version != 2 {
		t.Errorf("Version = %d, want 2", rem.Version)
	}

	// Same day again: the reminder has advanced past today.
	n, err = svc.ProcessDueReminders(ctx, core.NewDate(2024, 2, 15))
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second run dispatched = %d, want 0", n)
	}
}

func TestReminderService_ProcessDueReminders_VersionConflict(t *testing.T) {
	store := newFakeReminderStore()
	pub := &fakePublisher{}
	svc := NewReminderService(store, pub)
	ctx := context.Background()

	if _, err := svc.CreateReminder(ctx, 1, "Levy due", monthlyRule(15), core.NewDate(2024, 1, 10)); err != nil {
		t.Fatal(err)
	}
	store.advanceErr = storage.ErrVersionConflict

	n, err := svc.ProcessDueReminders(ctx, core.NewDate(2024, 2, 15))
	if err != nil {
		t.Fatalf("ProcessDueReminders() error = %v", err)
	}
	if n != 0 {
		t.Errorf("dispatched = %d, want 0 on conflict", n)
	}
	if len(pub.messages) != 0 {
		t.Errorf("published = %d, want 0 on conflict", len(pub.messages))
	}
}

func TestReminderService_ProcessDueReminders_SeriesEnds(t *testing.T) {
	store := newFakeReminderStore()
	svc := NewReminderService(store, &fakePublisher{})
	ctx := context.Background()

	rule := monthlyRule(15)
	rule.EndDate = core.NewDate(2024, 3, 1)

	if _, err := svc.CreateReminder(ctx, 1, "Final levy", rule, core.NewDate(2024, 1, 10)); err != nil {
		t.Fatal(err)
	}

	n, err := svc.ProcessDueReminders(ctx, core.NewDate(2024, 2, 15))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("dispatched = %d, want 1", n)
	}

	rem := store.reminders[1]
	if rem.Status != core.ReminderCompleted {
		t.Errorf("Status = %v, want completed after series end", rem.Status)
	}
	if !rem.NextDate.IsZero() {
		t.Errorf("NextDate = %v, want zero after series end", rem.NextDate)
	}
}

func TestReminderService_StatusTransitions(t *testing.T) {
	store := newFakeReminderStore()
	svc := NewReminderService(store, &fakePublisher{})
	ctx := context.Background()

	rem, err := svc.CreateReminder(ctx, 1, "Levy due", monthlyRule(15), core.NewDate(2024, 1, 10))
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Resume(ctx, rem.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Resume() on active = %v, want ErrInvalidTransition", err)
	}

	if err := svc.Pause(ctx, rem.ID); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if store.reminders[rem.ID].Status != core.ReminderPaused {
		t.Error("reminder should be paused")
	}

	if err := svc.Pause(ctx, rem.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Pause() on paused = %v, want ErrInvalidTransition", err)
	}

	if err := svc.Resume(ctx, rem.ID); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}

	if err := svc.Cancel(ctx, rem.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if err := svc.Resume(ctx, rem.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Resume() on cancelled = %v, want ErrInvalidTransition", err)
	}
}

func TestReminderService_PausedRemindersNotDispatched(t *testing.T) {
	store := newFakeReminderStore()
	pub := &fakePublisher{}
	svc := NewReminderService(store, pub)
	ctx := context.Background()

	rem, err := svc.CreateReminder(ctx, 1, "Levy due", monthlyRule(15), core.NewDate(2024, 1, 10))
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Pause(ctx, rem.ID); err != nil {
		t.Fatal(err)
	}

	n, err := svc.ProcessDueReminders(ctx, core.NewDate(2024, 2, 20))
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("dispatched = %d, want 0 for paused reminder", n)
	}
}

func TestReminderService_Reschedule(t *testing.T) {
	store := newFakeReminderStore()
	svc := NewReminderService(store, &fakePublisher{})
	ctx := context.Background()

	rem, err := svc.CreateReminder(ctx, 1, "Levy due", monthlyRule(15), core.NewDate(2024, 1, 10))
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Reschedule(ctx, rem.ID, monthlyRule(1), core.NewDate(2024, 1, 10))
	if err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}
	if got := updated.NextDate.String(); got != "2024-02-01" {
		t.Errorf("NextDate = %s, want 2024-02-01", got)
	}
	if updated.Version != rem.Version+1 {
		t.Errorf("Version = %d, want %d", updated.Version, rem.Version+1)
	}

	if err := svc.Cancel(ctx, rem.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Reschedule(ctx, rem.ID, monthlyRule(1), core.NewDate(2024, 1, 10)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Reschedule() on cancelled = %v, want ErrInvalidTransition", err)
	}
}

func TestReminderService_Preview(t *testing.T) {
	svc := NewReminderService(newFakeReminderStore(), &fakePublisher{})

	preview, err := svc.Preview(monthlyRule(31), core.NewDate(2024, 1, 1), 3)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}

	want := []string{"2024-02-29", "2024-03-31", "2024-04-30"}
	if len(preview.Occurrences) != len(want) {
		t.Fatalf("occurrences = %d, want %d", len(preview.Occurrences), len(want))
	}
	for i, w := range want {
		if got := preview.Occurrences[i].String(); got != w {
			t.Errorf("occurrence[%d] = %s, want %s", i, got, w)
		}
	}
	if preview.Description == "" {
		t.Error("Description should not be empty")
	}
}

func TestReminderService_Preview_EndedSeries(t *testing.T) {
	svc := NewReminderService(newFakeReminderStore(), &fakePublisher{})

	rule := monthlyRule(15)
	rule.EndDate = core.NewDate(2024, 3, 1)

	preview, err := svc.Preview(rule, core.NewDate(2024, 1, 1), 12)
	if err != nil {
		t.Fatal(err)
	}
	// Only Feb 15 fits before the end date.
	if len(preview.Occurrences) != 1 {
		t.Errorf("occurrences = %d, want 1", len(preview.Occurrences))
	}
}
