package amqp

import (
	"testing"
	"time"
)

func TestNewLedgerSyncMessage(t *testing.T) {
	msg := NewLedgerSyncMessage(12345)

	if msg.ExpenseID != 12345 {
		t.Errorf("NewLedgerSyncMessage() ExpenseID = %v, want %v", msg.ExpenseID, 12345)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewLedgerSyncMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewLedgerSyncMessage() Timestamp should be recent")
	}
}

func TestReminderDispatchMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &ReminderDispatchMessage{
		ReminderID: 7,
		StrataID:   3,
		Title:      "Fire alarm inspection",
		DueDate:    "2024-03-15",
		Timestamp:  timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ReminderDispatchMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ReminderDispatchMessageFromJSON() error = %v", err)
	}

	if parsed.ReminderID != msg.ReminderID {
		t.Errorf("Parsed ReminderID = %v, want %v", parsed.ReminderID, msg.ReminderID)
	}
	if parsed.Title != msg.Title {
		t.Errorf("Parsed Title = %q, want %q", parsed.Title, msg.Title)
	}
	if parsed.DueDate != msg.DueDate {
		t.Errorf("Parsed DueDate = %q, want %q", parsed.DueDate, msg.DueDate)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestLedgerSyncMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"expense_id": "not_a_number"}`)

	if _, err := LedgerSyncMessageFromJSON(invalidJSON); err == nil {
		t.Error("LedgerSyncMessageFromJSON() should fail with invalid JSON")
	}
}
