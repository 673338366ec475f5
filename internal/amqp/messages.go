package amqp

import (
	"encoding/json"
	"time"
)

// LedgerSyncMessage asks the ledger worker to export one expense to the
// spreadsheet. It carries only the ID, the worker fetches the full row
// from the database.
type LedgerSyncMessage struct {
	ExpenseID int64     `json:"expense_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerSyncMessage(expenseID int64) *LedgerSyncMessage {
	return &LedgerSyncMessage{
		ExpenseID: expenseID,
		Timestamp: time.Now(),
	}
}

func (m *LedgerSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSyncMessageFromJSON(data []byte) (*LedgerSyncMessage, error) {
	var msg LedgerSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ReminderDispatchMessage announces that a reminder has come due.
// Consumers use it to notify committee members through whatever channel
// they integrate (email, chat, push).
type ReminderDispatchMessage struct {
	ReminderID int64     `json:"reminder_id"`
	StrataID   int64     `json:"strata_id"`
	Title      string    `json:"title"`
	DueDate    string    `json:"due_date"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewReminderDispatchMessage(reminderID, strataID int64, title, dueDate string) *ReminderDispatchMessage {
	return &ReminderDispatchMessage{
		ReminderID: reminderID,
		StrataID:   strataID,
		Title:      title,
		DueDate:    dueDate,
		Timestamp:  time.Now(),
	}
}

func (m *ReminderDispatchMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReminderDispatchMessageFromJSON(data []byte) (*ReminderDispatchMessage, error) {
	var msg ReminderDispatchMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
