package worker

import (
	"context"
	"errors"
	"testing"

	"strata/internal/amqp"
	"strata/internal/core"
	"strata/internal/sheets/memory"
)

type fakeStore struct {
	expenses map[int64]core.Expense
	synced   []int64
	errored  []int64
	reset    int64
}

func newFakeStore(expenses ...core.Expense) *fakeStore {
	s := &fakeStore{expenses: map[int64]core.Expense{}}
	for _, e := range expenses {
		s.expenses[e.ID] = e
	}
	return s
}

func (s *fakeStore) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, errors.New("not found")
	}
	return e, nil
}

func (s *fakeStore) ListPendingSyncExpenses(_ context.Context, limit int) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range s.expenses {
		if len(out) >= limit {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeStore) MarkExpenseSynced(_ context.Context, id int64) error {
	s.synced = append(s.synced, id)
	delete(s.expenses, id)
	return nil
}

func (s *fakeStore) MarkExpenseSyncError(_ context.Context, id int64) error {
	s.errored = append(s.errored, id)
	return nil
}

func (s *fakeStore) ResetExpenseSyncErrors(_ context.Context) (int64, error) {
	return s.reset, nil
}

func validExpense(id int64) core.Expense {
	return core.Expense{
		ID:          id,
		StrataID:    1,
		Date:        core.NewDate(2024, 3, 15),
		Description: "Gutter cleaning",
		Amount:      core.Money{Cents: 12500},
		Category:    "maintenance",
	}
}

func TestLedgerWorker_HandleSyncMessage(t *testing.T) {
	store := newFakeStore(validExpense(7))
	ledger := memory.New()
	w := NewLedgerWorker(store, ledger, 10)

	msg := amqp.NewLedgerSyncMessage(7)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}

	if len(ledger.Items()) != 1 {
		t.Fatalf("ledger items = %d, want 1", len(ledger.Items()))
	}
	if len(store.synced) != 1 || store.synced[0] != 7 {
		t.Errorf("synced = %v, want [7]", store.synced)
	}
}

func TestLedgerWorker_HandleSyncMessage_MissingExpense(t *testing.T) {
	store := newFakeStore()
	w := NewLedgerWorker(store, memory.New(), 10)

	msg := amqp.NewLedgerSyncMessage(99)
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Error("HandleSyncMessage() should fail when the expense is not in storage")
	}
}

func TestLedgerWorker_ExportError_MarksRow(t *testing.T) {
	// An invalid expense makes the in-memory ledger reject the append.
	bad := validExpense(3)
	bad.Description = ""
	store := newFakeStore(bad)
	w := NewLedgerWorker(store, memory.New(), 10)

	msg := amqp.NewLedgerSyncMessage(3)
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("HandleSyncMessage() should propagate the append error")
	}

	if len(store.errored) != 1 || store.errored[0] != 3 {
		t.Errorf("errored = %v, want [3]", store.errored)
	}
	if len(store.synced) != 0 {
		t.Errorf("synced = %v, want empty", store.synced)
	}
}

func TestLedgerWorker_ProcessPendingExpenses(t *testing.T) {
	store := newFakeStore(validExpense(1), validExpense(2), validExpense(3))
	ledger := memory.New()
	w := NewLedgerWorker(store, ledger, 10)

	if err := w.ProcessPendingExpenses(context.Background()); err != nil {
		t.Fatalf("ProcessPendingExpenses() error = %v", err)
	}

	if len(ledger.Items()) != 3 {
		t.Errorf("ledger items = %d, want 3", len(ledger.Items()))
	}
	if len(store.synced) != 3 {
		t.Errorf("synced count = %d, want 3", len(store.synced))
	}
}

func TestLedgerWorker_ProcessPendingExpenses_Empty(t *testing.T) {
	w := NewLedgerWorker(newFakeStore(), memory.New(), 10)

	if err := w.ProcessPendingExpenses(context.Background()); err != nil {
		t.Fatalf("ProcessPendingExpenses() error = %v", err)
	}
}

func TestLedgerWorker_StartupSyncCheck(t *testing.T) {
	store := newFakeStore(validExpense(5))
	store.reset = 2
	ledger := memory.New()
	w := NewLedgerWorker(store, ledger, 10)

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck() error = %v", err)
	}

	if len(ledger.Items()) != 1 {
		t.Errorf("ledger items = %d, want 1", len(ledger.Items()))
	}
}
