package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"strata/internal/core"
	"strata/internal/middleware/trace"
	"strata/internal/services"
)

// Store is the slice of storage the HTTP handlers need.
type Store interface {
	CreateStrata(ctx context.Context, name string) (core.Strata, error)
	GetStrata(ctx context.Context, id int64) (core.Strata, error)
	ListStratas(ctx context.Context) ([]core.Strata, error)

	CreateFeeTier(ctx context.Context, tier core.FeeTier) error
	ListFeeTiers(ctx context.Context, strataID int64) ([]core.FeeTier, error)
	DeleteFeeTier(ctx context.Context, strataID int64, tierID string) error

	CreateUnit(ctx context.Context, unit core.UnitFeeAssignment) (int64, error)
	ListUnitAssignments(ctx context.Context, strataID int64) ([]core.UnitFeeAssignment, error)
	AssignUnitTier(ctx context.Context, unitID int64, tierID string) error

	CreateFund(ctx context.Context, fund core.FundSnapshot) (int64, error)
	ListFunds(ctx context.Context, strataID int64) ([]core.FundSnapshot, error)
	UpdateFundBalance(ctx context.Context, id int64, balance core.Money) error

	CreateExpense(ctx context.Context, e core.Expense) (int64, error)
	ListExpenses(ctx context.Context, strataID int64, year, month int) ([]core.Expense, error)

	ListReminders(ctx context.Context, strataID int64) ([]core.Reminder, error)
	GetReminder(ctx context.Context, id int64) (core.Reminder, error)
	DeleteReminder(ctx context.Context, id int64) error
}

// LedgerPublisher queues an expense for export to the ledger spreadsheet.
type LedgerPublisher interface {
	PublishLedgerSync(ctx context.Context, expenseID int64) error
}

// Server is the back-office JSON API.
type Server struct {
	http.Server

	store     Store
	reminders *services.ReminderService
	reports   *services.ReportService
	publisher LedgerPublisher

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store Store, reminders *services.ReminderService, reports *services.ReportService, publisher LedgerPublisher) *Server {
	mux := http.NewServeMux()
	tracer := trace.NewMiddleware(extractClientIP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           tracer.Middleware(mux),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		store:     store,
		reminders: reminders,
		reports:   reports,
		publisher: publisher,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/stratas", s.handleStratas)

	mux.HandleFunc("/api/fee-tiers", s.handleFeeTiers)
	mux.HandleFunc("/api/units", s.handleUnits)
	mux.HandleFunc("/api/units/assign", s.handleAssignUnit)

	mux.HandleFunc("/api/reminders", s.handleReminders)
	mux.HandleFunc("/api/reminders/pause", s.handlePauseReminder)
	mux.HandleFunc("/api/reminders/resume", s.handleResumeReminder)
	mux.HandleFunc("/api/reminders/cancel", s.handleCancelReminder)
	mux.HandleFunc("/api/reminders/reschedule", s.handleRescheduleReminder)
	mux.HandleFunc("/api/schedule/preview", s.handleSchedulePreview)

	mux.HandleFunc("/api/funds", s.handleFunds)
	mux.HandleFunc("/api/funds/projection", s.handleFundProjection)

	mux.HandleFunc("/api/expenses", s.handleExpenses)
	mux.HandleFunc("/api/expenses/export", s.handleExpenseExport)

	mux.HandleFunc("/api/reports/revenue", s.handleRevenueReport)
	mux.HandleFunc("/api/reports/revenue/preview", s.handleRevenuePreview)

	return s
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
