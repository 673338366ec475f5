package services

import (
	"context"
	"testing"
	"time"

	"strata/internal/cache"
	"strata/internal/core"
	"strata/internal/finance"
	"strata/internal/storage"
)

type fakeFinanceStore struct {
	tiers     []core.FeeTier
	units     []core.UnitFeeAssignment
	funds     map[int64]core.FundSnapshot
	listCalls int
}

func (s *fakeFinanceStore) ListFeeTiers(_ context.Context, _ int64) ([]core.FeeTier, error) {
	s.listCalls++
	return s.tiers, nil
}

func (s *fakeFinanceStore) ListUnitAssignments(_ context.Context, _ int64) ([]core.UnitFeeAssignment, error) {
	return s.units, nil
}

func (s *fakeFinanceStore) GetFund(_ context.Context, id int64) (core.FundSnapshot, error) {
	fund, ok := s.funds[id]
	if !ok {
		return core.FundSnapshot{}, storage.ErrNotFound
	}
	return fund, nil
}

func (s *fakeFinanceStore) ListFunds(_ context.Context, strataID int64) ([]core.FundSnapshot, error) {
	var out []core.FundSnapshot
	for _, f := range s.funds {
		if f.StrataID == strataID {
			out = append(out, f)
		}
	}
	return out, nil
}

func TestReportService_RevenueReport(t *testing.T) {
	store := &fakeFinanceStore{
		tiers: []core.FeeTier{
			{ID: "standard", StrataID: 1, Name: "Standard", Amount: core.Money{Cents: 35000}},
		},
		units: []core.UnitFeeAssignment{
			{UnitID: 1, StrataID: 1, UnitNumber: "101", FeeTierID: "standard"},
			{UnitID: 2, StrataID: 1, UnitNumber: "102", FeeTierID: "standard"},
			{UnitID: 3, StrataID: 1, UnitNumber: "103", FeeTierID: ""},
		},
	}
	svc := NewReportService(store, cache.NewLRUCache[finance.RevenueReport](10, time.Minute))

	report, err := svc.RevenueReport(context.Background(), 1)
	if err != nil {
		t.Fatalf("RevenueReport() error = %v", err)
	}

	if report.TotalMonthly.Cents != 70000 {
		t.Errorf("TotalMonthly = %d, want 70000", report.TotalMonthly.Cents)
	}
	if report.UnassignedUnitCount != 1 {
		t.Errorf("UnassignedUnitCount = %d, want 1", report.UnassignedUnitCount)
	}
}

func TestReportService_RevenueReport_Caching(t *testing.T) {
	store := &fakeFinanceStore{
		tiers: []core.FeeTier{{ID: "a", StrataID: 1, Name: "A", Amount: core.Money{Cents: 100}}},
	}
	svc := NewReportService(store, cache.NewLRUCache[finance.RevenueReport](10, time.Minute))
	ctx := context.Background()

	if _, err := svc.RevenueReport(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RevenueReport(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if store.listCalls != 1 {
		t.Errorf("storage reads = %d, want 1 (second report served from cache)", store.listCalls)
	}

	svc.InvalidateRevenue(1)
	if _, err := svc.RevenueReport(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if store.listCalls != 2 {
		t.Errorf("storage reads = %d, want 2 after invalidation", store.listCalls)
	}
}

func TestReportService_FundProjection(t *testing.T) {
	rate := 0.12
	store := &fakeFinanceStore{
		funds: map[int64]core.FundSnapshot{
			5: {ID: 5, StrataID: 1, Name: "Reserve", Balance: core.Money{Cents: 100000}, InterestRate: &rate},
		},
	}
	svc := NewReportService(store, nil)

	proj, err := svc.FundProjection(context.Background(), 5, 1)
	if err != nil {
		t.Fatalf("FundProjection() error = %v", err)
	}
	if proj.FinalBalance.Cents != 101000 {
		t.Errorf("FinalBalance = %d, want 101000", proj.FinalBalance.Cents)
	}
	if proj.TotalInterest.Cents != 1000 {
		t.Errorf("TotalInterest = %d, want 1000", proj.TotalInterest.Cents)
	}
}

func TestReportService_FundProjection_MissingFund(t *testing.T) {
	svc := NewReportService(&fakeFinanceStore{funds: map[int64]core.FundSnapshot{}}, nil)

	if _, err := svc.FundProjection(context.Background(), 42, 6); err == nil {
		t.Error("FundProjection() should fail for an unknown fund")
	}
}
