package services

import (
	"context"
	"fmt"
	"log/slog"

	"strata/internal/cache"
	"strata/internal/core"
	"strata/internal/finance"
	"strata/internal/metrics"
)

// FinanceStore is the slice of storage the report service needs.
type FinanceStore interface {
	ListFeeTiers(ctx context.Context, strataID int64) ([]core.FeeTier, error)
	ListUnitAssignments(ctx context.Context, strataID int64) ([]core.UnitFeeAssignment, error)
	GetFund(ctx context.Context, id int64) (core.FundSnapshot, error)
	ListFunds(ctx context.Context, strataID int64) ([]core.FundSnapshot, error)
}

// ReportService computes revenue and fund reports, caching revenue
// aggregations per strata.
type ReportService struct {
	store FinanceStore
	cache cache.Cache[finance.RevenueReport]
}

func NewReportService(store FinanceStore, reportCache cache.Cache[finance.RevenueReport]) *ReportService {
	return &ReportService{store: store, cache: reportCache}
}

// RevenueReport aggregates a strata's monthly revenue from its fee tiers
// and unit assignments. Results are cached until invalidated or expired.
func (s *ReportService) RevenueReport(ctx context.Context, strataID int64) (finance.RevenueReport, error) {
	key := revenueCacheKey(strataID)
	if s.cache != nil {
		if report, ok := s.cache.Get(key); ok {
			metrics.ReportCacheHits.WithLabelValues("hit").Inc()
			return report, nil
		}
		metrics.ReportCacheHits.WithLabelValues("miss").Inc()
	}

	tiers, err := s.store.ListFeeTiers(ctx, strataID)
	if err != nil {
		return finance.RevenueReport{}, fmt.Errorf("list fee tiers: %w", err)
	}
	units, err := s.store.ListUnitAssignments(ctx, strataID)
	if err != nil {
		return finance.RevenueReport{}, fmt.Errorf("list unit assignments: %w", err)
	}

	report := finance.AggregateMonthlyRevenue(finance.TierInput{Tiers: tiers}, units)

	if s.cache != nil {
		s.cache.Set(key, report)
	}

	slog.InfoContext(ctx, "Revenue report computed",
		"strata_id", strataID,
		"total_monthly_cents", report.TotalMonthly.Cents,
		"unassigned_units", report.UnassignedUnitCount)

	return report, nil
}

// InvalidateRevenue drops the cached report for a strata. Called after
// tier or unit writes.
func (s *ReportService) InvalidateRevenue(strataID int64) {
	if s.cache != nil {
		s.cache.Delete(revenueCacheKey(strataID))
	}
}

// FundProjection projects a fund's growth over the given number of months.
func (s *ReportService) FundProjection(ctx context.Context, fundID int64, months int) (finance.FundProjection, error) {
	fund, err := s.store.GetFund(ctx, fundID)
	if err != nil {
		return finance.FundProjection{}, err
	}
	return finance.ProjectFundGrowth(fund, months), nil
}

// FundOverview lists a strata's funds with their current balances.
func (s *ReportService) FundOverview(ctx context.Context, strataID int64) ([]core.FundSnapshot, error) {
	return s.store.ListFunds(ctx, strataID)
}

func revenueCacheKey(strataID int64) string {
	return fmt.Sprintf("revenue:%d", strataID)
}
