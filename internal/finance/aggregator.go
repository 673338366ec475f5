// Package finance computes revenue aggregates and fund projections for
// report endpoints. Everything here is pure: inputs arrive pre-filtered
// to a single strata, nothing is read from storage or the clock.
package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"strata/internal/core"
)

// TierRevenue is the per-tier slice of a revenue report.
type TierRevenue struct {
	TierName  string
	UnitCount int
	Subtotal  core.Money
}

// RevenueReport is the monthly revenue aggregate for one strata. Units
// without a tier assignment (or referencing a tier that does not exist)
// contribute nothing to TotalMonthly and are counted in
// UnassignedUnitCount instead.
type RevenueReport struct {
	ByTier              map[string]TierRevenue
	UnassignedUnitCount int
	TotalMonthly        core.Money

	// EstimatedOutstanding is a flat 10% of TotalMonthly. It is a
	// heuristic placeholder, not a ledger reconciliation; see
	// EstimateOutstanding.
	EstimatedOutstanding core.Money
}

// TierInput carries fee tiers in one of two accepted shapes: the current
// explicit tier list, or the legacy flat {tierKey: amount} mapping some
// stratas still store. Exactly one field should be set; Normalize resolves
// the variant once so the aggregation itself never branches on shape.
type TierInput struct {
	Tiers []core.FeeTier
	Flat  map[string]core.Money
}

// Normalize resolves the input to an explicit tier list. Each legacy
// key/value pair becomes a FeeTier with the key as both ID and name.
// The result is sorted by ID so legacy input aggregates deterministically.
func (in TierInput) Normalize() []core.FeeTier {
	if len(in.Flat) == 0 {
		return in.Tiers
	}
	tiers := make([]core.FeeTier, 0, len(in.Flat))
	for key, amount := range in.Flat {
		tiers = append(tiers, core.FeeTier{ID: key, Name: key, Amount: amount})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].ID < tiers[j].ID })
	return tiers
}

// AggregateMonthlyRevenue computes per-tier unit counts and subtotals plus
// the monthly total. A negative tier amount is clamped to zero rather than
// rejected: these figures feed dashboards, where a degraded number beats a
// failed page.
func AggregateMonthlyRevenue(input TierInput, units []core.UnitFeeAssignment) RevenueReport {
	tiers := input.Normalize()

	report := RevenueReport{ByTier: make(map[string]TierRevenue, len(tiers))}
	for _, tier := range tiers {
		amount := tier.Amount.Cents
		if amount < 0 {
			amount = 0
		}

		count := 0
		for _, unit := range units {
			if unit.FeeTierID == tier.ID {
				count++
			}
		}

		subtotal := amount * int64(count)
		report.ByTier[tier.ID] = TierRevenue{
			TierName:  tier.Name,
			UnitCount: count,
			Subtotal:  core.Money{Cents: subtotal},
		}
		report.TotalMonthly.Cents += subtotal
	}

	for _, unit := range units {
		if unit.FeeTierID == "" {
			report.UnassignedUnitCount++
			continue
		}
		if _, ok := report.ByTier[unit.FeeTierID]; !ok {
			// Dangling tier reference: treated as unassigned, not an error.
			report.UnassignedUnitCount++
		}
	}

	report.EstimatedOutstanding = EstimateOutstanding(report.TotalMonthly)
	return report
}

// EstimateOutstanding returns a flat 10% of projected monthly revenue,
// rounded half-up to the cent.
//
// This is a known, intentional simplification: the figure is not derived
// from payment records and callers must not treat it as arrears tracking.
func EstimateOutstanding(totalMonthly core.Money) core.Money {
	estimate := decimal.New(totalMonthly.Cents, -2).
		Mul(decimal.New(10, -2)).
		Round(2)
	return core.Money{Cents: estimate.Shift(2).IntPart()}
}
