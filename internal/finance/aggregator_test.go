package finance

import (
	"testing"

	"strata/internal/core"
)

func tier(id, name string, cents int64) core.FeeTier {
	return core.FeeTier{ID: id, Name: name, Amount: core.Money{Cents: cents}}
}

func unit(id int64, tierID string) core.UnitFeeAssignment {
	return core.UnitFeeAssignment{UnitID: id, FeeTierID: tierID}
}

func TestAggregateMonthlyRevenue(t *testing.T) {
	tiers := TierInput{Tiers: []core.FeeTier{
		tier("a", "Standard", 10000),
		tier("b", "Premium", 20000),
	}}
	units := []core.UnitFeeAssignment{
		unit(1, "a"), unit(2, "a"), unit(3, "a"),
		unit(4, "b"), unit(5, "b"),
		unit(6, ""),
	}

	got := AggregateMonthlyRevenue(tiers, units)

	if got.TotalMonthly.Cents != 70000 {
		t.Errorf("TotalMonthly = %d, want 70000", got.TotalMonthly.Cents)
	}
	if got.UnassignedUnitCount != 1 {
		t.Errorf("UnassignedUnitCount = %d, want 1", got.UnassignedUnitCount)
	}

	a := got.ByTier["a"]
	if a.UnitCount != 3 || a.Subtotal.Cents != 30000 {
		t.Errorf("tier a = {count:%d subtotal:%d}, want {count:3 subtotal:30000}", a.UnitCount, a.Subtotal.Cents)
	}
	b := got.ByTier["b"]
	if b.UnitCount != 2 || b.Subtotal.Cents != 40000 {
		t.Errorf("tier b = {count:%d subtotal:%d}, want {count:2 subtotal:40000}", b.UnitCount, b.Subtotal.Cents)
	}
	if got.EstimatedOutstanding.Cents != 7000 {
		t.Errorf("EstimatedOutstanding = %d, want 7000", got.EstimatedOutstanding.Cents)
	}
}

func TestAggregateMonthlyRevenue_EdgeCases(t *testing.T) {
	tests := []struct {
		name           string
		input          TierInput
		units          []core.UnitFeeAssignment
		wantTotal      int64
		wantUnassigned int
	}{
		{
			name:           "no tiers at all",
			input:          TierInput{},
			units:          []core.UnitFeeAssignment{unit(1, ""), unit(2, "ghost")},
			wantTotal:      0,
			wantUnassigned: 2,
		},
		{
			name:           "dangling tier reference counts as unassigned",
			input:          TierInput{Tiers: []core.FeeTier{tier("a", "Standard", 5000)}},
			units:          []core.UnitFeeAssignment{unit(1, "a"), unit(2, "deleted-tier")},
			wantTotal:      5000,
			wantUnassigned: 1,
		},
		{
			name:           "tier with no units",
			input:          TierInput{Tiers: []core.FeeTier{tier("a", "Standard", 5000)}},
			units:          nil,
			wantTotal:      0,
			wantUnassigned: 0,
		},
		{
			name:           "negative amount clamped to zero",
			input:          TierInput{Tiers: []core.FeeTier{tier("a", "Broken", -5000)}},
			units:          []core.UnitFeeAssignment{unit(1, "a")},
			wantTotal:      0,
			wantUnassigned: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateMonthlyRevenue(tt.input, tt.units)
			if got.TotalMonthly.Cents != tt.wantTotal {
				t.Errorf("TotalMonthly = %d, want %d", got.TotalMonthly.Cents, tt.wantTotal)
			}
			if got.UnassignedUnitCount != tt.wantUnassigned {
				t.Errorf("UnassignedUnitCount = %d, want %d", got.UnassignedUnitCount, tt.wantUnassigned)
			}
		})
	}
}

func TestTierInput_NormalizeLegacyFlatMap(t *testing.T) {
	legacy := TierInput{Flat: map[string]core.Money{
		"studio":      {Cents: 28000},
		"one_bedroom": {Cents: 35000},
	}}
	explicit := TierInput{Tiers: []core.FeeTier{
		tier("studio", "studio", 28000),
		tier("one_bedroom", "one_bedroom", 35000),
	}}
	units := []core.UnitFeeAssignment{
		unit(1, "studio"), unit(2, "studio"), unit(3, "one_bedroom"),
	}

	fromLegacy := AggregateMonthlyRevenue(legacy, units)
	fromExplicit := AggregateMonthlyRevenue(explicit, units)

	if fromLegacy.TotalMonthly != fromExplicit.TotalMonthly {
		t.Errorf("legacy total %d != explicit total %d",
			fromLegacy.TotalMonthly.Cents, fromExplicit.TotalMonthly.Cents)
	}
	if fromLegacy.TotalMonthly.Cents != 91000 {
		t.Errorf("TotalMonthly = %d, want 91000", fromLegacy.TotalMonthly.Cents)
	}

	normalized := legacy.Normalize()
	if len(normalized) != 2 {
		t.Fatalf("Normalize() returned %d tiers, want 2", len(normalized))
	}
	// Sorted by ID for determinism.
	if normalized[0].ID != "one_bedroom" || normalized[1].ID != "studio" {
		t.Errorf("Normalize() order = [%s, %s], want [one_bedroom, studio]",
			normalized[0].ID, normalized[1].ID)
	}
}

func TestEstimateOutstanding(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		want  int64
	}{
		{"round figure", 70000, 7000},
		{"rounds half up", 5, 1}, // 0.5 cents -> 1 cent
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateOutstanding(core.Money{Cents: tt.total})
			if got.Cents != tt.want {
				t.Errorf("EstimateOutstanding(%d) = %d, want %d", tt.total, got.Cents, tt.want)
			}
		})
	}
}
