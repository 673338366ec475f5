package finance

import (
	"github.com/shopspring/decimal"

	"strata/internal/core"
)

// MonthProjection is one statement line of a fund projection.
type MonthProjection struct {
	Month    int
	Balance  core.Money
	Interest core.Money
}

// FundProjection is the result of projecting a fund balance forward.
type FundProjection struct {
	FinalBalance  core.Money
	TotalInterest core.Money
	Breakdown     []MonthProjection
}

// ProjectFundGrowth projects a fund balance forward by iterating month by
// month at annualRate/12, rounding to the cent at every step. The per-step
// rounding matches statement display granularity, so this deliberately
// does NOT equal the closed-form compound-interest formula; the iteration
// must not be replaced with one.
//
// The fund's declared compounding frequency is display metadata only: the
// iteration is always monthly regardless of its value. A fund without an
// interest rate projects flat. Non-positive months returns the balance
// unchanged with an empty breakdown.
func ProjectFundGrowth(fund core.FundSnapshot, months int) FundProjection {
	projection := FundProjection{FinalBalance: fund.Balance}
	if months <= 0 {
		return projection
	}

	annualRate := decimal.Zero
	if fund.InterestRate != nil {
		annualRate = decimal.NewFromFloat(*fund.InterestRate)
	}
	monthlyRate := annualRate.Div(decimal.NewFromInt(12))

	balance := decimal.New(fund.Balance.Cents, -2)
	totalInterest := decimal.Zero
	projection.Breakdown = make([]MonthProjection, 0, months)

	for month := 1; month <= months; month++ {
		interest := balance.Mul(monthlyRate).Round(2)
		balance = balance.Add(interest)
		totalInterest = totalInterest.Add(interest)

		projection.Breakdown = append(projection.Breakdown, MonthProjection{
			Month:    month,
			Balance:  moneyFromDecimal(balance),
			Interest: moneyFromDecimal(interest),
		})
	}

	projection.FinalBalance = moneyFromDecimal(balance)
	projection.TotalInterest = moneyFromDecimal(totalInterest)
	return projection
}

// moneyFromDecimal converts an already cent-rounded decimal to Money.
func moneyFromDecimal(d decimal.Decimal) core.Money {
	return core.Money{Cents: d.Shift(2).IntPart()}
}
