package sheets

import (
	"context"

	"strata/internal/core"
)

// Ports for outbound ledger adapters.
type (
	// LedgerWriter appends one expense row to the shared ledger and
	// returns a reference to the written row.
	LedgerWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}
)
