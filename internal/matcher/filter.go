package matcher

import (
	"sort"

	"journal-ledger-matcher/internal/models"

	"github.com/shopspring/decimal"
)

// WorkingTransaction pairs a ledger transaction with its parsed amount. Only
// transactions whose amounts parse as numbers make it into the working set.
type WorkingTransaction struct {
	Tx     *models.LedgerTransaction
	Amount decimal.Decimal
}

// FilterCandidates reduces a ledger snapshot to a bounded, recency-ordered
// working set: sort descending by transaction timestamp, keep the most recent
// maxCandidates, and drop entries whose amount does not parse as a number.
// A pure projection with no side effects; nil and empty snapshots yield an
// empty working set.
func FilterCandidates(transactions []*models.LedgerTransaction, maxCandidates int) []*WorkingTransaction {
	if len(transactions) == 0 || maxCandidates <= 0 {
		return nil
	}

	// Work on a copy so the caller's snapshot order is never disturbed
	sorted := make([]*models.LedgerTransaction, len(transactions))
	copy(sorted, transactions)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	if len(sorted) > maxCandidates {
		sorted = sorted[:maxCandidates]
	}

	working := make([]*WorkingTransaction, 0, len(sorted))
	for _, tx := range sorted {
		amount, err := tx.AmountDecimal()
		if err != nil {
			continue
		}
		working = append(working, &WorkingTransaction{Tx: tx, Amount: amount})
	}

	return working
}
