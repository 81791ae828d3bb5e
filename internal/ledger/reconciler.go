// Package ledger computes the treasury's display-level aggregates: the
// cross-account running balance, per-account statistics, and the global
// balance rollup. Stored per-account balances remain the source of truth;
// this package only reconciles the USD view of them.
package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/internal/rates"
)

// Reconcile walks the full movement history in ascending
// (date_mouvement, created_at) order and assigns each movement the cumulative
// USD-normalized balance across all accounts up to and including it.
//
// The caller's query provides the ordering; this function trusts it and does
// not re-sort. Each amount is normalized using the owning account's currency,
// which is join-derived; a missing join leaves CompteDevise empty and the
// amount passes through as USD. The running balance is recomputed from
// scratch on every call, O(n) over all history; nothing is persisted.
func Reconcile(movementsAscending []domain.Mouvement, set rates.Set) map[uuid.UUID]decimal.Decimal {
	balances := make(map[uuid.UUID]decimal.Decimal, len(movementsAscending))

	running := decimal.Zero
	for i := range movementsAscending {
		m := &movementsAscending[i]

		normalized := rates.ToUSD(m.Montant, m.CompteDevise, set)
		if m.IsCredit() {
			running = running.Add(normalized)
		} else {
			running = running.Sub(normalized)
		}

		balances[m.ID] = running
	}

	return balances
}
