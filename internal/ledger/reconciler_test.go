package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/internal/rates"
)

func mouvement(devise domain.Devise, typ domain.TypeMouvement, montant int64, at time.Time) domain.Mouvement {
	return domain.Mouvement{
		ID:            uuid.New(),
		CompteID:      uuid.New(),
		TypeMouvement: typ,
		Montant:       decimal.NewFromInt(montant),
		CompteDevise:  devise,
		DateMouvement: at,
		CreatedAt:     at,
	}
}

func TestReconcile_EmptyHistory(t *testing.T) {
	balances := Reconcile(nil, rates.Defaults())
	assert.Empty(t, balances)

	balances = Reconcile([]domain.Mouvement{}, rates.Defaults())
	assert.Empty(t, balances)
}

func TestReconcile_Additivity(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	movs := []domain.Mouvement{
		mouvement(domain.USD, domain.MouvementCredit, 100, base),
		mouvement(domain.USD, domain.MouvementDebit, 40, base.Add(time.Hour)),
		mouvement(domain.USD, domain.MouvementCredit, 10, base.Add(2*time.Hour)),
	}

	balances := Reconcile(movs, rates.Defaults())

	assert.True(t, balances[movs[0].ID].Equal(decimal.NewFromInt(100)))
	assert.True(t, balances[movs[1].ID].Equal(decimal.NewFromInt(60)))
	assert.True(t, balances[movs[2].ID].Equal(decimal.NewFromInt(70)))
}

func TestReconcile_CrossCurrency(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	movs := []domain.Mouvement{
		mouvement(domain.USD, domain.MouvementCredit, 100, base),
		mouvement(domain.CDF, domain.MouvementCredit, 2200, base.Add(time.Minute)),
	}

	set := rates.Set{
		UsdToCny: decimal.NewFromFloat(6.95),
		UsdToCdf: decimal.NewFromInt(2200),
	}
	balances := Reconcile(movs, set)

	assert.True(t, balances[movs[0].ID].Equal(decimal.NewFromInt(100)))
	assert.True(t, balances[movs[1].ID].Equal(decimal.NewFromInt(101)))
}

func TestReconcile_Deterministic(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	movs := []domain.Mouvement{
		mouvement(domain.USD, domain.MouvementCredit, 500, base),
		mouvement(domain.CNY, domain.MouvementDebit, 139, base.Add(time.Minute)),
		mouvement(domain.CDF, domain.MouvementCredit, 4400, base.Add(2*time.Minute)),
	}

	set := rates.Defaults()
	first := Reconcile(movs, set)
	second := Reconcile(movs, set)

	assert.Equal(t, len(first), len(second))
	for id, balance := range first {
		assert.True(t, balance.Equal(second[id]), "balances must be identical across passes")
	}
}

func TestReconcile_MissingDeviseJoinDefaultsToUSD(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := mouvement("", domain.MouvementCredit, 50, base)

	balances := Reconcile([]domain.Mouvement{m}, rates.Defaults())

	assert.True(t, balances[m.ID].Equal(decimal.NewFromInt(50)))
}

func TestReconcile_TiedTimestampsFinalTotalOrderIndependent(t *testing.T) {
	// Same-instant movements: intermediate snapshots depend on the
	// created_at tie-break applied by the query, but the total after the
	// tied group does not.
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := mouvement(domain.USD, domain.MouvementCredit, 30, at)
	b := mouvement(domain.USD, domain.MouvementDebit, 10, at)

	set := rates.Defaults()
	forward := Reconcile([]domain.Mouvement{a, b}, set)
	reversed := Reconcile([]domain.Mouvement{b, a}, set)

	assert.True(t, forward[b.ID].Equal(decimal.NewFromInt(20)))
	assert.True(t, reversed[a.ID].Equal(decimal.NewFromInt(20)))
}
