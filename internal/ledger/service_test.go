package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/internal/rates"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
)

// --- Mocks ---

type MockMovementRepo struct {
	mock.Mock
}

func (m *MockMovementRepo) List(ctx context.Context, filters domain.MouvementFilters, limit, offset int) ([]domain.Mouvement, error) {
	args := m.Called(ctx, filters, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Mouvement), args.Error(1)
}

func (m *MockMovementRepo) Count(ctx context.Context, filters domain.MouvementFilters) (int, error) {
	args := m.Called(ctx, filters)
	return args.Int(0), args.Error(1)
}

func (m *MockMovementRepo) ListAllAscending(ctx context.Context) ([]domain.Mouvement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Mouvement), args.Error(1)
}

func (m *MockMovementRepo) ListByCompte(ctx context.Context, compteID uuid.UUID, limit int) ([]domain.Mouvement, error) {
	args := m.Called(ctx, compteID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Mouvement), args.Error(1)
}

func (m *MockMovementRepo) ListForStats(ctx context.Context, filters domain.MouvementFilters) ([]domain.Mouvement, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Mouvement), args.Error(1)
}

type MockCompteRepo struct {
	mock.Mock
}

func (m *MockCompteRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CompteFinancier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CompteFinancier), args.Error(1)
}

func (m *MockCompteRepo) ListActive(ctx context.Context) ([]domain.CompteFinancier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CompteFinancier), args.Error(1)
}

type fixedRates struct {
	set rates.Set
}

func (f fixedRates) Fetch(ctx context.Context) (rates.Set, error) {
	return f.set, nil
}

func defaultRates() fixedRates {
	return fixedRates{set: rates.Defaults()}
}

// --- ListMouvements ---

func TestListMouvements_AttachesSoldeGlobalWithoutCompteFilter(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	older := mouvement(domain.USD, domain.MouvementCredit, 100, base)
	newer := mouvement(domain.CDF, domain.MouvementCredit, 2200, base.Add(time.Hour))

	movRepo := new(MockMovementRepo)
	// Display page: descending.
	movRepo.On("List", mock.Anything, mock.Anything, 20, 0).Return([]domain.Mouvement{newer, older}, nil)
	movRepo.On("Count", mock.Anything, mock.Anything).Return(2, nil)
	// Reconciliation pass: full ascending history.
	movRepo.On("ListAllAscending", mock.Anything).Return([]domain.Mouvement{older, newer}, nil)

	svc := NewService(movRepo, new(MockCompteRepo), defaultRates(), logger.NewNop())

	page, err := svc.ListMouvements(context.Background(), 1, 20, domain.MouvementFilters{})
	assert.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, 1, page.TotalPages)

	assert.NotNil(t, page.Items[0].SoldeGlobal)
	assert.NotNil(t, page.Items[1].SoldeGlobal)
	assert.True(t, page.Items[1].SoldeGlobal.Equal(decimal.NewFromInt(100)), "older movement carries the first cumulative value")
	assert.True(t, page.Items[0].SoldeGlobal.Equal(decimal.NewFromInt(101)), "2200 CDF at 2200 adds exactly one USD")
}

func TestListMouvements_CompteFilterSkipsReconciliation(t *testing.T) {
	compteID := uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	item := mouvement(domain.USD, domain.MouvementDebit, 25, base)
	item.SoldeApres = decimal.NewFromInt(75)

	movRepo := new(MockMovementRepo)
	movRepo.On("List", mock.Anything, mock.Anything, 20, 0).Return([]domain.Mouvement{item}, nil)
	movRepo.On("Count", mock.Anything, mock.Anything).Return(1, nil)

	svc := NewService(movRepo, new(MockCompteRepo), defaultRates(), logger.NewNop())

	page, err := svc.ListMouvements(context.Background(), 1, 20, domain.MouvementFilters{CompteID: &compteID})
	assert.NoError(t, err)
	assert.Nil(t, page.Items[0].SoldeGlobal)
	movRepo.AssertNotCalled(t, "ListAllAscending", mock.Anything)
}

func TestListMouvements_MapMissFallsBackToSoldeApres(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	item := mouvement(domain.USD, domain.MouvementCredit, 10, base)
	item.SoldeApres = decimal.NewFromInt(310)

	movRepo := new(MockMovementRepo)
	movRepo.On("List", mock.Anything, mock.Anything, 20, 0).Return([]domain.Mouvement{item}, nil)
	movRepo.On("Count", mock.Anything, mock.Anything).Return(1, nil)
	// History fetch raced and does not contain the page item.
	movRepo.On("ListAllAscending", mock.Anything).Return([]domain.Mouvement{}, nil)

	svc := NewService(movRepo, new(MockCompteRepo), defaultRates(), logger.NewNop())

	page, err := svc.ListMouvements(context.Background(), 1, 20, domain.MouvementFilters{})
	assert.NoError(t, err)
	assert.NotNil(t, page.Items[0].SoldeGlobal)
	assert.True(t, page.Items[0].SoldeGlobal.Equal(decimal.NewFromInt(310)))
}

func TestListMouvements_QueryFailure(t *testing.T) {
	movRepo := new(MockMovementRepo)
	movRepo.On("List", mock.Anything, mock.Anything, 20, 0).Return(nil, errors.New("connection reset"))

	svc := NewService(movRepo, new(MockCompteRepo), defaultRates(), logger.NewNop())

	page, err := svc.ListMouvements(context.Background(), 1, 20, domain.MouvementFilters{})
	assert.Error(t, err)
	assert.Nil(t, page)
}

func TestListMouvements_PaginationBounds(t *testing.T) {
	movRepo := new(MockMovementRepo)
	movRepo.On("List", mock.Anything, mock.Anything, DefaultPageSize, 0).Return([]domain.Mouvement{}, nil)
	movRepo.On("Count", mock.Anything, mock.Anything).Return(0, nil)
	movRepo.On("ListAllAscending", mock.Anything).Return([]domain.Mouvement{}, nil)

	svc := NewService(movRepo, new(MockCompteRepo), defaultRates(), logger.NewNop())

	page, err := svc.ListMouvements(context.Background(), 0, -5, domain.MouvementFilters{})
	assert.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Equal(t, 0, page.TotalPages)
}

// --- CompteStats ---

func TestCompteStats_SoldeFromStoredBalance(t *testing.T) {
	compteID := uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	credit := mouvement(domain.USD, domain.MouvementCredit, 100, base)
	debit := mouvement(domain.USD, domain.MouvementDebit, 30, base.Add(time.Hour))

	movRepo := new(MockMovementRepo)
	movRepo.On("ListForStats", mock.Anything, mock.Anything).Return([]domain.Mouvement{credit, debit}, nil)

	compteRepo := new(MockCompteRepo)
	compteRepo.On("GetByID", mock.Anything, compteID).Return(&domain.CompteFinancier{
		ID:          compteID,
		Devise:      domain.USD,
		SoldeActuel: decimal.NewFromInt(400),
	}, nil)

	svc := NewService(movRepo, compteRepo, defaultRates(), logger.NewNop())
	stats := svc.CompteStats(context.Background(), compteID)

	assert.True(t, stats.TotalCredits.Equal(decimal.NewFromInt(100)))
	assert.True(t, stats.TotalDebits.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 1, stats.NombreCredits)
	assert.Equal(t, 1, stats.NombreDebits)
	// Stored balance, not 100-30: the account is authoritative.
	assert.True(t, stats.SoldeActuel.Equal(decimal.NewFromInt(400)))
}

func TestCompteStats_DegradesToZeroOnFailure(t *testing.T) {
	compteID := uuid.New()

	movRepo := new(MockMovementRepo)
	movRepo.On("ListForStats", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	compteRepo := new(MockCompteRepo)
	compteRepo.On("GetByID", mock.Anything, compteID).Return(nil, errors.New("timeout"))

	svc := NewService(movRepo, compteRepo, defaultRates(), logger.NewNop())
	stats := svc.CompteStats(context.Background(), compteID)

	assert.True(t, stats.TotalCredits.IsZero())
	assert.True(t, stats.TotalDebits.IsZero())
	assert.True(t, stats.SoldeActuel.IsZero())
	assert.Equal(t, 0, stats.NombreCredits)
	assert.Equal(t, 0, stats.NombreDebits)
}

// --- GlobalBalance ---

func TestGlobalBalance_SwapDeduplication(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	swapTx := uuid.New()
	frais := decimal.NewFromInt(5)

	swapDebit := mouvement(domain.USD, domain.MouvementDebit, 100, base)
	swapDebit.TransactionID = &swapTx
	swapDebit.Kind = domain.KindInternalTransfer
	swapDebit.TransactionFrais = frais

	swapCredit := mouvement(domain.USD, domain.MouvementCredit, 100, base.Add(time.Second))
	swapCredit.TransactionID = &swapTx
	swapCredit.Kind = domain.KindInternalTransfer
	swapCredit.TransactionFrais = frais

	revenue := mouvement(domain.USD, domain.MouvementCredit, 250, base.Add(time.Minute))
	revenue.Kind = domain.KindRevenue

	movRepo := new(MockMovementRepo)
	movRepo.On("ListAllAscending", mock.Anything).Return([]domain.Mouvement{swapDebit, swapCredit, revenue}, nil)

	compteRepo := new(MockCompteRepo)
	compteRepo.On("ListActive", mock.Anything).Return([]domain.CompteFinancier{}, nil)

	svc := NewService(movRepo, compteRepo, defaultRates(), logger.NewNop())
	balance, err := svc.GlobalBalance(context.Background())

	assert.NoError(t, err)
	// Only the debit leg counts toward volume; the fee counts once.
	assert.True(t, balance.TotalSwapVolume.Equal(decimal.NewFromInt(100)))
	assert.True(t, balance.TotalSwapFees.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 1, balance.NombreSwaps)
	// Swap legs never leak into the credit/debit totals.
	assert.True(t, balance.TotalCredits.Equal(decimal.NewFromInt(250)))
	assert.True(t, balance.TotalDebits.IsZero())
}

func TestGlobalBalance_SoldeNetFromStoredBalances(t *testing.T) {
	movRepo := new(MockMovementRepo)
	movRepo.On("ListAllAscending", mock.Anything).Return([]domain.Mouvement{}, nil)

	compteRepo := new(MockCompteRepo)
	compteRepo.On("ListActive", mock.Anything).Return([]domain.CompteFinancier{
		{ID: uuid.New(), Devise: domain.USD, SoldeActuel: decimal.NewFromInt(100)},
		{ID: uuid.New(), Devise: domain.CDF, SoldeActuel: decimal.NewFromInt(4400)},
		{ID: uuid.New(), Devise: domain.CNY, SoldeActuel: decimal.NewFromFloat(6.95)},
	}, nil)

	set := rates.Set{UsdToCny: decimal.NewFromFloat(6.95), UsdToCdf: decimal.NewFromInt(2200)}
	svc := NewService(movRepo, compteRepo, fixedRates{set: set}, logger.NewNop())

	balance, err := svc.GlobalBalance(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, balance.NombreComptes)
	// 100 + 4400/2200 + 6.95/6.95 = 103 USD.
	assert.True(t, balance.SoldeNet.Equal(decimal.NewFromInt(103)), "got %s", balance.SoldeNet)
}

// --- MouvementStats ---

func TestMouvementStats_Totals(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	movs := []domain.Mouvement{
		mouvement(domain.USD, domain.MouvementCredit, 120, base),
		mouvement(domain.USD, domain.MouvementDebit, 20, base.Add(time.Hour)),
		mouvement(domain.USD, domain.MouvementDebit, 30, base.Add(2*time.Hour)),
	}

	movRepo := new(MockMovementRepo)
	movRepo.On("ListForStats", mock.Anything, mock.Anything).Return(movs, nil)

	svc := NewService(movRepo, new(MockCompteRepo), defaultRates(), logger.NewNop())
	stats, err := svc.MouvementStats(context.Background(), domain.MouvementFilters{})

	assert.NoError(t, err)
	assert.Equal(t, 3, stats.NombreMouvements)
	assert.Equal(t, 1, stats.NombreCredits)
	assert.Equal(t, 2, stats.NombreDebits)
	assert.True(t, stats.SoldeNet.Equal(decimal.NewFromInt(70)))
}
