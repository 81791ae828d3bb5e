package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
)

type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) ListByCategorie(ctx context.Context, categorie string) ([]domain.Setting, error) {
	args := m.Called(ctx, categorie)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Setting), args.Error(1)
}

func TestFetch_NoOverridesReturnsDefaults(t *testing.T) {
	store := new(MockSettingsStore)
	store.On("ListByCategorie", mock.Anything, "taux_change").Return([]domain.Setting{}, nil)

	p := NewProvider(store, nil, 0, logger.NewNop())
	set, err := p.Fetch(context.Background())

	assert.NoError(t, err)
	assert.True(t, set.UsdToCny.Equal(decimal.NewFromFloat(6.95)))
	assert.True(t, set.UsdToCdf.Equal(decimal.NewFromInt(2200)))
}

func TestFetch_AppliesOverrides(t *testing.T) {
	store := new(MockSettingsStore)
	store.On("ListByCategorie", mock.Anything, "taux_change").Return([]domain.Setting{
		{Categorie: "taux_change", Cle: "usdToCny", Valeur: "7.25"},
		{Categorie: "taux_change", Cle: "usdToCdf", Valeur: "2850"},
	}, nil)

	p := NewProvider(store, nil, 0, logger.NewNop())
	set, err := p.Fetch(context.Background())

	assert.NoError(t, err)
	assert.True(t, set.UsdToCny.Equal(decimal.NewFromFloat(7.25)))
	assert.True(t, set.UsdToCdf.Equal(decimal.NewFromInt(2850)))
}

func TestFetch_MalformedValueKeepsDefault(t *testing.T) {
	store := new(MockSettingsStore)
	store.On("ListByCategorie", mock.Anything, "taux_change").Return([]domain.Setting{
		{Categorie: "taux_change", Cle: "usdToCdf", Valeur: "not-a-number"},
		{Categorie: "taux_change", Cle: "usdToCny", Valeur: "0"},
	}, nil)

	p := NewProvider(store, nil, 0, logger.NewNop())
	set, err := p.Fetch(context.Background())

	assert.NoError(t, err)
	assert.True(t, set.UsdToCdf.Equal(decimal.NewFromInt(2200)), "malformed value must keep the default")
	assert.True(t, set.UsdToCny.Equal(decimal.NewFromFloat(6.95)), "zero value must keep the default")
}

func TestFetch_UnknownKeysIgnored(t *testing.T) {
	store := new(MockSettingsStore)
	store.On("ListByCategorie", mock.Anything, "taux_change").Return([]domain.Setting{
		{Categorie: "taux_change", Cle: "usdToEur", Valeur: "0.92"},
	}, nil)

	p := NewProvider(store, nil, 0, logger.NewNop())
	set, err := p.Fetch(context.Background())

	assert.NoError(t, err)
	assert.True(t, set.UsdToCny.Equal(decimal.NewFromFloat(6.95)))
	assert.True(t, set.UsdToCdf.Equal(decimal.NewFromInt(2200)))
}

func TestFetch_StoreFailureDegradesToDefaults(t *testing.T) {
	store := new(MockSettingsStore)
	store.On("ListByCategorie", mock.Anything, "taux_change").Return(nil, errors.New("connection refused"))

	p := NewProvider(store, nil, 0, logger.NewNop())
	set, err := p.Fetch(context.Background())

	assert.Error(t, err)
	assert.True(t, set.UsdToCny.Equal(decimal.NewFromFloat(6.95)))
	assert.True(t, set.UsdToCdf.Equal(decimal.NewFromInt(2200)))
}

func TestFetch_CacheShortCircuitsStore(t *testing.T) {
	store := new(MockSettingsStore)
	store.On("ListByCategorie", mock.Anything, "taux_change").Return([]domain.Setting{
		{Categorie: "taux_change", Cle: "usdToCny", Valeur: "7.10"},
	}, nil).Once()

	p := NewProvider(store, NewMemoryCache(), time.Minute, logger.NewNop())

	first, err := p.Fetch(context.Background())
	assert.NoError(t, err)

	// Second fetch within the TTL must not hit the store again.
	second, err := p.Fetch(context.Background())
	assert.NoError(t, err)
	assert.True(t, first.UsdToCny.Equal(second.UsdToCny))
	assert.True(t, first.UsdToCdf.Equal(second.UsdToCdf))

	store.AssertNumberOfCalls(t, "ListByCategorie", 1)
}

func TestFetch_ZeroTTLDisablesCache(t *testing.T) {
	store := new(MockSettingsStore)
	store.On("ListByCategorie", mock.Anything, "taux_change").Return([]domain.Setting{}, nil)

	p := NewProvider(store, NewMemoryCache(), 0, logger.NewNop())

	_, _ = p.Fetch(context.Background())
	_, _ = p.Fetch(context.Background())

	store.AssertNumberOfCalls(t, "ListByCategorie", 2)
}
