package rates

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
)

// CategorieTauxChange is the settings category holding the rate overrides.
const CategorieTauxChange = "taux_change"

const (
	cleUsdToCny = "usdToCny"
	cleUsdToCdf = "usdToCdf"

	cacheKey = "rates:taux_change"
)

// SettingsStore reads the key-value configuration rows the rates live in.
type SettingsStore interface {
	ListByCategorie(ctx context.Context, categorie string) ([]domain.Setting, error)
}

// Cache holds rate snapshots between fetches.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Provider fetches the current rate set from the settings store. When a cache
// and a non-zero TTL are configured, fetches within the TTL reuse the last
// snapshot; a zero TTL means one settings round-trip per call.
type Provider struct {
	store  SettingsStore
	cache  Cache
	ttl    time.Duration
	logger logger.Logger
}

func NewProvider(store SettingsStore, cache Cache, ttl time.Duration, log logger.Logger) *Provider {
	return &Provider{store: store, cache: cache, ttl: ttl, logger: log}
}

// Fetch returns the current rate set. Store failures degrade to the hardcoded
// defaults rather than failing the aggregation that needs them; the error is
// still returned so callers can log it.
func (p *Provider) Fetch(ctx context.Context) (Set, error) {
	if p.cache != nil && p.ttl > 0 {
		var cached Set
		if err := p.cache.Get(ctx, cacheKey, &cached); err == nil && cached.UsdToCny.IsPositive() && cached.UsdToCdf.IsPositive() {
			return cached, nil
		}
	}

	return p.refresh(ctx)
}

// FetchFresh bypasses the cache read, re-reads the settings store, and
// repopulates the cache. Used right after the rates are edited.
func (p *Provider) FetchFresh(ctx context.Context) (Set, error) {
	return p.refresh(ctx)
}

func (p *Provider) refresh(ctx context.Context) (Set, error) {
	set := Defaults()

	settings, err := p.store.ListByCategorie(ctx, CategorieTauxChange)
	if err != nil {
		p.logger.Warn("rates fetch failed, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		return set, err
	}

	for _, s := range settings {
		value, parseErr := decimal.NewFromString(s.Valeur)
		if parseErr != nil || !value.IsPositive() {
			// Malformed or non-positive override; keep the default for that
			// key so conversions never divide by zero.
			p.logger.Warn("invalid rate setting ignored", map[string]interface{}{
				"cle":    s.Cle,
				"valeur": s.Valeur,
			})
			continue
		}

		switch s.Cle {
		case cleUsdToCny:
			set.UsdToCny = value
		case cleUsdToCdf:
			set.UsdToCdf = value
		}
	}

	if p.cache != nil && p.ttl > 0 {
		if err := p.cache.Set(ctx, cacheKey, set, p.ttl); err != nil {
			p.logger.Warn("rates cache write failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return set, nil
}
