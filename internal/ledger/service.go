package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/internal/rates"
	"github.com/JayMung/FactureX-sub003/pkg/errors"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MovementRepository defines the movement reads the service depends on.
type MovementRepository interface {
	List(ctx context.Context, filters domain.MouvementFilters, limit, offset int) ([]domain.Mouvement, error)
	Count(ctx context.Context, filters domain.MouvementFilters) (int, error)
	// ListAllAscending returns the complete unfiltered history ordered by
	// (date_mouvement, created_at) ascending, accounts and transactions
	// joined in.
	ListAllAscending(ctx context.Context) ([]domain.Mouvement, error)
	ListByCompte(ctx context.Context, compteID uuid.UUID, limit int) ([]domain.Mouvement, error)
	ListForStats(ctx context.Context, filters domain.MouvementFilters) ([]domain.Mouvement, error)
}

// CompteRepository defines the account reads the service depends on.
type CompteRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CompteFinancier, error)
	ListActive(ctx context.Context) ([]domain.CompteFinancier, error)
}

// RateProvider supplies the conversion snapshot for one aggregation pass.
type RateProvider interface {
	Fetch(ctx context.Context) (rates.Set, error)
}

// Service is the read-side treasury aggregator.
type Service struct {
	mouvements MovementRepository
	comptes    CompteRepository
	rates      RateProvider
	logger     logger.Logger
}

func NewService(mouvements MovementRepository, comptes CompteRepository, rateProvider RateProvider, log logger.Logger) *Service {
	return &Service{
		mouvements: mouvements,
		comptes:    comptes,
		rates:      rateProvider,
		logger:     log,
	}
}

// PaginatedMouvements is one display page plus its pagination envelope.
type PaginatedMouvements struct {
	Items      []domain.Mouvement `json:"data"`
	Count      int                `json:"count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// ListMouvements returns one page of movements in descending display order.
// When no single-account filter is set, it additionally replays the full
// unfiltered history to attach each item's cumulative cross-account USD
// balance. With an account filter, the global balance is not meaningful and
// items carry only their stored solde_apres.
func (s *Service) ListMouvements(ctx context.Context, page, pageSize int, filters domain.MouvementFilters) (*PaginatedMouvements, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	offset := (page - 1) * pageSize

	items, err := s.mouvements.List(ctx, filters, pageSize, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list mouvements")
	}

	count, err := s.mouvements.Count(ctx, filters)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count mouvements")
	}

	if filters.CompteID == nil {
		if err := s.attachSoldeGlobal(ctx, items); err != nil {
			return nil, err
		}
	}

	totalPages := 0
	if count > 0 {
		totalPages = (count + pageSize - 1) / pageSize
	}

	return &PaginatedMouvements{
		Items:      items,
		Count:      count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// attachSoldeGlobal reconciles the full history and stamps each page item.
// A map miss means the item was created between the two fetches; its stored
// solde_apres stands in so the column never renders empty.
func (s *Service) attachSoldeGlobal(ctx context.Context, items []domain.Mouvement) error {
	history, err := s.mouvements.ListAllAscending(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load mouvement history")
	}

	set, err := s.rates.Fetch(ctx)
	if err != nil {
		s.logger.Warn("using default rates for reconciliation", map[string]interface{}{
			"error": err.Error(),
		})
	}

	balances := Reconcile(history, set)
	for i := range items {
		if balance, ok := balances[items[i].ID]; ok {
			b := balance
			items[i].SoldeGlobal = &b
		} else {
			fallback := items[i].SoldeApres
			items[i].SoldeGlobal = &fallback
		}
	}
	return nil
}

// CompteMouvements returns the most recent movements of one account.
func (s *Service) CompteMouvements(ctx context.Context, compteID uuid.UUID, limit int) ([]domain.Mouvement, error) {
	if limit < 1 {
		limit = 10
	}
	items, err := s.mouvements.ListByCompte(ctx, compteID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list compte mouvements")
	}
	return items, nil
}

// CompteStats summarizes one account's movement totals.
type CompteStats struct {
	TotalDebits   decimal.Decimal `json:"total_debits"`
	TotalCredits  decimal.Decimal `json:"total_credits"`
	NombreDebits  int             `json:"nombre_debits"`
	NombreCredits int             `json:"nombre_credits"`
	SoldeActuel   decimal.Decimal `json:"solde_actuel"`
}

// CompteStats sums the account's debit/credit totals and counts. SoldeActuel
// comes straight from the stored account balance, never from movement replay,
// so this view cannot drift from the upstream source of truth. Fetch failures
// are logged and the affected figures stay zero.
func (s *Service) CompteStats(ctx context.Context, compteID uuid.UUID) *CompteStats {
	stats := &CompteStats{
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
		SoldeActuel:  decimal.Zero,
	}

	compte, err := s.comptes.GetByID(ctx, compteID)
	if err != nil {
		s.logger.Error("failed to load compte for stats", map[string]interface{}{
			"compte_id": compteID.String(),
			"error":     err.Error(),
		})
	} else {
		stats.SoldeActuel = compte.SoldeActuel
	}

	filters := domain.MouvementFilters{CompteID: &compteID}
	mouvements, err := s.mouvements.ListForStats(ctx, filters)
	if err != nil {
		s.logger.Error("failed to load mouvements for stats", map[string]interface{}{
			"compte_id": compteID.String(),
			"error":     err.Error(),
		})
		return stats
	}

	for i := range mouvements {
		m := &mouvements[i]
		if m.IsCredit() {
			stats.TotalCredits = stats.TotalCredits.Add(m.Montant)
			stats.NombreCredits++
		} else {
			stats.TotalDebits = stats.TotalDebits.Add(m.Montant)
			stats.NombreDebits++
		}
	}

	return stats
}

// MouvementStats summarizes filtered movement flow in raw account currencies.
type MouvementStats struct {
	TotalDebits      decimal.Decimal `json:"total_debits"`
	TotalCredits     decimal.Decimal `json:"total_credits"`
	NombreDebits     int             `json:"nombre_debits"`
	NombreCredits    int             `json:"nombre_credits"`
	NombreMouvements int             `json:"nombre_mouvements"`
	SoldeNet         decimal.Decimal `json:"solde_net"`
}

// MouvementStats totals the filtered movement flow without pagination.
func (s *Service) MouvementStats(ctx context.Context, filters domain.MouvementFilters) (*MouvementStats, error) {
	mouvements, err := s.mouvements.ListForStats(ctx, filters)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load mouvements for stats")
	}

	stats := &MouvementStats{
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
		SoldeNet:     decimal.Zero,
	}
	for i := range mouvements {
		m := &mouvements[i]
		if m.IsCredit() {
			stats.TotalCredits = stats.TotalCredits.Add(m.Montant)
			stats.NombreCredits++
		} else {
			stats.TotalDebits = stats.TotalDebits.Add(m.Montant)
			stats.NombreDebits++
		}
	}
	stats.NombreMouvements = len(mouvements)
	stats.SoldeNet = stats.TotalCredits.Sub(stats.TotalDebits)

	return stats, nil
}

// GlobalBalance is the treasury-wide rollup, everything in USD.
type GlobalBalance struct {
	TotalCredits    decimal.Decimal `json:"total_credits"`
	TotalDebits     decimal.Decimal `json:"total_debits"`
	SoldeNet        decimal.Decimal `json:"solde_net"`
	NombreComptes   int             `json:"nombre_comptes"`
	TotalSwapVolume decimal.Decimal `json:"total_swap_volume"`
	TotalSwapFees   decimal.Decimal `json:"total_swap_fees"`
	NombreSwaps     int             `json:"nombre_swaps"`
}

// GlobalBalance aggregates the whole treasury in USD. SoldeNet converts the
// authoritative stored balance of each active account; it never replays
// movements. Credit/debit totals exclude internal transfers, which are
// tracked separately: a transfer posts two movements sharing one
// transaction, so volume counts only the debit leg and the fee is taken once
// per distinct transaction id. Assumes transfers post exactly two legs.
func (s *Service) GlobalBalance(ctx context.Context) (*GlobalBalance, error) {
	set, err := s.rates.Fetch(ctx)
	if err != nil {
		s.logger.Warn("using default rates for global balance", map[string]interface{}{
			"error": err.Error(),
		})
	}

	result := &GlobalBalance{
		TotalCredits:    decimal.Zero,
		TotalDebits:     decimal.Zero,
		SoldeNet:        decimal.Zero,
		TotalSwapVolume: decimal.Zero,
		TotalSwapFees:   decimal.Zero,
	}

	comptes, err := s.comptes.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list comptes")
	}
	for i := range comptes {
		c := &comptes[i]
		result.SoldeNet = result.SoldeNet.Add(rates.ToUSD(c.SoldeActuel, c.Devise, set))
	}
	result.NombreComptes = len(comptes)

	mouvements, err := s.mouvements.ListAllAscending(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list mouvements")
	}

	seenSwaps := make(map[uuid.UUID]struct{})
	for i := range mouvements {
		m := &mouvements[i]
		usd := rates.ToUSD(m.Montant, m.CompteDevise, set)

		if m.Kind == domain.KindInternalTransfer {
			if !m.IsCredit() {
				result.TotalSwapVolume = result.TotalSwapVolume.Add(usd)
			}
			if m.TransactionID != nil {
				if _, seen := seenSwaps[*m.TransactionID]; !seen {
					seenSwaps[*m.TransactionID] = struct{}{}
					result.TotalSwapFees = result.TotalSwapFees.Add(m.TransactionFrais)
				}
			}
			continue
		}

		if m.IsCredit() {
			result.TotalCredits = result.TotalCredits.Add(usd)
		} else {
			result.TotalDebits = result.TotalDebits.Add(usd)
		}
	}
	result.NombreSwaps = len(seenSwaps)

	return result, nil
}
