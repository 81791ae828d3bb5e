// Seeding tool that loads a small demo treasury: three accounts in
// different currencies, the default exchange-rate settings, and a handful
// of movements including one internal swap.
//
// Reads DATABASE_URL and other core config via pkg/config.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/JayMung/FactureX-sub003/internal/domain"
	"github.com/JayMung/FactureX-sub003/internal/rates"
	"github.com/JayMung/FactureX-sub003/internal/repository/postgres"
	"github.com/JayMung/FactureX-sub003/pkg/config"
	"github.com/JayMung/FactureX-sub003/pkg/logger"
)

func main() {
	log := logger.New("seed-treasury")

	cfg := config.Load()
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required", nil)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	defer db.Close()

	ctx := context.Background()
	compteRepo := postgres.NewCompteRepository(db)
	settingRepo := postgres.NewSettingRepository(db)

	// Default rate settings.
	if err := settingRepo.Upsert(ctx, rates.CategorieTauxChange, "usdToCny", rates.DefaultUsdToCny.String()); err != nil {
		log.Fatal("Failed to seed usdToCny", map[string]interface{}{"error": err.Error()})
	}
	if err := settingRepo.Upsert(ctx, rates.CategorieTauxChange, "usdToCdf", rates.DefaultUsdToCdf.String()); err != nil {
		log.Fatal("Failed to seed usdToCdf", map[string]interface{}{"error": err.Error()})
	}

	usd := ensureCompte(ctx, compteRepo, log, "Caisse USD", domain.CompteCash, domain.USD)
	cdf := ensureCompte(ctx, compteRepo, log, "Mobile Money CDF", domain.CompteMobileMoney, domain.CDF)
	cny := ensureCompte(ctx, compteRepo, log, "Banque CNY", domain.CompteBanque, domain.CNY)

	txID := seedSwapTransaction(ctx, db, log)

	base := time.Now().Add(-72 * time.Hour)
	seedMouvement(ctx, db, log, usd, domain.MouvementCredit, decimal.NewFromInt(1000), nil, "Encaissement client", base)
	seedMouvement(ctx, db, log, cdf, domain.MouvementCredit, decimal.NewFromInt(440000), nil, "Encaissement mobile money", base.Add(2*time.Hour))
	seedMouvement(ctx, db, log, usd, domain.MouvementDebit, decimal.NewFromInt(100), &txID, "Swap USD vers CNY", base.Add(24*time.Hour))
	seedMouvement(ctx, db, log, cny, domain.MouvementCredit, decimal.NewFromInt(695), &txID, "Swap USD vers CNY", base.Add(24*time.Hour))
	seedMouvement(ctx, db, log, usd, domain.MouvementDebit, decimal.NewFromInt(50), nil, "Frais de transport", base.Add(48*time.Hour))

	fmt.Println("OK: demo treasury seeded")
}

func ensureCompte(ctx context.Context, repo *postgres.CompteRepository, log logger.Logger, nom string, typeCompte domain.TypeCompte, devise domain.Devise) uuid.UUID {
	existing, err := repo.List(ctx)
	if err != nil {
		log.Fatal("Failed to list comptes", map[string]interface{}{"error": err.Error()})
	}
	for _, c := range existing {
		if c.Nom == nom {
			return c.ID
		}
	}

	now := time.Now()
	compte := &domain.CompteFinancier{
		ID:          uuid.New(),
		Nom:         nom,
		TypeCompte:  typeCompte,
		Devise:      devise,
		SoldeActuel: decimal.Zero,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(ctx, compte); err != nil {
		log.Fatal("Failed to create compte", map[string]interface{}{"error": err.Error(), "nom": nom})
	}
	log.Info("Compte created", map[string]interface{}{"nom": nom, "devise": string(devise)})
	return compte.ID
}

func seedSwapTransaction(ctx context.Context, db *sqlx.DB, log logger.Logger) uuid.UUID {
	id := uuid.New()
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (id, reference, type_transaction, motif, montant, devise, frais, benefice, statut, date_transaction)
		VALUES ($1, $2, 'transfert', 'Swap USD vers CNY', 100, 'USD', 5, 0, 'completed', NOW())
		ON CONFLICT (reference) DO NOTHING`,
		id, fmt.Sprintf("SWAP-%s", id.String()[:8]))
	if err != nil {
		log.Fatal("Failed to seed swap transaction", map[string]interface{}{"error": err.Error()})
	}
	return id
}

func seedMouvement(ctx context.Context, db *sqlx.DB, log logger.Logger, compteID uuid.UUID, typeMouvement domain.TypeMouvement, montant decimal.Decimal, txID *uuid.UUID, description string, date time.Time) {
	// Keeps solde_avant/solde_apres coherent per account as rows are added.
	var solde decimal.Decimal
	if err := db.GetContext(ctx, &solde, `SELECT solde_actuel FROM comptes_financiers WHERE id = $1`, compteID); err != nil {
		log.Fatal("Failed to read solde", map[string]interface{}{"error": err.Error()})
	}

	apres := solde.Add(montant)
	if typeMouvement == domain.MouvementDebit {
		apres = solde.Sub(montant)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO mouvements_comptes (id, compte_id, type_mouvement, montant, solde_avant, solde_apres, transaction_id, description, date_mouvement)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New(), compteID, typeMouvement, montant, solde, apres, txID, description, date)
	if err != nil {
		log.Fatal("Failed to seed mouvement", map[string]interface{}{"error": err.Error()})
	}

	if _, err := db.ExecContext(ctx, `UPDATE comptes_financiers SET solde_actuel = $1, updated_at = NOW() WHERE id = $2`, apres, compteID); err != nil {
		log.Fatal("Failed to update solde", map[string]interface{}{"error": err.Error()})
	}
}
