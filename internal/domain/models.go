// Package domain defines the core treasury entities: financial accounts,
// account movements, transactions, settings, and the admin-side records
// (API keys, audit logs).
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Devise is an ISO 4217 currency code handled by the treasury.
type Devise string

const (
	USD Devise = "USD" // US Dollar (reporting currency)
	CDF Devise = "CDF" // Congolese Franc
	CNY Devise = "CNY" // Chinese Yuan
)

// TypeCompte categorizes financial accounts.
type TypeCompte string

const (
	CompteMobileMoney TypeCompte = "mobile_money"
	CompteBanque      TypeCompte = "banque"
	CompteCash        TypeCompte = "cash"
)

// TypeMouvement is the direction of an account movement.
type TypeMouvement string

const (
	MouvementCredit TypeMouvement = "credit"
	MouvementDebit  TypeMouvement = "debit"
)

// TransactionKind is the closed classification of a movement's originating
// transaction, decided once when rows are scanned rather than re-derived by
// string comparison at every aggregation.
type TransactionKind string

const (
	KindRevenue          TransactionKind = "revenue"
	KindExpense          TransactionKind = "expense"
	KindInternalTransfer TransactionKind = "internal_transfer"
)

// KindOf maps a stored type_transaction value to its TransactionKind.
// Movements without an originating transaction count as revenue/expense flow.
func KindOf(typeTransaction string) TransactionKind {
	switch strings.ToLower(strings.TrimSpace(typeTransaction)) {
	case "transfert":
		return KindInternalTransfer
	case "depense", "expense":
		return KindExpense
	default:
		return KindRevenue
	}
}

// CompteFinancier is a financial account. SoldeActuel is the authoritative
// stored balance, maintained upstream by the transaction-posting logic.
type CompteFinancier struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Nom         string          `json:"nom" db:"nom"`
	TypeCompte  TypeCompte      `json:"type_compte" db:"type_compte"`
	Devise      Devise          `json:"devise" db:"devise"`
	SoldeActuel decimal.Decimal `json:"solde_actuel" db:"solde_actuel"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Mouvement is a single credit or debit posted against an account. Amounts
// are in the owning account's currency; the movement itself carries no
// currency of its own, so CompteDevise is join-derived and may be empty when
// the join misses.
type Mouvement struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	CompteID      uuid.UUID       `json:"compte_id" db:"compte_id"`
	TypeMouvement TypeMouvement   `json:"type_mouvement" db:"type_mouvement"`
	Montant       decimal.Decimal `json:"montant" db:"montant"`
	SoldeAvant    decimal.Decimal `json:"solde_avant" db:"solde_avant"`
	SoldeApres    decimal.Decimal `json:"solde_apres" db:"solde_apres"`
	TransactionID *uuid.UUID      `json:"transaction_id,omitempty" db:"transaction_id"`
	Description   string          `json:"description" db:"description"`
	DateMouvement time.Time       `json:"date_mouvement" db:"date_mouvement"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`

	// Joined columns.
	CompteNom        string          `json:"compte_nom,omitempty" db:"compte_nom"`
	CompteDevise     Devise          `json:"compte_devise,omitempty" db:"compte_devise"`
	TransactionType  string          `json:"transaction_type,omitempty" db:"transaction_type"`
	TransactionFrais decimal.Decimal `json:"-" db:"transaction_frais"`

	// Kind is derived from TransactionType at scan time.
	Kind TransactionKind `json:"kind,omitempty" db:"-"`

	// SoldeGlobal is the cumulative USD-normalized balance across all
	// accounts up to and including this movement. Computed per query, never
	// persisted, and only populated when no single-account filter is active.
	SoldeGlobal *decimal.Decimal `json:"solde_global,omitempty" db:"-"`
}

// IsCredit reports whether the movement adds to its account balance.
func (m *Mouvement) IsCredit() bool {
	return m.TypeMouvement == MouvementCredit
}

// Transaction is the originating business operation a movement may link to.
type Transaction struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Reference       string          `json:"reference" db:"reference"`
	TypeTransaction string          `json:"type_transaction" db:"type_transaction"`
	Motif           string          `json:"motif" db:"motif"`
	Montant         decimal.Decimal `json:"montant" db:"montant"`
	Devise          Devise          `json:"devise" db:"devise"`
	Frais           decimal.Decimal `json:"frais" db:"frais"`
	Benefice        decimal.Decimal `json:"benefice" db:"benefice"`
	Statut          string          `json:"statut" db:"statut"`
	DateTransaction time.Time       `json:"date_transaction" db:"date_transaction"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Setting is one row of the key-value configuration store, keyed by
// (categorie, cle). Exchange rates live under categorie "taux_change".
type Setting struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Categorie string    `json:"categorie" db:"categorie"`
	Cle       string    `json:"cle" db:"cle"`
	Valeur    string    `json:"valeur" db:"valeur"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TauxChangeSnapshot records the rate pair applied at a point in time.
type TauxChangeSnapshot struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UsdToCny  decimal.Decimal `json:"usd_to_cny" db:"usd_to_cny"`
	UsdToCdf  decimal.Decimal `json:"usd_to_cdf" db:"usd_to_cdf"`
	Source    string          `json:"source" db:"source"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// APIKey is a hashed credential for programmatic access.
type APIKey struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Nom        string     `json:"nom" db:"nom"`
	KeyPrefix  string     `json:"key_prefix" db:"key_prefix"`
	KeyHash    string     `json:"-" db:"key_hash"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// AuditLog is one entry of the request audit trail.
type AuditLog struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Action     string     `json:"action" db:"action"`
	IPAddress  *string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string    `json:"user_agent,omitempty" db:"user_agent"`
	RequestID  *string    `json:"request_id,omitempty" db:"request_id"`
	StatusCode *int       `json:"status_code,omitempty" db:"status_code"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// MouvementFilters narrows movement queries. All fields are optional and
// combine as an AND-conjunction.
type MouvementFilters struct {
	CompteID      *uuid.UUID
	TypeMouvement TypeMouvement
	DateFrom      *time.Time
	DateTo        *time.Time
}

// TransactionFilters narrows transaction queries.
type TransactionFilters struct {
	TypeTransaction string
	DateFrom        *time.Time
	DateTo          *time.Time
}
