package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/PlanPay/app/models"
	"gorm.io/gorm"
)

// AccountRepository defines the account operations the billing add-on needs
type AccountRepository interface {
	GetByID(id string) (*models.Account, error)
	List(offset, limit int) ([]models.Account, error)
	Count() (int64, error)
	Save(account *models.Account) error
	UpdatePlan(id, planID string, expiration time.Time) error
	Delete(id string) error
}

// PlanRepository reads and replaces the ordered plan list
type PlanRepository interface {
	// List returns the decodable plans and the number of stored entries that were skipped.
	List() ([]models.Plan, int, error)
	ReplaceAll(plans []models.Plan) error
}

// PaymentSettingsRepository reads and writes the payment settings singleton
type PaymentSettingsRepository interface {
	// Get returns gorm.ErrRecordNotFound when the settings were never saved.
	Get() (*models.PaymentSettings, error)
	Save(settings *models.PaymentSettings) error
}

// AliasRepository defines the pending payment alias ledger
type AliasRepository interface {
	// Replace removes any alias of the account and inserts the given one.
	Replace(alias *models.AliasPayment) error
	GetByAccountID(accountID string) (*models.AliasPayment, error)
	GetByAlias(alias string) (*models.AliasPayment, error)
	// Consume deletes the alias and reports whether this call removed it.
	Consume(alias string) (bool, error)
	// DeleteByAccountID removes the pending alias of an account, if any.
	DeleteByAccountID(accountID string) error
}

// PaymentHistoryRepository defines the append-only payment log
type PaymentHistoryRepository interface {
	Append(record *models.PaymentHistory) error
	List(offset, limit int) ([]models.PaymentHistory, error)
	ListByAccountID(accountID string) ([]models.PaymentHistory, error)
	Count() (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Account         AccountRepository
	Plan            PlanRepository
	PaymentSettings PaymentSettingsRepository
	Alias           AliasRepository
	PaymentHistory  PaymentHistoryRepository

	tx   TxFunc
	bind func(ctx context.Context) *Repositories
}

// TxFunc runs fn with repositories bound to a transaction and commits when fn returns nil.
type TxFunc func(fn func(repos *Repositories) error) error

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	repos := &Repositories{
		Account:         NewAccountRepository(db),
		Plan:            NewPlanRepository(db),
		PaymentSettings: NewPaymentSettingsRepository(db),
		Alias:           NewAliasRepository(db),
		PaymentHistory:  NewPaymentHistoryRepository(db),
	}
	repos.tx = func(fn func(repos *Repositories) error) error {
		return db.Transaction(func(tx *gorm.DB) error {
			return fn(NewRepositories(tx))
		})
	}
	repos.bind = func(ctx context.Context) *Repositories {
		return NewRepositories(db.WithContext(ctx))
	}
	return repos
}

// WithContext returns repositories whose queries run under ctx. Repositories
// built without a database are returned unchanged.
func (r *Repositories) WithContext(ctx context.Context) *Repositories {
	if r.bind == nil || ctx == nil {
		return r
	}
	return r.bind(ctx)
}

// WithTx returns a copy of r whose Transaction method uses tx.
func (r Repositories) WithTx(tx TxFunc) *Repositories {
	r.tx = tx
	return &r
}

// Transaction runs fn with repositories bound to one database transaction.
// Calling it on repositories that are already transactional opens a nested
// transaction (savepoint). Repositories built without a database run fn directly.
func (r *Repositories) Transaction(fn func(repos *Repositories) error) error {
	if r.tx == nil {
		return fn(r)
	}
	return r.tx(fn)
}
