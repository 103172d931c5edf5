package repository

import (
	"github.com/ManuelReschke/PlanPay/app/models"
	"gorm.io/gorm"
)

// aliasRepository implements the AliasRepository interface
type aliasRepository struct {
	db *gorm.DB
}

// NewAliasRepository creates a new alias repository instance
func NewAliasRepository(db *gorm.DB) AliasRepository {
	return &aliasRepository{db: db}
}

// Replace deletes the account's previous alias and inserts the new one in a
// single transaction. The unique indexes on account_id and alies reject
// concurrent duplicates with gorm.ErrDuplicatedKey.
func (r *aliasRepository) Replace(alias *models.AliasPayment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", alias.AccountID).Delete(&models.AliasPayment{}).Error; err != nil {
			return err
		}
		return tx.Create(alias).Error
	})
}

// GetByAccountID retrieves the pending alias of an account
func (r *aliasRepository) GetByAccountID(accountID string) (*models.AliasPayment, error) {
	var alias models.AliasPayment
	err := r.db.Where("account_id = ?", accountID).First(&alias).Error
	if err != nil {
		return nil, err
	}
	return &alias, nil
}

// GetByAlias retrieves a pending alias by its numeric value
func (r *aliasRepository) GetByAlias(value string) (*models.AliasPayment, error) {
	var alias models.AliasPayment
	err := r.db.Where("alies = ?", value).First(&alias).Error
	if err != nil {
		return nil, err
	}
	return &alias, nil
}

// Consume deletes the alias if it is still present
func (r *aliasRepository) Consume(value string) (bool, error) {
	result := r.db.Where("alies = ?", value).Delete(&models.AliasPayment{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteByAccountID removes any pending alias of an account
func (r *aliasRepository) DeleteByAccountID(accountID string) error {
	return r.db.Where("account_id = ?", accountID).Delete(&models.AliasPayment{}).Error
}
