package repository

import (
	"time"

	"github.com/ManuelReschke/PlanPay/app/models"
	"gorm.io/gorm"
)

// accountRepository implements the AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository instance
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// GetByID retrieves an account by its ID
func (r *accountRepository) GetByID(id string) (*models.Account, error) {
	var account models.Account
	err := r.db.Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// List retrieves accounts with pagination, newest first
func (r *accountRepository) List(offset, limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&accounts).Error
	return accounts, err
}

// Count returns the total number of accounts
func (r *accountRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Account{}).Count(&count).Error
	return count, err
}

// Save updates an existing account
func (r *accountRepository) Save(account *models.Account) error {
	return r.db.Save(account).Error
}

// UpdatePlan writes only the plan columns of an account
func (r *accountRepository) UpdatePlan(id, planID string, expiration time.Time) error {
	return r.db.Model(&models.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"id_custom_plan":  planID,
		"plan_expiration": expiration,
	}).Error
}

// Delete removes the account row. Pending aliases are removed separately
// with AliasRepository.DeleteByAccountID in the same transaction.
func (r *accountRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Account{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
