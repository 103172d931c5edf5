package repository

import (
	"github.com/ManuelReschke/PlanPay/app/models"
	"gorm.io/gorm"
)

// paymentHistoryRepository implements the PaymentHistoryRepository interface
type paymentHistoryRepository struct {
	db *gorm.DB
}

// NewPaymentHistoryRepository creates a new payment history repository instance
func NewPaymentHistoryRepository(db *gorm.DB) PaymentHistoryRepository {
	return &paymentHistoryRepository{db: db}
}

// Append inserts a new history entry
func (r *paymentHistoryRepository) Append(record *models.PaymentHistory) error {
	return r.db.Create(record).Error
}

// List retrieves history entries with pagination, newest first
func (r *paymentHistoryRepository) List(offset, limit int) ([]models.PaymentHistory, error) {
	var records []models.PaymentHistory
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&records).Error
	return records, err
}

// ListByAccountID retrieves the attributed entries of one account
func (r *paymentHistoryRepository) ListByAccountID(accountID string) ([]models.PaymentHistory, error) {
	var records []models.PaymentHistory
	err := r.db.Where("account_id = ?", accountID).Order("created_at DESC").Find(&records).Error
	return records, err
}

// Count returns the number of history entries
func (r *paymentHistoryRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.PaymentHistory{}).Count(&count).Error
	return count, err
}
