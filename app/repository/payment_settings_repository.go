package repository

import (
	"encoding/json"
	"fmt"

	"github.com/ManuelReschke/PlanPay/app/models"
	"gorm.io/gorm"
)

// paymentSettingsRepository implements the PaymentSettingsRepository interface
type paymentSettingsRepository struct {
	docs documentStore
}

// NewPaymentSettingsRepository creates a new payment settings repository instance
func NewPaymentSettingsRepository(db *gorm.DB) PaymentSettingsRepository {
	return &paymentSettingsRepository{docs: documentStore{db: db}}
}

// Get loads the payment settings document
func (r *paymentSettingsRepository) Get() (*models.PaymentSettings, error) {
	raw, err := r.docs.get(models.SystemInfoPaymentSettings)
	if err != nil {
		return nil, err
	}
	var settings models.PaymentSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return nil, fmt.Errorf("failed to decode payment settings: %w", err)
	}
	return &settings, nil
}

// Save overwrites the payment settings document
func (r *paymentSettingsRepository) Save(settings *models.PaymentSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode payment settings: %w", err)
	}
	return r.docs.put(models.SystemInfoPaymentSettings, string(data))
}
