package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Names of the documents kept in the system_custom_info table.
const (
	SystemInfoPlan            = "plan"
	SystemInfoPaymentSettings = "payment_settings"
)

// SystemCustomInfo is a named JSON document. It backs the plan list and the
// payment settings singleton; callers go through the typed repositories.
type SystemCustomInfo struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_system_custom_info_name" json:"name"`
	Value     string    `gorm:"type:longtext" json:"value"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SystemCustomInfo) TableName() string {
	return "system_custom_info"
}

func (s *SystemCustomInfo) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
