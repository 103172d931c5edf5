package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AliasPayment is a pending payment: a short numeric alias the payer puts in
// the bank transfer description, linked to the account and the plan bought.
// At most one row exists per account.
type AliasPayment struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	AccountID string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_alies_payments_custom_account" json:"id_account"`
	Alias     string    `gorm:"column:alies;type:varchar(16);not null;uniqueIndex:uq_alies_payments_custom_alies" json:"alies"`
	PlanID    string    `gorm:"type:varchar(64);not null" json:"id_plan"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AliasPayment) TableName() string {
	return "alies_payments_custom"
}

func (a *AliasPayment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
