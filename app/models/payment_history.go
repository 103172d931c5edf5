package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentHistory is one append-only log entry of a payment notification.
// AccountID and PlanID are empty for the entry written on receipt and filled
// on the entry written after the payment was attributed.
type PaymentHistory struct {
	RowID         string          `gorm:"column:id;type:char(36);primaryKey" json:"-"`
	AccountID     string          `gorm:"type:varchar(36);default:'';index" json:"id_account"`
	PlanID        string          `gorm:"type:varchar(64);default:''" json:"id_plan"`
	ExternalID    string          `gorm:"type:varchar(191);not null;index" json:"id"`
	Type          string          `gorm:"type:varchar(16)" json:"type"`
	TransactionID string          `gorm:"type:varchar(191);index" json:"transactionID"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description   string          `gorm:"type:text" json:"description"`
	Date          string          `gorm:"type:varchar(64)" json:"date"`
	Bank          string          `gorm:"type:varchar(64)" json:"bank"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (PaymentHistory) TableName() string {
	return "payments_history_custom"
}

func (p *PaymentHistory) BeforeCreate(tx *gorm.DB) error {
	if p.RowID == "" {
		p.RowID = uuid.NewString()
	}
	return nil
}

// IsAttributed reports whether the entry has been matched to an account.
func (p *PaymentHistory) IsAttributed() bool {
	return p.AccountID != "" && p.PlanID != ""
}
