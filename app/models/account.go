package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ACCOUNT_STATUS_ACTIVE  = "active"
	ACCOUNT_STATUS_PENDING = "pending"
	ACCOUNT_STATUS_UNINIT  = "uninitialized"
	ACCOUNT_STATUS_BANNED  = "banned"
	ACCOUNT_STATUS_CLOSED  = "closed"
)

// Account is the application account a custom plan is attached to. Only the
// plan and limit columns are written by this service.
type Account struct {
	ID                      string     `gorm:"type:char(36);primaryKey" json:"id"`
	Name                    string     `gorm:"type:varchar(255)" json:"name"`
	Email                   string     `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Status                  string     `gorm:"type:varchar(16);default:'active'" json:"status" validate:"omitempty,oneof=active pending uninitialized banned closed"`
	CustomPlanID            *string    `gorm:"column:id_custom_plan;type:varchar(64);default:null" json:"id_custom_plan"`
	PlanExpiration          *time.Time `gorm:"type:datetime;default:null" json:"plan_expiration"`
	MonthBeforeBanned       int        `gorm:"default:12" json:"month_before_banned" validate:"gte=0"`
	MaxOfApps               int        `gorm:"default:10" json:"max_of_apps" validate:"gte=0"`
	MaxVectorSpace          int        `gorm:"default:5" json:"max_vector_space" validate:"gte=0"`
	MaxAnnotationQuotaLimit int        `gorm:"default:10" json:"max_annotation_quota_limit" validate:"gte=0"`
	MaxDocumentsUploadQuota int        `gorm:"default:50" json:"max_documents_upload_quota" validate:"gte=0"`
	LastLoginAt             *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	LastActiveAt            *time.Time `gorm:"type:timestamp;default:null" json:"last_active_at"`
	CreatedAt               time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// HasActivePlan reports whether a custom plan is assigned and expires strictly after now.
func (a *Account) HasActivePlan(now time.Time) bool {
	if a.CustomPlanID == nil || *a.CustomPlanID == "" || a.PlanExpiration == nil {
		return false
	}
	return a.PlanExpiration.UTC().After(now.UTC())
}

// AssignPlan sets the custom plan and its expiration relative to now (UTC).
func (a *Account) AssignPlan(planID string, days int, now time.Time) {
	id := planID
	exp := now.UTC().AddDate(0, 0, days)
	a.CustomPlanID = &id
	a.PlanExpiration = &exp
}
