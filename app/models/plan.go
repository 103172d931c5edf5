package models

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/PlanPay/internal/pkg/env"
)

// MaxExpirationDays bounds plan_expiration so the computed expiry stays
// inside the DATETIME range.
const MaxExpirationDays = 365000

func init() {
	// Plans and payment amounts travel as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// FeatureSet holds the numeric feature limits granted by a plan.
type FeatureSet struct {
	Members              int `json:"members" validate:"gte=0"`
	Apps                 int `json:"apps" validate:"gte=0"`
	VectorSpace          int `json:"vector_space" validate:"gte=0"`
	KnowledgeRateLimit   int `json:"knowledge_rate_limit" validate:"gte=0"`
	AnnotationQuotaLimit int `json:"annotation_quota_limit" validate:"gte=0"`
	DocumentsUploadQuota int `json:"documents_upload_quota" validate:"gte=0"`
}

// DefaultFeatures returns the limits every account gets without a plan.
// Stored plans that omit a limit fall back to the same values.
func DefaultFeatures() FeatureSet {
	return FeatureSet{
		Members:              1,
		Apps:                 env.GetEnvInt("USER_ACCOUNT_MAX_OF_APPS", 10),
		VectorSpace:          env.GetEnvInt("USER_ACCOUNT_MAX_VECTOR_SPACE", 5),
		KnowledgeRateLimit:   env.GetEnvInt("USER_ACCOUNT_KNOWLEDGE_RATE_LIMIT", 10),
		AnnotationQuotaLimit: env.GetEnvInt("USER_ACCOUNT_MAX_ANNOTATION_QUOTA_LIMIT", 10),
		DocumentsUploadQuota: env.GetEnvInt("USER_ACCOUNT_MAX_DOCUMENTS_UPLOAD_QUOTA", 50),
	}
}

// Plan is a purchasable bundle of price, duration and feature limits.
// Plans are stored as one ordered list inside the "plan" system document.
type Plan struct {
	ID             string          `json:"id" validate:"max=64"`
	Name           string          `json:"name" validate:"required,max=255"`
	Description    string          `json:"description" validate:"max=2000"`
	Price          decimal.Decimal `json:"price"`
	ExpirationDays int             `json:"plan_expiration" validate:"gte=0,lte=365000"`
	Features       FeatureSet      `json:"features"`
}

var ErrNegativePrice = errors.New("price must not be negative")

func (p *Plan) Validate() error {
	v := validator.New()
	if err := v.Struct(p); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// FindPlan returns the plan with the given id from an ordered plan list.
func FindPlan(plans []Plan, id string) (*Plan, bool) {
	for i := range plans {
		if plans[i].ID == id {
			return &plans[i], true
		}
	}
	return nil, false
}
