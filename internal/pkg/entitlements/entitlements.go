package entitlements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PlanPay/app/models"
	"github.com/ManuelReschke/PlanPay/app/repository"
)

var ErrAccountNotFound = errors.New("account not found")

// Resolve computes the effective limits of an account. An active plan
// replaces the defaults; per-account overrides then act as floors for apps,
// vector space, annotation quota and document uploads.
func Resolve(defaults models.FeatureSet, account *models.Account, plans []models.Plan, now time.Time) models.FeatureSet {
	features := defaults

	if plan, ok := ActivePlan(account, plans, now); ok {
		features = plan.Features
	}

	features.Apps = max(features.Apps, account.MaxOfApps)
	features.VectorSpace = max(features.VectorSpace, account.MaxVectorSpace)
	features.AnnotationQuotaLimit = max(features.AnnotationQuotaLimit, account.MaxAnnotationQuotaLimit)
	features.DocumentsUploadQuota = max(features.DocumentsUploadQuota, account.MaxDocumentsUploadQuota)
	return features
}

// ActivePlan returns the account's plan when it is assigned, unexpired and still listed.
func ActivePlan(account *models.Account, plans []models.Plan, now time.Time) (*models.Plan, bool) {
	if !account.HasActivePlan(now) {
		return nil, false
	}
	return models.FindPlan(plans, *account.CustomPlanID)
}

// ResolvedFeatures is the resolver output exposed over HTTP.
type ResolvedFeatures struct {
	AccountID      string            `json:"id_account"`
	Features       models.FeatureSet `json:"features"`
	PlanID         string            `json:"id_plan"`
	PlanActive     bool              `json:"plan_active"`
	PlanExpiration *time.Time        `json:"plan_expiration"`
}

// Service resolves entitlements from stored accounts and plans.
type Service struct {
	repos    *repository.Repositories
	defaults func() models.FeatureSet
	now      func() time.Time
}

func NewService(repos *repository.Repositories) *Service {
	return &Service{repos: repos, defaults: models.DefaultFeatures, now: time.Now}
}

func (s *Service) ResolveForAccount(ctx context.Context, accountID string) (*ResolvedFeatures, error) {
	repos := s.repos.WithContext(ctx)
	account, err := repos.Account.GetByID(accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	plans, _, err := repos.Plan.List()
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}

	now := s.now()
	out := &ResolvedFeatures{
		AccountID:      account.ID,
		Features:       Resolve(s.defaults(), account, plans, now),
		PlanExpiration: account.PlanExpiration,
	}
	if plan, ok := ActivePlan(account, plans, now); ok {
		out.PlanID = plan.ID
		out.PlanActive = true
	}
	return out, nil
}
