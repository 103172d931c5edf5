package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ManuelReschke/PlanPay/app/models"
	"github.com/ManuelReschke/PlanPay/app/repository"
)

// CreatePayRequest issues a fresh alias for the account and plan, replacing
// any pending alias of the account, and returns the payment QR URL. The alias
// is stored before the payment settings are read, so a missing gateway
// configuration still leaves the new alias as the pending one.
func (s *Service) CreatePayRequest(ctx context.Context, accountID, planID string) (*PayRequest, error) {
	repos := s.repos.WithContext(ctx)
	accountID = strings.TrimSpace(accountID)
	planID = strings.TrimSpace(planID)

	plans, _, err := repos.Plan.List()
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}
	plan, ok := models.FindPlan(plans, planID)
	if !ok {
		return nil, ErrPlanNotFound
	}

	if _, err := repos.Account.GetByID(accountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	alias, err := s.replaceAlias(repos, accountID, plan.ID)
	if err != nil {
		return nil, err
	}

	settings, err := repos.PaymentSettings.Get()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentSettingsNotConfigured
		}
		return nil, fmt.Errorf("load payment settings: %w", err)
	}
	if !settings.IsGatewayConfigured() {
		return nil, ErrPaymentSettingsNotConfigured
	}

	amount := plan.Price.Floor().IntPart()
	description := PaymentDescription(alias.Alias)
	return &PayRequest{
		URL:         BuildQRImageURL(s.gateway, settings, amount, description),
		Alias:       alias.Alias,
		AccountID:   accountID,
		PlanID:      plan.ID,
		Amount:      amount,
		Description: description,
		AccountName: settings.AccountName,
		CreatedAt:   alias.CreatedAt,
	}, nil
}

// replaceAlias stores a new alias for the account, drawing again when the
// random code collides with another account's pending alias.
func (s *Service) replaceAlias(repos *repository.Repositories, accountID, planID string) (*models.AliasPayment, error) {
	for attempt := 0; attempt < maxAliasAttempts; attempt++ {
		code, err := s.newAlias()
		if err != nil {
			return nil, fmt.Errorf("generate alias: %w", err)
		}

		record := &models.AliasPayment{
			AccountID: accountID,
			PlanID:    planID,
			Alias:     code,
			CreatedAt: s.now().UTC(),
		}
		err = repos.Alias.Replace(record)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("store alias: %w", err)
		}
	}
	return nil, ErrAliasUnavailable
}

// GetPendingAlias returns the alias currently awaiting payment for the account.
func (s *Service) GetPendingAlias(ctx context.Context, accountID string) (*models.AliasPayment, error) {
	alias, err := s.repos.WithContext(ctx).Alias.GetByAccountID(strings.TrimSpace(accountID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAliasNotFound
		}
		return nil, err
	}
	return alias, nil
}
