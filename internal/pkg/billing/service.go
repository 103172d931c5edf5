package billing

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/PlanPay/app/repository"
)

const maxAliasAttempts = 5

// Locker serializes work on one payment alias across instances.
// cache.Locker implements it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), ok bool, err error)
}

// OutcomeRecorder receives per-day counts of webhook item outcomes.
// counter.WebhookCounter implements it.
type OutcomeRecorder interface {
	AddWebhookOutcomes(ctx context.Context, day time.Time, counts map[string]int64) error
}

// Service creates pay requests and reconciles provider payment notifications.
type Service struct {
	repos    *repository.Repositories
	locker   Locker
	gateway  GatewayConfig
	outcomes OutcomeRecorder
	validate *validator.Validate
	now      func() time.Time
	newAlias func() (string, error)
}

// NewService creates a billing service from injected repositories.
// locker may be nil, in which case only the conditional alias delete guards
// against concurrent crediting.
func NewService(repos *repository.Repositories, locker Locker, gateway GatewayConfig) *Service {
	return &Service{
		repos:    repos,
		locker:   locker,
		gateway:  gateway,
		validate: validator.New(),
		now:      time.Now,
		newAlias: GenerateAlias,
	}
}

// SetOutcomeRecorder enables webhook outcome statistics.
func (s *Service) SetOutcomeRecorder(r OutcomeRecorder) {
	s.outcomes = r
}
