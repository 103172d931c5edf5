package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PlanPay/app/models"
	"github.com/ManuelReschke/PlanPay/app/repository"
)

const aliasLockPrefix = "alias:"

// batchLocks tracks the alias locks taken during one batch. They are released
// only after the batch transaction has finished.
type batchLocks struct {
	locker  Locker
	held    map[string]struct{}
	unlocks []func()
}

func (b *batchLocks) acquire(ctx context.Context, alias string) bool {
	if b.locker == nil {
		return true
	}
	if _, ok := b.held[alias]; ok {
		return true
	}
	unlock, ok, err := b.locker.Lock(ctx, aliasLockPrefix+alias)
	if err != nil {
		fiberlog.Warnf("[Billing] alias lock unavailable for %s, relying on conditional delete: %v", alias, err)
		return true
	}
	if !ok {
		return false
	}
	b.held[alias] = struct{}{}
	b.unlocks = append(b.unlocks, unlock)
	return true
}

func (b *batchLocks) releaseAll() {
	for i := len(b.unlocks) - 1; i >= 0; i-- {
		b.unlocks[i]()
	}
}

// DecodeTransaction parses and validates one webhook item.
func (s *Service) DecodeTransaction(raw json.RawMessage) (*RawTransaction, error) {
	var txn RawTransaction
	if err := json.Unmarshal(raw, &txn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	if err := s.validate.Struct(&txn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	if txn.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount", ErrInvalidTransaction)
	}
	return &txn, nil
}

// ReconcileBatch records every transaction of the batch and credits the plan
// of each one that carries a pending alias and covers the plan price.
// Items are independent: a failing item is logged and skipped.
//
// The batch is committed once after the loop. Each item runs in a nested
// transaction so a storage error rolls back only that item's writes.
func (s *Service) ReconcileBatch(ctx context.Context, batch *WebhookBatch) (*BatchResult, error) {
	result := &BatchResult{Received: len(batch.Data)}
	locks := &batchLocks{locker: s.locker, held: make(map[string]struct{})}
	defer locks.releaseAll()

	var items []ItemResult
	err := s.repos.WithContext(ctx).Transaction(func(tx *repository.Repositories) error {
		items = items[:0]
		for i, raw := range batch.Data {
			item := ItemResult{Index: i}
			err := tx.Transaction(func(itx *repository.Repositories) error {
				return s.reconcileItem(ctx, itx, locks, raw, &item)
			})
			if err != nil {
				fiberlog.Errorf("[Billing] webhook item %d (%s) rolled back: %v", i, item.TransactionID, err)
				item.Status = ItemStorageError
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("commit webhook batch: %w", err)
	}

	for _, item := range items {
		result.add(item)
	}
	fiberlog.Infof("[Billing] webhook batch processed: received=%d credited=%d skipped=%d",
		result.Received, result.Credited, result.Skipped)
	s.recordOutcomes(ctx, result)
	return result, nil
}

func (s *Service) recordOutcomes(ctx context.Context, result *BatchResult) {
	if s.outcomes == nil || len(result.Items) == 0 {
		return
	}
	counts := make(map[string]int64)
	for _, item := range result.Items {
		counts[string(item.Status)]++
	}
	if err := s.outcomes.AddWebhookOutcomes(ctx, s.now(), counts); err != nil {
		fiberlog.Warnf("[Billing] failed to record webhook outcomes: %v", err)
	}
}

// reconcileItem returns an error only for storage failures. Business outcomes
// are reported through item.Status.
func (s *Service) reconcileItem(ctx context.Context, repos *repository.Repositories, locks *batchLocks, raw json.RawMessage, item *ItemResult) error {
	txn, err := s.DecodeTransaction(raw)
	if err != nil {
		fiberlog.Warnf("[Billing] webhook item %d skipped: %v", item.Index, err)
		item.Status = ItemInvalidTransaction
		return nil
	}
	item.TransactionID = txn.TransactionID

	if err := repos.PaymentHistory.Append(txn.HistoryRecord("", "")); err != nil {
		return fmt.Errorf("append payment history: %w", err)
	}

	code, ok := ExtractAlias(txn.Description)
	if !ok {
		fiberlog.Infof("[Billing] transaction %s skipped: %v", txn.TransactionID, ErrInvalidAlias)
		item.Status = ItemInvalidAlias
		return nil
	}
	item.Alias = code

	if !locks.acquire(ctx, code) {
		fiberlog.Warnf("[Billing] transaction %s skipped: alias %s is being processed elsewhere", txn.TransactionID, code)
		item.Status = ItemAliasBusy
		return nil
	}

	pending, err := repos.Alias.GetByAlias(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fiberlog.Infof("[Billing] transaction %s skipped: %v (%s)", txn.TransactionID, ErrAliasNotFound, code)
			item.Status = ItemAliasNotFound
			return nil
		}
		return fmt.Errorf("load alias: %w", err)
	}
	item.AccountID = pending.AccountID

	plans, _, err := repos.Plan.List()
	if err != nil {
		return fmt.Errorf("load plans: %w", err)
	}
	plan, ok := models.FindPlan(plans, pending.PlanID)
	if !ok {
		fiberlog.Warnf("[Billing] transaction %s skipped: %v (%s)", txn.TransactionID, ErrPlanNotFound, pending.PlanID)
		item.Status = ItemPlanNotFound
		return nil
	}

	account, err := repos.Account.GetByID(pending.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fiberlog.Warnf("[Billing] transaction %s skipped: %v (%s)", txn.TransactionID, ErrAccountNotFound, pending.AccountID)
			item.Status = ItemAccountNotFound
			return nil
		}
		return fmt.Errorf("load account: %w", err)
	}

	if txn.Amount.LessThan(plan.Price) {
		fiberlog.Warnf("[Billing] transaction %s skipped: %v (paid %s, price %s)",
			txn.TransactionID, ErrUnderpaid, txn.Amount.String(), plan.Price.String())
		item.Status = ItemUnderpaid
		return nil
	}

	consumed, err := repos.Alias.Consume(code)
	if err != nil {
		return fmt.Errorf("consume alias: %w", err)
	}
	if !consumed {
		fiberlog.Warnf("[Billing] transaction %s skipped: alias %s already consumed", txn.TransactionID, code)
		item.Status = ItemAlreadyConsumed
		return nil
	}

	account.AssignPlan(plan.ID, plan.ExpirationDays, s.now())
	if err := repos.Account.UpdatePlan(account.ID, plan.ID, *account.PlanExpiration); err != nil {
		return fmt.Errorf("update account plan: %w", err)
	}
	if err := repos.PaymentHistory.Append(txn.HistoryRecord(account.ID, plan.ID)); err != nil {
		return fmt.Errorf("append payment history: %w", err)
	}

	fiberlog.Infof("[Billing] account %s upgraded to plan %s until %s",
		account.ID, plan.ID, account.PlanExpiration.Format(time.RFC3339))
	item.Status = ItemCredited
	return nil
}
