package billing

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/PlanPay/app/models"
)

// PayRequestInput is the body of a pay request.
type PayRequestInput struct {
	AccountID string `json:"id_account" validate:"required,max=36"`
	PlanID    string `json:"id_plan" validate:"required,max=64"`
}

// PayRequest is the result of CreatePayRequest. Description is the transfer
// note the payer must keep; AccountName is the receiving account holder.
type PayRequest struct {
	URL         string
	Alias       string
	AccountID   string
	PlanID      string
	Amount      int64
	Description string
	AccountName string
	CreatedAt   time.Time
}

// WebhookBatch is the envelope the payment provider posts.
type WebhookBatch struct {
	Status bool              `json:"status"`
	Data   []json.RawMessage `json:"data"`
}

// RawTransaction is one bank transaction inside a WebhookBatch.
type RawTransaction struct {
	ID            string           `json:"id" validate:"required,max=191"`
	Type          string           `json:"type" validate:"required,max=16"`
	TransactionID string           `json:"transactionID" validate:"required,max=191"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
	Description   string           `json:"description"`
	Date          string           `json:"date" validate:"max=64"`
	Bank          string           `json:"bank" validate:"max=64"`
}

// HistoryRecord converts the transaction into a payment history entry.
// Empty accountID and planID produce the entry written on receipt.
func (t *RawTransaction) HistoryRecord(accountID, planID string) *models.PaymentHistory {
	return &models.PaymentHistory{
		AccountID:     accountID,
		PlanID:        planID,
		ExternalID:    t.ID,
		Type:          t.Type,
		TransactionID: t.TransactionID,
		Amount:        *t.Amount,
		Description:   t.Description,
		Date:          t.Date,
		Bank:          t.Bank,
	}
}

// ItemStatus is the outcome of one webhook transaction.
type ItemStatus string

const (
	ItemCredited           ItemStatus = "credited"
	ItemInvalidTransaction ItemStatus = "invalid_transaction"
	ItemInvalidAlias       ItemStatus = "invalid_alias"
	ItemAliasNotFound      ItemStatus = "alias_not_found"
	ItemAliasBusy          ItemStatus = "alias_busy"
	ItemPlanNotFound       ItemStatus = "plan_not_found"
	ItemAccountNotFound    ItemStatus = "account_not_found"
	ItemUnderpaid          ItemStatus = "underpaid"
	ItemAlreadyConsumed    ItemStatus = "already_consumed"
	ItemStorageError       ItemStatus = "storage_error"
)

// ItemResult records how one transaction of a batch was handled. Alias and
// AccountID are set once the description and the alias ledger resolved them.
type ItemResult struct {
	Index         int
	TransactionID string
	Alias         string
	AccountID     string
	Status        ItemStatus
}

// BatchResult summarizes ReconcileBatch.
type BatchResult struct {
	Received int
	Credited int
	Skipped  int
	Items    []ItemResult
}

func (r *BatchResult) add(item ItemResult) {
	r.Items = append(r.Items, item)
	if item.Status == ItemCredited {
		r.Credited++
	} else {
		r.Skipped++
	}
}
