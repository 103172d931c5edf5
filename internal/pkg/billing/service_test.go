package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PlanPay/app/models"
	"github.com/ManuelReschke/PlanPay/app/repository"
	"github.com/ManuelReschke/PlanPay/app/repository/repositorytest"
)

const testPlans = `[
	{"id":"basic","name":"Basic","description":"","price":49000.5,"plan_expiration":30,"features":{"members":1,"apps":20,"vector_space":10,"knowledge_rate_limit":20,"annotation_quota_limit":100,"documents_upload_quota":200}},
	{"id":"pro","name":"Pro","description":"","price":199000,"plan_expiration":365,"features":{"members":5,"apps":100,"vector_space":50,"knowledge_rate_limit":100,"annotation_quota_limit":1000,"documents_upload_quota":1000}}
]`

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, aliases ...string) (*Service, *repositorytest.Store) {
	t.Helper()
	store := repositorytest.NewStore()
	store.Now = func() time.Time { return fixedNow }
	store.SetRawPlans(testPlans)
	store.SetPaymentSettings(models.PaymentSettings{AccessToken: "hook-secret", AccountName: "PLANPAY", AccountID: "0123456789", BankID: "MB"})
	store.PutAccount(models.Account{ID: "acc-1", Name: "First"})
	store.PutAccount(models.Account{ID: "acc-2", Name: "Second"})

	svc := NewService(store.Repositories(), nil, GatewayConfig{})
	svc.now = func() time.Time { return fixedNow }
	if len(aliases) > 0 {
		svc.newAlias = sequence(aliases...)
	}
	return svc, store
}

func sequence(values ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(values) {
			return "", errors.New("sequence exhausted")
		}
		v := values[i]
		i++
		return v, nil
	}
}

func transaction(id, description string, amount float64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"id":%q,"type":"IN","transactionID":"FT%s","amount":%v,"description":%q,"date":"2024-03-01 12:00:00","bank":"MB"}`,
		id, id, amount, description))
}

func TestCreatePayRequest(t *testing.T) {
	svc, store := newTestService(t, "12345678")

	req, err := svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	require.NoError(t, err)

	assert.Equal(t, "12345678", req.Alias)
	assert.Equal(t, int64(49000), req.Amount)
	assert.Contains(t, req.URL, "/MB-0123456789-compact2.png?")
	assert.Contains(t, req.URL, "amount=49000")
	assert.Contains(t, req.URL, "addInfo=plan12345678")
	assert.Equal(t, "plan12345678", req.Description)
	assert.Equal(t, "PLANPAY", req.AccountName)

	aliases := store.Aliases()
	require.Len(t, aliases, 1)
	assert.Equal(t, "acc-1", aliases[0].AccountID)
	assert.Equal(t, "basic", aliases[0].PlanID)
}

func TestCreatePayRequest_ReplacesPreviousAlias(t *testing.T) {
	svc, store := newTestService(t, "12345678", "87654321")

	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	require.NoError(t, err)
	second, err := svc.CreatePayRequest(context.Background(), "acc-1", "pro")
	require.NoError(t, err)

	aliases := store.Aliases()
	require.Len(t, aliases, 1)
	assert.Equal(t, "87654321", aliases[0].Alias)
	assert.Equal(t, "pro", aliases[0].PlanID)
	assert.Equal(t, second.Alias, aliases[0].Alias)

	pending, err := svc.GetPendingAlias(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "87654321", pending.Alias)
}

func TestCreatePayRequest_RetriesAliasCollision(t *testing.T) {
	svc, store := newTestService(t, "11111111", "11111111", "22222222")

	_, err := svc.CreatePayRequest(context.Background(), "acc-2", "basic")
	require.NoError(t, err)
	req, err := svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	require.NoError(t, err)

	assert.Equal(t, "22222222", req.Alias)
	assert.Len(t, store.Aliases(), 2)
}

func TestCreatePayRequest_GivesUpAfterRepeatedCollisions(t *testing.T) {
	svc, _ := newTestService(t, "11111111", "11111111", "11111111", "11111111", "11111111", "11111111")

	_, err := svc.CreatePayRequest(context.Background(), "acc-2", "basic")
	require.NoError(t, err)
	_, err = svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	assert.ErrorIs(t, err, ErrAliasUnavailable)
}

func TestCreatePayRequest_NotFound(t *testing.T) {
	svc, store := newTestService(t, "12345678")

	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "missing")
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = svc.CreatePayRequest(context.Background(), "ghost", "basic")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	assert.Empty(t, store.Aliases())
	assert.True(t, IsNotFound(err))
}

func TestCreatePayRequest_SettingsMissingStillReplacesAlias(t *testing.T) {
	store := repositorytest.NewStore()
	store.SetRawPlans(testPlans)
	store.PutAccount(models.Account{ID: "acc-1"})
	svc := NewService(store.Repositories(), nil, GatewayConfig{})
	svc.newAlias = sequence("11111111", "22222222", "33333333")

	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	assert.ErrorIs(t, err, ErrPaymentSettingsNotConfigured)
	aliases := store.Aliases()
	require.Len(t, aliases, 1)
	assert.Equal(t, "11111111", aliases[0].Alias)

	store.SetPaymentSettings(models.PaymentSettings{AccessToken: "x", AccountName: "PLANPAY", AccountID: "0123456789", BankID: "MB"})
	_, err = svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	require.NoError(t, err)

	// settings lose the bank details; the next request must still supersede 22222222
	store.SetPaymentSettings(models.PaymentSettings{AccessToken: "x"})
	_, err = svc.CreatePayRequest(context.Background(), "acc-1", "pro")
	assert.ErrorIs(t, err, ErrPaymentSettingsNotConfigured)

	aliases = store.Aliases()
	require.Len(t, aliases, 1)
	assert.Equal(t, "33333333", aliases[0].Alias)
	assert.Equal(t, "pro", aliases[0].PlanID)

	_, err = store.Repositories().Alias.GetByAlias("22222222")
	assert.Error(t, err)
}

func TestGetPendingAlias_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetPendingAlias(context.Background(), "acc-1")
	assert.ErrorIs(t, err, ErrAliasNotFound)
}

func TestReconcileBatch_CreditsMatchingPayment(t *testing.T) {
	svc, store := newTestService(t, "12345678")
	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "pro")
	require.NoError(t, err)

	result, err := svc.ReconcileBatch(context.Background(), &WebhookBatch{
		Status: true,
		Data:   []json.RawMessage{transaction("1", "chuyen khoan PLAN12345678 thanh toan", 199000)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Received)
	assert.Equal(t, 1, result.Credited)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, ItemCredited, result.Items[0].Status)

	account, _ := store.Account("acc-1")
	require.NotNil(t, account.CustomPlanID)
	assert.Equal(t, "pro", *account.CustomPlanID)
	require.NotNil(t, account.PlanExpiration)
	assert.True(t, account.PlanExpiration.Equal(fixedNow.AddDate(0, 0, 365)))

	assert.Empty(t, store.Aliases())

	history := store.History()
	require.Len(t, history, 2)
	assert.False(t, history[0].IsAttributed())
	assert.True(t, history[1].IsAttributed())
	assert.Equal(t, "acc-1", history[1].AccountID)
	assert.Equal(t, "pro", history[1].PlanID)
	assert.Equal(t, "FT1", history[1].TransactionID)
}

func TestReconcileBatch_CreditsLifetimePlan(t *testing.T) {
	svc, store := newTestService(t, "12345678")
	store.SetRawPlans(`[{"id":"lifetime","name":"Lifetime","price":990000,"plan_expiration":36500,"features":{"apps":500}}]`)
	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "lifetime")
	require.NoError(t, err)

	result, err := svc.ReconcileBatch(context.Background(), &WebhookBatch{
		Data: []json.RawMessage{transaction("1", "plan12345678", 990000)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Credited)

	account, _ := store.Account("acc-1")
	require.NotNil(t, account.PlanExpiration)
	assert.Equal(t, 2124, account.PlanExpiration.Year())
	assert.Len(t, store.History(), 2)
}

func TestReconcileBatch_ReplayIsNoOp(t *testing.T) {
	svc, store := newTestService(t, "12345678")
	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	require.NoError(t, err)

	batch := &WebhookBatch{Status: true, Data: []json.RawMessage{transaction("1", "plan12345678", 50000)}}
	_, err = svc.ReconcileBatch(context.Background(), batch)
	require.NoError(t, err)
	first, _ := store.Account("acc-1")

	svc.now = func() time.Time { return fixedNow.Add(48 * time.Hour) }
	result, err := svc.ReconcileBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Credited)
	assert.Equal(t, ItemAliasNotFound, result.Items[0].Status)

	second, _ := store.Account("acc-1")
	assert.Equal(t, first.PlanExpiration, second.PlanExpiration)
	assert.Len(t, store.History(), 3)
}

func TestReconcileBatch_UnderpaymentNeverUpgrades(t *testing.T) {
	svc, store := newTestService(t, "12345678")
	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	require.NoError(t, err)

	// 49000 is the floored QR amount, below the 49000.5 price.
	result, err := svc.ReconcileBatch(context.Background(), &WebhookBatch{
		Data: []json.RawMessage{transaction("1", "plan12345678", 49000)},
	})
	require.NoError(t, err)
	assert.Equal(t, ItemUnderpaid, result.Items[0].Status)

	account, _ := store.Account("acc-1")
	assert.Nil(t, account.CustomPlanID)
	assert.Len(t, store.Aliases(), 1)
	assert.Len(t, store.History(), 1)
}

func TestReconcileBatch_NoAliasInDescription(t *testing.T) {
	svc, store := newTestService(t, "12345678")
	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	require.NoError(t, err)

	result, err := svc.ReconcileBatch(context.Background(), &WebhookBatch{
		Data: []json.RawMessage{transaction("1", "thanh toan hoa don thang 3", 500000)},
	})
	require.NoError(t, err)
	assert.Equal(t, ItemInvalidAlias, result.Items[0].Status)
	assert.Len(t, store.Aliases(), 1)
	assert.Len(t, store.History(), 1)
}

func TestReconcileBatch_ItemsAreIndependent(t *testing.T) {
	svc, store := newTestService(t, "12345678", "87654321")
	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	require.NoError(t, err)
	_, err = svc.CreatePayRequest(context.Background(), "acc-2", "pro")
	require.NoError(t, err)

	result, err := svc.ReconcileBatch(context.Background(), &WebhookBatch{
		Status: true,
		Data: []json.RawMessage{
			json.RawMessage(`{"id":"bad","amount":"not-a-number"}`),
			json.RawMessage(`{"id":"missing-fields"}`),
			transaction("2", "plan12345678", 60000),
			transaction("3", "plan87654321", 199000),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Received)
	assert.Equal(t, 2, result.Credited)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, ItemInvalidTransaction, result.Items[0].Status)
	assert.Equal(t, ItemInvalidTransaction, result.Items[1].Status)

	a1, _ := store.Account("acc-1")
	a2, _ := store.Account("acc-2")
	assert.Equal(t, "basic", *a1.CustomPlanID)
	assert.Equal(t, "pro", *a2.CustomPlanID)
	assert.Len(t, store.History(), 4)
}

func TestReconcileBatch_StorageErrorRollsBackOnlyThatItem(t *testing.T) {
	svc, store := newTestService(t, "12345678", "87654321")
	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	require.NoError(t, err)
	_, err = svc.CreatePayRequest(context.Background(), "acc-2", "basic")
	require.NoError(t, err)

	failed := false
	store.Fail = func(op string) error {
		if op == "account.update_plan" && !failed {
			failed = true
			return errors.New("connection reset")
		}
		return nil
	}

	result, err := svc.ReconcileBatch(context.Background(), &WebhookBatch{
		Data: []json.RawMessage{
			transaction("1", "plan12345678", 50000),
			transaction("2", "plan87654321", 50000),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, ItemStorageError, result.Items[0].Status)
	assert.Equal(t, ItemCredited, result.Items[1].Status)

	a1, _ := store.Account("acc-1")
	assert.Nil(t, a1.CustomPlanID)
	aliases := store.Aliases()
	require.Len(t, aliases, 1)
	assert.Equal(t, "12345678", aliases[0].Alias, "the failed item's alias is restored")
	assert.Len(t, store.History(), 2, "only the credited item's two entries remain")
}

func TestReconcileBatch_CommitFailure(t *testing.T) {
	svc, store := newTestService(t)
	svc.repos = store.Repositories().WithTx(func(fn func(*repository.Repositories) error) error {
		return errors.New("commit failed")
	})

	_, err := svc.ReconcileBatch(context.Background(), &WebhookBatch{})
	assert.Error(t, err)
}

type fakeLocker struct {
	mu       sync.Mutex
	busy     map[string]bool
	err      error
	locked   []string
	released []string
}

func (l *fakeLocker) Lock(ctx context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.busy[key] {
		return nil, false, nil
	}
	l.locked = append(l.locked, key)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released = append(l.released, key)
	}, true, nil
}

func TestReconcileBatch_LocksAliasesUntilBatchEnds(t *testing.T) {
	svc, store := newTestService(t, "12345678", "87654321")
	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	require.NoError(t, err)
	_, err = svc.CreatePayRequest(context.Background(), "acc-2", "basic")
	require.NoError(t, err)

	locker := &fakeLocker{busy: map[string]bool{"alias:87654321": true}}
	svc.locker = locker

	result, err := svc.ReconcileBatch(context.Background(), &WebhookBatch{
		Data: []json.RawMessage{
			transaction("1", "plan12345678", 50000),
			transaction("2", "plan12345678", 50000),
			transaction("3", "plan87654321", 50000),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, ItemCredited, result.Items[0].Status)
	assert.Equal(t, ItemAliasNotFound, result.Items[1].Status)
	assert.Equal(t, ItemAliasBusy, result.Items[2].Status)
	assert.Equal(t, []string{"alias:12345678"}, locker.locked)
	assert.Equal(t, []string{"alias:12345678"}, locker.released)
	assert.Len(t, store.Aliases(), 1)
}

func TestReconcileBatch_LockErrorFallsBackToConditionalDelete(t *testing.T) {
	svc, store := newTestService(t, "12345678")
	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	require.NoError(t, err)
	svc.locker = &fakeLocker{err: errors.New("redis down")}

	result, err := svc.ReconcileBatch(context.Background(), &WebhookBatch{
		Data: []json.RawMessage{transaction("1", "plan12345678", 50000)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Credited)
	assert.Empty(t, store.Aliases())
}

func TestDecodeTransaction(t *testing.T) {
	svc, _ := newTestService(t)

	txn, err := svc.DecodeTransaction(transaction("9", "plan12345678", 1000.25))
	require.NoError(t, err)
	assert.Equal(t, "FT9", txn.TransactionID)
	assert.Equal(t, "1000.25", txn.Amount.String())

	for _, raw := range []string{
		`not json`,
		`{"id":1,"type":"IN","transactionID":"x","amount":1}`,
		`{"id":"1","type":"IN","transactionID":"x"}`,
		`{"id":"1","type":"IN","transactionID":"x","amount":-5}`,
	} {
		_, err := svc.DecodeTransaction(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrInvalidTransaction, raw)
	}
}

type fakeRecorder struct {
	day    time.Time
	counts map[string]int64
}

func (r *fakeRecorder) AddWebhookOutcomes(ctx context.Context, day time.Time, counts map[string]int64) error {
	r.day = day
	r.counts = counts
	return nil
}

func TestReconcileBatch_RecordsOutcomes(t *testing.T) {
	svc, _ := newTestService(t, "12345678")
	_, err := svc.CreatePayRequest(context.Background(), "acc-1", "basic")
	require.NoError(t, err)

	rec := &fakeRecorder{}
	svc.SetOutcomeRecorder(rec)

	_, err = svc.ReconcileBatch(context.Background(), &WebhookBatch{
		Data: []json.RawMessage{
			transaction("1", "plan12345678", 50000),
			transaction("2", "no alias", 50000),
			transaction("3", "plan12345678", 50000),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, fixedNow, rec.day)
	assert.Equal(t, map[string]int64{"credited": 1, "invalid_alias": 1, "alias_not_found": 1}, rec.counts)
}
