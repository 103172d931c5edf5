package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PlanPay/app/models"
	"github.com/ManuelReschke/PlanPay/app/repository/repositorytest"
	"github.com/ManuelReschke/PlanPay/internal/pkg/billing"
	"github.com/ManuelReschke/PlanPay/internal/pkg/entitlements"
	"github.com/ManuelReschke/PlanPay/internal/pkg/middleware"
)

const (
	testPlans = `[
		{"id":"basic","name":"Basic","description":"Starter","price":50000,"plan_expiration":30,"features":{"members":1,"apps":20,"vector_space":10,"knowledge_rate_limit":20,"annotation_quota_limit":100,"documents_upload_quota":200}},
		{"id":"legacy","name":"Legacy","description":"","price":1,"plan_expiration":"forever","features":{}}
	]`
	testDashboardToken = "dash-token"
	testWebhookToken   = "hook-token"
)

func newTestStore() *repositorytest.Store {
	store := repositorytest.NewStore()
	store.SetRawPlans(testPlans)
	store.SetPaymentSettings(models.PaymentSettings{AccessToken: testWebhookToken, AccountName: "PLANPAY", AccountID: "0123456789", BankID: "MB"})
	store.PutAccount(models.Account{ID: "acc-1", Name: "First", Email: "first@example.com", Status: models.ACCOUNT_STATUS_ACTIVE, MonthBeforeBanned: 12, MaxOfApps: 10, MaxVectorSpace: 5, MaxAnnotationQuotaLimit: 10, MaxDocumentsUploadQuota: 50})
	store.PutAccount(models.Account{ID: "acc-2", Name: "Second", Email: "second@example.com", Status: models.ACCOUNT_STATUS_ACTIVE})
	return store
}

func newTestApp(store *repositorytest.Store) *fiber.App {
	repos := store.Repositories()
	billingSvc := billing.NewService(repos, nil, billing.GatewayConfig{})

	payRequests := NewPayRequestController(billingSvc)
	webhooks := NewWebhookController(billingSvc)
	plans := NewPlanController(repos)
	settings := NewPaymentSettingsController(repos)
	history := NewPaymentHistoryController(repos)
	accounts := NewAccountController(repos)
	features := NewFeatureController(entitlements.NewService(repos))

	app := fiber.New()
	custom := app.Group("/custom")
	custom.Post("/pay_request", payRequests.HandleCreatePayRequest)
	custom.Get("/pay_request/:account_id", payRequests.HandleGetPayRequest)
	custom.Post("/webhook/plan", middleware.WebhookBearerMiddleware(repos.PaymentSettings), webhooks.HandlePlanWebhook)
	custom.Get("/plans", plans.HandlePublicPlans)
	custom.Get("/payment_settings", settings.HandlePublicPaymentSettings)
	custom.Get("/features/:account_id", features.HandleAccountFeatures)

	dashboard := app.Group("/dashboard", middleware.DashboardTokenMiddleware(testDashboardToken))
	dashboard.Get("/plans", plans.HandleAdminPlans)
	dashboard.Put("/plans", plans.HandleAdminPlansUpdate)
	dashboard.Get("/payment_settings", settings.HandleAdminPaymentSettings)
	dashboard.Put("/payment_settings", settings.HandleAdminPaymentSettingsUpdate)
	dashboard.Get("/payment_history", history.HandlePaymentHistory)
	dashboard.Get("/accounts", accounts.HandleListAccounts)
	dashboard.Get("/accounts/:id", accounts.HandleGetAccount)
	dashboard.Put("/accounts", accounts.HandleUpdateAccounts)
	dashboard.Delete("/accounts/:id", accounts.HandleDeleteAccount)
	return app
}

type testRequest struct {
	method  string
	path    string
	body    string
	headers map[string]string
}

func doRequest(t *testing.T, app *fiber.App, r testRequest) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if r.body != "" {
		body = bytes.NewBufferString(r.body)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func dashboardHeaders() map[string]string {
	return map[string]string{middleware.DashboardTokenHeader: testDashboardToken}
}

func decodeMap(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}
