package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PlanPay/app/controllers"
	"github.com/ManuelReschke/PlanPay/internal/pkg/middleware"
)

// DashboardRouter serves the admin API used by the operator dashboard.
type DashboardRouter struct {
	svc *Services
}

func NewDashboardRouter(svc *Services) *DashboardRouter {
	return &DashboardRouter{svc: svc}
}

func (r DashboardRouter) InstallRouter(app *fiber.App) {
	plans := controllers.NewPlanController(r.svc.Repos)
	settings := controllers.NewPaymentSettingsController(r.svc.Repos)
	history := controllers.NewPaymentHistoryController(r.svc.Repos)
	accounts := controllers.NewAccountController(r.svc.Repos)
	webhookStats := controllers.NewWebhookStatsController(r.svc.WebhookStats)

	dashboard := app.Group("/dashboard", middleware.DashboardTokenMiddleware(r.svc.DashboardToken))

	dashboard.Get("/plans", plans.HandleAdminPlans)
	dashboard.Put("/plans", plans.HandleAdminPlansUpdate)

	dashboard.Get("/payment_settings", settings.HandleAdminPaymentSettings)
	dashboard.Put("/payment_settings", settings.HandleAdminPaymentSettingsUpdate)
	dashboard.Get("/payment_history", history.HandlePaymentHistory)
	dashboard.Get("/webhook_stats", webhookStats.HandleWebhookStats)

	dashboard.Get("/accounts", accounts.HandleListAccounts)
	dashboard.Get("/accounts/:id", accounts.HandleGetAccount)
	dashboard.Put("/accounts", accounts.HandleUpdateAccounts)
	dashboard.Delete("/accounts/:id", accounts.HandleDeleteAccount)
}
