package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/PlanPay/app/controllers"
	"github.com/ManuelReschke/PlanPay/internal/pkg/cache"
	"github.com/ManuelReschke/PlanPay/internal/pkg/env"
	"github.com/ManuelReschke/PlanPay/internal/pkg/middleware"
)

const webhookPath = "/custom/webhook/"

// CustomRouter serves the end-user and payment provider endpoints.
type CustomRouter struct {
	svc *Services
}

func NewCustomRouter(svc *Services) *CustomRouter {
	return &CustomRouter{svc: svc}
}

func (r CustomRouter) InstallRouter(app *fiber.App) {
	payRequests := controllers.NewPayRequestController(r.svc.Billing)
	webhooks := controllers.NewWebhookController(r.svc.Billing)
	plans := controllers.NewPlanController(r.svc.Repos)
	settings := controllers.NewPaymentSettingsController(r.svc.Repos)
	features := controllers.NewFeatureController(r.svc.Entitlements)

	custom := app.Group("/custom", limiter.New(r.limiterConfig()))
	custom.Post("/pay_request", payRequests.HandleCreatePayRequest)
	custom.Get("/pay_request/:account_id", payRequests.HandleGetPayRequest)
	custom.Post("/webhook/plan", middleware.WebhookBearerMiddleware(r.svc.Repos.PaymentSettings), webhooks.HandlePlanWebhook)
	custom.Get("/plans", plans.HandlePublicPlans)
	custom.Get("/payment_settings", settings.HandlePublicPaymentSettings)
	custom.Get("/features/:account_id", features.HandleAccountFeatures)
}

func (r CustomRouter) limiterConfig() limiter.Config {
	cfg := limiter.Config{
		Max:        env.GetEnvInt("RATE_LIMIT_MAX", 60),
		Expiration: time.Minute,
		// provider batches arrive in bursts from few addresses
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), webhookPath)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"status": "error", "error": "too_many_requests", "message": "Rate limit exceeded"})
		},
	}

	if r.svc.UseRedisLimiter {
		host, port := cache.Address()
		// database 2 keeps limiter counters apart from locks (database 0)
		cfg.Storage = redisstorage.New(redisstorage.Config{
			Host:     host,
			Port:     port,
			Password: env.GetEnv("CACHE_PASSWORD", ""),
			Database: 2,
			Reset:    false,
		})
	}
	return cfg
}
