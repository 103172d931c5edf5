package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PlanPay/app/controllers"
	"github.com/ManuelReschke/PlanPay/app/repository"
	"github.com/ManuelReschke/PlanPay/internal/pkg/billing"
	"github.com/ManuelReschke/PlanPay/internal/pkg/cache"
	"github.com/ManuelReschke/PlanPay/internal/pkg/database"
	"github.com/ManuelReschke/PlanPay/internal/pkg/entitlements"
	"github.com/ManuelReschke/PlanPay/internal/pkg/env"
	"github.com/ManuelReschke/PlanPay/internal/pkg/metrics/counter"
)

const aliasLockTTL = 30 * time.Second

type Router interface {
	InstallRouter(app *fiber.App)
}

// Services bundles what the route groups need.
type Services struct {
	Repos          *repository.Repositories
	Billing        *billing.Service
	Entitlements   *entitlements.Service
	WebhookStats   controllers.WebhookOutcomeReader
	DashboardToken string
	// UseRedisLimiter keeps rate limiter counters in Redis instead of process memory.
	UseRedisLimiter bool
}

func InstallRouter(app *fiber.App) {
	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	svc := &Services{
		Repos:           repos,
		Entitlements:    entitlements.NewService(repos),
		DashboardToken:  env.GetEnv("DASHBOARD_API_TOKEN", ""),
		UseRedisLimiter: cache.IsAvailable(),
	}

	// interfaces stay nil when Redis is unavailable, never a typed nil pointer
	var locker billing.Locker
	if cache.IsAvailable() {
		locker = cache.NewLocker(cache.GetClient(), aliasLockTTL)
	} else {
		fiberlog.Warn("Cache unavailable: webhook alias locks and statistics disabled")
	}
	svc.Billing = billing.NewService(repos, locker, billing.GatewayConfigFromEnv())
	if cache.IsAvailable() {
		stats := counter.NewWebhookCounter(cache.GetClient())
		svc.Billing.SetOutcomeRecorder(stats)
		svc.WebhookStats = stats
	}

	Install(app, svc)
}

// Install registers all route groups with explicit dependencies.
func Install(app *fiber.App, svc *Services) {
	setup(app, NewCustomRouter(svc), NewDashboardRouter(svc))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
