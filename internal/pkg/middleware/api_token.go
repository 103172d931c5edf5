package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PlanPay/app/repository"
	"github.com/ManuelReschke/PlanPay/internal/pkg/billing"
)

const DashboardTokenHeader = "api-token"

// DashboardTokenMiddleware protects the admin dashboard API with a shared token.
// An empty token rejects every request.
func DashboardTokenMiddleware(token string) fiber.Handler {
	expected := []byte(strings.TrimSpace(token))
	if len(expected) == 0 {
		fiberlog.Warn("DASHBOARD_API_TOKEN is not set, dashboard API is locked")
	}

	return func(c *fiber.Ctx) error {
		got := strings.TrimSpace(c.Get(DashboardTokenHeader))
		if got == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API token"})
		}
		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API token"})
		}
		return c.Next()
	}
}

// WebhookBearerMiddleware checks the provider's bearer token against the
// access token stored in the payment settings.
func WebhookBearerMiddleware(settings repository.PaymentSettingsRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current, err := settings.Get()
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fiberlog.Warn("[Webhook] rejected: payment settings not configured")
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Webhook not configured"})
			}
			fiberlog.Errorf("[Webhook] failed to load payment settings: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Webhook verification failed"})
		}

		if !billing.VerifyBearerToken(c.Get(fiber.HeaderAuthorization), current.AccessToken) {
			fiberlog.Warnf("[Webhook] rejected unauthorized request from %s", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid token"})
		}
		return c.Next()
	}
}
