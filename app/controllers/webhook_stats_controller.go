package controllers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PlanPay/internal/pkg/metrics/counter"
)

// WebhookOutcomeReader is implemented by counter.WebhookCounter.
type WebhookOutcomeReader interface {
	WebhookOutcomes(ctx context.Context, until time.Time, days int) ([]counter.DailyOutcomes, error)
}

// WebhookStatsController reports how webhook transactions were handled per day.
type WebhookStatsController struct {
	reader WebhookOutcomeReader
	now    func() time.Time
}

// NewWebhookStatsController accepts a nil reader when statistics are disabled.
func NewWebhookStatsController(reader WebhookOutcomeReader) *WebhookStatsController {
	return &WebhookStatsController{reader: reader, now: time.Now}
}

// HandleWebhookStats handles GET /dashboard/webhook_stats?days=
func (wc *WebhookStatsController) HandleWebhookStats(c *fiber.Ctx) error {
	if wc.reader == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "unavailable", "Webhook statistics require the cache")
	}

	days := 7
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > counter.MaxDays {
			return badRequest(c, "days must be between 1 and "+strconv.Itoa(counter.MaxDays))
		}
		days = n
	}

	stats, err := wc.reader.WebhookOutcomes(c.UserContext(), wc.now(), days)
	if err != nil {
		fiberlog.Errorf("[WebhookStats] read: %v", err)
		return internalError(c, "Failed to load webhook statistics")
	}
	return c.JSON(stats)
}
