package controllers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PlanPay/internal/pkg/billing"
)

// WebhookController receives bank transaction notifications from the payment provider.
// Authentication happens in middleware.WebhookBearerMiddleware.
type WebhookController struct {
	billing *billing.Service
}

func NewWebhookController(svc *billing.Service) *WebhookController {
	return &WebhookController{billing: svc}
}

// HandlePlanWebhook handles POST /custom/webhook/plan
func (wc *WebhookController) HandlePlanWebhook(c *fiber.Ctx) error {
	var batch billing.WebhookBatch
	if err := json.Unmarshal(c.Body(), &batch); err != nil {
		fiberlog.Warnf("[Webhook] undecodable payload: %v", err)
		return badRequest(c, "Invalid webhook payload")
	}

	result, err := wc.billing.ReconcileBatch(c.UserContext(), &batch)
	if err != nil {
		fiberlog.Errorf("[Webhook] batch failed: %v", err)
		return internalError(c, "Webhook processing failed")
	}

	return c.JSON(fiber.Map{
		"status": true,
		"msg":    "Ok",
		"result": fiber.Map{
			"received": result.Received,
			"credited": result.Credited,
			"skipped":  result.Skipped,
		},
	})
}
