package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PlanPay/internal/pkg/billing"
)

// PayRequestController issues payment aliases and QR links to end users.
type PayRequestController struct {
	billing *billing.Service
}

func NewPayRequestController(svc *billing.Service) *PayRequestController {
	return &PayRequestController{billing: svc}
}

// HandleCreatePayRequest handles POST /custom/pay_request
func (pc *PayRequestController) HandleCreatePayRequest(c *fiber.Ctx) error {
	var req billing.PayRequestInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	payReq, err := pc.billing.CreatePayRequest(c.UserContext(), req.AccountID, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrPlanNotFound):
			return notFound(c, "Plan not found.")
		case errors.Is(err, billing.ErrAccountNotFound):
			return notFound(c, "Account not found.")
		case errors.Is(err, billing.ErrPaymentSettingsNotConfigured):
			return notFound(c, "Payment settings not found.")
		}
		fiberlog.Errorf("[PayRequest] account %s plan %s: %v", req.AccountID, req.PlanID, err)
		return internalError(c, "Failed to create pay request")
	}

	fiberlog.Infof("[PayRequest] alias %s issued for account %s plan %s", payReq.Alias, payReq.AccountID, payReq.PlanID)
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Pay request created successfully.",
		"url":     payReq.URL,
		"alies":   payReq.Alias,
	})
}

// HandleGetPayRequest handles GET /custom/pay_request/:account_id
func (pc *PayRequestController) HandleGetPayRequest(c *fiber.Ctx) error {
	pending, err := pc.billing.GetPendingAlias(c.UserContext(), c.Params("account_id"))
	if err != nil {
		if errors.Is(err, billing.ErrAliasNotFound) {
			return notFound(c, "No pending pay request.")
		}
		fiberlog.Errorf("[PayRequest] load pending alias: %v", err)
		return internalError(c, "Failed to load pay request")
	}

	return c.JSON(fiber.Map{
		"status":     "success",
		"message":    "Pending pay request found.",
		"alies":      pending.Alias,
		"id_plan":    pending.PlanID,
		"created_at": formatTimePtr(&pending.CreatedAt),
	})
}
