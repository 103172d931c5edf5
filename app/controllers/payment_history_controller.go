package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PlanPay/app/models"
	"github.com/ManuelReschke/PlanPay/app/repository"
)

type PaymentHistoryController struct {
	repos *repository.Repositories
}

func NewPaymentHistoryController(repos *repository.Repositories) *PaymentHistoryController {
	return &PaymentHistoryController{repos: repos}
}

// HandlePaymentHistory handles GET /dashboard/payment_history
// Supports ?offset=&limit= paging, or ?account_id= for one account's attributed payments.
func (hc *PaymentHistoryController) HandlePaymentHistory(c *fiber.Ctx) error {
	var (
		records []models.PaymentHistory
		err     error
	)

	if accountID := strings.TrimSpace(c.Query("account_id")); accountID != "" {
		records, err = hc.repos.PaymentHistory.ListByAccountID(accountID)
		if err != nil {
			fiberlog.Errorf("[PaymentHistory] list for account %s: %v", accountID, err)
			return internalError(c, "Failed to load payment history")
		}
		setTotalCount(c, int64(len(records)))
		return c.JSON(records)
	}

	offset, limit, perr := parsePagination(c)
	if perr != nil {
		return badRequest(c, perr.Error())
	}

	total, err := hc.repos.PaymentHistory.Count()
	if err != nil {
		fiberlog.Errorf("[PaymentHistory] count: %v", err)
		return internalError(c, "Failed to load payment history")
	}
	records, err = hc.repos.PaymentHistory.List(offset, limit)
	if err != nil {
		fiberlog.Errorf("[PaymentHistory] list: %v", err)
		return internalError(c, "Failed to load payment history")
	}

	setTotalCount(c, total)
	return c.JSON(records)
}
