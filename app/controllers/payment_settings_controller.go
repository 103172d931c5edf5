package controllers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PlanPay/app/models"
	"github.com/ManuelReschke/PlanPay/app/repository"
)

type PaymentSettingsController struct {
	repos *repository.Repositories
}

func NewPaymentSettingsController(repos *repository.Repositories) *PaymentSettingsController {
	return &PaymentSettingsController{repos: repos}
}

// load returns empty settings when none were saved yet.
func (pc *PaymentSettingsController) load() (*models.PaymentSettings, error) {
	settings, err := pc.repos.PaymentSettings.Get()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.PaymentSettings{}, nil
	}
	return settings, err
}

// HandlePublicPaymentSettings handles GET /custom/payment_settings
func (pc *PaymentSettingsController) HandlePublicPaymentSettings(c *fiber.Ctx) error {
	settings, err := pc.load()
	if err != nil {
		fiberlog.Errorf("[PaymentSettings] load: %v", err)
		return internalError(c, "Failed to load payment settings")
	}
	return c.JSON(settings.Public())
}

// HandleAdminPaymentSettings handles GET /dashboard/payment_settings
func (pc *PaymentSettingsController) HandleAdminPaymentSettings(c *fiber.Ctx) error {
	settings, err := pc.load()
	if err != nil {
		fiberlog.Errorf("[PaymentSettings] load: %v", err)
		return internalError(c, "Failed to load payment settings")
	}
	return c.JSON(settings)
}

// HandleAdminPaymentSettingsUpdate handles PUT /dashboard/payment_settings
func (pc *PaymentSettingsController) HandleAdminPaymentSettingsUpdate(c *fiber.Ctx) error {
	var settings models.PaymentSettings
	if err := json.Unmarshal(c.Body(), &settings); err != nil {
		return badRequest(c, "Invalid payment settings")
	}
	if err := validate.Struct(&settings); err != nil {
		return badRequest(c, validationMessage(err))
	}

	if err := pc.repos.PaymentSettings.Save(&settings); err != nil {
		fiberlog.Errorf("[PaymentSettings] save: %v", err)
		return internalError(c, "Failed to save payment settings")
	}
	if settings.AccessToken == "" {
		fiberlog.Warn("[PaymentSettings] saved without access token, webhooks will be rejected")
	}
	return successResponse(c, "Payment settings updated successfully.")
}
