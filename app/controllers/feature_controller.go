package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PlanPay/internal/pkg/entitlements"
)

type FeatureController struct {
	entitlements *entitlements.Service
}

func NewFeatureController(svc *entitlements.Service) *FeatureController {
	return &FeatureController{entitlements: svc}
}

// HandleAccountFeatures handles GET /custom/features/:account_id
func (fc *FeatureController) HandleAccountFeatures(c *fiber.Ctx) error {
	resolved, err := fc.entitlements.ResolveForAccount(c.UserContext(), c.Params("account_id"))
	if err != nil {
		if errors.Is(err, entitlements.ErrAccountNotFound) {
			return notFound(c, "Account not found.")
		}
		fiberlog.Errorf("[Features] resolve: %v", err)
		return internalError(c, "Failed to resolve features")
	}
	return c.JSON(resolved)
}
