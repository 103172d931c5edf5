package controllers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/PlanPay/app/models"
	"github.com/ManuelReschke/PlanPay/app/repository"
)

// PlanController serves the plan catalogue publicly and lets the dashboard replace it.
type PlanController struct {
	repos    *repository.Repositories
	defaults func() models.FeatureSet
}

func NewPlanController(repos *repository.Repositories) *PlanController {
	return &PlanController{repos: repos, defaults: models.DefaultFeatures}
}

// HandlePublicPlans handles GET /custom/plans
func (pc *PlanController) HandlePublicPlans(c *fiber.Ctx) error {
	plans, _, err := pc.repos.Plan.List()
	if err != nil {
		fiberlog.Errorf("[Plans] load plans: %v", err)
		return internalError(c, "Failed to load plans")
	}
	return c.JSON(plans)
}

// HandleAdminPlans handles GET /dashboard/plans
func (pc *PlanController) HandleAdminPlans(c *fiber.Ctx) error {
	plans, skipped, err := pc.repos.Plan.List()
	if err != nil {
		fiberlog.Errorf("[Plans] load plans: %v", err)
		return internalError(c, "Failed to load plans")
	}
	if skipped > 0 {
		fiberlog.Warnf("[Plans] %d stored plan(s) could not be decoded and were omitted", skipped)
	}
	c.Set("X-Skipped-Plans", strconv.Itoa(skipped))
	return c.JSON(plans)
}

// HandleAdminPlansUpdate handles PUT /dashboard/plans and replaces the whole list.
func (pc *PlanController) HandleAdminPlansUpdate(c *fiber.Ctx) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return badRequest(c, "Request body must be a JSON array of plans")
	}

	plans, err := pc.decodePlans(raw)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := pc.repos.Plan.ReplaceAll(plans); err != nil {
		fiberlog.Errorf("[Plans] replace plans: %v", err)
		return internalError(c, "Failed to save plans")
	}

	fiberlog.Infof("[Plans] plan list replaced (%d plans)", len(plans))
	return successResponse(c, "Plan updated successfully.")
}

// decodePlans fills feature limits missing from a submitted plan with the
// defaults and assigns ids to new plans.
func (pc *PlanController) decodePlans(raw []json.RawMessage) ([]models.Plan, error) {
	plans := make([]models.Plan, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, item := range raw {
		plan := models.Plan{Features: pc.defaults()}
		if err := json.Unmarshal(item, &plan); err != nil {
			return nil, fmt.Errorf("plan %d: %v", i, err)
		}
		plan.ID = strings.TrimSpace(plan.ID)
		if plan.ID == "" {
			plan.ID = uuid.NewString()
		}
		if err := plan.Validate(); err != nil {
			return nil, fmt.Errorf("plan %d: %s", i, validationMessage(err))
		}
		if _, dup := seen[plan.ID]; dup {
			return nil, fmt.Errorf("plan %d: duplicate id %q", i, plan.ID)
		}
		seen[plan.ID] = struct{}{}
		plans = append(plans, plan)
	}
	return plans, nil
}
