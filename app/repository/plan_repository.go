package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuelReschke/PlanPay/app/models"
	"gorm.io/gorm"
)

// planRepository implements the PlanRepository interface on the "plan" document
type planRepository struct {
	docs documentStore
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{docs: documentStore{db: db}}
}

// List returns the stored plans. A missing document is an empty list.
func (r *planRepository) List() ([]models.Plan, int, error) {
	raw, err := r.docs.get(models.SystemInfoPlan)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.Plan{}, 0, nil
		}
		return nil, 0, err
	}
	return DecodePlanList(raw)
}

// ReplaceAll overwrites the whole plan list
func (r *planRepository) ReplaceAll(plans []models.Plan) error {
	if plans == nil {
		plans = []models.Plan{}
	}
	data, err := json.Marshal(plans)
	if err != nil {
		return fmt.Errorf("failed to encode plans: %w", err)
	}
	return r.docs.put(models.SystemInfoPlan, string(data))
}

// DecodePlanList decodes a stored plan list element by element. Feature
// limits an entry omits take the configured defaults. Entries that do not
// decode into a Plan (for example a non-numeric plan_expiration) are left out
// and counted in skipped; they are never repaired.
func DecodePlanList(raw string) (plans []models.Plan, skipped int, err error) {
	plans = []models.Plan{}
	if strings.TrimSpace(raw) == "" || strings.TrimSpace(raw) == "null" {
		return plans, 0, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, 0, fmt.Errorf("plan document is not a list: %w", err)
	}

	defaults := models.DefaultFeatures()
	for _, entry := range entries {
		p := models.Plan{Features: defaults}
		if err := json.Unmarshal(entry, &p); err != nil {
			skipped++
			continue
		}
		plans = append(plans, p)
	}
	return plans, skipped, nil
}
