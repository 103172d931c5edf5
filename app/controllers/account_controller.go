package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PlanPay/app/models"
	"github.com/ManuelReschke/PlanPay/app/repository"
)

// AccountController lets the dashboard inspect accounts and edit their plan and limits.
type AccountController struct {
	repos *repository.Repositories
}

func NewAccountController(repos *repository.Repositories) *AccountController {
	return &AccountController{repos: repos}
}

// accountUpdate is one entry of a bulk account update. Every field is
// written; a null id_custom_plan or plan_expiration clears it.
type accountUpdate struct {
	ID                      string     `json:"id" validate:"required,max=36"`
	Status                  *string    `json:"status" validate:"required,oneof=active pending uninitialized banned closed"`
	CustomPlanID            *string    `json:"id_custom_plan" validate:"omitempty,max=64"`
	PlanExpiration          *time.Time `json:"plan_expiration"`
	MonthBeforeBanned       *int       `json:"month_before_banned" validate:"required,gte=0"`
	MaxOfApps               *int       `json:"max_of_apps" validate:"required,gte=0"`
	MaxVectorSpace          *int       `json:"max_vector_space" validate:"required,gte=0"`
	MaxAnnotationQuotaLimit *int       `json:"max_annotation_quota_limit" validate:"required,gte=0"`
	MaxDocumentsUploadQuota *int       `json:"max_documents_upload_quota" validate:"required,gte=0"`
}

func (u *accountUpdate) apply(a *models.Account) {
	a.Status = *u.Status
	a.CustomPlanID = u.CustomPlanID
	if u.PlanExpiration != nil {
		exp := u.PlanExpiration.UTC()
		a.PlanExpiration = &exp
	} else {
		a.PlanExpiration = nil
	}
	a.MonthBeforeBanned = *u.MonthBeforeBanned
	a.MaxOfApps = *u.MaxOfApps
	a.MaxVectorSpace = *u.MaxVectorSpace
	a.MaxAnnotationQuotaLimit = *u.MaxAnnotationQuotaLimit
	a.MaxDocumentsUploadQuota = *u.MaxDocumentsUploadQuota
}

var errUnknownAccount = errors.New("unknown account")

// HandleListAccounts handles GET /dashboard/accounts
func (ac *AccountController) HandleListAccounts(c *fiber.Ctx) error {
	offset, limit, err := parsePagination(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	total, err := ac.repos.Account.Count()
	if err != nil {
		fiberlog.Errorf("[Accounts] count: %v", err)
		return internalError(c, "Failed to load accounts")
	}
	accounts, err := ac.repos.Account.List(offset, limit)
	if err != nil {
		fiberlog.Errorf("[Accounts] list: %v", err)
		return internalError(c, "Failed to load accounts")
	}

	setTotalCount(c, total)
	return c.JSON(accounts)
}

// HandleGetAccount handles GET /dashboard/accounts/:id
func (ac *AccountController) HandleGetAccount(c *fiber.Ctx) error {
	account, err := ac.repos.Account.GetByID(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Account not found.")
		}
		fiberlog.Errorf("[Accounts] get %s: %v", c.Params("id"), err)
		return internalError(c, "Failed to load account")
	}
	return c.JSON(account)
}

// HandleUpdateAccounts handles PUT /dashboard/accounts. All entries are
// applied in one transaction; an unknown account rejects the whole request.
func (ac *AccountController) HandleUpdateAccounts(c *fiber.Ctx) error {
	var updates []accountUpdate
	if err := json.Unmarshal(c.Body(), &updates); err != nil {
		return badRequest(c, "Request body must be a JSON array of accounts")
	}
	for i := range updates {
		if err := validate.Struct(&updates[i]); err != nil {
			return badRequest(c, fmt.Sprintf("account %d: %s", i, validationMessage(err)))
		}
	}

	plans, _, err := ac.repos.Plan.List()
	if err != nil {
		fiberlog.Errorf("[Accounts] load plans: %v", err)
		return internalError(c, "Failed to update accounts")
	}
	for i, u := range updates {
		if u.CustomPlanID == nil || *u.CustomPlanID == "" {
			continue
		}
		if _, ok := models.FindPlan(plans, *u.CustomPlanID); !ok {
			return badRequest(c, fmt.Sprintf("account %d: unknown plan %q", i, *u.CustomPlanID))
		}
	}

	var missing string
	err = ac.repos.Transaction(func(tx *repository.Repositories) error {
		for i := range updates {
			account, err := tx.Account.GetByID(updates[i].ID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					missing = updates[i].ID
					return errUnknownAccount
				}
				return err
			}
			updates[i].apply(account)
			if err := tx.Account.Save(account); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errUnknownAccount) {
			return notFound(c, fmt.Sprintf("Account %s not found.", missing))
		}
		fiberlog.Errorf("[Accounts] bulk update: %v", err)
		return internalError(c, "Failed to update accounts")
	}

	fiberlog.Infof("[Accounts] %d account(s) updated", len(updates))
	return successResponse(c, "Accounts updated successfully")
}

// HandleDeleteAccount handles DELETE /dashboard/accounts/:id. The pending
// alias and the account are removed in one transaction.
func (ac *AccountController) HandleDeleteAccount(c *fiber.Ctx) error {
	id := c.Params("id")
	err := ac.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Alias.DeleteByAccountID(id); err != nil {
			return err
		}
		return tx.Account.Delete(id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, fmt.Sprintf("Account %s not found.", id))
		}
		fiberlog.Errorf("[Accounts] delete %s: %v", id, err)
		return internalError(c, "Failed to delete account")
	}
	return successResponse(c, fmt.Sprintf("Account %s deleted.", id))
}
