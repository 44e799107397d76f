package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

type budgetService struct {
	db     *gorm.DB
	recalc BudgetRecalculator
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, recalc BudgetRecalculator) BudgetServicer {
	return &budgetService{db: db, recalc: recalc}
}

// CreateBudget creates a budget and immediately recalculates it so the
// spent amount reflects expenses already recorded inside the period.
func (s *budgetService) CreateBudget(
	userID uint,
	categoryID *uint,
	name, description string,
	limitAmount decimal.Decimal,
	startDate, endDate time.Time,
	thresholdPercent int,
) (*models.Budget, error) {
	if limitAmount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit amount must be greater than zero")
	}

	start := models.DateOnly(startDate)
	end := models.DateOnly(endDate)
	if end.Before(start) {
		return nil, apperrors.ErrInvalidPeriod
	}

	if categoryID != nil {
		var category models.Category
		if err := s.db.Where("id = ? AND user_id = ?", *categoryID, userID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if thresholdPercent <= 0 || thresholdPercent > 100 {
		thresholdPercent = models.DefaultThresholdPercent
	}

	budget := &models.Budget{
		UserID:           userID,
		CategoryID:       categoryID,
		Name:             name,
		Description:      description,
		LimitAmount:      limitAmount,
		SpentAmount:      decimal.Zero,
		StartDate:        start,
		EndDate:          end,
		Status:           models.BudgetStatusActive,
		ThresholdPercent: thresholdPercent,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.recalc.RecalculateOne(budget.ID)
}

// GetUserBudgets returns a paginated list of the user's budgets with an
// optional status filter.
func (s *budgetService) GetUserBudgets(userID uint, page pagination.PageRequest, statuses []models.BudgetStatus) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if len(statuses) > 0 {
		base = base.Where("status IN ?", statuses)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Scopes(pagination.Paginate(page)).
		Order("end_date ASC, id ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetExceededBudgets returns all of the user's budgets currently over limit.
func (s *budgetService) GetExceededBudgets(userID uint) ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Where("user_id = ? AND status = ?", userID, models.BudgetStatusExceeded).
		Order("end_date ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// UpdateBudget edits a budget. Changing the limit, period, or category
// invalidates the cached spent amount, so those edits force a
// recalculation before the budget is returned.
func (s *budgetService) UpdateBudget(
	userID, budgetID uint,
	name, description *string,
	categoryID *uint,
	clearCategory bool,
	limitAmount *decimal.Decimal,
	startDate, endDate *time.Time,
	thresholdPercent *int,
) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	needsRecalc := false

	if name != nil {
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if limitAmount != nil {
		if limitAmount.LessThanOrEqual(decimal.Zero) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "limit amount must be greater than zero")
		}
		updates["limit_amount"] = *limitAmount
		needsRecalc = true
	}
	if thresholdPercent != nil {
		if *thresholdPercent <= 0 || *thresholdPercent > 100 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "threshold percent must be between 1 and 100")
		}
		updates["threshold_percent"] = *thresholdPercent
	}

	start := models.DateOnly(budget.StartDate)
	end := models.DateOnly(budget.EndDate)
	if startDate != nil {
		start = models.DateOnly(*startDate)
		updates["start_date"] = start
		needsRecalc = true
	}
	if endDate != nil {
		end = models.DateOnly(*endDate)
		updates["end_date"] = end
		needsRecalc = true
	}
	if end.Before(start) {
		return nil, apperrors.ErrInvalidPeriod
	}

	if clearCategory {
		updates["category_id"] = nil
		needsRecalc = true
	} else if categoryID != nil {
		var category models.Category
		if err := s.db.Where("id = ? AND user_id = ?", *categoryID, userID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates["category_id"] = *categoryID
		needsRecalc = true
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if needsRecalc {
		return s.recalc.RecalculateOne(budgetID)
	}
	return s.GetBudgetByID(userID, budgetID)
}

// PauseBudget transitions a budget to PAUSED. Paused budgets keep their
// spent amount frozen and never raise alerts.
func (s *budgetService) PauseBudget(userID, budgetID uint) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(budget).Update("status", models.BudgetStatusPaused).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.Status = models.BudgetStatusPaused
	return budget, nil
}

// ResumeBudget returns a paused budget to evaluation. The recalculation
// decides the real status from the current ledger, so a resumed budget can
// come back ACTIVE, EXCEEDED, or COMPLETED.
func (s *budgetService) ResumeBudget(userID, budgetID uint) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if budget.Status != models.BudgetStatusPaused {
		return budget, nil
	}

	if err := s.db.Model(budget).Update("status", models.BudgetStatusActive).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.recalc.RecalculateOne(budgetID)
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID uint) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RecalculateBudget is the manual refresh endpoint path. It verifies
// ownership, then runs the same recalculation the automatic triggers use.
func (s *budgetService) RecalculateBudget(userID, budgetID uint) (*models.Budget, error) {
	if _, err := s.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}
	return s.recalc.RecalculateOne(budgetID)
}
