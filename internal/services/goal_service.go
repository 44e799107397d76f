package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

type goalService struct {
	db       *gorm.DB
	notifier Notifier
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB, notifier Notifier) GoalServicer {
	return &goalService{db: db, notifier: notifier}
}

// CreateGoal creates a savings goal starting at zero progress.
func (s *goalService) CreateGoal(userID uint, name string, targetAmount decimal.Decimal, deadline time.Time) (*models.FinancialGoal, error) {
	if targetAmount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
	}

	goal := &models.FinancialGoal{
		UserID:        userID,
		Name:          name,
		TargetAmount:  targetAmount,
		CurrentAmount: decimal.Zero,
		Deadline:      models.DateOnly(deadline),
		Status:        models.GoalStatusActive,
	}
	if err := s.db.Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// GetUserGoals returns a paginated list of the user's goals, optionally
// filtered by status, newest first.
func (s *goalService) GetUserGoals(userID uint, page pagination.PageRequest, status *models.GoalStatus) (*pagination.PageResponse[models.FinancialGoal], error) {
	page.Defaults()

	base := s.db.Model(&models.FinancialGoal{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var goals []models.FinancialGoal
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(goals, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetGoalByID returns a goal by ID if it belongs to the user.
func (s *goalService) GetGoalByID(userID, goalID uint) (*models.FinancialGoal, error) {
	var goal models.FinancialGoal
	if err := s.db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}

// UpdateGoal edits a goal's name, target, or deadline.
func (s *goalService) UpdateGoal(userID, goalID uint, name *string, targetAmount *decimal.Decimal, deadline *time.Time) (*models.FinancialGoal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != nil {
		updates["name"] = *name
	}
	if targetAmount != nil {
		if targetAmount.LessThanOrEqual(decimal.Zero) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
		}
		updates["target_amount"] = *targetAmount
	}
	if deadline != nil {
		updates["deadline"] = models.DateOnly(*deadline)
	}

	if len(updates) > 0 {
		if err := s.db.Model(goal).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return goal, nil
}

// CompleteGoal marks a goal as reached regardless of its progress. COMPLETED
// is terminal; completing an already completed goal is a no-op.
func (s *goalService) CompleteGoal(userID, goalID uint) (*models.FinancialGoal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status == models.GoalStatusCompleted {
		return goal, nil
	}

	now := time.Now()
	if err := s.db.Model(goal).Updates(map[string]interface{}{
		"status":       models.GoalStatusCompleted,
		"completed_at": now,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.dispatchCompleted(goal)
	return goal, nil
}

// CancelGoal abandons a goal. Completed goals stay completed.
func (s *goalService) CancelGoal(userID, goalID uint) (*models.FinancialGoal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.Status == models.GoalStatusCompleted {
		return goal, nil
	}

	if err := s.db.Model(goal).Update("status", models.GoalStatusCancelled).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// DeleteGoal soft-deletes a goal.
func (s *goalService) DeleteGoal(userID, goalID uint) error {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(goal).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ApplyIncome spreads a recorded income amount across all of the user's
// active goals. Progress is capped at the target; a goal reaching its target
// transitions to COMPLETED and sends a GOAL_COMPLETED notification. Failures
// are logged and never propagated to the ledger write.
func (s *goalService) ApplyIncome(userID uint, amount decimal.Decimal) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return
	}

	var goals []models.FinancialGoal
	if err := s.db.Where("user_id = ? AND status = ?", userID, models.GoalStatusActive).Find(&goals).Error; err != nil {
		logger.Get().Errorw("failed to load active goals", "user_id", userID, "error", err)
		return
	}

	for i := range goals {
		goal := &goals[i]
		next := goal.CurrentAmount.Add(amount)

		updates := map[string]interface{}{"current_amount": next}
		completed := false
		if next.GreaterThanOrEqual(goal.TargetAmount) {
			updates["current_amount"] = goal.TargetAmount
			updates["status"] = models.GoalStatusCompleted
			updates["completed_at"] = time.Now()
			completed = true
		}

		if err := s.db.Model(goal).Updates(updates).Error; err != nil {
			logger.Get().Errorw("failed to update goal progress", "goal_id", goal.ID, "error", err)
			continue
		}
		if completed {
			s.dispatchCompleted(goal)
		}
	}
}

func (s *goalService) dispatchCompleted(goal *models.FinancialGoal) {
	message := fmt.Sprintf("Congratulations! You've completed your financial goal: %s", goal.Name)
	if err := s.notifier.SendAlert(goal.UserID, message, models.NotificationGoalCompleted); err != nil {
		logger.Get().Errorw("failed to send goal completed notification",
			"goal_id", goal.ID,
			"user_id", goal.UserID,
			"error", err,
		)
	}
}
