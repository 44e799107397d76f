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
)

// budgetRecalcService keeps each budget's spent amount and status consistent
// with the transaction ledger. It is the only writer of spent_amount, status
// and last_alert_sent_at; CRUD paths call into it instead of touching those
// columns.
type budgetRecalcService struct {
	db       *gorm.DB
	notifier Notifier
	locks    *keyedMutex
	now      func() time.Time
}

// NewBudgetRecalculator creates a new BudgetRecalculator.
func NewBudgetRecalculator(db *gorm.DB, notifier Notifier) BudgetRecalculator {
	return &budgetRecalcService{
		db:       db,
		notifier: notifier,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// SumExpenses aggregates EXPENSE transaction amounts for the user within the
// inclusive date range, optionally restricted to one category (nil means all
// categories).
func (s *budgetRecalcService) SumExpenses(userID uint, categoryID *uint, startDate, endDate time.Time) (decimal.Decimal, error) {
	q := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ? AND transaction_date BETWEEN ? AND ?",
			userID, models.TransactionTypeExpense, models.DateOnly(startDate), models.DateOnly(endDate))
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}

	var spent decimal.Decimal
	if err := q.Row().Scan(&spent); err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return spent, nil
}

// RecalculateOne reloads the budget, aggregates its spending, evaluates the
// status engine, persists the result, and dispatches an alert if one is due.
// The whole read-modify-write is serialized per budget. If evaluation fails,
// the budget is left unmodified.
func (s *budgetRecalcService) RecalculateOne(budgetID uint) (*models.Budget, error) {
	unlock := s.locks.Lock(budgetLockKey(budgetID))
	defer unlock()

	var budget models.Budget
	if err := s.db.First(&budget, budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spent, err := s.SumExpenses(budget.UserID, budget.CategoryID, budget.StartDate, budget.EndDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	eval, err := EvaluateBudget(&budget, spent, now)
	if err != nil {
		return nil, err
	}

	previousStatus := budget.Status
	if err := s.db.Model(&budget).Updates(map[string]interface{}{
		"spent_amount": eval.SpentAmount,
		"status":       eval.Status,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.SpentAmount = eval.SpentAmount
	budget.Status = eval.Status

	if eval.SendAlert {
		s.dispatchAlert(&budget, now)
	}

	logger.Get().Debugw("budget recalculated",
		"budget_id", budget.ID,
		"spent", eval.SpentAmount.String(),
		"status", eval.Status,
		"previous_status", previousStatus,
	)
	return &budget, nil
}

// dispatchAlert delivers the exceeded alert best-effort. Delivery failure is
// logged and swallowed; it never rolls back the recalculation. The cooldown
// timestamp is only advanced after a successful dispatch attempt.
func (s *budgetRecalcService) dispatchAlert(budget *models.Budget, now time.Time) {
	message := fmt.Sprintf("Budget '%s' exceeded: spent %s of %s limit.",
		budget.Name, budget.SpentAmount.StringFixed(2), budget.LimitAmount.StringFixed(2))

	if err := s.notifier.SendAlert(budget.UserID, message, models.NotificationBudgetExceeded); err != nil {
		logger.Get().Errorw("failed to send budget alert",
			"budget_id", budget.ID,
			"user_id", budget.UserID,
			"error", err,
		)
		return
	}

	if err := s.db.Model(budget).Update("last_alert_sent_at", now).Error; err != nil {
		logger.Get().Errorw("failed to record alert timestamp",
			"budget_id", budget.ID,
			"error", err,
		)
		return
	}
	budget.LastAlertSentAt = &now
}

// RecalculateAffectedByTransaction recalculates every budget whose (owner,
// period, category-or-all) scope covers the transaction. On update, previous
// carries the pre-edit state so budgets the transaction moved out of are
// refreshed too. INCOME transactions never affect budgets. Per-budget
// failures are logged, not propagated: a budget error must not fail the
// ledger mutation that triggered it.
func (s *budgetRecalcService) RecalculateAffectedByTransaction(txn, previous *models.Transaction) {
	affected := make(map[uint]struct{})
	for _, t := range []*models.Transaction{txn, previous} {
		if t == nil || t.Type != models.TransactionTypeExpense {
			continue
		}
		budgets, err := s.findBudgetsForTransaction(t.UserID, t.TransactionDate, t.CategoryID)
		if err != nil {
			logger.Get().Errorw("failed to resolve budgets for transaction",
				"transaction_id", t.ID,
				"user_id", t.UserID,
				"error", err,
			)
			continue
		}
		for _, b := range budgets {
			affected[b.ID] = struct{}{}
		}
	}

	for budgetID := range affected {
		if _, err := s.RecalculateOne(budgetID); err != nil {
			logger.Get().Errorw("failed to recalculate affected budget",
				"budget_id", budgetID,
				"error", err,
			)
		}
	}
}

// findBudgetsForTransaction returns non-terminal budgets whose window covers
// the date and whose scope matches the category (category budgets plus
// all-category budgets).
func (s *budgetRecalcService) findBudgetsForTransaction(userID uint, date time.Time, categoryID uint) ([]models.Budget, error) {
	day := models.DateOnly(date)
	var budgets []models.Budget
	err := s.db.
		Where("user_id = ? AND status IN ?", userID, []models.BudgetStatus{models.BudgetStatusActive, models.BudgetStatusExceeded}).
		Where("start_date <= ? AND end_date >= ?", day, day).
		Where("category_id = ? OR category_id IS NULL", categoryID).
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// RecalculateAllActive is the daily bulk sweep over every ACTIVE or EXCEEDED
// budget. PAUSED budgets never alert and COMPLETED budgets are frozen, so
// both are skipped. One budget's failure is logged and the sweep continues;
// re-running the sweep is safe. Returns the number of budgets recalculated.
func (s *budgetRecalcService) RecalculateAllActive() (int, error) {
	log := logger.Get()
	log.Info("Starting budget recalculation sweep")

	var budgets []models.Budget
	if err := s.db.
		Where("status IN ?", []models.BudgetStatus{models.BudgetStatusActive, models.BudgetStatusExceeded}).
		Find(&budgets).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	recalculated := 0
	for _, budget := range budgets {
		if _, err := s.RecalculateOne(budget.ID); err != nil {
			log.Errorw("failed to recalculate budget during sweep",
				"budget_id", budget.ID,
				"error", err,
			)
			continue
		}
		recalculated++
	}

	log.Infow("Completed budget recalculation sweep", "recalculated", recalculated, "total", len(budgets))
	return recalculated, nil
}
