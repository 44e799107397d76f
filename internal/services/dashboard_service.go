package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// DashboardSummary is a point-in-time aggregate of a user's finances: ledger
// totals, budget totals and counts, the most recent transactions, and the
// budgets ending soonest.
type DashboardSummary struct {
	TotalIncome        decimal.Decimal      `json:"total_income"`
	TotalExpense       decimal.Decimal      `json:"total_expense"`
	Balance            decimal.Decimal      `json:"balance"`
	BudgetLimit        decimal.Decimal      `json:"budget_limit"`
	BudgetSpent        decimal.Decimal      `json:"budget_spent"`
	TotalTransactions  int64                `json:"total_transactions"`
	TotalBudgets       int64                `json:"total_budgets"`
	ActiveBudgets      int64                `json:"active_budgets"`
	ExceededBudgets    int64                `json:"exceeded_budgets"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
	UpcomingBudgets    []models.Budget      `json:"upcoming_budgets"`
}

// recentLimit bounds the recent-transactions and upcoming-budgets lists.
const recentLimit = 5

type dashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB) DashboardServicer {
	return &dashboardService{db: db}
}

// GetSummary aggregates the user's dashboard snapshot.
func (s *dashboardService) GetSummary(userID uint) (*DashboardSummary, error) {
	summary := &DashboardSummary{}

	var err error
	if summary.TotalIncome, err = s.sumByType(userID, models.TransactionTypeIncome); err != nil {
		return nil, err
	}
	if summary.TotalExpense, err = s.sumByType(userID, models.TransactionTypeExpense); err != nil {
		return nil, err
	}
	summary.Balance = summary.TotalIncome.Sub(summary.TotalExpense)

	row := s.db.Model(&models.Budget{}).
		Select("COALESCE(SUM(limit_amount), 0), COALESCE(SUM(spent_amount), 0)").
		Where("user_id = ?", userID).Row()
	if err := row.Scan(&summary.BudgetLimit, &summary.BudgetSpent); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&summary.TotalTransactions, s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)},
		{&summary.TotalBudgets, s.db.Model(&models.Budget{}).Where("user_id = ?", userID)},
		{&summary.ActiveBudgets, s.db.Model(&models.Budget{}).Where("user_id = ? AND status = ?", userID, models.BudgetStatusActive)},
		{&summary.ExceededBudgets, s.db.Model(&models.Budget{}).Where("user_id = ? AND status = ?", userID, models.BudgetStatusExceeded)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if err := s.db.Preload("Category").
		Where("user_id = ?", userID).
		Order("transaction_date DESC, id DESC").
		Limit(recentLimit).
		Find(&summary.RecentTransactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	today := models.DateOnly(time.Now())
	if err := s.db.
		Where("user_id = ? AND end_date >= ?", userID, today).
		Order("end_date ASC").
		Limit(recentLimit).
		Find(&summary.UpcomingBudgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return summary, nil
}

func (s *dashboardService) sumByType(userID uint, txType models.TransactionType) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ?", userID, txType).
		Row().Scan(&total); err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}
