package services

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// alertCooldown suppresses re-alerting when a budget flaps back over its
// limit within this window of the previous alert.
const alertCooldown = 24 * time.Hour

// BudgetEvaluation is the outcome of evaluating a budget against a freshly
// aggregated spent amount. The orchestrator persists it and dispatches the
// alert; the engine itself performs no I/O.
type BudgetEvaluation struct {
	SpentAmount decimal.Decimal
	PercentUsed decimal.Decimal
	Status      models.BudgetStatus
	SendAlert   bool
}

// EvaluateBudget derives a budget's status and alert decision from its
// current snapshot and the aggregated spent amount for its (category,
// period) scope.
//
// Status priority: spent over limit wins, then period expiry, then active.
// A PAUSED budget keeps its status (spent and percent still update) and
// never alerts. An alert fires only on the transition into EXCEEDED, and a
// repeat crossing within 24h of the last alert is suppressed.
func EvaluateBudget(budget *models.Budget, spentAmount decimal.Decimal, now time.Time) (BudgetEvaluation, error) {
	if budget.LimitAmount.IsNegative() {
		return BudgetEvaluation{}, apperrors.WithMessage(apperrors.ErrInvalidState, "budget limit amount is negative")
	}
	if spentAmount.IsNegative() {
		return BudgetEvaluation{}, apperrors.WithMessage(apperrors.ErrInvalidState, "aggregated spent amount is negative")
	}

	eval := BudgetEvaluation{
		SpentAmount: spentAmount,
		PercentUsed: percentUsed(spentAmount, budget.LimitAmount),
	}

	switch {
	case spentAmount.GreaterThan(budget.LimitAmount):
		eval.Status = models.BudgetStatusExceeded
	case !budget.IsPeriodActive(now):
		eval.Status = models.BudgetStatusCompleted
	default:
		eval.Status = models.BudgetStatusActive
	}

	// PAUSED is user-set only: recalculation refreshes the amounts but
	// neither overrides the status nor alerts.
	if budget.Status == models.BudgetStatusPaused {
		eval.Status = models.BudgetStatusPaused
		return eval, nil
	}

	eval.SendAlert = shouldSendAlert(budget, eval.Status, now)
	return eval, nil
}

// percentUsed returns spent*100/limit rounded half-up to 2 decimals,
// defined as 0 when the limit is 0.
func percentUsed(spent, limit decimal.Decimal) decimal.Decimal {
	if limit.IsZero() {
		return decimal.Zero
	}
	return spent.Mul(decimal.NewFromInt(100)).DivRound(limit, 2)
}

// shouldSendAlert applies the one-shot-per-crossing + 24h-cooldown policy:
// alert only on the edge into EXCEEDED, and not if an alert already went out
// within the cooldown window (rapid ACTIVE/EXCEEDED flap).
func shouldSendAlert(budget *models.Budget, newStatus models.BudgetStatus, now time.Time) bool {
	if newStatus != models.BudgetStatusExceeded {
		return false
	}
	if budget.Status == models.BudgetStatusExceeded {
		return false
	}
	if budget.LastAlertSentAt != nil && now.Sub(*budget.LastAlertSentAt) < alertCooldown {
		return false
	}
	return true
}
