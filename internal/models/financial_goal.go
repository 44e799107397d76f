package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus represents the lifecycle status of a financial goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "ACTIVE"
	GoalStatusCompleted GoalStatus = "COMPLETED"
	GoalStatusCancelled GoalStatus = "CANCELLED"
)

// FinancialGoal tracks saving progress toward a target amount by a deadline.
// CurrentAmount grows as income is recorded and is capped at TargetAmount;
// reaching the target completes the goal.
type FinancialGoal struct {
	Base
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Name          string          `gorm:"not null" json:"name"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"current_amount"`
	Deadline      time.Time       `gorm:"not null" json:"deadline"`
	Status        GoalStatus      `gorm:"not null;default:ACTIVE" json:"status"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// RemainingAmount returns how much is still needed to reach the target,
// never negative.
func (g *FinancialGoal) RemainingAmount() decimal.Decimal {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// ProgressPercent returns current/target as a percentage, rounded half-up to
// two decimal places. A zero target yields zero rather than a division error.
func (g *FinancialGoal) ProgressPercent() decimal.Decimal {
	if g.TargetAmount.IsZero() {
		return decimal.Zero
	}
	return g.CurrentAmount.Mul(decimal.NewFromInt(100)).DivRound(g.TargetAmount, 2)
}
