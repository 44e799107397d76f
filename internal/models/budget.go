package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus represents the lifecycle status of a budget.
type BudgetStatus string

const (
	BudgetStatusActive    BudgetStatus = "ACTIVE"
	BudgetStatusExceeded  BudgetStatus = "EXCEEDED"
	BudgetStatusCompleted BudgetStatus = "COMPLETED"
	BudgetStatusPaused    BudgetStatus = "PAUSED"
)

// DefaultThresholdPercent is the early-warning threshold applied when the
// caller does not specify one.
const DefaultThresholdPercent = 80

// Budget tracks spending against a limit for one user over an inclusive
// [StartDate, EndDate] window, optionally scoped to a single category
// (nil CategoryID means all categories). SpentAmount is derived: it is
// only ever written by recalculation, never patched by callers.
type Budget struct {
	Base
	UserID           uint            `gorm:"not null;index" json:"user_id"`
	CategoryID       *uint           `gorm:"index" json:"category_id,omitempty"`
	Name             string          `gorm:"not null" json:"name"`
	Description      string          `json:"description"`
	LimitAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"limit_amount"`
	SpentAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"spent_amount"`
	StartDate        time.Time       `gorm:"not null" json:"start_date"`
	EndDate          time.Time       `gorm:"not null" json:"end_date"`
	Status           BudgetStatus    `gorm:"not null;default:ACTIVE" json:"status"`
	ThresholdPercent int             `gorm:"default:80" json:"threshold_percent"`
	LastAlertSentAt  *time.Time      `json:"last_alert_sent_at,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// PercentUsed returns spent/limit as a percentage, rounded half-up to two
// decimal places. A zero limit yields zero rather than a division error.
func (b *Budget) PercentUsed() decimal.Decimal {
	if b.LimitAmount.IsZero() {
		return decimal.Zero
	}
	return b.SpentAmount.Mul(decimal.NewFromInt(100)).DivRound(b.LimitAmount, 2)
}

// IsPeriodActive reports whether the given day falls inside the budget's
// inclusive [StartDate, EndDate] window.
func (b *Budget) IsPeriodActive(today time.Time) bool {
	day := DateOnly(today)
	return !day.Before(DateOnly(b.StartDate)) && !day.After(DateOnly(b.EndDate))
}
