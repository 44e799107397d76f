package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurrenceFrequency is how often a recurring template generates a transaction.
type RecurrenceFrequency string

const (
	FrequencyDaily     RecurrenceFrequency = "DAILY"
	FrequencyWeekly    RecurrenceFrequency = "WEEKLY"
	FrequencyBiWeekly  RecurrenceFrequency = "BI_WEEKLY"
	FrequencyMonthly   RecurrenceFrequency = "MONTHLY"
	FrequencyQuarterly RecurrenceFrequency = "QUARTERLY"
	FrequencyYearly    RecurrenceFrequency = "YEARLY"
)

// RecurringStatus represents the lifecycle status of a recurring template.
type RecurringStatus string

const (
	RecurringStatusActive    RecurringStatus = "ACTIVE"
	RecurringStatusPaused    RecurringStatus = "PAUSED"
	RecurringStatusCompleted RecurringStatus = "COMPLETED"
	RecurringStatusCancelled RecurringStatus = "CANCELLED"
)

// RecurringTransaction is a template that the generation sweep materializes
// into concrete ledger entries. NextExecutionDate starts at StartDate and
// strictly advances after each generation; LastGeneratedDate, once set,
// never moves backwards.
type RecurringTransaction struct {
	Base
	UserID            uint                `gorm:"not null;index" json:"user_id"`
	CategoryID        uint                `gorm:"not null;index" json:"category_id"`
	Title             string              `gorm:"not null" json:"title"`
	Description       string              `json:"description"`
	Amount            decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"amount"`
	Type              TransactionType     `gorm:"not null" json:"type"`
	Frequency         RecurrenceFrequency `gorm:"not null" json:"frequency"`
	StartDate         time.Time           `gorm:"not null" json:"start_date"`
	EndDate           *time.Time          `json:"end_date,omitempty"`
	LastGeneratedDate *time.Time          `json:"last_generated_date,omitempty"`
	NextExecutionDate time.Time           `gorm:"not null;index" json:"next_execution_date"`
	Status            RecurringStatus     `gorm:"not null;default:ACTIVE" json:"status"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
