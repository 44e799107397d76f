package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// PaymentMethodAuto marks transactions materialized from a recurring
// template, distinguishing them from manually entered ones.
const PaymentMethodAuto = "AUTO"

// Transaction represents a financial transaction in the ledger.
// Amounts are fixed-point decimals; only EXPENSE transactions
// count toward budget spending.
type Transaction struct {
	Base
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	CategoryID      uint            `gorm:"not null;index" json:"category_id"`
	Title           string          `gorm:"not null" json:"title"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Type            TransactionType `gorm:"not null" json:"type"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	PaymentMethod   string          `json:"payment_method"`

	// Set when the transaction was generated from a recurring template.
	SourceTemplateID *uint `gorm:"index" json:"source_template_id,omitempty"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
