package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"moneta/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Day truncates a time to UTC midnight, matching how the services store dates.
func Day(t time.Time) time.Time {
	return models.DateOnly(t)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction of the given type dated today.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, categoryID uint, txType models.TransactionType, amount decimal.Decimal) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, userID, categoryID, txType, amount, time.Now())
}

// CreateTestTransactionOn creates a transaction on the given date.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, userID, categoryID uint, txType models.TransactionType, amount decimal.Decimal, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:          userID,
		CategoryID:      categoryID,
		Title:           fmt.Sprintf("Test Transaction %d", nextID()),
		Amount:          amount,
		Type:            txType,
		TransactionDate: Day(date),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates an active budget covering the current month for
// the given category (nil for an all-categories budget).
func CreateTestBudget(t *testing.T, db *gorm.DB, userID uint, categoryID *uint, limit decimal.Decimal) *models.Budget {
	t.Helper()

	today := Day(time.Now())
	budget := &models.Budget{
		UserID:           userID,
		CategoryID:       categoryID,
		Name:             fmt.Sprintf("Test Budget %d", nextID()),
		LimitAmount:      limit,
		SpentAmount:      decimal.Zero,
		StartDate:        today.AddDate(0, 0, -7),
		EndDate:          today.AddDate(0, 0, 21),
		Status:           models.BudgetStatusActive,
		ThresholdPercent: models.DefaultThresholdPercent,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestGoal creates an active goal with a deadline a month out.
func CreateTestGoal(t *testing.T, db *gorm.DB, userID uint, target decimal.Decimal) *models.FinancialGoal {
	t.Helper()

	goal := &models.FinancialGoal{
		UserID:        userID,
		Name:          fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount:  target,
		CurrentAmount: decimal.Zero,
		Deadline:      Day(time.Now()).AddDate(0, 1, 0),
		Status:        models.GoalStatusActive,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateTestRecurring creates an active recurring template due today.
func CreateTestRecurring(t *testing.T, db *gorm.DB, userID, categoryID uint, frequency models.RecurrenceFrequency, amount decimal.Decimal) *models.RecurringTransaction {
	t.Helper()

	today := Day(time.Now())
	recurring := &models.RecurringTransaction{
		UserID:            userID,
		CategoryID:        categoryID,
		Title:             fmt.Sprintf("Test Recurring %d", nextID()),
		Amount:            amount,
		Type:              models.TransactionTypeExpense,
		Frequency:         frequency,
		StartDate:         today,
		NextExecutionDate: today,
		Status:            models.RecurringStatusActive,
	}
	if err := db.Create(recurring).Error; err != nil {
		t.Fatalf("failed to create test recurring template: %v", err)
	}
	return recurring
}
