package services

import (
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
	"moneta/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID uint, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error)
	GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID uint) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name, description, icon, color string) (*models.Category, error)
	DeleteCategory(userID, categoryID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *uint
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
}

// TransactionServicer defines the contract for ledger mutations and queries.
// Every mutation re-triggers recalculation of the budgets the transaction
// falls in; updates pass both the pre-edit and post-edit state so a moved
// transaction refreshes the budget it left as well as the one it entered.
type TransactionServicer interface {
	CreateTransaction(userID, categoryID uint, title, description string, amount decimal.Decimal, transactionType models.TransactionType, date time.Time, paymentMethod string) (*models.Transaction, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID uint, title, description *string, amount *decimal.Decimal, date *time.Time, categoryID *uint) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
}

// BudgetServicer defines the contract for budget CRUD. Creating a budget or
// editing its limit/period/category forces a recalculation.
type BudgetServicer interface {
	CreateBudget(userID uint, categoryID *uint, name, description string, limitAmount decimal.Decimal, startDate, endDate time.Time, thresholdPercent int) (*models.Budget, error)
	GetUserBudgets(userID uint, page pagination.PageRequest, statuses []models.BudgetStatus) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID uint) (*models.Budget, error)
	GetExceededBudgets(userID uint) ([]models.Budget, error)
	UpdateBudget(userID, budgetID uint, name, description *string, categoryID *uint, clearCategory bool, limitAmount *decimal.Decimal, startDate, endDate *time.Time, thresholdPercent *int) (*models.Budget, error)
	PauseBudget(userID, budgetID uint) (*models.Budget, error)
	ResumeBudget(userID, budgetID uint) (*models.Budget, error)
	DeleteBudget(userID, budgetID uint) error
	RecalculateBudget(userID, budgetID uint) (*models.Budget, error)
}

// BudgetRecalculator drives the budget status engine. RecalculateOne is the
// on-demand single-budget path; RecalculateAllActive is the daily bulk sweep.
type BudgetRecalculator interface {
	RecalculateOne(budgetID uint) (*models.Budget, error)
	RecalculateAffectedByTransaction(txn, previous *models.Transaction)
	RecalculateAllActive() (int, error)
	SumExpenses(userID uint, categoryID *uint, startDate, endDate time.Time) (decimal.Decimal, error)
}

// RecurringServicer defines the contract for recurring transaction templates
// and the daily generation sweep.
type RecurringServicer interface {
	CreateRecurring(userID, categoryID uint, title, description string, amount decimal.Decimal, transactionType models.TransactionType, frequency models.RecurrenceFrequency, startDate time.Time, endDate *time.Time) (*models.RecurringTransaction, error)
	GetUserRecurring(userID uint, page pagination.PageRequest, status *models.RecurringStatus) (*pagination.PageResponse[models.RecurringTransaction], error)
	GetRecurringByID(userID, recurringID uint) (*models.RecurringTransaction, error)
	UpdateRecurring(userID, recurringID uint, title, description *string, amount *decimal.Decimal, endDate *time.Time) (*models.RecurringTransaction, error)
	PauseRecurring(userID, recurringID uint) (*models.RecurringTransaction, error)
	ResumeRecurring(userID, recurringID uint) (*models.RecurringTransaction, error)
	DeleteRecurring(userID, recurringID uint) error
	ProcessRecurringTransactions() (int, error)
}

// GoalProgressor receives recorded income and applies it to the user's
// active goals. Progress application is best-effort: it runs after the
// ledger write has committed and never fails it.
type GoalProgressor interface {
	ApplyIncome(userID uint, amount decimal.Decimal)
}

// GoalServicer defines the contract for financial goals. Recorded income
// feeds ApplyIncome, which grows active goals toward their target, caps at
// it, and completes them when it is reached.
type GoalServicer interface {
	GoalProgressor
	CreateGoal(userID uint, name string, targetAmount decimal.Decimal, deadline time.Time) (*models.FinancialGoal, error)
	GetUserGoals(userID uint, page pagination.PageRequest, status *models.GoalStatus) (*pagination.PageResponse[models.FinancialGoal], error)
	GetGoalByID(userID, goalID uint) (*models.FinancialGoal, error)
	UpdateGoal(userID, goalID uint, name *string, targetAmount *decimal.Decimal, deadline *time.Time) (*models.FinancialGoal, error)
	CompleteGoal(userID, goalID uint) (*models.FinancialGoal, error)
	CancelGoal(userID, goalID uint) (*models.FinancialGoal, error)
	DeleteGoal(userID, goalID uint) error
}

// DashboardServicer aggregates a point-in-time snapshot of a user's
// finances.
type DashboardServicer interface {
	GetSummary(userID uint) (*DashboardSummary, error)
}

// Notifier is the notification gateway contract: best-effort alert delivery.
// Implementations must never block on or propagate delivery failures to the
// recalculation path; the orchestrator logs and continues.
type Notifier interface {
	SendAlert(userID uint, message string, kind models.NotificationKind) error
}

// NotificationServicer defines the contract for in-app notifications.
type NotificationServicer interface {
	Notifier
	GetUserNotifications(userID uint, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error)
	GetUnreadCount(userID uint) (int64, error)
	MarkAsRead(userID, notificationID uint) error
	MarkAllAsRead(userID uint) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
