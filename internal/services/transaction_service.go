package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

type transactionService struct {
	db     *gorm.DB
	recalc BudgetRecalculator
	goals  GoalProgressor
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, recalc BudgetRecalculator, goals GoalProgressor) TransactionServicer {
	return &transactionService{db: db, recalc: recalc, goals: goals}
}

// CreateTransaction records a ledger entry and refreshes any budgets it
// falls in.
func (s *transactionService) CreateTransaction(
	userID, categoryID uint,
	title, description string,
	amount decimal.Decimal,
	transactionType models.TransactionType,
	date time.Time,
	paymentMethod string,
) (*models.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	txn := &models.Transaction{
		UserID:          userID,
		CategoryID:      categoryID,
		Title:           title,
		Description:     description,
		Amount:          amount,
		Type:            transactionType,
		TransactionDate: models.DateOnly(date),
		PaymentMethod:   paymentMethod,
	}

	if err := s.db.Create(txn).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.recalc.RecalculateAffectedByTransaction(txn, nil)
	if txn.Type == models.TransactionTypeIncome {
		s.goals.ApplyIncome(userID, amount)
	}
	return txn, nil
}

// GetUserTransactions returns a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.FromDate != nil {
		base = base.Where("transaction_date >= ?", models.DateOnly(*filter.FromDate))
	}
	if filter.ToDate != nil {
		base = base.Where("transaction_date <= ?", models.DateOnly(*filter.ToDate))
	}
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.MinAmount != nil {
		base = base.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		base = base.Where("amount <= ?", *filter.MaxAmount)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").Scopes(pagination.Paginate(page)).
		Order("transaction_date DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTransactionByID returns a transaction by ID if it belongs to the user.
func (s *transactionService) GetTransactionByID(userID, transactionID uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", transactionID, userID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &txn, nil
}

// UpdateTransaction edits a transaction and refreshes the budgets matching
// both its previous and its new state, so moving a transaction across a
// period or category boundary updates both sides.
func (s *transactionService) UpdateTransaction(userID, transactionID uint, title, description *string, amount *decimal.Decimal, date *time.Time, categoryID *uint) (*models.Transaction, error) {
	txn, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	previous := *txn

	updates := make(map[string]interface{})
	if title != nil {
		updates["title"] = *title
	}
	if description != nil {
		updates["description"] = *description
	}
	if amount != nil {
		if amount.LessThanOrEqual(decimal.Zero) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *amount
		txn.Amount = *amount
	}
	if date != nil {
		day := models.DateOnly(*date)
		updates["transaction_date"] = day
		txn.TransactionDate = day
	}
	if categoryID != nil {
		var category models.Category
		if err := s.db.Where("id = ? AND user_id = ?", *categoryID, userID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates["category_id"] = *categoryID
		txn.CategoryID = *categoryID
		txn.Category = category
	}

	if len(updates) > 0 {
		if err := s.db.Model(txn).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		s.recalc.RecalculateAffectedByTransaction(txn, &previous)
	}
	return txn, nil
}

// DeleteTransaction soft-deletes a transaction and refreshes the budgets it
// used to count toward.
func (s *transactionService) DeleteTransaction(userID, transactionID uint) error {
	txn, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(txn).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.recalc.RecalculateAffectedByTransaction(nil, txn)
	return nil
}
