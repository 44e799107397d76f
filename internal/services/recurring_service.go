package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// recurringService manages recurring transaction templates and the daily
// generation sweep that materializes them into ledger entries.
type recurringService struct {
	db     *gorm.DB
	recalc BudgetRecalculator
	locks  *keyedMutex
	now    func() time.Time
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB, recalc BudgetRecalculator) RecurringServicer {
	return &recurringService{
		db:     db,
		recalc: recalc,
		locks:  newKeyedMutex(),
		now:    time.Now,
	}
}

// CreateRecurring creates a template in ACTIVE state with its first
// execution scheduled at the start date.
func (s *recurringService) CreateRecurring(
	userID, categoryID uint,
	title, description string,
	amount decimal.Decimal,
	transactionType models.TransactionType,
	frequency models.RecurrenceFrequency,
	startDate time.Time,
	endDate *time.Time,
) (*models.RecurringTransaction, error) {
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

	start := models.DateOnly(startDate)
	if endDate != nil {
		end := models.DateOnly(*endDate)
		if end.Before(start) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not be before start date")
		}
		endDate = &end
	}

	recurring := &models.RecurringTransaction{
		UserID:            userID,
		CategoryID:        categoryID,
		Title:             title,
		Description:       description,
		Amount:            amount,
		Type:              transactionType,
		Frequency:         frequency,
		StartDate:         start,
		EndDate:           endDate,
		NextExecutionDate: start,
		Status:            models.RecurringStatusActive,
	}

	if err := s.db.Create(recurring).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return recurring, nil
}

// GetUserRecurring returns a paginated list of the user's templates with an
// optional status filter.
func (s *recurringService) GetUserRecurring(userID uint, page pagination.PageRequest, status *models.RecurringStatus) (*pagination.PageResponse[models.RecurringTransaction], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringTransaction{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var templates []models.RecurringTransaction
	if err := base.Preload("Category").Scopes(pagination.Paginate(page)).
		Order("next_execution_date ASC").
		Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(templates, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetRecurringByID returns a template by ID if it belongs to the user.
func (s *recurringService) GetRecurringByID(userID, recurringID uint) (*models.RecurringTransaction, error) {
	var recurring models.RecurringTransaction
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", recurringID, userID).First(&recurring).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &recurring, nil
}

// UpdateRecurring updates a template's editable fields. Schedule state
// (nextExecutionDate, lastGeneratedDate) is owned by the sweep and cannot be
// edited directly.
func (s *recurringService) UpdateRecurring(userID, recurringID uint, title, description *string, amount *decimal.Decimal, endDate *time.Time) (*models.RecurringTransaction, error) {
	recurring, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return nil, err
	}

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
	}
	if endDate != nil {
		end := models.DateOnly(*endDate)
		if end.Before(models.DateOnly(recurring.StartDate)) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not be before start date")
		}
		updates["end_date"] = end
	}

	if len(updates) > 0 {
		if err := s.db.Model(recurring).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return recurring, nil
}

// PauseRecurring transitions a template to PAUSED. Paused templates are
// skipped by the sweep until resumed.
func (s *recurringService) PauseRecurring(userID, recurringID uint) (*models.RecurringTransaction, error) {
	recurring, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(recurring).Update("status", models.RecurringStatusPaused).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	recurring.Status = models.RecurringStatusPaused
	return recurring, nil
}

// ResumeRecurring transitions PAUSED back to ACTIVE. Any other status is a
// no-op: completed or cancelled templates stay terminal.
func (s *recurringService) ResumeRecurring(userID, recurringID uint) (*models.RecurringTransaction, error) {
	recurring, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return nil, err
	}

	if recurring.Status != models.RecurringStatusPaused {
		return recurring, nil
	}

	if err := s.db.Model(recurring).Update("status", models.RecurringStatusActive).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	recurring.Status = models.RecurringStatusActive
	return recurring, nil
}

// DeleteRecurring soft-deletes a template.
func (s *recurringService) DeleteRecurring(userID, recurringID uint) error {
	recurring, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(recurring).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ProcessRecurringTransactions is the daily generation sweep. It pre-filters
// ACTIVE templates whose next execution date has arrived, re-checks each
// under its lock (the same-day guard makes repeated runs idempotent), and
// materializes one transaction per due template. Per-template failures are
// logged and the sweep continues. Returns the number of transactions
// generated.
func (s *recurringService) ProcessRecurringTransactions() (int, error) {
	log := logger.Get()
	log.Info("Starting recurring transaction sweep")

	today := models.DateOnly(s.now())

	var due []models.RecurringTransaction
	if err := s.db.
		Where("status = ? AND next_execution_date <= ?", models.RecurringStatusActive, today).
		Find(&due).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	generated := 0
	for _, template := range due {
		created, err := s.generateFromTemplate(template.ID, today)
		if err != nil {
			log.Errorw("failed to generate from recurring template",
				"recurring_id", template.ID,
				"error", err,
			)
			continue
		}
		if created {
			generated++
		}
	}

	log.Infow("Completed recurring transaction sweep", "generated", generated, "due", len(due))
	return generated, nil
}

// generateFromTemplate performs one generation step for a template: create
// the ledger entry and advance the template in a single database
// transaction, so a crash can neither duplicate the next generation nor
// lose the ledger entry. Budget recalculation runs after commit.
func (s *recurringService) generateFromTemplate(templateID uint, today time.Time) (bool, error) {
	unlock := s.locks.Lock(templateLockKey(templateID))
	defer unlock()

	var generatedTxn *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var template models.RecurringTransaction
		if err := tx.First(&template, templateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrRecurringNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		decision := DecideSchedule(&template, today)
		if !decision.Generate {
			return nil
		}

		txn := &models.Transaction{
			UserID:           template.UserID,
			CategoryID:       template.CategoryID,
			Title:            template.Title,
			Description:      template.Description,
			Amount:           template.Amount,
			Type:             template.Type,
			TransactionDate:  today,
			PaymentMethod:    models.PaymentMethodAuto,
			SourceTemplateID: &template.ID,
		}
		if err := tx.Create(txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Model(&template).Updates(map[string]interface{}{
			"last_generated_date": today,
			"next_execution_date": decision.NextDate,
			"status":              decision.NextStatus,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		generatedTxn = txn
		return nil
	})
	if err != nil {
		return false, err
	}
	if generatedTxn == nil {
		return false, nil
	}

	logger.Get().Infow("generated transaction from recurring template",
		"recurring_id", templateID,
		"transaction_id", generatedTxn.ID,
		"amount", generatedTxn.Amount.String(),
		"date", today.Format("2006-01-02"),
	)

	// Generated expenses count toward budgets exactly like manual ones.
	s.recalc.RecalculateAffectedByTransaction(generatedTxn, nil)
	return true, nil
}
