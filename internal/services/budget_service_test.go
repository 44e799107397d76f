package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/testutil"
)

func TestCreateBudget(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, newTestRecalculator(db, &recordingNotifier{}))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		start := testutil.Day(time.Now())
		budget, err := svc.CreateBudget(user.ID, &cat.ID, "Groceries", "", decimal.NewFromInt(500), start, start.AddDate(0, 1, 0), 0)
		testutil.AssertNoError(t, err)

		if budget.ID == 0 {
			t.Fatal("expected non-zero budget ID")
		}
		if budget.Status != models.BudgetStatusActive {
			t.Errorf("expected ACTIVE, got %s", budget.Status)
		}
		if budget.ThresholdPercent != models.DefaultThresholdPercent {
			t.Errorf("expected default threshold, got %d", budget.ThresholdPercent)
		}
	})

	t.Run("picks_up_existing_spending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, newTestRecalculator(db, &recordingNotifier{}))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, decimal.NewFromInt(80))

		start := testutil.Day(time.Now()).AddDate(0, 0, -7)
		budget, err := svc.CreateBudget(user.ID, &cat.ID, "Groceries", "", decimal.NewFromInt(500), start, start.AddDate(0, 1, 0), 0)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimalEqual(t, decimal.NewFromInt(80), budget.SpentAmount)
	})

	t.Run("invalid_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, newTestRecalculator(db, &recordingNotifier{}))
		user := testutil.CreateTestUser(t, db)

		start := testutil.Day(time.Now())
		_, err := svc.CreateBudget(user.ID, nil, "Bad", "", decimal.NewFromInt(500), start, start.AddDate(0, 0, -1), 0)
		testutil.AssertAppError(t, err, "INVALID_PERIOD")
	})

	t.Run("non_positive_limit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, newTestRecalculator(db, &recordingNotifier{}))
		user := testutil.CreateTestUser(t, db)

		start := testutil.Day(time.Now())
		_, err := svc.CreateBudget(user.ID, nil, "Bad", "", decimal.Zero, start, start.AddDate(0, 1, 0), 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("wrong_user_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, newTestRecalculator(db, &recordingNotifier{}))
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user2.ID, models.CategoryTypeExpense)

		start := testutil.Day(time.Now())
		_, err := svc.CreateBudget(user1.ID, &cat.ID, "Not Mine", "", decimal.NewFromInt(500), start, start.AddDate(0, 1, 0), 0)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestUpdateBudget(t *testing.T) {
	t.Run("limit_change_forces_recalculation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &recordingNotifier{}
		svc := NewBudgetService(db, newTestRecalculator(db, notifier))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, &cat.ID, decimal.NewFromInt(100))
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, decimal.NewFromInt(60))

		// Shrinking the limit below current spending flips the budget over.
		newLimit := decimal.NewFromInt(50)
		got, err := svc.UpdateBudget(user.ID, budget.ID, nil, nil, nil, false, &newLimit, nil, nil, nil)
		testutil.AssertNoError(t, err)

		if got.Status != models.BudgetStatusExceeded {
			t.Errorf("expected EXCEEDED after limit shrink, got %s", got.Status)
		}
		testutil.AssertDecimalEqual(t, decimal.NewFromInt(60), got.SpentAmount)
		if len(notifier.alerts) != 1 {
			t.Errorf("expected an alert, got %d", len(notifier.alerts))
		}
	})

	t.Run("name_only_skips_recalculation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, newTestRecalculator(db, &recordingNotifier{}))
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, decimal.NewFromInt(100))

		name := "Renamed"
		got, err := svc.UpdateBudget(user.ID, budget.ID, &name, nil, nil, false, nil, nil, nil, nil)
		testutil.AssertNoError(t, err)
		if got.Name != "Renamed" {
			t.Errorf("expected renamed budget, got %s", got.Name)
		}
	})

	t.Run("rejects_inverted_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, newTestRecalculator(db, &recordingNotifier{}))
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, decimal.NewFromInt(100))

		badEnd := testutil.Day(time.Now()).AddDate(-1, 0, 0)
		_, err := svc.UpdateBudget(user.ID, budget.ID, nil, nil, nil, false, nil, nil, &badEnd, nil)
		testutil.AssertAppError(t, err, "INVALID_PERIOD")
	})
}

func TestPauseResumeBudget(t *testing.T) {
	t.Run("pause_freezes_then_resume_reevaluates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, newTestRecalculator(db, &recordingNotifier{}))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		budget := testutil.CreateTestBudget(t, db, user.ID, &cat.ID, decimal.NewFromInt(100))

		paused, err := svc.PauseBudget(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if paused.Status != models.BudgetStatusPaused {
			t.Errorf("expected PAUSED, got %s", paused.Status)
		}

		// Spending recorded while paused is picked up on resume.
		testutil.CreateTestTransaction(t, db, user.ID, cat.ID, models.TransactionTypeExpense, decimal.NewFromInt(150))

		resumed, err := svc.ResumeBudget(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if resumed.Status != models.BudgetStatusExceeded {
			t.Errorf("expected EXCEEDED after resume, got %s", resumed.Status)
		}
		testutil.AssertDecimalEqual(t, decimal.NewFromInt(150), resumed.SpentAmount)
	})

	t.Run("resume_non_paused_is_noop", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, newTestRecalculator(db, &recordingNotifier{}))
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, nil, decimal.NewFromInt(100))

		got, err := svc.ResumeBudget(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if got.Status != models.BudgetStatusActive {
			t.Errorf("expected ACTIVE unchanged, got %s", got.Status)
		}
	})
}

func TestGetExceededBudgets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db, newTestRecalculator(db, &recordingNotifier{}))
	user := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	testutil.CreateTestBudget(t, db, user.ID, &cat.ID, decimal.NewFromInt(100))
	exceeded := testutil.CreateTestBudget(t, db, user.ID, &cat.ID, decimal.NewFromInt(10))
	testutil.AssertNoError(t, db.Model(exceeded).Update("status", models.BudgetStatusExceeded).Error)

	got, err := svc.GetExceededBudgets(user.ID)
	testutil.AssertNoError(t, err)
	if len(got) != 1 || got[0].ID != exceeded.ID {
		t.Errorf("expected only the exceeded budget, got %d results", len(got))
	}
}

func TestGetUserBudgets(t *testing.T) {
	t.Run("status_filter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, newTestRecalculator(db, &recordingNotifier{}))
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestBudget(t, db, user.ID, nil, decimal.NewFromInt(100))
		paused := testutil.CreateTestBudget(t, db, user.ID, nil, decimal.NewFromInt(100))
		testutil.AssertNoError(t, db.Model(paused).Update("status", models.BudgetStatusPaused).Error)

		page, err := svc.GetUserBudgets(user.ID, pagination.PageRequest{}, []models.BudgetStatus{models.BudgetStatusPaused})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 paused budget, got %d", page.TotalItems)
		}
	})
}

func TestRecalculateBudgetOwnership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db, newTestRecalculator(db, &recordingNotifier{}))
	user1 := testutil.CreateTestUser(t, db)
	user2 := testutil.CreateTestUser(t, db)
	budget := testutil.CreateTestBudget(t, db, user1.ID, nil, decimal.NewFromInt(100))

	_, err := svc.RecalculateBudget(user2.ID, budget.ID)
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
}
