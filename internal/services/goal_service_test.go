package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/testutil"
)

func TestCreateGoal(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, &recordingNotifier{})
		user := testutil.CreateTestUser(t, db)

		deadline := time.Now().AddDate(0, 6, 0)
		goal, err := svc.CreateGoal(user.ID, "Emergency fund", decimal.NewFromInt(5000), deadline)
		testutil.AssertNoError(t, err)

		if goal.ID == 0 {
			t.Fatal("expected non-zero goal ID")
		}
		if goal.Status != models.GoalStatusActive {
			t.Errorf("expected ACTIVE, got %s", goal.Status)
		}
		testutil.AssertDecimalEqual(t, decimal.Zero, goal.CurrentAmount)
	})

	t.Run("non_positive_target", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, &recordingNotifier{})
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateGoal(user.ID, "Bad", decimal.Zero, time.Now())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestApplyIncome(t *testing.T) {
	t.Run("grows_active_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, &recordingNotifier{})
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, decimal.NewFromInt(1000))

		svc.ApplyIncome(user.ID, decimal.NewFromInt(300))

		var got models.FinancialGoal
		testutil.AssertNoError(t, db.First(&got, goal.ID).Error)
		testutil.AssertDecimalEqual(t, decimal.NewFromInt(300), got.CurrentAmount)
		if got.Status != models.GoalStatusActive {
			t.Errorf("expected ACTIVE, got %s", got.Status)
		}
	})

	t.Run("caps_at_target_and_completes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &recordingNotifier{}
		svc := NewGoalService(db, notifier)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, decimal.NewFromInt(500))

		svc.ApplyIncome(user.ID, decimal.NewFromInt(800))

		var got models.FinancialGoal
		testutil.AssertNoError(t, db.First(&got, goal.ID).Error)
		testutil.AssertDecimalEqual(t, decimal.NewFromInt(500), got.CurrentAmount)
		if got.Status != models.GoalStatusCompleted {
			t.Errorf("expected COMPLETED, got %s", got.Status)
		}
		if got.CompletedAt == nil {
			t.Error("expected completed timestamp set")
		}
		if len(notifier.alerts) != 1 {
			t.Errorf("expected one goal completed notification, got %d", len(notifier.alerts))
		}
	})

	t.Run("skips_cancelled_and_completed_goals", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, &recordingNotifier{})
		user := testutil.CreateTestUser(t, db)
		cancelled := testutil.CreateTestGoal(t, db, user.ID, decimal.NewFromInt(1000))
		testutil.AssertNoError(t, db.Model(cancelled).Update("status", models.GoalStatusCancelled).Error)

		svc.ApplyIncome(user.ID, decimal.NewFromInt(100))

		var got models.FinancialGoal
		testutil.AssertNoError(t, db.First(&got, cancelled.ID).Error)
		testutil.AssertDecimalEqual(t, decimal.Zero, got.CurrentAmount)
	})

	t.Run("ignores_other_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, &recordingNotifier{})
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user2.ID, decimal.NewFromInt(1000))

		svc.ApplyIncome(user1.ID, decimal.NewFromInt(100))

		var got models.FinancialGoal
		testutil.AssertNoError(t, db.First(&got, goal.ID).Error)
		testutil.AssertDecimalEqual(t, decimal.Zero, got.CurrentAmount)
	})

	t.Run("income_transaction_feeds_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)
		goal := testutil.CreateTestGoal(t, db, user.ID, decimal.NewFromInt(1000))

		_, err := svc.CreateTransaction(user.ID, cat.ID, "Salary", "", decimal.NewFromInt(250), models.TransactionTypeIncome, time.Now(), "")
		testutil.AssertNoError(t, err)

		var got models.FinancialGoal
		testutil.AssertNoError(t, db.First(&got, goal.ID).Error)
		testutil.AssertDecimalEqual(t, decimal.NewFromInt(250), got.CurrentAmount)
	})

	t.Run("expense_transaction_does_not_feed_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		goal := testutil.CreateTestGoal(t, db, user.ID, decimal.NewFromInt(1000))

		_, err := svc.CreateTransaction(user.ID, cat.ID, "Groceries", "", decimal.NewFromInt(250), models.TransactionTypeExpense, time.Now(), "")
		testutil.AssertNoError(t, err)

		var got models.FinancialGoal
		testutil.AssertNoError(t, db.First(&got, goal.ID).Error)
		testutil.AssertDecimalEqual(t, decimal.Zero, got.CurrentAmount)
	})
}

func TestCompleteAndCancelGoal(t *testing.T) {
	t.Run("manual_complete_sends_notification", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		notifier := &recordingNotifier{}
		svc := NewGoalService(db, notifier)
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, decimal.NewFromInt(1000))

		completed, err := svc.CompleteGoal(user.ID, goal.ID)
		testutil.AssertNoError(t, err)
		if completed.Status != models.GoalStatusCompleted {
			t.Errorf("expected COMPLETED, got %s", completed.Status)
		}
		if len(notifier.alerts) != 1 {
			t.Fatalf("expected one notification, got %d", len(notifier.alerts))
		}

		// Completing again is a no-op and must not re-notify.
		_, err = svc.CompleteGoal(user.ID, goal.ID)
		testutil.AssertNoError(t, err)
		if len(notifier.alerts) != 1 {
			t.Errorf("expected no second notification, got %d", len(notifier.alerts))
		}
	})

	t.Run("cancel_leaves_completed_terminal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, &recordingNotifier{})
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, decimal.NewFromInt(1000))

		_, err := svc.CompleteGoal(user.ID, goal.ID)
		testutil.AssertNoError(t, err)

		got, err := svc.CancelGoal(user.ID, goal.ID)
		testutil.AssertNoError(t, err)
		if got.Status != models.GoalStatusCompleted {
			t.Errorf("expected COMPLETED untouched, got %s", got.Status)
		}
	})

	t.Run("cancel_active_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, &recordingNotifier{})
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, decimal.NewFromInt(1000))

		got, err := svc.CancelGoal(user.ID, goal.ID)
		testutil.AssertNoError(t, err)
		if got.Status != models.GoalStatusCancelled {
			t.Errorf("expected CANCELLED, got %s", got.Status)
		}
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, &recordingNotifier{})
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user1.ID, decimal.NewFromInt(1000))

		_, err := svc.CompleteGoal(user2.ID, goal.ID)
		testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")
	})
}

func TestGetUserGoals(t *testing.T) {
	t.Run("filters_by_status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, &recordingNotifier{})
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestGoal(t, db, user.ID, decimal.NewFromInt(100))
		done := testutil.CreateTestGoal(t, db, user.ID, decimal.NewFromInt(200))
		_, err := svc.CompleteGoal(user.ID, done.ID)
		testutil.AssertNoError(t, err)

		status := models.GoalStatusCompleted
		page, err := svc.GetUserGoals(user.ID, pagination.PageRequest{}, &status)
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 completed goal, got %d", page.TotalItems)
		}
	})
}
