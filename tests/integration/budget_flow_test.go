package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

// budgetWindow returns an RFC3339 start/end pair spanning today.
func budgetWindow() (string, string) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -7)
	end := now.AddDate(0, 0, 21)
	return start.Format(time.RFC3339), end.Format(time.RFC3339)
}

func TestBudgetFlow_SpendingTracked(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "budget@test.com", "password123")
	catID := app.createCategory(t, token, "Groceries")

	// Step 1: Create a budget of 200 for the category
	start, end := budgetWindow()
	rec := app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%.0f,"name":"Grocery Budget","limit_amount":"200","start_date":%q,"end_date":%q}`,
			catID, start, end), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating budget, got %d: %s", rec.Code, rec.Body.String())
	}
	budget := parseJSON(t, rec)["budget"].(map[string]interface{})
	budgetID := budget["id"].(float64)
	if budget["status"] != "ACTIVE" {
		t.Errorf("expected ACTIVE status on creation, got %v", budget["status"])
	}
	if budget["spent_amount"] != "0" {
		t.Errorf("expected 0 spent before transactions, got %v", budget["spent_amount"])
	}

	// Step 2: Add expense transactions in the window for this category
	now := time.Now().UTC().Format(time.RFC3339)
	for _, amount := range []string{"80", "50"} {
		rec = app.request("POST", "/api/v1/transactions",
			fmt.Sprintf(`{"category_id":%.0f,"title":"Groceries","type":"EXPENSE","amount":%q,"date":%q}`,
				catID, amount, now), token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 creating transaction, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	// Step 3: Budget reflects the spending
	rec = app.request("GET", fmt.Sprintf("/api/v1/budgets/%.0f", budgetID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	budget = result["budget"].(map[string]interface{})
	if budget["spent_amount"] != "130" {
		t.Errorf("expected 130 spent (80+50), got %v", budget["spent_amount"])
	}
	if budget["status"] != "ACTIVE" {
		t.Errorf("expected ACTIVE under limit, got %v", budget["status"])
	}
	if result["percent_used"] != "65" {
		t.Errorf("expected 65 percent used, got %v", result["percent_used"])
	}
}

func TestBudgetFlow_ExceededAndAlerted(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "overbudget@test.com", "password123")
	catID := app.createCategory(t, token, "Dining")

	start, end := budgetWindow()
	rec := app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%.0f,"name":"Dining Budget","limit_amount":"50","start_date":%q,"end_date":%q}`,
			catID, start, end), token)
	budgetID := parseJSON(t, rec)["budget"].(map[string]interface{})["id"].(float64)

	// Spend 75 against the 50 limit
	now := time.Now().UTC().Format(time.RFC3339)
	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"category_id":%.0f,"title":"Dinner","type":"EXPENSE","amount":"75","date":%q}`, catID, now), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Budget is EXCEEDED
	rec = app.request("GET", fmt.Sprintf("/api/v1/budgets/%.0f", budgetID), "", token)
	result := parseJSON(t, rec)
	budget := result["budget"].(map[string]interface{})
	if budget["status"] != "EXCEEDED" {
		t.Errorf("expected EXCEEDED, got %v", budget["status"])
	}
	if result["percent_used"] != "150" {
		t.Errorf("expected 150 percent used, got %v", result["percent_used"])
	}

	// It shows up in the exceeded listing
	rec = app.request("GET", "/api/v1/budgets/exceeded", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	exceeded := parseJSON(t, rec)["budgets"].([]interface{})
	if len(exceeded) != 1 {
		t.Fatalf("expected 1 exceeded budget, got %d", len(exceeded))
	}

	// Crossing the limit produced exactly one alert notification
	rec = app.request("GET", "/api/v1/notifications/unread-count", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if n := parseJSON(t, rec)["unread"].(float64); n != 1 {
		t.Errorf("expected 1 unread alert, got %.0f", n)
	}

	// A second expense while already exceeded does not re-alert
	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"category_id":%.0f,"title":"Dessert","type":"EXPENSE","amount":"10","date":%q}`, catID, now), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", "/api/v1/notifications/unread-count", "", token)
	if n := parseJSON(t, rec)["unread"].(float64); n != 1 {
		t.Errorf("expected still 1 unread alert, got %.0f", n)
	}
}

func TestBudgetFlow_IncomeIgnored(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "budgetincome@test.com", "password123")

	// Income needs an INCOME category; the budget watches an expense category.
	rec := app.request("POST", "/api/v1/categories", `{"name":"Salary","type":"INCOME"}`, token)
	incomeCatID := parseJSON(t, rec)["category"].(map[string]interface{})["id"].(float64)

	start, end := budgetWindow()
	rec = app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"name":"Everything","limit_amount":"100","start_date":%q,"end_date":%q}`, start, end), token)
	budgetID := parseJSON(t, rec)["budget"].(map[string]interface{})["id"].(float64)

	now := time.Now().UTC().Format(time.RFC3339)
	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"category_id":%.0f,"title":"Paycheck","type":"INCOME","amount":"500","date":%q}`, incomeCatID, now), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", fmt.Sprintf("/api/v1/budgets/%.0f", budgetID), "", token)
	budget := parseJSON(t, rec)["budget"].(map[string]interface{})
	if budget["spent_amount"] != "0" {
		t.Errorf("expected 0 spent (income ignored), got %v", budget["spent_amount"])
	}
}

func TestBudgetFlow_PauseAndResume(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "pausebudget@test.com", "password123")
	catID := app.createCategory(t, token, "Transport")

	start, end := budgetWindow()
	rec := app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%.0f,"name":"Transport Budget","limit_amount":"40","start_date":%q,"end_date":%q}`,
			catID, start, end), token)
	budgetID := parseJSON(t, rec)["budget"].(map[string]interface{})["id"].(float64)

	// Pause
	rec = app.request("POST", fmt.Sprintf("/api/v1/budgets/%.0f/pause", budgetID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 pausing, got %d: %s", rec.Code, rec.Body.String())
	}

	// Blow through the limit while paused: the paused budget is left alone
	now := time.Now().UTC().Format(time.RFC3339)
	app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"category_id":%.0f,"title":"Taxi","type":"EXPENSE","amount":"90","date":%q}`, catID, now), token)

	rec = app.request("GET", fmt.Sprintf("/api/v1/budgets/%.0f", budgetID), "", token)
	budget := parseJSON(t, rec)["budget"].(map[string]interface{})
	if budget["status"] != "PAUSED" {
		t.Errorf("expected PAUSED, got %v", budget["status"])
	}

	// No alert while paused
	rec = app.request("GET", "/api/v1/notifications/unread-count", "", token)
	if n := parseJSON(t, rec)["unread"].(float64); n != 0 {
		t.Errorf("expected no alerts while paused, got %.0f", n)
	}

	// Resume catches up: spending is re-aggregated, status becomes EXCEEDED,
	// and the alert fires
	rec = app.request("POST", fmt.Sprintf("/api/v1/budgets/%.0f/resume", budgetID), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 resuming, got %d: %s", rec.Code, rec.Body.String())
	}
	budget = parseJSON(t, rec)["budget"].(map[string]interface{})
	if budget["status"] != "EXCEEDED" {
		t.Errorf("expected EXCEEDED after resume, got %v", budget["status"])
	}
	if budget["spent_amount"] != "90" {
		t.Errorf("expected 90 spent after resume, got %v", budget["spent_amount"])
	}
	rec = app.request("GET", "/api/v1/notifications/unread-count", "", token)
	if n := parseJSON(t, rec)["unread"].(float64); n != 1 {
		t.Errorf("expected 1 alert after resume, got %.0f", n)
	}
}

func TestBudgetFlow_CRUDOperations(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "budgetcrud@test.com", "password123")
	catID := app.createCategory(t, token, "Utilities")

	start, end := budgetWindow()
	rec := app.request("POST", "/api/v1/budgets",
		fmt.Sprintf(`{"category_id":%.0f,"name":"Utility Budget","limit_amount":"150","start_date":%q,"end_date":%q}`,
			catID, start, end), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	budgetID := parseJSON(t, rec)["budget"].(map[string]interface{})["id"].(float64)

	// Update name and limit
	rec = app.request("PUT", fmt.Sprintf("/api/v1/budgets/%.0f", budgetID),
		`{"name":"Updated Utilities","limit_amount":"200"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := parseJSON(t, rec)["budget"].(map[string]interface{})
	if updated["name"] != "Updated Utilities" {
		t.Errorf("expected name 'Updated Utilities', got %v", updated["name"])
	}
	if updated["limit_amount"] != "200" {
		t.Errorf("expected limit 200, got %v", updated["limit_amount"])
	}

	// List budgets
	rec = app.request("GET", "/api/v1/budgets", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if n := parseJSON(t, rec)["total_items"].(float64); n != 1 {
		t.Errorf("expected 1 budget in list, got %.0f", n)
	}

	// Delete budget
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/budgets/%.0f", budgetID), "", token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	// Verify deleted
	rec = app.request("GET", fmt.Sprintf("/api/v1/budgets/%.0f", budgetID), "", token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after deletion, got %d", rec.Code)
	}
}
