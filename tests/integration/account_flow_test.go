package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAccountFlow_CreateAndList(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "accts@test.com", "password123")

	app.createAccount(t, token, "Checking", "checking", "1500.00")
	app.createAccount(t, token, "Savings", "savings", "5000.00")

	rec := app.request("GET", "/api/v1/accounts", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["total_items"].(float64) != 2 {
		t.Errorf("expected 2 accounts, got %v", result["total_items"])
	}
}

func TestAccountFlow_DuplicateName(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "dupacct@test.com", "password123")

	app.createAccount(t, token, "Wallet", "cash", "0.00")

	rec := app.request("POST", "/api/v1/accounts",
		`{"name":"Wallet","kind":"cash"}`, token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "DUPLICATE_ACCOUNT")
}

func TestAccountFlow_LedgerConsistency(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "ledger@test.com", "password123")
	acctID := app.createAccount(t, token, "Main", "checking", "1000.00")

	// Post income
	rec := app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"account_id":%.0f,"type":"income","amount":"250.00","description":"Refund"}`, acctID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("income failed: %d %s", rec.Code, rec.Body.String())
	}

	// Post expense
	rec = app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"account_id":%.0f,"type":"expense","amount":"100.00","description":"Groceries"}`, acctID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expense failed: %d %s", rec.Code, rec.Body.String())
	}
	txID := parseJSON(t, rec)["id"].(float64)

	// 1000 + 250 - 100 = 1150
	if got := app.accountBalance(t, token, acctID); got != "1150.00" {
		t.Errorf("expected balance 1150.00, got %s", got)
	}

	// Amend the expense to 175.00
	rec = app.request("PUT", fmt.Sprintf("/api/v1/transactions/%.0f", txID),
		fmt.Sprintf(`{"account_id":%.0f,"type":"expense","amount":"175.00","description":"Groceries"}`, acctID), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("amend failed: %d %s", rec.Code, rec.Body.String())
	}

	// 1000 + 250 - 175 = 1075
	if got := app.accountBalance(t, token, acctID); got != "1075.00" {
		t.Errorf("expected balance 1075.00 after amend, got %s", got)
	}

	// Void the expense
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/transactions/%.0f", txID), "", token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("void failed: %d %s", rec.Code, rec.Body.String())
	}

	// 1000 + 250 = 1250
	if got := app.accountBalance(t, token, acctID); got != "1250.00" {
		t.Errorf("expected balance 1250.00 after void, got %s", got)
	}
}

func TestAccountFlow_DeleteRules(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "delacct@test.com", "password123")

	usedID := app.createAccount(t, token, "Used", "checking", "100.00")
	emptyID := app.createAccount(t, token, "Empty", "savings", "0.00")

	app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"account_id":%.0f,"type":"expense","amount":"10.00"}`, usedID), token)

	// Account with history cannot be deleted
	rec := app.request("DELETE", fmt.Sprintf("/api/v1/accounts/%.0f", usedID), "", token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "ACCOUNT_IN_USE")

	// Unused account deletes fine
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/accounts/%.0f", emptyID), "", token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAccountFlow_LiabilityGoesNegative(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "cc@test.com", "password123")
	ccID := app.createAccount(t, token, "Visa", "credit_card", "0.00")

	rec := app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"account_id":%.0f,"type":"expense","amount":"320.50"}`, ccID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if got := app.accountBalance(t, token, ccID); got != "-320.50" {
		t.Errorf("expected balance -320.50, got %s", got)
	}
}
