package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestTransferFlow_SuccessfulTransfer(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "xfer@test.com", "password123")

	acctAID := app.createAccount(t, token, "Account A", "checking", "200.00")
	acctBID := app.createAccount(t, token, "Account B", "savings", "50.00")

	// Transfer $75 from A to B
	rec := app.request("POST", "/api/v1/transfers",
		fmt.Sprintf(`{"from_account_id":%.0f,"to_account_id":%.0f,"amount":"75.00","description":"Rent money"}`,
			acctAID, acctBID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	legOut := result["leg_out"].(map[string]interface{})
	legIn := result["leg_in"].(map[string]interface{})
	legOutID := legOut["id"].(float64)

	// Legs must point at each other
	if legOut["related_transaction_id"].(float64) != legIn["id"].(float64) {
		t.Error("leg_out must reference leg_in")
	}
	if legIn["related_transaction_id"].(float64) != legOutID {
		t.Error("leg_in must reference leg_out")
	}

	if got := app.accountBalance(t, token, acctAID); got != "125.00" {
		t.Errorf("expected account A balance 125.00, got %s", got)
	}
	if got := app.accountBalance(t, token, acctBID); got != "125.00" {
		t.Errorf("expected account B balance 125.00, got %s", got)
	}

	// Cancel the transfer through the outgoing leg
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/transfers/%.0f", legOutID), "", token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on cancel, got %d: %s", rec.Code, rec.Body.String())
	}

	if got := app.accountBalance(t, token, acctAID); got != "200.00" {
		t.Errorf("expected account A balance restored to 200.00, got %s", got)
	}
	if got := app.accountBalance(t, token, acctBID); got != "50.00" {
		t.Errorf("expected account B balance restored to 50.00, got %s", got)
	}
}

func TestTransferFlow_SameAccountRejected(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "same@test.com", "password123")

	acctID := app.createAccount(t, token, "Only Account", "checking", "100.00")

	rec := app.request("POST", "/api/v1/transfers",
		fmt.Sprintf(`{"from_account_id":%.0f,"to_account_id":%.0f,"amount":"10.00"}`, acctID, acctID), token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "SAME_ACCOUNT_TRANSFER")
}

func TestTransferFlow_InsufficientFunds(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "insuf@test.com", "password123")

	acctAID := app.createAccount(t, token, "Poor Account", "checking", "10.00")
	acctBID := app.createAccount(t, token, "Other Account", "savings", "0.00")

	rec := app.request("POST", "/api/v1/transfers",
		fmt.Sprintf(`{"from_account_id":%.0f,"to_account_id":%.0f,"amount":"50.00"}`, acctAID, acctBID), token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "INSUFFICIENT_FUNDS")

	if got := app.accountBalance(t, token, acctAID); got != "10.00" {
		t.Errorf("expected balance unchanged at 10.00, got %s", got)
	}
	if got := app.accountBalance(t, token, acctBID); got != "0.00" {
		t.Errorf("expected balance unchanged at 0.00, got %s", got)
	}
}

func TestTransferFlow_CreditCardMayOverdraw(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "ccxfer@test.com", "password123")

	ccID := app.createAccount(t, token, "Visa", "credit_card", "0.00")
	checkingID := app.createAccount(t, token, "Checking", "checking", "0.00")

	// Cash advance from a zero-balance card is allowed
	rec := app.request("POST", "/api/v1/transfers",
		fmt.Sprintf(`{"from_account_id":%.0f,"to_account_id":%.0f,"amount":"150.00"}`, ccID, checkingID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if got := app.accountBalance(t, token, ccID); got != "-150.00" {
		t.Errorf("expected card balance -150.00, got %s", got)
	}
	if got := app.accountBalance(t, token, checkingID); got != "150.00" {
		t.Errorf("expected checking balance 150.00, got %s", got)
	}
}

func TestTransferFlow_LegsAreImmutable(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "immut@test.com", "password123")

	acctAID := app.createAccount(t, token, "A", "checking", "100.00")
	acctBID := app.createAccount(t, token, "B", "savings", "0.00")

	rec := app.request("POST", "/api/v1/transfers",
		fmt.Sprintf(`{"from_account_id":%.0f,"to_account_id":%.0f,"amount":"40.00"}`, acctAID, acctBID), token)
	legOutID := parseJSON(t, rec)["leg_out"].(map[string]interface{})["id"].(float64)

	// Amending a leg through the transaction endpoint is rejected
	rec = app.request("PUT", fmt.Sprintf("/api/v1/transactions/%.0f", legOutID),
		fmt.Sprintf(`{"account_id":%.0f,"type":"expense","amount":"99.00"}`, acctAID), token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "TRANSFER_IMMUTABLE")

	// Voiding a leg through the transaction endpoint is rejected too
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/transactions/%.0f", legOutID), "", token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "TRANSFER_IMMUTABLE")
}

func TestTransferFlow_TransfersExcludedFromSummary(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "summary@test.com", "password123")

	acctAID := app.createAccount(t, token, "A", "checking", "500.00")
	acctBID := app.createAccount(t, token, "B", "savings", "0.00")

	// One real expense in June 2026
	app.request("POST", "/api/v1/transactions",
		fmt.Sprintf(`{"account_id":%.0f,"type":"expense","amount":"80.00","date":"2026-06-10"}`, acctAID), token)

	// A transfer in the same month must not count as income or expense
	app.request("POST", "/api/v1/transfers",
		fmt.Sprintf(`{"from_account_id":%.0f,"to_account_id":%.0f,"amount":"300.00","date":"2026-06-15"}`, acctAID, acctBID), token)

	rec := app.request("GET", "/api/v1/reports/summary?month=6&year=2026", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["income"] != "0.00" {
		t.Errorf("expected income 0.00, got %v", result["income"])
	}
	if result["expenses"] != "80.00" {
		t.Errorf("expected expenses 80.00, got %v", result["expenses"])
	}
}
