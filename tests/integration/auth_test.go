package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAuth_RegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	token, userID := app.registerUser(t, "alice@test.com", "password123")
	if token == "" {
		t.Fatal("expected a token from register")
	}
	if userID == 0 {
		t.Fatal("expected a user ID from register")
	}

	// Login with the same credentials
	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"alice@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["token"].(string) == "" {
		t.Error("expected a token from login")
	}
}

func TestAuth_EmailNormalization(t *testing.T) {
	app := setupApp(t)
	app.registerUser(t, "Bob@Test.com", "password123")

	// Login with a differently cased email
	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"bob@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected normalized login to succeed: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuth_DuplicateEmail(t *testing.T) {
	app := setupApp(t)
	app.registerUser(t, "dup@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/register",
		`{"email":"dup@test.com","password":"password456"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "DUPLICATE_EMAIL")
}

func TestAuth_WrongPassword(t *testing.T) {
	app := setupApp(t)
	app.registerUser(t, "carol@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"carol@test.com","password":"wrongpass"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "INVALID_CREDENTIALS")
}

func TestAuth_ProtectedRouteRequiresToken(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/accounts", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestAuth_Profile(t *testing.T) {
	app := setupApp(t)
	token, userID := app.registerUser(t, "dave@test.com", "password123")

	rec := app.request("GET", "/api/v1/auth/me", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["id"].(float64) != userID {
		t.Errorf("expected profile for user %.0f, got %v", userID, result["id"])
	}
	if result["email"] != "dave@test.com" {
		t.Errorf("unexpected email: %v", result["email"])
	}
	if _, exposed := result["password"]; exposed {
		t.Error("password must never appear in a response")
	}
}

func TestAuth_UsersAreIsolated(t *testing.T) {
	app := setupApp(t)
	tokenA, _ := app.registerUser(t, "owner@test.com", "password123")
	tokenB, _ := app.registerUser(t, "intruder@test.com", "password123")

	acctID := app.createAccount(t, tokenA, "Private", "checking", "100.00")

	rec := app.request("GET", fmt.Sprintf("/api/v1/accounts/%.0f", acctID), "", tokenB)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's account, got %d", rec.Code)
	}
}
