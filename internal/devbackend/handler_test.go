package devbackend

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sokoni-app/sokoni_mobile/internal/backend"
	"github.com/sokoni-app/sokoni_mobile/internal/logging"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	return NewApp(NewMemoryRepository(), "test-secret", time.Hour, logging.Discard())
}

func postJSON(t *testing.T, app *fiber.App, path, body, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func getJSON(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func decodeAuthResult(t *testing.T, resp *http.Response) backend.AuthResult {
	t.Helper()
	defer resp.Body.Close()
	var result backend.AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode auth result: %v", err)
	}
	return result
}

func TestRegisterAndLogin(t *testing.T) {
	app := setupTestApp(t)

	resp := postJSON(t, app, "/v1/auth/register",
		`{"email":"amina@example.com","password":"password123","display_name":"Amina"}`, "")
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	created := decodeAuthResult(t, resp)
	if created.Token == "" || created.User.Email != "amina@example.com" {
		t.Fatalf("unexpected register result %+v", created)
	}
	if created.User.IdentityVerified {
		t.Fatalf("new accounts must not be identity verified")
	}

	resp = postJSON(t, app, "/v1/auth/login",
		`{"email":"amina@example.com","password":"password123"}`, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	logged := decodeAuthResult(t, resp)
	if logged.User.ID != created.User.ID {
		t.Fatalf("login returned a different account")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := setupTestApp(t)

	body := `{"email":"amina@example.com","password":"password123","display_name":"Amina"}`
	resp := postJSON(t, app, "/v1/auth/register", body, "")
	resp.Body.Close()
	resp = postJSON(t, app, "/v1/auth/register", body, "")
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	data, _ := io.ReadAll(resp.Body)
	var parsed map[string]string
	if err := json.Unmarshal(data, &parsed); err != nil || parsed["error"] == "" {
		t.Fatalf("expected {\"error\": ...} body, got %s", data)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	app := setupTestApp(t)

	resp := postJSON(t, app, "/v1/auth/register",
		`{"email":"amina@example.com","password":"password123","display_name":"Amina"}`, "")
	resp.Body.Close()

	resp = postJSON(t, app, "/v1/auth/login",
		`{"email":"amina@example.com","password":"wrong-password"}`, "")
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestGoogleAuthCreatesAccount(t *testing.T) {
	app := setupTestApp(t)

	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "fatou@example.com",
		"name":  "Fatou",
	}).SignedString([]byte("google-side-secret"))
	if err != nil {
		t.Fatalf("sign id token: %v", err)
	}

	resp := postJSON(t, app, "/v1/auth/google", `{"id_token":"`+idToken+`"}`, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	result := decodeAuthResult(t, resp)
	if result.User.Email != "fatou@example.com" || !result.User.EmailVerified {
		t.Fatalf("unexpected federated account %+v", result.User)
	}

	// Same token again must return the same account, not a duplicate.
	resp = postJSON(t, app, "/v1/auth/google", `{"id_token":"`+idToken+`"}`, "")
	again := decodeAuthResult(t, resp)
	if again.User.ID != result.User.ID {
		t.Fatalf("expected account reuse, got new id %s", again.User.ID)
	}
}

func TestMeRequiresBearerToken(t *testing.T) {
	app := setupTestApp(t)

	resp := getJSON(t, app, "/v1/me", "")
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestVerifyIdentityFlipsProfileFlag(t *testing.T) {
	app := setupTestApp(t)

	resp := postJSON(t, app, "/v1/auth/register",
		`{"email":"amina@example.com","password":"password123","display_name":"Amina"}`, "")
	created := decodeAuthResult(t, resp)

	resp = postJSON(t, app, "/v1/me/verify-identity", "", created.Token)
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp = getJSON(t, app, "/v1/me", created.Token)
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		User backend.UserRecord `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if !body.User.IdentityVerified {
		t.Fatalf("expected identity_verified after confirmation")
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	app := setupTestApp(t)

	resp := getJSON(t, app, "/v1/me", "garbage.token.here")
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
