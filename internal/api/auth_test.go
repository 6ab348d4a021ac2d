package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vox/internal/auth"
	"vox/internal/constants"
	"vox/internal/db"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func openTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	database := openTestDB(t)
	tokens := auth.NewTokenService(testSecret, time.Hour)
	return NewAuthHandler(db.NewUserRepository(database), tokens)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestRegisterIssuesToken(t *testing.T) {
	handler := newAuthHandler(t)

	rr := postJSON(t, handler.Register, "/api/register",
		`{"username":"alice","password":"secret1","display_name":"Alice"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body=%q", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp authResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal() error = %v, body=%q", err, rr.Body.String())
	}
	if !resp.Success || resp.Token == "" {
		t.Fatalf("response = %+v, want success with token", resp)
	}
	if resp.User == nil || resp.User.Username != "alice" {
		t.Fatalf("user = %+v, want alice", resp.User)
	}
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	handler := newAuthHandler(t)

	body := `{"username":"alice","password":"secret1"}`
	if rr := postJSON(t, handler.Register, "/api/register", body); rr.Code != http.StatusCreated {
		t.Fatalf("first register status = %d, want %d", rr.Code, http.StatusCreated)
	}

	rr := postJSON(t, handler.Register, "/api/register", body)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if resp.Error.Code != constants.ErrCodeConflict {
		t.Fatalf("error.code = %q, want %q", resp.Error.Code, constants.ErrCodeConflict)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	handler := newAuthHandler(t)

	rr := postJSON(t, handler.Register, "/api/register", `{"username":"alice","password":"abc"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestLoginWrongPasswordUnauthorized(t *testing.T) {
	handler := newAuthHandler(t)

	postJSON(t, handler.Register, "/api/register", `{"username":"alice","password":"secret1"}`)

	rr := postJSON(t, handler.Login, "/api/login", `{"username":"alice","password":"nope123"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAutoLoginAfterLogoutFails(t *testing.T) {
	handler := newAuthHandler(t)

	rr := postJSON(t, handler.Register, "/api/register", `{"username":"alice","password":"secret1"}`)
	var resp authResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	body := `{"username":"alice","token":"` + resp.Token + `"}`
	if rr := postJSON(t, handler.AutoLogin, "/api/auto_login", body); rr.Code != http.StatusOK {
		t.Fatalf("auto_login status = %d, want %d, body=%q", rr.Code, http.StatusOK, rr.Body.String())
	}

	if rr := postJSON(t, handler.Logout, "/api/logout", body); rr.Code != http.StatusOK {
		t.Fatalf("logout status = %d, want %d", rr.Code, http.StatusOK)
	}

	// The signature is still valid but the stored copy is gone.
	if rr := postJSON(t, handler.AutoLogin, "/api/auto_login", body); rr.Code != http.StatusUnauthorized {
		t.Fatalf("auto_login after logout status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAutoLoginRejectsForgedToken(t *testing.T) {
	handler := newAuthHandler(t)

	postJSON(t, handler.Register, "/api/register", `{"username":"alice","password":"secret1"}`)

	forged := auth.NewTokenService("another-secret-another-secret-32", time.Hour)
	token, err := forged.GenerateSessionToken("alice")
	if err != nil {
		t.Fatalf("GenerateSessionToken() error = %v", err)
	}

	rr := postJSON(t, handler.AutoLogin, "/api/auto_login",
		`{"username":"alice","token":"`+token+`"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
