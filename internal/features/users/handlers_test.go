package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(f.svc)
	r := gin.New()
	r.POST("/api/auth/signup", h.Signup)
	r.POST("/api/auth/signin", h.Signin)
	session := r.Group("/api", h.RequireSession())
	session.GET("/me", h.Me)
	return r
}

func doJSON(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSignupHandlerErrors(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	rec := doJSON(r, http.MethodPost, "/api/auth/signup", `{"email":""}`, "")
	if rec.Code != http.StatusBadRequest || !bytes.Contains(rec.Body.Bytes(), []byte("email_required")) {
		t.Fatalf("empty email: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(r, http.MethodPost, "/api/auth/signup", `{"email":"ok@example.com"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("signup: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(r, http.MethodPost, "/api/auth/signin", `{"email":"ok@example.com"}`, "")
	if rec.Code != http.StatusForbidden || !bytes.Contains(rec.Body.Bytes(), []byte("email_not_verified")) {
		t.Fatalf("signin unverified: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRequireSession(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f)

	if rec := doJSON(r, http.MethodGet, "/api/me", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}
	if rec := doJSON(r, http.MethodGet, "/api/me", "", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", rec.Code)
	}

	u := f.signup(t, "me@example.com", "1.1.1.1")
	token, _ := f.tokens.IssueSession(u.ID, u.AuthVersion, time.Hour)
	rec := doJSON(r, http.MethodGet, "/api/me", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["email"] != "me@example.com" || body["totalCredits"] != "0.00" || body["lastChestOpenAt"] != nil {
		t.Fatalf("unexpected body: %v", body)
	}
}
