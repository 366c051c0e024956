package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	CreateSession(rec, "5b2f9c1e-0000-4000-8000-000000000001")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	uid, ok := ParseSession(req)
	if !ok {
		t.Fatal("session valide rejetée")
	}
	if uid != "5b2f9c1e-0000-4000-8000-000000000001" {
		t.Errorf("uid = %q", uid)
	}
}

func TestSessionTamperedSignature(t *testing.T) {
	rec := httptest.NewRecorder()
	CreateSession(rec, "user-1")
	c := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: c.Name, Value: "user-2." + c.Value[len("user-1."):]})
	if _, ok := ParseSession(req); ok {
		t.Error("signature falsifiée acceptée")
	}
}

func TestSessionMissingCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := ParseSession(req); ok {
		t.Error("absence de cookie acceptée")
	}
}

func TestRequireAuthRedirectsHTML(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/candidate/dashboard", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("code = %d, attendu 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("location = %q", loc)
	}
}

func TestRequireAuthJSON401(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %d, attendu 401", rec.Code)
	}
}

func TestRequireAuthVerifierRejects(t *testing.T) {
	old := verifier
	defer SetUserVerifier(old)
	SetUserVerifier(func(_ context.Context, uid string) bool { return false })

	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	CreateSession(rec, "ghost")
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Accept", "application/json")
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	req = req.WithContext(WithUserID(req.Context(), "ghost"))

	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	if out.Code != http.StatusUnauthorized {
		t.Errorf("code = %d, attendu 401", out.Code)
	}
	// la session invalide est purgée
	cleared := false
	for _, c := range out.Result().Cookies() {
		if c.Name == "session" && c.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Error("cookie de session non purgé")
	}
}
