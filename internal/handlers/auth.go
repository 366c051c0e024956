package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diewo77/cartographie/internal/auth"
	"github.com/diewo77/cartographie/internal/httpx"
	"github.com/diewo77/cartographie/internal/middleware"
	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/policy"
	"github.com/diewo77/cartographie/internal/services"
	"github.com/diewo77/cartographie/internal/view"
)

// Explicit constant for 303 See Other (Post/Redirect/Get)
const statusSeeOther = 303

type AuthHandler struct {
	Users  *services.UserService
	Config *services.ConfigService
	OAuth  *auth.OAuth
}

func NewAuthHandler(users *services.UserService, config *services.ConfigService, oauth *auth.OAuth) *AuthHandler {
	return &AuthHandler{Users: users, Config: config, OAuth: oauth}
}

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/login", h.login)
	mux.HandleFunc("/register", h.register)
	mux.HandleFunc("/logout", h.logout)
	mux.HandleFunc("/oauth/login", h.oauthLogin)
	mux.HandleFunc("/oauth/callback", h.oauthCallback)
}

// render uses the shared view.Render to ensure layout, partials, funcs, and caching.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if c, err := r.Cookie("flash"); err == nil && c.Value != "" {
		if dec, derr := url.QueryUnescape(c.Value); derr == nil {
			data["Flash"] = dec
		} else {
			data["Flash"] = c.Value
		}
		http.SetCookie(w, &http.Cookie{Name: "flash", Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
	}
	if err := view.Render(w, r, name+".html", data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte("template error")); werr != nil {
			_ = werr
		}
	}
}

// homeFor retourne la page d'accueil du rôle.
func homeFor(role string) string {
	switch role {
	case string(policy.RoleAdmin):
		return "/admin/dashboard"
	case string(policy.RoleGestionnaire):
		return "/manager/dashboard"
	}
	return "/candidate/dashboard"
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		// Session valide: renvoi direct vers le tableau de bord du rôle.
		if uid, ok := auth.UserIDFromContext(r.Context()); ok && uid != "" {
			if u, err := h.Users.Get(uid); err == nil && u.Active {
				http.Redirect(w, r, homeFor(u.Role), http.StatusSeeOther)
				return
			}
			auth.ClearSession(w)
		}
		renderTemplate(w, r, "login", nil)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	pass := r.FormValue("password")
	if email == "" || pass == "" {
		renderTemplate(w, r, "login", map[string]any{"Error": "email and password required"})
		return
	}
	u, err := h.Users.Authenticate(email, pass)
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnauthorized, err.Error(), nil)
			return
		}
		code := "invalid_credentials"
		if errors.Is(err, services.ErrAccountDisabled) {
			code = "account_disabled"
		}
		renderTemplate(w, r, "login", map[string]any{"Error": code})
		return
	}
	auth.CreateSession(w, u.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, u)
		return
	}
	http.Redirect(w, r, homeFor(u.Role), statusSeeOther)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Config.Get()
	if err == nil && !cfg.RegistrationOpen {
		middleware.Flash(w, r, "registration_closed")
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "register", nil)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	// L'inscription publique ne crée que des candidats.
	u, err := h.Users.Register(services.RegisterInput{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Nom:      r.FormValue("nom"),
		Prenom:   r.FormValue("prenom"),
	})
	if err != nil {
		if httpx.WantsJSON(r) {
			status := http.StatusBadRequest
			if errors.Is(err, services.ErrEmailTaken) {
				status = http.StatusConflict
			}
			httpx.JSONError(w, status, err.Error(), nil)
			return
		}
		code := "invalid_form"
		if errors.Is(err, services.ErrEmailTaken) {
			code = "email_taken"
		}
		renderTemplate(w, r, "register", map[string]any{"Error": code})
		return
	}
	auth.CreateSession(w, u.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, u)
		return
	}
	http.Redirect(w, r, "/candidate/complete-profile", statusSeeOther)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	auth.ClearSession(w)
	http.Redirect(w, r, "/login", statusSeeOther)
}

func (h *AuthHandler) oauthLogin(w http.ResponseWriter, r *http.Request) {
	if h.OAuth == nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	h.OAuth.Begin(w, r)
}

func (h *AuthHandler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	if h.OAuth == nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	gu, err := h.OAuth.Complete(r.Context(), r)
	if err != nil {
		renderTemplate(w, r, "login", map[string]any{"Error": "oauth_failed"})
		return
	}
	u, err := h.Users.ProvisionOAuth(services.OAuthInfo{
		Provider: "google",
		Subject:  gu.Subject,
		Email:    gu.Email,
		Nom:      gu.Family,
		Prenom:   gu.GivenName,
		Picture:  gu.Picture,
	})
	if err != nil {
		code := "oauth_failed"
		if errors.Is(err, services.ErrAccountDisabled) {
			code = "account_disabled"
		}
		renderTemplate(w, r, "login", map[string]any{"Error": code})
		return
	}
	auth.CreateSession(w, u.ID)
	if u.Role == string(policy.RoleCandidat) && !u.ProfileCompleted {
		http.Redirect(w, r, "/candidate/complete-profile", statusSeeOther)
		return
	}
	http.Redirect(w, r, homeFor(u.Role), statusSeeOther)
}

// currentUser charge l'utilisateur de la session courante.
func currentUser(r *http.Request, users *services.UserService) (*models.User, error) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == "" {
		return nil, services.ErrUnauthenticated
	}
	return users.Get(uid)
}
