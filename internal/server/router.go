package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/cartographie/internal/auth"
	"github.com/diewo77/cartographie/internal/config"
	"github.com/diewo77/cartographie/internal/handlers"
	"github.com/diewo77/cartographie/internal/httpx"
	"github.com/diewo77/cartographie/internal/middleware"
	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/policy"
	"github.com/diewo77/cartographie/internal/services"
	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Configure a user verifier so RequireAuth can ensure the user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid string) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ? AND active = ?", uid, true).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	userSvc := services.NewUserService(db)
	projectSvc := services.NewProjectService(db)
	statsSvc := services.NewStatsService(db)
	domaineSvc := services.NewDomaineService(db)
	configSvc := services.NewConfigService(db)

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, werr := w.Write([]byte(`{"status":"degraded"}`)); werr != nil {
				_ = werr
			}
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var oauthFlow *auth.OAuth
	if cfg.OAuth.ClientID != "" {
		oauthFlow = auth.NewGoogleOAuth(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RedirectURL)
	}

	authHandler := handlers.NewAuthHandler(userSvc, configSvc, oauthFlow)
	authHandler.Register(mux)

	// Espace candidat: authentifié + rôle CANDIDAT + profil complet.
	candidate := handlers.NewCandidateHandler(projectSvc, userSvc)
	candidateMux := http.NewServeMux()
	candidate.Register(candidateMux)
	mux.Handle("/candidate/", requireRole(userSvc, candidateMux, policy.RoleCandidat))

	// Espace gestionnaire.
	manager := handlers.NewManagerHandler(projectSvc, statsSvc, userSvc)
	managerMux := http.NewServeMux()
	manager.Register(managerMux)
	mux.Handle("/manager/", requireRole(userSvc, managerMux, policy.RoleGestionnaire, policy.RoleAdmin))

	// Espace administrateur.
	admin := handlers.NewAdminHandler(projectSvc, statsSvc, userSvc, domaineSvc, configSvc)
	adminMux := http.NewServeMux()
	admin.Register(adminMux)
	mux.Handle("/admin/", requireRole(userSvc, adminMux, policy.RoleAdmin))

	// API JSON.
	api := handlers.NewProjectAPIHandler(projectSvc, statsSvc, userSvc)
	apiMux := http.NewServeMux()
	api.Register(apiMux)
	mux.Handle("/api/", auth.RequireAuth(apiMux))

	// Static assets.
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Accueil: renvoi vers la page de connexion.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})

	h := maintenanceGate(configSvc, userSvc, mux)
	return middleware.Prefs(auth.Middleware(withRecover(withLogging(h))))
}

// requireRole vérifie la session puis le rôle. Un candidat au profil
// incomplet est renvoyé vers la complétion avant toute action projet.
func requireRole(users *services.UserService, next http.Handler, roles ...policy.Role) http.Handler {
	return auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ := auth.UserIDFromContext(r.Context())
		u, err := users.Get(uid)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				auth.ClearSession(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			return
		}
		allowed := false
		for _, role := range roles {
			if u.Role == string(role) {
				allowed = true
				break
			}
		}
		if !allowed {
			if httpx.WantsJSON(r) {
				httpx.JSONError(w, http.StatusForbidden, "access_denied", nil)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if u.Role == string(policy.RoleCandidat) && !u.ProfileCompleted &&
			r.URL.Path != "/candidate/complete-profile" {
			http.Redirect(w, r, "/candidate/complete-profile", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// maintenanceGate renvoie 503 aux non-admins quand le mode maintenance est
// actif. Les pages de connexion et les sondes restent accessibles.
func maintenanceGate(configSvc *services.ConfigService, users *services.UserService, next http.Handler) http.Handler {
	exempt := func(path string) bool {
		return path == "/login" || path == "/logout" || path == "/health" || path == "/healthz" ||
			strings.HasPrefix(path, "/admin/") || strings.HasPrefix(path, "/oauth/") ||
			strings.HasPrefix(path, "/static/")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg, err := configSvc.Get()
		if err != nil || !cfg.MaintenanceMode || exempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if uid, ok := auth.UserIDFromContext(r.Context()); ok {
			if u, err := users.Get(uid); err == nil && u.Role == string(policy.RoleAdmin) {
				next.ServeHTTP(w, r)
				return
			}
		}
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusServiceUnavailable, "maintenance_mode", nil)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, werr := w.Write([]byte("<h1>Site en maintenance</h1><p>Merci de réessayer plus tard.</p>")); werr != nil {
			_ = werr
		}
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic: %v", rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
