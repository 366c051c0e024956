package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/cartographie/internal/httpx"
	"github.com/diewo77/cartographie/internal/middleware"
	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/pdf"
	"github.com/diewo77/cartographie/internal/services"
)

// AdminHandler sert l'espace administrateur : comptes, domaines, projets,
// statistiques, réglages et exports.
type AdminHandler struct {
	Projects *services.ProjectService
	Stats    *services.StatsService
	Users    *services.UserService
	Domaines *services.DomaineService
	Config   *services.ConfigService
}

func NewAdminHandler(projects *services.ProjectService, stats *services.StatsService, users *services.UserService, domaines *services.DomaineService, config *services.ConfigService) *AdminHandler {
	return &AdminHandler{Projects: projects, Stats: stats, Users: users, Domaines: domaines, Config: config}
}

func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/dashboard", h.dashboard)
	mux.HandleFunc("/admin/users", h.users)
	mux.HandleFunc("/admin/users/create", h.createUser)
	mux.HandleFunc("/admin/users/edit", h.editUser)
	mux.HandleFunc("/admin/users/role", h.changeRole)
	mux.HandleFunc("/admin/users/toggle", h.toggleUser)
	mux.HandleFunc("/admin/users/delete", h.deleteUser)
	mux.HandleFunc("/admin/domaines", h.domaines)
	mux.HandleFunc("/admin/domaines/delete", h.deleteDomaine)
	mux.HandleFunc("/admin/statistics", h.statistics)
	mux.HandleFunc("/admin/settings", h.settings)
	mux.HandleFunc("/admin/projects/pdf", h.projectPDF)
	mux.HandleFunc("/admin/reports/statistics.pdf", h.statisticsPDF)
}

func (h *AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	stats, err := h.Stats.Advanced()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, stats)
		return
	}
	renderTemplate(w, r, "admin_dashboard", map[string]any{"User": u, "Stats": stats})
}

func (h *AdminHandler) users(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	var users []models.User
	if q != "" {
		users, err = h.Users.SearchUsers(q)
	} else {
		users, err = h.Users.List()
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, users)
		return
	}
	renderTemplate(w, r, "admin_users", map[string]any{"User": u, "Users": users, "Query": q})
}

func (h *AdminHandler) createUser(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "admin_user_form", map[string]any{"User": u})
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
	_, err = h.Users.Register(services.RegisterInput{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Nom:      r.FormValue("nom"),
		Prenom:   r.FormValue("prenom"),
		Role:     r.FormValue("role"),
	})
	if err != nil {
		renderTemplate(w, r, "admin_user_form", map[string]any{"User": u, "Error": err.Error()})
		return
	}
	http.Redirect(w, r, "/admin/users", statusSeeOther)
}

func (h *AdminHandler) editUser(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_user_id", nil)
		return
	}
	if r.Method == http.MethodGet {
		target, err := h.Users.Get(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		renderTemplate(w, r, "admin_user_form", map[string]any{"User": u, "Target": target})
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
	_, err = h.Users.UpdateUser(id, services.UpdateUserInput{
		Nom:         r.FormValue("nom"),
		Prenom:      r.FormValue("prenom"),
		Role:        r.FormValue("role"),
		Telephone:   r.FormValue("telephone"),
		Institution: r.FormValue("institution"),
		Departement: r.FormValue("departement"),
		Specialite:  r.FormValue("specialite"),
		NiveauEtude: r.FormValue("niveau_etude"),
		Bio:         r.FormValue("bio"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	http.Redirect(w, r, "/admin/users", statusSeeOther)
}

func (h *AdminHandler) changeRole(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUser(r, h.Users); err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	if _, err := h.Users.ChangeRole(r.FormValue("id"), r.FormValue("role")); err != nil {
		writeServiceError(w, err)
		return
	}
	http.Redirect(w, r, "/admin/users", statusSeeOther)
}

func (h *AdminHandler) toggleUser(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUser(r, h.Users); err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	if _, err := h.Users.ToggleActive(r.FormValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	http.Redirect(w, r, "/admin/users", statusSeeOther)
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	admin, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	id := r.FormValue("id")
	// Un admin ne supprime pas son propre compte.
	if id == admin.ID {
		httpx.JSONError(w, http.StatusBadRequest, "cannot_delete_self", nil)
		return
	}
	if err := h.Users.DeleteUser(id); err != nil {
		writeServiceError(w, err)
		return
	}
	http.Redirect(w, r, "/admin/users", statusSeeOther)
}

func (h *AdminHandler) domaines(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
			return
		}
		if _, err := h.Domaines.Create(r.FormValue("nom"), r.FormValue("description")); err != nil {
			renderList := func(errCode string) {
				list, lerr := h.Domaines.List()
				if lerr != nil {
					httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
					return
				}
				renderTemplate(w, r, "admin_domaines", map[string]any{"User": u, "Domaines": list, "Error": errCode})
			}
			renderList(err.Error())
			return
		}
		http.Redirect(w, r, "/admin/domaines", statusSeeOther)
		return
	}
	list, err := h.Domaines.List()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, list)
		return
	}
	renderTemplate(w, r, "admin_domaines", map[string]any{"User": u, "Domaines": list})
}

func (h *AdminHandler) deleteDomaine(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUser(r, h.Users); err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	id64, err := strconv.ParseUint(r.FormValue("id"), 10, 64)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_domaine_id", nil)
		return
	}
	if err := h.Domaines.Delete(uint(id64)); err != nil {
		writeServiceError(w, err)
		return
	}
	http.Redirect(w, r, "/admin/domaines", statusSeeOther)
}

func (h *AdminHandler) statistics(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	stats, err := h.Stats.Advanced()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, stats)
		return
	}
	renderTemplate(w, r, "statistics", map[string]any{"User": u, "Stats": stats, "Scope": "global"})
}

func (h *AdminHandler) settings(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		cfg, err := h.Config.Get()
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			return
		}
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, cfg)
			return
		}
		renderTemplate(w, r, "admin_settings", map[string]any{"User": u, "Config": cfg})
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
	current, err := h.Config.Get()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	updated := *current
	if v := strings.TrimSpace(r.FormValue("site_name")); v != "" {
		updated.SiteName = v
	}
	if v := strings.TrimSpace(r.FormValue("contact_email")); v != "" {
		updated.ContactEmail = v
	}
	updated.MaintenanceMode = r.FormValue("maintenance_mode") == "on" || r.FormValue("maintenance_mode") == "true"
	updated.RegistrationOpen = r.FormValue("registration_open") == "on" || r.FormValue("registration_open") == "true"
	if _, err := h.Config.Update(updated); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	middleware.Flash(w, r, "settings_saved")
	http.Redirect(w, r, "/admin/settings", statusSeeOther)
}

func (h *AdminHandler) projectPDF(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	id, ok := queryID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_project_id", nil)
		return
	}
	p, err := h.Projects.Get(u, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	data, err := pdf.ProjectPDF(p)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	httpx.PDF(w, pdf.Filename("projet", p.TitreProjet), data)
}

func (h *AdminHandler) statisticsPDF(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUser(r, h.Users); err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	stats, err := h.Stats.Advanced()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	data, err := pdf.StatisticsPDF(stats, time.Now())
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	httpx.PDF(w, "rapport_statistiques.pdf", data)
}
