package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/cartographie/internal/httpx"
	"github.com/diewo77/cartographie/internal/middleware"
	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/pdf"
	"github.com/diewo77/cartographie/internal/services"
)

// ManagerHandler sert l'espace gestionnaire : supervision de tous les
// projets, statistiques et exports PDF.
type ManagerHandler struct {
	Projects *services.ProjectService
	Stats    *services.StatsService
	Users    *services.UserService
}

func NewManagerHandler(projects *services.ProjectService, stats *services.StatsService, users *services.UserService) *ManagerHandler {
	return &ManagerHandler{Projects: projects, Stats: stats, Users: users}
}

func (h *ManagerHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/manager/dashboard", h.dashboard)
	mux.HandleFunc("/manager/projects", h.list)
	mux.HandleFunc("/manager/projects/view", h.view)
	mux.HandleFunc("/manager/projects/edit", h.edit)
	mux.HandleFunc("/manager/projects/participants", h.participants)
	mux.HandleFunc("/manager/projects/pdf", h.projectPDF)
	mux.HandleFunc("/manager/statistics", h.statistics)
	mux.HandleFunc("/manager/my-statistics", h.myStatistics)
	mux.HandleFunc("/manager/reports/statistics.pdf", h.statisticsPDF)
}

func (h *ManagerHandler) dashboard(w http.ResponseWriter, r *http.Request) {
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
	late, err := h.Projects.Overdue(u)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"stats": stats, "overdue": late})
		return
	}
	renderTemplate(w, r, "manager_dashboard", map[string]any{"User": u, "Stats": stats, "Overdue": late})
}

func (h *ManagerHandler) list(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	var projects []models.ResearchProject
	if q != "" {
		projects, err = h.Projects.Search(u, q)
	} else {
		projects, err = h.Projects.Visible(u)
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, projects)
		return
	}
	renderTemplate(w, r, "manager_projects", map[string]any{"User": u, "Projects": projects, "Query": q})
}

func (h *ManagerHandler) view(w http.ResponseWriter, r *http.Request) {
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
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, p)
		return
	}
	renderTemplate(w, r, "project_view", map[string]any{"User": u, "Project": p})
}

func (h *ManagerHandler) edit(w http.ResponseWriter, r *http.Request) {
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
	if r.Method == http.MethodGet {
		p, err := h.Projects.Get(u, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		renderTemplate(w, r, "project_form", map[string]any{"User": u, "Project": p})
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
	if _, err := h.Projects.Update(u, id, formInput(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	middleware.Flash(w, r, "project_updated")
	http.Redirect(w, r, "/manager/projects", statusSeeOther)
}

// participants: GET formulaire, POST membres internes + externes.
func (h *ManagerHandler) participants(w http.ResponseWriter, r *http.Request) {
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
	if r.Method == http.MethodGet {
		p, err := h.Projects.Get(u, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		candidates, err := h.Users.Candidates()
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			return
		}
		renderTemplate(w, r, "project_participants", map[string]any{"User": u, "Project": p, "Candidates": candidates})
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
	if _, err := h.Projects.SetMembers(u, id, r.Form["member_ids"]); err != nil {
		writeServiceError(w, err)
		return
	}
	if _, err := h.Projects.SetExternalParticipants(u, id, r.FormValue("autres_participants")); err != nil {
		writeServiceError(w, err)
		return
	}
	middleware.Flash(w, r, "project_updated")
	http.Redirect(w, r, "/manager/projects", statusSeeOther)
}

// projectPDF: GET /manager/projects/pdf?id=...
func (h *ManagerHandler) projectPDF(w http.ResponseWriter, r *http.Request) {
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

func (h *ManagerHandler) statistics(w http.ResponseWriter, r *http.Request) {
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

// myStatistics: indicateurs restreints aux projets du gestionnaire.
func (h *ManagerHandler) myStatistics(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	stats, err := h.Stats.Manager(u.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, stats)
		return
	}
	renderTemplate(w, r, "statistics", map[string]any{"User": u, "Stats": stats, "Scope": "personal"})
}

func (h *ManagerHandler) statisticsPDF(w http.ResponseWriter, r *http.Request) {
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
