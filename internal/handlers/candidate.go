package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/cartographie/internal/httpx"
	"github.com/diewo77/cartographie/internal/middleware"
	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/services"
)

// CandidateHandler sert l'espace candidat : tableau de bord, projets
// personnels et complétion de profil.
type CandidateHandler struct {
	Projects *services.ProjectService
	Users    *services.UserService
}

func NewCandidateHandler(projects *services.ProjectService, users *services.UserService) *CandidateHandler {
	return &CandidateHandler{Projects: projects, Users: users}
}

func (h *CandidateHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/candidate/dashboard", h.dashboard)
	mux.HandleFunc("/candidate/projects", h.list)
	mux.HandleFunc("/candidate/projects/new", h.create)
	mux.HandleFunc("/candidate/projects/view", h.view)
	mux.HandleFunc("/candidate/projects/edit", h.edit)
	mux.HandleFunc("/candidate/projects/delete", h.delete)
	mux.HandleFunc("/candidate/projects/participants", h.participants)
	mux.HandleFunc("/candidate/complete-profile", h.completeProfile)
}

func (h *CandidateHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	stats, err := h.Projects.StatsFor(u.ID)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	projects, err := h.Projects.Visible(u)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"stats": stats, "projects": projects})
		return
	}
	renderTemplate(w, r, "candidate_dashboard", map[string]any{"User": u, "Stats": stats, "Projects": projects})
}

func (h *CandidateHandler) list(w http.ResponseWriter, r *http.Request) {
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
	renderTemplate(w, r, "candidate_projects", map[string]any{"User": u, "Projects": projects, "Query": q})
}

// formInput lit les champs du formulaire projet, communs à la création et
// à la modification.
func formInput(r *http.Request) services.ProjectInput {
	in := services.ProjectInput{
		TitreProjet:       r.FormValue("titre_projet"),
		Description:       r.FormValue("description"),
		DomaineRecherche:  r.FormValue("domaine_recherche"),
		StatutProjet:      r.FormValue("statut_projet"),
		ResponsableProjet: r.FormValue("responsable_projet"),
		Institution:       r.FormValue("institution"),
	}
	if v := strings.TrimSpace(r.FormValue("niveau_avancement")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			in.NiveauAvancement = &n
		}
	}
	if v := strings.TrimSpace(r.FormValue("budget_estime")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			in.BudgetEstime = &f
		}
	}
	if v := strings.TrimSpace(r.FormValue("date_debut")); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			in.DateDebut = &t
		}
	}
	if v := strings.TrimSpace(r.FormValue("date_fin")); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			in.DateFin = &t
		}
	}
	return in
}

func queryID(r *http.Request) (uint, bool) {
	id64, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id64), true
}

func (h *CandidateHandler) create(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "project_form", map[string]any{"User": u})
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
	if _, err := h.Projects.Create(u, formInput(r)); err != nil {
		renderTemplate(w, r, "project_form", map[string]any{"User": u, "Error": err.Error()})
		return
	}
	middleware.Flash(w, r, "project_created")
	http.Redirect(w, r, "/candidate/projects", statusSeeOther)
}

func (h *CandidateHandler) view(w http.ResponseWriter, r *http.Request) {
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

func (h *CandidateHandler) edit(w http.ResponseWriter, r *http.Request) {
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
	http.Redirect(w, r, "/candidate/projects", statusSeeOther)
}

func (h *CandidateHandler) delete(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, ok := queryID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_project_id", nil)
		return
	}
	if err := h.Projects.Delete(u, id); err != nil {
		writeServiceError(w, err)
		return
	}
	middleware.Flash(w, r, "project_deleted")
	http.Redirect(w, r, "/candidate/projects", statusSeeOther)
}

// participants: POST sur les externes de son propre projet.
func (h *CandidateHandler) participants(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, ok := queryID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_project_id", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	if _, err := h.Projects.SetExternalParticipants(u, id, r.FormValue("autres_participants")); err != nil {
		writeServiceError(w, err)
		return
	}
	http.Redirect(w, r, "/candidate/projects/view?id="+strconv.FormatUint(uint64(id), 10), statusSeeOther)
}

func (h *CandidateHandler) completeProfile(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.Users)
	if err != nil {
		http.Redirect(w, r, "/login", statusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "complete_profile", map[string]any{"User": u})
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
	_, err = h.Users.CompleteProfile(u.ID, services.ProfileInput{
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
	middleware.Flash(w, r, "profile_completed")
	http.Redirect(w, r, "/candidate/dashboard", statusSeeOther)
}
