package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/cartographie/internal/httpx"
	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/policy"
	"github.com/diewo77/cartographie/internal/services"
)

// ProjectAPIHandler expose l'API JSON des projets de recherche.
type ProjectAPIHandler struct {
	Projects *services.ProjectService
	Stats    *services.StatsService
	Users    *services.UserService
}

func NewProjectAPIHandler(projects *services.ProjectService, stats *services.StatsService, users *services.UserService) *ProjectAPIHandler {
	return &ProjectAPIHandler{Projects: projects, Stats: stats, Users: users}
}

// projectPayload est le corps JSON attendu en création et en mise à jour.
type projectPayload struct {
	TitreProjet       string   `json:"titre_projet"`
	Description       string   `json:"description"`
	DomaineRecherche  string   `json:"domaine_recherche"`
	StatutProjet      string   `json:"statut_projet"`
	NiveauAvancement  *int     `json:"niveau_avancement"`
	ResponsableProjet string   `json:"responsable_projet"`
	Institution       string   `json:"institution"`
	BudgetEstime      *float64 `json:"budget_estime"`
	DateDebut         string   `json:"date_debut"`
	DateFin           string   `json:"date_fin"`
}

func (p projectPayload) toInput() (services.ProjectInput, error) {
	in := services.ProjectInput{
		TitreProjet:       p.TitreProjet,
		Description:       p.Description,
		DomaineRecherche:  p.DomaineRecherche,
		StatutProjet:      p.StatutProjet,
		NiveauAvancement:  p.NiveauAvancement,
		ResponsableProjet: p.ResponsableProjet,
		Institution:       p.Institution,
		BudgetEstime:      p.BudgetEstime,
	}
	if p.DateDebut != "" {
		t, err := time.ParseInLocation("2006-01-02", p.DateDebut, time.Local)
		if err != nil {
			return in, errors.New("invalid_date_debut")
		}
		in.DateDebut = &t
	}
	if p.DateFin != "" {
		t, err := time.ParseInLocation("2006-01-02", p.DateFin, time.Local)
		if err != nil {
			return in, errors.New("invalid_date_fin")
		}
		in.DateFin = &t
	}
	return in, nil
}

// writeServiceError traduit les erreurs des services en statuts HTTP.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrAccessDenied):
		httpx.JSONError(w, http.StatusForbidden, "access_denied", nil)
	case errors.Is(err, services.ErrUnauthenticated):
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, services.ErrMissingTitle),
		errors.Is(err, services.ErrInvalidProgress),
		errors.Is(err, services.ErrInvalidDates),
		errors.Is(err, policy.ErrUnknownStatus),
		errors.Is(err, policy.ErrUnknownRole):
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func (h *ProjectAPIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/projects", h.collection)
	mux.HandleFunc("/api/projects/", h.item)
}

func (h *ProjectAPIHandler) collection(w http.ResponseWriter, r *http.Request) {
	requester, err := currentUser(r, h.Users)
	if err != nil {
		writeServiceError(w, services.ErrUnauthenticated)
		return
	}
	switch r.Method {
	case http.MethodGet:
		if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
			projects, err := h.Projects.Search(requester, q)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			httpx.JSON(w, http.StatusOK, projects)
			return
		}
		projects, err := h.Projects.Visible(requester)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, projects)
	case http.MethodPost:
		var payload projectPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		in, err := payload.toInput()
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		p, err := h.Projects.Create(requester, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, p)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *ProjectAPIHandler) item(w http.ResponseWriter, r *http.Request) {
	requester, err := currentUser(r, h.Users)
	if err != nil {
		writeServiceError(w, services.ErrUnauthenticated)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	switch {
	case rest == "dashboard":
		h.dashboard(w, r, requester)
		return
	case strings.HasPrefix(rest, "status/"):
		h.byStatus(w, r, requester, strings.TrimPrefix(rest, "status/"))
		return
	}
	id64, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_project_id", nil)
		return
	}
	id := uint(id64)
	switch r.Method {
	case http.MethodGet:
		p, err := h.Projects.Get(requester, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, p)
	case http.MethodPut:
		var payload projectPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		in, err := payload.toInput()
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		p, err := h.Projects.Update(requester, id, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := h.Projects.Delete(requester, id); err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		w.Header().Set("Allow", "GET,PUT,DELETE")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

// byStatus: GET /api/projects/status/{statut} – gestionnaires et admins.
func (h *ProjectAPIHandler) byStatus(w http.ResponseWriter, r *http.Request, requester *models.User, raw string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	st, err := policy.ParseStatus(raw)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "unknown_status", nil)
		return
	}
	projects, err := h.Projects.ByStatus(requester, st)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, projects)
}

// dashboard: GET /api/projects/dashboard – statistiques globales.
func (h *ProjectAPIHandler) dashboard(w http.ResponseWriter, r *http.Request, requester *models.User) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	role, err := policy.ParseRole(requester.Role)
	if err != nil || role == policy.RoleCandidat {
		httpx.JSONError(w, http.StatusForbidden, "access_denied", nil)
		return
	}
	stats, err := h.Stats.Advanced()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
