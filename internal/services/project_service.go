package services

import (
	"errors"
	"strings"
	"time"

	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/policy"
	"gorm.io/gorm"
)

// ProjectInput porte les champs modifiables d'un projet. Les pointeurs
// distinguent "absent" de "vide" pour les champs optionnels.
type ProjectInput struct {
	TitreProjet       string
	Description       string
	DomaineRecherche  string
	StatutProjet      string
	NiveauAvancement  *int
	ResponsableProjet string
	Institution       string
	BudgetEstime      *float64
	DateDebut         *time.Time
	DateFin           *time.Time
}

type ProjectService struct{ DB *gorm.DB }

func NewProjectService(db *gorm.DB) *ProjectService { return &ProjectService{DB: db} }

// Visible retourne les projets consultables par requester : tous pour un
// admin ou un gestionnaire, les siens pour un candidat.
func (s *ProjectService) Visible(requester *models.User) ([]models.ResearchProject, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	q := s.DB.Preload("Proprietaire").Preload("Members").Order("created_at DESC")
	if requester.Role == string(policy.RoleCandidat) {
		q = q.Where("proprietaire_id = ?", requester.ID)
	}
	var projects []models.ResearchProject
	if err := q.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Get charge un projet et vérifie le droit de consultation.
func (s *ProjectService) Get(requester *models.User, id uint) (*models.ResearchProject, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	var p models.ResearchProject
	err := s.DB.Preload("Proprietaire").Preload("Members").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	role, _ := policy.ParseRole(requester.Role)
	if !policy.CanView(role, requester.ID, p.ProprietaireID) {
		return nil, ErrAccessDenied
	}
	return &p, nil
}

// Create enregistre un nouveau projet dont requester devient propriétaire.
// Les valeurs par défaut sont posées ici : statut EN_COURS, avancement 0,
// domaine "Non spécifié".
func (s *ProjectService) Create(requester *models.User, in ProjectInput) (*models.ResearchProject, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(in.TitreProjet) == "" {
		return nil, ErrMissingTitle
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	p := models.ResearchProject{
		TitreProjet:       strings.TrimSpace(in.TitreProjet),
		Description:       in.Description,
		DomaineRecherche:  strings.TrimSpace(in.DomaineRecherche),
		StatutProjet:      models.StatusEnCours,
		ResponsableProjet: in.ResponsableProjet,
		Institution:       in.Institution,
		BudgetEstime:      in.BudgetEstime,
		ProprietaireID:    requester.ID,
	}
	if in.StatutProjet != "" {
		st, err := policy.ParseStatus(in.StatutProjet)
		if err != nil {
			return nil, err
		}
		p.StatutProjet = string(st)
	}
	avancement := 0
	if in.NiveauAvancement != nil {
		avancement = *in.NiveauAvancement
	}
	p.NiveauAvancement = &avancement
	if p.DomaineRecherche == "" {
		p.DomaineRecherche = "Non spécifié"
	}
	p.DateDebut = in.DateDebut
	p.DateFin = in.DateFin
	if err := s.DB.Create(&p).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Preload("Proprietaire").First(&p, p.ID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Update applique une modification complète au projet. Dernière écriture
// gagnante : aucune détection de modification concurrente.
func (s *ProjectService) Update(requester *models.User, id uint, in ProjectInput) (*models.ResearchProject, error) {
	p, err := s.load(requester, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.TitreProjet) == "" {
		return nil, ErrMissingTitle
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	p.TitreProjet = strings.TrimSpace(in.TitreProjet)
	p.Description = in.Description
	p.DomaineRecherche = strings.TrimSpace(in.DomaineRecherche)
	if p.DomaineRecherche == "" {
		p.DomaineRecherche = "Non spécifié"
	}
	if in.StatutProjet != "" {
		st, err := policy.ParseStatus(in.StatutProjet)
		if err != nil {
			return nil, err
		}
		p.StatutProjet = string(st)
	}
	if in.NiveauAvancement != nil {
		p.NiveauAvancement = in.NiveauAvancement
	}
	p.ResponsableProjet = in.ResponsableProjet
	p.Institution = in.Institution
	p.BudgetEstime = in.BudgetEstime
	p.DateDebut = in.DateDebut
	p.DateFin = in.DateFin
	p.ListeParticipants = FormatParticipants(p.Members, p.AutresParticipants)
	if err := s.DB.Omit("Members").Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Delete supprime un projet après contrôle d'accès.
func (s *ProjectService) Delete(requester *models.User, id uint) error {
	p, err := s.load(requester, id, policy.ActionDelete)
	if err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(p).Association("Members").Clear(); err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
}

// Search filtre les projets visibles sur un mot-clé (titre, domaine,
// institution, responsable, participants).
func (s *ProjectService) Search(requester *models.User, keyword string) ([]models.ResearchProject, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.Visible(requester)
	}
	like := "%" + keyword + "%"
	q := s.DB.Preload("Proprietaire").Preload("Members").
		Where("titre_projet LIKE ? OR domaine_recherche LIKE ? OR institution LIKE ? OR responsable_projet LIKE ? OR liste_participants LIKE ?",
			like, like, like, like, like).
		Order("created_at DESC")
	if requester.Role == string(policy.RoleCandidat) {
		q = q.Where("proprietaire_id = ?", requester.ID)
	}
	var projects []models.ResearchProject
	if err := q.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// ByStatus retourne tous les projets d'un statut donné, pour les vues de
// supervision. Réservé aux gestionnaires et admins.
func (s *ProjectService) ByStatus(requester *models.User, status policy.Status) ([]models.ResearchProject, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	role, err := policy.ParseRole(requester.Role)
	if err != nil || role == policy.RoleCandidat {
		return nil, ErrAccessDenied
	}
	var projects []models.ResearchProject
	err = s.DB.Preload("Proprietaire").
		Where("statut_projet = ?", string(status)).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Overdue retourne les projets en retard (date de fin passée, non terminés)
// parmi les projets visibles.
func (s *ProjectService) Overdue(requester *models.User) ([]models.ResearchProject, error) {
	all, err := s.Visible(requester)
	if err != nil {
		return nil, err
	}
	var late []models.ResearchProject
	for _, p := range all {
		if p.EnRetard() {
			late = append(late, p)
		}
	}
	return late, nil
}

// SetMembers remplace les membres internes du projet et régénère la liste
// dénormalisée des participants.
func (s *ProjectService) SetMembers(requester *models.User, id uint, memberIDs []string) (*models.ResearchProject, error) {
	p, err := s.load(requester, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	var members []models.User
	if len(memberIDs) > 0 {
		if err := s.DB.Where("id IN ?", memberIDs).Find(&members).Error; err != nil {
			return nil, err
		}
	}
	p.Members = members
	p.ListeParticipants = FormatParticipants(members, p.AutresParticipants)
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(p).Association("Members").Replace(members); err != nil {
			return err
		}
		return tx.Model(p).Update("liste_participants", p.ListeParticipants).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SetExternalParticipants remplace le bloc texte des participants externes
// et régénère la liste dénormalisée.
func (s *ProjectService) SetExternalParticipants(requester *models.User, id uint, externes string) (*models.ResearchProject, error) {
	p, err := s.load(requester, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	p.AutresParticipants = strings.TrimSpace(externes)
	p.ListeParticipants = FormatParticipants(p.Members, p.AutresParticipants)
	err = s.DB.Model(p).Updates(map[string]any{
		"autres_participants": p.AutresParticipants,
		"liste_participants":  p.ListeParticipants,
	}).Error
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FormatParticipants construit la liste textuelle affichée sur les fiches :
// une ligne "Prenom Nom (email)" par membre interne, puis un bloc séparé
// "--- Externes ---" si des externes sont renseignés.
func FormatParticipants(members []models.User, externes string) string {
	var sb strings.Builder
	for _, m := range members {
		nom := strings.TrimSpace(strings.TrimSpace(m.Prenom) + " " + strings.TrimSpace(m.Nom))
		if nom == "" {
			nom = m.Email
		}
		sb.WriteString(nom)
		sb.WriteString(" (")
		sb.WriteString(m.Email)
		sb.WriteString(")\n")
	}
	externes = strings.TrimSpace(externes)
	if externes != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n--- Externes ---\n")
		}
		sb.WriteString(externes)
	}
	return strings.TrimSpace(sb.String())
}

// CandidateStats résume les projets d'un candidat pour son tableau de bord.
type CandidateStats struct {
	Total           int64   `json:"total"`
	EnCours         int64   `json:"en_cours"`
	Suspendus       int64   `json:"suspendus"`
	Termines        int64   `json:"termines"`
	EnRetard        int64   `json:"en_retard"`
	AvancementMoyen float64 `json:"avancement_moyen"`
}

// StatsFor calcule les compteurs du tableau de bord candidat.
func (s *ProjectService) StatsFor(ownerID string) (*CandidateStats, error) {
	var projects []models.ResearchProject
	if err := s.DB.Where("proprietaire_id = ?", ownerID).Find(&projects).Error; err != nil {
		return nil, err
	}
	st := &CandidateStats{}
	var sum, n int
	for _, p := range projects {
		st.Total++
		switch p.StatutProjet {
		case models.StatusEnCours:
			st.EnCours++
		case models.StatusSuspendu:
			st.Suspendus++
		case models.StatusTermine:
			st.Termines++
		}
		if p.EnRetard() {
			st.EnRetard++
		}
		if p.NiveauAvancement != nil {
			sum += *p.NiveauAvancement
			n++
		}
	}
	if n > 0 {
		st.AvancementMoyen = round1(float64(sum) / float64(n))
	}
	return st, nil
}

func (s *ProjectService) load(requester *models.User, id uint, action policy.Action) (*models.ResearchProject, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	var p models.ResearchProject
	err := s.DB.Preload("Members").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	role, err := policy.ParseRole(requester.Role)
	if err != nil {
		return nil, ErrAccessDenied
	}
	st, _ := policy.ParseStatus(p.StatutProjet)
	if !policy.Can(role, action, requester.ID, p.ProprietaireID, st) {
		return nil, ErrAccessDenied
	}
	return &p, nil
}

func validateInput(in ProjectInput) error {
	if in.NiveauAvancement != nil && (*in.NiveauAvancement < 0 || *in.NiveauAvancement > 100) {
		return ErrInvalidProgress
	}
	if in.DateDebut != nil && in.DateFin != nil && in.DateFin.Before(*in.DateDebut) {
		return ErrInvalidDates
	}
	return nil
}
