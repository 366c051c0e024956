package models

import "time"

// Statuts autorisés pour un projet (ensemble fermé, voir policy.ParseStatus).
const (
	StatusEnCours  = "EN_COURS"
	StatusSuspendu = "SUSPENDU"
	StatusTermine  = "TERMINE"
)

// ResearchProject est un projet de recherche déclaré par un candidat.
// Le propriétaire est obligatoire; les membres forment une relation many-to-many
// indépendante, et ListeParticipants est le texte dénormalisé régénéré à chaque
// modification des membres ou des participants externes.
type ResearchProject struct {
	ID                 uint     `gorm:"primaryKey" json:"id"`
	TitreProjet        string   `gorm:"size:255;not null" json:"titre_projet"`
	Description        string   `gorm:"size:2000" json:"description,omitempty"`
	ListeParticipants  string   `gorm:"type:text" json:"liste_participants,omitempty"`
	AutresParticipants string   `gorm:"type:text" json:"autres_participants,omitempty"`
	DomaineRecherche   string   `gorm:"size:255" json:"domaine_recherche,omitempty"`
	StatutProjet       string   `gorm:"size:50;default:'EN_COURS';index" json:"statut_projet"`
	NiveauAvancement   *int     `json:"niveau_avancement,omitempty"`
	ResponsableProjet  string   `gorm:"size:255" json:"responsable_projet,omitempty"`
	Institution        string   `gorm:"size:255" json:"institution,omitempty"`
	BudgetEstime       *float64 `json:"budget_estime,omitempty"`

	ProprietaireID string `gorm:"size:36;not null;index" json:"proprietaire_id"`
	Proprietaire   *User  `gorm:"foreignKey:ProprietaireID" json:"proprietaire,omitempty"`

	DateDebut *time.Time `json:"date_debut,omitempty"`
	DateFin   *time.Time `json:"date_fin,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Members []User `gorm:"many2many:project_members;" json:"members,omitempty"`
}

// Modifiable : un projet terminé n'est plus modifiable par son propriétaire.
func (p ResearchProject) Modifiable() bool {
	return p.StatutProjet != StatusTermine
}

// EnRetard : la date de fin est passée et le projet n'est pas terminé.
// Statut dérivé, jamais stocké.
func (p ResearchProject) EnRetard() bool {
	return p.EnRetardAt(time.Now())
}

// EnRetardAt évalue le retard à une date de référence donnée (testable).
func (p ResearchProject) EnRetardAt(now time.Time) bool {
	if p.DateFin == nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	fin := time.Date(p.DateFin.Year(), p.DateFin.Month(), p.DateFin.Day(), 0, 0, 0, 0, now.Location())
	return fin.Before(today) && p.StatutProjet != StatusTermine
}

// StatutLisible : libellé français des trois statuts.
func (p ResearchProject) StatutLisible() string {
	switch p.StatutProjet {
	case StatusEnCours:
		return "En cours"
	case StatusSuspendu:
		return "Suspendu"
	case StatusTermine:
		return "Terminé"
	default:
		return "Inconnu"
	}
}

// StatutCouleur : classe de badge Bootstrap pour les templates.
func (p ResearchProject) StatutCouleur() string {
	switch p.StatutProjet {
	case StatusEnCours:
		return "primary"
	case StatusSuspendu:
		return "warning text-dark"
	case StatusTermine:
		return "success"
	default:
		return "secondary"
	}
}

// ResumeCourt tronque la description à ~120 caractères pour les listes.
func (p ResearchProject) ResumeCourt() string {
	if p.Description == "" {
		return "Aucune description"
	}
	if len(p.Description) <= 120 {
		return p.Description
	}
	return p.Description[:117] + "..."
}
