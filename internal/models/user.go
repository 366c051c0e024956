package models

import "time"

// User représente un compte de la plateforme (candidat, gestionnaire ou admin).
// L'ID est un UUID (chaîne) pour rester compatible avec les comptes créés via OAuth.
type User struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255" json:"-"` // hashé bcrypt, jamais exposé en JSON
	Nom      string `gorm:"size:255;index" json:"nom,omitempty"`
	Prenom   string `gorm:"size:255;index" json:"prenom,omitempty"`
	Role     string `gorm:"size:50;not null;index" json:"role"`

	// Profil
	Telephone   string `gorm:"size:50" json:"telephone,omitempty"`
	Institution string `gorm:"size:255" json:"institution,omitempty"`
	Departement string `gorm:"size:255" json:"departement,omitempty"`
	Specialite  string `gorm:"size:255" json:"specialite,omitempty"`
	NiveauEtude string `gorm:"size:255" json:"niveau_etude,omitempty"`
	Bio         string `gorm:"type:text" json:"bio,omitempty"`

	// Connexion OAuth (Google, etc.)
	OauthID  string `gorm:"size:255" json:"-"`
	Provider string `gorm:"size:50" json:"provider,omitempty"`
	Picture  string `gorm:"size:512" json:"picture,omitempty"`

	ProfileCompleted bool `json:"profile_completed"`
	Active           bool `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Projects []ResearchProject `gorm:"many2many:project_members;" json:"-"`
}

// FullName retourne "Prenom Nom" avec repli sur l'un des deux puis l'email.
func (u User) FullName() string {
	switch {
	case u.Prenom != "" && u.Nom != "":
		return u.Prenom + " " + u.Nom
	case u.Nom != "":
		return u.Nom
	case u.Prenom != "":
		return u.Prenom
	default:
		return u.Email
	}
}
