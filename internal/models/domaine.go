package models

// Domaine est une catégorie de recherche référencée par les projets via leur
// champ DomaineRecherche (texte libre recoupé avec cette liste).
type Domaine struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Nom         string `gorm:"uniqueIndex;size:255;not null" json:"nom"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Nombre de projets rattachés, calculé à l'affichage, jamais persisté.
	NbProjets int64 `gorm:"-" json:"nb_projets"`
}
