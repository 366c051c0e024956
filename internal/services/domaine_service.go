package services

import (
	"errors"
	"strings"

	"github.com/diewo77/cartographie/internal/models"
	"gorm.io/gorm"
)

var ErrDomaineTaken = errors.New("domaine_already_exists")

type DomaineService struct{ DB *gorm.DB }

func NewDomaineService(db *gorm.DB) *DomaineService { return &DomaineService{DB: db} }

// List retourne les domaines avec leur nombre de projets rattachés.
func (s *DomaineService) List() ([]models.Domaine, error) {
	var domaines []models.Domaine
	if err := s.DB.Order("nom ASC").Find(&domaines).Error; err != nil {
		return nil, err
	}
	for i := range domaines {
		var count int64
		err := s.DB.Model(&models.ResearchProject{}).
			Where("domaine_recherche = ?", domaines[i].Nom).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		domaines[i].NbProjets = count
	}
	return domaines, nil
}

// Create ajoute un domaine, le nom est unique.
func (s *DomaineService) Create(nom, description string) (*models.Domaine, error) {
	nom = strings.TrimSpace(nom)
	if nom == "" {
		return nil, errors.New("missing_domaine_name")
	}
	var count int64
	if err := s.DB.Model(&models.Domaine{}).Where("nom = ?", nom).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDomaineTaken
	}
	d := models.Domaine{Nom: nom, Description: strings.TrimSpace(description)}
	if err := s.DB.Create(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// Delete supprime un domaine. Les projets gardent leur champ texte.
func (s *DomaineService) Delete(id uint) error {
	res := s.DB.Delete(&models.Domaine{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
