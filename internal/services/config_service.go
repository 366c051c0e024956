package services

import (
	"errors"

	"github.com/diewo77/cartographie/internal/models"
	"gorm.io/gorm"
)

type ConfigService struct{ DB *gorm.DB }

func NewConfigService(db *gorm.DB) *ConfigService { return &ConfigService{DB: db} }

// Get retourne la configuration applicative, en l'initialisant aux valeurs
// par défaut si elle n'existe pas encore.
func (s *ConfigService) Get() (*models.AppConfig, error) {
	var cfg models.AppConfig
	err := s.DB.First(&cfg, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cfg = models.DefaultAppConfig()
		if err := s.DB.Create(&cfg).Error; err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Update remplace la configuration. L'id est forcé à 1 : il n'existe qu'un
// seul enregistrement.
func (s *ConfigService) Update(in models.AppConfig) (*models.AppConfig, error) {
	if _, err := s.Get(); err != nil {
		return nil, err
	}
	in.ID = 1
	if err := s.DB.Save(&in).Error; err != nil {
		return nil, err
	}
	return &in, nil
}
