package models

// AppConfig est un singleton (id=1) portant les réglages applicatifs
// modifiables par un administrateur.
type AppConfig struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	SiteName         string `gorm:"size:255" json:"site_name"`
	ContactEmail     string `gorm:"size:255" json:"contact_email"`
	MaintenanceMode  bool   `json:"maintenance_mode"`
	RegistrationOpen bool   `json:"registration_open"`
	Version          string `gorm:"size:32" json:"version"`
}

// DefaultAppConfig retourne la configuration initiale installée au premier
// démarrage.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		ID:               1,
		SiteName:         "Plateforme Cartographie",
		ContactEmail:     "admin@esmt.sn",
		MaintenanceMode:  false,
		RegistrationOpen: true,
		Version:          "1.0.0",
	}
}
