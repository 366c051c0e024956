package services

import (
	"fmt"
	"testing"

	"github.com/diewo77/cartographie/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ResearchProject{}, &models.Domaine{}, &models.AppConfig{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	u := models.User{ID: uuid.NewString(), Email: email, Role: role, Active: true}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return &u
}

func seedProject(t *testing.T, db *gorm.DB, owner *models.User, titre, statut string) *models.ResearchProject {
	t.Helper()
	avancement := 0
	p := models.ResearchProject{
		TitreProjet:      titre,
		StatutProjet:     statut,
		NiveauAvancement: &avancement,
		ProprietaireID:   owner.ID,
		DomaineRecherche: "Non spécifié",
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed project %s: %v", titre, err)
	}
	return &p
}
