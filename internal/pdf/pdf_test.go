package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/services"
)

func TestProjectPDFProducesDocument(t *testing.T) {
	av := 45
	budget := 1500000.0
	fin := time.Date(2026, 12, 31, 0, 0, 0, 0, time.Local)
	p := &models.ResearchProject{
		TitreProjet:       "Cartographie des réseaux de capteurs",
		Description:       "Étude de couverture.\nPhase pilote à Dakar.",
		DomaineRecherche:  "Réseaux et Télécommunications",
		StatutProjet:      models.StatusEnCours,
		NiveauAvancement:  &av,
		BudgetEstime:      &budget,
		ListeParticipants: "Awa Diop (awa@esmt.sn)\n\n--- Externes ---\nDr. Sow",
		DateFin:           &fin,
		Proprietaire:      &models.User{Prenom: "Awa", Nom: "Diop", Email: "awa@esmt.sn"},
	}
	data, err := ProjectPDF(p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("pas un document PDF: %q", data[:min(8, len(data))])
	}
}

func TestStatisticsPDFProducesDocument(t *testing.T) {
	stats := &services.AdvancedStats{
		GlobalStats: services.GlobalStats{
			TotalProjets:      3,
			ProjetsEnCours:    2,
			ProjetsTermines:   1,
			AvancementMoyen:   40.0,
			TotalUtilisateurs: 5,
			ProjetsParDomaine: []services.KeyCount{{Key: "IA", Count: 2}, {Key: "Réseaux", Count: 1}},
			BudgetParDomaine:  []services.KeySum{{Key: "IA", Sum: 1000}},
			ProjetsParPorteur: []services.OwnerCount{{Nom: "Awa Diop", Email: "awa@esmt.sn", Count: 3}},
		},
		ProjetsParMois: []services.MonthCount{{Label: "Jan 2026", Count: 1}},
	}
	data, err := StatisticsPDF(stats, time.Date(2026, 8, 30, 10, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("pas un document PDF")
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("projet", "Étude / capteurs #1"); got != "projet_tude__capteurs_1.pdf" {
		t.Errorf("Filename = %q", got)
	}
	if got := Filename("projet", "///"); got != "projet.pdf" {
		t.Errorf("Filename vide = %q", got)
	}
}
