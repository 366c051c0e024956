package services

import (
	"errors"
	"testing"
	"time"

	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/policy"
)

func TestProjectCreateDefaults(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewProjectService(db)
	candidat := seedUser(t, db, "cand@esmt.sn", string(policy.RoleCandidat))

	p, err := svc.Create(candidat, ProjectInput{TitreProjet: "  Cartographie des sols  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.TitreProjet != "Cartographie des sols" {
		t.Errorf("titre = %q", p.TitreProjet)
	}
	if p.StatutProjet != models.StatusEnCours {
		t.Errorf("statut = %q, attendu EN_COURS", p.StatutProjet)
	}
	if p.NiveauAvancement == nil || *p.NiveauAvancement != 0 {
		t.Errorf("avancement = %v, attendu 0", p.NiveauAvancement)
	}
	if p.DomaineRecherche != "Non spécifié" {
		t.Errorf("domaine = %q", p.DomaineRecherche)
	}
	if p.ProprietaireID != candidat.ID {
		t.Errorf("proprietaire = %q", p.ProprietaireID)
	}
}

func TestProjectCreateValidation(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewProjectService(db)
	candidat := seedUser(t, db, "cand@esmt.sn", string(policy.RoleCandidat))

	if _, err := svc.Create(candidat, ProjectInput{TitreProjet: "   "}); !errors.Is(err, ErrMissingTitle) {
		t.Errorf("titre vide: err = %v", err)
	}
	bad := 150
	if _, err := svc.Create(candidat, ProjectInput{TitreProjet: "X", NiveauAvancement: &bad}); !errors.Is(err, ErrInvalidProgress) {
		t.Errorf("avancement 150: err = %v", err)
	}
	debut := time.Date(2026, 6, 1, 0, 0, 0, 0, time.Local)
	fin := time.Date(2026, 5, 1, 0, 0, 0, 0, time.Local)
	if _, err := svc.Create(candidat, ProjectInput{TitreProjet: "X", DateDebut: &debut, DateFin: &fin}); !errors.Is(err, ErrInvalidDates) {
		t.Errorf("fin avant début: err = %v", err)
	}
	if _, err := svc.Create(nil, ProjectInput{TitreProjet: "X"}); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("sans requester: err = %v", err)
	}
}

func TestProjectVisibilityByRole(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewProjectService(db)
	admin := seedUser(t, db, "admin@esmt.sn", string(policy.RoleAdmin))
	gest := seedUser(t, db, "gest@esmt.sn", string(policy.RoleGestionnaire))
	c1 := seedUser(t, db, "c1@esmt.sn", string(policy.RoleCandidat))
	c2 := seedUser(t, db, "c2@esmt.sn", string(policy.RoleCandidat))
	seedProject(t, db, c1, "P1", models.StatusEnCours)
	seedProject(t, db, c2, "P2", models.StatusEnCours)

	for _, u := range []*models.User{admin, gest} {
		got, err := svc.Visible(u)
		if err != nil {
			t.Fatalf("visible(%s): %v", u.Role, err)
		}
		if len(got) != 2 {
			t.Errorf("visible(%s) = %d projets, attendu 2", u.Role, len(got))
		}
	}
	got, err := svc.Visible(c1)
	if err != nil {
		t.Fatalf("visible(candidat): %v", err)
	}
	if len(got) != 1 || got[0].TitreProjet != "P1" {
		t.Errorf("le candidat ne doit voir que ses projets, vu %d", len(got))
	}
}

func TestProjectGetAccessDenied(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewProjectService(db)
	c1 := seedUser(t, db, "c1@esmt.sn", string(policy.RoleCandidat))
	c2 := seedUser(t, db, "c2@esmt.sn", string(policy.RoleCandidat))
	p := seedProject(t, db, c1, "P1", models.StatusEnCours)

	if _, err := svc.Get(c2, p.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("candidat sur projet d'autrui: err = %v", err)
	}
	if _, err := svc.Get(c1, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("projet inexistant: err = %v", err)
	}
}

func TestProjectUpdateTermineBlocked(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewProjectService(db)
	gest := seedUser(t, db, "gest@esmt.sn", string(policy.RoleGestionnaire))
	c1 := seedUser(t, db, "c1@esmt.sn", string(policy.RoleCandidat))
	p := seedProject(t, db, c1, "P1", models.StatusTermine)

	if _, err := svc.Update(c1, p.ID, ProjectInput{TitreProjet: "P1 bis"}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("propriétaire sur projet terminé: err = %v", err)
	}
	got, err := svc.Update(gest, p.ID, ProjectInput{TitreProjet: "P1 bis", StatutProjet: "EN_COURS"})
	if err != nil {
		t.Fatalf("gestionnaire sur projet terminé: %v", err)
	}
	if got.TitreProjet != "P1 bis" || got.StatutProjet != models.StatusEnCours {
		t.Errorf("update gestionnaire: %q / %q", got.TitreProjet, got.StatutProjet)
	}
}

func TestProjectDelete(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewProjectService(db)
	c1 := seedUser(t, db, "c1@esmt.sn", string(policy.RoleCandidat))
	c2 := seedUser(t, db, "c2@esmt.sn", string(policy.RoleCandidat))
	p := seedProject(t, db, c1, "P1", models.StatusEnCours)

	if err := svc.Delete(c2, p.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("suppression par autrui: err = %v", err)
	}
	if err := svc.Delete(c1, p.ID); err != nil {
		t.Fatalf("suppression par propriétaire: %v", err)
	}
	if _, err := svc.Get(c1, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("projet supprimé encore présent: err = %v", err)
	}
}

func TestProjectSearchScoped(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewProjectService(db)
	gest := seedUser(t, db, "gest@esmt.sn", string(policy.RoleGestionnaire))
	c1 := seedUser(t, db, "c1@esmt.sn", string(policy.RoleCandidat))
	c2 := seedUser(t, db, "c2@esmt.sn", string(policy.RoleCandidat))
	seedProject(t, db, c1, "Réseaux de capteurs", models.StatusEnCours)
	seedProject(t, db, c2, "Capteurs marins", models.StatusEnCours)
	seedProject(t, db, c2, "Blockchain", models.StatusEnCours)

	got, err := svc.Search(gest, "capteurs")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("gestionnaire: %d résultats, attendu 2", len(got))
	}
	got, err = svc.Search(c1, "capteurs")
	if err != nil {
		t.Fatalf("search candidat: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("candidat: %d résultats, attendu 1 (ses projets seulement)", len(got))
	}
}

func TestFormatParticipants(t *testing.T) {
	members := []models.User{
		{Prenom: "Awa", Nom: "Diop", Email: "awa@esmt.sn"},
		{Prenom: "Moussa", Nom: "Fall", Email: "moussa@esmt.sn"},
	}
	got := FormatParticipants(members, "Dr. Sow (CNRS)")
	want := "Awa Diop (awa@esmt.sn)\nMoussa Fall (moussa@esmt.sn)\n\n--- Externes ---\nDr. Sow (CNRS)"
	if got != want {
		t.Errorf("FormatParticipants =\n%q\nattendu\n%q", got, want)
	}
}

func TestFormatParticipantsEdgeCases(t *testing.T) {
	if got := FormatParticipants(nil, ""); got != "" {
		t.Errorf("vide: %q", got)
	}
	// externes seuls: pas de séparateur
	if got := FormatParticipants(nil, "Dr. Sow"); got != "Dr. Sow" {
		t.Errorf("externes seuls: %q", got)
	}
	// membre sans nom: repli sur l'email
	got := FormatParticipants([]models.User{{Email: "x@esmt.sn"}}, "")
	if got != "x@esmt.sn (x@esmt.sn)" {
		t.Errorf("membre sans nom: %q", got)
	}
}

func TestSetMembersRegeneratesList(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewProjectService(db)
	c1 := seedUser(t, db, "c1@esmt.sn", string(policy.RoleCandidat))
	m := models.User{ID: "m1", Email: "membre@esmt.sn", Prenom: "Awa", Nom: "Diop", Role: string(policy.RoleCandidat), Active: true}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("seed membre: %v", err)
	}
	p := seedProject(t, db, c1, "P1", models.StatusEnCours)

	got, err := svc.SetMembers(c1, p.ID, []string{m.ID})
	if err != nil {
		t.Fatalf("set members: %v", err)
	}
	if got.ListeParticipants != "Awa Diop (membre@esmt.sn)" {
		t.Errorf("liste = %q", got.ListeParticipants)
	}

	got, err = svc.SetExternalParticipants(c1, p.ID, "  Dr. Sow  ")
	if err != nil {
		t.Fatalf("set externes: %v", err)
	}
	want := "Awa Diop (membre@esmt.sn)\n\n--- Externes ---\nDr. Sow"
	if got.ListeParticipants != want {
		t.Errorf("liste = %q, attendu %q", got.ListeParticipants, want)
	}
}

func TestStatsForCandidate(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewProjectService(db)
	c1 := seedUser(t, db, "c1@esmt.sn", string(policy.RoleCandidat))
	for i, st := range []string{models.StatusEnCours, models.StatusSuspendu, models.StatusTermine} {
		p := seedProject(t, db, c1, "P"+st, st)
		av := (i + 1) * 20
		if err := db.Model(p).Update("niveau_avancement", av).Error; err != nil {
			t.Fatalf("update avancement: %v", err)
		}
	}
	// avancement NULL: ignoré par la moyenne
	nullAv := models.ResearchProject{TitreProjet: "Pnull", StatutProjet: models.StatusEnCours, ProprietaireID: c1.ID}
	if err := db.Create(&nullAv).Error; err != nil {
		t.Fatalf("seed null: %v", err)
	}
	st, err := svc.StatsFor(c1.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 4 || st.EnCours != 2 || st.Suspendus != 1 || st.Termines != 1 {
		t.Errorf("compteurs = %+v", st)
	}
	if st.AvancementMoyen != 40.0 {
		t.Errorf("moyenne = %v, attendu 40.0", st.AvancementMoyen)
	}
}
