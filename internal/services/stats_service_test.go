package services

import (
	"testing"
	"time"

	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalStatsEmpty(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewStatsService(db)

	g, err := svc.Global()
	require.NoError(t, err)
	assert.Zero(t, g.TotalProjets)
	assert.Zero(t, g.AvancementMoyen)
	// domaines de substitution pour préserver la mise en page des rapports
	require.Len(t, g.ProjetsParDomaine, 3)
	assert.Equal(t, "Intelligence Artificielle", g.ProjetsParDomaine[0].Key)
	assert.Equal(t, "Sécurité Informatique", g.ProjetsParDomaine[1].Key)
	assert.Equal(t, "Réseaux et Télécommunications", g.ProjetsParDomaine[2].Key)
	for _, kc := range g.ProjetsParDomaine {
		assert.Zero(t, kc.Count)
	}
}

func TestGlobalStatsCounts(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewStatsService(db)
	seedUser(t, db, "admin@esmt.sn", string(policy.RoleAdmin))
	c1 := seedUser(t, db, "c1@esmt.sn", string(policy.RoleCandidat))

	mk := func(titre, statut, domaine string, av *int, budget *float64) {
		p := models.ResearchProject{TitreProjet: titre, StatutProjet: statut, DomaineRecherche: domaine, NiveauAvancement: av, BudgetEstime: budget, ProprietaireID: c1.ID}
		require.NoError(t, db.Create(&p).Error)
	}
	iv := func(v int) *int { return &v }
	fv := func(v float64) *float64 { return &v }

	mk("A", models.StatusEnCours, "IA", iv(20), fv(1000))
	mk("B", models.StatusEnCours, "IA", iv(40), fv(500))
	mk("C", models.StatusSuspendu, "Réseaux", nil, nil)
	mk("D", models.StatusTermine, "Réseaux", iv(60), fv(2000))

	g, err := svc.Global()
	require.NoError(t, err)
	assert.Equal(t, int64(4), g.TotalProjets)
	assert.Equal(t, int64(2), g.ProjetsEnCours)
	assert.Equal(t, int64(1), g.ProjetsSuspendus)
	assert.Equal(t, int64(1), g.ProjetsTermines)
	// moyenne sur les valeurs non nulles, arrondie à une décimale
	assert.Equal(t, 40.0, g.AvancementMoyen)
	assert.Equal(t, 3500.0, g.BudgetTotal)
	assert.Equal(t, int64(2), g.TotalUtilisateurs)
	assert.Equal(t, int64(1), g.Admins)
	assert.Equal(t, int64(1), g.Candidats)

	require.Len(t, g.ProjetsParDomaine, 2)
	assert.Equal(t, KeyCount{Key: "IA", Count: 2}, g.ProjetsParDomaine[0])
	assert.Equal(t, KeyCount{Key: "Réseaux", Count: 2}, g.ProjetsParDomaine[1])
	require.Len(t, g.BudgetParDomaine, 2)
	assert.Equal(t, 1500.0, g.BudgetParDomaine[0].Sum)
	assert.Equal(t, 2000.0, g.BudgetParDomaine[1].Sum)
	require.Len(t, g.ProjetsParPorteur, 1)
	assert.Equal(t, int64(4), g.ProjetsParPorteur[0].Count)
}

func TestAvancementMoyenArrondi(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewStatsService(db)
	c1 := seedUser(t, db, "c1@esmt.sn", string(policy.RoleCandidat))
	for _, v := range []int{10, 15, 20} {
		av := v
		p := models.ResearchProject{TitreProjet: "P", StatutProjet: models.StatusEnCours, NiveauAvancement: &av, ProprietaireID: c1.ID}
		require.NoError(t, db.Create(&p).Error)
	}
	g, err := svc.Global()
	require.NoError(t, err)
	assert.Equal(t, 15.0, g.AvancementMoyen)
}

func TestAdvancedStatsMonthlySeries(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewStatsService(db)
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.Local)
	svc.Now = func() time.Time { return now }
	c1 := seedUser(t, db, "c1@esmt.sn", string(policy.RoleCandidat))

	mkAt := func(titre string, created time.Time) {
		p := models.ResearchProject{TitreProjet: titre, StatutProjet: models.StatusEnCours, ProprietaireID: c1.ID}
		require.NoError(t, db.Create(&p).Error)
		require.NoError(t, db.Model(&p).Update("created_at", created).Error)
	}
	mkAt("ce mois", time.Date(2026, 8, 2, 0, 0, 0, 0, time.Local))
	mkAt("il y a trois mois", time.Date(2026, 5, 20, 0, 0, 0, 0, time.Local))
	mkAt("hors fenêtre", time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local))

	adv, err := svc.Advanced()
	require.NoError(t, err)
	require.Len(t, adv.ProjetsParMois, 12)
	assert.Equal(t, "Sep 2025", adv.ProjetsParMois[0].Label)
	assert.Equal(t, "Aoû 2026", adv.ProjetsParMois[11].Label)
	assert.Equal(t, int64(1), adv.ProjetsParMois[11].Count)
	// mai 2026 est en position 8
	assert.Equal(t, "Mai 2026", adv.ProjetsParMois[8].Label)
	assert.Equal(t, int64(1), adv.ProjetsParMois[8].Count)

	var total int64
	for _, m := range adv.ProjetsParMois {
		total += m.Count
	}
	// le projet hors fenêtre n'apparaît pas
	assert.Equal(t, int64(2), total)
}

func TestAdvancedStatsOverdue(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewStatsService(db)
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.Local)
	svc.Now = func() time.Time { return now }
	c1 := seedUser(t, db, "c1@esmt.sn", string(policy.RoleCandidat))

	mkFin := func(titre, statut string, fin time.Time) {
		p := models.ResearchProject{TitreProjet: titre, StatutProjet: statut, DateFin: &fin, ProprietaireID: c1.ID}
		require.NoError(t, db.Create(&p).Error)
	}
	mkFin("échu", models.StatusEnCours, time.Date(2026, 8, 14, 0, 0, 0, 0, time.Local))
	mkFin("échu aujourd'hui", models.StatusEnCours, time.Date(2026, 8, 15, 0, 0, 0, 0, time.Local))
	mkFin("terminé échu", models.StatusTermine, time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local))

	adv, err := svc.Advanced()
	require.NoError(t, err)
	// la date de fin du jour même n'est pas un retard, un projet terminé non plus
	assert.Equal(t, int64(1), adv.ProjetsEnRetard)
}

func TestManagerStats(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewStatsService(db)
	gest := seedUser(t, db, "gest@esmt.sn", string(policy.RoleGestionnaire))
	c1 := seedUser(t, db, "c1@esmt.sn", string(policy.RoleCandidat))
	seedProject(t, db, gest, "PG", models.StatusEnCours)
	seedProject(t, db, c1, "PC", models.StatusEnCours)

	adv, err := svc.Manager("gest@esmt.sn")
	require.NoError(t, err)
	assert.Equal(t, int64(1), adv.TotalProjets)

	_, err = svc.Manager("inconnu@esmt.sn")
	assert.ErrorIs(t, err, ErrNotFound)
}
