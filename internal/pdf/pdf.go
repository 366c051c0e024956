// Package pdf génère les exports PDF de la plateforme : fiche projet et
// rapport de statistiques.
package pdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/services"
)

var (
	headerColor = props.Color{Red: 41, Green: 84, Blue: 144}
	labelColor  = props.Color{Red: 90, Green: 90, Blue: 90}
)

func newDoc() core.Maroto {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()
	return maroto.New(cfg)
}

func titleRow(s string) core.Row {
	return row.New(14).Add(
		text.NewCol(12, s, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
			Color: &headerColor,
		}),
	)
}

func sectionRow(s string) core.Row {
	return row.New(10).Add(
		text.NewCol(12, s, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Color: &headerColor,
			Top:   2,
		}),
	)
}

func infoRow(label, value string) core.Row {
	if value == "" {
		value = "-"
	}
	return row.New(7).Add(
		text.NewCol(4, label, props.Text{Size: 10, Style: fontstyle.Bold, Color: &labelColor}),
		text.NewCol(8, value, props.Text{Size: 10}),
	)
}

func textRows(content string) []core.Row {
	var rows []core.Row
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		rows = append(rows, row.New(5).Add(text.NewCol(12, line, props.Text{Size: 10})))
	}
	return rows
}

func footerRow(now time.Time) core.Row {
	return row.New(8).Add(
		text.NewCol(12, fmt.Sprintf("Document généré le %s", now.Format("02/01/2006 à 15:04")), props.Text{
			Size:  8,
			Align: align.Center,
			Color: &labelColor,
			Top:   3,
		}),
	)
}

// ProjectPDF construit la fiche d'un projet de recherche.
func ProjectPDF(p *models.ResearchProject) ([]byte, error) {
	m := newDoc()
	m.AddRows(titleRow("Fiche Projet de Recherche"))
	m.AddRows(sectionRow(p.TitreProjet))

	proprietaire := ""
	if p.Proprietaire != nil {
		proprietaire = fmt.Sprintf("%s (%s)", p.Proprietaire.FullName(), p.Proprietaire.Email)
	}
	avancement := "-"
	if p.NiveauAvancement != nil {
		avancement = fmt.Sprintf("%d %%", *p.NiveauAvancement)
	}
	budget := "-"
	if p.BudgetEstime != nil {
		budget = fmt.Sprintf("%.0f FCFA", *p.BudgetEstime)
	}
	m.AddRows(
		infoRow("Propriétaire", proprietaire),
		infoRow("Domaine de recherche", p.DomaineRecherche),
		infoRow("Institution", p.Institution),
		infoRow("Responsable", p.ResponsableProjet),
		infoRow("Statut", p.StatutLisible()),
		infoRow("Avancement", avancement),
		infoRow("Budget estimé", budget),
		infoRow("Date de début", formatDate(p.DateDebut)),
		infoRow("Date de fin", formatDate(p.DateFin)),
	)

	if strings.TrimSpace(p.ListeParticipants) != "" {
		m.AddRows(sectionRow("Participants"))
		m.AddRows(textRows(p.ListeParticipants)...)
	}
	if strings.TrimSpace(p.Description) != "" {
		m.AddRows(sectionRow("Description"))
		m.AddRows(textRows(p.Description)...)
	}
	m.AddRows(footerRow(time.Now()))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf projet: %w", err)
	}
	return doc.GetBytes(), nil
}

// StatisticsPDF construit le rapport de statistiques globales.
func StatisticsPDF(stats *services.AdvancedStats, now time.Time) ([]byte, error) {
	m := newDoc()
	m.AddRows(titleRow("Rapport de Statistiques"))
	m.AddRows(row.New(7).Add(
		text.NewCol(12, now.Format("02/01/2006"), props.Text{Size: 10, Align: align.Center, Color: &labelColor}),
	))

	m.AddRows(sectionRow("Projets"))
	m.AddRows(
		infoRow("Total des projets", fmt.Sprintf("%d", stats.TotalProjets)),
		infoRow("En cours", fmt.Sprintf("%d", stats.ProjetsEnCours)),
		infoRow("Suspendus", fmt.Sprintf("%d", stats.ProjetsSuspendus)),
		infoRow("Terminés", fmt.Sprintf("%d", stats.ProjetsTermines)),
		infoRow("En retard", fmt.Sprintf("%d", stats.ProjetsEnRetard)),
		infoRow("Avancement moyen", fmt.Sprintf("%.1f %%", stats.AvancementMoyen)),
		infoRow("Budget total", fmt.Sprintf("%.0f FCFA", stats.BudgetTotal)),
	)

	m.AddRows(sectionRow("Utilisateurs"))
	m.AddRows(
		infoRow("Total des comptes", fmt.Sprintf("%d", stats.TotalUtilisateurs)),
		infoRow("Administrateurs", fmt.Sprintf("%d", stats.Admins)),
		infoRow("Gestionnaires", fmt.Sprintf("%d", stats.Gestionnaires)),
		infoRow("Candidats", fmt.Sprintf("%d", stats.Candidats)),
	)

	m.AddRows(sectionRow("Répartition par domaine"))
	for _, kc := range stats.ProjetsParDomaine {
		part := 0.0
		if stats.TotalProjets > 0 {
			part = float64(kc.Count) * 100 / float64(stats.TotalProjets)
		}
		m.AddRows(infoRow(kc.Key, fmt.Sprintf("%d projet(s) - %.1f %%", kc.Count, part)))
	}

	m.AddRows(sectionRow("Budget par domaine"))
	for _, ks := range stats.BudgetParDomaine {
		m.AddRows(infoRow(ks.Key, fmt.Sprintf("%.0f FCFA", ks.Sum)))
	}

	m.AddRows(sectionRow("Évolution sur 12 mois"))
	for _, mc := range stats.ProjetsParMois {
		m.AddRows(infoRow(mc.Label, fmt.Sprintf("%d nouveau(x) projet(s)", mc.Count)))
	}

	if len(stats.ProjetsParPorteur) > 0 {
		m.AddRows(sectionRow("Porteurs de projets"))
		top := stats.ProjetsParPorteur
		if len(top) > 10 {
			top = top[:10]
		}
		for _, oc := range top {
			m.AddRows(infoRow(fmt.Sprintf("%s (%s)", oc.Nom, oc.Email), fmt.Sprintf("%d projet(s)", oc.Count)))
		}
	}
	m.AddRows(footerRow(now))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf statistiques: %w", err)
	}
	return doc.GetBytes(), nil
}

// Filename produit un nom de fichier sûr pour l'en-tête Content-Disposition.
func Filename(prefix, name string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return prefix + ".pdf"
	}
	return prefix + "_" + sb.String() + ".pdf"
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02/01/2006")
}
