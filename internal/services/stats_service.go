package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/diewo77/cartographie/internal/models"
	"github.com/diewo77/cartographie/internal/policy"
	"gorm.io/gorm"
)

// KeyCount est une entrée de regroupement ordonnée. Les maps Go ne
// conservant pas l'ordre d'insertion, les regroupements sont des slices.
type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// KeySum porte une somme par clé (budgets par domaine).
type KeySum struct {
	Key string  `json:"key"`
	Sum float64 `json:"sum"`
}

// OwnerCount compte les projets d'un propriétaire.
type OwnerCount struct {
	Nom   string `json:"nom"`
	Email string `json:"email"`
	Count int64  `json:"count"`
}

// MonthCount est un point d'une série mensuelle ("Jan 2026" etc.).
type MonthCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// GlobalStats regroupe les indicateurs du tableau de bord.
type GlobalStats struct {
	TotalProjets      int64        `json:"total_projets"`
	ProjetsEnCours    int64        `json:"projets_en_cours"`
	ProjetsSuspendus  int64        `json:"projets_suspendus"`
	ProjetsTermines   int64        `json:"projets_termines"`
	AvancementMoyen   float64      `json:"avancement_moyen"`
	BudgetTotal       float64      `json:"budget_total"`
	TotalUtilisateurs int64        `json:"total_utilisateurs"`
	Admins            int64        `json:"admins"`
	Gestionnaires     int64        `json:"gestionnaires"`
	Candidats         int64        `json:"candidats"`
	ProjetsParDomaine []KeyCount   `json:"projets_par_domaine"`
	BudgetParDomaine  []KeySum     `json:"budget_par_domaine"`
	ProjetsParPorteur []OwnerCount `json:"projets_par_porteur"`
}

// AdvancedStats ajoute les séries temporelles et les retards.
type AdvancedStats struct {
	GlobalStats
	ProjetsEnRetard         int64        `json:"projets_en_retard"`
	ProjetsParMois          []MonthCount `json:"projets_par_mois"`
	UtilisateursParMois     []MonthCount `json:"utilisateurs_par_mois"`
	UtilisateursParInstitut []KeyCount   `json:"utilisateurs_par_institution"`
}

// Les domaines de substitution affichés quand aucun projet n'est classé,
// pour que les rapports gardent leur mise en page.
var placeholderDomaines = []string{
	"Intelligence Artificielle",
	"Sécurité Informatique",
	"Réseaux et Télécommunications",
}

// moisFr sont les libellés de mois abrégés des séries temporelles.
var moisFr = [12]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Juin", "Juil", "Aoû", "Sep", "Oct", "Nov", "Déc"}

type StatsService struct {
	DB *gorm.DB
	// Now permet aux tests de figer l'horloge.
	Now func() time.Time
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db, Now: time.Now}
}

// Global recalcule les indicateurs à chaque appel, sans cache.
func (s *StatsService) Global() (*GlobalStats, error) {
	var projects []models.ResearchProject
	if err := s.DB.Preload("Proprietaire").Find(&projects).Error; err != nil {
		return nil, err
	}
	var users []models.User
	if err := s.DB.Find(&users).Error; err != nil {
		return nil, err
	}
	g := computeGlobal(projects, users)
	return &g, nil
}

// Advanced complète Global avec retards, séries mensuelles sur 12 mois et
// répartition des utilisateurs par institution.
func (s *StatsService) Advanced() (*AdvancedStats, error) {
	var projects []models.ResearchProject
	if err := s.DB.Preload("Proprietaire").Find(&projects).Error; err != nil {
		return nil, err
	}
	var users []models.User
	if err := s.DB.Find(&users).Error; err != nil {
		return nil, err
	}
	now := s.Now()
	adv := AdvancedStats{GlobalStats: computeGlobal(projects, users)}
	for _, p := range projects {
		if p.EnRetardAt(now) {
			adv.ProjetsEnRetard++
		}
	}
	projDates := make([]time.Time, 0, len(projects))
	for _, p := range projects {
		projDates = append(projDates, p.CreatedAt)
	}
	userDates := make([]time.Time, 0, len(users))
	for _, u := range users {
		userDates = append(userDates, u.CreatedAt)
	}
	adv.ProjetsParMois = monthlySeries(projDates, now)
	adv.UtilisateursParMois = monthlySeries(userDates, now)
	inst := orderedCounter{}
	for _, u := range users {
		if u.Institution != "" {
			inst.add(u.Institution)
		}
	}
	adv.UtilisateursParInstitut = inst.sorted()
	return &adv, nil
}

// Manager calcule le même jeu d'indicateurs restreint aux projets dont le
// gestionnaire identifié par email est propriétaire.
func (s *StatsService) Manager(email string) (*AdvancedStats, error) {
	var owner models.User
	if err := s.DB.Where("email = ?", email).First(&owner).Error; err != nil {
		return nil, ErrNotFound
	}
	var projects []models.ResearchProject
	err := s.DB.Preload("Proprietaire").
		Where("proprietaire_id = ?", owner.ID).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	now := s.Now()
	adv := AdvancedStats{GlobalStats: computeGlobal(projects, nil)}
	for _, p := range projects {
		if p.EnRetardAt(now) {
			adv.ProjetsEnRetard++
		}
	}
	dates := make([]time.Time, 0, len(projects))
	for _, p := range projects {
		dates = append(dates, p.CreatedAt)
	}
	adv.ProjetsParMois = monthlySeries(dates, now)
	return &adv, nil
}

func computeGlobal(projects []models.ResearchProject, users []models.User) GlobalStats {
	g := GlobalStats{TotalProjets: int64(len(projects))}
	var sum, n int
	domaines := orderedCounter{}
	budgets := map[string]float64{}
	porteurs := map[string]*OwnerCount{}
	var porteurOrder []string
	for _, p := range projects {
		switch p.StatutProjet {
		case models.StatusEnCours:
			g.ProjetsEnCours++
		case models.StatusSuspendu:
			g.ProjetsSuspendus++
		case models.StatusTermine:
			g.ProjetsTermines++
		}
		if p.NiveauAvancement != nil {
			sum += *p.NiveauAvancement
			n++
		}
		if p.DomaineRecherche != "" {
			domaines.add(p.DomaineRecherche)
		}
		if p.BudgetEstime != nil {
			g.BudgetTotal += *p.BudgetEstime
			if p.DomaineRecherche != "" {
				budgets[p.DomaineRecherche] += *p.BudgetEstime
			}
		}
		if p.Proprietaire != nil {
			oc, ok := porteurs[p.Proprietaire.Email]
			if !ok {
				oc = &OwnerCount{Nom: p.Proprietaire.FullName(), Email: p.Proprietaire.Email}
				porteurs[p.Proprietaire.Email] = oc
				porteurOrder = append(porteurOrder, p.Proprietaire.Email)
			}
			oc.Count++
		}
	}
	if n > 0 {
		g.AvancementMoyen = round1(float64(sum) / float64(n))
	}
	for _, u := range users {
		g.TotalUtilisateurs++
		switch u.Role {
		case string(policy.RoleAdmin):
			g.Admins++
		case string(policy.RoleGestionnaire):
			g.Gestionnaires++
		case string(policy.RoleCandidat):
			g.Candidats++
		}
	}
	g.ProjetsParDomaine = domaines.sorted()
	if len(g.ProjetsParDomaine) == 0 {
		for _, d := range placeholderDomaines {
			g.ProjetsParDomaine = append(g.ProjetsParDomaine, KeyCount{Key: d})
		}
	}
	for _, kc := range g.ProjetsParDomaine {
		if s, ok := budgets[kc.Key]; ok {
			g.BudgetParDomaine = append(g.BudgetParDomaine, KeySum{Key: kc.Key, Sum: s})
		} else {
			g.BudgetParDomaine = append(g.BudgetParDomaine, KeySum{Key: kc.Key})
		}
	}
	for _, email := range porteurOrder {
		g.ProjetsParPorteur = append(g.ProjetsParPorteur, *porteurs[email])
	}
	sort.SliceStable(g.ProjetsParPorteur, func(i, j int) bool {
		return g.ProjetsParPorteur[i].Count > g.ProjetsParPorteur[j].Count
	})
	return g
}

// monthlySeries compte les dates par mois sur les 12 derniers mois, mois
// vides inclus, du plus ancien au plus récent.
func monthlySeries(dates []time.Time, now time.Time) []MonthCount {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local).AddDate(0, -11, 0)
	series := make([]MonthCount, 12)
	index := map[string]int{}
	for i := 0; i < 12; i++ {
		m := start.AddDate(0, i, 0)
		label := fmt.Sprintf("%s %d", moisFr[m.Month()-1], m.Year())
		series[i] = MonthCount{Label: label}
		index[monthKey(m)] = i
	}
	for _, d := range dates {
		if i, ok := index[monthKey(d)]; ok {
			series[i].Count++
		}
	}
	return series
}

func monthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// orderedCounter compte par clé en retenant l'ordre d'insertion, puis trie
// par effectif décroissant (ordre d'insertion en cas d'égalité).
type orderedCounter struct {
	keys   []string
	counts map[string]int64
}

func (c *orderedCounter) add(key string) {
	if c.counts == nil {
		c.counts = map[string]int64{}
	}
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key]++
}

func (c *orderedCounter) sorted() []KeyCount {
	out := make([]KeyCount, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, KeyCount{Key: k, Count: c.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
