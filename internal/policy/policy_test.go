package policy

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		err  bool
	}{
		{"ADMIN", RoleAdmin, false},
		{"admin", RoleAdmin, false},
		{"ROLE_ADMIN", RoleAdmin, false},
		{"role_candidat", RoleCandidat, false},
		{" GESTIONNAIRE ", RoleGestionnaire, false},
		{"SUPERUSER", "", true},
		{"", "", true},
	}
	for _, c := range cases {
		got, err := ParseRole(c.in)
		if c.err {
			if err == nil {
				t.Errorf("ParseRole(%q): erreur attendue", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRole(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseRole(%q) = %q, attendu %q", c.in, got, c.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if st, err := ParseStatus("en_cours"); err != nil || st != StatusEnCours {
		t.Errorf("ParseStatus(en_cours) = %q, %v", st, err)
	}
	if _, err := ParseStatus("ARCHIVE"); err == nil {
		t.Error("ParseStatus(ARCHIVE): erreur attendue")
	}
}

func TestCanView(t *testing.T) {
	cases := []struct {
		name      string
		role      Role
		requester string
		owner     string
		want      bool
	}{
		{"admin voit tout", RoleAdmin, "u1", "u2", true},
		{"gestionnaire voit tout", RoleGestionnaire, "u1", "u2", true},
		{"candidat voit le sien", RoleCandidat, "u1", "u1", true},
		{"candidat ne voit pas les autres", RoleCandidat, "u1", "u2", false},
		{"candidat sans id refusé", RoleCandidat, "", "", false},
		{"rôle inconnu refusé", Role("X"), "u1", "u1", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CanView(c.role, c.requester, c.owner); got != c.want {
				t.Errorf("CanView = %v, attendu %v", got, c.want)
			}
		})
	}
}

func TestCanUpdate(t *testing.T) {
	cases := []struct {
		name      string
		role      Role
		requester string
		owner     string
		statut    Status
		want      bool
	}{
		{"admin modifie un projet terminé", RoleAdmin, "u1", "u2", StatusTermine, true},
		{"gestionnaire modifie un projet terminé", RoleGestionnaire, "u1", "u2", StatusTermine, true},
		{"candidat modifie son projet en cours", RoleCandidat, "u1", "u1", StatusEnCours, true},
		{"candidat modifie son projet suspendu", RoleCandidat, "u1", "u1", StatusSuspendu, true},
		{"candidat bloqué sur projet terminé", RoleCandidat, "u1", "u1", StatusTermine, false},
		{"candidat bloqué sur projet d'autrui", RoleCandidat, "u1", "u2", StatusEnCours, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CanUpdate(c.role, c.requester, c.owner, c.statut); got != c.want {
				t.Errorf("CanUpdate = %v, attendu %v", got, c.want)
			}
		})
	}
}

func TestCanDelete(t *testing.T) {
	if !CanDelete(RoleCandidat, "u1", "u1") {
		t.Error("le candidat doit pouvoir supprimer son projet")
	}
	if CanDelete(RoleCandidat, "u1", "u2") {
		t.Error("le candidat ne doit pas supprimer un projet d'autrui")
	}
	if !CanDelete(RoleGestionnaire, "u1", "u2") {
		t.Error("le gestionnaire doit pouvoir supprimer tout projet")
	}
}

func TestCan(t *testing.T) {
	if !Can(RoleCandidat, ActionCreate, "u1", "", StatusEnCours) {
		t.Error("tout rôle connu doit pouvoir créer")
	}
	if Can(RoleCandidat, ActionExport, "u1", "u1", StatusEnCours) {
		t.Error("l'export est réservé aux gestionnaires et admins")
	}
	if !Can(RoleGestionnaire, ActionExport, "u1", "", StatusEnCours) {
		t.Error("le gestionnaire doit pouvoir exporter")
	}
}
