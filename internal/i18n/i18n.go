// Package i18n fournit les libellés de l'interface en français et en
// anglais. Le français est la langue de référence.
package i18n

import "strings"

var messages = map[string]map[string]string{
	"fr": {
		"required":               "Requis",
		"login":                  "Connexion",
		"logout":                 "Déconnexion",
		"register":               "Inscription",
		"invalid_credentials":    "Email ou mot de passe incorrect",
		"account_disabled":       "Compte désactivé",
		"email_taken":            "Cette adresse email est déjà utilisée",
		"access_denied":          "Accès refusé",
		"not_found":              "Introuvable",
		"project_created":        "Projet créé avec succès",
		"project_updated":        "Projet mis à jour",
		"project_deleted":        "Projet supprimé",
		"profile_completed":      "Profil complété",
		"settings_saved":         "Paramètres enregistrés",
		"maintenance":            "Site en maintenance, merci de réessayer plus tard",
		"oauth_failed":           "La connexion Google a échoué",
		"invalid_form":           "Formulaire invalide",
		"domaine_already_exists": "Ce domaine existe déjà",
		"missing_domaine_name":   "Le nom du domaine est requis",
		"registration_closed":    "Les inscriptions sont fermées",
		"missing_title":          "Le titre du projet est requis",
		"invalid_progress":       "L'avancement doit être compris entre 0 et 100",
		"end_before_start":       "La date de fin précède la date de début",
		"statut_en_cours":        "En cours",
		"statut_suspendu":        "Suspendu",
		"statut_termine":         "Terminé",
	},
	"en": {
		"required":               "Required",
		"login":                  "Sign in",
		"logout":                 "Sign out",
		"register":               "Sign up",
		"invalid_credentials":    "Incorrect email or password",
		"account_disabled":       "Account disabled",
		"email_taken":            "This email address is already in use",
		"access_denied":          "Access denied",
		"not_found":              "Not found",
		"project_created":        "Project created",
		"project_updated":        "Project updated",
		"project_deleted":        "Project deleted",
		"profile_completed":      "Profile completed",
		"settings_saved":         "Settings saved",
		"maintenance":            "Site under maintenance, please try again later",
		"oauth_failed":           "Google sign-in failed",
		"invalid_form":           "Invalid form",
		"domaine_already_exists": "This domain already exists",
		"missing_domaine_name":   "Domain name is required",
		"registration_closed":    "Registration is closed",
		"missing_title":          "Project title is required",
		"invalid_progress":       "Progress must be between 0 and 100",
		"end_before_start":       "End date precedes start date",
		"statut_en_cours":        "In progress",
		"statut_suspendu":        "Suspended",
		"statut_termine":         "Completed",
	},
}

// T traduit un code de message. Langue inconnue ou code absent: repli sur
// le français, puis sur le code lui-même.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages["fr"][code]; ok {
		return s
	}
	return code
}

// DetectLanguage extrait la langue préférée de l'en-tête Accept-Language.
func DetectLanguage(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))
	for _, part := range strings.Split(header, ",") {
		lang := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if i := strings.Index(lang, "-"); i > 0 {
			lang = lang[:i]
		}
		if _, ok := messages[lang]; ok {
			return lang
		}
	}
	return "fr"
}
