package policy

import (
	"errors"
	"strings"
)

// Role est l'énumération fermée des rôles applicatifs.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleGestionnaire Role = "GESTIONNAIRE"
	RoleCandidat     Role = "CANDIDAT"
)

var ErrUnknownRole = errors.New("unknown_role")

// ParseRole normalise une chaîne en Role. Le préfixe historique "ROLE_"
// est accepté et retiré.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_"))
	switch r {
	case RoleAdmin, RoleGestionnaire, RoleCandidat:
		return r, nil
	}
	return "", ErrUnknownRole
}

func (r Role) String() string { return string(r) }

// Libelle retourne le libellé français du rôle.
func (r Role) Libelle() string {
	switch r {
	case RoleAdmin:
		return "Administrateur"
	case RoleGestionnaire:
		return "Gestionnaire"
	case RoleCandidat:
		return "Candidat"
	}
	return string(r)
}
