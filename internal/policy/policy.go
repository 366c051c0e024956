// Package policy regroupe les règles d'accès aux projets de recherche.
// Les décisions sont des fonctions pures sur des entrées explicites :
// aucun contexte d'authentification ambiant.
package policy

import "errors"

var ErrUnauthorized = errors.New("unauthorized")

// CanView indique si requester peut consulter le projet de owner.
// Admin et gestionnaire voient tout, le candidat seulement ses projets.
func CanView(role Role, requesterID, ownerID string) bool {
	switch role {
	case RoleAdmin, RoleGestionnaire:
		return true
	case RoleCandidat:
		return requesterID != "" && requesterID == ownerID
	}
	return false
}

// CanUpdate indique si requester peut modifier le projet de owner.
// Un candidat ne modifie que ses propres projets, et jamais un projet terminé.
func CanUpdate(role Role, requesterID, ownerID string, statut Status) bool {
	switch role {
	case RoleAdmin, RoleGestionnaire:
		return true
	case RoleCandidat:
		return requesterID != "" && requesterID == ownerID && statut != StatusTermine
	}
	return false
}

// CanDelete indique si requester peut supprimer le projet de owner.
func CanDelete(role Role, requesterID, ownerID string) bool {
	switch role {
	case RoleAdmin, RoleGestionnaire:
		return true
	case RoleCandidat:
		return requesterID != "" && requesterID == ownerID
	}
	return false
}

// Can route une action vers la règle correspondante.
func Can(role Role, action Action, requesterID, ownerID string, statut Status) bool {
	switch action {
	case ActionView, ActionList:
		return CanView(role, requesterID, ownerID)
	case ActionUpdate:
		return CanUpdate(role, requesterID, ownerID, statut)
	case ActionDelete:
		return CanDelete(role, requesterID, ownerID)
	case ActionCreate:
		return role != ""
	case ActionExport:
		return role == RoleAdmin || role == RoleGestionnaire
	}
	return false
}
