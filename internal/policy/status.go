package policy

import (
	"errors"
	"strings"
)

// Status est l'énumération fermée des statuts de projet.
type Status string

const (
	StatusEnCours  Status = "EN_COURS"
	StatusSuspendu Status = "SUSPENDU"
	StatusTermine  Status = "TERMINE"
)

var ErrUnknownStatus = errors.New("unknown_status")

// ParseStatus normalise une chaîne en Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusEnCours, StatusSuspendu, StatusTermine:
		return st, nil
	}
	return "", ErrUnknownStatus
}

func (s Status) String() string { return string(s) }
