package service

import (
	"strings"

	"fundops/internal/identity/models"
)

func matchIDs(matches []models.Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.ID.String())
	}
	return out
}

func matchRoles(matches []models.Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, string(m.Role))
	}
	return out
}

func joinIDs(matches []models.Match) string {
	return strings.Join(matchIDs(matches), ",")
}
