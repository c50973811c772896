package domain

import (
	"strings"
	"time"
)

const (
	TraitCategoryMind    = "mind"
	TraitCategoryHeart   = "heart"
	TraitCategorySocial  = "social"
	TraitCategoryGeneral = "general"
)

const (
	TraitStatusPending  = "pending"
	TraitStatusApproved = "approved"
	TraitStatusRejected = "rejected"
)

// Trait es una palabra que un usuario propone para el perfil de otro.
// Los tags JSON coinciden con las columnas de la tabla traits, que es el
// formato en que llegan los registros por el change feed.
type Trait struct {
	ID              string     `json:"id"`
	Word            string     `json:"word"`
	Category        string     `json:"category"`
	Status          string     `json:"status"`
	Upvotes         int        `json:"upvotes"`
	Color           string     `json:"color,omitempty"`
	TargetUserID    string     `json:"target_user"`
	CreatedByUserID string     `json:"created_by"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CanTransition indica si el cambio de estado respeta pending -> approved|rejected.
func CanTransition(from, to string) bool {
	return from == TraitStatusPending && (to == TraitStatusApproved || to == TraitStatusRejected)
}

// NormalizeCategory devuelve general para categorías desconocidas.
func NormalizeCategory(category string) string {
	switch c := strings.ToLower(strings.TrimSpace(category)); c {
	case TraitCategoryMind, TraitCategoryHeart, TraitCategorySocial:
		return c
	default:
		return TraitCategoryGeneral
	}
}

// NormalizeWord recorta y pasa a minúsculas una palabra de rasgo.
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
