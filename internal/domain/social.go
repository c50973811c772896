package domain

import "time"

const (
	BestieStatusPending  = "pending"
	BestieStatusAccepted = "accepted"
	BestieStatusRejected = "rejected"
)

type BestieRequest struct {
	ID          string     `json:"id"`
	RequesterID string     `json:"requester_id"`
	RequestedID string     `json:"requested_id"`
	Message     string     `json:"message,omitempty"`
	Status      string     `json:"status"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

const AnimationFloat = "float"

// Reaction es un emoji lanzado sobre un rasgo; solo vive como animación en los clientes.
type Reaction struct {
	ID            string    `json:"id"`
	TraitID       string    `json:"trait_id"`
	UserID        string    `json:"user_id"`
	Emoji         string    `json:"emoji"`
	AnimationType string    `json:"animation_type"`
	PositionX     float64   `json:"position_x"`
	PositionY     float64   `json:"position_y"`
	CreatedAt     time.Time `json:"created_at"`
}
