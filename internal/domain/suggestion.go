package domain

import "time"

const (
	SuggestionSourceBio         = "bio"
	SuggestionSourceActivity    = "activity"
	SuggestionSourceSocialGraph = "social_graph"
)

const (
	SuggestionStatusPending  = "pending"
	SuggestionStatusAccepted = "accepted"
	SuggestionStatusRejected = "rejected"
)

type Suggestion struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	SuggestedTrait  string     `json:"suggested_trait"`
	Category        string     `json:"category"`
	ConfidenceScore float64    `json:"confidence_score"`
	Reasoning       string     `json:"reasoning"`
	SourceType      string     `json:"source_type"`
	Status          string     `json:"status"`
	UsedAt          *time.Time `json:"used_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
