package domain

// Stats resume la actividad de rasgos de un usuario para el dashboard.
type Stats struct {
	TotalTraits    int `json:"total_traits"`
	ApprovedTraits int `json:"approved_traits"`
	PendingTraits  int `json:"pending_traits"`
	TotalUpvotes   int `json:"total_upvotes"`
	TraitsGiven    int `json:"traits_given"`
}

// ComputeStats agrega los rasgos recibidos; traitsGiven viene de otra consulta.
func ComputeStats(received []Trait, traitsGiven int) Stats {
	stats := Stats{TotalTraits: len(received), TraitsGiven: traitsGiven}
	for _, t := range received {
		switch t.Status {
		case TraitStatusApproved:
			stats.ApprovedTraits++
			stats.TotalUpvotes += t.Upvotes
		case TraitStatusPending:
			stats.PendingTraits++
		}
	}
	return stats
}
