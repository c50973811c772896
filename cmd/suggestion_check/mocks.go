package main

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"youtrait/internal/domain"
)

type memoryProfileRepo struct {
	profile domain.Profile
}

func (m *memoryProfileRepo) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	return m.profile, nil
}

type memoryTraitRepo struct {
	traits []domain.Trait
}

// newMemoryTraitRepo arma rasgos aprobados: held recibidos por userID y given
// entregados por userID a un tercero.
func newMemoryTraitRepo(userID string, held, given []string) *memoryTraitRepo {
	other := uuid.NewString()
	now := time.Now().UTC()
	repo := &memoryTraitRepo{}
	for _, w := range held {
		repo.traits = append(repo.traits, domain.Trait{
			ID: uuid.NewString(), Word: w, Status: domain.TraitStatusApproved,
			TargetUserID: userID, CreatedByUserID: other, CreatedAt: now,
		})
	}
	for _, w := range given {
		repo.traits = append(repo.traits, domain.Trait{
			ID: uuid.NewString(), Word: w, Status: domain.TraitStatusApproved,
			TargetUserID: other, CreatedByUserID: userID, CreatedAt: now,
		})
	}
	return repo
}

func (m *memoryTraitRepo) ListByTargetAndStatus(ctx context.Context, targetUserID, status string) ([]domain.Trait, error) {
	var out []domain.Trait
	for _, t := range m.traits {
		if t.TargetUserID == targetUserID && t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memoryTraitRepo) ListGivenBy(ctx context.Context, createdByUserID, status string) ([]domain.Trait, error) {
	var out []domain.Trait
	for _, t := range m.traits {
		if t.CreatedByUserID == createdByUserID && t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

type memorySuggestionRepo struct {
	items []domain.Suggestion
}

func (m *memorySuggestionRepo) InsertBatch(ctx context.Context, suggestions []domain.Suggestion) error {
	m.items = append(m.items, suggestions...)
	return nil
}

func (m *memorySuggestionRepo) ListPending(ctx context.Context, userID string, limit int) ([]domain.Suggestion, error) {
	var out []domain.Suggestion
	for _, s := range m.items {
		if s.UserID == userID && s.Status == domain.SuggestionStatusPending {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ConfidenceScore > out[j].ConfidenceScore })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memorySuggestionRepo) Transition(ctx context.Context, id, userID, status string, usedAt *time.Time) (bool, error) {
	for i, s := range m.items {
		if s.ID == id && s.UserID == userID && s.Status == domain.SuggestionStatusPending {
			m.items[i].Status = status
			m.items[i].UsedAt = usedAt
			return true, nil
		}
	}
	return false, nil
}
