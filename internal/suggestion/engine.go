// Package suggestion propone rasgos que el usuario todavía no tiene, a partir
// de su bio, de los rasgos que da a otros y de una heurística social fija.
package suggestion

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"youtrait/internal/domain"
)

const pendingLimit = 5

type ProfileReader interface {
	GetByID(ctx context.Context, id string) (domain.Profile, error)
}

type TraitReader interface {
	ListByTargetAndStatus(ctx context.Context, targetUserID, status string) ([]domain.Trait, error)
	ListGivenBy(ctx context.Context, createdByUserID, status string) ([]domain.Trait, error)
}

type Repository interface {
	InsertBatch(ctx context.Context, suggestions []domain.Suggestion) error
	ListPending(ctx context.Context, userID string, limit int) ([]domain.Suggestion, error)
	Transition(ctx context.Context, id, userID, status string, usedAt *time.Time) (bool, error)
}

// Engine no propaga errores del backend: los registra y devuelve un resultado
// vacío, que el llamador debe leer como "reintentar más tarde".
type Engine struct {
	profiles    ProfileReader
	traits      TraitReader
	suggestions Repository
	logger      *zap.Logger
	now         func() time.Time
}

func NewEngine(profiles ProfileReader, traits TraitReader, suggestions Repository, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		profiles:    profiles,
		traits:      traits,
		suggestions: suggestions,
		logger:      logger,
		now:         time.Now,
	}
}

// Candidate es una sugerencia antes de persistirse.
type Candidate struct {
	Word       string
	Category   string
	Confidence float64
	Reasoning  string
	Source     string
}

// Generate calcula y guarda una nueva tanda de sugerencias. Las tres fuentes
// se concatenan sin deduplicar entre sí.
func (e *Engine) Generate(ctx context.Context, userID string) []domain.Suggestion {
	logger := e.logger.With(zap.String("user_id", userID))

	profile, err := e.profiles.GetByID(ctx, userID)
	if err != nil {
		logger.Error("suggestions: load profile", zap.Error(err))
		return []domain.Suggestion{}
	}
	held, err := e.traits.ListByTargetAndStatus(ctx, userID, domain.TraitStatusApproved)
	if err != nil {
		logger.Error("suggestions: load held traits", zap.Error(err))
		return []domain.Suggestion{}
	}
	given, err := e.traits.ListGivenBy(ctx, userID, domain.TraitStatusApproved)
	if err != nil {
		logger.Error("suggestions: load given traits", zap.Error(err))
		return []domain.Suggestion{}
	}

	excluded := make(map[string]struct{}, len(held))
	for _, t := range held {
		excluded[strings.ToLower(t.Word)] = struct{}{}
	}
	givenWords := make([]string, 0, len(given))
	for _, t := range given {
		givenWords = append(givenWords, t.Word)
	}

	candidates := analyzeBio(profile.Bio, excluded)
	candidates = append(candidates, analyzeActivity(givenWords, excluded)...)
	candidates = append(candidates, analyzeSocialGraph(excluded)...)

	now := e.now().UTC()
	out := make([]domain.Suggestion, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.Suggestion{
			ID:              uuid.NewString(),
			UserID:          userID,
			SuggestedTrait:  c.Word,
			Category:        c.Category,
			ConfidenceScore: c.Confidence,
			Reasoning:       c.Reasoning,
			SourceType:      c.Source,
			Status:          domain.SuggestionStatusPending,
			CreatedAt:       now,
		})
	}

	if err := e.suggestions.InsertBatch(ctx, out); err != nil {
		logger.Error("suggestions: store batch", zap.Int("count", len(out)), zap.Error(err))
		return []domain.Suggestion{}
	}
	logger.Info("suggestions generated", zap.Int("count", len(out)))
	return out
}

// ListPending devuelve hasta cinco sugerencias pendientes, la más confiable primero.
func (e *Engine) ListPending(ctx context.Context, userID string) []domain.Suggestion {
	list, err := e.suggestions.ListPending(ctx, userID, pendingLimit)
	if err != nil {
		e.logger.Error("suggestions: list pending", zap.String("user_id", userID), zap.Error(err))
		return []domain.Suggestion{}
	}
	if list == nil {
		return []domain.Suggestion{}
	}
	return list
}

// Accept marca la sugerencia como usada. Devuelve true solo si estaba pendiente.
func (e *Engine) Accept(ctx context.Context, userID, id string) bool {
	now := e.now().UTC()
	return e.transition(ctx, userID, id, domain.SuggestionStatusAccepted, &now)
}

func (e *Engine) Reject(ctx context.Context, userID, id string) bool {
	return e.transition(ctx, userID, id, domain.SuggestionStatusRejected, nil)
}

func (e *Engine) transition(ctx context.Context, userID, id, status string, usedAt *time.Time) bool {
	changed, err := e.suggestions.Transition(ctx, id, userID, status, usedAt)
	if err != nil {
		e.logger.Error("suggestions: transition",
			zap.String("suggestion_id", id),
			zap.String("status", status),
			zap.Error(err),
		)
		return false
	}
	return changed
}

func analyzeBio(bio string, excluded map[string]struct{}) []Candidate {
	if strings.TrimSpace(bio) == "" {
		return nil
	}
	lower := strings.ToLower(bio)

	var out []Candidate
	for _, entry := range Vocabulary {
		if _, ok := excluded[strings.ToLower(entry.Word)]; ok {
			continue
		}
		matches := 0
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		out = append(out, Candidate{
			Word:       entry.Word,
			Category:   entry.Category,
			Confidence: confidence(0.9, 0.5, 0.2, matches),
			Reasoning:  fmt.Sprintf("Your bio mentions themes related to being %s", entry.Word),
			Source:     domain.SuggestionSourceBio,
		})
	}
	return out
}

// analyzeActivity sugiere palabras que el usuario dio al menos dos veces, en
// el orden en que aparecen por primera vez.
func analyzeActivity(given []string, excluded map[string]struct{}) []Candidate {
	freq := make(map[string]int, len(given))
	var order []string
	for _, w := range given {
		if _, seen := freq[w]; !seen {
			order = append(order, w)
		}
		freq[w]++
	}

	var out []Candidate
	for _, w := range order {
		if _, ok := excluded[strings.ToLower(w)]; ok {
			continue
		}
		f := freq[w]
		if f < 2 {
			continue
		}
		out = append(out, Candidate{
			Word:       w,
			Category:   CategoryOf(w),
			Confidence: confidence(0.8, 0.4, 0.1, f),
			Reasoning:  fmt.Sprintf("You often see %q in others - you might have this quality too", w),
			Source:     domain.SuggestionSourceActivity,
		})
	}
	return out
}

func analyzeSocialGraph(excluded map[string]struct{}) []Candidate {
	var out []Candidate
	for _, w := range SocialGraphWords {
		if _, ok := excluded[w]; ok {
			continue
		}
		out = append(out, Candidate{
			Word:       w,
			Category:   CategoryOf(w),
			Confidence: 0.6,
			Reasoning:  "Based on your social connections and interactions",
			Source:     domain.SuggestionSourceSocialGraph,
		})
	}
	return out
}

// confidence calcula min(ceiling, base+step*n) redondeado a centésimos.
func confidence(ceiling, base, step float64, n int) float64 {
	v := math.Min(ceiling, base+step*float64(n))
	return math.Round(v*100) / 100
}
