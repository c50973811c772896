package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"youtrait/internal/changefeed"
	"youtrait/internal/domain"
	"youtrait/internal/filter"
	"youtrait/internal/metrics"
	"youtrait/internal/realtime"
	"youtrait/internal/repository"
	"youtrait/internal/suggestion"
)

const maxTraitWordLen = 30

// TraitService gestiona el ciclo de vida de los rasgos: propuesta,
// aprobación o rechazo por el destinatario y votos.
type TraitService struct {
	logger        *zap.Logger
	traits        repository.TraitRepository
	profiles      repository.ProfileRepository
	notifications repository.NotificationRepository
	filter        *filter.Filter
	emitter       *ChangeEmitter
	now           func() time.Time
}

func NewTraitService(
	logger *zap.Logger,
	traits repository.TraitRepository,
	profiles repository.ProfileRepository,
	notifications repository.NotificationRepository,
	contentFilter *filter.Filter,
	emitter *ChangeEmitter,
) *TraitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if contentFilter == nil {
		contentFilter = filter.Default()
	}
	return &TraitService{
		logger:        logger,
		traits:        traits,
		profiles:      profiles,
		notifications: notifications,
		filter:        contentFilter,
		emitter:       emitter,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type EndorseInput struct {
	TargetUserID string
	Word         string
	Category     string
}

// Endorse propone word para el perfil de TargetUserID. El rasgo nace pendiente
// y el destinatario recibe una notificación.
func (s *TraitService) Endorse(ctx context.Context, creatorID string, input EndorseInput) (domain.Trait, error) {
	word := domain.NormalizeWord(input.Word)
	if err := validateTraitWord(word); err != nil {
		return domain.Trait{}, err
	}
	target := strings.TrimSpace(input.TargetUserID)
	if target == "" {
		return domain.Trait{}, fmt.Errorf("%w: target user required", ErrValidation)
	}
	if target == creatorID {
		return domain.Trait{}, fmt.Errorf("%w: cannot endorse yourself", ErrForbidden)
	}

	check := s.filter.Check(word)
	if !check.IsClean {
		metrics.FilterChecks.WithLabelValues("trait", "flagged").Inc()
		s.logger.Warn("trait endorsement flagged",
			zap.String("created_by", creatorID),
			zap.Strings("flagged_words", check.FlaggedWords),
		)
		return domain.Trait{}, fmt.Errorf("%w: %s", ErrContentFlagged, strings.Join(check.FlaggedWords, ", "))
	}
	metrics.FilterChecks.WithLabelValues("trait", "clean").Inc()

	if _, err := s.profiles.GetByID(ctx, target); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Trait{}, ErrNotFound
		}
		return domain.Trait{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	category := domain.NormalizeCategory(input.Category)
	if strings.TrimSpace(input.Category) == "" {
		category = suggestion.CategoryOf(word)
	}

	trait := domain.Trait{
		ID:              uuid.NewString(),
		Word:            word,
		Category:        category,
		Status:          domain.TraitStatusPending,
		TargetUserID:    target,
		CreatedByUserID: creatorID,
		CreatedAt:       s.now(),
	}
	if err := s.traits.Create(ctx, trait); err != nil {
		return domain.Trait{}, fmt.Errorf("%w: create trait: %v", ErrBackend, err)
	}
	s.emitter.Emit(ctx, realtime.TableTraits, changefeed.OpCreated, trait, nil)

	s.notify(ctx, target, domain.NotificationTypeInfo,
		"New trait endorsement",
		fmt.Sprintf("Someone thinks you are %q", word),
	)
	return trait, nil
}

// Approve y Reject solo aplican sobre rasgos pendientes del propio usuario.
func (s *TraitService) Approve(ctx context.Context, userID, traitID string) (domain.Trait, error) {
	trait, err := s.transition(ctx, userID, traitID, domain.TraitStatusApproved)
	if err != nil {
		return domain.Trait{}, err
	}
	s.notify(ctx, trait.CreatedByUserID, domain.NotificationTypeSuccess,
		"Trait approved",
		fmt.Sprintf("Your endorsement %q was approved", trait.Word),
	)
	return trait, nil
}

func (s *TraitService) Reject(ctx context.Context, userID, traitID string) (domain.Trait, error) {
	return s.transition(ctx, userID, traitID, domain.TraitStatusRejected)
}

func (s *TraitService) transition(ctx context.Context, userID, traitID, status string) (domain.Trait, error) {
	trait, err := s.traits.Transition(ctx, traitID, userID, status, s.now())
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return domain.Trait{}, fmt.Errorf("%w: transition trait: %v", ErrBackend, err)
		}
		return domain.Trait{}, s.explainTransitionMiss(ctx, userID, traitID, status)
	}

	old := trait
	old.Status = domain.TraitStatusPending
	old.ApprovedAt = nil
	s.emitter.Emit(ctx, realtime.TableTraits, changefeed.OpUpdated, trait, old)

	s.logger.Info("trait status changed",
		zap.String("trait_id", trait.ID),
		zap.String("status", status),
		zap.String("user_id", userID),
	)
	return trait, nil
}

// explainTransitionMiss distingue por qué el update condicional no tocó filas.
func (s *TraitService) explainTransitionMiss(ctx context.Context, userID, traitID, status string) error {
	current, err := s.traits.GetByID(ctx, traitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if current.TargetUserID != userID {
		return ErrForbidden
	}
	if !domain.CanTransition(current.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}
	// el rasgo cambió entre el update y la lectura
	return ErrInvalidTransition
}

func (s *TraitService) Upvote(ctx context.Context, traitID string) (domain.Trait, error) {
	trait, err := s.traits.Upvote(ctx, traitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Trait{}, ErrNotFound
		}
		return domain.Trait{}, fmt.Errorf("%w: upvote trait: %v", ErrBackend, err)
	}
	old := trait
	old.Upvotes--
	s.emitter.Emit(ctx, realtime.TableTraits, changefeed.OpUpdated, trait, old)
	return trait, nil
}

func (s *TraitService) ListReceived(ctx context.Context, userID string) ([]domain.Trait, error) {
	traits, err := s.traits.ListByTarget(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list traits: %v", ErrBackend, err)
	}
	return traits, nil
}

func (s *TraitService) ListPendingApproval(ctx context.Context, userID string) ([]domain.Trait, error) {
	traits, err := s.traits.ListByTargetAndStatus(ctx, userID, domain.TraitStatusPending)
	if err != nil {
		return nil, fmt.Errorf("%w: list pending traits: %v", ErrBackend, err)
	}
	return traits, nil
}

// Stats calcula los contadores del dashboard a partir de los rasgos recibidos.
func (s *TraitService) Stats(ctx context.Context, userID string) (domain.Stats, error) {
	received, err := s.ListReceived(ctx, userID)
	if err != nil {
		return domain.Stats{}, err
	}
	given, err := s.traits.CountGivenBy(ctx, userID)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("%w: count given traits: %v", ErrBackend, err)
	}
	return domain.ComputeStats(received, given), nil
}

func (s *TraitService) notify(ctx context.Context, userID, typ, title, message string) {
	if s.notifications == nil || userID == "" {
		return
	}
	n := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Error("notification create failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.emitter.Emit(ctx, realtime.TableNotifications, changefeed.OpCreated, n, nil)
}

func validateTraitWord(word string) error {
	if word == "" {
		return fmt.Errorf("%w: word required", ErrValidation)
	}
	if utf8.RuneCountInString(word) > maxTraitWordLen {
		return fmt.Errorf("%w: word longer than %d characters", ErrValidation, maxTraitWordLen)
	}
	for _, r := range word {
		if unicode.IsSpace(r) {
			return fmt.Errorf("%w: a trait is a single word", ErrValidation)
		}
	}
	return nil
}
