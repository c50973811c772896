package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"youtrait/internal/changefeed"
	"youtrait/internal/domain"
	"youtrait/internal/realtime"
	"youtrait/internal/repository"
)

const maxBestieMessageLen = 280

// RealtimeWriter persiste las escrituras salientes del adaptador realtime y
// publica el cambio para que vuelva a los suscriptores.
type RealtimeWriter struct {
	logger    *zap.Logger
	reactions repository.ReactionRepository
	besties   repository.BestieRepository
	profiles  repository.ProfileRepository
	emitter   *ChangeEmitter
}

var _ realtime.Writer = (*RealtimeWriter)(nil)

func NewRealtimeWriter(
	logger *zap.Logger,
	reactions repository.ReactionRepository,
	besties repository.BestieRepository,
	profiles repository.ProfileRepository,
	emitter *ChangeEmitter,
) *RealtimeWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeWriter{
		logger:    logger,
		reactions: reactions,
		besties:   besties,
		profiles:  profiles,
		emitter:   emitter,
	}
}

func (w *RealtimeWriter) CreateReaction(ctx context.Context, reaction domain.Reaction) error {
	if strings.TrimSpace(reaction.TraitID) == "" || strings.TrimSpace(reaction.Emoji) == "" {
		return fmt.Errorf("%w: trait and emoji required", ErrValidation)
	}
	if err := w.reactions.Create(ctx, reaction); err != nil {
		return fmt.Errorf("%w: create reaction: %v", ErrBackend, err)
	}
	w.emitter.Emit(ctx, realtime.TableReactions, changefeed.OpCreated, reaction, nil)
	return nil
}

func (w *RealtimeWriter) CreateBestieRequest(ctx context.Context, req domain.BestieRequest) error {
	if req.RequestedID == "" {
		return fmt.Errorf("%w: requested user required", ErrValidation)
	}
	if req.RequestedID == req.RequesterID {
		return fmt.Errorf("%w: cannot send a bestie request to yourself", ErrForbidden)
	}
	req.Message = strings.TrimSpace(req.Message)
	if len([]rune(req.Message)) > maxBestieMessageLen {
		return fmt.Errorf("%w: message too long", ErrValidation)
	}
	if w.profiles != nil {
		if _, err := w.profiles.GetByID(ctx, req.RequestedID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}
	if err := w.besties.Create(ctx, req); err != nil {
		return fmt.Errorf("%w: create bestie request: %v", ErrBackend, err)
	}
	w.emitter.Emit(ctx, realtime.TableBestieRequests, changefeed.OpCreated, req, nil)
	return nil
}

// RespondBestieRequest cierra una solicitud pendiente dirigida a userID.
func (w *RealtimeWriter) RespondBestieRequest(ctx context.Context, id, userID, status string) error {
	if status != domain.BestieStatusAccepted && status != domain.BestieStatusRejected {
		return fmt.Errorf("%w: status must be accepted or rejected", ErrValidation)
	}
	req, err := w.besties.Respond(ctx, id, userID, status, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: respond bestie request: %v", ErrBackend, err)
	}
	old := req
	old.Status = domain.BestieStatusPending
	old.RespondedAt = nil
	w.emitter.Emit(ctx, realtime.TableBestieRequests, changefeed.OpUpdated, req, old)
	return nil
}
