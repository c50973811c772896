package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"youtrait/internal/domain"
	"youtrait/internal/events"
)

// Las operaciones salientes no devuelven nada ni tocan stores locales: el
// cambio vuelve por el change feed. Sin usuario en sesión no hacen nada.

func (a *Adapter) SendReaction(ctx context.Context, traitID, emoji string, pos events.Position) {
	user := a.stores.Auth.User()
	if user == nil {
		return
	}
	reaction := domain.Reaction{
		ID:            uuid.NewString(),
		TraitID:       traitID,
		UserID:        user.ID,
		Emoji:         emoji,
		AnimationType: domain.AnimationFloat,
		PositionX:     pos.X,
		PositionY:     pos.Y,
		CreatedAt:     time.Now().UTC(),
	}
	if err := a.writer.CreateReaction(ctx, reaction); err != nil {
		a.logger.Error("error sending reaction",
			zap.String("trait_id", traitID),
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}
}

func (a *Adapter) SendBestieRequest(ctx context.Context, requestedUserID, message string) {
	user := a.stores.Auth.User()
	if user == nil {
		return
	}
	req := domain.BestieRequest{
		ID:          uuid.NewString(),
		RequesterID: user.ID,
		RequestedID: requestedUserID,
		Message:     message,
		Status:      domain.BestieStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.writer.CreateBestieRequest(ctx, req); err != nil {
		a.logger.Error("error sending bestie request",
			zap.String("requested_id", requestedUserID),
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}
}

func (a *Adapter) RespondToBestieRequest(ctx context.Context, requestID, status string) {
	user := a.stores.Auth.User()
	if user == nil {
		return
	}
	if err := a.writer.RespondBestieRequest(ctx, requestID, user.ID, status); err != nil {
		a.logger.Error("error responding to bestie request",
			zap.String("request_id", requestID),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}
