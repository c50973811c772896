package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"youtrait/internal/service"
)

// Handlers agrupa los handlers que monta NewRouter.
type Handlers struct {
	Auth          *AuthHandler
	Profile       *ProfileHandler
	Traits        *TraitHandler
	Notifications *NotificationHandler
	Suggestions   *SuggestionHandler
	Social        *SocialHandler
	Realtime      *RealtimeHandler
	Filter        *FilterHandler
}

// SessionProvider entrega el contexto de aplicación del usuario autenticado.
type SessionProvider interface {
	Acquire(ctx context.Context, userID string) (*service.Session, error)
	Release(userID string)
	Lookup(userID string) (*service.Session, bool)
}

// currentUserID lee el usuario de los claims; responde 401 si no hay.
func currentUserID(c *gin.Context) (string, bool) {
	claims, ok := GetAuthClaims(c)
	if !ok || claims.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return claims.UserID, true
}

// withSession toma la sesión del usuario durante fn.
func withSession(c *gin.Context, logger *zap.Logger, sessions SessionProvider, fn func(userID string, sess *service.Session)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sess, err := sessions.Acquire(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, logger, "load session", err)
		return
	}
	defer sessions.Release(userID)
	fn(userID, sess)
}

// idParam devuelve :id si es un UUID. Si no lo es responde 404: ninguna fila
// puede tener ese id.
func idParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return "", false
	}
	return id, true
}

// writeServiceError traduce errores de servicio a respuestas HTTP.
func writeServiceError(c *gin.Context, logger *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrContentFlagged):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	default:
		logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not " + op})
	}
}
