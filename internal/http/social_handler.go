package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"youtrait/internal/domain"
	"youtrait/internal/events"
	"youtrait/internal/service"
)

// SocialHandler reenvía reacciones y solicitudes de bestie por el adaptador
// realtime de la sesión. El resultado vuelve por el change feed, así que
// responde 202 sin cuerpo de resultado.
type SocialHandler struct {
	logger   *zap.Logger
	sessions SessionProvider
}

func NewSocialHandler(logger *zap.Logger, sessions SessionProvider) *SocialHandler {
	return &SocialHandler{logger: logger, sessions: sessions}
}

// SendReaction maneja POST /reactions.
func (h *SocialHandler) SendReaction(c *gin.Context) {
	var req struct {
		TraitID string  `json:"trait_id" binding:"required"`
		Emoji   string  `json:"emoji" binding:"required"`
		X       float64 `json:"x"`
		Y       float64 `json:"y"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reaction request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	withSession(c, h.logger, h.sessions, func(_ string, sess *service.Session) {
		sess.Adapter.SendReaction(c.Request.Context(), req.TraitID, req.Emoji, events.Position{X: req.X, Y: req.Y})
		c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
	})
}

// SendBestieRequest maneja POST /besties/requests.
func (h *SocialHandler) SendBestieRequest(c *gin.Context) {
	var req struct {
		RequestedUserID string `json:"requested_user_id" binding:"required"`
		Message         string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid bestie request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	withSession(c, h.logger, h.sessions, func(_ string, sess *service.Session) {
		sess.Adapter.SendBestieRequest(c.Request.Context(), req.RequestedUserID, req.Message)
		c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
	})
}

// RespondBestieRequest maneja POST /besties/requests/:id/respond.
func (h *SocialHandler) RespondBestieRequest(c *gin.Context) {
	requestID, ok := idParam(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid bestie response", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Status != domain.BestieStatusAccepted && req.Status != domain.BestieStatusRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be accepted or rejected"})
		return
	}
	withSession(c, h.logger, h.sessions, func(_ string, sess *service.Session) {
		sess.Adapter.RespondToBestieRequest(c.Request.Context(), requestID, req.Status)
		c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
	})
}

// Besties maneja GET /me/besties con la foto del store de sesión.
func (h *SocialHandler) Besties(c *gin.Context) {
	withSession(c, h.logger, h.sessions, func(_ string, sess *service.Session) {
		c.JSON(http.StatusOK, gin.H{
			"besties": sess.Stores.Besties.Besties(),
			"pending": sess.Stores.Besties.PendingRequests(),
		})
	})
}
