package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"youtrait/internal/service"
)

type TraitHandler struct {
	logger   *zap.Logger
	traits   *service.TraitService
	sessions SessionProvider
}

func NewTraitHandler(logger *zap.Logger, traits *service.TraitService, sessions SessionProvider) *TraitHandler {
	return &TraitHandler{logger: logger, traits: traits, sessions: sessions}
}

// MyTraits maneja GET /me/traits con la foto del store de sesión.
func (h *TraitHandler) MyTraits(c *gin.Context) {
	withSession(c, h.logger, h.sessions, func(_ string, sess *service.Session) {
		c.JSON(http.StatusOK, gin.H{
			"traits":  sess.Stores.Traits.Traits(),
			"pending": sess.Stores.Approval.PendingEndorsements(),
		})
	})
}

// Stats maneja GET /me/stats.
func (h *TraitHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.traits.Stats(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, h.logger, "load stats", err)
		return
	}
	if sess, ok := h.sessions.Lookup(userID); ok {
		sess.Stores.Stats.SetStats(stats)
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Endorse maneja POST /traits.
func (h *TraitHandler) Endorse(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		TargetUserID string `json:"target_user_id" binding:"required"`
		Word         string `json:"word" binding:"required"`
		Category     string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid endorse request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	trait, err := h.traits.Endorse(c.Request.Context(), userID, service.EndorseInput{
		TargetUserID: req.TargetUserID,
		Word:         req.Word,
		Category:     req.Category,
	})
	if err != nil {
		writeServiceError(c, h.logger, "endorse", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"trait": trait})
}

// Approve maneja POST /traits/:id/approve.
func (h *TraitHandler) Approve(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	traitID, ok := idParam(c)
	if !ok {
		return
	}
	trait, err := h.traits.Approve(c.Request.Context(), userID, traitID)
	if err != nil {
		writeServiceError(c, h.logger, "approve trait", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trait": trait})
}

// Reject maneja POST /traits/:id/reject.
func (h *TraitHandler) Reject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	traitID, ok := idParam(c)
	if !ok {
		return
	}
	trait, err := h.traits.Reject(c.Request.Context(), userID, traitID)
	if err != nil {
		writeServiceError(c, h.logger, "reject trait", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trait": trait})
}

// Upvote maneja POST /traits/:id/upvote.
func (h *TraitHandler) Upvote(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	traitID, ok := idParam(c)
	if !ok {
		return
	}
	trait, err := h.traits.Upvote(c.Request.Context(), traitID)
	if err != nil {
		writeServiceError(c, h.logger, "upvote trait", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trait": trait})
}
