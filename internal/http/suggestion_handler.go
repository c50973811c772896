package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"youtrait/internal/domain"
)

// SuggestionEngine es la parte del motor de sugerencias que usa el handler.
// Las fallas del backend llegan como lista vacía o false.
type SuggestionEngine interface {
	Generate(ctx context.Context, userID string) []domain.Suggestion
	ListPending(ctx context.Context, userID string) []domain.Suggestion
	Accept(ctx context.Context, userID, id string) bool
	Reject(ctx context.Context, userID, id string) bool
}

type SuggestionHandler struct {
	logger *zap.Logger
	engine SuggestionEngine
}

func NewSuggestionHandler(logger *zap.Logger, engine SuggestionEngine) *SuggestionHandler {
	return &SuggestionHandler{logger: logger, engine: engine}
}

// List maneja GET /suggestions.
func (h *SuggestionHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": h.engine.ListPending(c.Request.Context(), userID)})
}

// Generate maneja POST /suggestions/generate.
func (h *SuggestionHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": h.engine.Generate(c.Request.Context(), userID)})
}

// Accept maneja POST /suggestions/:id/accept.
func (h *SuggestionHandler) Accept(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": h.engine.Accept(c.Request.Context(), userID, c.Param("id"))})
}

// Reject maneja POST /suggestions/:id/reject.
func (h *SuggestionHandler) Reject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": h.engine.Reject(c.Request.Context(), userID, c.Param("id"))})
}
