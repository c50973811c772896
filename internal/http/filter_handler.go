package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"youtrait/internal/filter"
	"youtrait/internal/metrics"
)

// FilterHandler expone el filtro de contenido como endpoint público.
type FilterHandler struct {
	logger *zap.Logger
	filter *filter.Filter
}

func NewFilterHandler(logger *zap.Logger, f *filter.Filter) *FilterHandler {
	if f == nil {
		f = filter.Default()
	}
	return &FilterHandler{logger: logger, filter: f}
}

type filterResponse struct {
	IsClean      bool     `json:"isClean"`
	FilteredText string   `json:"filteredText"`
	FlaggedWords []string `json:"flaggedWords"`
}

// Check maneja POST /functions/profanity-filter.
func (h *FilterHandler) Check(c *gin.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("content filter panic", zap.Any("panic", rec))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":        "Internal server error",
				"isClean":      false,
				"filteredText": "",
				"flaggedWords": []string{},
			})
		}
	}()

	var req struct {
		Text any `json:"text"`
		Type any `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required and must be a string"})
		return
	}
	text, ok := req.Text.(string)
	if !ok || text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required and must be a string"})
		return
	}
	textType := "other"
	switch t := fmt.Sprint(req.Type); t {
	case "trait", "message", "bio":
		textType = t
	}

	result, filtered := h.filter.Apply(text)
	if result.IsClean {
		metrics.FilterChecks.WithLabelValues(textType, "clean").Inc()
	} else {
		metrics.FilterChecks.WithLabelValues(textType, "flagged").Inc()
		h.logger.Info("profanity detected",
			zap.String("type", textType),
			zap.Strings("flagged_words", result.FlaggedWords),
		)
	}

	c.JSON(http.StatusOK, filterResponse{
		IsClean:      result.IsClean,
		FilteredText: filtered,
		FlaggedWords: result.FlaggedWords,
	})
}

// Preflight responde OPTIONS con "ok"; los headers los pone el middleware CORS.
func (h *FilterHandler) Preflight(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte("ok"))
}
