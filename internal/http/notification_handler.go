package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"youtrait/internal/service"
)

type NotificationHandler struct {
	logger        *zap.Logger
	notifications *service.NotificationService
	sessions      SessionProvider
}

func NewNotificationHandler(logger *zap.Logger, notifications *service.NotificationService, sessions SessionProvider) *NotificationHandler {
	return &NotificationHandler{logger: logger, notifications: notifications, sessions: sessions}
}

// List maneja GET /me/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	withSession(c, h.logger, h.sessions, func(_ string, sess *service.Session) {
		c.JSON(http.StatusOK, gin.H{
			"notifications": sess.Stores.Notifications.Notifications(),
			"unreadCount":   sess.Stores.Notifications.UnreadCount(),
		})
	})
}

// MarkRead maneja POST /notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), userID, id); err != nil {
		writeServiceError(c, h.logger, "mark notification read", err)
		return
	}
	if sess, ok := h.sessions.Lookup(userID); ok {
		sess.Stores.Notifications.MarkAsRead(id)
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead maneja POST /notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	n, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, h.logger, "mark notifications read", err)
		return
	}
	if sess, ok := h.sessions.Lookup(userID); ok {
		sess.Stores.Notifications.MarkAllAsRead()
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
