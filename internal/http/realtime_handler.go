package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultHeartbeat = 25 * time.Second
	streamBuffer     = 32
)

// RealtimeHandler expone el bus de eventos de la sesión como Server-Sent Events.
type RealtimeHandler struct {
	logger    *zap.Logger
	sessions  SessionProvider
	heartbeat time.Duration
}

func NewRealtimeHandler(logger *zap.Logger, sessions SessionProvider) *RealtimeHandler {
	return &RealtimeHandler{logger: logger, sessions: sessions, heartbeat: defaultHeartbeat}
}

// Stream maneja GET /realtime/stream. Conecta el adaptador de la sesión y
// reenvía cada evento como "event: <kind>" con datos JSON hasta que el
// cliente se va.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	sess, err := h.sessions.Acquire(ctx, userID)
	if err != nil {
		writeServiceError(c, h.logger, "open realtime stream", err)
		return
	}
	defer h.sessions.Release(userID)

	sub := sess.Bus.Subscribe(streamBuffer)
	defer sub.Close()

	if err := sess.Adapter.Connect(ctx, userID); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime unavailable"})
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	fmt.Fprint(c.Writer, ": connected\n\n")
	c.Writer.Flush()

	h.logger.Info("realtime stream open", zap.String("user_id", userID))
	defer h.logger.Info("realtime stream closed", zap.String("user_id", userID))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			c.SSEvent(string(ev.Kind), ev.Payload())
			c.Writer.Flush()
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			c.Writer.Flush()
		}
	}
}
